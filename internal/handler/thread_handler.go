package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/shinyyama/bidboard-backend/internal/service"
)

type ThreadHandler struct {
	threads  service.ThreadService
	messages service.MessageService
	upgrader websocket.Upgrader
}

// NewThreadHandler builds the thread endpoints. allowOrigin decides which
// browser origins may open a WebSocket; requests without Origin are allowed.
func NewThreadHandler(threads service.ThreadService, messages service.MessageService, allowOrigin func(origin string) bool) *ThreadHandler {
	return &ThreadHandler{
		threads:  threads,
		messages: messages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowOrigin == nil || allowOrigin(origin)
			},
		},
	}
}

type ThreadResponse struct {
	ID            string  `json:"id"`
	QuoteID       string  `json:"quoteId"`
	PostID        string  `json:"postId"`
	CustomerUID   string  `json:"customerUid"`
	VendorUID     string  `json:"vendorUid"`
	LastSeq       int64   `json:"lastSeq"`
	LastMessageAt *string `json:"lastMessageAt,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

type MessageResponse struct {
	ID        string `json:"id"`
	ThreadID  string `json:"threadId"`
	Seq       int64  `json:"seq"`
	SenderUID string `json:"senderUid"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type MessageRequest struct {
	Content string `json:"content"`
}

func toThreadResponse(t *model.ChatThread) ThreadResponse {
	return ThreadResponse{
		ID:            t.ID,
		QuoteID:       t.QuoteID,
		PostID:        t.PostID,
		CustomerUID:   t.CustomerUID,
		VendorUID:     t.VendorUID,
		LastSeq:       t.NextSeq,
		LastMessageAt: formatTimePtr(t.LastMessageAt),
		CreatedAt:     formatTime(t.CreatedAt),
	}
}

func toMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		Seq:       m.Seq,
		SenderUID: m.SenderUID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (h *ThreadHandler) List(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.threads.ListForUser(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err, "thread")
	}
	resp := make([]ThreadResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toThreadResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ThreadHandler) Get(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	th, err := h.threads.Get(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeServiceError(c, err, "thread")
	}
	return c.JSON(http.StatusOK, toThreadResponse(th))
}

func (h *ThreadHandler) ListMessages(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	after, err := parseAfter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid after"))
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	msgs, err := h.messages.List(c.Request().Context(), c.Param("id"), uid, after, limit)
	if err != nil {
		return writeServiceError(c, err, "thread")
	}
	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageResponse(m))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ThreadHandler) CreateMessage(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	msg, err := h.messages.Append(c.Request().Context(), c.Param("id"), uid, req.Content)
	if err != nil {
		return writeServiceError(c, err, "thread")
	}
	return c.JSON(http.StatusCreated, toMessageResponse(*msg))
}

// PostMessageToQuote sends on the quote's thread, opening it on first use.
func (h *ThreadHandler) PostMessageToQuote(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	msg, th, err := h.messages.SendToQuote(c.Request().Context(), c.Param("id"), uid, req.Content)
	if err != nil {
		return writeServiceError(c, err, "quote")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"threadId": th.ID,
		"message":  toMessageResponse(*msg),
	})
}

func parseAfter(c echo.Context) (int64, error) {
	raw := c.QueryParam("after")
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
