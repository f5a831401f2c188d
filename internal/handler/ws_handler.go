package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/shinyyama/bidboard-backend/internal/realtime"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames.
	maxMessageSize = 512

	historyPage = 500
)

type wsEvent struct {
	Type    string           `json:"type"`
	Message *MessageResponse `json:"message,omitempty"`
	After   int64            `json:"after,omitempty"`
}

// Subscribe upgrades to a WebSocket that streams the thread's new messages.
// With ?after=<seq> the stream starts with the stored messages after seq.
// The subscription is registered before history is read and live events
// already covered by history are skipped by seq, so nothing falls in between.
func (h *ThreadHandler) Subscribe(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	threadID := c.Param("id")
	_, wantHistory := c.QueryParams()["after"]
	after, err := parseAfter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid after"))
	}
	ctx := c.Request().Context()

	sub, err := h.messages.Subscribe(ctx, threadID, uid)
	if err != nil {
		return writeServiceError(c, err, "thread")
	}
	var history []model.Message
	for cursor := after; wantHistory; {
		page, err := h.messages.List(ctx, threadID, uid, cursor, historyPage)
		if err != nil {
			sub.Close()
			return writeServiceError(c, err, "thread")
		}
		history = append(history, page...)
		if len(page) < historyPage {
			break
		}
		cursor = page[len(page)-1].Seq
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		sub.Close()
		log.Printf("[ws] upgrade failed thread=%s err=%v", threadID, err)
		return nil
	}
	log.Printf("[ws] connected thread=%s uid=%s", threadID, uid)
	streamThread(conn, sub, history, after)
	log.Printf("[ws] disconnected thread=%s uid=%s", threadID, uid)
	return nil
}

func streamThread(conn *websocket.Conn, sub *realtime.Subscription, history []model.Message, after int64) {
	defer conn.Close()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[ws] read error: %v", err)
				}
				return
			}
		}
	}()

	last := after
	send := func(m model.Message) error {
		if m.Seq <= last {
			return nil
		}
		last = m.Seq
		resp := toMessageResponse(m)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(wsEvent{Type: "message", Message: &resp})
	}

	for _, m := range history {
		if err := send(m); err != nil {
			return
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case m, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Dropped or shutting down. The client reconnects with after=last.
				_ = conn.WriteJSON(wsEvent{Type: "resync", After: last})
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "resync"))
				return
			}
			if err := send(m); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
