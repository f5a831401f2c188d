package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/shinyyama/bidboard-backend/internal/service"
)

type QuoteHandler struct {
	svc service.QuoteService
}

func NewQuoteHandler(svc service.QuoteService) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

type QuoteResponse struct {
	ID           string `json:"id"`
	PostID       string `json:"postId"`
	VendorUID    string `json:"vendorUid"`
	CustomerUID  string `json:"customerUid"`
	Price        int64  `json:"price"`
	DeliveryDays int    `json:"deliveryDays"`
	Message      string `json:"message"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

type SubmitQuoteRequest struct {
	Price        int64  `json:"price"`
	DeliveryDays int    `json:"deliveryDays"`
	Message      string `json:"message"`
}

type AcceptQuoteResponse struct {
	ThreadID string         `json:"threadId"`
	Thread   ThreadResponse `json:"thread"`
}

func toQuoteResponse(q *model.Quote) QuoteResponse {
	return QuoteResponse{
		ID:           q.ID,
		PostID:       q.PostID,
		VendorUID:    q.VendorUID,
		CustomerUID:  q.CustomerUID,
		Price:        q.Price,
		DeliveryDays: q.DeliveryDays,
		Message:      q.Message,
		Status:       string(q.Status),
		CreatedAt:    formatTime(q.CreatedAt),
		UpdatedAt:    formatTime(q.UpdatedAt),
	}
}

func toQuoteResponses(list []model.Quote) []QuoteResponse {
	resp := make([]QuoteResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toQuoteResponse(&list[i]))
	}
	return resp
}

func (h *QuoteHandler) Submit(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req SubmitQuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	q, err := h.svc.Submit(c.Request().Context(), c.Param("id"), uid, req.Price, req.DeliveryDays, req.Message)
	if err != nil {
		return writeServiceError(c, err, "post")
	}
	return c.JSON(http.StatusCreated, toQuoteResponse(q))
}

func (h *QuoteHandler) ListForPost(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.svc.ListForPost(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeServiceError(c, err, "post")
	}
	return c.JSON(http.StatusOK, toQuoteResponses(list))
}

// ListMine returns the caller's quotes as vendor (default) or, with
// role=customer, the quotes received on the caller's posts.
func (h *QuoteHandler) ListMine(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var (
		list []model.Quote
		err  error
	)
	switch c.QueryParam("role") {
	case "", "vendor":
		list, err = h.svc.ListForVendor(c.Request().Context(), uid)
	case "customer":
		list, err = h.svc.ListForCustomer(c.Request().Context(), uid)
	default:
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "role must be vendor or customer"))
	}
	if err != nil {
		return writeServiceError(c, err, "quote")
	}
	return c.JSON(http.StatusOK, toQuoteResponses(list))
}

func (h *QuoteHandler) Accept(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	th, err := h.svc.Accept(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeServiceError(c, err, "quote")
	}
	return c.JSON(http.StatusOK, AcceptQuoteResponse{ThreadID: th.ID, Thread: toThreadResponse(th)})
}

func (h *QuoteHandler) Reject(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	q, err := h.svc.Reject(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeServiceError(c, err, "quote")
	}
	return c.JSON(http.StatusOK, toQuoteResponse(q))
}

type acceptQuoteRPCRequest struct {
	QuoteID    string `json:"quote_id"`
	CustomerID string `json:"customer_id"`
}

// AcceptRPC serves the accept-quote procedure. Every failure is a 400 with
// {"error": message}. customer_id is informational; the caller is always the
// token's uid.
func (h *QuoteHandler) AcceptRPC(c echo.Context) error {
	var req acceptQuoteRPCRequest
	if err := c.Bind(&req); err != nil {
		return rpcError(c, "Invalid request body")
	}
	if req.QuoteID == "" {
		return rpcError(c, "Missing quote_id")
	}
	uid := currentUID(c)
	if uid == "" {
		return rpcError(c, "Unauthorized")
	}
	if req.CustomerID != "" && req.CustomerID != uid {
		log.Printf("[rpc] accept-quote customer_id mismatch quote=%s uid=%s", req.QuoteID, uid)
	}
	th, err := h.svc.Accept(c.Request().Context(), req.QuoteID, uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return rpcError(c, "Quote not found")
		case errors.Is(err, service.ErrForbidden):
			return rpcError(c, "Unauthorized: you do not own this post")
		case errors.Is(err, service.ErrStorage):
			return rpcError(c, "Temporarily unavailable, please retry")
		}
		return rpcError(c, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"thread_id": th.ID})
}

func rpcError(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}
