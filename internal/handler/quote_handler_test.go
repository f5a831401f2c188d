package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/shinyyama/bidboard-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubQuotes answers Accept from a fixed table keyed by quote id.
type stubQuotes struct {
	service.QuoteService
	accept map[string]error
	calls  []string
}

func (s *stubQuotes) Accept(_ context.Context, quoteID, callerUID string) (*model.ChatThread, error) {
	s.calls = append(s.calls, quoteID+"/"+callerUID)
	if err, ok := s.accept[quoteID]; ok && err != nil {
		return nil, err
	}
	return &model.ChatThread{ID: "th-" + quoteID, QuoteID: quoteID}, nil
}

func callRPC(h *QuoteHandler, uid, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/rpc/accept-quote", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != "" {
		c.Set("uid", uid)
	}
	_ = h.AcceptRPC(c)
	return rec
}

func TestAcceptRPC_ErrorContract(t *testing.T) {
	svc := &stubQuotes{accept: map[string]error{
		"missing":  service.ErrNotFound,
		"foreign":  service.ErrForbidden,
		"taken":    fmt.Errorf("%w: post already has an accepted quote", service.ErrConflict),
		"db-down":  fmt.Errorf("%w: accept quote", service.ErrStorage),
		"rejected": fmt.Errorf("%w: quote was rejected", service.ErrConflict),
	}}
	h := NewQuoteHandler(svc)

	tests := []struct {
		name string
		uid  string
		body string
		msg  string
	}{
		{name: "malformed body", uid: "c1", body: `{"quote_id":`, msg: "Invalid request body"},
		{name: "missing quote id", uid: "c1", body: `{"customer_id":"c1"}`, msg: "Missing quote_id"},
		{name: "no caller", body: `{"quote_id":"q1"}`, msg: "Unauthorized"},
		{name: "unknown quote", uid: "c1", body: `{"quote_id":"missing"}`, msg: "Quote not found"},
		{name: "not post owner", uid: "c1", body: `{"quote_id":"foreign"}`, msg: "Unauthorized: you do not own this post"},
		{name: "post closed", uid: "c1", body: `{"quote_id":"taken"}`, msg: "conflict: post already has an accepted quote"},
		{name: "storage", uid: "c1", body: `{"quote_id":"db-down"}`, msg: "Temporarily unavailable, please retry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := callRPC(h, tt.uid, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}

func TestAcceptRPC_Success(t *testing.T) {
	svc := &stubQuotes{}
	h := NewQuoteHandler(svc)

	// customer_id never overrides the authenticated caller
	rec := callRPC(h, "c1", `{"quote_id":"q1","customer_id":"someone-else"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "th-q1", body["thread_id"])
	assert.Equal(t, []string{"q1/c1"}, svc.calls)
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: price must be positive", service.ErrValidation), http.StatusBadRequest, "bad_request"},
		{service.ErrForbidden, http.StatusForbidden, "forbidden"},
		{service.ErrNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: post is closed", service.ErrConflict), http.StatusConflict, "conflict"},
		{fmt.Errorf("%w: you already quoted on this post", service.ErrDuplicate), http.StatusConflict, "duplicate"},
		{fmt.Errorf("%w: create quote", service.ErrStorage), http.StatusServiceUnavailable, "unavailable"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			require.NoError(t, writeServiceError(c, tt.err, "quote"))
			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestQuoteHandler_ListMineRejectsUnknownRole(t *testing.T) {
	h := NewQuoteHandler(&stubQuotes{})
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/me/quotes?role=admin", nil), rec)
	c.Set("uid", "u1")
	require.NoError(t, h.ListMine(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
