package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bidboard-backend/internal/model"
	"github.com/shinyyama/bidboard-backend/internal/service"
)

type PostHandler struct {
	svc service.PostService
}

func NewPostHandler(svc service.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

type PostResponse struct {
	ID          string   `json:"id"`
	OwnerUID    string   `json:"ownerUid"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	BudgetMin   *int64   `json:"budgetMin,omitempty"`
	BudgetMax   *int64   `json:"budgetMax,omitempty"`
	Images      []string `json:"images"`
	Status      string   `json:"status"`
	QuoteCount  int64    `json:"quoteCount"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

type PostListResponse struct {
	Posts []PostResponse `json:"posts"`
	Total int64          `json:"total"`
}

type PostRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	BudgetMin   *int64   `json:"budgetMin"`
	BudgetMax   *int64   `json:"budgetMax"`
	Images      []string `json:"images"`
}

func (r PostRequest) input() model.PostInput {
	return model.PostInput{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		BudgetMin:   r.BudgetMin,
		BudgetMax:   r.BudgetMax,
		Images:      r.Images,
	}
}

func toPostResponse(p *model.Post) PostResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return PostResponse{
		ID:          p.ID,
		OwnerUID:    p.OwnerUID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		BudgetMin:   p.BudgetMin,
		BudgetMax:   p.BudgetMax,
		Images:      images,
		Status:      string(p.Status),
		QuoteCount:  p.QuoteCount,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func (h *PostHandler) Create(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	post, err := h.svc.Create(c.Request().Context(), uid, req.input())
	if err != nil {
		return writeServiceError(c, err, "post")
	}
	return c.JSON(http.StatusCreated, toPostResponse(post))
}

func (h *PostHandler) Get(c echo.Context) error {
	post, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, err, "post")
	}
	return c.JSON(http.StatusOK, toPostResponse(post))
}

func (h *PostHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	posts, total, err := h.svc.ListOpen(c.Request().Context(), c.QueryParam("category"), limit, offset)
	if err != nil {
		return writeServiceError(c, err, "post")
	}
	resp := PostListResponse{
		Posts: make([]PostResponse, 0, len(posts)),
		Total: total,
	}
	for i := range posts {
		resp.Posts = append(resp.Posts, toPostResponse(&posts[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *PostHandler) ListMine(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	posts, err := h.svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err, "post")
	}
	resp := make([]PostResponse, 0, len(posts))
	for i := range posts {
		resp = append(resp, toPostResponse(&posts[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *PostHandler) Update(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	post, err := h.svc.Update(c.Request().Context(), c.Param("id"), uid, req.input())
	if err != nil {
		return writeServiceError(c, err, "post")
	}
	return c.JSON(http.StatusOK, toPostResponse(post))
}

func (h *PostHandler) Delete(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	if err := h.svc.Delete(c.Request().Context(), c.Param("id"), uid); err != nil {
		return writeServiceError(c, err, "post")
	}
	return c.NoContent(http.StatusNoContent)
}
