package handler

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bidboard-backend/internal/storage"
)

type UploadHandler struct {
	store    storage.ObjectStore
	maxBytes int64
}

func NewUploadHandler(store storage.ObjectStore, maxBytes int64) *UploadHandler {
	return &UploadHandler{store: store, maxBytes: maxBytes}
}

// Upload stores one image from the multipart field "file" under the caller's
// uid and returns its download URL.
func (h *UploadHandler) Upload(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "file is required"))
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse("too_large", "file is too large"))
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "unreadable file"))
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "unreadable file"))
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	ext, ok := storage.ImageExtension(contentType)
	if !ok {
		return c.JSON(http.StatusUnsupportedMediaType, NewErrorResponse("unsupported_media_type", "only jpeg, png, webp and gif images are accepted"))
	}

	path := storage.ObjectPath(uid, ext)
	url, err := h.store.Upload(c.Request().Context(), path, contentType, io.MultiReader(bytes.NewReader(head), f))
	if err != nil {
		log.Printf("[upload] path=%s err=%v", path, err)
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("unavailable", "upload failed, please retry"))
	}
	return c.JSON(http.StatusCreated, map[string]string{"url": url})
}
