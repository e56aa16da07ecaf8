package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/charlielabs/charlie/internal/domain/media"
	"github.com/charlielabs/charlie/internal/httpx/response"
)

// MaxUploadSize is the maximum allowed upload size (10MB)
const MaxUploadSize = 10 << 20

// MediaLibrary defines the interface for promo image operations
// Interface is defined by consumer (handler), not provider (library)
type MediaLibrary interface {
	Add(ctx context.Context, r io.Reader, contentType, filename string, size int64) (*media.Image, error)
	Images(ctx context.Context) ([]media.Image, error)
	Remove(ctx context.Context, key string) error
}

// MediaHandler handles promo image HTTP requests
type MediaHandler struct {
	library MediaLibrary
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(library MediaLibrary) *MediaHandler {
	return &MediaHandler{library: library}
}

// RegisterRoutes registers media routes
func (h *MediaHandler) RegisterRoutes(r chi.Router) {
	r.Route("/media", func(r chi.Router) {
		r.Post("/", h.Upload())
		r.Get("/", h.List())
		// keys are prefixed object paths ("promo/<uuid>.png"), so the
		// route takes a wildcard rather than a single segment
		r.Delete("/*", h.Delete())
	})
}

// Upload handles POST /media
func (h *MediaHandler) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Limit request body size
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			response.BadRequest(w, "file too large or invalid multipart form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			response.BadRequest(w, "missing file in request")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !isAllowedImageType(contentType) {
			response.BadRequest(w, fmt.Sprintf("unsupported media type: %s", contentType))
			return
		}

		img, err := h.library.Add(r.Context(), file, contentType, header.Filename, header.Size)
		if err != nil {
			response.InternalError(w, "failed to store image")
			return
		}

		response.Created(w, img)
	}
}

// List handles GET /media
func (h *MediaHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		images, err := h.library.Images(r.Context())
		if err != nil {
			response.InternalError(w, "failed to list images")
			return
		}
		response.OK(w, map[string]any{"images": images, "count": len(images)})
	}
}

// Delete handles DELETE /media/{key...}
func (h *MediaHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		if key == "" {
			response.BadRequest(w, "missing image key")
			return
		}
		if err := h.library.Remove(r.Context(), key); err != nil {
			response.InternalError(w, "failed to delete image")
			return
		}
		response.NoContent(w)
	}
}

// isAllowedImageType checks if the content type is an attachable image.
// Posts attach images only, so video types are rejected at the door.
func isAllowedImageType(contentType string) bool {
	allowed := []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	}

	for _, a := range allowed {
		if strings.EqualFold(contentType, a) {
			return true
		}
	}
	return false
}
