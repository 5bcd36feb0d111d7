package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/shutter/internal/apperr"
	"github.com/starford/shutter/internal/camera"
	"github.com/starford/shutter/internal/checksum"
	"github.com/starford/shutter/internal/gallery"
	"github.com/starford/shutter/internal/models"
	"github.com/starford/shutter/internal/platform"
)

const maxUploadBytes = 50 << 20 // 50 MB

// Gallery is the photo store as seen by the API.
type Gallery interface {
	Mode() platform.Mode
	Snapshot() []models.Photo
	Capture(ctx context.Context) (models.Photo, error)
	Delete(ctx context.Context, storagePath string) error
}

var _ Gallery = (*gallery.Store)(nil)

// Handler holds API route handlers.
type Handler struct {
	g Gallery
}

// NewHandler creates a new Handler.
func NewHandler(g Gallery) *Handler {
	return &Handler{g: g}
}

// photoPath extracts the storage path from the URL (everything after
// /api/photos/) or from the filepath query parameter. Native storage paths are
// file URIs, so the wildcard is usually percent-encoded.
func photoPath(r *http.Request) string {
	if q := r.URL.Query().Get("filepath"); q != "" {
		return q
	}
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListPhotos handles GET /api/photos.
//
//	@Summary		List photos, newest first
//	@Tags			photos
//	@Produce		json
//	@Success		200	{object}	PhotoListResponse
//	@Success		304	"Index unchanged since If-None-Match"
//	@Security		BearerAuth
//	@Router			/photos [get]
func (h *Handler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	photos := h.g.Snapshot()
	raw, err := json.Marshal(photos)
	if err != nil {
		slog.Error("list photos failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	etag := checksum.ETag(raw)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, PhotoListResponse{
		Photos: photos,
		Total:  len(photos),
		Mode:   h.g.Mode().String(),
	})
}

// CapturePhoto handles POST /api/photos.
//
// A multipart body with a "file" field supplies the shot for an upload camera.
// An empty body asks the configured camera to capture on its own.
//
//	@Summary		Capture a photo
//	@Tags			photos
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	false	"Image data"
//	@Success		201		{object}	Photo
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/photos [post]
func (h *Handler) CapturePhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	ctx := r.Context()

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "file too large or invalid multipart")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing 'file' field in multipart form")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read file")
			return
		}
		ctx = camera.WithShot(ctx, camera.Shot{
			Data:        data,
			ContentType: header.Header.Get("Content-Type"),
		})
	}

	photo, err := h.g.Capture(ctx)
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("capture photo failed", slog.String("error", err.Error()))
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

// DeletePhoto handles DELETE /api/photos/*.
//
//	@Summary		Delete a photo
//	@Tags			photos
//	@Param			path	path	string	true	"Storage path (percent-encoded)"
//	@Success		204		"Photo deleted or already absent"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/photos/{path} [delete]
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	path := photoPath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := h.g.Delete(r.Context(), path); err != nil {
		status, msg := statusFor(err)
		slog.Error("delete photo failed", slog.String("path", path), slog.String("error", err.Error()))
		writeError(w, status, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps store errors to an HTTP status and a client-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrCapture):
		return http.StatusBadRequest, "capture cancelled or camera unavailable"
	case errors.Is(err, apperr.ErrRead):
		return http.StatusBadRequest, "captured photo could not be read"
	case errors.Is(err, gallery.ErrClosed), errors.Is(err, gallery.ErrNotInitialized):
		return http.StatusServiceUnavailable, "gallery is shutting down"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
