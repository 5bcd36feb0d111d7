package api

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/shutter/internal/storage"
)

// FileHandler serves photo files from the data directory under
// storage.FileRoutePrefix, the form native display paths take.
type FileHandler struct {
	files storage.Provider
}

// NewFileHandler creates a handler reading through files.
func NewFileHandler(files storage.Provider) *FileHandler {
	return &FileHandler{files: files}
}

// ServeFile handles GET /_app_file_/*.
func (h *FileHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs := "/" + chi.URLParam(r, "*")
	data, err := h.files.Read(r.Context(), abs, storage.DirectoryData)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	http.ServeContent(w, r, path.Base(abs), time.Time{}, bytes.NewReader(data))
}
