package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/shutter/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(g Gallery, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(g)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/photos", h.ListPhotos)
	r.Post("/photos", h.CapturePhoto)
	r.Delete("/photos", h.DeletePhoto)
	r.Delete("/photos/*", h.DeletePhoto)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewFileRouter serves data directory files, the targets of native display
// paths. Mount it at storage.FileRoutePrefix. It is guarded like the API;
// image elements can pass the token as access_token.
func NewFileRouter(files storage.Provider, authEnabled bool, token string) chi.Router {
	h := NewFileHandler(files)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))
	r.Get("/*", h.ServeFile)

	return r
}
