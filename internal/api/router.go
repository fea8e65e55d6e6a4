package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nberglund/othala/internal/audit"
	"github.com/nberglund/othala/internal/vault"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// auditLog, if non-nil, backs GET /audit.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *vault.Service, auditLog *audit.Log, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, auditLog)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Files CRUD.
	r.Get("/files", h.ListFiles)
	r.Post("/files", h.CreateFile)
	r.Get("/files/*", h.GetFile)
	r.Put("/files/*", h.UpdateFile)
	r.Patch("/files/*", h.PatchFile)
	r.Delete("/files/*", h.DeleteFile)
	r.Post("/batch", h.BatchGet)

	// Queries.
	r.Get("/search", h.Search)
	r.Get("/recent", h.Recent)
	r.Get("/daily", h.Daily)
	r.Get("/tags/{tag}", h.Tag)
	r.Get("/audit", h.Audit)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
