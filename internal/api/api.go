package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"finchat/pkg/finchat"
)

// NewRouter builds the HTTP API router.
func NewRouter(core *finchat.Core) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLoggingMiddleware(core.Logger()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	h := &handler{core: core}

	r.Get("/api/health", h.health)
	r.Get("/api/profile", h.getProfile)

	// Sessions
	r.Post("/api/sessions", h.createSession)
	r.Get("/api/sessions", h.listSessions)
	r.Get("/api/sessions/{id}", h.getSession)
	r.Delete("/api/sessions/{id}", h.deleteSession)

	// Chat
	r.Post("/api/sessions/{id}/messages", h.postMessage)

	// Document upload
	r.Post("/api/sessions/{id}/document", h.uploadDocument)

	return r
}

type handler struct {
	core *finchat.Core
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
