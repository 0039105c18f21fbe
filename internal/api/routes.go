package api

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the search and identify endpoints on the given router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/api/search", h.handleSearch)
	r.Post("/api/ai-identify", h.handleIdentify)
}
