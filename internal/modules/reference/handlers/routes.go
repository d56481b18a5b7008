package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers CRUD routes for every reference entity plus the
// rate refresh trigger.
func (h *Handler) RegisterRoutes(r chi.Router) {
	for _, ops := range entities() {
		ops := ops
		r.Route("/"+ops.route, func(r chi.Router) {
			if ops.route == "exchange-rates" {
				r.Post("/refresh", h.HandleRefreshRates)
			}
			r.Get("/", h.handleList(ops))
			r.Post("/", h.handleCreate(ops))
			r.Get("/{id}", h.handleGet(ops))
			r.Put("/{id}", h.handleUpdate(ops))
			r.Delete("/{id}", h.handleDelete(ops))
		})
	}
}
