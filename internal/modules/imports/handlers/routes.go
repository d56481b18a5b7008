package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the import routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/imports", func(r chi.Router) {
		r.Post("/preview", h.HandlePreview)
		r.Post("/commit", h.HandleCommit)

		r.Route("/banks", func(r chi.Router) {
			r.Get("/", h.HandleListBanks)
			r.Post("/", h.HandleCreateBank)
			r.Get("/{id}", h.HandleGetBank)
			r.Put("/{id}", h.HandleUpdateBank)
			r.Delete("/{id}", h.HandleDeleteBank)
			r.Get("/{id}/rules", h.HandleListRules)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Post("/", h.HandleCreateRule)
			r.Put("/{id}", h.HandleUpdateRule)
			r.Delete("/{id}", h.HandleDeleteRule)
		})
	})
}
