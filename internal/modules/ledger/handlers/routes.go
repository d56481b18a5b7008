package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.HandleListAccounts)
		r.Post("/", h.HandleCreateAccount)
		r.Get("/{id}", h.HandleGetAccount)
		r.Put("/{id}", h.HandleUpdateAccount)
		r.Delete("/{id}", h.HandleDeleteAccount)
		r.Get("/{id}/balance", h.HandleGetBalance)
	})

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.HandleListTransactions)
		r.Post("/", h.HandleCreateTransaction)
		r.Put("/{id}", h.HandleUpdateTransaction)
		r.Delete("/{id}", h.HandleDeleteTransaction)
	})
}
