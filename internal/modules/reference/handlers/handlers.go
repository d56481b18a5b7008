// Package handlers provides HTTP handlers for reference data: currencies,
// exchange rates, categories, subcategories, transaction groups, payees and
// payers. All entities share the store's validate-then-mutate contract, so
// one CRUD handler serves them all through a small dispatch table.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mstamatakis/drachma/internal/clients/exchangerate"
	"github.com/mstamatakis/drachma/internal/session"
	"github.com/mstamatakis/drachma/internal/store"
)

// entityOps binds one URL segment to the store operations of an entity.
type entityOps struct {
	route  string
	table  string
	add    func(*store.Store, store.Record) (store.Record, error)
	update func(*store.Store, string, store.Record) (store.Record, error)
	remove func(*store.Store, string) error
}

func entities() []entityOps {
	return []entityOps{
		{
			route: "currencies", table: store.TableCurrencies,
			add:    (*store.Store).AddCurrency,
			update: (*store.Store).UpdateCurrency,
			remove: (*store.Store).DeleteCurrency,
		},
		{
			route: "exchange-rates", table: store.TableExchangeRates,
			add:    (*store.Store).AddExchangeRate,
			update: (*store.Store).UpdateExchangeRate,
			remove: (*store.Store).DeleteExchangeRate,
		},
		{
			route: "categories", table: store.TableCategories,
			add:    (*store.Store).AddCategory,
			update: (*store.Store).UpdateCategory,
			remove: (*store.Store).DeleteCategory,
		},
		{
			route: "subcategories", table: store.TableSubcategories,
			add:    (*store.Store).AddSubcategory,
			update: (*store.Store).UpdateSubcategory,
			remove: (*store.Store).DeleteSubcategory,
		},
		{
			route: "transaction-groups", table: store.TableTransactionGroups,
			add:    (*store.Store).AddTransactionGroup,
			update: (*store.Store).UpdateTransactionGroup,
			remove: (*store.Store).DeleteTransactionGroup,
		},
		{
			route: "payees", table: store.TablePayees,
			add:    (*store.Store).AddPayee,
			update: (*store.Store).UpdatePayee,
			remove: (*store.Store).DeletePayee,
		},
		{
			route: "payers", table: store.TablePayers,
			add:    (*store.Store).AddPayer,
			update: (*store.Store).UpdatePayer,
			remove: (*store.Store).DeletePayer,
		},
	}
}

// Handler handles reference-data HTTP requests
type Handler struct {
	session   *session.Session
	refresher *exchangerate.Refresher
	baseCode  string
	log       zerolog.Logger
}

// NewHandler creates a new reference-data handler. refresher may be nil when
// rate refreshing is disabled.
func NewHandler(sess *session.Session, refresher *exchangerate.Refresher, baseCode string, log zerolog.Logger) *Handler {
	return &Handler{
		session:   sess,
		refresher: refresher,
		baseCode:  baseCode,
		log:       log.With().Str("handler", "reference").Logger(),
	}
}

func (h *Handler) handleList(ops entityOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var records []store.Record
		h.session.View(func(st *store.Store) {
			records = st.List(ops.table)
		})
		writeJSON(w, http.StatusOK, records)
	}
}

func (h *Handler) handleGet(ops entityOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var rec store.Record
		var found bool
		h.session.View(func(st *store.Store) {
			rec, found = st.Get(ops.table, id)
		})
		if !found {
			http.Error(w, ops.table+" record not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) handleCreate(ops entityOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data store.Record
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		var created store.Record
		err := h.session.Do(func(st *store.Store) error {
			var addErr error
			created, addErr = ops.add(st, data)
			return addErr
		})
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (h *Handler) handleUpdate(ops entityOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch store.Record
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		var updated store.Record
		err := h.session.Do(func(st *store.Store) error {
			var upErr error
			updated, upErr = ops.update(st, id, patch)
			return upErr
		})
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (h *Handler) handleDelete(ops entityOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := h.session.Do(func(st *store.Store) error {
			return ops.remove(st, id)
		})
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleRefreshRates handles POST /api/exchange-rates/refresh
func (h *Handler) HandleRefreshRates(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		http.Error(w, "rate refreshing is not configured", http.StatusServiceUnavailable)
		return
	}
	result, err := h.refresher.Refresh(r.Context(), h.baseCode)
	if err != nil {
		var netErr *exchangerate.NetworkError
		if errors.As(err, &netErr) {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":    netErr.Error(),
				"attempts": netErr.Attempts,
			})
			return
		}
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var (
		validationErr *store.ValidationError
		referenceErr  *store.InvalidReferenceError
		integrityErr  *store.ReferentialIntegrityError
		duplicateErr  *store.DuplicateKeyError
		notFoundErr   *store.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &referenceErr):
		status = http.StatusBadRequest
	case errors.As(err, &integrityErr), errors.As(err, &duplicateErr):
		status = http.StatusConflict
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Unexpected store error")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
