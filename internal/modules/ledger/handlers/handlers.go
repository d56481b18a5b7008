// Package handlers provides HTTP handlers for account and transaction CRUD.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mstamatakis/drachma/internal/session"
	"github.com/mstamatakis/drachma/internal/store"
)

// Handler handles ledger HTTP requests
type Handler struct {
	session *session.Session
	log     zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(sess *session.Session, log zerolog.Logger) *Handler {
	return &Handler{
		session: sess,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// HandleListAccounts handles GET /api/accounts
func (h *Handler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	var accounts []store.Record
	h.session.View(func(st *store.Store) {
		accounts = st.List(store.TableAccounts)
	})
	writeJSON(w, http.StatusOK, accounts)
}

// HandleGetAccount handles GET /api/accounts/{id}
func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var rec store.Record
	var found bool
	h.session.View(func(st *store.Store) {
		rec, found = st.Get(store.TableAccounts, id)
	})
	if !found {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleCreateAccount handles POST /api/accounts
func (h *Handler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	var created store.Record
	err := h.session.Do(func(st *store.Store) error {
		var addErr error
		created, addErr = st.AddAccount(data)
		return addErr
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdateAccount handles PUT /api/accounts/{id}
func (h *Handler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	patch, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	var updated store.Record
	err := h.session.Do(func(st *store.Store) error {
		var upErr error
		updated, upErr = st.UpdateAccount(id, patch)
		return upErr
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteAccount handles DELETE /api/accounts/{id}
func (h *Handler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.session.Do(func(st *store.Store) error {
		return st.DeleteAccount(id)
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetBalance handles GET /api/accounts/{id}/balance
func (h *Handler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var balance float64
	err := h.session.Do(func(st *store.Store) error {
		var balErr error
		balance, balErr = st.AccountBalance(id)
		return balErr
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "balance": balance})
}

// HandleListTransactions handles GET /api/transactions
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	var txns []store.Record
	h.session.View(func(st *store.Store) {
		txns = st.List(store.TableTransactions)
	})
	writeJSON(w, http.StatusOK, txns)
}

// HandleCreateTransaction handles POST /api/transactions
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	data, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	var created store.Record
	err := h.session.Do(func(st *store.Store) error {
		var addErr error
		created, addErr = st.AddTransaction(data)
		return addErr
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdateTransaction handles PUT /api/transactions/{id}
func (h *Handler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	patch, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	var updated store.Record
	err := h.session.Do(func(st *store.Store) error {
		var upErr error
		updated, upErr = st.UpdateTransaction(id, patch)
		return upErr
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteTransaction handles DELETE /api/transactions/{id}
func (h *Handler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.session.Do(func(st *store.Store) error {
		return st.DeleteTransaction(id)
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeStoreError maps typed store errors to HTTP statuses with the error
// message naming the offending field or reference.
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

func decodeRecord(w http.ResponseWriter, r *http.Request) (store.Record, bool) {
	var data store.Record
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
