package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstamatakis/drachma/internal/events"
	"github.com/mstamatakis/drachma/internal/importer"
	"github.com/mstamatakis/drachma/internal/rules"
	"github.com/mstamatakis/drachma/internal/session"
	"github.com/mstamatakis/drachma/internal/store"
)

func setupRouter(t *testing.T) (*chi.Mux, *session.Session) {
	t.Helper()
	st := store.New(zerolog.Nop())
	sess := session.New(st)
	pipeline := importer.New(importer.DefaultConfig(), rules.NewEngine(zerolog.Nop()), zerolog.Nop())
	h := NewHandler(sess, pipeline, events.NewBus(), zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, sess
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestBankAndRuleCRUDOverHTTP(t *testing.T) {
	r, _ := setupRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/imports/banks", map[string]any{
		"name":       "First National",
		"hasHeader":  true,
		"dateFormat": "MM/DD/YYYY",
		"amountMode": "signed",
		"mapping":    map[string]string{"date": "Date", "description": "Description", "amount": "Amount"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var bank store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bank))

	rec = doJSON(t, r, http.MethodPost, "/imports/rules", map[string]any{
		"name":   "coffee",
		"bankId": bank.ID(),
		"logic":  "ALL",
		"conditions": []map[string]any{
			{"field": "description", "operator": "contains", "value": "coffee", "dataType": "string"},
		},
		"actions": []map[string]any{
			{"type": "SET_FIELD", "field": "notes", "value": "caffeine"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var rule store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rule))

	rec = doJSON(t, r, http.MethodGet, "/imports/banks/"+bank.ID(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Bank  store.Record   `json:"bank"`
		Rules []store.Record `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, bank.ID(), detail.Bank.ID())
	require.Len(t, detail.Rules, 1)

	// A bank with rules cannot be deleted.
	rec = doJSON(t, r, http.MethodDelete, "/imports/banks/"+bank.ID(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/imports/rules/"+rule.ID(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, r, http.MethodDelete, "/imports/banks/"+bank.ID(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPreviewWithStoredBank(t *testing.T) {
	r, sess := setupRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/imports/banks", map[string]any{
		"name":       "First National",
		"hasHeader":  true,
		"dateFormat": "MM/DD/YYYY",
		"amountMode": "signed",
		"mapping":    map[string]string{"date": "Date", "description": "Description", "amount": "Amount"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var bank store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bank))

	rec = doJSON(t, r, http.MethodPost, "/imports/rules", map[string]any{
		"name":   "classify groceries",
		"bankId": bank.ID(),
		"order":  1,
		"logic":  "ALL",
		"conditions": []map[string]any{
			{"field": "description", "operator": "contains", "value": "groceries", "dataType": "string"},
		},
		"actions": []map[string]any{
			{"type": "SET_FIELD", "field": "category", "value": "Food"},
			{"type": "SET_FIELD", "field": "payee", "value": "Supermarket"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/imports/rules", map[string]any{
		"name":   "drop internal",
		"bankId": bank.ID(),
		"order":  2,
		"logic":  "ALL",
		"conditions": []map[string]any{
			{"field": "description", "operator": "contains", "value": "internal", "dataType": "string"},
		},
		"actions": []map[string]any{
			{"type": "IGNORE_ROW"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	content := "Date,Description,Amount\n03/10/2024,Groceries,-42.10\n03/11/2024,internal sweep,-1.00\n"
	rec = doJSON(t, r, http.MethodPost, "/imports/preview", map[string]any{
		"bankId":  bank.ID(),
		"content": content,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result importer.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, importer.StatusWarning, result.Candidates[0].Status)
	require.Len(t, result.Suppressed, 1)
	assert.Equal(t, 1, result.Suppressed[0].RowIndex)

	// Preview writes nothing.
	sess.View(func(st *store.Store) {
		assert.Zero(t, st.Count(store.TableTransactions))
	})
}

func TestPreviewUnknownBank(t *testing.T) {
	r, _ := setupRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/imports/preview", map[string]any{
		"bankId":  "bank-000099",
		"content": "Date,Description,Amount\n",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
