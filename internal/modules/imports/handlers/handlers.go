// Package handlers provides HTTP handlers for statement imports: previewing
// a statement through the import pipeline and committing reviewed candidates
// into the ledger.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mstamatakis/drachma/internal/events"
	"github.com/mstamatakis/drachma/internal/importer"
	"github.com/mstamatakis/drachma/internal/rules"
	"github.com/mstamatakis/drachma/internal/session"
	"github.com/mstamatakis/drachma/internal/store"
)

// Handler handles import HTTP requests
type Handler struct {
	session  *session.Session
	pipeline *importer.Pipeline
	bus      *events.Bus
	log      zerolog.Logger
}

// NewHandler creates a new import handler
func NewHandler(sess *session.Session, pipeline *importer.Pipeline, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		session:  sess,
		pipeline: pipeline,
		bus:      bus,
		log:      log.With().Str("handler", "imports").Logger(),
	}
}

// bankConfigRequest mirrors importer.BankConfig but takes the delimiter as a
// string so JSON clients do not have to send code points.
type bankConfigRequest struct {
	Name       string              `json:"name"`
	Delimiter  string              `json:"delimiter"`
	HasHeader  bool                `json:"hasHeader"`
	DateFormat string              `json:"dateFormat"`
	AmountMode importer.AmountMode `json:"amountMode"`
	AccountID  string              `json:"accountId"`
	Mapping    map[string]string   `json:"mapping"`
	Rules      []rules.Rule        `json:"rules"`
}

func (r bankConfigRequest) toBankConfig() importer.BankConfig {
	delim := ','
	if r.Delimiter != "" {
		delim = []rune(r.Delimiter)[0]
	}
	return importer.BankConfig{
		Name:       r.Name,
		Delimiter:  delim,
		HasHeader:  r.HasHeader,
		DateFormat: r.DateFormat,
		AmountMode: r.AmountMode,
		AccountID:  r.AccountID,
		Mapping:    r.Mapping,
		Rules:      r.Rules,
	}
}

type previewRequest struct {
	BankID     string             `json:"bankId"`
	BankConfig *bankConfigRequest `json:"bankConfig"`
	Content    string             `json:"content"`
}

// HandlePreview handles POST /api/imports/preview. The statement content is
// parsed and run through the pipeline; nothing is written to the store. The
// bank format comes either inline or, via bankId, from a stored bank and its
// rules.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	var bank importer.BankConfig
	switch {
	case req.BankID != "":
		var (
			bankRec  store.Record
			found    bool
			ruleRecs []store.Record
		)
		h.session.View(func(st *store.Store) {
			bankRec, found = st.Get(store.TableBanks, req.BankID)
			if found {
				ruleRecs = st.BankRules(req.BankID)
			}
		})
		if !found {
			http.Error(w, "bank not found", http.StatusNotFound)
			return
		}
		var err error
		bank, err = importer.ConfigFromRecords(bankRec, ruleRecs)
		if err != nil {
			http.Error(w, "invalid bank configuration: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}
	case req.BankConfig != nil:
		bank = req.BankConfig.toBankConfig()
	default:
		http.Error(w, "bankId or bankConfig is required", http.StatusBadRequest)
		return
	}
	rows, err := importer.ReadRows(strings.NewReader(req.Content), bank)
	if err != nil {
		http.Error(w, "unable to parse statement: "+err.Error(), http.StatusBadRequest)
		return
	}

	var existing []store.Record
	h.session.View(func(st *store.Store) {
		existing = st.List(store.TableTransactions)
	})

	h.bus.Publish(events.ImportStarted, "imports", events.ImportProgressData{Total: len(rows)})
	result := h.pipeline.Run(bank, rows, existing, func(runID string, processed, total int) {
		h.bus.Publish(events.ImportProgress, "imports", events.ImportProgressData{
			RunID:     runID,
			Processed: processed,
			Total:     total,
		})
	})
	h.publishCompleted(result)

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) publishCompleted(result importer.Result) {
	var errCount, warnCount, dupCount int
	for _, c := range result.Candidates {
		switch c.Status {
		case importer.StatusError:
			errCount++
		case importer.StatusWarning:
			warnCount++
		}
		if c.Duplicate {
			dupCount++
		}
	}
	h.bus.Publish(events.ImportCompleted, "imports", events.ImportCompletedData{
		RunID:      result.RunID,
		Candidates: len(result.Candidates),
		Suppressed: len(result.Suppressed),
		Errors:     errCount,
		Warnings:   warnCount,
		Duplicates: dupCount,
	})
}

type commitRequest struct {
	Candidates []importer.Candidate `json:"candidates"`
}

// HandleCommit handles POST /api/imports/commit. Candidates in error status
// are skipped; each remaining candidate commits independently so one bad row
// never blocks the rest.
func (h *Handler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(req.Candidates) == 0 {
		http.Error(w, "candidates are required", http.StatusBadRequest)
		return
	}

	var result importer.CommitResult
	err := h.session.Do(func(st *store.Store) error {
		result = importer.CommitCandidates(st, req.Candidates, h.log)
		return nil
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Commit failed")
		http.Error(w, "commit failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleListBanks handles GET /api/imports/banks
func (h *Handler) HandleListBanks(w http.ResponseWriter, r *http.Request) {
	var banks []store.Record
	h.session.View(func(st *store.Store) {
		banks = st.List(store.TableBanks)
	})
	writeJSON(w, http.StatusOK, banks)
}

// HandleGetBank handles GET /api/imports/banks/{id}, returning the bank
// together with its rules.
func (h *Handler) HandleGetBank(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		bank     store.Record
		found    bool
		ruleRecs []store.Record
	)
	h.session.View(func(st *store.Store) {
		bank, found = st.Get(store.TableBanks, id)
		if found {
			ruleRecs = st.BankRules(id)
		}
	})
	if !found {
		http.Error(w, "bank not found", http.StatusNotFound)
		return
	}
	if ruleRecs == nil {
		ruleRecs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bank": bank, "rules": ruleRecs})
}

// HandleCreateBank handles POST /api/imports/banks
func (h *Handler) HandleCreateBank(w http.ResponseWriter, r *http.Request) {
	h.createRecord(w, r, (*store.Store).AddBank)
}

// HandleUpdateBank handles PUT /api/imports/banks/{id}
func (h *Handler) HandleUpdateBank(w http.ResponseWriter, r *http.Request) {
	h.updateRecord(w, r, (*store.Store).UpdateBank)
}

// HandleDeleteBank handles DELETE /api/imports/banks/{id}
func (h *Handler) HandleDeleteBank(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, (*store.Store).DeleteBank)
}

// HandleListRules handles GET /api/imports/banks/{id}/rules
func (h *Handler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		found    bool
		ruleRecs []store.Record
	)
	h.session.View(func(st *store.Store) {
		_, found = st.Get(store.TableBanks, id)
		if found {
			ruleRecs = st.BankRules(id)
		}
	})
	if !found {
		http.Error(w, "bank not found", http.StatusNotFound)
		return
	}
	if ruleRecs == nil {
		ruleRecs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, ruleRecs)
}

// HandleCreateRule handles POST /api/imports/rules
func (h *Handler) HandleCreateRule(w http.ResponseWriter, r *http.Request) {
	h.createRecord(w, r, (*store.Store).AddImportRule)
}

// HandleUpdateRule handles PUT /api/imports/rules/{id}
func (h *Handler) HandleUpdateRule(w http.ResponseWriter, r *http.Request) {
	h.updateRecord(w, r, (*store.Store).UpdateImportRule)
}

// HandleDeleteRule handles DELETE /api/imports/rules/{id}
func (h *Handler) HandleDeleteRule(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, (*store.Store).DeleteImportRule)
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request, add func(*store.Store, store.Record) (store.Record, error)) {
	var data store.Record
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	var created store.Record
	err := h.session.Do(func(st *store.Store) error {
		var addErr error
		created, addErr = add(st, data)
		return addErr
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request, update func(*store.Store, string, store.Record) (store.Record, error)) {
	id := chi.URLParam(r, "id")
	var patch store.Record
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	var updated store.Record
	err := h.session.Do(func(st *store.Store) error {
		var upErr error
		updated, upErr = update(st, id, patch)
		return upErr
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request, remove func(*store.Store, string) error) {
	id := chi.URLParam(r, "id")
	err := h.session.Do(func(st *store.Store) error {
		return remove(st, id)
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
