package importer

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mstamatakis/drachma/internal/rules"
	"github.com/mstamatakis/drachma/internal/store"
)

// Config holds pipeline tuning.
type Config struct {
	BatchSize int
	Detector  DetectorConfig
}

// DefaultConfig returns the stock pipeline configuration.
func DefaultConfig() Config {
	return Config{BatchSize: 100, Detector: DefaultDetectorConfig()}
}

// ProgressFunc is invoked after every batch with the run id and the
// processed and total row counts.
type ProgressFunc func(runID string, processed, total int)

// Result is the outcome of one import run.
type Result struct {
	RunID        string          `json:"runId"`
	Candidates   []Candidate     `json:"candidates"`
	Suppressed   []SuppressedRow `json:"suppressed"`
	ConfigErrors []string        `json:"configErrors,omitempty"`
}

// Pipeline turns raw statement rows into reviewable candidates.
type Pipeline struct {
	cfg    Config
	engine *rules.Engine
	log    zerolog.Logger
}

// New creates an import pipeline.
func New(cfg Config, engine *rules.Engine, log zerolog.Logger) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	return &Pipeline{
		cfg:    cfg,
		engine: engine,
		log:    log.With().Str("component", "import_pipeline").Logger(),
	}
}

// Run processes the rows in fixed-size batches. A single row's failure is
// captured on its candidate and never aborts the batch; cost is linear in
// the row count. Suppressed rows are excluded from the candidate list and
// reported separately.
func (p *Pipeline) Run(bank BankConfig, rows []RawRow, existing []store.Record, progress ProgressFunc) Result {
	result := Result{RunID: uuid.NewString()}
	detector := NewDetector(p.cfg.Detector, existing)
	total := len(rows)

	for start := 0; start < total; start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > total {
			end = total
		}
		for i := start; i < end; i++ {
			p.processRow(bank, rows[i], i, detector, &result)
		}
		if progress != nil {
			progress(result.RunID, end, total)
		}
	}

	p.log.Info().
		Str("run_id", result.RunID).
		Str("bank", bank.Name).
		Int("rows", total).
		Int("candidates", len(result.Candidates)).
		Int("suppressed", len(result.Suppressed)).
		Msg("Import run finished")
	return result
}

// processRow maps one raw row into a candidate: field extraction, parsing,
// rule application, duplicate detection, validation, status assignment.
func (p *Pipeline) processRow(bank BankConfig, row RawRow, index int, detector *Detector, result *Result) {
	rec := store.Record{}
	var parseErrors []string

	if date := ParseDate(bank.extract(row, FieldDate), bank.DateFormat); date != nil {
		rec["date"] = *date
	}
	rec["description"] = bank.extract(row, FieldDescription)

	amount, err := p.parseAmount(bank, row)
	if err != nil {
		parseErrors = append(parseErrors, err.Error())
	}
	rec["amount"] = amount

	if bank.AccountID != "" {
		rec["accountId"] = bank.AccountID
	}
	if payee := bank.extract(row, FieldPayee); payee != "" {
		rec["payee"] = payee
	}
	if payer := bank.extract(row, FieldPayer); payer != "" {
		rec["payer"] = payer
	}
	if notes := bank.extract(row, FieldNotes); notes != "" {
		rec["notes"] = notes
	}

	outcome := p.engine.Evaluate(bank.Rules, rec)
	for _, cfgErr := range outcome.ConfigErrors {
		result.ConfigErrors = append(result.ConfigErrors, cfgErr.Error())
	}
	if outcome.Suppressed {
		result.Suppressed = append(result.Suppressed, SuppressedRow{
			RowIndex: index,
			RuleID:   outcome.SuppressedBy,
		})
		return
	}

	candidate := Candidate{RowIndex: index, Record: outcome.Record}
	candidate.Errors = append(candidate.Errors, parseErrors...)

	errs, warnings := validate(outcome.Record)
	candidate.Errors = append(candidate.Errors, errs...)
	candidate.Warnings = append(candidate.Warnings, warnings...)
	candidate.Duplicate = detector.IsDuplicate(outcome.Record)
	candidate.assignStatus()

	result.Candidates = append(result.Candidates, candidate)
}

// parseAmount resolves the row amount per the bank's amount-handling mode.
func (p *Pipeline) parseAmount(bank BankConfig, row RawRow) (float64, error) {
	if bank.AmountMode == AmountSeparate {
		return ParseSeparateAmount(bank.extract(row, FieldDebit), bank.extract(row, FieldCredit))
	}
	return ParseSignedAmount(bank.extract(row, FieldAmount))
}
