package importer

import "github.com/mstamatakis/drachma/internal/store"

// Status is the review status assigned to a candidate.
// Precedence: error > warning > ready. Duplicate is an orthogonal flag.
type Status string

const (
	StatusReady   Status = "ready"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Candidate is a proposed transaction awaiting human review.
type Candidate struct {
	RowIndex  int          `json:"rowIndex"` // zero-based index into the source rows
	Record    store.Record `json:"record"`
	Status    Status       `json:"status"`
	Errors    []string     `json:"errors"`
	Warnings  []string     `json:"warnings"`
	Duplicate bool         `json:"isDuplicate"`
}

// assignStatus derives the status from collected errors and warnings.
func (c *Candidate) assignStatus() {
	switch {
	case len(c.Errors) > 0:
		c.Status = StatusError
	case len(c.Warnings) > 0:
		c.Status = StatusWarning
	default:
		c.Status = StatusReady
	}
}

// SuppressedRow reports a row excluded by an IGNORE_ROW rule. Suppressed
// rows are reported to the caller, never silently dropped.
type SuppressedRow struct {
	RowIndex int    `json:"rowIndex"`
	RuleID   string `json:"ruleId"`
}
