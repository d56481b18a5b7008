package importer

import (
	"math"
	"strings"

	"github.com/mstamatakis/drachma/internal/store"
)

// DetectorConfig makes the duplicate heuristic's thresholds explicit.
type DetectorConfig struct {
	// AmountEpsilon is the absolute tolerance for an amount match.
	AmountEpsilon float64
	// MinOverlapLen is the minimum length of the shorter description for a
	// prefix/substring relationship to count.
	MinOverlapLen int
}

// DefaultDetectorConfig returns the stock thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{AmountEpsilon: 0.01, MinOverlapLen: 4}
}

// Detector flags candidates that look like already-stored transactions:
// amount within epsilon, same calendar date, and case-insensitively related
// descriptions. Flagged candidates stay in the output, they are never
// auto-discarded.
type Detector struct {
	cfg DetectorConfig

	// Existing transactions bucketed by date for linear-cost lookups.
	byDate map[string][]existingTxn
}

type existingTxn struct {
	amount      float64
	description string
}

// NewDetector indexes the already-stored transactions.
func NewDetector(cfg DetectorConfig, existing []store.Record) *Detector {
	d := &Detector{cfg: cfg, byDate: make(map[string][]existingTxn)}
	for _, rec := range existing {
		date, ok := rec.GetTime("date")
		if !ok {
			continue
		}
		amount, ok := rec.GetFloat("amount")
		if !ok {
			continue
		}
		key := date.Format("2006-01-02")
		d.byDate[key] = append(d.byDate[key], existingTxn{
			amount:      amount,
			description: foldDescription(rec.GetString("description")),
		})
	}
	return d
}

// IsDuplicate reports whether the candidate matches a stored transaction.
func (d *Detector) IsDuplicate(rec store.Record) bool {
	date, ok := rec.GetTime("date")
	if !ok {
		return false
	}
	amount, ok := rec.GetFloat("amount")
	if !ok {
		return false
	}
	description := foldDescription(rec.GetString("description"))

	for _, stored := range d.byDate[date.Format("2006-01-02")] {
		if math.Abs(stored.amount-amount) > d.cfg.AmountEpsilon {
			continue
		}
		if d.descriptionsRelated(stored.description, description) {
			return true
		}
	}
	return false
}

// descriptionsRelated reports a prefix/substring relationship between the
// folded descriptions, guarded by the minimum overlap length.
func (d *Detector) descriptionsRelated(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) < d.cfg.MinOverlapLen && shorter != longer {
		return false
	}
	return strings.Contains(longer, shorter)
}

func foldDescription(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
