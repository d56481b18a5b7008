package importer

import (
	"github.com/rs/zerolog"

	"github.com/mstamatakis/drachma/internal/store"
)

// CommitResult reports the outcome of committing reviewed candidates.
type CommitResult struct {
	Committed []string       `json:"committed"` // transaction ids in commit order
	Skipped   []int          `json:"skipped"`   // row indexes with error status
	Failed    map[int]string `json:"failed"`    // row index -> store error
}

// CommitCandidates writes accepted candidates to the store via its
// transaction contract. Candidates with error status are skipped; a store
// rejection of one candidate does not abort the rest.
func CommitCandidates(st *store.Store, candidates []Candidate, log zerolog.Logger) CommitResult {
	result := CommitResult{Failed: make(map[int]string)}

	for _, candidate := range candidates {
		if candidate.Status == StatusError {
			result.Skipped = append(result.Skipped, candidate.RowIndex)
			continue
		}
		rec := candidate.Record.Clone()
		if date, ok := rec.GetTime("date"); ok {
			rec["date"] = date.Format("2006-01-02")
		}
		committed, err := st.AddTransaction(rec)
		if err != nil {
			result.Failed[candidate.RowIndex] = err.Error()
			log.Warn().Err(err).Int("row", candidate.RowIndex).Msg("Candidate rejected by store")
			continue
		}
		result.Committed = append(result.Committed, committed.ID())
	}

	log.Info().
		Int("committed", len(result.Committed)).
		Int("skipped", len(result.Skipped)).
		Int("failed", len(result.Failed)).
		Msg("Candidate commit finished")
	return result
}
