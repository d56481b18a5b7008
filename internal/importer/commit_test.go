package importer

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstamatakis/drachma/internal/store"
)

func commitFixtures(t *testing.T) (*store.Store, string) {
	t.Helper()
	st := store.New(zerolog.Nop())

	cur, err := st.AddCurrency(store.Record{"code": "EUR", "name": "Euro"})
	require.NoError(t, err)
	acc, err := st.AddAccount(store.Record{"name": "Main", "type": "CHECKING", "currencyId": cur.ID()})
	require.NoError(t, err)
	return st, acc.ID()
}

func TestCommitCandidates(t *testing.T) {
	st, accID := commitFixtures(t)
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	candidates := []Candidate{
		{
			RowIndex: 0,
			Status:   StatusReady,
			Record: store.Record{
				"date": date, "description": "Coffee", "amount": -4.5, "accountId": accID,
			},
		},
		{
			RowIndex: 1,
			Status:   StatusError,
			Record:   store.Record{"description": "broken row"},
		},
		{
			RowIndex: 2,
			Status:   StatusWarning,
			Record: store.Record{
				"date": date, "description": "Salary", "amount": 2500.0, "accountId": accID,
			},
		},
		{
			// Passed review but the referenced account is gone by commit time.
			RowIndex: 3,
			Status:   StatusReady,
			Record: store.Record{
				"date": date, "description": "Orphan", "amount": -1.0, "accountId": "acc-999999",
			},
		},
	}

	result := CommitCandidates(st, candidates, zerolog.Nop())

	assert.Len(t, result.Committed, 2)
	assert.Equal(t, []int{1}, result.Skipped)
	require.Contains(t, result.Failed, 3)

	assert.Equal(t, 2, st.Count(store.TableTransactions))
	balance, err := st.AccountBalance(accID)
	require.NoError(t, err)
	assert.InDelta(t, 2495.5, balance, 1e-9)
}

func TestCommitCandidatesFormatsDates(t *testing.T) {
	st, accID := commitFixtures(t)

	candidates := []Candidate{{
		RowIndex: 0,
		Status:   StatusReady,
		Record: store.Record{
			"date":        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			"description": "Coffee",
			"amount":      -4.5,
			"accountId":   accID,
		},
	}}

	result := CommitCandidates(st, candidates, zerolog.Nop())
	require.Len(t, result.Committed, 1)

	stored, ok := st.Get(store.TableTransactions, result.Committed[0])
	require.True(t, ok)
	assert.Equal(t, "2024-03-10", stored.GetString("date"))
}
