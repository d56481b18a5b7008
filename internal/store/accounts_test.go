package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAccountRejectsUnknownType(t *testing.T) {
	s := newTestStore(t)
	cur := seedCurrency(t, s, "EUR")

	_, err := s.AddAccount(Record{"name": "Wallet", "type": "GOLD_BARS", "currencyId": cur.ID()})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Field)
	assert.Empty(t, s.List(TableAccounts))
}

func TestUpdateAccountRejectsUnknownType(t *testing.T) {
	s := newTestStore(t)
	cur := seedCurrency(t, s, "EUR")
	acc := seedAccount(t, s, "Checking", cur.ID())

	_, err := s.UpdateAccount(acc.ID(), Record{"type": "GOLD_BARS"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	updated, err := s.UpdateAccount(acc.ID(), Record{"type": "SAVINGS"})
	require.NoError(t, err)
	assert.Equal(t, "SAVINGS", updated.GetString("type"))
}
