package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balance(t *testing.T, s *Store, id string) float64 {
	t.Helper()
	b, err := s.AccountBalance(id)
	require.NoError(t, err)
	return b
}

func TestAddTransactionAppliesBalanceEffect(t *testing.T) {
	s := newTestStore(t)
	eur := seedCurrency(t, s, "EUR")
	acc := seedAccount(t, s, "Main", eur.ID())

	_, err := s.AddTransaction(Record{
		"date":        "2024-03-01",
		"description": "Salary",
		"amount":      2500.0,
		"accountId":   acc.ID(),
	})
	require.NoError(t, err)

	assert.InDelta(t, 2500.0, balance(t, s, acc.ID()), 1e-9)
}

func TestAddTransactionReturnsInsertedCopy(t *testing.T) {
	s := newTestStore(t)
	eur := seedCurrency(t, s, "EUR")
	acc := seedAccount(t, s, "Main", eur.ID())

	inserted, err := s.AddTransaction(Record{
		"date":        "2024-03-01",
		"description": "Salary",
		"amount":      2500.0,
		"accountId":   acc.ID(),
	})
	require.NoError(t, err)

	assert.Equal(t, "txn-000001", inserted.ID())
	assert.NotEmpty(t, inserted.GetString(FieldCreatedAt))

	// The returned record is a copy, not the stored one.
	inserted["description"] = "tampered"
	stored, ok := s.Get(TableTransactions, inserted.ID())
	require.True(t, ok)
	assert.Equal(t, "Salary", stored.GetString("description"))
}

func TestTransferMovesMoneyBetweenAccounts(t *testing.T) {
	s := newTestStore(t)
	eur := seedCurrency(t, s, "EUR")
	src := seedAccount(t, s, "Checking", eur.ID())
	dst := seedAccount(t, s, "Savings", eur.ID())

	// A negative amount leaves the source account; the destination gains it.
	_, err := s.AddTransaction(Record{
		"date":        "2024-03-02",
		"description": "Monthly savings",
		"amount":      -100.0,
		"accountId":   src.ID(),
		"toAccountId": dst.ID(),
	})
	require.NoError(t, err)

	assert.InDelta(t, -100.0, balance(t, s, src.ID()), 1e-9)
	assert.InDelta(t, 100.0, balance(t, s, dst.ID()), 1e-9)
}

func TestAddTransactionRejectsInvalidShapes(t *testing.T) {
	s := newTestStore(t)
	eur := seedCurrency(t, s, "EUR")
	acc := seedAccount(t, s, "Main", eur.ID())

	tests := []struct {
		name string
		data Record
	}{
		{"missing amount", Record{"date": "2024-03-01", "description": "x", "accountId": acc.ID()}},
		{"nan amount", Record{"date": "2024-03-01", "description": "x", "amount": math.NaN(), "accountId": acc.ID()}},
		{"infinite amount", Record{"date": "2024-03-01", "description": "x", "amount": math.Inf(1), "accountId": acc.ID()}},
		{"bad date", Record{"date": "not-a-date", "description": "x", "amount": 1.0, "accountId": acc.ID()}},
		{"missing description", Record{"date": "2024-03-01", "amount": 1.0, "accountId": acc.ID()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddTransaction(tt.data)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, 0, s.Count(TableTransactions))
			assert.InDelta(t, 0.0, balance(t, s, acc.ID()), 1e-9)
		})
	}
}

func TestAddTransactionRejectsUnknownAccount(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddTransaction(Record{
		"date":        "2024-03-01",
		"description": "Orphan",
		"amount":      1.0,
		"accountId":   "acc-424242",
	})

	var refErr *InvalidReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, 0, s.Count(TableTransactions))
}

func TestUpdateTransactionRebalances(t *testing.T) {
	s := newTestStore(t)
	eur := seedCurrency(t, s, "EUR")
	acc := seedAccount(t, s, "Main", eur.ID())

	txn, err := s.AddTransaction(Record{
		"date":        "2024-03-01",
		"description": "Dinner",
		"amount":      -40.0,
		"accountId":   acc.ID(),
	})
	require.NoError(t, err)

	_, err = s.UpdateTransaction(txn.ID(), Record{"amount": -55.0})
	require.NoError(t, err)

	assert.InDelta(t, -55.0, balance(t, s, acc.ID()), 1e-9)
}

func TestUpdateTransactionMovesEffectBetweenAccounts(t *testing.T) {
	s := newTestStore(t)
	eur := seedCurrency(t, s, "EUR")
	first := seedAccount(t, s, "First", eur.ID())
	second := seedAccount(t, s, "Second", eur.ID())

	txn, err := s.AddTransaction(Record{
		"date":        "2024-03-01",
		"description": "Dinner",
		"amount":      -40.0,
		"accountId":   first.ID(),
	})
	require.NoError(t, err)

	_, err = s.UpdateTransaction(txn.ID(), Record{"accountId": second.ID()})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, balance(t, s, first.ID()), 1e-9)
	assert.InDelta(t, -40.0, balance(t, s, second.ID()), 1e-9)
}

func TestUpdateTransactionFailureLeavesBalancesIntact(t *testing.T) {
	s := newTestStore(t)
	eur := seedCurrency(t, s, "EUR")
	acc := seedAccount(t, s, "Main", eur.ID())

	txn, err := s.AddTransaction(Record{
		"date":        "2024-03-01",
		"description": "Dinner",
		"amount":      -40.0,
		"accountId":   acc.ID(),
	})
	require.NoError(t, err)

	_, err = s.UpdateTransaction(txn.ID(), Record{"accountId": "acc-999999"})
	var refErr *InvalidReferenceError
	require.ErrorAs(t, err, &refErr)

	// The stored record and both balances are untouched.
	stored, ok := s.Get(TableTransactions, txn.ID())
	require.True(t, ok)
	assert.Equal(t, acc.ID(), stored.GetString("accountId"))
	assert.InDelta(t, -40.0, balance(t, s, acc.ID()), 1e-9)
}

func TestDeleteTransactionReversesEffect(t *testing.T) {
	s := newTestStore(t)
	eur := seedCurrency(t, s, "EUR")
	src := seedAccount(t, s, "Checking", eur.ID())
	dst := seedAccount(t, s, "Savings", eur.ID())

	txn, err := s.AddTransaction(Record{
		"date":        "2024-03-02",
		"description": "Transfer",
		"amount":      -250.0,
		"accountId":   src.ID(),
		"toAccountId": dst.ID(),
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTransaction(txn.ID()))

	assert.Equal(t, 0, s.Count(TableTransactions))
	assert.InDelta(t, 0.0, balance(t, s, src.ID()), 1e-9)
	assert.InDelta(t, 0.0, balance(t, s, dst.ID()), 1e-9)
}

func TestAccountInitialBalance(t *testing.T) {
	s := newTestStore(t)
	eur := seedCurrency(t, s, "EUR")

	acc, err := s.AddAccount(Record{
		"name":           "Main",
		"type":           "CHECKING",
		"currencyId":     eur.ID(),
		"initialBalance": 500.0,
	})
	require.NoError(t, err)
	assert.InDelta(t, 500.0, balance(t, s, acc.ID()), 1e-9)
}

func TestUpdateAccountShiftsBalanceWithInitialBalance(t *testing.T) {
	s := newTestStore(t)
	eur := seedCurrency(t, s, "EUR")
	acc, err := s.AddAccount(Record{
		"name":           "Main",
		"type":           "CHECKING",
		"currencyId":     eur.ID(),
		"initialBalance": 100.0,
	})
	require.NoError(t, err)

	_, err = s.AddTransaction(Record{
		"date":        "2024-03-01",
		"description": "Coffee",
		"amount":      -3.0,
		"accountId":   acc.ID(),
	})
	require.NoError(t, err)

	updated, err := s.UpdateAccount(acc.ID(), Record{"initialBalance": 150.0})
	require.NoError(t, err)

	// Transaction effects are preserved, only the opening amount moved.
	got, _ := updated.GetFloat("balance")
	assert.InDelta(t, 147.0, got, 1e-9)
}

func TestUpdateAccountIgnoresDirectBalancePatch(t *testing.T) {
	s := newTestStore(t)
	eur := seedCurrency(t, s, "EUR")
	acc := seedAccount(t, s, "Main", eur.ID())

	_, err := s.UpdateAccount(acc.ID(), Record{"balance": 9999.0, "name": "Renamed"})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, balance(t, s, acc.ID()), 1e-9)
}

func TestDeleteAccountGuardedByTransactions(t *testing.T) {
	s := newTestStore(t)
	eur := seedCurrency(t, s, "EUR")
	acc := seedAccount(t, s, "Main", eur.ID())

	_, err := s.AddTransaction(Record{
		"date":        "2024-03-01",
		"description": "Coffee",
		"amount":      -3.0,
		"accountId":   acc.ID(),
	})
	require.NoError(t, err)

	var integrityErr *ReferentialIntegrityError
	require.ErrorAs(t, s.DeleteAccount(acc.ID()), &integrityErr)
}
