package store

import "github.com/mstamatakis/drachma/internal/domain"

// Account operations. An account's balance is derived state:
// initialBalance plus the signed effect of every committed transaction that
// touches the account. The balance field is maintained by the transaction
// operations and must never be patched directly.

// AddAccount validates and inserts a new account. The balance starts at the
// initial balance; a missing initialBalance defaults to zero.
func (s *Store) AddAccount(data Record) (Record, error) {
	rec := data.Clone()
	if typ := rec.GetString("type"); typ != "" && !domain.ValidAccountType(typ) {
		return nil, &ValidationError{Table: TableAccounts, Field: "type", Reason: "unknown account type"}
	}
	initial, ok := rec.GetFloat("initialBalance")
	if !ok {
		if rec.Has("initialBalance") {
			return nil, &ValidationError{Table: TableAccounts, Field: "initialBalance", Reason: "must be numeric"}
		}
		initial = 0
		rec["initialBalance"] = 0.0
	} else {
		rec["initialBalance"] = initial
	}
	rec["balance"] = initial
	return s.insert(TableAccounts, rec)
}

// UpdateAccount merges the patch onto an existing account. The derived
// balance cannot be set directly; changing initialBalance shifts the balance
// by the same delta so committed transaction effects are preserved.
func (s *Store) UpdateAccount(id string, patch Record) (Record, error) {
	existing, ok := s.records[TableAccounts][id]
	if !ok {
		return nil, &NotFoundError{Table: TableAccounts, ID: id}
	}

	cleaned := patch.Clone()
	delete(cleaned, "balance")
	if cleaned.Has("type") && !domain.ValidAccountType(cleaned.GetString("type")) {
		return nil, &ValidationError{Table: TableAccounts, Field: "type", Reason: "unknown account type"}
	}

	oldInitial, _ := existing.GetFloat("initialBalance")
	newInitial := oldInitial
	if cleaned.Has("initialBalance") {
		v, ok := cleaned.GetFloat("initialBalance")
		if !ok {
			return nil, &ValidationError{Table: TableAccounts, Field: "initialBalance", Reason: "must be numeric"}
		}
		newInitial = v
		cleaned["initialBalance"] = v
	}

	updated, err := s.update(TableAccounts, id, cleaned)
	if err != nil {
		return nil, err
	}

	if newInitial != oldInitial {
		stored := s.records[TableAccounts][id]
		balance, _ := stored.GetFloat("balance")
		stored["balance"] = balance + (newInitial - oldInitial)
		updated = stored.Clone()
	}
	return updated, nil
}

// DeleteAccount removes an account unless transactions still reference it.
func (s *Store) DeleteAccount(id string) error {
	return s.deleteRecord(TableAccounts, id)
}

// AccountBalance returns the current derived balance of an account.
func (s *Store) AccountBalance(id string) (float64, error) {
	rec, ok := s.records[TableAccounts][id]
	if !ok {
		return 0, &NotFoundError{Table: TableAccounts, ID: id}
	}
	balance, _ := rec.GetFloat("balance")
	return balance, nil
}

// applyBalanceEffect applies the signed effect of a transaction to its
// accounts. With sign +1 the source account gains the amount and the
// destination account loses it; sign -1 reverses a previously applied effect
// exactly.
func (s *Store) applyBalanceEffect(txn Record, sign float64) {
	amount, ok := txn.GetFloat("amount")
	if !ok {
		return
	}

	if source, ok := s.records[TableAccounts][txn.GetString("accountId")]; ok {
		balance, _ := source.GetFloat("balance")
		source["balance"] = balance + sign*amount
	}
	if destID := txn.GetString("toAccountId"); destID != "" {
		if dest, ok := s.records[TableAccounts][destID]; ok {
			balance, _ := dest.GetFloat("balance")
			dest["balance"] = balance - sign*amount
		}
	}
}
