package store

import "math"

// Transaction operations. Every committed transaction carries a signed
// amount, a date, a source account and optionally a destination account plus
// classification references. Committing, patching and deleting a transaction
// keeps the touched account balances consistent.

// validateTransactionShape checks the fields the registry cannot express:
// numeric, finite amount and a parseable date.
func (s *Store) validateTransactionShape(rec Record) error {
	amount, ok := rec.GetFloat("amount")
	if !ok || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return &ValidationError{Table: TableTransactions, Field: "amount", Reason: "must be a finite number"}
	}
	if _, ok := rec.GetTime("date"); !ok {
		return &ValidationError{Table: TableTransactions, Field: "date", Reason: "must be a valid date"}
	}
	return nil
}

// AddTransaction validates the record, inserts it and applies its balance
// effect. On any validation failure no table is changed.
func (s *Store) AddTransaction(data Record) (Record, error) {
	def := s.defs[TableTransactions]
	rec := data.Clone()

	if err := s.validateRequired(def, rec); err != nil {
		return nil, err
	}
	if err := s.validateTransactionShape(rec); err != nil {
		return nil, err
	}

	inserted, err := s.insert(TableTransactions, rec)
	if err != nil {
		return nil, err
	}
	s.applyBalanceEffect(inserted, +1)

	s.log.Info().
		Str("id", inserted.ID()).
		Str("account", inserted.GetString("accountId")).
		Msg("Transaction committed")
	return inserted, nil
}

// UpdateTransaction merges the patch onto an existing transaction. The old
// balance effect is reversed, the patch applied, and the new effect applied.
// All validation runs before any balance is touched.
func (s *Store) UpdateTransaction(id string, patch Record) (Record, error) {
	def := s.defs[TableTransactions]
	existing, ok := s.records[TableTransactions][id]
	if !ok {
		return nil, &NotFoundError{Table: TableTransactions, ID: id}
	}

	merged := existing.Clone()
	for k, v := range patch {
		if k == FieldID || k == FieldCreatedAt {
			continue
		}
		merged[k] = v
	}

	if err := s.validateRequired(def, merged); err != nil {
		return nil, err
	}
	if err := s.validateForeignKeys(def, merged); err != nil {
		return nil, err
	}
	if err := s.validateTransactionShape(merged); err != nil {
		return nil, err
	}

	s.applyBalanceEffect(existing, -1)
	s.records[TableTransactions][id] = merged
	s.applyBalanceEffect(merged, +1)

	s.log.Debug().Str("id", id).Msg("Transaction updated")
	return merged.Clone(), nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
func (s *Store) DeleteTransaction(id string) error {
	existing, ok := s.records[TableTransactions][id]
	if !ok {
		return &NotFoundError{Table: TableTransactions, ID: id}
	}
	if err := s.checkDependents(TableTransactions, id); err != nil {
		return err
	}
	s.applyBalanceEffect(existing, -1)
	s.removeUnchecked(TableTransactions, id)
	return nil
}
