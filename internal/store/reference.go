package store

import "math"

// Reference-data operations: currencies, exchange rates, categories,
// subcategories, transaction groups, payees and payers. All follow the same
// contract: validate, then mutate, atomic per call.

// AddCurrency inserts a currency. Codes are unique.
func (s *Store) AddCurrency(data Record) (Record, error) {
	return s.insert(TableCurrencies, data)
}

// UpdateCurrency merges a patch onto an existing currency.
func (s *Store) UpdateCurrency(id string, patch Record) (Record, error) {
	return s.update(TableCurrencies, id, patch)
}

// DeleteCurrency removes a currency unless accounts or rates reference it.
func (s *Store) DeleteCurrency(id string) error {
	return s.deleteRecord(TableCurrencies, id)
}

// validateRate checks the numeric shape of an exchange-rate record and its
// pair uniqueness against the current table.
func (s *Store) validateRate(rec Record, excludeID string) error {
	rate, ok := rec.GetFloat("rate")
	if !ok || math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return &ValidationError{Table: TableExchangeRates, Field: "rate", Reason: "must be a positive number"}
	}
	from := rec.GetString("fromCurrencyId")
	to := rec.GetString("toCurrencyId")
	if from == to {
		return &ValidationError{Table: TableExchangeRates, Field: "toCurrencyId", Reason: "must differ from fromCurrencyId"}
	}
	for id, existing := range s.records[TableExchangeRates] {
		if id == excludeID {
			continue
		}
		if existing.GetString("fromCurrencyId") == from && existing.GetString("toCurrencyId") == to {
			return &DuplicateKeyError{Table: TableExchangeRates, Field: "fromCurrencyId,toCurrencyId", Value: from + "->" + to}
		}
	}
	return nil
}

// AddExchangeRate inserts a rate. The (from, to) pair is unique.
func (s *Store) AddExchangeRate(data Record) (Record, error) {
	if err := s.validateRate(data, ""); err != nil {
		return nil, err
	}
	return s.insert(TableExchangeRates, data)
}

// UpdateExchangeRate merges a patch onto an existing rate.
func (s *Store) UpdateExchangeRate(id string, patch Record) (Record, error) {
	existing, ok := s.records[TableExchangeRates][id]
	if !ok {
		return nil, &NotFoundError{Table: TableExchangeRates, ID: id}
	}
	merged := existing.Clone()
	for k, v := range patch {
		if k != FieldID && k != FieldCreatedAt {
			merged[k] = v
		}
	}
	if err := s.validateRate(merged, id); err != nil {
		return nil, err
	}
	return s.update(TableExchangeRates, id, patch)
}

// DeleteExchangeRate removes a rate record.
func (s *Store) DeleteExchangeRate(id string) error {
	return s.deleteRecord(TableExchangeRates, id)
}

// ReplaceExchangeRates atomically swaps the whole rate set. Every incoming
// record is validated against the current currencies first; on any failure the
// previous rate set is left untouched. Used by the rate-refresh boundary: a
// fetch either lands a consistent set or changes nothing.
func (s *Store) ReplaceExchangeRates(rates []Record) error {
	def := s.defs[TableExchangeRates]
	seen := make(map[string]bool, len(rates))
	prepared := make([]Record, 0, len(rates))

	for _, data := range rates {
		rec := data.Clone()
		if err := s.validateRequired(def, rec); err != nil {
			return err
		}
		if err := s.validateForeignKeys(def, rec); err != nil {
			return err
		}
		rate, ok := rec.GetFloat("rate")
		if !ok || math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
			return &ValidationError{Table: TableExchangeRates, Field: "rate", Reason: "must be a positive number"}
		}
		pair := rec.GetString("fromCurrencyId") + "->" + rec.GetString("toCurrencyId")
		if seen[pair] {
			return &DuplicateKeyError{Table: TableExchangeRates, Field: "fromCurrencyId,toCurrencyId", Value: pair}
		}
		seen[pair] = true
		prepared = append(prepared, rec)
	}

	// Commit: clear and reinsert. Nothing references exchange rates, so the
	// clear cannot violate integrity.
	s.records[TableExchangeRates] = make(map[string]Record, len(prepared))
	s.insertion[TableExchangeRates] = nil
	for _, rec := range prepared {
		if _, err := s.insert(TableExchangeRates, rec); err != nil {
			return err
		}
	}
	s.log.Info().Int("rates", len(prepared)).Msg("Exchange-rate set replaced")
	return nil
}

// AddCategory inserts a category (a transaction type). Names are unique.
func (s *Store) AddCategory(data Record) (Record, error) {
	return s.insert(TableCategories, data)
}

// UpdateCategory merges a patch onto an existing category.
func (s *Store) UpdateCategory(id string, patch Record) (Record, error) {
	return s.update(TableCategories, id, patch)
}

// DeleteCategory removes a category unless subcategories or transactions
// hold a non-optional reference to it.
func (s *Store) DeleteCategory(id string) error {
	return s.deleteRecord(TableCategories, id)
}

// AddSubcategory inserts a subcategory under an existing category.
func (s *Store) AddSubcategory(data Record) (Record, error) {
	return s.insert(TableSubcategories, data)
}

// UpdateSubcategory merges a patch onto an existing subcategory.
func (s *Store) UpdateSubcategory(id string, patch Record) (Record, error) {
	return s.update(TableSubcategories, id, patch)
}

// DeleteSubcategory removes a subcategory.
func (s *Store) DeleteSubcategory(id string) error {
	return s.deleteRecord(TableSubcategories, id)
}

// AddTransactionGroup inserts a transaction group. Names are unique.
func (s *Store) AddTransactionGroup(data Record) (Record, error) {
	return s.insert(TableTransactionGroups, data)
}

// UpdateTransactionGroup merges a patch onto an existing group.
func (s *Store) UpdateTransactionGroup(id string, patch Record) (Record, error) {
	return s.update(TableTransactionGroups, id, patch)
}

// DeleteTransactionGroup removes a group.
func (s *Store) DeleteTransactionGroup(id string) error {
	return s.deleteRecord(TableTransactionGroups, id)
}

// AddPayee inserts a payee.
func (s *Store) AddPayee(data Record) (Record, error) {
	return s.insert(TablePayees, data)
}

// UpdatePayee merges a patch onto an existing payee.
func (s *Store) UpdatePayee(id string, patch Record) (Record, error) {
	return s.update(TablePayees, id, patch)
}

// DeletePayee removes a payee.
func (s *Store) DeletePayee(id string) error {
	return s.deleteRecord(TablePayees, id)
}

// AddPayer inserts a payer.
func (s *Store) AddPayer(data Record) (Record, error) {
	return s.insert(TablePayers, data)
}

// UpdatePayer merges a patch onto an existing payer.
func (s *Store) UpdatePayer(id string, patch Record) (Record, error) {
	return s.update(TablePayers, id, patch)
}

// DeletePayer removes a payer.
func (s *Store) DeletePayer(id string) error {
	return s.deleteRecord(TablePayers, id)
}
