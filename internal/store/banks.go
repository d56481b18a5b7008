package store

// Bank-configuration operations. A bank record holds the statement format
// for one institution (delimiter, header flag, date format, amount mode and
// field mapping); its import rules live in their own table keyed by bankId
// so rules can be managed without rewriting the bank.

// AddBank inserts a bank configuration. Names are unique.
func (s *Store) AddBank(data Record) (Record, error) {
	return s.insert(TableBanks, data)
}

// UpdateBank merges a patch onto an existing bank configuration.
func (s *Store) UpdateBank(id string, patch Record) (Record, error) {
	return s.update(TableBanks, id, patch)
}

// DeleteBank removes a bank unless import rules still reference it.
func (s *Store) DeleteBank(id string) error {
	return s.deleteRecord(TableBanks, id)
}

// AddImportRule inserts a classification rule under an existing bank.
func (s *Store) AddImportRule(data Record) (Record, error) {
	return s.insert(TableImportRules, data)
}

// UpdateImportRule merges a patch onto an existing rule.
func (s *Store) UpdateImportRule(id string, patch Record) (Record, error) {
	return s.update(TableImportRules, id, patch)
}

// DeleteImportRule removes a rule.
func (s *Store) DeleteImportRule(id string) error {
	return s.deleteRecord(TableImportRules, id)
}

// BankRules returns the rules of one bank in insertion order.
func (s *Store) BankRules(bankID string) []Record {
	var out []Record
	for _, rec := range s.List(TableImportRules) {
		if rec.GetString("bankId") == bankID {
			out = append(out, rec)
		}
	}
	return out
}
