// Package importer converts externally supplied bank-statement rows into
// validated, reviewable transaction candidates. Each row is mapped through a
// bank's field mapping, parsed, run through the rule engine, checked for
// duplicates and validated; the result is a queue of candidates partitioned
// by status for human review before commit.
package importer

import (
	"encoding/json"
	"fmt"

	"github.com/mstamatakis/drachma/internal/rules"
	"github.com/mstamatakis/drachma/internal/store"
)

// AmountMode selects how statement amounts are encoded.
type AmountMode string

const (
	// AmountSigned means one column carries a signed amount.
	AmountSigned AmountMode = "signed"
	// AmountSeparate means debit and credit live in separate columns; a
	// non-empty credit wins and debits are negated.
	AmountSeparate AmountMode = "separate"
)

// System fields a bank mapping can bind to statement columns.
const (
	FieldDate        = "date"
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldDebit       = "debit"
	FieldCredit      = "credit"
	FieldPayee       = "payee"
	FieldPayer       = "payer"
	FieldNotes       = "notes"
)

// BankConfig describes one bank's statement format and import behavior.
// It is supplied by the bank-configuration collaborator.
type BankConfig struct {
	Name       string            `json:"name"`
	Delimiter  rune              `json:"delimiter"`
	HasHeader  bool              `json:"hasHeader"`
	DateFormat string            `json:"dateFormat"` // e.g. "MM/DD/YYYY"
	AmountMode AmountMode        `json:"amountMode"`
	AccountID  string            `json:"accountId"` // store account the rows belong to, may be empty
	Mapping    map[string]string `json:"mapping"`   // system field -> statement column
	Rules      []rules.Rule      `json:"rules"`
}

// RawRow is one statement row keyed by column name. Files without a header
// use generated names ("column1", "column2", ...).
type RawRow map[string]string

// ConfigFromRecords builds a BankConfig from a stored bank record and its
// rule records. Records are JSON-shaped field bags, so the conversion is a
// decode through the wire types; the delimiter is stored as a one-character
// string and defaults to a comma.
func ConfigFromRecords(bank store.Record, ruleRecs []store.Record) (BankConfig, error) {
	var stored struct {
		Name       string            `json:"name"`
		Delimiter  string            `json:"delimiter"`
		HasHeader  bool              `json:"hasHeader"`
		DateFormat string            `json:"dateFormat"`
		AmountMode string            `json:"amountMode"`
		AccountID  string            `json:"accountId"`
		Mapping    map[string]string `json:"mapping"`
	}
	if err := decodeRecord(bank, &stored); err != nil {
		return BankConfig{}, fmt.Errorf("bank %s: %w", bank.ID(), err)
	}

	cfg := BankConfig{
		Name:       stored.Name,
		Delimiter:  ',',
		HasHeader:  stored.HasHeader,
		DateFormat: stored.DateFormat,
		AmountMode: AmountMode(stored.AmountMode),
		AccountID:  stored.AccountID,
		Mapping:    stored.Mapping,
	}
	if stored.Delimiter != "" {
		runes := []rune(stored.Delimiter)
		if len(runes) != 1 {
			return BankConfig{}, fmt.Errorf("bank %s: delimiter must be a single character", bank.ID())
		}
		cfg.Delimiter = runes[0]
	}
	if cfg.AmountMode == "" {
		cfg.AmountMode = AmountSigned
	}

	for _, rec := range ruleRecs {
		var rule rules.Rule
		if err := decodeRecord(rec, &rule); err != nil {
			return BankConfig{}, fmt.Errorf("rule %s: %w", rec.ID(), err)
		}
		rule.ID = rec.ID()
		rule.Active = rec.GetBool(store.FieldIsActive)
		cfg.Rules = append(cfg.Rules, rule)
	}
	return cfg, nil
}

func decodeRecord(rec store.Record, out any) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// extract resolves a system field through the bank mapping. Unmapped fields
// resolve to empty.
func (c BankConfig) extract(row RawRow, field string) string {
	column, ok := c.Mapping[field]
	if !ok || column == "" {
		return ""
	}
	return row[column]
}
