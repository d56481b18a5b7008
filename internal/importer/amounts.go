package importer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseError reports a cell that could not be parsed. It is recovered
// locally as a row-level validation entry and never thrown out of the
// pipeline.
type ParseError struct {
	Field string
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s value %q", e.Field, e.Input)
}

// ParseSignedAmount parses a signed amount cell, stripping currency symbols
// and grouping characters. Decimal arithmetic is used so formatting quirks
// do not introduce float noise before the value reaches the store.
func ParseSignedAmount(value string) (float64, error) {
	cleaned := normalizeAmount(value)
	if cleaned == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, &ParseError{Field: FieldAmount, Input: value}
	}
	f, _ := d.Float64()
	return f, nil
}

// ParseSeparateAmount combines debit and credit cells. A non-empty credit
// yields a positive amount and wins over the debit; otherwise the debit is
// negated. Both empty yields zero.
func ParseSeparateAmount(debit, credit string) (float64, error) {
	if strings.TrimSpace(credit) != "" {
		cleaned := normalizeAmount(credit)
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return 0, &ParseError{Field: FieldCredit, Input: credit}
		}
		f, _ := d.Abs().Float64()
		return f, nil
	}
	if strings.TrimSpace(debit) != "" {
		cleaned := normalizeAmount(debit)
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return 0, &ParseError{Field: FieldDebit, Input: debit}
		}
		f, _ := d.Abs().Neg().Float64()
		return f, nil
	}
	return 0, nil
}

// normalizeAmount strips non-numeric formatting: currency symbols, spaces
// and grouping separators. A single trailing comma group is treated as a
// decimal comma ("1.234,56" -> "1234.56").
func normalizeAmount(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9', r == '-', r == '.', r == ',':
			b.WriteRune(r)
		case r == '(': // accounting negative: (12.34)
			b.WriteRune('-')
		}
	}
	s := b.String()

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// Comma is the decimal separator, dots are grouping.
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// Ambiguous: "1,234" is grouping, "12,34" is a decimal comma.
		if strings.Count(s, ",") > 1 || (len(s)-lastComma-1 == 3 && lastComma > 0) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	return s
}
