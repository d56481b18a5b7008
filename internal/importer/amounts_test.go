package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignedAmount(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{"plain", "12.34", 12.34},
		{"negative", "-12.34", -12.34},
		{"currency symbol", "$1,234.56", 1234.56},
		{"euro symbol", "€12,34", 12.34},
		{"decimal comma", "12,34", 12.34},
		{"european grouping", "1.234,56", 1234.56},
		{"grouping only", "1,234", 1234},
		{"multiple groups", "1,234,567", 1234567},
		{"accounting negative", "(12.34)", -12.34},
		{"internal spaces", "1 234.56", 1234.56},
		{"empty", "", 0},
		{"whitespace", "   ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSignedAmount(tt.value)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseSignedAmountError(t *testing.T) {
	_, err := ParseSignedAmount("--12")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, FieldAmount, parseErr.Field)
}

func TestParseSeparateAmount(t *testing.T) {
	tests := []struct {
		name   string
		debit  string
		credit string
		want   float64
	}{
		{"debit only", "45.00", "", -45.0},
		{"credit only", "", "250.00", 250.0},
		{"credit wins over debit", "45.00", "250.00", 250.0},
		{"negative debit still negates", "-45.00", "", -45.0},
		{"negative credit still positive", "", "-250.00", 250.0},
		{"both empty", "", "", 0},
		{"formatted debit", "$1,000.50", "", -1000.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeparateAmount(tt.debit, tt.credit)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseSeparateAmountError(t *testing.T) {
	_, err := ParseSeparateAmount("bogus", "")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, FieldDebit, parseErr.Field)
}
