package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mstamatakis/drachma/internal/store"
)

func validRecord() store.Record {
	return store.Record{
		"date":        "2024-03-10",
		"description": "Coffee Shop",
		"amount":      -4.5,
		"accountId":   "acc-000001",
		"category":    "Eating out",
		"payee":       "Coffee Shop",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(store.Record)
		wantErrors   []string
		wantWarnings []string
	}{
		{
			"clean record",
			func(r store.Record) {},
			nil, nil,
		},
		{
			"missing date",
			func(r store.Record) { delete(r, "date") },
			[]string{"missing or invalid date"}, nil,
		},
		{
			"empty description",
			func(r store.Record) { r["description"] = "  " },
			[]string{"description is empty"}, nil,
		},
		{
			"zero amount",
			func(r store.Record) { r["amount"] = 0.0 },
			[]string{"amount is zero"}, []string{"income has no payer"},
		},
		{
			"non-numeric amount",
			func(r store.Record) { r["amount"] = "abc" },
			[]string{"amount is not a number"}, []string{"income has no payer"},
		},
		{
			"missing classification",
			func(r store.Record) { delete(r, "category") },
			[]string{"missing classification"}, nil,
		},
		{
			"category id counts as classification",
			func(r store.Record) {
				delete(r, "category")
				r["categoryId"] = "cat-000001"
			},
			nil, nil,
		},
		{
			"no account mapped",
			func(r store.Record) { delete(r, "accountId") },
			nil, []string{"no account mapped"},
		},
		{
			"transfer without destination",
			func(r store.Record) { r["kind"] = "TRANSFER" },
			nil, []string{"transfer has no destination account"},
		},
		{
			"income without payer",
			func(r store.Record) {
				r["amount"] = 100.0
				delete(r, "payee")
			},
			nil, []string{"income has no payer"},
		},
		{
			"expense without payee",
			func(r store.Record) { delete(r, "payee") },
			nil, []string{"expense has no payee"},
		},
		{
			"destination account implies transfer",
			func(r store.Record) {
				r["toAccountId"] = "acc-000002"
				delete(r, "payee")
			},
			nil, nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(rec)

			errs, warnings := validate(rec)
			assert.Equal(t, tt.wantErrors, errs)
			assert.Equal(t, tt.wantWarnings, warnings)
		})
	}
}
