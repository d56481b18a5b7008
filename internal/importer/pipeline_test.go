package importer

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstamatakis/drachma/internal/rules"
	"github.com/mstamatakis/drachma/internal/store"
)

func testBankConfig() BankConfig {
	return BankConfig{
		Name:       "testbank",
		Delimiter:  ',',
		HasHeader:  true,
		DateFormat: "MM/DD/YYYY",
		AmountMode: AmountSigned,
		AccountID:  "acc-000001",
		Mapping: map[string]string{
			FieldDate:        "Date",
			FieldDescription: "Description",
			FieldAmount:      "Amount",
		},
		Rules: []rules.Rule{
			{
				ID: "classify-coffee", Active: true, Order: 1, Logic: rules.LogicAll,
				Conditions: []rules.Condition{
					{Field: "description", Operator: rules.OpContains, Value: "coffee", DataType: rules.TypeString},
				},
				Actions: []rules.Action{
					{Type: rules.ActionSetField, Field: "category", Value: "Eating out"},
					{Type: rules.ActionSetField, Field: "payee", Value: "Coffee Shop"},
				},
			},
			{
				ID: "drop-internal", Active: true, Order: 2, Logic: rules.LogicAll,
				Conditions: []rules.Condition{
					{Field: "description", Operator: rules.OpContains, Value: "internal transfer", DataType: rules.TypeString},
				},
				Actions: []rules.Action{{Type: rules.ActionIgnoreRow}},
			},
		},
	}
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return New(DefaultConfig(), rules.NewEngine(zerolog.Nop()), zerolog.Nop())
}

func readTestRows(t *testing.T, csv string, cfg BankConfig) []RawRow {
	t.Helper()
	rows, err := ReadRows(strings.NewReader(csv), cfg)
	require.NoError(t, err)
	return rows
}

func TestPipelineRun(t *testing.T) {
	csv := `Date,Description,Amount
03/10/2024,Coffee Shop Downtown,-4.50
03/11/2024,Internal Transfer Savings,-100.00
03/12/2024,Unknown Merchant,-20.00
bad-date,Coffee To Go,-3.00
`
	bank := testBankConfig()
	pipeline := newTestPipeline(t)

	result := pipeline.Run(bank, readTestRows(t, csv, bank), nil, nil)

	require.NotEmpty(t, result.RunID)
	require.Len(t, result.Suppressed, 1)
	assert.Equal(t, 1, result.Suppressed[0].RowIndex)
	assert.Equal(t, "drop-internal", result.Suppressed[0].RuleID)

	require.Len(t, result.Candidates, 3)

	// Classified, dated and mapped to an account: ready.
	first := result.Candidates[0]
	assert.Equal(t, 0, first.RowIndex)
	assert.Equal(t, StatusReady, first.Status)
	assert.Equal(t, "Eating out", first.Record.GetString("category"))
	assert.Equal(t, "Coffee Shop", first.Record.GetString("payee"))
	amount, _ := first.Record.GetFloat("amount")
	assert.InDelta(t, -4.5, amount, 1e-9)

	// No rule matched: no classification, so an error status.
	second := result.Candidates[1]
	assert.Equal(t, 2, second.RowIndex)
	assert.Equal(t, StatusError, second.Status)
	assert.Contains(t, second.Errors, "missing classification")

	// Unparsable date surfaces as a row error, not a pipeline failure.
	third := result.Candidates[2]
	assert.Equal(t, 3, third.RowIndex)
	assert.Equal(t, StatusError, third.Status)
	assert.Contains(t, third.Errors, "missing or invalid date")
}

func TestPipelineRunReportsProgressPerBatch(t *testing.T) {
	var csv strings.Builder
	csv.WriteString("Date,Description,Amount\n")
	for i := 0; i < 5; i++ {
		csv.WriteString("03/10/2024,Coffee Shop,-4.50\n")
	}

	bank := testBankConfig()
	pipeline := New(Config{BatchSize: 2, Detector: DefaultDetectorConfig()}, rules.NewEngine(zerolog.Nop()), zerolog.Nop())

	var calls [][2]int
	var runID string
	result := pipeline.Run(bank, readTestRows(t, csv.String(), bank), nil, func(id string, processed, total int) {
		runID = id
		calls = append(calls, [2]int{processed, total})
	})

	assert.Equal(t, result.RunID, runID)
	assert.Equal(t, [][2]int{{2, 5}, {4, 5}, {5, 5}}, calls)
}

func TestPipelineFlagsDuplicates(t *testing.T) {
	csv := `Date,Description,Amount
03/10/2024,Coffee Shop Purchase,-4.50
03/11/2024,Coffee Shop Purchase,-4.50
`
	existing := []store.Record{
		{"date": "2024-03-10", "amount": -4.5, "description": "Coffee Shop"},
	}

	bank := testBankConfig()
	result := newTestPipeline(t).Run(bank, readTestRows(t, csv, bank), existing, nil)

	require.Len(t, result.Candidates, 2)
	assert.True(t, result.Candidates[0].Duplicate)
	assert.False(t, result.Candidates[1].Duplicate)

	// Duplicates are flagged, never dropped or degraded.
	assert.Equal(t, StatusReady, result.Candidates[0].Status)
}

func TestPipelineSeparateAmountMode(t *testing.T) {
	csv := `Date,Description,Debit,Credit
03/10/2024,Coffee Shop,4.50,
03/11/2024,Coffee Shop Refund,,4.50
`
	bank := testBankConfig()
	bank.AmountMode = AmountSeparate
	bank.Mapping = map[string]string{
		FieldDate:        "Date",
		FieldDescription: "Description",
		FieldDebit:       "Debit",
		FieldCredit:      "Credit",
	}

	result := newTestPipeline(t).Run(bank, readTestRows(t, csv, bank), nil, nil)

	require.Len(t, result.Candidates, 2)
	debit, _ := result.Candidates[0].Record.GetFloat("amount")
	credit, _ := result.Candidates[1].Record.GetFloat("amount")
	assert.InDelta(t, -4.5, debit, 1e-9)
	assert.InDelta(t, 4.5, credit, 1e-9)
}

func TestPipelineCollectsRuleConfigErrors(t *testing.T) {
	csv := `Date,Description,Amount
03/10/2024,Coffee Shop,-4.50
`
	bank := testBankConfig()
	bank.Rules = append(bank.Rules, rules.Rule{
		ID: "broken", Active: true, Order: 3, Logic: rules.LogicAll,
		Conditions: []rules.Condition{
			{Field: "description", Operator: rules.OpContains, Value: "coffee", DataType: rules.TypeString},
		},
		Actions: []rules.Action{
			{Type: rules.ActionTransformField, SourceField: "amount", Transform: rules.TransformMultiply},
		},
	})

	result := newTestPipeline(t).Run(bank, readTestRows(t, csv, bank), nil, nil)

	require.Len(t, result.ConfigErrors, 1)
	assert.Contains(t, result.ConfigErrors[0], "broken")
	// The row itself still comes through.
	require.Len(t, result.Candidates, 1)
}

func TestPipelineWarningStatus(t *testing.T) {
	csv := `Date,Description,Amount
03/10/2024,Coffee Shop,-4.50
`
	bank := testBankConfig()
	bank.AccountID = "" // no account mapping configured

	result := newTestPipeline(t).Run(bank, readTestRows(t, csv, bank), nil, nil)

	require.Len(t, result.Candidates, 1)
	candidate := result.Candidates[0]
	assert.Equal(t, StatusWarning, candidate.Status)
	assert.Contains(t, candidate.Warnings, "no account mapped")
}
