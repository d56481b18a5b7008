package importer

import (
	"math"

	"github.com/mstamatakis/drachma/internal/domain"
	"github.com/mstamatakis/drachma/internal/store"
)

// validate collects the row-level problems for one candidate record.
// Hard errors block commit; warnings are surfaced for review.
func validate(rec store.Record) (errors, warnings []string) {
	if _, ok := rec.GetTime("date"); !ok {
		errors = append(errors, "missing or invalid date")
	}
	if rec.IsBlank("description") {
		errors = append(errors, "description is empty")
	}

	amount, ok := rec.GetFloat("amount")
	if !ok || math.IsNaN(amount) {
		errors = append(errors, "amount is not a number")
	} else if amount == 0 {
		errors = append(errors, "amount is zero")
	}

	if rec.IsBlank("categoryId") && rec.IsBlank("category") {
		errors = append(errors, "missing classification")
	}

	if rec.IsBlank("accountId") {
		warnings = append(warnings, "no account mapped")
	}

	kind := transactionKind(rec, amount)
	switch kind {
	case domain.KindTransfer:
		if rec.IsBlank("toAccountId") {
			warnings = append(warnings, "transfer has no destination account")
		}
	case domain.KindIncome:
		if rec.IsBlank("payerId") && rec.IsBlank("payer") {
			warnings = append(warnings, "income has no payer")
		}
	case domain.KindExpense:
		if rec.IsBlank("payeeId") && rec.IsBlank("payee") {
			warnings = append(warnings, "expense has no payee")
		}
	}
	return errors, warnings
}

// transactionKind reads an explicit kind set by a rule, falling back to the
// amount sign. Rows marked as transfers keep that kind regardless of sign.
func transactionKind(rec store.Record, amount float64) domain.TransactionKind {
	if kind := rec.GetString("kind"); kind != "" {
		return domain.TransactionKind(kind)
	}
	if !rec.IsBlank("toAccountId") {
		return domain.KindTransfer
	}
	return domain.KindFromAmount(amount)
}
