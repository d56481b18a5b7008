// Package domain provides core domain models and types.
package domain

// TransactionKind represents the classification of a transaction
type TransactionKind string

const (
	// KindExpense represents money leaving an account
	KindExpense TransactionKind = "EXPENSE"
	// KindIncome represents money entering an account
	KindIncome TransactionKind = "INCOME"
	// KindTransfer represents money moving between two owned accounts
	KindTransfer TransactionKind = "TRANSFER"
)

// AccountType represents the type of a tracked account
type AccountType string

const (
	AccountTypeChecking   AccountType = "CHECKING"
	AccountTypeSavings    AccountType = "SAVINGS"
	AccountTypeCreditCard AccountType = "CREDIT_CARD"
	AccountTypeCash       AccountType = "CASH"
	AccountTypeInvestment AccountType = "INVESTMENT"
)

// ValidAccountType reports whether value names a known account type.
func ValidAccountType(value string) bool {
	switch AccountType(value) {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCreditCard, AccountTypeCash, AccountTypeInvestment:
		return true
	}
	return false
}

// KindFromAmount derives the transaction kind for a single-account row.
// Transfers cannot be derived from the amount alone and are classified by the
// presence of a destination account instead.
func KindFromAmount(amount float64) TransactionKind {
	if amount >= 0 {
		return KindIncome
	}
	return KindExpense
}
