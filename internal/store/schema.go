package store

// Table names used by the store. Tables are created once at initialization.
const (
	TableAccounts          = "accounts"
	TableTransactions      = "transactions"
	TableCurrencies        = "currencies"
	TableExchangeRates     = "exchange_rates"
	TableCategories        = "categories"
	TableSubcategories     = "subcategories"
	TableTransactionGroups = "transaction_groups"
	TablePayees            = "payees"
	TablePayers            = "payers"
	TableBanks             = "banks"
	TableImportRules       = "import_rules"
)

// ForeignKey declares a constraint from (SourceTable, SourceField) to
// (TargetTable, TargetField). Optional keys may be absent or empty; when set
// they must still resolve. Required keys must be present and resolve.
type ForeignKey struct {
	SourceTable string
	SourceField string
	TargetTable string
	TargetField string
	Optional    bool
}

// TableDef declares one table: its id prefix, required fields, single-field
// unique constraints and outgoing foreign keys.
type TableDef struct {
	Name        string
	IDPrefix    string
	Required    []string
	Unique      []string
	ForeignKeys []ForeignKey
}

// DefaultSchema returns the table and relationship registry for the tracker.
// Order matters for deterministic export and dependency scans.
func DefaultSchema() []TableDef {
	return []TableDef{
		{
			Name:     TableCurrencies,
			IDPrefix: "cur-",
			Required: []string{"code", "name"},
			Unique:   []string{"code"},
		},
		{
			Name:     TableExchangeRates,
			IDPrefix: "rate-",
			Required: []string{"fromCurrencyId", "toCurrencyId", "rate"},
			ForeignKeys: []ForeignKey{
				{SourceTable: TableExchangeRates, SourceField: "fromCurrencyId", TargetTable: TableCurrencies, TargetField: FieldID},
				{SourceTable: TableExchangeRates, SourceField: "toCurrencyId", TargetTable: TableCurrencies, TargetField: FieldID},
			},
		},
		{
			Name:     TableCategories,
			IDPrefix: "cat-",
			Required: []string{"name", "kind"},
			Unique:   []string{"name"},
		},
		{
			Name:     TableSubcategories,
			IDPrefix: "sub-",
			Required: []string{"name", "categoryId"},
			ForeignKeys: []ForeignKey{
				{SourceTable: TableSubcategories, SourceField: "categoryId", TargetTable: TableCategories, TargetField: FieldID},
			},
		},
		{
			Name:     TableTransactionGroups,
			IDPrefix: "grp-",
			Required: []string{"name"},
			Unique:   []string{"name"},
		},
		{
			Name:     TablePayees,
			IDPrefix: "pay-",
			Required: []string{"name"},
		},
		{
			Name:     TablePayers,
			IDPrefix: "pyr-",
			Required: []string{"name"},
		},
		{
			Name:     TableAccounts,
			IDPrefix: "acc-",
			Required: []string{"name", "type", "currencyId"},
			ForeignKeys: []ForeignKey{
				{SourceTable: TableAccounts, SourceField: "currencyId", TargetTable: TableCurrencies, TargetField: FieldID},
			},
		},
		{
			Name:     TableBanks,
			IDPrefix: "bank-",
			Required: []string{"name"},
			Unique:   []string{"name"},
			ForeignKeys: []ForeignKey{
				{SourceTable: TableBanks, SourceField: "accountId", TargetTable: TableAccounts, TargetField: FieldID, Optional: true},
			},
		},
		{
			Name:     TableImportRules,
			IDPrefix: "rule-",
			Required: []string{"name", "bankId"},
			ForeignKeys: []ForeignKey{
				{SourceTable: TableImportRules, SourceField: "bankId", TargetTable: TableBanks, TargetField: FieldID},
			},
		},
		{
			Name:     TableTransactions,
			IDPrefix: "txn-",
			Required: []string{"date", "description", "amount", "accountId"},
			ForeignKeys: []ForeignKey{
				{SourceTable: TableTransactions, SourceField: "accountId", TargetTable: TableAccounts, TargetField: FieldID},
				{SourceTable: TableTransactions, SourceField: "toAccountId", TargetTable: TableAccounts, TargetField: FieldID, Optional: true},
				{SourceTable: TableTransactions, SourceField: "categoryId", TargetTable: TableCategories, TargetField: FieldID, Optional: true},
				{SourceTable: TableTransactions, SourceField: "subcategoryId", TargetTable: TableSubcategories, TargetField: FieldID, Optional: true},
				{SourceTable: TableTransactions, SourceField: "groupId", TargetTable: TableTransactionGroups, TargetField: FieldID, Optional: true},
				{SourceTable: TableTransactions, SourceField: "currencyId", TargetTable: TableCurrencies, TargetField: FieldID, Optional: true},
				{SourceTable: TableTransactions, SourceField: "payeeId", TargetTable: TablePayees, TargetField: FieldID, Optional: true},
				{SourceTable: TableTransactions, SourceField: "payerId", TargetTable: TablePayers, TargetField: FieldID, Optional: true},
			},
		},
	}
}
