// Package rules implements the rule-based classification engine applied to
// import candidates. A rule is an ordered condition set combined with ALL or
// ANY logic plus an ordered action sequence; rules are evaluated in ascending
// execution order and compose sequentially on a working copy of the record.
package rules

// LogicMode combines individual condition results.
type LogicMode string

const (
	// LogicAll requires every condition to hold.
	LogicAll LogicMode = "ALL"
	// LogicAny requires at least one condition to hold.
	LogicAny LogicMode = "ANY"
)

// Operator is a condition predicate.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpContains    Operator = "contains"
	OpStartsWith  Operator = "startsWith"
	OpEndsWith    Operator = "endsWith"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
	OpMatches     Operator = "matches"
	OpIsEmpty     Operator = "isEmpty"
	OpIsNotEmpty  Operator = "isNotEmpty"
)

// DataType declares how a condition's field and comparison value are coerced.
type DataType string

const (
	TypeString DataType = "string"
	TypeNumber DataType = "number"
	TypeDate   DataType = "date"
)

// ActionType identifies what a fired rule does to the candidate.
type ActionType string

const (
	// ActionSetField overwrites a field with a configured value.
	ActionSetField ActionType = "SET_FIELD"
	// ActionTransformField applies a named pure transform to a field.
	ActionTransformField ActionType = "TRANSFORM_FIELD"
	// ActionIgnoreRow suppresses the candidate and halts rule processing.
	ActionIgnoreRow ActionType = "IGNORE_ROW"
)

// Condition tests one candidate field.
type Condition struct {
	Field         string   `json:"field"`
	Operator      Operator `json:"operator"`
	Value         string   `json:"value"`
	DataType      DataType `json:"dataType"`
	CaseSensitive bool     `json:"caseSensitive"`
}

// Action is one step of a fired rule.
type Action struct {
	Type ActionType `json:"type"`

	// SET_FIELD
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`

	// TRANSFORM_FIELD
	SourceField string       `json:"sourceField,omitempty"`
	Transform   TransformKey `json:"transform,omitempty"`
	Param       *float64     `json:"param,omitempty"`
	TargetField string       `json:"targetField,omitempty"` // defaults to SourceField
}

// Rule is a user-authored classification rule.
type Rule struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Active     bool        `json:"active"`
	Order      int         `json:"order"` // ascending = evaluated earlier
	Logic      LogicMode   `json:"logic"`
	Conditions []Condition `json:"conditions"`
	Actions    []Action    `json:"actions"`
}
