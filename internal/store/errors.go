package store

import "fmt"

// ValidationError reports a missing or invalid required field.
type ValidationError struct {
	Table  string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s.%s: %s", e.Table, e.Field, e.Reason)
}

// InvalidReferenceError reports a foreign key that is set but does not
// resolve to an existing record in the target table.
type InvalidReferenceError struct {
	Table       string
	Field       string
	Value       string
	TargetTable string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s.%s references %q which does not exist in %s",
		e.Table, e.Field, e.Value, e.TargetTable)
}

// ReferentialIntegrityError reports a delete blocked by dependent records.
type ReferentialIntegrityError struct {
	Table          string
	ID             string
	DependentTable string
	DependentField string
	Dependents     int
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("cannot delete %s %q: %d record(s) in %s.%s still reference it",
		e.Table, e.ID, e.Dependents, e.DependentTable, e.DependentField)
}

// DuplicateKeyError reports a unique-constraint clash.
type DuplicateKeyError struct {
	Table string
	Field string
	Value string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s already contains a record with %s=%q", e.Table, e.Field, e.Value)
}

// NotFoundError reports an operation against a record id that does not exist.
type NotFoundError struct {
	Table string
	ID    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s has no record with id %q", e.Table, e.ID)
}
