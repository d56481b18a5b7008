package store

import (
	"strconv"
	"strings"
	"time"
)

// Record is the open field bag stored in a table. Every committed record
// carries "id" and "createdAt"; most carry "isActive".
type Record map[string]any

// Well-known field names shared across tables.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldIsActive  = "isActive"
)

// Clone returns a shallow copy of the record. Values are not deep-copied;
// callers must treat nested values as immutable.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ID returns the record id, or "" when unset.
func (r Record) ID() string {
	return r.GetString(FieldID)
}

// Has reports whether the field is present and non-nil.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// IsBlank reports whether the field is absent, nil, or a blank string.
func (r Record) IsBlank(field string) bool {
	v, ok := r[field]
	if !ok || v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// GetString returns the field as a string. Non-string scalars are formatted;
// absent fields return "".
func (r Record) GetString(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	case time.Time:
		return s.Format("2006-01-02")
	}
	return ""
}

// GetFloat returns the field coerced to float64. Numeric strings are parsed.
// The second return reports whether a numeric value was obtained.
func (r Record) GetFloat(field string) (float64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// GetBool returns the field coerced to bool. Absent fields return false.
func (r Record) GetBool(field string) bool {
	v, ok := r[field]
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && parsed
	case float64:
		return b != 0
	case int:
		return b != 0
	}
	return false
}

// GetTime returns the field as a time.Time. String values are parsed as
// YYYY-MM-DD or RFC3339. The second return reports success.
func (r Record) GetTime(field string) (time.Time, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse("2006-01-02", t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
