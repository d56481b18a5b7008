package rules

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TransformKey names a pure field transform.
type TransformKey string

const (
	TransformAbsolute  TransformKey = "absolute"
	TransformNegate    TransformKey = "negate"
	TransformMultiply  TransformKey = "multiply"
	TransformUppercase TransformKey = "uppercase"
	TransformLowercase TransformKey = "lowercase"
	TransformTrim      TransformKey = "trim"
)

// ConfigError reports a misconfigured rule element found at evaluation time,
// e.g. a parameterized transform without its parameter. Configuration errors
// are reported to the caller, never silently skipped.
type ConfigError struct {
	RuleID string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rule %s: %s", e.RuleID, e.Detail)
}

// ApplyTransform applies a named transform to a value. Numeric transforms
// coerce the value to float64; string transforms coerce to string.
func ApplyTransform(key TransformKey, value any, param *float64) (any, error) {
	switch key {
	case TransformAbsolute:
		n, err := toNumber(value)
		if err != nil {
			return nil, err
		}
		return math.Abs(n), nil
	case TransformNegate:
		n, err := toNumber(value)
		if err != nil {
			return nil, err
		}
		return -n, nil
	case TransformMultiply:
		if param == nil {
			return nil, fmt.Errorf("transform %q requires a numeric parameter", key)
		}
		n, err := toNumber(value)
		if err != nil {
			return nil, err
		}
		return n * *param, nil
	case TransformUppercase:
		return strings.ToUpper(toString(value)), nil
	case TransformLowercase:
		return strings.ToLower(toString(value)), nil
	case TransformTrim:
		return strings.TrimSpace(toString(value)), nil
	}
	return nil, fmt.Errorf("unknown transform %q", key)
}

func toNumber(value any) (float64, error) {
	switch n := value.(type) {
	case nil:
		return 0, fmt.Errorf("value is absent")
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("value of type %T is not numeric", value)
}

func toString(value any) string {
	switch s := value.(type) {
	case nil:
		return ""
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
	}
	return fmt.Sprintf("%v", value)
}
