package rules

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mstamatakis/drachma/internal/store"
)

// Outcome is the tagged result of evaluating a rule set against one record:
// either an applied (possibly transformed) record, or a suppression signal.
// ConfigErrors collects misconfigured rule elements encountered on the way;
// they are reported, not fatal.
type Outcome struct {
	Record       store.Record
	Suppressed   bool
	SuppressedBy string   // id of the rule that fired IGNORE_ROW
	FiredRules   []string // ids of rules that fired, in evaluation order
	ConfigErrors []error
}

// Engine evaluates rule sets. It holds no mutable state between calls, so a
// single instance can serve every import run.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a rule engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "rule_engine").Logger()}
}

// Evaluate runs the active subset of the given rules, in ascending execution
// order, against a working copy of the record. The input record is never
// mutated. Given identical input and rule set, the outcome is identical on
// every call.
func (e *Engine) Evaluate(ruleSet []Rule, record store.Record) Outcome {
	ordered := make([]Rule, 0, len(ruleSet))
	for _, rule := range ruleSet {
		if rule.Active {
			ordered = append(ordered, rule)
		}
	}
	// Stable order: execution order, then id, so equal-order rules stay
	// deterministic.
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Order != ordered[j].Order {
			return ordered[i].Order < ordered[j].Order
		}
		return ordered[i].ID < ordered[j].ID
	})

	outcome := Outcome{Record: record.Clone()}

	for _, rule := range ordered {
		fired, errs := e.ruleMatches(rule, outcome.Record)
		outcome.ConfigErrors = append(outcome.ConfigErrors, errs...)
		if !fired {
			continue
		}
		outcome.FiredRules = append(outcome.FiredRules, rule.ID)

		suppressed := e.applyActions(rule, &outcome)
		if suppressed {
			outcome.Suppressed = true
			outcome.SuppressedBy = rule.ID
			e.log.Debug().Str("rule", rule.ID).Msg("Candidate suppressed")
			return outcome
		}
	}
	return outcome
}

// ruleMatches combines the rule's condition results per its logic mode.
// A rule with no conditions never fires.
func (e *Engine) ruleMatches(rule Rule, record store.Record) (bool, []error) {
	if len(rule.Conditions) == 0 {
		return false, nil
	}

	var errs []error
	matched := rule.Logic == LogicAll
	for _, cond := range rule.Conditions {
		ok, err := evalCondition(cond, record)
		if err != nil {
			errs = append(errs, &ConfigError{RuleID: rule.ID, Detail: err.Error()})
		}
		switch rule.Logic {
		case LogicAny:
			if ok {
				return true, errs
			}
			matched = false
		default: // ALL
			if !ok {
				matched = false
			}
		}
	}
	return matched, errs
}

// applyActions runs the rule's actions in order. Returns true when an
// IGNORE_ROW action fired.
func (e *Engine) applyActions(rule Rule, outcome *Outcome) bool {
	for _, action := range rule.Actions {
		switch action.Type {
		case ActionIgnoreRow:
			return true
		case ActionSetField:
			if action.Field == "" {
				outcome.ConfigErrors = append(outcome.ConfigErrors,
					&ConfigError{RuleID: rule.ID, Detail: "SET_FIELD action has no field"})
				continue
			}
			outcome.Record[action.Field] = action.Value
		case ActionTransformField:
			source := action.SourceField
			if source == "" {
				source = action.Field
			}
			if source == "" {
				outcome.ConfigErrors = append(outcome.ConfigErrors,
					&ConfigError{RuleID: rule.ID, Detail: "TRANSFORM_FIELD action has no source field"})
				continue
			}
			target := action.TargetField
			if target == "" {
				target = source
			}
			result, err := ApplyTransform(action.Transform, outcome.Record[source], action.Param)
			if err != nil {
				outcome.ConfigErrors = append(outcome.ConfigErrors,
					&ConfigError{RuleID: rule.ID, Detail: err.Error()})
				continue
			}
			outcome.Record[target] = result
		default:
			outcome.ConfigErrors = append(outcome.ConfigErrors,
				&ConfigError{RuleID: rule.ID, Detail: "unknown action type " + string(action.Type)})
		}
	}
	return false
}

// evalCondition evaluates one condition against the record. A condition on a
// field absent from the record is false, except the emptiness operators.
// The returned error marks a configuration problem (bad regex, non-numeric
// comparison value), in which case the condition is false.
func evalCondition(cond Condition, record store.Record) (bool, error) {
	raw, present := record[cond.Field]
	blank := record.IsBlank(cond.Field)

	switch cond.Operator {
	case OpIsEmpty:
		return blank, nil
	case OpIsNotEmpty:
		return !blank, nil
	}
	if !present || raw == nil {
		return false, nil
	}

	switch cond.DataType {
	case TypeNumber:
		return evalNumber(cond, raw)
	case TypeDate:
		return evalDate(cond, record)
	default:
		return evalString(cond, raw)
	}
}

func evalNumber(cond Condition, raw any) (bool, error) {
	value, err := toNumber(raw)
	if err != nil {
		return false, nil // field holds no number: condition simply fails
	}
	want, err := toNumber(cond.Value)
	if err != nil {
		return false, err
	}
	switch cond.Operator {
	case OpEquals:
		return value == want, nil
	case OpGreaterThan:
		return value > want, nil
	case OpLessThan:
		return value < want, nil
	}
	// Fall back to string semantics for the remaining operators.
	return evalString(cond, raw)
}

func evalDate(cond Condition, record store.Record) (bool, error) {
	value, ok := record.GetTime(cond.Field)
	if !ok {
		return false, nil
	}
	want, err := time.Parse("2006-01-02", cond.Value)
	if err != nil {
		return false, err
	}
	switch cond.Operator {
	case OpEquals:
		return value.Equal(want), nil
	case OpGreaterThan:
		return value.After(want), nil
	case OpLessThan:
		return value.Before(want), nil
	}
	return false, nil
}

func evalString(cond Condition, raw any) (bool, error) {
	value := toString(raw)
	want := cond.Value
	if !cond.CaseSensitive {
		value = strings.ToLower(value)
		want = strings.ToLower(want)
	}
	switch cond.Operator {
	case OpEquals:
		return value == want, nil
	case OpContains:
		return strings.Contains(value, want), nil
	case OpStartsWith:
		return strings.HasPrefix(value, want), nil
	case OpEndsWith:
		return strings.HasSuffix(value, want), nil
	case OpMatches:
		pattern := cond.Value
		if !cond.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, err
		}
		return re.MatchString(toString(raw)), nil
	}
	return false, nil
}
