// Package forms implements the registration form core: conditional rule
// evaluation, load-time schema validation, submission validation, and the
// draft autosave lifecycle.
package forms

import (
	"github.com/gatherkit/gatekit/pkg/types"
)

// Evaluation is the authoritative display/validation state for one instant:
// which fields are hidden and which have their required-ness overridden.
// Fields absent from both maps keep their static schema defaults.
type Evaluation struct {
	Hidden           map[string]bool
	RequiredOverride map[string]bool
}

// Evaluate runs the full rule list against the current answer set and
// returns the resulting field state. It is a pure function: same inputs,
// same outputs, no side effects. Callers re-run it from scratch after every
// answer change rather than patching a previous result.
//
// Rules apply in list order. A rule is satisfied iff every condition's
// answer is strictly equal to the condition's value; a satisfied rule
// overwrites any earlier rule's effect on the same target and axis, and an
// unsatisfied rule has no effect at all.
func Evaluate(rules []types.FieldRule, answers types.AnswerSet) Evaluation {
	eval := Evaluation{
		Hidden:           make(map[string]bool),
		RequiredOverride: make(map[string]bool),
	}

	for _, rule := range rules {
		if !satisfied(rule, answers) {
			continue
		}
		switch rule.Action {
		case types.ActionHide:
			eval.Hidden[rule.Target] = true
		case types.ActionShow:
			eval.Hidden[rule.Target] = false
		case types.ActionRequire:
			eval.RequiredOverride[rule.Target] = true
		case types.ActionOptional:
			eval.RequiredOverride[rule.Target] = false
		}
	}

	return eval
}

// satisfied reports whether every condition of the rule holds. An empty
// condition list always holds.
func satisfied(rule types.FieldRule, answers types.AnswerSet) bool {
	for _, cond := range rule.When {
		answer, ok := answers[cond.Field]
		if !ok {
			return false
		}
		if !scalarEqual(answer, cond.Equals) {
			return false
		}
	}
	return true
}

// scalarEqual compares an answer against a condition value with strict
// equality: same kind, same value. Numeric values compare as float64
// regardless of how they were produced, since JSON decoding yields float64
// and answers set programmatically may carry int.
func scalarEqual(a, b any) bool {
	if na, ok := normalizeNumber(a); ok {
		nb, ok := normalizeNumber(b)
		return ok && na == nb
	}
	if _, ok := normalizeNumber(b); ok {
		return false
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return false
	}
}

func normalizeNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Visible reports whether a field is rendered and participates in
// submission validation.
func Visible(field types.FormField, eval Evaluation) bool {
	return !eval.Hidden[field.ID]
}

// EffectiveRequired returns the field's post-evaluation required-ness:
// the rule override when one fired, the schema default otherwise.
func EffectiveRequired(field types.FormField, eval Evaluation) bool {
	if override, ok := eval.RequiredOverride[field.ID]; ok {
		return override
	}
	return field.Required
}
