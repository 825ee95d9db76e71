package forms

import (
	"fmt"
	"strings"

	"github.com/gatherkit/gatekit/pkg/types"
)

// FieldError marks one required-visible field that is missing an answer.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError is a local submission rejection. It never reaches the
// network: callers check for it before any remote call is made.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		names[i] = fe.Field
	}
	return fmt.Sprintf("validation failed: missing required fields: %s", strings.Join(names, ", "))
}

// ValidateSubmission checks the answer set against the post-evaluation
// field state. Hidden fields are skipped entirely, whatever their required
// override says. Returns a *ValidationError listing every missing
// required-visible field, or nil when the set is submittable.
func ValidateSubmission(form *types.Form, answers types.AnswerSet, eval Evaluation) error {
	var fieldErrs []FieldError
	for _, field := range form.Schema.Fields {
		if !Visible(field, eval) {
			continue
		}
		if !EffectiveRequired(field, eval) {
			continue
		}
		if answerMissing(field, answers) {
			fieldErrs = append(fieldErrs, FieldError{
				Field: field.ID,
				Error: "this field is required",
			})
		}
	}
	if len(fieldErrs) > 0 {
		return &ValidationError{Fields: fieldErrs}
	}
	return nil
}

// answerMissing reports whether the field has no usable answer: absent,
// nil, an empty string, or an unticked required checkbox.
func answerMissing(field types.FormField, answers types.AnswerSet) bool {
	value, ok := answers[field.ID]
	if !ok || value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return v == ""
	case bool:
		return field.Type == types.FieldCheckbox && !v
	default:
		return false
	}
}
