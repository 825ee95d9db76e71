package forms

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/gatherkit/gatekit/pkg/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseForm decodes and validates a form definition. Malformed schemas and
// rules are rejected here, at load time, so the evaluator never has to
// defend against them.
func ParseForm(data []byte) (*types.Form, error) {
	var form types.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return nil, fmt.Errorf("failed to decode form: %w", err)
	}
	if err := ValidateForm(&form); err != nil {
		return nil, err
	}
	return &form, nil
}

// ValidateForm checks structural constraints (via struct tags) and
// referential ones: every rule target and condition field must name a
// declared field, field ids must be unique, and choice fields must carry
// options.
func ValidateForm(form *types.Form) error {
	if err := validate.Struct(form); err != nil {
		return fmt.Errorf("invalid form definition: %w", err)
	}

	ids := make(map[string]bool, len(form.Schema.Fields))
	for _, field := range form.Schema.Fields {
		if ids[field.ID] {
			return fmt.Errorf("invalid form definition: duplicate field id %q", field.ID)
		}
		ids[field.ID] = true

		switch field.Type {
		case types.FieldSelect, types.FieldRadio:
			if len(field.Options) == 0 {
				return fmt.Errorf("invalid form definition: field %q of type %s has no options", field.ID, field.Type)
			}
		}
	}

	for i, rule := range form.Rules {
		if !ids[rule.Target] {
			return fmt.Errorf("invalid form definition: rule %d targets unknown field %q", i, rule.Target)
		}
		for _, cond := range rule.When {
			if !ids[cond.Field] {
				return fmt.Errorf("invalid form definition: rule %d references unknown field %q", i, cond.Field)
			}
		}
	}

	return nil
}

// Prefillable field ids recognized from the authenticated identity.
const (
	fieldEmail    = "email"
	fieldName     = "name"
	fieldFullName = "full_name"
	fieldPhone    = "phone"
)

// InitialAnswers computes the answer set a new rendering session starts
// from: a previously saved draft wins wholesale; otherwise well-known
// fields are prefilled from the identity; otherwise the set is empty.
func InitialAnswers(form *types.Form, draft types.AnswerSet, identity *types.Identity) types.AnswerSet {
	answers := make(types.AnswerSet)

	if len(draft) > 0 {
		for k, v := range draft {
			answers[k] = v
		}
		return answers
	}

	if identity == nil {
		return answers
	}
	for _, field := range form.Schema.Fields {
		switch field.ID {
		case fieldEmail:
			if identity.Email != "" {
				answers[field.ID] = identity.Email
			}
		case fieldName, fieldFullName:
			if identity.DisplayName != "" {
				answers[field.ID] = identity.DisplayName
			}
		case fieldPhone:
			if identity.Phone != "" {
				answers[field.ID] = identity.Phone
			}
		}
	}
	return answers
}
