package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherkit/gatekit/pkg/types"
)

func TestValidateSubmissionMissingRequired(t *testing.T) {
	form := validForm()
	eval := Evaluate(form.Rules, types.AnswerSet{})

	err := ValidateSubmission(form, types.AnswerSet{}, eval)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "email", verr.Fields[0].Field)
}

func TestValidateSubmissionPasses(t *testing.T) {
	form := validForm()
	answers := types.AnswerSet{"email": "me@example.com"}
	eval := Evaluate(form.Rules, answers)

	assert.NoError(t, ValidateSubmission(form, answers, eval))
}

func TestValidateSubmissionEmptyValuesAreMissing(t *testing.T) {
	form := &types.Form{
		ID: "form-1",
		Schema: types.FormSchema{Fields: []types.FormField{
			{ID: "email", Label: "Email", Type: types.FieldText, Required: true},
		}},
	}
	eval := Evaluate(nil, nil)

	for name, value := range map[string]any{
		"empty string": "",
		"nil":          nil,
	} {
		t.Run(name, func(t *testing.T) {
			err := ValidateSubmission(form, types.AnswerSet{"email": value}, eval)
			assert.Error(t, err)
		})
	}
}

func TestValidateSubmissionRequiredCheckbox(t *testing.T) {
	form := &types.Form{
		ID: "form-1",
		Schema: types.FormSchema{Fields: []types.FormField{
			{ID: "terms", Label: "Terms", Type: types.FieldCheckbox, Required: true},
		}},
	}
	eval := Evaluate(nil, nil)

	assert.Error(t, ValidateSubmission(form, types.AnswerSet{"terms": false}, eval))
	assert.NoError(t, ValidateSubmission(form, types.AnswerSet{"terms": true}, eval))
}

func TestValidateSubmissionHiddenNeverRequired(t *testing.T) {
	// a require rule fires for the field AND a hide rule fires for it:
	// hidden wins for validation purposes
	form := &types.Form{
		ID: "form-1",
		Schema: types.FormSchema{Fields: []types.FormField{
			{ID: "role", Label: "Role", Type: types.FieldRadio, Options: []types.FieldOption{
				{Value: "business", Label: "Business"}, {Value: "individual", Label: "Individual"},
			}},
			{ID: "vat_id", Label: "VAT", Type: types.FieldText, Required: true},
		}},
		Rules: []types.FieldRule{
			{Target: "vat_id", Action: types.ActionRequire, When: []types.FieldCondition{{Field: "role", Equals: "individual"}}},
			{Target: "vat_id", Action: types.ActionHide, When: []types.FieldCondition{{Field: "role", Equals: "individual"}}},
		},
	}
	answers := types.AnswerSet{"role": "individual"}
	eval := Evaluate(form.Rules, answers)

	require.True(t, eval.Hidden["vat_id"])
	require.True(t, eval.RequiredOverride["vat_id"])
	assert.NoError(t, ValidateSubmission(form, answers, eval))
}

func TestValidateSubmissionUsesPostRuleState(t *testing.T) {
	// statically optional field made required by a rule
	form := &types.Form{
		ID: "form-1",
		Schema: types.FormSchema{Fields: []types.FormField{
			{ID: "role", Label: "Role", Type: types.FieldText},
			{ID: "company", Label: "Company", Type: types.FieldText},
		}},
		Rules: []types.FieldRule{
			{Target: "company", Action: types.ActionRequire, When: []types.FieldCondition{{Field: "role", Equals: "business"}}},
		},
	}
	answers := types.AnswerSet{"role": "business"}
	eval := Evaluate(form.Rules, answers)

	err := ValidateSubmission(form, answers, eval)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "company", verr.Fields[0].Field)
}
