package types

import "time"

// FieldType enumerates the supported form input kinds.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
)

// RuleAction enumerates what a satisfied rule does to its target field.
type RuleAction string

const (
	ActionShow     RuleAction = "show"
	ActionHide     RuleAction = "hide"
	ActionRequire  RuleAction = "require"
	ActionOptional RuleAction = "optional"
)

// FieldOption is a single choice for select and radio fields.
type FieldOption struct {
	Value string `json:"value" validate:"required"`
	Label string `json:"label" validate:"required"`
}

// FormField is a single declared input in a registration form.
// Fields are immutable for the lifetime of a rendering session.
type FormField struct {
	ID          string        `json:"id" validate:"required"`
	Label       string        `json:"label" validate:"required"`
	Type        FieldType     `json:"type" validate:"required,oneof=text textarea select checkbox radio"`
	Placeholder string        `json:"placeholder,omitempty"`
	Required    bool          `json:"required,omitempty"`
	Options     []FieldOption `json:"options,omitempty" validate:"dive"`
}

// FieldCondition compares one field's current answer against a scalar.
// Equals may hold a string, number or boolean as decoded from JSON.
type FieldCondition struct {
	Field  string `json:"field" validate:"required"`
	Equals any    `json:"equals"`
}

// FieldRule conditionally alters a target field's visibility or required-ness.
// An empty When list means the rule is always satisfied.
type FieldRule struct {
	Target string           `json:"target" validate:"required"`
	Action RuleAction       `json:"action" validate:"required,oneof=show hide require optional"`
	When   []FieldCondition `json:"when" validate:"dive"`
}

// FormSchema is the ordered field list of one form version.
type FormSchema struct {
	Fields []FormField `json:"fields" validate:"dive"`
}

// Form is the active registration form of an event: schema plus rules,
// versioned so drafts can be associated with the exact revision they were
// entered against.
type Form struct {
	ID      string      `json:"id"`
	EventID string      `json:"event_id"`
	Version int         `json:"version"`
	Schema  FormSchema  `json:"schema"`
	Rules   []FieldRule `json:"rules"`
}

// AnswerSet maps field id to the value currently held by that field's input.
type AnswerSet map[string]any

// CheckinMethod distinguishes scanned and manually entered check-ins.
type CheckinMethod string

const (
	CheckinQR     CheckinMethod = "qr"
	CheckinManual CheckinMethod = "manual"
)

// CheckinRecord is the server's confirmation of a completed check-in.
type CheckinRecord struct {
	ID      string        `json:"id"`
	EventID string        `json:"event_id"`
	UserID  string        `json:"user_id"`
	Method  CheckinMethod `json:"method"`
	At      time.Time     `json:"at"`
}

// Identity is the authenticated user's profile, used to prefill
// well-known registration fields.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// Session is a locally persisted credential record for one platform account.
type Session struct {
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	Identity  Identity  `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
