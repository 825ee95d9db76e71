package forms

import (
	"context"
	"sync"
	"time"

	"github.com/gatherkit/gatekit/pkg/types"
)

// Submitter sends the final answer set to the platform.
type Submitter interface {
	SubmitForm(ctx context.Context, formID string, answers types.AnswerSet) error
}

// Session is one rendering session of a form: the live answer set, the rule
// evaluation derived from it, and optionally a draft autosaver. The
// evaluation is recomputed synchronously on every answer change, so readers
// never observe a stale window.
type Session struct {
	form *types.Form

	mu        sync.Mutex
	answers   types.AnswerSet
	eval      Evaluation
	autosaver *AutoSaver
	submitted bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithInitialAnswers seeds the session's answer set, typically from
// InitialAnswers.
func WithInitialAnswers(answers types.AnswerSet) SessionOption {
	return func(s *Session) {
		for k, v := range answers {
			s.answers[k] = v
		}
	}
}

// WithAutoSave attaches a draft autosaver with the given debounce interval.
func WithAutoSave(saver DraftSaver, interval time.Duration) SessionOption {
	return func(s *Session) {
		s.autosaver = NewAutoSaver(saver, s.form.ID, interval)
	}
}

// NewSession starts a rendering session for a validated form.
func NewSession(form *types.Form, opts ...SessionOption) *Session {
	s := &Session{
		form:    form,
		answers: make(types.AnswerSet),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.eval = Evaluate(form.Rules, s.answers)
	if s.autosaver != nil && len(s.answers) > 0 {
		s.autosaver.Update(s.answers)
	}
	return s
}

// Form returns the immutable form definition this session renders.
func (s *Session) Form() *types.Form {
	return s.form
}

// SetAnswer records a value for a field and re-evaluates the full rule
// list against the updated answer set.
func (s *Session) SetAnswer(fieldID string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.answers[fieldID] = value
	s.eval = Evaluate(s.form.Rules, s.answers)
	if s.autosaver != nil {
		s.autosaver.Update(s.answers)
	}
}

// Answers returns a copy of the current answer set.
func (s *Session) Answers() types.AnswerSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(types.AnswerSet, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Evaluation returns the current post-rule field state.
func (s *Session) Evaluation() Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eval
}

// VisibleFields returns the fields to render, in schema order.
func (s *Session) VisibleFields() []types.FormField {
	s.mu.Lock()
	defer s.mu.Unlock()

	var visible []types.FormField
	for _, field := range s.form.Schema.Fields {
		if Visible(field, s.eval) {
			visible = append(visible, field)
		}
	}
	return visible
}

// Required returns the field's effective required-ness right now.
func (s *Session) Required(field types.FormField) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EffectiveRequired(field, s.eval)
}

// AutoSaver exposes the session's autosaver, or nil when autosave is off.
func (s *Session) AutoSaver() *AutoSaver {
	return s.autosaver
}

// Submitted reports whether this session has completed a submission.
func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// Submit validates locally and, only if every required-visible field has an
// answer, sends the full answer set (including stale values of hidden
// fields) to the platform. A *ValidationError means no remote call was
// made. A remote failure leaves the answers intact for retry; success
// clears the session to its post-submission state.
func (s *Session) Submit(ctx context.Context, submitter Submitter) error {
	s.mu.Lock()
	answers := make(types.AnswerSet, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	eval := s.eval
	s.mu.Unlock()

	if err := ValidateSubmission(s.form, answers, eval); err != nil {
		return err
	}

	if err := submitter.SubmitForm(ctx, s.form.ID, answers); err != nil {
		return err
	}

	s.mu.Lock()
	s.submitted = true
	s.answers = make(types.AnswerSet)
	s.eval = Evaluate(s.form.Rules, s.answers)
	s.mu.Unlock()

	if s.autosaver != nil {
		s.autosaver.Close()
	}
	return nil
}

// Close persists any unsaved answers with one final immediate draft save,
// then releases the autosave timer. The final save is best-effort like
// every other draft save; a failure is discarded. In-flight saves complete
// and their results are recorded before the timer is released.
func (s *Session) Close() {
	if s.autosaver == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	_ = s.autosaver.Flush(ctx)
	cancel()
	s.autosaver.Close()
}
