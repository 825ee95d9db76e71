package forms

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherkit/gatekit/pkg/types"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   int
	answers types.AnswerSet
	err     error
}

func (f *fakeSubmitter) SubmitForm(_ context.Context, _ string, answers types.AnswerSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.answers = answers
	return f.err
}

func TestSessionRuleReevaluationOnChange(t *testing.T) {
	session := NewSession(validForm())
	defer session.Close()

	// company starts hidden (unconditional hide rule)
	fields := session.VisibleFields()
	require.Len(t, fields, 2)

	session.SetAnswer("role", "business")
	fields = session.VisibleFields()
	require.Len(t, fields, 3)
	assert.False(t, session.Evaluation().Hidden["company"])

	session.SetAnswer("role", "individual")
	assert.True(t, session.Evaluation().Hidden["company"])
}

func TestSessionSubmitRejectsLocallyWithoutNetwork(t *testing.T) {
	submitter := &fakeSubmitter{}
	session := NewSession(validForm())
	defer session.Close()

	err := session.Submit(context.Background(), submitter)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 0, submitter.calls)
	assert.False(t, session.Submitted())
}

func TestSessionSubmitSendsExactlyOneCall(t *testing.T) {
	submitter := &fakeSubmitter{}
	session := NewSession(validForm(), WithInitialAnswers(types.AnswerSet{"email": "me@example.com"}))
	defer session.Close()

	require.NoError(t, session.Submit(context.Background(), submitter))
	assert.Equal(t, 1, submitter.calls)
	assert.True(t, session.Submitted())
	assert.Empty(t, session.Answers())
}

func TestSessionSubmitIncludesHiddenStaleValues(t *testing.T) {
	submitter := &fakeSubmitter{}
	session := NewSession(validForm(), WithInitialAnswers(types.AnswerSet{"email": "me@example.com"}))
	defer session.Close()

	session.SetAnswer("role", "business")
	session.SetAnswer("company", "ACME")
	session.SetAnswer("role", "individual") // hides company again

	require.NoError(t, session.Submit(context.Background(), submitter))
	assert.Equal(t, "ACME", submitter.answers["company"])
}

func TestSessionSubmitFailureLeavesAnswersIntact(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("gateway timeout")}
	session := NewSession(validForm(), WithInitialAnswers(types.AnswerSet{"email": "me@example.com"}))
	defer session.Close()

	err := session.Submit(context.Background(), submitter)
	require.Error(t, err)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
	assert.False(t, session.Submitted())
	assert.Equal(t, "me@example.com", session.Answers()["email"])

	// retry succeeds with the same answers
	submitter.err = nil
	require.NoError(t, session.Submit(context.Background(), submitter))
	assert.Equal(t, 2, submitter.calls)
}

func TestSessionAutoSaveFollowsAnswers(t *testing.T) {
	saver := &fakeSaver{}
	session := NewSession(validForm(), WithAutoSave(saver, testDebounce))
	defer session.Close()

	session.SetAnswer("email", "me@example.com")
	require.Eventually(t, func() bool { return saver.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "me@example.com", saver.last()["email"])
	assert.Equal(t, StateSaved, session.AutoSaver().State())
}

func TestSessionCloseFlushesUnsavedDraft(t *testing.T) {
	saver := &fakeSaver{}
	session := NewSession(validForm(), WithAutoSave(saver, time.Hour))

	// the debounce window is still open when the operator walks away
	session.SetAnswer("email", "me@example.com")
	require.Equal(t, 0, saver.count())

	session.Close()
	require.Equal(t, 1, saver.count())
	assert.Equal(t, "me@example.com", saver.last()["email"])
}

func TestSessionCloseAfterSubmitSavesNoStaleDraft(t *testing.T) {
	saver := &fakeSaver{}
	submitter := &fakeSubmitter{}
	session := NewSession(validForm(),
		WithInitialAnswers(types.AnswerSet{"email": "me@example.com"}),
		WithAutoSave(saver, time.Hour),
	)

	require.NoError(t, session.Submit(context.Background(), submitter))
	saved := saver.count()

	// the submitted answers must not reappear as a draft
	session.Close()
	assert.Equal(t, saved, saver.count())
}
