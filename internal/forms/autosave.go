package forms

import (
	"context"
	"sync"
	"time"

	"github.com/gatherkit/gatekit/internal/log"
	"github.com/gatherkit/gatekit/pkg/types"
)

// DraftState is the autosave lifecycle state of a form session.
type DraftState int

const (
	// StateEmpty means no answer has been entered yet.
	StateEmpty DraftState = iota
	// StateDirty means answers changed since the last successful save.
	StateDirty
	// StateSaving means a remote draft write is in flight.
	StateSaving
	// StateSaved means the remote draft matches the current answers.
	StateSaved
	// StateSaveFailed means the last write failed; the next debounce
	// window retries from Dirty.
	StateSaveFailed
)

func (s DraftState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	case StateSaved:
		return "saved"
	case StateSaveFailed:
		return "save_failed"
	default:
		return "unknown"
	}
}

// DraftSaver persists a draft remotely.
type DraftSaver interface {
	SaveDraft(ctx context.Context, formID string, data types.AnswerSet) error
}

// DefaultDebounce is the quiet period after the last answer change before
// a draft save fires.
const DefaultDebounce = 800 * time.Millisecond

// saveTimeout bounds a single remote draft write.
const saveTimeout = 15 * time.Second

// AutoSaver debounces answer changes into best-effort remote draft saves.
// It owns its timer and must be closed on teardown so no timer outlives the
// session. At most one save is in flight at a time; a change arriving while
// one is in flight re-arms the debounce without cancelling the write.
// Failures are absorbed: the state returns to Dirty and the next window
// retries.
type AutoSaver struct {
	saver    DraftSaver
	formID   string
	interval time.Duration

	mu          sync.Mutex
	timer       *time.Timer
	state       DraftState
	pending     types.AnswerSet
	dirty       bool
	inflight    bool
	closed      bool
	lastSavedAt time.Time
	wg          sync.WaitGroup
}

// NewAutoSaver creates an autosaver for one form session. An interval of
// zero uses DefaultDebounce.
func NewAutoSaver(saver DraftSaver, formID string, interval time.Duration) *AutoSaver {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &AutoSaver{
		saver:    saver,
		formID:   formID,
		interval: interval,
		state:    StateEmpty,
	}
}

// Update records the latest full answer set and (re-)arms the debounce.
func (a *AutoSaver) Update(answers types.AnswerSet) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	a.pending = make(types.AnswerSet, len(answers))
	for k, v := range answers {
		a.pending[k] = v
	}
	a.dirty = true
	if a.state != StateSaving {
		a.state = StateDirty
	}
	a.rearmLocked()
}

// State returns the current lifecycle state.
func (a *AutoSaver) State() DraftState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// LastSavedAt returns the time of the last successful save, if any.
func (a *AutoSaver) LastSavedAt() (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSavedAt, !a.lastSavedAt.IsZero()
}

// Flush performs an immediate synchronous save of any unsaved answers,
// bypassing the debounce. Session teardown calls it so a form abandoned
// mid-entry keeps its draft.
func (a *AutoSaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if a.closed || a.inflight || !a.dirty || len(a.pending) == 0 {
		a.mu.Unlock()
		return nil
	}
	snapshot := a.beginSaveLocked()
	a.mu.Unlock()

	err := a.saver.SaveDraft(ctx, a.formID, snapshot)
	a.finishSave(err)
	return err
}

// Close stops the debounce timer and waits for any in-flight save to
// finish. The save's result is still recorded but no new save will start.
func (a *AutoSaver) Close() {
	a.mu.Lock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	a.wg.Wait()
}

// rearmLocked restarts the debounce countdown. Caller holds a.mu.
func (a *AutoSaver) rearmLocked() {
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.interval, a.onTimer)
}

func (a *AutoSaver) onTimer() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	if a.inflight {
		// Keep the in-flight save running; try again after another window.
		a.rearmLocked()
		a.mu.Unlock()
		return
	}
	if !a.dirty || len(a.pending) == 0 {
		a.mu.Unlock()
		return
	}
	snapshot := a.beginSaveLocked()
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		a.finishSave(a.saver.SaveDraft(ctx, a.formID, snapshot))
	}()
}

// beginSaveLocked snapshots pending answers and transitions to Saving.
// Caller holds a.mu.
func (a *AutoSaver) beginSaveLocked() types.AnswerSet {
	snapshot := make(types.AnswerSet, len(a.pending))
	for k, v := range a.pending {
		snapshot[k] = v
	}
	a.dirty = false
	a.inflight = true
	a.state = StateSaving
	return snapshot
}

func (a *AutoSaver) finishSave(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.inflight = false
	if err != nil {
		// Best-effort autosave: stay dirty and retry next window.
		log.Debugf("forms: draft save failed for %s: %v", a.formID, err)
		a.dirty = true
		a.state = StateSaveFailed
		if !a.closed {
			a.rearmLocked()
		}
		return
	}

	a.lastSavedAt = time.Now()
	if a.dirty {
		a.state = StateDirty
	} else {
		a.state = StateSaved
	}
}
