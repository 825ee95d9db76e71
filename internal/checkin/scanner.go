// Package checkin implements the scanning flow for event staff: immediate
// submission of scanned admission tokens, and an offline queue that buffers
// tokens while the network is down and replays them when it returns. A
// scanned token is never silently lost.
package checkin

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gatherkit/gatekit/internal/api"
	"github.com/gatherkit/gatekit/internal/audit"
	"github.com/gatherkit/gatekit/internal/storage"
	"github.com/gatherkit/gatekit/pkg/types"
)

// API is the remote check-in surface the scanner submits to.
type API interface {
	ScanCheckin(ctx context.Context, eventID, qrCode string) (*types.CheckinRecord, error)
	ManualCheckin(ctx context.Context, eventID, userID string) (*types.CheckinRecord, error)
}

// Outcome classifies what happened to one scanned token.
type Outcome int

const (
	// OutcomeCheckedIn means the platform confirmed the check-in.
	OutcomeCheckedIn Outcome = iota
	// OutcomeDuplicate means the token matched the immediately preceding
	// scan and was dropped without any network or queue action.
	OutcomeDuplicate
	// OutcomeQueued means the network was unreachable and the token was
	// buffered for a later flush.
	OutcomeQueued
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCheckedIn:
		return "checked_in"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeQueued:
		return "queued"
	default:
		return "unknown"
	}
}

// ScanResult is the outcome of one Scan call. Record is set only for
// OutcomeCheckedIn.
type ScanResult struct {
	Outcome Outcome
	Record  *types.CheckinRecord
}

// FlushReport summarizes one flush pass over the persisted queue.
type FlushReport struct {
	// Skipped is true when another flush was already running and this
	// call returned without touching the queue.
	Skipped   bool
	Processed int
	Remaining int
}

// Scanner runs the check-in flow for one event.
type Scanner struct {
	api     API
	store   storage.Store
	eventID string
	auditor *audit.Logger

	mu        sync.Mutex
	lastToken string

	// qmu serializes reads and writes of the persisted queue so that a
	// token enqueued while a flush pass is in flight survives the pass.
	qmu      sync.Mutex
	flushing atomic.Bool
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithAuditor attaches an audit trail to the scanner.
func WithAuditor(auditor *audit.Logger) ScannerOption {
	return func(s *Scanner) { s.auditor = auditor }
}

// NewScanner creates a scanner for one event backed by the given store.
func NewScanner(apiClient API, store storage.Store, eventID string, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		api:     apiClient,
		store:   store,
		eventID: eventID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan submits one scanned token, or queues it when the network is down.
//
// A token equal to the immediately preceding scan (successful or merely
// attempted) is treated as the reader firing twice and dropped. A
// definitive platform rejection (already checked in, invalid code) is
// returned as an *api.APIError and never enqueued: retrying it later would
// not change the answer. Only transport-level failures queue the token.
func (s *Scanner) Scan(ctx context.Context, token string) (ScanResult, error) {
	s.mu.Lock()
	if token == s.lastToken {
		s.mu.Unlock()
		s.logScan(token, audit.EventScanDuplicate, nil)
		return ScanResult{Outcome: OutcomeDuplicate}, nil
	}
	s.lastToken = token
	s.mu.Unlock()

	record, err := s.api.ScanCheckin(ctx, s.eventID, token)
	if err == nil {
		s.logScan(token, audit.EventScan, nil)
		return ScanResult{Outcome: OutcomeCheckedIn, Record: record}, nil
	}

	if api.IsDefinitive(err) {
		s.logScan(token, audit.EventScanRejected, err)
		return ScanResult{}, err
	}

	// Transport failure: buffer for later sync.
	s.qmu.Lock()
	queue := loadQueue(s.store, s.eventID)
	queue = append(queue, token)
	saveQueue(s.store, s.eventID, queue)
	s.qmu.Unlock()
	s.logScan(token, audit.EventScanQueued, err)
	return ScanResult{Outcome: OutcomeQueued}, nil
}

// Flush replays the persisted queue sequentially, one token at a time: the
// platform is not assumed safe against concurrent identical submissions
// from the same client. Tokens that fail for any reason are carried
// forward in their original relative order. Tokens queued by Scan while
// the pass is running are kept behind that remainder rather than lost to
// the pass's stale snapshot. Re-entrant calls while a flush is running
// are no-ops.
func (s *Scanner) Flush(ctx context.Context) FlushReport {
	if !s.flushing.CompareAndSwap(false, true) {
		return FlushReport{Skipped: true}
	}
	defer s.flushing.Store(false)

	s.qmu.Lock()
	queue := loadQueue(s.store, s.eventID)
	s.qmu.Unlock()
	if len(queue) == 0 {
		return FlushReport{}
	}

	var remaining []string
	processed := 0
	for _, token := range queue {
		if _, err := s.api.ScanCheckin(ctx, s.eventID, token); err != nil {
			remaining = append(remaining, token)
			continue
		}
		processed++
	}

	// Scan only appends, and flushes are single-flight, so anything past
	// the snapshot length arrived during this pass and must survive it.
	s.qmu.Lock()
	current := loadQueue(s.store, s.eventID)
	if len(current) > len(queue) {
		remaining = append(remaining, current[len(queue):]...)
	}
	saveQueue(s.store, s.eventID, remaining)
	s.qmu.Unlock()
	if s.auditor != nil {
		s.auditor.LogFlush(s.eventID, processed, len(remaining))
	}
	return FlushReport{Processed: processed, Remaining: len(remaining)}
}

// Pending returns the tokens currently buffered for this event.
func (s *Scanner) Pending() []string {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	return loadQueue(s.store, s.eventID)
}

// Manual checks a user in by explicit user id. Manual check-ins are
// user-initiated and never queued: a failure is reported back instead.
func (s *Scanner) Manual(ctx context.Context, userID string) (*types.CheckinRecord, error) {
	record, err := s.api.ManualCheckin(ctx, s.eventID, userID)
	if s.auditor != nil {
		s.auditor.LogManualCheckin(s.eventID, userID, err)
	}
	return record, err
}

func (s *Scanner) logScan(token string, outcome audit.EventType, err error) {
	if s.auditor != nil {
		s.auditor.LogScan(s.eventID, token, outcome, err)
	}
}
