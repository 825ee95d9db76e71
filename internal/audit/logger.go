// Package audit writes an append-only JSON trail of every scan, queue
// flush, draft save and submission the kiosk performs. Check-in disputes
// get settled from this file, so writes never block the scanning flow:
// events go through a buffered channel to a background worker.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of audit event
type EventType string

const (
	// Check-in events
	EventScan          EventType = "SCAN"
	EventScanRejected  EventType = "SCAN_REJECTED"
	EventScanQueued    EventType = "SCAN_QUEUED"
	EventScanDuplicate EventType = "SCAN_DUPLICATE"
	EventQueueFlush    EventType = "QUEUE_FLUSH"
	EventManualCheckin EventType = "MANUAL_CHECKIN"

	// Registration events
	EventDraftSave  EventType = "DRAFT_SAVE"
	EventFormSubmit EventType = "FORM_SUBMIT"

	// System events
	EventStartup  EventType = "STARTUP"
	EventShutdown EventType = "SHUTDOWN"
	EventError    EventType = "ERROR"
)

// Severity represents the severity level of an audit event
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Event represents a single audit log entry
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Severity  Severity       `json:"severity"`
	EventID   string         `json:"event_id,omitempty"` // platform event, not this entry
	Token     string         `json:"token,omitempty"`    // masked scan token
	FormID    string         `json:"form_id,omitempty"`
	Action    string         `json:"action"`
	Result    string         `json:"result"`
	Details   map[string]any `json:"details,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Logger provides audit logging functionality
type Logger struct {
	mu        sync.Mutex
	file      *os.File
	filepath  string
	maxSize   int64
	maxAge    time.Duration
	encoder   *json.Encoder
	eventChan chan *Event
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// Config represents logger configuration
type Config struct {
	FilePath string
	MaxSize  int64         // Maximum file size in bytes
	MaxAge   time.Duration // Maximum age of rotated files
}

// NewLogger creates a new audit logger
func NewLogger(config Config) (*Logger, error) {
	dir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	logger := &Logger{
		file:      file,
		filepath:  config.FilePath,
		maxSize:   config.MaxSize,
		maxAge:    config.MaxAge,
		encoder:   json.NewEncoder(file),
		eventChan: make(chan *Event, 100),
		stopChan:  make(chan struct{}),
	}

	logger.wg.Add(1)
	go logger.worker()

	logger.LogSystem(EventStartup, "audit logger started", nil)
	return logger, nil
}

// Log writes an audit event
func (l *Logger) Log(event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case l.eventChan <- event:
	case <-time.After(time.Second):
		// Timeout to prevent blocking the scan flow
		fmt.Fprintf(os.Stderr, "Failed to log audit event: timeout\n")
	}
}

// LogScan logs one scan attempt and its outcome.
func (l *Logger) LogScan(eventID, token string, outcome EventType, err error) {
	severity := SeverityInfo
	result := "SUCCESS"
	errMsg := ""
	switch outcome {
	case EventScanRejected:
		severity = SeverityWarning
		result = "REJECTED"
	case EventScanQueued:
		result = "QUEUED"
	case EventScanDuplicate:
		result = "DUPLICATE"
	}
	if err != nil {
		errMsg = err.Error()
	}

	l.Log(&Event{
		Type:     outcome,
		Severity: severity,
		EventID:  eventID,
		Token:    MaskToken(token),
		Action:   "scan",
		Result:   result,
		Error:    errMsg,
	})
}

// LogFlush logs a completed queue flush pass.
func (l *Logger) LogFlush(eventID string, processed, remaining int) {
	l.Log(&Event{
		Type:     EventQueueFlush,
		Severity: SeverityInfo,
		EventID:  eventID,
		Action:   "flush",
		Result:   "DONE",
		Details: map[string]any{
			"processed": processed,
			"remaining": remaining,
		},
	})
}

// LogManualCheckin logs an explicit check-in by user id.
func (l *Logger) LogManualCheckin(eventID, userID string, err error) {
	event := &Event{
		Type:     EventManualCheckin,
		Severity: SeverityInfo,
		EventID:  eventID,
		Action:   "manual_checkin",
		Result:   "SUCCESS",
		Details:  map[string]any{"user_id": userID},
	}
	if err != nil {
		event.Severity = SeverityWarning
		event.Result = "FAILED"
		event.Error = err.Error()
	}
	l.Log(event)
}

// LogDraftSave logs a draft autosave attempt.
func (l *Logger) LogDraftSave(formID string, err error) {
	event := &Event{
		Type:     EventDraftSave,
		Severity: SeverityInfo,
		FormID:   formID,
		Action:   "draft_save",
		Result:   "SUCCESS",
	}
	if err != nil {
		event.Severity = SeverityWarning
		event.Result = "FAILED"
		event.Error = err.Error()
	}
	l.Log(event)
}

// LogSubmit logs a final form submission attempt.
func (l *Logger) LogSubmit(formID string, err error) {
	event := &Event{
		Type:     EventFormSubmit,
		Severity: SeverityInfo,
		FormID:   formID,
		Action:   "submit",
		Result:   "SUCCESS",
	}
	if err != nil {
		event.Severity = SeverityError
		event.Result = "FAILED"
		event.Error = err.Error()
	}
	l.Log(event)
}

// LogError logs an error event
func (l *Logger) LogError(source string, err error, details map[string]any) {
	l.Log(&Event{
		Type:     EventError,
		Severity: SeverityError,
		Action:   source,
		Result:   "ERROR",
		Error:    err.Error(),
		Details:  details,
	})
}

// LogSystem logs a system event
func (l *Logger) LogSystem(eventType EventType, message string, details map[string]any) {
	l.Log(&Event{
		Type:     eventType,
		Severity: SeverityInfo,
		Action:   string(eventType),
		Result:   message,
		Details:  details,
	})
}

// MaskToken keeps enough of a scan token to correlate entries without
// recording a replayable credential.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + "…" + token[len(token)-4:]
}

// worker processes audit events in the background
func (l *Logger) worker() {
	defer l.wg.Done()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case event := <-l.eventChan:
			l.writeEvent(event)

		case <-ticker.C:
			l.performMaintenance()

		case <-l.stopChan:
			// Drain remaining events
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		}
	}
}

// writeEvent writes an event to the log file
func (l *Logger) writeEvent(event *Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.encoder.Encode(event); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write audit event: %v\n", err)
	}

	if l.maxSize > 0 {
		if info, err := l.file.Stat(); err == nil && info.Size() > l.maxSize {
			l.rotate()
		}
	}
}

// rotate performs log rotation
func (l *Logger) rotate() {
	_ = l.file.Close()

	timestamp := time.Now().Format("20060102-150405")
	rotatedPath := fmt.Sprintf("%s.%s", l.filepath, timestamp)
	_ = os.Rename(l.filepath, rotatedPath)

	file, err := os.OpenFile(l.filepath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open new audit log file: %v\n", err)
		return
	}

	l.file = file
	l.encoder = json.NewEncoder(file)
}

// performMaintenance removes rotated files older than maxAge
func (l *Logger) performMaintenance() {
	if l.maxAge <= 0 {
		return
	}

	dir := filepath.Dir(l.filepath)
	base := filepath.Base(l.filepath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-l.maxAge)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, base) || name == base {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
}

// Close flushes pending events and closes the audit logger
func (l *Logger) Close() error {
	l.LogSystem(EventShutdown, "audit logger shutting down", nil)

	close(l.stopChan)
	l.wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}
