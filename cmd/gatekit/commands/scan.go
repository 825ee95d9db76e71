package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatherkit/gatekit/internal/api"
	"github.com/gatherkit/gatekit/internal/audit"
	"github.com/gatherkit/gatekit/internal/checkin"
	"github.com/gatherkit/gatekit/internal/ui"
	"github.com/gatherkit/gatekit/internal/validation"
)

var (
	scanEventID       string
	scanFlushInterval time.Duration
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the check-in gate for an event",
	Long: `Read ticket tokens line by line (a USB QR reader types the code and
presses enter) and check attendees in. When the platform is unreachable
the token is buffered locally and retried; the queue is flushed on start,
periodically while scanning, and tokens keep their scan order.

Type a user id prefixed with '@' for a manual check-in, or 'quit' to stop.

Examples:
  gatekit scan --event 3f0b6a02-8f9e-4a43-b1d4-2a9c86a3d111
  gatekit scan --event $EVENT --flush-interval 10s`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanEventID, "event", "", "event id (required)")
	scanCmd.Flags().DurationVar(&scanFlushInterval, "flush-interval", 0, "retry interval for the offline queue (default from config)")
	_ = scanCmd.MarkFlagRequired("event")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	validator := validation.NewValidator()
	if err := validator.ValidateEventID(scanEventID); err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	mgr, err := openSessionManager(store)
	if err != nil {
		return err
	}
	sess, err := currentSession(mgr, cfg)
	if err != nil {
		return err
	}

	auditor, err := openAuditLogger(cfg)
	if err != nil {
		return err
	}
	defer auditor.Close()

	client := newAPIClient(cfg, sess)
	scanner := checkin.NewScanner(client, store, scanEventID, checkin.WithAuditor(auditor))
	prompter := stdPrompter()

	interval := scanFlushInterval
	if interval <= 0 {
		interval = cfg.Checkin.FlushInterval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditor.LogSystem(audit.EventStartup, "scan gate started", map[string]any{"event_id": scanEventID})
	defer auditor.LogSystem(audit.EventShutdown, "scan gate stopped", nil)

	// catch up on anything buffered from a previous run
	reportFlush(prompter, scanner.Flush(ctx))

	// background retry while the operator scans
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if len(scanner.Pending()) > 0 {
					reportFlush(prompter, scanner.Flush(ctx))
				}
			}
		}
	}()

	prompter.Info("Scanning for event %s. Type 'quit' to stop.", scanEventID)
	for {
		if ctx.Err() != nil {
			break
		}
		prompter.Info("")
		line, err := prompter.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("failed to read scanner input: %w", err)
		}

		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			// drain before walking away from the gate
			reportFlush(prompter, scanner.Flush(ctx))
			return nil
		case line[0] == '@':
			handleManual(ctx, prompter, validator, scanner, line[1:])
		default:
			handleScan(ctx, prompter, validator, scanner, line)
		}
	}

	reportFlush(prompter, scanner.Flush(context.Background()))
	return nil
}

func handleScan(ctx context.Context, prompter *ui.Prompter, validator *validation.Validator, scanner *checkin.Scanner, token string) {
	if err := validator.ValidateScanToken(token); err != nil {
		prompter.Error("%v", err)
		return
	}

	result, err := scanner.Scan(ctx, token)
	if err != nil {
		if api.IsAlreadyCheckedIn(err) {
			prompter.Warn("Already checked in")
		} else {
			prompter.Error("Check-in rejected: %v", err)
		}
		return
	}

	switch result.Outcome {
	case checkin.OutcomeCheckedIn:
		prompter.Success("Checked in (%s)", result.Record.ID)
	case checkin.OutcomeDuplicate:
		prompter.Warn("Duplicate scan ignored")
	case checkin.OutcomeQueued:
		prompter.Warn("Offline, queued for retry (%d pending)", len(scanner.Pending()))
	}
}

func handleManual(ctx context.Context, prompter *ui.Prompter, validator *validation.Validator, scanner *checkin.Scanner, userID string) {
	if err := validator.ValidateUserID(userID); err != nil {
		prompter.Error("%v", err)
		return
	}

	record, err := scanner.Manual(ctx, userID)
	if err != nil {
		if api.IsAlreadyCheckedIn(err) {
			prompter.Warn("Already checked in")
		} else {
			prompter.Error("Manual check-in failed: %v", err)
		}
		return
	}
	prompter.Success("Checked in %s (%s)", userID, record.ID)
}

func reportFlush(prompter *ui.Prompter, report checkin.FlushReport) {
	if report.Skipped || report.Processed == 0 && report.Remaining == 0 {
		return
	}
	if report.Remaining > 0 {
		prompter.Warn("Flushed %d queued check-ins, %d still pending", report.Processed, report.Remaining)
	} else {
		prompter.Success("Flushed %d queued check-ins", report.Processed)
	}
}
