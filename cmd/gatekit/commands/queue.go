package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatherkit/gatekit/internal/audit"
	"github.com/gatherkit/gatekit/internal/checkin"
	"github.com/gatherkit/gatekit/internal/validation"
)

var queueEventID string

// queueCmd represents the queue command group
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and flush the offline check-in queue",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List check-ins waiting for connectivity",
	RunE:  runQueueList,
}

var queueFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Retry queued check-ins now",
	RunE:  runQueueFlush,
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueFlushCmd)

	queueCmd.PersistentFlags().StringVar(&queueEventID, "event", "", "event id (required)")
	_ = queueCmd.MarkPersistentFlagRequired("event")
}

func runQueueList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := validation.NewValidator().ValidateEventID(queueEventID); err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	scanner := checkin.NewScanner(nil, store, queueEventID)
	pending := scanner.Pending()

	prompter := stdPrompter()
	if len(pending) == 0 {
		prompter.Info("Queue is empty")
		return nil
	}
	prompter.Info("%d pending check-ins:", len(pending))
	for i, token := range pending {
		prompter.Info("  %d. %s", i+1, audit.MaskToken(token))
	}
	return nil
}

func runQueueFlush(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := validation.NewValidator().ValidateEventID(queueEventID); err != nil {
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
	scanner := checkin.NewScanner(client, store, queueEventID, checkin.WithAuditor(auditor))

	report := scanner.Flush(cmd.Context())
	if report.Skipped {
		return fmt.Errorf("another flush is already running")
	}

	prompter := stdPrompter()
	prompter.Info("Processed %d check-ins, %d remaining", report.Processed, report.Remaining)
	if report.Remaining > 0 {
		return fmt.Errorf("%d check-ins could not be delivered", report.Remaining)
	}
	return nil
}
