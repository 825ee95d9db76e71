package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatherkit/gatekit/internal/validation"
)

var ticketEventID string

// ticketCmd represents the ticket command
var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Show your own ticket code for an event",
	Long: `Fetch the QR payload of the logged-in account's ticket so it can be
presented at a gate or pasted into a scan prompt for testing.`,
	RunE: runTicket,
}

func init() {
	rootCmd.AddCommand(ticketCmd)

	ticketCmd.Flags().StringVar(&ticketEventID, "event", "", "event id (required)")
	_ = ticketCmd.MarkFlagRequired("event")
}

func runTicket(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := validation.NewValidator().ValidateEventID(ticketEventID); err != nil {
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

	client := newAPIClient(cfg, sess)
	code, err := client.TicketQR(cmd.Context(), ticketEventID)
	if err != nil {
		return fmt.Errorf("failed to fetch ticket: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), code)
	return nil
}
