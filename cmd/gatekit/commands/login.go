package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatherkit/gatekit/internal/api"
	"github.com/gatherkit/gatekit/internal/session"
	"github.com/gatherkit/gatekit/internal/validation"
	"github.com/gatherkit/gatekit/pkg/types"
)

var (
	loginName  string
	loginToken string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate this kiosk against the platform",
	Long: `Store an API token for this kiosk. The token is verified against the
platform, sealed with a per-device key and persisted locally.

Examples:
  # Prompt for the token interactively
  gatekit login --name front-desk

  # Non-interactive provisioning
  gatekit login --name gate-2 --token $GATEKIT_TOKEN`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity behind the stored session",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringVar(&loginName, "name", "kiosk", "name for this kiosk")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "API token (prompted for when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := validation.NewValidator().ValidateKioskName(loginName); err != nil {
		return err
	}

	prompter := stdPrompter()
	token := loginToken
	if token == "" {
		token, err = prompter.ReadSecret("API token")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	// Verify the token before persisting anything.
	client := api.NewClient(cfg.API.BaseURL, api.WithToken(token), api.WithTimeout(cfg.API.Timeout))
	identity, err := client.Me(cmd.Context())
	if err != nil {
		return fmt.Errorf("token verification failed: %w", err)
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
	if err := mgr.Save(&types.Session{
		Name:     loginName,
		Token:    token,
		Identity: *identity,
	}); err != nil {
		return err
	}

	prompter.Success("Logged in as %s (%s)", identity.DisplayName, identity.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
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
	if err := mgr.Clear(); err != nil {
		return err
	}
	stdPrompter().Success("Session cleared")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
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
	sess, err := mgr.Current()
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return err
		}
		return fmt.Errorf("failed to read session: %w", err)
	}

	prompter := stdPrompter()
	prompter.Info("Kiosk:    %s", sess.Name)
	prompter.Info("Identity: %s <%s>", sess.Identity.DisplayName, sess.Identity.Email)
	prompter.Info("Since:    %s", sess.CreatedAt.Format("2006-01-02 15:04"))
	return nil
}
