package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gatherkit/gatekit/internal/api"
	"github.com/gatherkit/gatekit/internal/audit"
	"github.com/gatherkit/gatekit/internal/config"
	"github.com/gatherkit/gatekit/internal/log"
	"github.com/gatherkit/gatekit/internal/session"
	"github.com/gatherkit/gatekit/internal/storage"
	"github.com/gatherkit/gatekit/internal/ui"
	"github.com/gatherkit/gatekit/pkg/types"
)

var (
	version    = "dev"
	configFile string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gatekit",
	Short: "GatherKit event kiosk",
	Long: `Command-line client for the GatherKit event platform.

Runs registration desks and check-in gates from a terminal: fill out the
event's registration form with draft autosave, and scan tickets with an
offline queue that catches up when connectivity returns.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ~/.gatekit/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")
}

// SetVersion sets the version for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// loadConfig loads the configuration, creating the default file on first run.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrCreate(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStore opens the configured persistence backend.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite":
		store, err := storage.NewSQLiteStore(filepath.Join(cfg.Storage.DataDir, "gatekit.db"))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewFileStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return store, nil
	}
}

// openSessionManager opens the session manager over the given store.
func openSessionManager(store storage.Store) (*session.Manager, error) {
	return session.NewManager(store, config.GetConfigDir())
}

// currentSession returns the saved session, erroring when none exists or
// the session has timed out.
func currentSession(mgr *session.Manager, cfg *config.Config) (*types.Session, error) {
	sess, err := mgr.Current()
	if err != nil {
		return nil, err
	}
	if mgr.Expired(sess, cfg.Session.Timeout) {
		return nil, fmt.Errorf("session expired, run 'gatekit login' again")
	}
	return sess, nil
}

// newAPIClient builds the platform client for the given session.
func newAPIClient(cfg *config.Config, sess *types.Session) *api.Client {
	return api.NewClient(cfg.API.BaseURL,
		api.WithToken(sess.Token),
		api.WithTimeout(cfg.API.Timeout),
	)
}

// openAuditLogger opens the append-only audit trail.
func openAuditLogger(cfg *config.Config) (*audit.Logger, error) {
	return audit.NewLogger(audit.Config{FilePath: cfg.Logging.AuditFile})
}

// stdPrompter builds a prompter over the process streams.
func stdPrompter() *ui.Prompter {
	return ui.NewPrompter(os.Stdin, os.Stdout)
}
