package commands

import (
	"github.com/spf13/cobra"

	"github.com/gatherkit/gatekit/internal/config"
)

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kiosk configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	prompter := stdPrompter()
	prompter.Info("Config dir:        %s", config.GetConfigDir())
	prompter.Info("API base URL:      %s", cfg.API.BaseURL)
	prompter.Info("API timeout:       %s", cfg.API.Timeout)
	prompter.Info("Autosave debounce: %s", cfg.Forms.AutosaveDebounce)
	prompter.Info("Flush interval:    %s", cfg.Checkin.FlushInterval)
	prompter.Info("Storage backend:   %s", cfg.Storage.Backend)
	prompter.Info("Data dir:          %s", cfg.Storage.DataDir)
	prompter.Info("Audit log:         %s", cfg.Logging.AuditFile)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	cfg := config.DefaultConfig()
	if err := cfg.Save(configFile); err != nil {
		return err
	}
	stdPrompter().Success("Wrote default configuration")
	return nil
}
