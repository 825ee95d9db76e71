package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ErrConfigNotFound is returned when the config file is not found by Load.
var ErrConfigNotFound = errors.New("configuration file not found")

// Config represents the application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Forms   FormsConfig   `mapstructure:"forms"`
	Checkin CheckinConfig `mapstructure:"checkin"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Session SessionConfig `mapstructure:"session"`
}

// APIConfig represents platform API settings
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FormsConfig represents registration form settings
type FormsConfig struct {
	AutosaveDebounce time.Duration `mapstructure:"autosave_debounce"`
}

// CheckinConfig represents check-in scanner settings
type CheckinConfig struct {
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// StorageConfig represents local persistence settings
type StorageConfig struct {
	// Backend is one of "file", "sqlite" or "memory".
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	AuditFile string `mapstructure:"audit_file"`
}

// SessionConfig represents local session settings
type SessionConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://app.gatherkit.io",
			Timeout: 30 * time.Second,
		},
		Forms: FormsConfig{
			AutosaveDebounce: 800 * time.Millisecond,
		},
		Checkin: CheckinConfig{
			FlushInterval: 30 * time.Second,
		},
		Storage: StorageConfig{
			Backend: "file",
			DataDir: "",
		},
		Logging: LoggingConfig{
			Level:     "info",
			AuditFile: "",
		},
		Session: SessionConfig{
			Timeout: 12 * time.Hour,
		},
	}
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must be set")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.Forms.AutosaveDebounce <= 0 {
		return errors.New("forms.autosave_debounce must be positive")
	}
	switch c.Storage.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("storage.backend must be file, sqlite or memory, got %q", c.Storage.Backend)
	}
	return nil
}

// Load loads configuration from file
func Load(configFile string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config") // Default name if configFile is a directory
	v.SetConfigType("yaml")

	configDir := getConfigDir()
	resolvedConfigFile := configFile

	if configFile == "" || configFile == filepath.Join(configDir, "config.yaml") {
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
		if configFile == "" {
			resolvedConfigFile = filepath.Join(configDir, "config.yaml")
		}
	} else {
		v.SetConfigFile(configFile)
		resolvedConfigFile = configFile
	}

	if _, err := os.Stat(resolvedConfigFile); os.IsNotExist(err) {
		return nil, ErrConfigNotFound
	}

	// Environment variable overrides
	v.SetEnvPrefix("GATEKIT")
	v.AutomaticEnv()

	_ = v.BindEnv("api.base_url", "GATEKIT_API_URL")
	_ = v.BindEnv("logging.level", "GATEKIT_LOG_LEVEL")
	_ = v.BindEnv("storage.backend", "GATEKIT_STORAGE_BACKEND")

	if err := v.ReadInConfig(); err != nil {
		var vfnfError viper.ConfigFileNotFoundError
		if errors.As(err, &vfnfError) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file content: %w", err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.fillDerivedPaths(configDir)

	return config, nil
}

// fillDerivedPaths resolves the storage and audit paths that default to
// locations under the config directory when left empty. The empty strings
// stay empty in the config file itself so it remains relocatable.
func (c *Config) fillDerivedPaths(configDir string) {
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = filepath.Join(configDir, "data")
	}
	if c.Logging.AuditFile == "" {
		c.Logging.AuditFile = filepath.Join(configDir, "audit.log")
	}
}

// Save saves configuration to file
func (c *Config) Save(configFile string) error {
	if configFile == "" {
		configFile = filepath.Join(getConfigDir(), "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configFile)

	v.Set("api.base_url", c.API.BaseURL)
	v.Set("api.timeout", c.API.Timeout)
	v.Set("forms.autosave_debounce", c.Forms.AutosaveDebounce)
	v.Set("checkin.flush_interval", c.Checkin.FlushInterval)
	v.Set("storage.backend", c.Storage.Backend)
	v.Set("storage.data_dir", c.Storage.DataDir)
	v.Set("logging.level", c.Logging.Level)
	v.Set("logging.audit_file", c.Logging.AuditFile)
	v.Set("session.timeout", c.Session.Timeout)

	return v.WriteConfig()
}

// SaveDefault saves configuration to the default location
func (c *Config) SaveDefault() error {
	return c.Save("")
}

// getConfigDir returns the configuration directory
func getConfigDir() string {
	if configDir := os.Getenv("GATEKIT_CONFIG_DIR"); configDir != "" {
		return configDir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fall back to current directory with absolute path
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".gatekit")
	}

	return filepath.Join(homeDir, ".gatekit")
}

// GetConfigDir returns the configuration directory (exported)
func GetConfigDir() string {
	return getConfigDir()
}

// EnsureConfigDir ensures the configuration directory exists
func EnsureConfigDir() error {
	configDir := getConfigDir()
	return os.MkdirAll(configDir, 0700)
}

// LoadOrCreate loads existing config or creates a new one
func LoadOrCreate(configFile string) (*Config, error) {
	cfg, err := Load(configFile)
	if err == nil {
		return cfg, nil
	}

	if errors.Is(err, ErrConfigNotFound) {
		cfg = DefaultConfig()

		finalConfigFile := configFile
		if finalConfigFile == "" || finalConfigFile == "config.yaml" {
			finalConfigFile = filepath.Join(getConfigDir(), "config.yaml")
		}

		if errSave := cfg.Save(finalConfigFile); errSave != nil {
			return nil, fmt.Errorf("failed to save default config to %s: %w", finalConfigFile, errSave)
		}
		cfg.fillDerivedPaths(getConfigDir())
		return cfg, nil
	}
	return nil, err
}
