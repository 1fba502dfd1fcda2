package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the root of the mail.tm REST API.
const DefaultBaseURL = "https://api.mail.tm"

// Session store backends.
const (
	StoreKeyring = "keyring"
	StoreSQLite  = "sqlite"
)

// GatewayConfig holds settings for the remote mail service.
type GatewayConfig struct {
	// BaseURL is the root URL of the mail service API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds every HTTP request to the service.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// SessionConfig controls account persistence and inbox polling.
type SessionConfig struct {
	// PollIntervalSec is how often (in seconds) the inbox is refreshed
	// while an account is active.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// Store selects the persistence backend ("keyring" or "sqlite").
	Store string `mapstructure:"store" yaml:"store"`

	// DBPath is the SQLite database file used by the sqlite backend.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// DisplayConfig holds UI preferences.
type DisplayConfig struct {
	// DefaultPassword pre-fills the password field of the create form.
	DefaultPassword string `mapstructure:"default_password" yaml:"default_password"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Gateway GatewayConfig `mapstructure:"gateway" yaml:"gateway"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// ConfigDir returns ~/.config/throwmail, falling back to the working
// directory when the home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "throwmail")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/throwmail/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file is present.
func DefaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		Gateway: GatewayConfig{
			BaseURL:    DefaultBaseURL,
			TimeoutSec: 30,
		},
		Session: SessionConfig{
			PollIntervalSec: 10,
			Store:           StoreKeyring,
			DBPath:          filepath.Join(dir, "throwmail.db"),
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "throwmail.log"),
		},
		Display: DisplayConfig{
			DefaultPassword: "password123",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A .env file in the working directory is loaded into the environment
// first, and THROWMAIL_* variables override file values
// (e.g. THROWMAIL_GATEWAY_BASE_URL). If the file does not exist, defaults
// are used.
func LoadConfig(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("THROWMAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values and so
	// AutomaticEnv knows every key.
	v.SetDefault("gateway.base_url", def.Gateway.BaseURL)
	v.SetDefault("gateway.timeout_sec", def.Gateway.TimeoutSec)
	v.SetDefault("session.poll_interval_sec", def.Session.PollIntervalSec)
	v.SetDefault("session.store", def.Session.Store)
	v.SetDefault("session.db_path", def.Session.DBPath)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.json", def.Log.JSON)
	v.SetDefault("display.default_password", def.Display.DefaultPassword)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := def
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// validate normalizes out-of-range values and rejects unknown backends.
func (c *AppConfig) validate() error {
	c.Gateway.BaseURL = strings.TrimRight(c.Gateway.BaseURL, "/")
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = DefaultBaseURL
	}
	if c.Gateway.TimeoutSec <= 0 {
		c.Gateway.TimeoutSec = 30
	}
	if c.Session.PollIntervalSec <= 0 {
		c.Session.PollIntervalSec = 10
	}

	switch c.Session.Store {
	case StoreKeyring, StoreSQLite:
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}

	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("gateway", cfg.Gateway)
	v.Set("session", cfg.Session)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
