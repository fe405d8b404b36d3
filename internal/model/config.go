package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIConfig holds settings for the REST backend.
type APIConfig struct {
	// BaseURL is the root URL of the job-board API (without /api).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// RequestTimeoutSec bounds every REST call.
	RequestTimeoutSec int `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// PushConfig holds settings for the realtime notification channel.
type PushConfig struct {
	// URL is the websocket endpoint (ws:// or wss://).
	URL string `mapstructure:"url" yaml:"url"`

	HandshakeTimeoutSec int `mapstructure:"handshake_timeout_sec" yaml:"handshake_timeout_sec"`
	ReconnectMinMs      int `mapstructure:"reconnect_min_ms" yaml:"reconnect_min_ms"`
	ReconnectMaxMs      int `mapstructure:"reconnect_max_ms" yaml:"reconnect_max_ms"`

	// MaxReconnects caps consecutive reconnect attempts; 0 means unlimited.
	MaxReconnects int `mapstructure:"max_reconnects" yaml:"max_reconnects"`
}

// FeedConfig controls unified feed loading.
type FeedConfig struct {
	// AllowPartial returns one source's tickets when the other read fails.
	AllowPartial bool `mapstructure:"allow_partial" yaml:"allow_partial"`
}

// SessionConfig names where the session credential lives.
type SessionConfig struct {
	CredentialKey string `mapstructure:"credential_key" yaml:"credential_key"`
}

// StoreConfig holds the local snapshot cache location.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Push    PushConfig    `mapstructure:"push" yaml:"push"`
	Feed    FeedConfig    `mapstructure:"feed" yaml:"feed"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// RequestTimeout returns the per-call REST timeout.
func (c *AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSec) * time.Second
}

// HandshakeTimeout returns the push handshake timeout.
func (c *AppConfig) HandshakeTimeout() time.Duration {
	return time.Duration(c.Push.HandshakeTimeoutSec) * time.Second
}

// configDir returns ~/.config/ticketdesk, or "." when there is no home.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "ticketdesk")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/ticketdesk/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// configDefaults maps every key to its default value.
func configDefaults() map[string]any {
	return map[string]any{
		"api.base_url":               "http://localhost:8080",
		"api.request_timeout_sec":    15,
		"push.url":                   "ws://localhost:8080/ws",
		"push.handshake_timeout_sec": 10,
		"push.reconnect_min_ms":      500,
		"push.reconnect_max_ms":      30000,
		"push.max_reconnects":        0,
		"feed.allow_partial":         true,
		"session.credential_key":     "session-token",
		"store.path":                 filepath.Join(configDir(), "snapshot.db"),
		"display.theme":              "default",
	}
}

// newViper builds a viper instance with defaults and TICKETDESK_ env
// overrides (e.g. TICKETDESK_API_BASE_URL).
func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ticketdesk")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range configDefaults() {
		v.SetDefault(key, value)
	}
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if _, ok := err.(*os.PathError); !ok && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.API.RequestTimeoutSec <= 0 {
		cfg.API.RequestTimeoutSec = 15
	}
	if cfg.Push.HandshakeTimeoutSec <= 0 {
		cfg.Push.HandshakeTimeoutSec = 10
	}
	if cfg.Session.CredentialKey == "" {
		cfg.Session.CredentialKey = "session-token"
	}

	return cfg, nil
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

	v.Set("api", cfg.API)
	v.Set("push", cfg.Push)
	v.Set("feed", cfg.Feed)
	v.Set("session", cfg.Session)
	v.Set("store", cfg.Store)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
