package configuration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/pkg/errors"

	"github.com/mrermin/ermin/internal/file"
)

// DefaultPath of the configuration file.
const DefaultPath = "~/.config/ermin/config.json"

func newDefaultConfig() *Config {
	return &Config{
		BackendURL:           "http://localhost:8001",
		InferenceURLResource: "~/.config/ermin/apiurl.txt",
		RequestTimeout:       30,
		Database:             "~/.config/ermin/ermin.db",
		LogFile:              "~/.config/ermin/ermin.log",
		HistoryFile:          "~/.config/ermin/history",

		Identity: &IdentityConfig{
			GoogleClientID: "611753612325-b1m49felg1moh1ublib3udb4n1n8k2j0.apps.googleusercontent.com",
			ScriptURL:      "https://accounts.google.com/gsi/client",
			ListenAddress:  "127.0.0.1:0",
			SignInTimeout:  300,
		},

		PayPal: &PayPalConfig{
			SDKURL:             "https://www.paypal.com/sdk/js",
			ClientID:           "test",
			PollIntervalMillis: 100,
			PollAttempts:       50,
		},

		Server: &ServerConfig{
			Host:     "127.0.0.1",
			Port:     3030,
			PageSize: 100,
		},
	}
}

// Config holds configuration for ermin.
type Config struct {
	// Origin of the chat backend. The client appends /api.
	BackendURL string `json:"backend_url"`
	// Plain-text resource (URL or path) holding the inference endpoint base URL.
	InferenceURLResource string `json:"inference_url_resource"`
	// Optional. The inference endpoint is called unauthenticated when empty.
	InferenceAPIKey string `json:"inference_api_key"`
	// Timeout in seconds for backend calls.
	RequestTimeout int `json:"request_timeout"`
	// SQLite file backing the session store.
	Database string `json:"database"`
	// Debug log destination.
	LogFile string `json:"log_file"`
	// Input history of the line-mode prompt. The TUI keeps its history in the database.
	HistoryFile string `json:"history_file"`

	Identity *IdentityConfig `json:"identity"`
	PayPal   *PayPalConfig   `json:"paypal"`
	Server   *ServerConfig   `json:"server"`
}

// IdentityConfig holds configuration for Google sign-in.
type IdentityConfig struct {
	GoogleClientID string `json:"google_client_id"`
	ScriptURL      string `json:"script_url"`
	// Address of the loopback sign-in page.
	ListenAddress string `json:"listen_address"`
	// Seconds to wait for the user to finish signing in.
	SignInTimeout int `json:"sign_in_timeout"`
}

// PayPalConfig holds configuration for the pay later message.
type PayPalConfig struct {
	ClientID           string `json:"client_id"`
	SDKURL             string `json:"sdk_url"`
	PollIntervalMillis int    `json:"poll_interval_ms"`
	PollAttempts       int    `json:"poll_attempts"`
}

// ServerConfig holds configuration for ermin serve.
type ServerConfig struct {
	// Interface to listen on. The viewer serves the stored session's chats.
	Host     string `json:"host"`
	Port     int    `json:"port"`
	PageSize int    `json:"page_size"`
}

// RequestTimeoutDuration returns the backend request timeout.
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// SignInTimeoutDuration returns how long the sign-in page waits for a credential.
func (c *IdentityConfig) SignInTimeoutDuration() time.Duration {
	return time.Duration(c.SignInTimeout) * time.Second
}

// PollInterval returns the interval between two SDK probes.
func (c *PayPalConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

// Parse a configuration file.
func Parse(path string) (*Config, error) {
	path, err := file.ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "expanding path")
	}

	if err := initializeIfNotPresent(path); err != nil {
		return nil, errors.Wrap(err, "initializing configuration")
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	config := &Config{}
	if err = json.Unmarshal(bytes, config); err != nil {
		return nil, errors.Wrap(err, "unmarshaling into config")
	}
	if err := mergo.Merge(config, newDefaultConfig()); err != nil {
		return nil, errors.Wrap(err, "merging defaults")
	}

	if config.Database, err = file.ExpandPath(config.Database); err != nil {
		return nil, errors.Wrap(err, "expanding database path")
	}
	if config.LogFile, err = file.ExpandPath(config.LogFile); err != nil {
		return nil, errors.Wrap(err, "expanding log file path")
	}
	if config.HistoryFile, err = file.ExpandPath(config.HistoryFile); err != nil {
		return nil, errors.Wrap(err, "expanding history file path")
	}
	if config.InferenceURLResource, err = file.ExpandPath(config.InferenceURLResource); err != nil {
		return nil, errors.Wrap(err, "expanding inference url resource path")
	}
	return config, nil
}

// save a configuration file.
func (c *Config) save(path string) error {
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	err = os.WriteFile(path, bytes, 0644)
	if err != nil {
		return errors.Wrap(err, "writing file")
	}

	return nil
}

// initializeIfNotPresent initializes a config if it does not exist.
func initializeIfNotPresent(path string) error {
	exists, err := file.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := file.CreateDirectoryIfNotExist(filepath.Dir(path)); err != nil {
		return errors.Wrap(err, "creating folders")
	}

	if err := newDefaultConfig().save(path); err != nil {
		return errors.Wrap(err, "saving default config")
	}
	return nil
}
