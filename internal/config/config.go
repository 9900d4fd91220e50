package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the resolved hublink configuration.
type Config struct {
	BackendURL   string
	Provider     string
	DisplayName  string
	UserID       string
	OrgID        string
	PollInterval time.Duration
	Timeouts     Timeouts
	Popup        Popup
	Telemetry    Telemetry
	LogPath      string
}

// Timeouts bound the individual backend calls. Zero keeps the client default.
type Timeouts struct {
	Authorize   time.Duration
	Credentials time.Duration
	Items       time.Duration
}

// Popup configures the browser used for the consent window.
type Popup struct {
	Command string
	Args    []string // nil uses the opener's defaults
	Width   int
	Height  int
}

// Telemetry configures optional product analytics.
type Telemetry struct {
	PostHogAPIKey string
	Endpoint      string
}

const (
	defaultConfigPath   = "~/.config/hublink/config.toml"
	defaultLogPath      = "~/.local/state/hublink/hublink.log"
	defaultBackendURL   = "http://localhost:8000"
	defaultProvider     = "hubspot"
	defaultDisplayName  = "HubSpot"
	defaultPollInterval = time.Second
	defaultPopupWidth   = 600
	defaultPopupHeight  = 700
	dotEnvFile          = ".env"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file or overrides exist.
func Default() Config {
	return Config{
		BackendURL:   defaultBackendURL,
		Provider:     defaultProvider,
		DisplayName:  defaultDisplayName,
		PollInterval: defaultPollInterval,
		Popup:        Popup{Width: defaultPopupWidth, Height: defaultPopupHeight},
		LogPath:      mustExpand(defaultLogPath),
	}
}

type rawConfig struct {
	BackendURL   string `toml:"backend_url"`
	Provider     string `toml:"provider"`
	DisplayName  string `toml:"display_name"`
	UserID       string `toml:"user_id"`
	OrgID        string `toml:"org_id"`
	PollInterval string `toml:"poll_interval"`
	LogPath      string `toml:"log_path"`
	Timeouts     struct {
		Authorize   string `toml:"authorize"`
		Credentials string `toml:"credentials"`
		Items       string `toml:"items"`
	} `toml:"timeouts"`
	Popup struct {
		Command string   `toml:"command"`
		Args    []string `toml:"args"`
		Width   int      `toml:"width"`
		Height  int      `toml:"height"`
	} `toml:"popup"`
	Telemetry struct {
		PostHogAPIKey string `toml:"posthog_api_key"`
		Endpoint      string `toml:"endpoint"`
	} `toml:"telemetry"`
}

// envOverrides are applied after the file. Empty values leave the file value.
type envOverrides struct {
	BackendURL    string        `env:"HUBLINK_BACKEND_URL"`
	UserID        string        `env:"HUBLINK_USER_ID"`
	OrgID         string        `env:"HUBLINK_ORG_ID"`
	PollInterval  time.Duration `env:"HUBLINK_POLL_INTERVAL"`
	Browser       string        `env:"HUBLINK_BROWSER"`
	PostHogAPIKey string        `env:"HUBLINK_POSTHOG_API_KEY"`
	LogPath       string        `env:"HUBLINK_LOG_PATH"`
}

// Load reads an optional .env file from the working directory, then the TOML
// config at path (the default path when empty), then environment overrides.
// A missing config file yields defaults.
func Load(path string) (Config, error) {
	if err := loadDotEnv(dotEnvFile); err != nil {
		return Config{}, err
	}

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults only.
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		var raw rawConfig
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if err := applyFile(&cfg, raw); err != nil {
			return Config{}, err
		}
	}

	var overrides envOverrides
	if err := ParseEnv(&overrides); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, overrides); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv parses environment variables into target using env struct tags.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func applyFile(cfg *Config, raw rawConfig) error {
	setString(&cfg.BackendURL, raw.BackendURL)
	setString(&cfg.Provider, strings.ToLower(raw.Provider))
	setString(&cfg.DisplayName, raw.DisplayName)
	setString(&cfg.UserID, raw.UserID)
	setString(&cfg.OrgID, raw.OrgID)
	if strings.TrimSpace(raw.LogPath) != "" {
		cfg.LogPath = mustExpand(raw.LogPath)
	}

	durations := []struct {
		key    string
		raw    string
		target *time.Duration
	}{
		{"poll_interval", raw.PollInterval, &cfg.PollInterval},
		{"timeouts.authorize", raw.Timeouts.Authorize, &cfg.Timeouts.Authorize},
		{"timeouts.credentials", raw.Timeouts.Credentials, &cfg.Timeouts.Credentials},
		{"timeouts.items", raw.Timeouts.Items, &cfg.Timeouts.Items},
	}
	for _, d := range durations {
		if err := setDuration(d.target, d.key, d.raw); err != nil {
			return err
		}
	}

	setString(&cfg.Popup.Command, raw.Popup.Command)
	if raw.Popup.Args != nil {
		cfg.Popup.Args = append([]string{}, raw.Popup.Args...)
	}
	if raw.Popup.Width > 0 {
		cfg.Popup.Width = raw.Popup.Width
	}
	if raw.Popup.Height > 0 {
		cfg.Popup.Height = raw.Popup.Height
	}

	setString(&cfg.Telemetry.PostHogAPIKey, raw.Telemetry.PostHogAPIKey)
	setString(&cfg.Telemetry.Endpoint, raw.Telemetry.Endpoint)
	return nil
}

func applyEnv(cfg *Config, o envOverrides) error {
	setString(&cfg.BackendURL, o.BackendURL)
	setString(&cfg.UserID, o.UserID)
	setString(&cfg.OrgID, o.OrgID)
	setString(&cfg.Popup.Command, o.Browser)
	setString(&cfg.Telemetry.PostHogAPIKey, o.PostHogAPIKey)
	if strings.TrimSpace(o.LogPath) != "" {
		cfg.LogPath = mustExpand(o.LogPath)
	}
	if o.PollInterval < 0 {
		return fmt.Errorf("HUBLINK_POLL_INTERVAL must be positive")
	}
	if o.PollInterval > 0 {
		cfg.PollInterval = o.PollInterval
	}
	return nil
}

func setString(target *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*target = v
	}
}

func setDuration(target *time.Duration, key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("parse %s: must be positive", key)
	}
	*target = d
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
