// Package config provides configuration loading and defaults for the
// ecoflow-watch binaries.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/jamesprial/ecoflow-watch/internal/logger"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks errors caused by missing or malformed mandatory
// settings. Binaries exit with status 2 when they see it.
var ErrConfiguration = errors.New("configuration error")

// Probe modes.
const (
	ProbeModeExec   = "exec"
	ProbeModeDirect = "direct"
)

// State backends.
const (
	StateBackendFile   = "file"
	StateBackendSQLite = "sqlite"
)

// EcoFlowConfig holds credentials and connection details for the EcoFlow
// open API.
type EcoFlowConfig struct {
	BaseURL      string `yaml:"base_url"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	SerialNumber string `yaml:"serial_number"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// ProbeConfig selects how cmd/watch obtains a probe result.
type ProbeConfig struct {
	Mode    string   `yaml:"mode"`
	Command []string `yaml:"command"`
	// Timeout bounds the external prober run, in seconds.
	Timeout int `yaml:"timeout"`
}

// TelegramConfig is the notification destination. BotToken and ChatID are
// mandatory for cmd/watch.
type TelegramConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChatID    string `yaml:"chat_id"`
	ParseMode string `yaml:"parse_mode"`
	APIURL    string `yaml:"api_url"`
	Timeout   int    `yaml:"timeout"`
}

// DiscordConfig enables an optional second destination.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Enabled reports whether both Discord settings are present.
func (d DiscordConfig) Enabled() bool {
	return d.BotToken != "" && d.ChannelID != ""
}

// BatteryConfig holds the low-battery hysteresis thresholds in percent.
type BatteryConfig struct {
	LowThreshold     int `yaml:"low_threshold"`
	RecoverThreshold int `yaml:"recover_threshold"`
}

// StateConfig controls where tracker state is persisted.
type StateConfig struct {
	Backend    string `yaml:"backend"`
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
	// LockTimeout is how long to wait for the state lock, in seconds.
	LockTimeout int `yaml:"lock_timeout"`
}

// MetricsConfig controls Prometheus output.
type MetricsConfig struct {
	// Textfile, when set, is where cmd/watch writes node-exporter textfile
	// metrics after each run.
	Textfile string `yaml:"textfile"`
}

// AuditConfig controls the NDJSON run journal.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path"`
}

// ServerConfig holds network and authentication settings for cmd/server.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// MessagesConfig overrides the notification templates. Empty fields keep
// the built-in text.
type MessagesConfig struct {
	ACRestored string `yaml:"ac_restored"`
	ACLost     string `yaml:"ac_lost"`
	BatteryLow string `yaml:"battery_low"`
}

// Config is the top-level configuration structure.
type Config struct {
	EcoFlow  EcoFlowConfig  `yaml:"ecoflow"`
	Probe    ProbeConfig    `yaml:"probe"`
	Telegram TelegramConfig `yaml:"telegram"`
	Discord  DiscordConfig  `yaml:"discord"`
	Battery  BatteryConfig  `yaml:"battery"`
	State    StateConfig    `yaml:"state"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Audit    AuditConfig    `yaml:"audit"`
	Server   ServerConfig   `yaml:"server"`
	Messages MessagesConfig `yaml:"messages"`
	Log      logger.Config  `yaml:"log"`
}

// LoadConfig reads and parses a YAML configuration file from the given path.
// Fields absent from the file keep their DefaultConfig values.
// On error, nil is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// ConfigPathEnv names the variable consulted for the config file path when
// no -config flag is given.
const ConfigPathEnv = "ECOFLOW_WATCH_CONFIG"

// Load returns the configuration the binaries run with: the YAML file at
// path (defaults when path is empty) with environment overrides applied.
// A non-integer threshold variable is reported as an error wrapping
// ErrConfiguration; file errors are wrapped with ErrConfiguration too.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		cfg = loaded
	}
	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		EcoFlow: EcoFlowConfig{
			BaseURL: "https://api-e.ecoflow.com",
			Timeout: 20,
		},
		Probe: ProbeConfig{
			Mode:    ProbeModeExec,
			Command: []string{"/usr/local/bin/ecoflow-probe"},
			Timeout: 60,
		},
		Telegram: TelegramConfig{
			ParseMode: "Markdown",
			APIURL:    "https://api.telegram.org",
			Timeout:   20,
		},
		Battery: BatteryConfig{
			LowThreshold:     10,
			RecoverThreshold: 12,
		},
		State: StateConfig{
			Backend:     StateBackendFile,
			Dir:         "/srv/ecoflow",
			SQLitePath:  "/srv/ecoflow/state.db",
			LockTimeout: 10,
		},
		Audit: AuditConfig{
			LogPath: "/srv/ecoflow/journal.log",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Log: logger.Config{
			Level:  "info",
			Output: "stderr",
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment
// variables. Empty variables are ignored. Recognized variables:
//   - ECOFLOW_BASE, ECOFLOW_ACCESS_KEY, ECOFLOW_SECRET_KEY, ECOFLOW_SN
//   - TG_BOT_TOKEN, TG_CHAT_ID
//   - DISCORD_BOT_TOKEN, DISCORD_CHANNEL_ID
//   - BATT_LOW_THRESHOLD, BATT_RECOVER_THRESHOLD (integers)
//   - ECOFLOW_STATE_DIR
//   - ECOFLOW_WATCH_AUTH_TOKEN
//
// A threshold that is not an integer yields an error wrapping
// ErrConfiguration; string overrides are still applied in that case.
func ApplyEnvOverrides(cfg *Config) error {
	setString(&cfg.EcoFlow.BaseURL, "ECOFLOW_BASE")
	setString(&cfg.EcoFlow.AccessKey, "ECOFLOW_ACCESS_KEY")
	setString(&cfg.EcoFlow.SecretKey, "ECOFLOW_SECRET_KEY")
	setString(&cfg.EcoFlow.SerialNumber, "ECOFLOW_SN")
	setString(&cfg.Telegram.BotToken, "TG_BOT_TOKEN")
	setString(&cfg.Telegram.ChatID, "TG_CHAT_ID")
	setString(&cfg.Discord.BotToken, "DISCORD_BOT_TOKEN")
	setString(&cfg.Discord.ChannelID, "DISCORD_CHANNEL_ID")
	setString(&cfg.State.Dir, "ECOFLOW_STATE_DIR")
	setString(&cfg.Server.AuthToken, "ECOFLOW_WATCH_AUTH_TOKEN")

	return errors.Join(
		setInt(&cfg.Battery.LowThreshold, "BATT_LOW_THRESHOLD"),
		setInt(&cfg.Battery.RecoverThreshold, "BATT_RECOVER_THRESHOLD"),
	)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer", ErrConfiguration, key, v)
	}
	*dst = n
	return nil
}

// ValidateNotifier checks the settings cmd/watch cannot run without.
func (c *Config) ValidateNotifier() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("%w: TG_BOT_TOKEN missing", ErrConfiguration)
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("%w: TG_CHAT_ID missing", ErrConfiguration)
	}
	return nil
}

// ValidateEcoFlow checks the credentials needed to query the EcoFlow API.
func (c *Config) ValidateEcoFlow() error {
	switch {
	case c.EcoFlow.AccessKey == "":
		return fmt.Errorf("%w: ECOFLOW_ACCESS_KEY missing", ErrConfiguration)
	case c.EcoFlow.SecretKey == "":
		return fmt.Errorf("%w: ECOFLOW_SECRET_KEY missing", ErrConfiguration)
	case c.EcoFlow.SerialNumber == "":
		return fmt.Errorf("%w: ECOFLOW_SN missing", ErrConfiguration)
	}
	return nil
}

// ValidateState checks that the configured state backend is known.
func (c *Config) ValidateState() error {
	switch c.State.Backend {
	case StateBackendFile, "":
		return nil
	case StateBackendSQLite:
		if c.State.SQLitePath == "" {
			return fmt.Errorf("%w: state.sqlite_path missing", ErrConfiguration)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown state backend %q", ErrConfiguration, c.State.Backend)
	}
}

// ThresholdsInverted reports whether the recover threshold is below the low
// threshold. Such a configuration is accepted but re-triggers the low
// battery alert whenever the charge settles between the two values.
func (c *Config) ThresholdsInverted() bool {
	return c.Battery.RecoverThreshold < c.Battery.LowThreshold
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
