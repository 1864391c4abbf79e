// Package app assembles probers, notifiers and state stores from a Config
// for the ecoflow-watch binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesprial/ecoflow-watch/internal/audit"
	"github.com/jamesprial/ecoflow-watch/internal/config"
	"github.com/jamesprial/ecoflow-watch/internal/ecoflow"
	"github.com/jamesprial/ecoflow-watch/internal/notify"
	"github.com/jamesprial/ecoflow-watch/internal/probe"
	"github.com/jamesprial/ecoflow-watch/internal/state"
	"github.com/jamesprial/ecoflow-watch/internal/tracker"
	"github.com/rs/zerolog"
)

// NewSampler builds the in-process EcoFlow prober. Missing credentials are a
// configuration error.
func NewSampler(cfg *config.Config) (*ecoflow.Sampler, error) {
	if err := cfg.ValidateEcoFlow(); err != nil {
		return nil, err
	}
	client, err := ecoflow.NewHTTPClient(cfg.EcoFlow)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}
	return ecoflow.NewSampler(client), nil
}

// NewProber selects the prober named by cfg.Probe.Mode.
func NewProber(cfg *config.Config) (probe.Prober, error) {
	switch cfg.Probe.Mode {
	case config.ProbeModeDirect:
		s, err := NewSampler(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ProbeModeExec, "":
		p, err := probe.NewExecProber(cfg.Probe.Command, time.Duration(cfg.Probe.Timeout)*time.Second)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown probe mode %q", config.ErrConfiguration, cfg.Probe.Mode)
	}
}

// NewNotifier builds the Telegram channel plus Discord when configured.
func NewNotifier(cfg *config.Config, log zerolog.Logger) (*notify.MultiChannel, error) {
	if err := cfg.ValidateNotifier(); err != nil {
		return nil, err
	}

	tg, err := notify.NewTelegramChannel(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
		notify.WithTelegramAPI(cfg.Telegram.APIURL),
		notify.WithParseMode(cfg.Telegram.ParseMode),
		notify.WithTelegramTimeout(time.Duration(cfg.Telegram.Timeout)*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}
	channels := []notify.Channel{tg}

	if cfg.Discord.Enabled() {
		dc, err := notify.NewDiscordChannel(cfg.Discord.BotToken, cfg.Discord.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
		}
		channels = append(channels, dc)
	}

	return notify.NewMultiChannel(log, channels...), nil
}

// NewMessages parses the configured templates.
func NewMessages(cfg *config.Config) (*notify.Messages, error) {
	m, err := notify.NewMessages(cfg.Messages.ACRestored, cfg.Messages.ACLost, cfg.Messages.BatteryLow)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}
	return m, nil
}

// Store is an opened state backend.
type Store struct {
	tracker.Store
	// LockPath guards the read-decide-write sequence for this backend.
	LockPath string
	closer   io.Closer
}

// UpdatedAt reports when key was last written, for backends that track it.
func (s *Store) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	ts, ok := s.Store.(state.Timestamped)
	if !ok {
		return time.Time{}, fmt.Errorf("state: %T does not record write times", s.Store)
	}
	return ts.UpdatedAt(ctx, key)
}

// Close releases backend resources.
func (s *Store) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// OpenStore opens the backend named by cfg.State.Backend.
func OpenStore(cfg *config.Config) (*Store, error) {
	if err := cfg.ValidateState(); err != nil {
		return nil, err
	}
	st := cfg.State
	switch st.Backend {
	case config.StateBackendSQLite:
		db, err := state.OpenSQLiteStore(st.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Store{Store: db, LockPath: st.SQLitePath + ".lock", closer: db}, nil
	default:
		files, err := state.NewFileStore(st.Dir)
		if err != nil {
			return nil, err
		}
		return &Store{Store: files, LockPath: filepath.Join(st.Dir, ".lock")}, nil
	}
}

// OpenJournal opens the append-only journal when enabled. The returned
// close function is always safe to call.
func OpenJournal(cfg config.AuditConfig, runID string) (*audit.Journal, func() error, error) {
	noop := func() error { return nil }
	if !cfg.Enabled {
		return nil, noop, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return nil, noop, fmt.Errorf("audit journal dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, noop, fmt.Errorf("open audit journal: %w", err)
	}
	return audit.NewJournal(f, runID), f.Close, nil
}

// Thresholds converts the battery section.
func Thresholds(cfg *config.Config) tracker.Thresholds {
	return tracker.Thresholds{
		Low:     cfg.Battery.LowThreshold,
		Recover: cfg.Battery.RecoverThreshold,
	}
}
