package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hako/durafmt"
	"github.com/jamesprial/ecoflow-watch/internal/audit"
	"github.com/jamesprial/ecoflow-watch/internal/notify"
	"github.com/jamesprial/ecoflow-watch/internal/probe"
	"github.com/jamesprial/ecoflow-watch/internal/state"
	"github.com/rs/zerolog"
)

// Tracker evaluates probe results against persisted state.
type Tracker struct {
	store      Store
	notifier   Notifier
	thresholds Thresholds
	messages   *notify.Messages
	log        zerolog.Logger
	journal    *audit.Journal
	now        func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMessages overrides the built-in message templates.
func WithMessages(m *notify.Messages) Option {
	return func(t *Tracker) {
		if m != nil {
			t.messages = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Tracker) {
		t.log = l
	}
}

// WithJournal records every send and re-arm.
func WithJournal(j *audit.Journal) Option {
	return func(t *Tracker) {
		t.journal = j
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New constructs a Tracker.
func New(store Store, notifier Notifier, thresholds Thresholds, opts ...Option) (*Tracker, error) {
	if store == nil {
		return nil, errors.New("tracker: nil store")
	}
	if notifier == nil {
		return nil, errors.New("tracker: nil notifier")
	}
	t := &Tracker{
		store:      store,
		notifier:   notifier,
		thresholds: thresholds,
		messages:   notify.DefaultMessages(),
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Run evaluates one probe result. A failed probe is a no-op: no message is
// sent and no state changes. Otherwise the AC check runs first and the
// battery check second; a failure in one never prevents the other.
func (t *Tracker) Run(ctx context.Context, res probe.Result) Report {
	var rep Report

	if res.Outcome != probe.OutcomePresent && res.Outcome != probe.OutcomeAbsent {
		t.log.Info().Err(res.Err).Str("message", res.Message).Msg("skip notify due to probe error")
		rep.Skipped = true
		return rep
	}

	t.checkAC(ctx, res, &rep)
	t.checkBattery(ctx, res, &rep)

	return rep
}

func (t *Tracker) checkAC(ctx context.Context, res probe.Result, rep *Report) {
	current := ACAbsent
	if res.Outcome == probe.OutcomePresent {
		current = ACPresent
	}
	prev := ParseACStatus(t.read(ctx, KeyACState, string(ACUnknown)))
	rep.PreviousAC, rep.CurrentAC = prev, current

	if prev == current {
		return
	}

	now := t.now()
	data := notify.MessageData{Line: res.Message}
	var (
		text string
		err  error
	)
	if current == ACPresent {
		if prev == ACAbsent {
			data.Outage = t.outage(ctx, now)
		}
		text, err = t.messages.ACRestored(data)
	} else {
		text, err = t.messages.ACLost(data)
	}
	if err != nil {
		t.absorb(rep, err, "render AC message")
		return
	}

	params := map[string]any{"previous": string(prev), "current": string(current)}
	if err := t.send(ctx, rep, KindAC, "ac_notify", text, params); err != nil {
		return
	}
	rep.ACNotified = true

	if err := t.store.Set(ctx, KeyACState, string(current)); err != nil {
		t.absorb(rep, err, "persist AC state")
		return
	}
	if err := t.store.Set(ctx, KeyACChangedAt, now.UTC().Format(time.RFC3339)); err != nil {
		t.log.Warn().Err(err).Msg("persist AC transition time")
	}
}

// outage formats the time since the last persisted transition, or "" when
// it is unknown.
func (t *Tracker) outage(ctx context.Context, now time.Time) string {
	raw := t.read(ctx, KeyACChangedAt, "")
	if raw == "" {
		return ""
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t.log.Debug().Err(err).Str("value", raw).Msg("ignore malformed transition time")
		return ""
	}
	return FormatDuration(now.Sub(since))
}

// FormatDuration renders d to whole seconds using its two largest units,
// for example "2 hours 5 minutes". Durations under a second render as "".
func FormatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Second {
		return ""
	}
	return durafmt.Parse(d).LimitFirstN(2).String()
}

func (t *Tracker) checkBattery(ctx context.Context, res probe.Result, rep *Report) {
	if res.SOC == nil {
		return
	}
	soc := *res.SOC
	prev := ParseBatteryFlag(t.read(ctx, KeyBatteryState, string(BatteryNotAlerted)))
	rep.PreviousBattery = prev

	// Both checks use the flag as loaded at the start of the run.
	if soc <= t.thresholds.Low && prev != BatteryAlerted {
		t.alertBattery(ctx, rep, soc)
	}

	if soc >= t.thresholds.Recover && prev == BatteryAlerted {
		start := t.now()
		params := map[string]any{"soc": soc, "recover_threshold": t.thresholds.Recover}
		if err := t.store.Set(ctx, KeyBatteryState, string(BatteryNotAlerted)); err != nil {
			t.absorb(rep, err, "persist battery re-arm")
			audit.Record(t.journal, "battery_rearm", params, "error: "+err.Error(), start)
			return
		}
		rep.BatteryRearmed = true
		audit.Record(t.journal, "battery_rearm", params, "ok", start)
		t.log.Info().Int("soc", soc).Int("recover_threshold", t.thresholds.Recover).Msg("low battery alert re-armed")
	}
}

func (t *Tracker) alertBattery(ctx context.Context, rep *Report, soc int) {
	text, err := t.messages.BatteryLow(notify.MessageData{SOC: soc, Threshold: t.thresholds.Low})
	if err != nil {
		t.absorb(rep, err, "render battery message")
		return
	}

	params := map[string]any{"soc": soc, "low_threshold": t.thresholds.Low}
	if err := t.send(ctx, rep, KindBattery, "battery_notify", text, params); err != nil {
		return
	}
	rep.BatteryAlerted = true

	if err := t.store.Set(ctx, KeyBatteryState, string(BatteryAlerted)); err != nil {
		t.absorb(rep, err, "persist battery alert")
	}
}

// send delivers text and records the attempt. The returned error has
// already been absorbed into rep.
func (t *Tracker) send(ctx context.Context, rep *Report, kind, event, text string, params map[string]any) error {
	start := t.now()
	err := t.notifier.Send(ctx, text)
	rep.Attempts = append(rep.Attempts, Attempt{Kind: kind, Err: err})
	if err != nil {
		t.absorb(rep, err, "send "+kind+" notification")
		audit.Record(t.journal, event, params, "error: "+err.Error(), start)
		return err
	}
	audit.Record(t.journal, event, params, "ok", start)
	t.log.Info().Str("kind", kind).Fields(params).Msg("notification sent")
	return nil
}

// read returns the stored value for key, or def when it is missing or
// unreadable.
func (t *Tracker) read(ctx context.Context, key, def string) string {
	v, err := t.store.Get(ctx, key)
	switch {
	case err == nil:
		return v
	case errors.Is(err, state.ErrNotFound):
		return def
	default:
		t.log.Warn().Err(err).Str("key", key).Msg("state unreadable, using default")
		return def
	}
}

func (t *Tracker) absorb(rep *Report, err error, what string) {
	t.log.Warn().Err(err).Msg(what)
	rep.Errors = append(rep.Errors, fmt.Errorf("tracker: %s: %w", what, err))
}

// LoadSnapshot decodes the persisted state. Missing or unreadable values
// decode to their defaults.
func LoadSnapshot(ctx context.Context, store Reader) Snapshot {
	get := func(key string) string {
		v, err := store.Get(ctx, key)
		if err != nil {
			return ""
		}
		return v
	}

	snap := Snapshot{
		AC:      ParseACStatus(get(KeyACState)),
		Battery: ParseBatteryFlag(get(KeyBatteryState)),
	}
	if raw := get(KeyACChangedAt); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			snap.ACChangedAt = &ts
		}
	}
	return snap
}
