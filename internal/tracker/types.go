// Package tracker decides, once per run, whether AC-power or low-battery
// notifications are due and keeps the persisted flags that make every real
// transition notify exactly once.
package tracker

import (
	"context"
	"strings"
	"time"
)

// Persisted keys.
const (
	KeyACState      = "ac_state"
	KeyBatteryState = "batt_low_state"
	KeyACChangedAt  = "ac_changed_at"
)

// ACStatus is the last announced AC state. Its value is the persisted token.
type ACStatus string

const (
	ACUnknown ACStatus = "unknown"
	ACAbsent  ACStatus = "0"
	ACPresent ACStatus = "1"
)

// ParseACStatus decodes a persisted token. Anything other than "0" or "1"
// is ACUnknown, which never equals a probed status.
func ParseACStatus(s string) ACStatus {
	switch strings.TrimSpace(s) {
	case string(ACAbsent):
		return ACAbsent
	case string(ACPresent):
		return ACPresent
	default:
		return ACUnknown
	}
}

// BatteryFlag records whether a low-battery message is outstanding.
type BatteryFlag string

const (
	BatteryNotAlerted BatteryFlag = "0"
	BatteryAlerted    BatteryFlag = "1"
)

// ParseBatteryFlag decodes a persisted token; only "1" means alerted.
func ParseBatteryFlag(s string) BatteryFlag {
	if strings.TrimSpace(s) == string(BatteryAlerted) {
		return BatteryAlerted
	}
	return BatteryNotAlerted
}

// Thresholds are the low-battery hysteresis bounds in percent. Recover is
// expected to be >= Low but this is not enforced.
type Thresholds struct {
	Low     int
	Recover int
}

// Notifier delivers one message. A returned error means it was not
// delivered.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Reader reads persisted scalars.
type Reader interface {
	Get(ctx context.Context, key string) (string, error)
}

// Store is the persisted key/scalar storage the tracker owns.
type Store interface {
	Reader
	Set(ctx context.Context, key, value string) error
}

// Attempt kinds.
const (
	KindAC      = "ac"
	KindBattery = "battery"
)

// Attempt is one notification send.
type Attempt struct {
	Kind string
	Err  error
}

// Report describes what a run did.
type Report struct {
	// Skipped is set when the probe failed and nothing was evaluated.
	Skipped bool

	PreviousAC ACStatus
	CurrentAC  ACStatus
	ACNotified bool

	PreviousBattery BatteryFlag
	BatteryAlerted  bool
	BatteryRearmed  bool

	Attempts []Attempt
	// Errors holds every absorbed failure: sends, renders and writes.
	Errors []error
}

// Snapshot is the decoded persisted state.
type Snapshot struct {
	AC          ACStatus    `json:"ac_status"`
	Battery     BatteryFlag `json:"battery_alert"`
	ACChangedAt *time.Time  `json:"ac_changed_at,omitempty"`
}
