// Package status exposes live power telemetry and persisted alert state as
// read-only MCP tools.
package status

import "time"

// PowerStatus is the power_status tool result.
type PowerStatus struct {
	Status      string `json:"status"`
	ACPresent   bool   `json:"ac_present"`
	SOC         *int   `json:"soc"`
	InputWatts  *int   `json:"input_watts"`
	OutputWatts *int   `json:"output_watts"`
	Line        string `json:"line"`
}

// AlertState is the alert_state tool result.
type AlertState struct {
	AC               string     `json:"ac_state"`
	BatteryAlert     bool       `json:"battery_alert"`
	BatteryAlertAt   *time.Time `json:"battery_alert_at,omitempty"`
	ACChangedAt      *time.Time `json:"ac_changed_at,omitempty"`
	ACSince          string     `json:"ac_since,omitempty"`
	LowThreshold     int        `json:"low_threshold"`
	RecoverThreshold int        `json:"recover_threshold"`
}
