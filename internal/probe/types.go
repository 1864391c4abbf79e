// Package probe defines the contract between the telemetry prober and the
// state tracker: a tri-state outcome carried by a process exit code plus a
// status line holding an optional state-of-charge fragment.
package probe

import "context"

// Outcome is the tri-state result of one probe.
type Outcome int

const (
	// OutcomeError means the probe could not tell whether AC is present.
	OutcomeError Outcome = iota
	// OutcomePresent means the device reports AC input power.
	OutcomePresent
	// OutcomeAbsent means the device reports no AC input power.
	OutcomeAbsent
)

// Exit codes of the prober process.
const (
	ExitPresent = 0
	ExitAbsent  = 1
	ExitError   = 2
)

func (o Outcome) String() string {
	switch o {
	case OutcomePresent:
		return "present"
	case OutcomeAbsent:
		return "absent"
	default:
		return "error"
	}
}

// Result is produced fresh by every probe and never persisted.
type Result struct {
	Outcome Outcome `json:"-"`
	// Status is Outcome in string form, for JSON consumers.
	Status      string `json:"status"`
	SOC         *int   `json:"soc,omitempty"`
	InputWatts  *int   `json:"input_watts,omitempty"`
	OutputWatts *int   `json:"output_watts,omitempty"`
	// Message is the raw status line (or error text) of the probe.
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Prober samples device telemetry once.
type Prober interface {
	Probe(ctx context.Context) Result
}

// ExitCode maps an outcome to the prober's exit status.
func ExitCode(o Outcome) int {
	switch o {
	case OutcomePresent:
		return ExitPresent
	case OutcomeAbsent:
		return ExitAbsent
	default:
		return ExitError
	}
}

// OutcomeFromExit maps a prober exit status back to an outcome. Any status
// other than ExitPresent or ExitAbsent is an error.
func OutcomeFromExit(code int) Outcome {
	switch code {
	case ExitPresent:
		return OutcomePresent
	case ExitAbsent:
		return OutcomeAbsent
	default:
		return OutcomeError
	}
}
