package status

import (
	"context"
	"time"

	"github.com/jamesprial/ecoflow-watch/internal/audit"
	"github.com/jamesprial/ecoflow-watch/internal/metrics"
	"github.com/jamesprial/ecoflow-watch/internal/probe"
	"github.com/jamesprial/ecoflow-watch/internal/state"
	"github.com/jamesprial/ecoflow-watch/internal/tools"
	"github.com/jamesprial/ecoflow-watch/internal/tracker"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	toolNamePowerStatus = "power_status"
	toolNameAlertState  = "alert_state"
)

// acLabels maps the persisted AC token to a readable label.
var acLabels = map[tracker.ACStatus]string{
	tracker.ACPresent: "present",
	tracker.ACAbsent:  "absent",
	tracker.ACUnknown: "unknown",
}

// StatusTools returns the read-only status tool registrations. rec may be
// nil; when set, every live sample also updates the exported gauges.
func StatusTools(prober probe.Prober, store tracker.Reader, thresholds tracker.Thresholds, journal *audit.Journal, rec *metrics.Recorder) []tools.Registration {
	return []tools.Registration{
		powerStatus(prober, journal, rec),
		alertState(store, thresholds, journal),
	}
}

// powerStatus constructs the power_status Registration.
func powerStatus(prober probe.Prober, journal *audit.Journal, rec *metrics.Recorder) tools.Registration {
	tool := mcp.NewTool(toolNamePowerStatus,
		mcp.WithDescription("Query the EcoFlow station now and report mains presence, battery charge, and input/output power."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		res := prober.Probe(ctx)
		rec.ObserveProbe(res)

		if res.Outcome == probe.OutcomeError {
			msg := res.Message
			if res.Err != nil {
				msg = res.Err.Error()
			}
			tools.LogAudit(journal, toolNamePowerStatus, params, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		tools.LogAudit(journal, toolNamePowerStatus, params, "ok", start)
		return tools.JSONResult(PowerStatus{
			Status:      res.Outcome.String(),
			ACPresent:   res.Outcome == probe.OutcomePresent,
			SOC:         res.SOC,
			InputWatts:  res.InputWatts,
			OutputWatts: res.OutputWatts,
			Line:        res.Message,
		}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// alertState constructs the alert_state Registration.
func alertState(store tracker.Reader, thresholds tracker.Thresholds, journal *audit.Journal) tools.Registration {
	tool := mcp.NewTool(toolNameAlertState,
		mcp.WithDescription("Show the last announced mains state, whether a low battery alert is outstanding, and the configured thresholds."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		snap := tracker.LoadSnapshot(ctx, store)

		out := AlertState{
			AC:               acLabels[snap.AC],
			BatteryAlert:     snap.Battery == tracker.BatteryAlerted,
			ACChangedAt:      snap.ACChangedAt,
			LowThreshold:     thresholds.Low,
			RecoverThreshold: thresholds.Recover,
		}
		if snap.ACChangedAt != nil {
			out.ACSince = tracker.FormatDuration(time.Since(*snap.ACChangedAt))
		}
		// The flag is only rewritten on transitions, so its write time is
		// when the outstanding alert fired.
		if ts, ok := store.(state.Timestamped); ok && out.BatteryAlert {
			if at, err := ts.UpdatedAt(ctx, tracker.KeyBatteryState); err == nil {
				at = at.UTC()
				out.BatteryAlertAt = &at
			}
		}

		tools.LogAudit(journal, toolNameAlertState, map[string]any{}, "ok", start)
		return tools.JSONResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
