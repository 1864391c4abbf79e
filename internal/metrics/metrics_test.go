package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesprial/ecoflow-watch/internal/probe"
	"github.com/jamesprial/ecoflow-watch/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func scrape(t *testing.T, m *Recorder) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func Test_ObserveProbe_Cases(t *testing.T) {
	tests := []struct {
		name   string
		result probe.Result
		want   []string
	}{
		{
			name: "present with readings",
			result: probe.Result{
				Outcome:     probe.OutcomePresent,
				SOC:         intPtr(87),
				InputWatts:  intPtr(310),
				OutputWatts: intPtr(120),
			},
			want: []string{
				"ecoflow_probe_success 1",
				"ecoflow_ac_present 1",
				"ecoflow_soc_percent 87",
				"ecoflow_input_watts 310",
				"ecoflow_output_watts 120",
			},
		},
		{
			name:   "absent without soc",
			result: probe.Result{Outcome: probe.OutcomeAbsent},
			want: []string{
				"ecoflow_probe_success 1",
				"ecoflow_ac_present 0",
				"ecoflow_soc_percent 0",
			},
		},
		{
			name:   "error",
			result: probe.Result{Outcome: probe.OutcomeError, SOC: intPtr(40)},
			want: []string{
				"ecoflow_probe_success 0",
				"ecoflow_soc_percent 0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			m.ObserveProbe(tt.result)

			body := scrape(t, m)
			for _, w := range tt.want {
				assert.Contains(t, body, w)
			}
		})
	}
}

func Test_ObserveReport_CountsAttempts(t *testing.T) {
	m := New()
	start := time.Unix(1700000000, 0)

	m.ObserveReport(tracker.Report{
		BatteryAlerted: true,
		Attempts: []tracker.Attempt{
			{Kind: tracker.KindAC, Err: errors.New("down")},
			{Kind: tracker.KindBattery},
		},
		Errors: []error{errors.New("down")},
	}, start, start.Add(2*time.Second))

	body := scrape(t, m)
	assert.Contains(t, body, `ecoflow_notifications_total{kind="ac",result="error"} 1`)
	assert.Contains(t, body, `ecoflow_notifications_total{kind="battery",result="ok"} 1`)
	assert.Contains(t, body, "ecoflow_tracker_errors_total 1")
	assert.Contains(t, body, "ecoflow_battery_alert_active 1")
	assert.Contains(t, body, "ecoflow_last_run_timestamp_seconds 1.700000002e+09")
	assert.Contains(t, body, "ecoflow_last_run_duration_seconds 2")
}

func Test_ObserveReport_BatteryFlag(t *testing.T) {
	m := New()
	now := time.Now()

	m.ObserveReport(tracker.Report{PreviousBattery: tracker.BatteryAlerted}, now, now)
	assert.Contains(t, scrape(t, m), "ecoflow_battery_alert_active 1")

	m.ObserveReport(tracker.Report{PreviousBattery: tracker.BatteryAlerted, BatteryRearmed: true}, now, now)
	assert.Contains(t, scrape(t, m), "ecoflow_battery_alert_active 0")
}

func Test_WriteTextfile(t *testing.T) {
	m := New()
	m.ObserveProbe(probe.Result{Outcome: probe.OutcomePresent, SOC: intPtr(55)})

	path := filepath.Join(t.TempDir(), "ecoflow.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ecoflow_soc_percent 55")
	assert.Contains(t, string(data), "# HELP ecoflow_ac_present")
}

func Test_WriteTextfile_EmptyPathIsNoOp(t *testing.T) {
	assert.NoError(t, New().WriteTextfile(""))
}

func Test_NilRecorder(t *testing.T) {
	var m *Recorder
	assert.NotPanics(t, func() {
		m.ObserveProbe(probe.Result{Outcome: probe.OutcomePresent})
		m.ObserveReport(tracker.Report{}, time.Now(), time.Now())
		_ = m.WriteTextfile("/nonexistent/x.prom")
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
