// Package metrics exposes probe readings and notification outcomes as
// Prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jamesprial/ecoflow-watch/internal/probe"
	"github.com/jamesprial/ecoflow-watch/internal/tracker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Notification results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder bundles the ecoflow-watch metrics on a private registry. A nil
// *Recorder ignores every call.
type Recorder struct {
	registry *prometheus.Registry

	ACPresent       prometheus.Gauge
	SOC             prometheus.Gauge
	InputWatts      prometheus.Gauge
	OutputWatts     prometheus.Gauge
	ProbeSuccess    prometheus.Gauge
	LastRun         prometheus.Gauge
	RunDuration     prometheus.Gauge
	BatteryAlerted  prometheus.Gauge
	Notifications   *prometheus.CounterVec
	TrackerFailures prometheus.Counter
}

// New constructs and registers metrics.
func New() *Recorder {
	m := &Recorder{
		registry: prometheus.NewRegistry(),
		ACPresent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecoflow_ac_present",
			Help: "1 when mains power was present at the last successful probe",
		}),
		SOC: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecoflow_soc_percent",
			Help: "Battery state of charge in percent",
		}),
		InputWatts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecoflow_input_watts",
			Help: "Inverter AC input power in watts",
		}),
		OutputWatts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecoflow_output_watts",
			Help: "Total output power in watts",
		}),
		ProbeSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecoflow_probe_success",
			Help: "1 when the last probe returned a usable result",
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecoflow_last_run_timestamp_seconds",
			Help: "Unix time of the last tracker run",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecoflow_last_run_duration_seconds",
			Help: "Wall time of the last tracker run",
		}),
		BatteryAlerted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecoflow_battery_alert_active",
			Help: "1 while a low battery alert is outstanding",
		}),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecoflow_notifications_total",
				Help: "Notification attempts by kind and result",
			},
			[]string{"kind", "result"},
		),
		TrackerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecoflow_tracker_errors_total",
			Help: "Absorbed tracker failures (sends, renders, state writes)",
		}),
	}
	m.registry.MustRegister(
		m.ACPresent,
		m.SOC,
		m.InputWatts,
		m.OutputWatts,
		m.ProbeSuccess,
		m.LastRun,
		m.RunDuration,
		m.BatteryAlerted,
		m.Notifications,
		m.TrackerFailures,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Recorder) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveProbe records a probe result. Readings absent from res leave the
// previous gauge values untouched.
func (m *Recorder) ObserveProbe(res probe.Result) {
	if m == nil {
		return
	}
	switch res.Outcome {
	case probe.OutcomePresent:
		m.ProbeSuccess.Set(1)
		m.ACPresent.Set(1)
	case probe.OutcomeAbsent:
		m.ProbeSuccess.Set(1)
		m.ACPresent.Set(0)
	default:
		m.ProbeSuccess.Set(0)
		return
	}
	setOptional(m.SOC, res.SOC)
	setOptional(m.InputWatts, res.InputWatts)
	setOptional(m.OutputWatts, res.OutputWatts)
}

func setOptional(g prometheus.Gauge, v *int) {
	if v != nil {
		g.Set(float64(*v))
	}
}

// ObserveReport records the outcome of one tracker run that started at
// start.
func (m *Recorder) ObserveReport(rep tracker.Report, start, end time.Time) {
	if m == nil {
		return
	}
	m.LastRun.Set(float64(end.Unix()))
	m.RunDuration.Set(end.Sub(start).Seconds())

	for _, a := range rep.Attempts {
		result := ResultOK
		if a.Err != nil {
			result = ResultError
		}
		m.Notifications.WithLabelValues(a.Kind, result).Inc()
	}
	m.TrackerFailures.Add(float64(len(rep.Errors)))

	switch {
	case rep.BatteryAlerted:
		m.BatteryAlerted.Set(1)
	case rep.BatteryRearmed:
		m.BatteryAlerted.Set(0)
	case !rep.Skipped && rep.PreviousBattery != "":
		m.BatteryAlerted.Set(boolFloat(rep.PreviousBattery == tracker.BatteryAlerted))
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// WriteTextfile atomically writes every metric in the node-exporter
// textfile format.
func (m *Recorder) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Recorder) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
