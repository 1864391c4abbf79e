package ecoflow

import (
	"context"

	"github.com/jamesprial/ecoflow-watch/internal/probe"
)

// Compile-time interface check.
var _ probe.Prober = (*Sampler)(nil)

// Sampler probes the device in-process: AC is present when the inverter
// reports positive input watts.
type Sampler struct {
	client Client
}

// NewSampler returns a Sampler backed by client.
func NewSampler(client Client) *Sampler {
	if client == nil {
		panic("ecoflow client must not be nil")
	}
	return &Sampler{client: client}
}

// Probe fetches quota once and classifies it. API and transport failures
// become OutcomeError.
func (s *Sampler) Probe(ctx context.Context) probe.Result {
	q, err := s.client.QuotaAll(ctx)
	if err != nil {
		return probe.ErrorResult(err)
	}

	in := q.IntOrZero(KeyInputWatts)
	out := q.IntOrZero(KeyOutputWatts)
	var soc *int
	if v, ok := q.Int(KeySOC); ok {
		soc = &v
	}

	outcome := probe.OutcomeAbsent
	if in > 0 {
		outcome = probe.OutcomePresent
	}

	return probe.Result{
		Outcome:     outcome,
		Status:      outcome.String(),
		SOC:         soc,
		InputWatts:  &in,
		OutputWatts: &out,
		Message:     probe.FormatLine(outcome == probe.OutcomePresent, in, out, soc),
	}
}
