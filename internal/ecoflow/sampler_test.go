package ecoflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jamesprial/ecoflow-watch/internal/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient implements Client for sampler tests.
type mockClient struct {
	quotaFunc func(ctx context.Context) (Quota, error)
}

func (m *mockClient) QuotaAll(ctx context.Context) (Quota, error) {
	return m.quotaFunc(ctx)
}

var _ Client = (*mockClient)(nil)

func quotaOf(q Quota, err error) *mockClient {
	return &mockClient{quotaFunc: func(context.Context) (Quota, error) { return q, err }}
}

func Test_NewSampler_NilPanics(t *testing.T) {
	assert.Panics(t, func() { NewSampler(nil) })
}

func Test_Sampler_Probe_Cases(t *testing.T) {
	tests := []struct {
		name        string
		client      *mockClient
		wantOutcome probe.Outcome
		wantSOC     *int
		wantMessage string
	}{
		{
			name:        "positive input is present",
			client:      quotaOf(Quota{KeyInputWatts: json.Number("230"), KeyOutputWatts: json.Number("45"), KeySOC: json.Number("87")}, nil),
			wantOutcome: probe.OutcomePresent,
			wantSOC:     intPtr(87),
			wantMessage: "AC=1 inv.inputWatts=230W out=45W soc=87",
		},
		{
			name:        "zero input is absent",
			client:      quotaOf(Quota{KeyInputWatts: json.Number("0"), KeyOutputWatts: json.Number("120"), KeySOC: json.Number("9")}, nil),
			wantOutcome: probe.OutcomeAbsent,
			wantSOC:     intPtr(9),
			wantMessage: "AC=0 inv.inputWatts=0W out=120W soc=9",
		},
		{
			name:        "missing fields default to zero and unknown soc",
			client:      quotaOf(Quota{}, nil),
			wantOutcome: probe.OutcomeAbsent,
			wantMessage: "AC=0 inv.inputWatts=0W out=0W soc=n/a",
		},
		{
			name:        "null input is zero",
			client:      quotaOf(Quota{KeyInputWatts: nil, KeySOC: json.Number("55.9")}, nil),
			wantOutcome: probe.OutcomeAbsent,
			wantSOC:     intPtr(55),
			wantMessage: "AC=0 inv.inputWatts=0W out=0W soc=55",
		},
		{
			name:        "api error is probe error",
			client:      quotaOf(nil, &APIError{Code: "8521", Message: "bad sign"}),
			wantOutcome: probe.OutcomeError,
			wantMessage: "ecoflow: api code 8521: bad sign",
		},
		{
			name:        "transport error is probe error",
			client:      quotaOf(nil, errors.New("dial tcp: timeout")),
			wantOutcome: probe.OutcomeError,
			wantMessage: "dial tcp: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewSampler(tt.client).Probe(context.Background())
			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantSOC, res.SOC)
			assert.Equal(t, tt.wantMessage, res.Message)
			if tt.wantOutcome == probe.OutcomeError {
				require.Error(t, res.Err)
			} else {
				require.NoError(t, res.Err)
			}
		})
	}
}

func Test_Sampler_MessageIsParsable(t *testing.T) {
	res := NewSampler(quotaOf(Quota{KeyInputWatts: json.Number("10"), KeySOC: json.Number("42")}, nil)).Probe(context.Background())

	soc, in, _ := probe.ParseOutput(res.Message)
	require.NotNil(t, soc)
	assert.Equal(t, 42, *soc)
	require.NotNil(t, in)
	assert.Equal(t, 10, *in)
}

func intPtr(v int) *int { return &v }
