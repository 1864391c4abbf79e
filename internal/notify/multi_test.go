package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/jamesprial/ecoflow-watch/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannel records sends and optionally fails.
type fakeChannel struct {
	name string
	err  error
	sent []string
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Send(_ context.Context, text string) error {
	f.sent = append(f.sent, text)
	return f.err
}

func Test_MultiChannel_Send_Cases(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		channels []*fakeChannel
		wantErr  bool
	}{
		{name: "all succeed", channels: []*fakeChannel{{name: "a"}, {name: "b"}}},
		{name: "one of two fails", channels: []*fakeChannel{{name: "a", err: boom}, {name: "b"}}},
		{name: "all fail", channels: []*fakeChannel{{name: "a", err: boom}, {name: "b", err: boom}}, wantErr: true},
		{name: "single failing channel", channels: []*fakeChannel{{name: "a", err: boom}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chs := make([]Channel, 0, len(tt.channels))
			for _, c := range tt.channels {
				chs = append(chs, c)
			}
			m := NewMultiChannel(logger.NewTestLogger(), chs...)

			err := m.Send(context.Background(), "msg")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, boom)
			} else {
				require.NoError(t, err)
			}
			for _, c := range tt.channels {
				assert.Equal(t, []string{"msg"}, c.sent, "every channel is attempted")
			}
		})
	}
}

func Test_MultiChannel_NoChannels(t *testing.T) {
	m := NewMultiChannel(logger.NewTestLogger(), nil)
	assert.Error(t, m.Send(context.Background(), "msg"))
}
