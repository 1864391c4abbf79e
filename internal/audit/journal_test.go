package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingWriter always returns an error.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func Test_Journal_Log_Cases(t *testing.T) {
	tests := []struct {
		name     string
		entry    Entry
		validate func(t *testing.T, got map[string]any)
	}{
		{
			name: "run id inherited from journal",
			entry: Entry{
				Timestamp: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
				Event:     "ac_notify",
				Params:    map[string]any{"current": "0", "previous": "1"},
				Result:    "ok",
				Duration:  150 * time.Millisecond,
			},
			validate: func(t *testing.T, got map[string]any) {
				t.Helper()
				assert.Equal(t, "run-1", got["run_id"])
				assert.Equal(t, "ac_notify", got["event"])
				assert.Equal(t, "ok", got["result"])
				assert.Equal(t, float64(150*time.Millisecond), got["duration_ns"])
				assert.Equal(t, "2026-01-15T10:30:00Z", got["timestamp"])
			},
		},
		{
			name:  "explicit run id wins and nil params are omitted",
			entry: Entry{RunID: "other", Event: "battery_rearm", Result: "ok"},
			validate: func(t *testing.T, got map[string]any) {
				t.Helper()
				assert.Equal(t, "other", got["run_id"])
				_, has := got["params"]
				assert.False(t, has)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			j := NewJournal(&buf, "run-1")

			require.NoError(t, j.Log(tt.entry))
			require.True(t, strings.HasSuffix(buf.String(), "\n"))

			var got map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
			tt.validate(t, got)
		})
	}
}

func Test_Journal_NilHandling(t *testing.T) {
	assert.Nil(t, NewJournal(nil, "x"))

	var j *Journal
	assert.ErrorIs(t, j.Log(Entry{}), ErrNilWriter)
	assert.NotPanics(t, func() { Record(nil, "ac_notify", nil, "ok", time.Now()) })
}

func Test_Journal_WriteError(t *testing.T) {
	j := NewJournal(failingWriter{}, "x")
	assert.Error(t, j.Log(Entry{Event: "e"}))
	assert.NotPanics(t, func() { Record(j, "e", nil, "ok", time.Now()) })
}

func Test_Journal_ConcurrentLinesStayIntact(t *testing.T) {
	var buf bytes.Buffer
	j := NewJournal(&buf, "run")

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			Record(j, "power_status", map[string]any{"k": "v"}, "ok", time.Now())
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, n)
	for _, line := range lines {
		var e map[string]any
		assert.NoError(t, json.Unmarshal([]byte(line), &e))
	}
}
