package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_InitWithWriter_Cases(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantErr   bool
		logDebug  bool
		wantLines int
	}{
		{name: "info level drops debug", config: Config{Level: "info"}, wantLines: 1},
		{name: "debug flag wins over level", config: Config{Level: "error", Debug: true}, logDebug: true, wantLines: 2},
		{name: "level is case insensitive", config: Config{Level: "DEBUG"}, logDebug: true, wantLines: 2},
		{name: "empty level defaults to info", config: Config{}, wantLines: 1},
		{name: "unknown level", config: Config{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := InitWithWriter(tt.config, &buf)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			l := WithComponent("test")
			l.Debug().Msg("debug line")
			l.Info().Msg("info line")

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			assert.Len(t, lines, tt.wantLines)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
			assert.Equal(t, "test", entry["component"])
			assert.Equal(t, "info line", entry["message"])
		})
	}
}

func Test_DefaultConfig_Env(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DEBUG", "yes")
	t.Setenv("LOG_OUTPUT", "stdout")

	cfg := DefaultConfig()
	assert.Equal(t, "warn", cfg.Level)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "stdout", cfg.Output)
}
