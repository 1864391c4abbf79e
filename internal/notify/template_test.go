package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DefaultMessages_Render(t *testing.T) {
	m := DefaultMessages()
	line := "AC=1 inv.inputWatts=230W out=45W soc=87"

	got, err := m.ACRestored(MessageData{Line: line})
	require.NoError(t, err)
	assert.Equal(t, "🔌 *Mains power ON*\n"+line, got)

	got, err = m.ACRestored(MessageData{Line: line, Outage: "2 hours 5 minutes"})
	require.NoError(t, err)
	assert.Equal(t, "🔌 *Mains power ON*\n"+line+"\nOutage lasted 2 hours 5 minutes", got)

	got, err = m.ACLost(MessageData{Line: "AC=0"})
	require.NoError(t, err)
	assert.Equal(t, "⚠️ *Mains power OFF*\nAC=0", got)

	got, err = m.BatteryLow(MessageData{SOC: 9, Threshold: 10})
	require.NoError(t, err)
	assert.Equal(t, "🪫 *Low EcoFlow battery*: *9%* (≤ 10%)", got)
}

func Test_NewMessages_Overrides(t *testing.T) {
	m, err := NewMessages("", "OFF: {{.Line}}", "")
	require.NoError(t, err)

	got, err := m.ACLost(MessageData{Line: "AC=0"})
	require.NoError(t, err)
	assert.Equal(t, "OFF: AC=0", got)

	got, err = m.ACRestored(MessageData{Line: "AC=1"})
	require.NoError(t, err)
	assert.Equal(t, "🔌 *Mains power ON*\nAC=1", got, "empty override keeps default")
}

func Test_NewMessages_Invalid(t *testing.T) {
	_, err := NewMessages("{{.Line", "", "")
	assert.Error(t, err)

	m, err := NewMessages("", "", "{{.Unknown}}")
	require.NoError(t, err)
	_, err = m.BatteryLow(MessageData{})
	assert.Error(t, err, "unknown field fails at render time")
}
