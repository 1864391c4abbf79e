package notify

import (
	"bytes"
	"fmt"
	"text/template"
)

// Built-in message templates. They use Telegram Markdown emphasis.
const (
	DefaultACRestored = "🔌 *Mains power ON*\n{{.Line}}{{if .Outage}}\nOutage lasted {{.Outage}}{{end}}"
	DefaultACLost     = "⚠️ *Mains power OFF*\n{{.Line}}"
	DefaultBatteryLow = "🪫 *Low EcoFlow battery*: *{{.SOC}}%* (≤ {{.Threshold}}%)"
)

// MessageData provides fields for rendering notification text.
type MessageData struct {
	// Line is the raw probe status line.
	Line      string
	SOC       int
	Threshold int
	// Outage is the human-readable length of the outage that just ended,
	// empty when unknown.
	Outage string
}

// Messages renders the three notification kinds.
type Messages struct {
	acRestored *template.Template
	acLost     *template.Template
	batteryLow *template.Template
}

// NewMessages parses the given templates; empty strings select the
// built-in defaults.
func NewMessages(acRestored, acLost, batteryLow string) (*Messages, error) {
	m := &Messages{}
	var err error
	if m.acRestored, err = parse("ac_restored", acRestored, DefaultACRestored); err != nil {
		return nil, err
	}
	if m.acLost, err = parse("ac_lost", acLost, DefaultACLost); err != nil {
		return nil, err
	}
	if m.batteryLow, err = parse("battery_low", batteryLow, DefaultBatteryLow); err != nil {
		return nil, err
	}
	return m, nil
}

// DefaultMessages returns the built-in templates.
func DefaultMessages() *Messages {
	m, err := NewMessages("", "", "")
	if err != nil {
		panic(err)
	}
	return m
}

func parse(name, text, fallback string) (*template.Template, error) {
	if text == "" {
		text = fallback
	}
	tpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("notify: template %s: %w", name, err)
	}
	return tpl, nil
}

// ACRestored renders the AC-present transition message.
func (m *Messages) ACRestored(data MessageData) (string, error) {
	return render(m.acRestored, data)
}

// ACLost renders the AC-absent transition message.
func (m *Messages) ACLost(data MessageData) (string, error) {
	return render(m.acLost, data)
}

// BatteryLow renders the low state-of-charge message.
func (m *Messages) BatteryLow(data MessageData) (string, error) {
	return render(m.batteryLow, data)
}

func render(tpl *template.Template, data MessageData) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", tpl.Name(), err)
	}
	return buf.String(), nil
}
