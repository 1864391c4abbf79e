package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Compile-time interface check.
var _ Channel = (*MultiChannel)(nil)

// MultiChannel forwards every message to all of its channels.
type MultiChannel struct {
	channels []Channel
	log      zerolog.Logger
}

// NewMultiChannel constructs a MultiChannel. Nil channels are skipped.
func NewMultiChannel(log zerolog.Logger, channels ...Channel) *MultiChannel {
	m := &MultiChannel{log: log}
	for _, ch := range channels {
		if ch != nil {
			m.channels = append(m.channels, ch)
		}
	}
	return m
}

// Name implements Channel.
func (m *MultiChannel) Name() string { return "multi" }

// Send delivers text to every channel. It succeeds when at least one channel
// accepted the message; partial failures are only logged. When every
// channel fails the joined errors are returned.
func (m *MultiChannel) Send(ctx context.Context, text string) error {
	if len(m.channels) == 0 {
		return errors.New("notify: no channels configured")
	}
	var errs []error
	for _, ch := range m.channels {
		if err := ch.Send(ctx, text); err != nil {
			m.log.Warn().Err(err).Str("channel", ch.Name()).Msg("notification channel failed")
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		m.log.Debug().Str("channel", ch.Name()).Msg("notification delivered")
	}
	if len(errs) == len(m.channels) {
		return errors.Join(errs...)
	}
	return nil
}
