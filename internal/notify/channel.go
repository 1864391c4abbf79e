// Package notify delivers tracker messages to chat destinations.
package notify

import "context"

// Channel delivers rendered text to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, text string) error
}
