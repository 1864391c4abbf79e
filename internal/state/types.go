// Package state persists the tracker's small scalar values between runs.
// Each key holds one trimmed plain-text token.
package state

import (
	"context"
	"errors"
	"regexp"
	"time"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("state: key not found")

// Store is a key/scalar store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Timestamped is implemented by stores that can report when a key was last
// written.
type Timestamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// validateKey rejects keys that could escape a state directory.
func validateKey(key string) error {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return errors.New("state: invalid key " + key)
	}
	return nil
}
