// Package audit appends a newline-delimited JSON journal of notification
// attempts, silent re-arms and status-tool calls.
package audit

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrNilWriter is returned by Journal.Log when the journal was constructed
// with a nil writer.
var ErrNilWriter = errors.New("audit journal: writer is nil")

// Entry is one journal record.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id,omitempty"`
	Event     string         `json:"event"`
	Params    map[string]any `json:"params,omitempty"`
	Result    string         `json:"result"`
	Duration  time.Duration  `json:"duration_ns"`
}

// Journal writes Entry records to an io.Writer. It is safe for concurrent
// use.
type Journal struct {
	mu    sync.Mutex
	w     io.Writer
	runID string
}

// NewJournal returns a Journal that writes to w. If w is nil the returned
// journal is also nil; a nil *Journal is accepted by Record.
func NewJournal(w io.Writer, runID string) *Journal {
	if w == nil {
		return nil
	}
	return &Journal{w: w, runID: runID}
}

// Log serialises entry as a single JSON line. Entries without a RunID get
// the journal's run id.
func (j *Journal) Log(entry Entry) error {
	if j == nil || j.w == nil {
		return ErrNilWriter
	}
	if entry.RunID == "" {
		entry.RunID = j.runID
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	j.mu.Lock()
	_, err = j.w.Write(data)
	j.mu.Unlock()

	return err
}

// Record logs an event that started at start, silently ignoring a nil
// journal and write errors.
func Record(j *Journal, event string, params map[string]any, result string, start time.Time) {
	if j == nil {
		return
	}
	_ = j.Log(Entry{
		Timestamp: start,
		Event:     event,
		Params:    params,
		Result:    result,
		Duration:  time.Since(start),
	})
}
