package state

import (
	"context"
	"time"
)

// Store is a durable key/value record. A missing key reads as absent, never
// as an error. Set replaces a single key and never rewrites other keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Event is one entry of the install history.
type Event struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Component string    `json:"component"`
	Kind      string    `json:"kind"` // install, verify, repair, uninstall
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// History is the append-only event log kept next to the records.
type History interface {
	Append(ctx context.Context, e Event) error
	Recent(ctx context.Context, limit int) ([]Event, error)
}
