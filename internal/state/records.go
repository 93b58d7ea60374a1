package state

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/astrokit/internal/logfields"
)

// KeyPrefix namespaces component records inside the store.
const KeyPrefix = "component/"

// Record is what the store remembers about one component.
type Record struct {
	Installed    bool      `json:"installed"`
	InstalledAt  time.Time `json:"installed_at"`
	LastVerified time.Time `json:"last_verified"`
	LastStatus   Status    `json:"last_status"`
	LastDetail   string    `json:"last_detail,omitempty"`
}

// Records is a typed view of component records on top of a Store.
type Records struct {
	store Store
}

// NewRecords wraps store.
func NewRecords(store Store) *Records {
	return &Records{store: store}
}

// Key returns the store key of a component record.
func Key(component string) string {
	return KeyPrefix + component
}

// Get returns the record of component. A malformed entry is logged and
// reported as absent so one bad key never breaks the whole store.
func (r *Records) Get(ctx context.Context, component string) (Record, bool, error) {
	raw, ok, err := r.store.Get(ctx, Key(component))
	if err != nil || !ok {
		return Record{}, false, err
	}
	rec, decodeErr := decodeRecord(raw)
	if decodeErr != nil {
		slog.WarnContext(ctx, "State store corruption, treating record as absent",
			logfields.Component(component),
			logfields.Error(decodeErr))
		return Record{}, false, nil
	}
	return rec, true, nil
}

func decodeRecord(raw []byte) (Record, error) {
	var wire struct {
		Record
		LastStatus string `json:"last_status"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Record{}, err
	}
	status, err := ParseStatus(wire.LastStatus)
	if err != nil {
		return Record{}, err
	}
	rec := wire.Record
	rec.LastStatus = status
	return rec, nil
}

// Put replaces the record of component.
func (r *Records) Put(ctx context.Context, component string, rec Record) error {
	if rec.LastStatus == "" {
		rec.LastStatus = StatusUnknown
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, Key(component), data)
}

// Update applies fn to the current record (zero value when absent) and
// stores the result. Only this component's key is written.
func (r *Records) Update(ctx context.Context, component string, fn func(rec *Record, exists bool)) error {
	rec, exists, err := r.Get(ctx, component)
	if err != nil {
		return err
	}
	fn(&rec, exists)
	return r.Put(ctx, component, rec)
}

// Delete removes the record of component.
func (r *Records) Delete(ctx context.Context, component string) error {
	return r.store.Delete(ctx, Key(component))
}

// All returns every readable component record keyed by component name.
func (r *Records) All(ctx context.Context) (map[string]Record, error) {
	keys, err := r.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Record, len(keys))
	for _, k := range keys {
		name, ok := strings.CutPrefix(k, KeyPrefix)
		if !ok {
			continue
		}
		rec, found, err := r.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		if found {
			out[name] = rec
		}
	}
	return out, nil
}

// AnyInstalled reports whether at least one component is recorded installed.
func (r *Records) AnyInstalled(ctx context.Context) (bool, error) {
	all, err := r.All(ctx)
	if err != nil {
		return false, err
	}
	for _, rec := range all {
		if rec.Installed {
			return true, nil
		}
	}
	return false, nil
}
