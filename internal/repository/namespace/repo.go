// Package namespace keeps the types, streams and stream data of one tenant
// namespace in memory. It backs the local store stub.
package namespace

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/edsanalytics/internal/domain"
	"github.com/kailas-cloud/edsanalytics/internal/domain/sample"
	"github.com/kailas-cloud/edsanalytics/internal/domain/schema"
	"github.com/kailas-cloud/edsanalytics/internal/domain/stream"
)

// Query selects stream records by key.
// Zero Start/End are open bounds; Count <= 0 means unlimited.
type Query struct {
	Start time.Time
	End   time.Time
	Count int
}

// Point is a keyed numeric value taken from a stream's value property.
type Point struct {
	Key   time.Time
	Value float64
}

type entry struct {
	key    time.Time
	raw    json.RawMessage
	fields map[string]json.RawMessage
}

type streamState struct {
	def      stream.Stream
	keyField string
	valField string
	entries  []entry // sorted by key
}

// Repo is an in-memory namespace.
type Repo struct {
	mu      sync.RWMutex
	types   map[string]schema.Type
	streams map[string]*streamState
}

// New creates an empty namespace.
func New() *Repo {
	return &Repo{
		types:   make(map[string]schema.Type),
		streams: make(map[string]*streamState),
	}
}

// CreateType stores t. Re-creating an identical type is a no-op reported as created=false.
func (r *Repo) CreateType(_ context.Context, t schema.Type) (created bool, err error) {
	if err := schema.Validate(t); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.types[t.ID]; ok {
		if existing.Equal(t) {
			return false, nil
		}
		return false, fmt.Errorf("type %q: %w", t.ID, domain.ErrAlreadyExists)
	}
	r.types[t.ID] = t
	return true, nil
}

// GetType returns the type with the given id.
func (r *Repo) GetType(_ context.Context, id string) (schema.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[id]
	if !ok {
		return schema.Type{}, fmt.Errorf("type %q: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

// DeleteType removes a type that no stream references.
func (r *Repo) DeleteType(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[id]; !ok {
		return fmt.Errorf("type %q: %w", id, domain.ErrNotFound)
	}
	for _, st := range r.streams {
		if st.def.TypeID == id {
			return fmt.Errorf("type %q is used by stream %q: %w", id, st.def.ID, domain.ErrConflict)
		}
	}
	delete(r.types, id)
	return nil
}

// CreateStream stores s. Its type must already exist.
func (r *Repo) CreateStream(_ context.Context, s stream.Stream) (created bool, err error) {
	if _, err := stream.New(s.TypeID, s.ID, s.Name); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.types[s.TypeID]
	if !ok {
		return false, fmt.Errorf("stream %q: type %q does not exist: %w", s.ID, s.TypeID, domain.ErrInvalidSchema)
	}
	if existing, ok := r.streams[s.ID]; ok {
		if existing.def.TypeID == s.TypeID {
			return false, nil
		}
		return false, fmt.Errorf("stream %q: %w", s.ID, domain.ErrAlreadyExists)
	}
	r.streams[s.ID] = &streamState{def: s, keyField: t.Key(), valField: valueProperty(t)}
	return true, nil
}

// GetStream returns the stream with the given id.
func (r *Repo) GetStream(_ context.Context, id string) (stream.Stream, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.streams[id]
	if !ok {
		return stream.Stream{}, fmt.Errorf("stream %q: %w", id, domain.ErrNotFound)
	}
	return st.def, nil
}

// DeleteStream removes a stream and its data.
func (r *Repo) DeleteStream(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.streams[id]; !ok {
		return fmt.Errorf("stream %q: %w", id, domain.ErrNotFound)
	}
	delete(r.streams, id)
	return nil
}

// Write upserts records by their key. Either every record is stored or none is.
func (r *Repo) Write(_ context.Context, id string, records []json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.streams[id]
	if !ok {
		return fmt.Errorf("stream %q: %w", id, domain.ErrNotFound)
	}

	parsed := make([]entry, 0, len(records))
	for i, raw := range records {
		e, err := parseEntry(raw, st.keyField)
		if err != nil {
			return fmt.Errorf("record %d: %w: %w", i, domain.ErrInvalidSchema, err)
		}
		parsed = append(parsed, e)
	}
	for _, e := range parsed {
		st.upsert(e)
	}
	return nil
}

// Range returns raw records matching q in key order.
func (r *Repo) Range(_ context.Context, id string, q Query) ([]json.RawMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.streams[id]
	if !ok {
		return nil, fmt.Errorf("stream %q: %w", id, domain.ErrNotFound)
	}

	out := make([]json.RawMessage, 0)
	for _, e := range st.window(q.Start, q.End) {
		if q.Count > 0 && len(out) == q.Count {
			break
		}
		out = append(out, e.raw)
	}
	return out, nil
}

// Points returns the value property of every record with start <= key <= end.
func (r *Repo) Points(_ context.Context, id string, start, end time.Time) ([]Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.streams[id]
	if !ok {
		return nil, fmt.Errorf("stream %q: %w", id, domain.ErrNotFound)
	}
	if st.valField == "" {
		return nil, fmt.Errorf("stream %q has no Double value property: %w", id, domain.ErrInvalidSchema)
	}

	var out []Point
	for _, e := range st.window(start, end) {
		raw, ok := e.fields[st.valField]
		if !ok {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, Point{Key: e.key, Value: v})
	}
	return out, nil
}

func (st *streamState) upsert(e entry) {
	i := sort.Search(len(st.entries), func(i int) bool { return !st.entries[i].key.Before(e.key) })
	if i < len(st.entries) && st.entries[i].key.Equal(e.key) {
		st.entries[i] = e
		return
	}
	st.entries = append(st.entries, entry{})
	copy(st.entries[i+1:], st.entries[i:])
	st.entries[i] = e
}

func (st *streamState) window(start, end time.Time) []entry {
	lo := 0
	if !start.IsZero() {
		lo = sort.Search(len(st.entries), func(i int) bool { return !st.entries[i].key.Before(start) })
	}
	hi := len(st.entries)
	if !end.IsZero() {
		hi = sort.Search(len(st.entries), func(i int) bool { return st.entries[i].key.After(end) })
	}
	if hi < lo {
		return nil
	}
	return st.entries[lo:hi]
}

func parseEntry(raw json.RawMessage, keyField string) (entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return entry{}, fmt.Errorf("decode record: %w", err)
	}
	rawKey, ok := fields[keyField]
	if !ok {
		return entry{}, fmt.Errorf("missing key property %q", keyField)
	}
	var ts string
	if err := json.Unmarshal(rawKey, &ts); err != nil {
		return entry{}, fmt.Errorf("key property %q must be a timestamp string: %w", keyField, err)
	}
	key, err := sample.ParseTimestamp(ts)
	if err != nil {
		return entry{}, err
	}
	return entry{key: key, raw: raw, fields: fields}, nil
}

// valueProperty picks the first non-key Double property.
func valueProperty(t schema.Type) string {
	for _, p := range t.Properties {
		if !p.IsKey && p.Type != nil && p.Type.TypeCode == schema.Double {
			return p.ID
		}
	}
	return ""
}
