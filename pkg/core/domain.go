// Package core holds the domain types shared by every layer of fenced:
// the ordered Record parsed from a document region, field definitions,
// change events and the contracts of the external collaborators.
package core

import (
	"reflect"
	"strings"
)

// Keys of the built-in fields every schema carries.
const (
	KeyApplies   = "task"
	KeyTitle     = "title"
	KeyCreated   = "created"
	KeyStatus    = "status"
	KeyCompleted = "completed"
	KeyDue       = "due"
	KeyPriority  = "priority"
)

// StatusDone is the status value that closes a document.
const StatusDone = "done"

// StatusValues are the allowed values of the built-in status field.
var StatusValues = []string{"todo", "in-progress", StatusDone, "cancelled"}

// Record is the flat key/value content of a metadata region.
// It keeps insertion order so that re-serialization does not reshuffle keys.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty Record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// RecordFrom builds a Record from alternating key/value pairs.
// It panics on an odd number of arguments or a non-string key.
func RecordFrom(kv ...any) *Record {
	if len(kv)%2 != 0 {
		panic("core: RecordFrom needs key/value pairs")
	}
	r := NewRecord()
	for i := 0; i < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present, even with a nil value.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Set stores value under key. New keys are appended, existing keys keep their position.
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Delete removes key. Missing keys are ignored.
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Map returns a shallow copy of the values, without ordering.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, r.Len())
	if r == nil {
		return out
	}
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Clone returns a copy that shares no slices or maps with r.
func (r *Record) Clone() *Record {
	c := NewRecord()
	if r == nil {
		return c
	}
	for _, k := range r.keys {
		c.Set(k, cloneValue(r.values[k]))
	}
	return c
}

// Equal reports whether both records hold the same keys, in the same order, with equal values.
func (r *Record) Equal(o *Record) bool {
	if r.Len() != o.Len() {
		return false
	}
	if r == nil || o == nil {
		return true
	}
	for i, k := range r.keys {
		if o.keys[i] != k {
			return false
		}
		if !reflect.DeepEqual(r.values[k], o.values[k]) {
			return false
		}
	}
	return true
}

// String returns the value of key when it holds a string.
func (r *Record) String(key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// IsEmpty reports whether a value counts as missing: nil, a blank string or an empty list.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case interface{ IsZero() bool }:
		return t.IsZero()
	}
	return false
}

// EventType represents the type of change in the document store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
)

// Event represents a change notification for one document.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e.Type) + " " + e.ID
}
