// Package record provides a read/write view over a single API record with
// deferred persistence. Field writes are tracked; Save sends only the fields
// written since the record was loaded or last saved.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/rshade/attask-archive/internal/attask"
)

// Well-known field names.
const (
	FieldID      = "ID"
	FieldObjCode = "objCode"
)

// Errors returned by Record operations.
var (
	// ErrNotModified is returned by Save when no field has been written.
	ErrNotModified = errors.New("no fields were modified")

	// ErrClientNotSet is returned by Save and Delete on a record without a client.
	ErrClientNotSet = errors.New("record has no api client")

	// ErrFieldNotFound matches every *FieldError.
	ErrFieldNotFound = errors.New("field not found")

	// ErrNoID is returned by Delete on a record that was never persisted.
	ErrNoID = errors.New("record has no ID")

	// ErrNotNumber is returned by GetInt for a value that is not numeric.
	ErrNotNumber = errors.New("field is not a number")
)

// FieldError reports a read of an absent field.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %q", ErrFieldNotFound, e.Field)
}

// Is makes errors.Is(err, ErrFieldNotFound) true.
func (e *FieldError) Is(target error) bool { return target == ErrFieldNotFound }

// Client is the part of the API client a Record persists through.
// *attask.Client satisfies it.
type Client interface {
	Post(ctx context.Context, objCode attask.ObjCode, params attask.Params, fields []string) (map[string]any, error)
	Put(
		ctx context.Context,
		objCode attask.ObjCode,
		id string,
		params attask.Params,
		fields []string,
	) (map[string]any, error)
	Delete(ctx context.Context, objCode attask.ObjCode, id string, force bool) (any, error)
}

// Record wraps a record's field map. It is not safe for concurrent use.
type Record struct {
	objCode attask.ObjCode
	data    map[string]any
	dirty   map[string]struct{}
	client  Client
}

// New wraps data, taking the object code from its objCode field. client may be
// nil for a read-only record.
func New(data map[string]any, client Client) *Record {
	var code attask.ObjCode
	if s, ok := data[FieldObjCode].(string); ok {
		code = attask.ObjCode(s)
	}
	return NewWithCode(code, data, client)
}

// NewWithCode wraps data as a record of the given type.
func NewWithCode(objCode attask.ObjCode, data map[string]any, client Client) *Record {
	if data == nil {
		data = make(map[string]any)
	}
	return &Record{
		objCode: objCode,
		data:    data,
		dirty:   make(map[string]struct{}),
		client:  client,
	}
}

// ObjCode returns the record type.
func (r *Record) ObjCode() attask.ObjCode { return r.objCode }

// Get returns the value of field, or a *FieldError when absent.
func (r *Record) Get(field string) (any, error) {
	v, ok := r.data[field]
	if !ok {
		return nil, &FieldError{Field: field}
	}
	return v, nil
}

// GetString returns the field rendered as a string. Numbers decoded with
// json.Number keep their exact text.
func (r *Record) GetString(field string) (string, error) {
	v, err := r.Get(field)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(x), nil
	}
}

// GetInt returns a numeric field as an int. Report aggregates arrive as
// json.Number and may be float-shaped ("12.0"); fractions are truncated.
func (r *Record) GetInt(field string) (int, error) {
	v, err := r.Get(field)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case json.Number:
		if n, convErr := x.Int64(); convErr == nil {
			return int(n), nil
		}
		f, convErr := x.Float64()
		if convErr != nil {
			return 0, fmt.Errorf("%w: %s=%q", ErrNotNumber, field, x)
		}
		return int(f), nil
	case float64:
		return int(x), nil
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case string:
		if n, convErr := strconv.Atoi(x); convErr == nil {
			return n, nil
		}
		f, convErr := strconv.ParseFloat(x, 64)
		if convErr != nil {
			return 0, fmt.Errorf("%w: %s=%q", ErrNotNumber, field, x)
		}
		return int(f), nil
	default:
		return 0, fmt.Errorf("%w: %s is %T", ErrNotNumber, field, v)
	}
}

// ID returns the record id, or "" for a record not yet persisted.
func (r *Record) ID() string {
	id, err := r.GetString(FieldID)
	if err != nil {
		return ""
	}
	return id
}

// Has reports whether field is present.
func (r *Record) Has(field string) bool {
	_, ok := r.data[field]
	return ok
}

// Set writes field and marks it dirty. Fields are not checked against any schema.
func (r *Record) Set(field string, value any) {
	r.data[field] = value
	r.dirty[field] = struct{}{}
}

// IsModified reports whether any field has been written since load or the
// last successful save.
func (r *Record) IsModified() bool {
	return len(r.dirty) > 0
}

// DirtyFields returns the written field names, sorted.
func (r *Record) DirtyFields() []string {
	return sortedKeys(r.dirty)
}

// Fields returns the names of all present fields, sorted.
func (r *Record) Fields() []string {
	return sortedKeys(r.data)
}

// Data returns a shallow copy of the field map.
func (r *Record) Data() map[string]any {
	out := make(map[string]any, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out
}

// String renders the field map as indented JSON.
func (r *Record) String() string {
	b, err := json.MarshalIndent(r.data, "", "    ")
	if err != nil {
		return fmt.Sprintf("%v", r.data)
	}
	return string(b)
}

// Save persists the dirty fields. A record with an ID is updated; one without
// is created and receives the server-assigned ID. On success the local data is
// replaced by the server's response and the dirty set is cleared. On failure
// both are left untouched.
func (r *Record) Save(ctx context.Context) error {
	if r.client == nil {
		return ErrClientNotSet
	}
	if !r.IsModified() {
		return ErrNotModified
	}

	params := make(attask.Params, len(r.dirty))
	for field := range r.dirty {
		params[field] = r.data[field]
	}
	fields := r.Fields()

	var (
		updated map[string]any
		err     error
	)
	if id := r.ID(); id != "" {
		updated, err = r.client.Put(ctx, r.objCode, id, params, fields)
	} else {
		updated, err = r.client.Post(ctx, r.objCode, params, fields)
	}
	if err != nil {
		return fmt.Errorf("saving %s record: %w", r.objCode, err)
	}

	if updated == nil {
		updated = make(map[string]any)
	}
	r.data = updated
	r.dirty = make(map[string]struct{})
	return nil
}

// Delete removes the record on the server. The local data is kept.
func (r *Record) Delete(ctx context.Context, force bool) error {
	if r.client == nil {
		return ErrClientNotSet
	}
	id := r.ID()
	if id == "" {
		return ErrNoID
	}
	if _, err := r.client.Delete(ctx, r.objCode, id, force); err != nil {
		return fmt.Errorf("deleting %s %s: %w", r.objCode, id, err)
	}
	r.dirty = make(map[string]struct{})
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
