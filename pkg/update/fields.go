package update

import (
	"strconv"
	"time"

	"github.com/vango-dev/spendsync/pkg/state"
)

// PendingAction marks a field or entity as mid-flight.
type PendingAction string

const (
	PendingAdd    PendingAction = "add"
	PendingUpdate PendingAction = "update"
	PendingDelete PendingAction = "delete"
)

// Field names used for per-field status.
const (
	PendingFieldsKey = "pendingFields"
	ErrorFieldsKey   = "errorFields"
	PendingActionKey = "pendingAction"
	ErrorsKey        = "errors"
)

// MicrosecondError returns an error map keyed by the current time in
// microseconds. Keys are unique per failure so several errors can accumulate
// under the same field.
func MicrosecondError(message string, now time.Time) map[string]any {
	return map[string]any{
		strconv.FormatInt(now.UnixMicro(), 10): message,
	}
}

// Nest wraps value in nested maps following path.
// Nest([]string{"a", "b"}, v) returns {"a": {"b": v}}.
func Nest(path []string, value map[string]any) map[string]any {
	out := value
	for i := len(path) - 1; i >= 0; i-- {
		out = map[string]any{path[i]: out}
	}
	return out
}

// FieldSet builds the descriptor set for updating one field stored at
// key under path:
//
//   - optimistic: field = value, pendingFields.field = update, errorFields.field cleared
//   - success:    field = value, pendingFields.field cleared, errorFields.field cleared
//   - failure:    field = value, pendingFields.field cleared, errorFields.field = {micros: errMessage}
//
// value may be nil, which removes the field.
func FieldSet(key state.Key, path []string, field string, value any, errMessage string, now time.Time) Set {
	phase := func(pending any, fieldErr any) []Descriptor {
		return []Descriptor{Merge(key, Nest(path, map[string]any{
			field:            value,
			PendingFieldsKey: map[string]any{field: pending},
			ErrorFieldsKey:   map[string]any{field: fieldErr},
		}))}
	}

	return Set{
		Optimistic: phase(string(PendingUpdate), nil),
		Success:    phase(nil, nil),
		Failure:    phase(nil, MicrosecondError(errMessage, now)),
	}
}

// Lookup walks nested maps following path and returns the value found.
func Lookup(value any, path ...string) (any, bool) {
	cur := value
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
