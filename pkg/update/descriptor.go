package update

import (
	"fmt"

	"github.com/vango-dev/spendsync/internal/errors"
	"github.com/vango-dev/spendsync/pkg/state"
)

// Method is the write method of a descriptor.
type Method string

const (
	// MethodSet replaces the value at the key.
	MethodSet Method = "set"

	// MethodMerge deep-merges the value into the existing value.
	MethodMerge Method = "merge"
)

// Descriptor is a single store write.
type Descriptor struct {
	Method Method    `json:"onyxMethod"`
	Key    state.Key `json:"key"`
	Value  any       `json:"value"`
}

// String returns a short human-readable form.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s", d.Method, d.Key)
}

// Merge returns a merge descriptor.
func Merge(key state.Key, value any) Descriptor {
	return Descriptor{Method: MethodMerge, Key: key, Value: value}
}

// SetValue returns a set descriptor.
func SetValue(key state.Key, value any) Descriptor {
	return Descriptor{Method: MethodSet, Key: key, Value: value}
}

// Set is the optimistic/success/failure triple of one operation.
type Set struct {
	Optimistic []Descriptor `json:"optimisticData,omitempty"`
	Success    []Descriptor `json:"successData,omitempty"`
	Failure    []Descriptor `json:"failureData,omitempty"`
}

// IsEmpty reports whether the set has no descriptors at all.
func (s Set) IsEmpty() bool {
	return len(s.Optimistic) == 0 && len(s.Success) == 0 && len(s.Failure) == 0
}

// Keys returns the distinct keys touched by any phase, in first-seen order.
func (s Set) Keys() []state.Key {
	seen := make(map[state.Key]bool)
	var out []state.Key
	for _, list := range [][]Descriptor{s.Optimistic, s.Success, s.Failure} {
		for _, d := range list {
			if !seen[d.Key] {
				seen[d.Key] = true
				out = append(out, d.Key)
			}
		}
	}
	return out
}

// Apply writes descriptors to the store as one batch.
// Descriptors with an unknown method are skipped; the first such error is
// returned after the remaining descriptors have been applied.
func Apply(store *state.Store, descriptors []Descriptor) error {
	if len(descriptors) == 0 {
		return nil
	}
	var firstErr error
	store.Batch(func(b *state.Batch) error {
		for _, d := range descriptors {
			var err error
			switch d.Method {
			case MethodSet:
				err = b.Set(d.Key, d.Value)
			case MethodMerge:
				err = b.Merge(d.Key, d.Value)
			default:
				err = errors.New("S300").WithDetailf("method %q for key %s", d.Method, d.Key)
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return nil
	})
	return firstErr
}
