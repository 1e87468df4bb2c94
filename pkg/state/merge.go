package state

import (
	"fmt"
	"reflect"

	json "github.com/goccy/go-json"
	"github.com/tiendc/go-deepcopy"
)

// mergeValue deep-merges patch into existing and returns the merged value.
// Neither argument is modified. A nil field inside a patch map removes the
// field from the result.
func mergeValue(existing, patch any) any {
	pm, ok := patch.(map[string]any)
	if !ok {
		return cloneValue(patch)
	}

	em, _ := existing.(map[string]any)
	result := make(map[string]any, len(em)+len(pm))
	for k, v := range em {
		result[k] = v
	}

	for k, v := range pm {
		if v == nil {
			delete(result, k)
			continue
		}
		result[k] = mergeValue(result[k], v)
	}
	return result
}

// cloneValue returns a deep copy of a JSON-shaped value.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		var out map[string]any
		if err := deepcopy.Copy(&out, t); err != nil {
			return cloneManual(t)
		}
		return out
	case []any:
		var out []any
		if err := deepcopy.Copy(&out, t); err != nil {
			return cloneManual(t)
		}
		return out
	default:
		return v
	}
}

func cloneManual(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneManual(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneManual(e)
		}
		return out
	default:
		return v
	}
}

// Normalize converts v into the JSON-shaped representation the store holds.
// Numbers become float64, as JSON decoding produces them, so a value written
// locally compares equal to the same value echoed by the server. Anything
// else that is not already JSON-shaped (structs, typed maps, typed slices)
// is round-tripped through JSON.
func Normalize(v any) (any, error) {
	if isJSONShaped(v) {
		return normalizeNumbers(v), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("state: normalize %T: %w", v, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("state: normalize %T: %w", v, err)
	}
	return out, nil
}

func isJSONShaped(v any) bool {
	switch t := v.(type) {
	case nil, string, bool, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case map[string]any:
		for _, e := range t {
			if !isJSONShaped(e) {
				return false
			}
		}
		return true
	case []any:
		for _, e := range t {
			if !isJSONShaped(e) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// normalizeNumbers returns v with every integer and float32 converted to
// float64. Maps and slices are copied.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeNumbers(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeNumbers(e)
		}
		return out
	default:
		return v
	}
}

func equalValues(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
