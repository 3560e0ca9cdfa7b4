package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
)

// Document is an untyped object document.
type Document = map[string]any

var (
	// ErrDecode is returned when a document value does not decode into the
	// type bound to its location.
	ErrDecode = errors.New("geoobject: cannot decode document value")

	// ErrNotSequence is returned when list conversion receives a value that
	// is not a slice.
	ErrNotSequence = errors.New("geoobject: value is not a sequence")
)

// Clone returns a deep copy of v. Maps and slices are copied recursively;
// other values are returned as is.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = Clone(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = Clone(x)
		}
		return out
	case []float64:
		return slices.Clone(t)
	case []string:
		return slices.Clone(t)
	case []int:
		return slices.Clone(t)
	case map[string]string:
		return maps.Clone(t)
	}
	return v
}

// CloneDocument returns a deep copy of doc.
func CloneDocument(doc Document) Document {
	if doc == nil {
		return nil
	}
	return Clone(doc).(map[string]any)
}

// ToFloat converts a decoded JSON number to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ToInt converts a decoded JSON number to int. Floats must be integral.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	f, ok := ToFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func decodeError(want string, raw any) error {
	return fmt.Errorf("%w: want %s, got %T", ErrDecode, want, raw)
}
