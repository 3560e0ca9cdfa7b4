package model

import (
	"maps"
)

// Codec converts between a document value and a typed Go value. Decode
// receives nil for absent values. An Encode result of nil deletes the
// location instead of storing null.
type Codec[T any] interface {
	Decode(raw any) (T, error)
	Encode(v T) (any, error)
}

// CodecFuncs adapts a pair of functions to Codec.
type CodecFuncs[T any] struct {
	DecodeFunc func(raw any) (T, error)
	EncodeFunc func(v T) (any, error)
}

// Decode implements Codec.
func (c CodecFuncs[T]) Decode(raw any) (T, error) { return c.DecodeFunc(raw) }

// Encode implements Codec.
func (c CodecFuncs[T]) Encode(v T) (any, error) { return c.EncodeFunc(v) }

// Built-in codecs.
var (
	// String requires a string value.
	String Codec[string] = CodecFuncs[string]{
		DecodeFunc: func(raw any) (string, error) {
			s, ok := raw.(string)
			if !ok {
				return "", decodeError("string", raw)
			}
			return s, nil
		},
		EncodeFunc: func(v string) (any, error) { return v, nil },
	}

	// OptionalString maps an absent value to "" and "" to deletion.
	OptionalString Codec[string] = CodecFuncs[string]{
		DecodeFunc: func(raw any) (string, error) {
			if raw == nil {
				return "", nil
			}
			s, ok := raw.(string)
			if !ok {
				return "", decodeError("string", raw)
			}
			return s, nil
		},
		EncodeFunc: func(v string) (any, error) {
			if v == "" {
				return nil, nil
			}
			return v, nil
		},
	}

	// Int requires an integral number.
	Int Codec[int] = CodecFuncs[int]{
		DecodeFunc: func(raw any) (int, error) {
			n, ok := ToInt(raw)
			if !ok {
				return 0, decodeError("integer", raw)
			}
			return n, nil
		},
		EncodeFunc: func(v int) (any, error) { return v, nil },
	}

	// Float requires a number.
	Float Codec[float64] = CodecFuncs[float64]{
		DecodeFunc: func(raw any) (float64, error) {
			f, ok := ToFloat(raw)
			if !ok {
				return 0, decodeError("number", raw)
			}
			return f, nil
		},
		EncodeFunc: func(v float64) (any, error) { return v, nil },
	}

	// StringMap decodes an object of strings, defaulting to an empty map.
	StringMap Codec[map[string]string] = CodecFuncs[map[string]string]{
		DecodeFunc: func(raw any) (map[string]string, error) {
			out := map[string]string{}
			switch m := raw.(type) {
			case nil:
			case map[string]string:
				maps.Copy(out, m)
			case map[string]any:
				for k, v := range m {
					s, ok := v.(string)
					if !ok {
						return nil, decodeError("string map", raw)
					}
					out[k] = s
				}
			default:
				return nil, decodeError("string map", raw)
			}
			return out, nil
		},
		EncodeFunc: func(v map[string]string) (any, error) {
			if v == nil {
				return nil, nil
			}
			out := make(map[string]any, len(v))
			for k, s := range v {
				out[k] = s
			}
			return out, nil
		},
	}

	// AnyMap decodes an arbitrary object, defaulting to an empty map.
	AnyMap Codec[map[string]any] = CodecFuncs[map[string]any]{
		DecodeFunc: func(raw any) (map[string]any, error) {
			switch m := raw.(type) {
			case nil:
				return map[string]any{}, nil
			case map[string]any:
				return m, nil
			}
			return nil, decodeError("object", raw)
		},
		EncodeFunc: func(v map[string]any) (any, error) {
			if v == nil {
				return nil, nil
			}
			return v, nil
		},
	}

	// FloatSlice decodes an array of numbers.
	FloatSlice Codec[[]float64] = CodecFuncs[[]float64]{
		DecodeFunc: DecodeFloats,
		EncodeFunc: func(v []float64) (any, error) {
			if v == nil {
				return nil, nil
			}
			out := make([]any, len(v))
			for i, f := range v {
				out[i] = f
			}
			return out, nil
		},
	}

	// Raw passes values through untouched.
	Raw Codec[any] = CodecFuncs[any]{
		DecodeFunc: func(raw any) (any, error) { return raw, nil },
		EncodeFunc: func(v any) (any, error) { return v, nil },
	}
)

// Optional wraps c so that an absent value decodes to nil and nil encodes to
// deletion.
func Optional[T any](c Codec[T]) Codec[*T] {
	return CodecFuncs[*T]{
		DecodeFunc: func(raw any) (*T, error) {
			if raw == nil {
				return nil, nil
			}
			v, err := c.Decode(raw)
			if err != nil {
				return nil, err
			}
			return &v, nil
		},
		EncodeFunc: func(v *T) (any, error) {
			if v == nil {
				return nil, nil
			}
			return c.Encode(*v)
		},
	}
}

// DecodeFloats decodes a JSON array of numbers (or a []float64) into a
// []float64.
func DecodeFloats(raw any) ([]float64, error) {
	switch s := raw.(type) {
	case []float64:
		return s, nil
	case []any:
		out := make([]float64, len(s))
		for i, v := range s {
			f, ok := ToFloat(v)
			if !ok {
				return nil, decodeError("number array", raw)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, decodeError("number array", raw)
}
