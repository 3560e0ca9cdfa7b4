package bulk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/jacentio/geoobject/frame"
)

// payload is the msgpack layout of an uploaded frame.
type payload struct {
	Rows    int             `msgpack:"rows"`
	Columns []columnPayload `msgpack:"columns"`
}

type columnPayload struct {
	Name       string    `msgpack:"name"`
	Type       string    `msgpack:"type"`
	Float64    []float64 `msgpack:"f64,omitempty"`
	Float32    []float32 `msgpack:"f32,omitempty"`
	Int64      []int64   `msgpack:"i64,omitempty"`
	Int32      []int32   `msgpack:"i32,omitempty"`
	Bool       []bool    `msgpack:"b,omitempty"`
	String     []string  `msgpack:"s,omitempty"`
	Categories []string  `msgpack:"cats,omitempty"`
}

// Encode serializes f.
func Encode(f *frame.Frame) ([]byte, error) {
	p := payload{Rows: f.Len()}
	for _, c := range f.Columns() {
		dt, err := DataType(c)
		if err != nil {
			return nil, err
		}
		cp := columnPayload{Name: c.Name, Type: dt}
		switch v := c.Values.(type) {
		case []float64:
			cp.Float64 = v
		case []float32:
			cp.Float32 = v
		case []int64:
			cp.Int64 = v
		case []int32:
			cp.Int32 = v
		case []bool:
			cp.Bool = v
		case []string:
			cp.String = v
		case *frame.Categorical:
			cp.Int32 = v.Codes
			cp.Categories = v.Categories
		}
		p.Columns = append(p.Columns, cp)
	}
	return msgpack.Marshal(&p)
}

// Decode parses a payload produced by Encode.
func Decode(data []byte) (*frame.Frame, error) {
	var p payload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	cols := make([]frame.Column, 0, len(p.Columns))
	for _, cp := range p.Columns {
		var values any
		switch cp.Type {
		case "float64":
			values = nonNil(cp.Float64)
		case "float32":
			values = nonNil(cp.Float32)
		case "int64":
			values = nonNil(cp.Int64)
		case "int32":
			values = nonNil(cp.Int32)
		case "bool":
			values = nonNil(cp.Bool)
		case "string":
			values = nonNil(cp.String)
		case "category":
			values = &frame.Categorical{Codes: nonNil(cp.Int32), Categories: nonNil(cp.Categories)}
		default:
			return nil, fmt.Errorf("%w: stored type %q", ErrUnsupportedColumn, cp.Type)
		}
		cols = append(cols, frame.Column{Name: cp.Name, Values: values})
	}
	return frame.New(cols...)
}

// Ref returns the content address of an encoded payload.
func Ref(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
