// Package frame provides small in-memory columnar tables.
//
// A [Frame] is an arrow record with an ordered list of named, equal-length
// columns. Columns go in and come out as plain Go slices ([]float64, []float32,
// []int64, []int32, []bool, []string) or a [*Categorical], which is held as an
// int32-indexed dictionary array. []int columns are stored as int64.
package frame

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

var (
	// ErrLengthMismatch is returned when columns of different lengths are
	// combined into one frame.
	ErrLengthMismatch = errors.New("geoobject: column lengths differ")

	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("geoobject: duplicate column name")

	// ErrColumnNotFound is returned by Select for unknown column names.
	ErrColumnNotFound = errors.New("geoobject: column not found")

	// ErrNotColumnar is returned when a column's values are not a slice.
	ErrNotColumnar = errors.New("geoobject: column values are not a sequence")

	// ErrUnsupportedType is returned for slices of a type frames cannot hold.
	ErrUnsupportedType = errors.New("geoobject: unsupported column type")
)

// Frames are garbage collected; arrays are never released explicitly.
var alloc = memory.NewGoAllocator()

// Column is a named sequence of values.
type Column struct {
	Name   string
	Values any
}

// Frame is an immutable ordered set of equal-length columns.
type Frame struct {
	rec arrow.Record
}

// New builds a frame from cols.
func New(cols ...Column) (*Frame, error) {
	seen := make(map[string]struct{}, len(cols))
	fields := make([]arrow.Field, len(cols))
	arrs := make([]arrow.Array, len(cols))
	n := -1
	for i, c := range cols {
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}
		arr, err := toArray(c)
		if err != nil {
			return nil, err
		}
		if n >= 0 && arr.Len() != n {
			return nil, fmt.Errorf("%w: %q has %d rows, expected %d", ErrLengthMismatch, c.Name, arr.Len(), n)
		}
		n = arr.Len()
		fields[i] = arrow.Field{Name: c.Name, Type: arr.DataType(), Nullable: arr.NullN() > 0}
		arrs[i] = arr
	}
	return newFrame(fields, arrs, max(n, 0)), nil
}

// FromRecord wraps an arrow record. Every column must have a type New
// accepts.
func FromRecord(rec arrow.Record) (*Frame, error) {
	seen := make(map[string]struct{}, rec.NumCols())
	for i, field := range rec.Schema().Fields() {
		if _, dup := seen[field.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, field.Name)
		}
		seen[field.Name] = struct{}{}
		if _, err := fromArray(rec.Column(i)); err != nil {
			return nil, fmt.Errorf("%q: %w", field.Name, err)
		}
	}
	rec.Retain()
	return &Frame{rec: rec}, nil
}

func newFrame(fields []arrow.Field, arrs []arrow.Array, rows int) *Frame {
	schema := arrow.NewSchema(fields, nil)
	return &Frame{rec: array.NewRecord(schema, arrs, int64(rows))}
}

// MustNew is like New but panics on error.
func MustNew(cols ...Column) *Frame {
	f, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return f
}

// Record returns the underlying arrow record.
func (f *Frame) Record() arrow.Record {
	if f == nil || f.rec == nil {
		return nil
	}
	return f.rec
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil || f.rec == nil || f.rec.NumCols() == 0 {
		return 0
	}
	return int(f.rec.NumRows())
}

// Width returns the number of columns.
func (f *Frame) Width() int {
	if f == nil || f.rec == nil {
		return 0
	}
	return int(f.rec.NumCols())
}

// Names returns the column names in order.
func (f *Frame) Names() []string {
	if f == nil || f.rec == nil {
		return nil
	}
	names := make([]string, f.Width())
	for i := range names {
		names[i] = f.rec.ColumnName(i)
	}
	return names
}

// Columns returns copies of the columns in order.
func (f *Frame) Columns() []Column {
	cols := make([]Column, f.Width())
	for i := range cols {
		cols[i] = f.column(i)
	}
	return cols
}

func (f *Frame) column(i int) Column {
	// Types are checked when the record is built.
	values, _ := fromArray(f.rec.Column(i))
	return Column{Name: f.rec.ColumnName(i), Values: values}
}

func (f *Frame) index(name string) int {
	if f == nil || f.rec == nil {
		return -1
	}
	for i := range f.Width() {
		if f.rec.ColumnName(i) == name {
			return i
		}
	}
	return -1
}

// Column looks up a column by name.
func (f *Frame) Column(name string) (Column, bool) {
	i := f.index(name)
	if i < 0 {
		return Column{}, false
	}
	return f.column(i), true
}

// Has reports whether every name is a column of f.
func (f *Frame) Has(names ...string) bool {
	for _, n := range names {
		if f.index(n) < 0 {
			return false
		}
	}
	return true
}

// pick builds a frame from the columns of f at idx, renamed when names is
// not nil.
func (f *Frame) pick(idx []int, names []string) (*Frame, error) {
	fields := make([]arrow.Field, len(idx))
	arrs := make([]arrow.Array, len(idx))
	seen := make(map[string]struct{}, len(idx))
	for j, i := range idx {
		fields[j] = f.rec.Schema().Field(i)
		if names != nil {
			fields[j].Name = names[j]
		}
		if _, dup := seen[fields[j].Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, fields[j].Name)
		}
		seen[fields[j].Name] = struct{}{}
		arrs[j] = f.rec.Column(i)
	}
	rows := 0
	if len(idx) > 0 {
		rows = f.Len()
	}
	return newFrame(fields, arrs, rows), nil
}

// Select returns a frame holding the named columns in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	idx := make([]int, len(names))
	for j, n := range names {
		if idx[j] = f.index(n); idx[j] < 0 {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, n)
		}
	}
	return f.pick(idx, nil)
}

// Drop returns a frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	var idx []int
	for i, n := range f.Names() {
		if !slices.Contains(names, n) {
			idx = append(idx, i)
		}
	}
	out, _ := f.pick(idx, nil)
	return out
}

// Rename returns a frame with the columns renamed positionally.
func (f *Frame) Rename(names ...string) (*Frame, error) {
	if len(names) != f.Width() {
		return nil, fmt.Errorf("geoobject: rename %d columns to %d names", f.Width(), len(names))
	}
	idx := make([]int, f.Width())
	for i := range idx {
		idx[i] = i
	}
	return f.pick(idx, names)
}

// Equal reports whether f and other hold the same columns with the same
// values.
func (f *Frame) Equal(other *Frame) bool {
	if f.Width() != other.Width() {
		return false
	}
	for i := range f.Width() {
		if f.rec.ColumnName(i) != other.rec.ColumnName(i) ||
			!array.Equal(f.rec.Column(i), other.rec.Column(i)) {
			return false
		}
	}
	return true
}

// String summarizes the frame shape.
func (f *Frame) String() string {
	return fmt.Sprintf("frame[%d x %d]%v", f.Len(), f.Width(), f.Names())
}

// Concat joins frames column-wise. Nil and empty frames are skipped.
func Concat(frames ...*Frame) (*Frame, error) {
	var (
		fields []arrow.Field
		arrs   []arrow.Array
	)
	seen := map[string]struct{}{}
	n := -1
	for _, f := range frames {
		if f.Width() == 0 {
			continue
		}
		if n >= 0 && f.Len() != n {
			return nil, fmt.Errorf("%w: %v has %d rows, expected %d", ErrLengthMismatch, f.Names(), f.Len(), n)
		}
		n = f.Len()
		for i, field := range f.rec.Schema().Fields() {
			if _, dup := seen[field.Name]; dup {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, field.Name)
			}
			seen[field.Name] = struct{}{}
			fields = append(fields, field)
			arrs = append(arrs, f.rec.Column(i))
		}
	}
	return newFrame(fields, arrs, max(n, 0)), nil
}

// toArray builds an arrow array from a column's Go values.
func toArray(c Column) (arrow.Array, error) {
	switch v := c.Values.(type) {
	case nil:
		b := array.NewFloat64Builder(alloc)
		defer b.Release()
		return b.NewArray(), nil
	case []float64:
		b := array.NewFloat64Builder(alloc)
		defer b.Release()
		b.AppendValues(v, nil)
		return b.NewArray(), nil
	case []float32:
		b := array.NewFloat32Builder(alloc)
		defer b.Release()
		b.AppendValues(v, nil)
		return b.NewArray(), nil
	case []int64:
		b := array.NewInt64Builder(alloc)
		defer b.Release()
		b.AppendValues(v, nil)
		return b.NewArray(), nil
	case []int:
		b := array.NewInt64Builder(alloc)
		defer b.Release()
		for _, x := range v {
			b.Append(int64(x))
		}
		return b.NewArray(), nil
	case []int32:
		b := array.NewInt32Builder(alloc)
		defer b.Release()
		b.AppendValues(v, nil)
		return b.NewArray(), nil
	case []bool:
		b := array.NewBooleanBuilder(alloc)
		defer b.Release()
		b.AppendValues(v, nil)
		return b.NewArray(), nil
	case []string:
		b := array.NewStringBuilder(alloc)
		defer b.Release()
		b.AppendValues(v, nil)
		return b.NewArray(), nil
	case *Categorical:
		arr, err := v.dictionary()
		if err != nil {
			return nil, fmt.Errorf("%q: %w", c.Name, err)
		}
		return arr, nil
	}
	if k := reflect.ValueOf(c.Values).Kind(); k != reflect.Slice && k != reflect.Array {
		return nil, fmt.Errorf("%w: %q holds %T", ErrNotColumnar, c.Name, c.Values)
	}
	return nil, fmt.Errorf("%w: %q holds %T", ErrUnsupportedType, c.Name, c.Values)
}

// fromArray copies an arrow array into Go values.
func fromArray(arr arrow.Array) (any, error) {
	switch a := arr.(type) {
	case *array.Float64:
		return copyValues(a.Float64Values(), a.Len()), nil
	case *array.Float32:
		return copyValues(a.Float32Values(), a.Len()), nil
	case *array.Int64:
		return copyValues(a.Int64Values(), a.Len()), nil
	case *array.Int32:
		return copyValues(a.Int32Values(), a.Len()), nil
	case *array.Boolean:
		out := make([]bool, a.Len())
		for i := range out {
			out[i] = a.Value(i)
		}
		return out, nil
	case *array.String:
		out := make([]string, a.Len())
		for i := range out {
			out[i] = a.Value(i)
		}
		return out, nil
	case *array.Dictionary:
		return categoricalFromDictionary(a)
	}
	return nil, fmt.Errorf("%w: arrow %s", ErrUnsupportedType, arr.DataType())
}

func copyValues[T any](vals []T, n int) []T {
	out := make([]T, n)
	copy(out, vals)
	return out
}
