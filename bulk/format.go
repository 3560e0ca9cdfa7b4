package bulk

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jacentio/geoobject/frame"
)

var (
	// ErrNotFound is returned when a referenced blob does not exist.
	ErrNotFound = errors.New("geoobject: data not found")

	// ErrFormatMismatch is returned when a frame fits none of the requested
	// table formats.
	ErrFormatMismatch = errors.New("geoobject: frame does not match any table format")

	// ErrUnsupportedColumn is returned when a column holds values that cannot
	// be stored.
	ErrUnsupportedColumn = errors.New("geoobject: unsupported column type")

	// ErrInvalidDescriptor is returned when a data descriptor lacks a usable
	// reference.
	ErrInvalidDescriptor = errors.New("geoobject: invalid data descriptor")
)

// TableFormat describes an accepted blob layout.
type TableFormat struct {
	Name     string
	Width    int
	DataType string
	accepts  []string
}

// Table formats used by geoscience object schemas.
var (
	FloatArray1        = TableFormat{Name: "float-array-1", Width: 1, DataType: "float64", accepts: []string{"float64", "float32"}}
	FloatArray3        = TableFormat{Name: "float-array-3", Width: 3, DataType: "float64", accepts: []string{"float64", "float32"}}
	IntegerArray1Int32 = TableFormat{Name: "integer-array-1-int32", Width: 1, DataType: "int32", accepts: []string{"int32"}}
	IntegerArray1Int64 = TableFormat{Name: "integer-array-1-int64", Width: 1, DataType: "int64", accepts: []string{"int64"}}
	BoolArray1         = TableFormat{Name: "bool-array-1", Width: 1, DataType: "bool", accepts: []string{"bool"}}
	StringArray        = TableFormat{Name: "string-array", Width: 1, DataType: "string", accepts: []string{"string"}}
	LookupTableInt32   = TableFormat{Name: "lookup-table-int32", Width: 2, DataType: "int32/string"}
)

// Fits reports whether f can be stored in this format.
func (tf TableFormat) Fits(f *frame.Frame) bool {
	if f.Width() != tf.Width {
		return false
	}
	for _, c := range f.Columns() {
		dt, err := DataType(c)
		if err != nil || !slices.Contains(tf.accepts, dt) {
			return false
		}
	}
	return true
}

// SelectFormat picks the first format in formats that fits f.
func SelectFormat(f *frame.Frame, formats ...TableFormat) (TableFormat, error) {
	for _, tf := range formats {
		if tf.Fits(f) {
			return tf, nil
		}
	}
	names := make([]string, len(formats))
	for i, tf := range formats {
		names[i] = tf.Name
	}
	return TableFormat{}, fmt.Errorf("%w: %s not in %v", ErrFormatMismatch, f, names)
}

// DataType returns the storage type name of a column.
func DataType(c frame.Column) (string, error) {
	switch c.Values.(type) {
	case []float64:
		return "float64", nil
	case []float32:
		return "float32", nil
	case []int64:
		return "int64", nil
	case []int32:
		return "int32", nil
	case []bool:
		return "bool", nil
	case []string:
		return "string", nil
	case *frame.Categorical:
		return "category", nil
	}
	return "", fmt.Errorf("%w: column %q holds %T", ErrUnsupportedColumn, c.Name, c.Values)
}
