package frame

import (
	"fmt"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

var categoryType = &arrow.DictionaryType{
	IndexType: arrow.PrimitiveTypes.Int32,
	ValueType: arrow.BinaryTypes.String,
}

// Categorical is a dictionary-encoded string column. A code of -1 marks a
// missing value. Inside a frame it is held as a dictionary array with null
// indices for missing values.
type Categorical struct {
	Codes      []int32
	Categories []string
}

// NewCategorical encodes values against categories. When categories is empty
// the distinct values are used in order of first appearance. Empty strings are
// treated as missing.
func NewCategorical(values []string, categories []string) (*Categorical, error) {
	index := make(map[string]int32, len(categories))
	cats := slices.Clone(categories)
	for i, c := range cats {
		index[c] = int32(i)
	}
	fixed := len(categories) > 0
	codes := make([]int32, len(values))
	for i, v := range values {
		if v == "" {
			codes[i] = -1
			continue
		}
		code, ok := index[v]
		if !ok {
			if fixed {
				return nil, fmt.Errorf("geoobject: value %q is not a declared category", v)
			}
			code = int32(len(cats))
			cats = append(cats, v)
			index[v] = code
		}
		codes[i] = code
	}
	return &Categorical{Codes: codes, Categories: cats}, nil
}

// Len returns the number of values.
func (c *Categorical) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Codes)
}

// Values decodes the column. Missing values decode to "".
func (c *Categorical) Values() []string {
	out := make([]string, c.Len())
	for i, code := range c.Codes {
		if code >= 0 && int(code) < len(c.Categories) {
			out[i] = c.Categories[code]
		}
	}
	return out
}

// dictionary builds the arrow dictionary array for c.
func (c *Categorical) dictionary() (*array.Dictionary, error) {
	if c == nil {
		c = &Categorical{}
	}
	ib := array.NewInt32Builder(alloc)
	defer ib.Release()
	for _, code := range c.Codes {
		switch {
		case code < 0:
			ib.AppendNull()
		case int(code) >= len(c.Categories):
			return nil, fmt.Errorf("geoobject: category code %d out of range [0, %d)", code, len(c.Categories))
		default:
			ib.Append(code)
		}
	}
	vb := array.NewStringBuilder(alloc)
	defer vb.Release()
	vb.AppendValues(c.Categories, nil)

	indices := ib.NewArray()
	defer indices.Release()
	dict := vb.NewArray()
	defer dict.Release()
	return array.NewDictionaryArray(categoryType, indices, dict), nil
}

func categoricalFromDictionary(d *array.Dictionary) (*Categorical, error) {
	indices, ok := d.Indices().(*array.Int32)
	if !ok {
		return nil, fmt.Errorf("%w: dictionary indices %s", ErrUnsupportedType, d.Indices().DataType())
	}
	dict, ok := d.Dictionary().(*array.String)
	if !ok {
		return nil, fmt.Errorf("%w: dictionary values %s", ErrUnsupportedType, d.Dictionary().DataType())
	}
	c := &Categorical{
		Codes:      make([]int32, indices.Len()),
		Categories: make([]string, dict.Len()),
	}
	for i := range c.Codes {
		if indices.IsNull(i) {
			c.Codes[i] = -1
			continue
		}
		c.Codes[i] = indices.Value(i)
	}
	for i := range c.Categories {
		c.Categories[i] = dict.Value(i)
	}
	return c, nil
}
