package bulk

import (
	"context"
	"fmt"
	"math"

	"github.com/jacentio/geoobject/frame"
)

// DownloadAttribute fetches the values of an attribute document as a
// one-column frame named after the attribute. Category attributes are
// reassembled from their code array and lookup table; float values listed in
// the attribute's nan_description are replaced by NaN.
func DownloadAttribute(ctx context.Context, c Client, attr map[string]any) (*frame.Frame, error) {
	name, _ := attr["name"].(string)
	values, ok := attr["values"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: attribute %q has no values", ErrInvalidDescriptor, name)
	}

	if attr["attribute_type"] == "category" {
		return downloadCategory(ctx, c, name, values, attr["table"])
	}

	f, err := c.DownloadFrame(ctx, values, []string{name})
	if err != nil {
		return nil, err
	}
	return applyNaN(f, attr["nan_description"])
}

func downloadCategory(ctx context.Context, c Client, name string, values map[string]any, rawTable any) (*frame.Frame, error) {
	table, ok := rawTable.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: category attribute %q has no lookup table", ErrInvalidDescriptor, name)
	}
	codes, err := c.DownloadFrame(ctx, values, []string{name})
	if err != nil {
		return nil, err
	}
	lookup, err := c.DownloadFrame(ctx, table, []string{"key", "value"})
	if err != nil {
		return nil, err
	}

	keyCol, _ := lookup.Column("key")
	valueCol, _ := lookup.Column("value")
	keys, ok1 := keyCol.Values.([]int32)
	names, ok2 := valueCol.Values.([]string)
	codeCol, _ := codes.Column(name)
	raw, ok3 := codeCol.Values.([]int32)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("%w: category attribute %q has malformed data", ErrInvalidDescriptor, name)
	}

	position := make(map[int32]int32, len(keys))
	for i, k := range keys {
		position[k] = int32(i)
	}
	cat := &frame.Categorical{Codes: make([]int32, len(raw)), Categories: names}
	for i, k := range raw {
		p, ok := position[k]
		if !ok {
			p = -1
		}
		cat.Codes[i] = p
	}
	return frame.New(frame.Column{Name: name, Values: cat})
}

func applyNaN(f *frame.Frame, desc any) (*frame.Frame, error) {
	d, ok := desc.(map[string]any)
	if !ok {
		return f, nil
	}
	list, _ := d["values"].([]any)
	if len(list) == 0 {
		return f, nil
	}
	sentinels := make(map[float64]struct{}, len(list))
	for _, v := range list {
		if x, ok := v.(float64); ok {
			sentinels[x] = struct{}{}
		}
	}
	cols := f.Columns()
	for i, c := range cols {
		vals, ok := c.Values.([]float64)
		if !ok {
			continue
		}
		out := make([]float64, len(vals))
		for j, v := range vals {
			if _, hit := sentinels[v]; hit {
				v = math.NaN()
			}
			out[j] = v
		}
		cols[i].Values = out
	}
	return frame.New(cols...)
}
