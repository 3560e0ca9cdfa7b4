package bulk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jacentio/geoobject/frame"
)

// Client uploads and downloads columnar data referenced from object
// documents.
type Client interface {
	// UploadFrame stores f and returns its descriptor
	// {data, length, width, data_type}. When formats are given, f must fit one
	// of them.
	UploadFrame(ctx context.Context, f *frame.Frame, formats ...TableFormat) (map[string]any, error)

	// UploadCategoryFrame stores a single categorical column and returns
	// {"values": <codes descriptor>, "table": <lookup table descriptor>}.
	UploadCategoryFrame(ctx context.Context, f *frame.Frame) (map[string]any, error)

	// DownloadFrame fetches the blob named by a descriptor. When columns is
	// non-empty the result columns are renamed to it.
	DownloadFrame(ctx context.Context, values map[string]any, columns []string) (*frame.Frame, error)
}

// BlobStore persists encoded payloads by reference.
type BlobStore interface {
	Put(ctx context.Context, ref string, data []byte) error
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
}

// DataClient implements Client over a BlobStore.
type DataClient struct {
	blobs  BlobStore
	logger *slog.Logger
}

// NewClient creates a data client storing blobs in store.
func NewClient(store BlobStore, logger *slog.Logger) *DataClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataClient{blobs: store, logger: logger}
}

// UploadFrame implements Client.
func (c *DataClient) UploadFrame(ctx context.Context, f *frame.Frame, formats ...TableFormat) (map[string]any, error) {
	dataType, err := c.dataType(f, formats)
	if err != nil {
		return nil, err
	}
	ref, err := c.put(ctx, f)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"data":      ref,
		"length":    f.Len(),
		"width":     f.Width(),
		"data_type": dataType,
	}, nil
}

func (c *DataClient) dataType(f *frame.Frame, formats []TableFormat) (string, error) {
	if len(formats) > 0 {
		tf, err := SelectFormat(f, formats...)
		if err != nil {
			return "", err
		}
		return tf.DataType, nil
	}
	var common string
	for i, col := range f.Columns() {
		dt, err := DataType(col)
		if err != nil {
			return "", err
		}
		if dt == "category" {
			return "", fmt.Errorf("%w: categorical column %q needs a category upload", ErrUnsupportedColumn, col.Name)
		}
		if i == 0 {
			common = dt
		} else if dt != common {
			common = "mixed"
		}
	}
	return common, nil
}

// UploadCategoryFrame implements Client.
func (c *DataClient) UploadCategoryFrame(ctx context.Context, f *frame.Frame) (map[string]any, error) {
	cols := f.Columns()
	if len(cols) != 1 {
		return nil, fmt.Errorf("%w: category upload needs one column, got %d", ErrFormatMismatch, len(cols))
	}
	cat, ok := cols[0].Values.(*frame.Categorical)
	if !ok {
		return nil, fmt.Errorf("%w: column %q is %T, not categorical", ErrFormatMismatch, cols[0].Name, cols[0].Values)
	}

	codes, err := frame.New(frame.Column{Name: cols[0].Name, Values: cat.Codes})
	if err != nil {
		return nil, err
	}
	values, err := c.UploadFrame(ctx, codes, IntegerArray1Int32)
	if err != nil {
		return nil, err
	}

	keys := make([]int32, len(cat.Categories))
	for i := range keys {
		keys[i] = int32(i)
	}
	lookup, err := frame.New(
		frame.Column{Name: "key", Values: keys},
		frame.Column{Name: "value", Values: cat.Categories},
	)
	if err != nil {
		return nil, err
	}
	ref, err := c.put(ctx, lookup)
	if err != nil {
		return nil, err
	}
	table := map[string]any{
		"data":             ref,
		"length":           lookup.Len(),
		"width":            LookupTableInt32.Width,
		"data_type":        LookupTableInt32.DataType,
		"keys_data_type":   "int32",
		"values_data_type": "string",
	}
	return map[string]any{"values": values, "table": table}, nil
}

// DownloadFrame implements Client.
func (c *DataClient) DownloadFrame(ctx context.Context, values map[string]any, columns []string) (*frame.Frame, error) {
	ref, ok := values["data"].(string)
	if !ok || ref == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescriptor, values)
	}
	data, err := c.blobs.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", ref, err)
	}
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("downloaded frame", "ref", ref, "rows", f.Len(), "columns", f.Width())
	if len(columns) == 0 {
		return f, nil
	}
	return f.Rename(columns...)
}

// Delete removes a blob. Missing blobs are not an error.
func (c *DataClient) Delete(ctx context.Context, ref string) error {
	return c.blobs.Delete(ctx, ref)
}

func (c *DataClient) put(ctx context.Context, f *frame.Frame) (string, error) {
	data, err := Encode(f)
	if err != nil {
		return "", err
	}
	ref := Ref(data)
	if err := c.blobs.Put(ctx, ref, data); err != nil {
		return "", fmt.Errorf("upload %s: %w", ref, err)
	}
	c.logger.Debug("uploaded frame", "ref", ref, "rows", f.Len(), "columns", f.Width(), "bytes", len(data))
	return ref, nil
}
