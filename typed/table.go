package typed

import (
	"context"
	"fmt"
	"slices"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/frame"
	"github.com/jacentio/geoobject/model"
)

// TableSpec declares the columns and storage format of a data table.
type TableSpec struct {
	Columns []string
	Format  bulk.TableFormat
}

func (s TableSpec) check(f *frame.Frame) error {
	if f == nil {
		return fmt.Errorf("%w: table needs columns %v", ErrValidation, s.Columns)
	}
	names := f.Names()
	if len(names) != len(s.Columns) || !f.Has(s.Columns...) {
		return fmt.Errorf("%w: table columns %v do not match %v", ErrValidation, names, s.Columns)
	}
	return nil
}

func (s TableSpec) upload(ctx context.Context, f *frame.Frame, client bulk.Client) (map[string]any, error) {
	if err := s.check(f); err != nil {
		return nil, err
	}
	ordered, err := f.Select(s.Columns...)
	if err != nil {
		return nil, err
	}
	return client.UploadFrame(ctx, ordered, s.Format)
}

// convert is the creation-path conversion of a table.
func (s TableSpec) convert(ctx context.Context, data any, client bulk.Client) (any, error) {
	f, _ := data.(*frame.Frame)
	return s.upload(ctx, f, client)
}

// split separates the declared columns of f from the rest. attrs is nil when
// f has no other columns.
func (s TableSpec) split(f *frame.Frame) (table, attrs *frame.Frame, err error) {
	var missing []string
	for _, c := range s.Columns {
		if !f.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: missing required columns %v", ErrValidation, missing)
	}
	table, err = f.Select(s.Columns...)
	if err != nil {
		return nil, nil, err
	}
	rest := f.Drop(s.Columns...)
	if rest.Width() == 0 {
		return table, nil, nil
	}
	return table, rest, nil
}

var (
	tableLength  = model.NewProperty("length", model.Int)
	tableDataRef = model.NewProperty("data", model.OptionalString)

	dataTableSchema = model.NewSchema("data-table")
)

// DataTable is a view over a table descriptor holding a fixed set of columns.
type DataTable struct {
	*model.Model
	spec TableSpec

	// prepare runs before f is uploaded and returns a step applied once the
	// table points at the new data.
	prepare func(f *frame.Frame) (func() error, error)
}

func newDataTable(spec TableSpec) func(ctx *model.Context, loc model.Location) *DataTable {
	return func(ctx *model.Context, loc model.Location) *DataTable {
		m, _ := model.New(ctx, loc.Document(), dataTableSchema, nil)
		return &DataTable{Model: m, spec: spec}
	}
}

// Columns returns the declared column names.
func (t *DataTable) Columns() []string { return slices.Clone(t.spec.Columns) }

// Length returns the number of rows.
func (t *DataTable) Length() (int, error) { return tableLength.Get(t.Document()) }

// DataRef returns the reference of the table data.
func (t *DataTable) DataRef() string {
	ref, _ := tableDataRef.Get(t.Document())
	return ref
}

// Frame downloads the table.
func (t *DataTable) Frame(ctx context.Context) (*frame.Frame, error) {
	if t.Context().IsModified(t.DataRef()) {
		return nil, fmt.Errorf("%w: table %v", ErrDataModified, t.spec.Columns)
	}
	obj := t.Context().Object()
	if obj == nil {
		return nil, ErrNoObject
	}
	return obj.DownloadFrame(ctx, t.AsDocument(), t.spec.Columns)
}

// SetFrame uploads f, whose columns must be exactly the declared ones, and
// points the table at the new data. The document is unchanged when f is
// rejected.
func (t *DataTable) SetFrame(ctx context.Context, f *frame.Frame) error {
	apply, err := t.stage(ctx, f)
	if err != nil {
		return err
	}
	return apply()
}

// stage checks and uploads f and returns the step that writes the new
// descriptor into the document.
func (t *DataTable) stage(ctx context.Context, f *frame.Frame) (func() error, error) {
	if err := t.spec.check(f); err != nil {
		return nil, err
	}
	client, err := dataClient(t.Context())
	if err != nil {
		return nil, err
	}
	var after func() error
	if t.prepare != nil {
		if after, err = t.prepare(f); err != nil {
			return nil, err
		}
	}
	info, err := t.spec.upload(ctx, f, client)
	if err != nil {
		return nil, err
	}
	return func() error {
		doc := t.Document()
		for k, v := range info {
			doc[k] = v
		}
		t.Context().MarkModified(t.DataRef())
		if after != nil {
			return after()
		}
		return nil
	}, nil
}

// Validate implements model.Validator.
func (t *DataTable) Validate() error { return nil }

// compositeSchema binds a table at tablePath and an attribute list at
// "attributes" sharing its rows. Its creation data is a single frame holding
// the table columns followed by any attribute columns.
func compositeSchema(name, tablePath string, spec TableSpec) *model.Schema {
	return model.NewSchema(name).
		Check(func(data any) error {
			f, ok := data.(*frame.Frame)
			if !ok || f == nil {
				return fmt.Errorf("%w: %s needs a frame, got %T", ErrValidation, name, data)
			}
			_, _, err := spec.split(f)
			return err
		}).
		SubModel(model.SubModel{
			Name: "table",
			Path: tablePath,
			Data: func(data any) any {
				table, _, _ := spec.split(data.(*frame.Frame))
				return table
			},
			Convert: spec.convert,
		}).
		SubModel(model.SubModel{
			Name: "attributes",
			Path: "attributes",
			Kind: model.KindList,
			Data: func(data any) any {
				if _, attrs, _ := spec.split(data.(*frame.Frame)); attrs != nil {
					return attrs
				}
				return nil
			},
			Convert: attributesToDocument,
		})
}

// DataTableAndAttributes is a table plus attributes with one value per table
// row.
type DataTableAndAttributes struct {
	*model.Model
	Table      *DataTable
	Attributes *Attributes

	err error
}

func newDataTableAndAttributes(schema *model.Schema, spec TableSpec) func(ctx *model.Context, loc model.Location) *DataTableAndAttributes {
	return func(ctx *model.Context, loc model.Location) *DataTableAndAttributes {
		d := &DataTableAndAttributes{}
		m, err := model.New(ctx, loc.Document(), schema, func(m *model.Model) {
			d.Table = model.Materialize(m, "table", newDataTable(spec))
			d.Attributes = model.Materialize(m, "attributes", newAttributes)
		})
		d.Model = m
		d.err = err
		return d
	}
}

// Length returns the number of table rows.
func (d *DataTableAndAttributes) Length() (int, error) { return d.Table.Length() }

// Frame downloads the table columns followed by the attribute columns.
func (d *DataTableAndAttributes) Frame(ctx context.Context) (*frame.Frame, error) {
	table, err := d.Table.Frame(ctx)
	if err != nil {
		return nil, err
	}
	if d.Attributes.Len() == 0 {
		return table, nil
	}
	attrs, err := d.Attributes.Frame(ctx)
	if err != nil {
		return nil, err
	}
	return frame.Concat(table, attrs)
}

// SetFrame writes the table columns of f and replaces the attributes with
// the remaining columns. Missing table columns fail before any upload, and a
// rejected table or attribute column leaves the document unchanged.
func (d *DataTableAndAttributes) SetFrame(ctx context.Context, f *frame.Frame) error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrValidation)
	}
	table, attrs, err := d.Table.spec.split(f)
	if err != nil {
		return err
	}
	apply, err := d.Table.stage(ctx, table)
	if err != nil {
		return err
	}
	if attrs == nil {
		err = d.Attributes.Clear()
	} else {
		err = d.Attributes.Set(ctx, attrs)
	}
	if err != nil {
		return err
	}
	return apply()
}

// Validate checks that every attribute has one value per table row.
func (d *DataTableAndAttributes) Validate() error {
	if d.err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, d.err)
	}
	n, err := d.Length()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return d.Attributes.ValidateLengths(n)
}
