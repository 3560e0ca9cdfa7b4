package typed

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/frame"
	"github.com/jacentio/geoobject/model"
)

// Attribute types.
const (
	AttributeScalar   = "scalar"
	AttributeInteger  = "integer"
	AttributeBool     = "bool"
	AttributeString   = "string"
	AttributeCategory = "category"
)

// attributeFormats lists the table formats accepted for each attribute type.
// Category attributes use a dedicated upload.
var attributeFormats = map[string][]bulk.TableFormat{
	AttributeScalar:  {bulk.FloatArray1},
	AttributeInteger: {bulk.IntegerArray1Int32, bulk.IntegerArray1Int64},
	AttributeBool:    {bulk.BoolArray1},
	AttributeString:  {bulk.StringArray},
}

// InferAttributeType maps a column's value type to an attribute type.
func InferAttributeType(col frame.Column) (string, error) {
	switch col.Values.(type) {
	case []int64, []int32, []int:
		return AttributeInteger, nil
	case []float64, []float32:
		return AttributeScalar, nil
	case []bool:
		return AttributeBool, nil
	case *frame.Categorical:
		return AttributeCategory, nil
	case []string:
		return AttributeString, nil
	}
	return "", fmt.Errorf("%w: column %q holds %T", ErrUnsupportedDataType, col.Name, col.Values)
}

var (
	attrName    = model.NewProperty("name", model.String)
	attrKey     = model.NewProperty("key", model.OptionalString)
	attrType    = model.NewProperty("attribute_type", model.String)
	attrDataRef = model.NewProperty("values.data", model.OptionalString)
	attrLength  = model.NewProperty("values.length", model.Optional(model.Int))

	attributeSchema = model.NewSchema("attribute")
)

// Attribute is a view over one attribute document.
type Attribute struct {
	*model.Model
}

func newAttribute(ctx *model.Context, doc model.Document) *Attribute {
	m, _ := model.New(ctx, doc, attributeSchema, nil)
	return &Attribute{Model: m}
}

// Name returns the attribute name.
func (a *Attribute) Name() (string, error) { return attrName.Get(a.Document()) }

// SetName renames the attribute.
func (a *Attribute) SetName(name string) error { return attrName.Set(a.Document(), name) }

// Key returns the attribute key, falling back to its name.
func (a *Attribute) Key() (string, error) {
	key, err := attrKey.Get(a.Document())
	if err != nil || key != "" {
		return key, err
	}
	return a.Name()
}

// AttributeType returns the attribute type tag.
func (a *Attribute) AttributeType() (string, error) { return attrType.Get(a.Document()) }

// DataRef returns the reference of the attribute values.
func (a *Attribute) DataRef() string {
	ref, _ := attrDataRef.Get(a.Document())
	return ref
}

// Length returns the number of values, and false when it is not recorded.
func (a *Attribute) Length() (int, bool) {
	n, err := attrLength.Get(a.Document())
	if err != nil || n == nil {
		return 0, false
	}
	return *n, true
}

// Frame downloads the attribute values as a one-column frame.
func (a *Attribute) Frame(ctx context.Context) (*frame.Frame, error) {
	if a.Context().IsModified(a.DataRef()) {
		name, _ := a.Name()
		return nil, fmt.Errorf("%w: attribute %q", ErrDataModified, name)
	}
	obj := a.Context().Object()
	if obj == nil {
		return nil, ErrNoObject
	}
	return obj.DownloadAttributeFrame(ctx, a.AsDocument())
}

// SetValues uploads the single column of f as the attribute's values. With
// inferType the attribute type is re-derived from the column first.
func (a *Attribute) SetValues(ctx context.Context, f *frame.Frame, inferType bool) error {
	if f.Width() != 1 {
		return fmt.Errorf("%w: attribute values need exactly one column, got %d", ErrValidation, f.Width())
	}
	client, err := dataClient(a.Context())
	if err != nil {
		return err
	}
	kind, err := a.AttributeType()
	if inferType || err != nil {
		kind, err = InferAttributeType(f.Columns()[0])
		if err != nil {
			return err
		}
		if err := attrType.Set(a.Document(), kind); err != nil {
			return err
		}
	}
	if err := uploadAttributeValues(ctx, a.Document(), f, kind, client); err != nil {
		return err
	}
	a.Context().MarkModified(a.DataRef())
	return nil
}

// Validate implements model.Validator.
func (a *Attribute) Validate() error { return nil }

func dataClient(ctx *model.Context) (bulk.Client, error) {
	obj := ctx.Object()
	if obj == nil {
		return nil, ErrNoObject
	}
	return obj.DataClient(), nil
}

// uploadAttributeValues stores f and records its descriptor in doc.
func uploadAttributeValues(ctx context.Context, doc model.Document, f *frame.Frame, kind string, client bulk.Client) error {
	if kind == AttributeCategory {
		info, err := client.UploadCategoryFrame(ctx, f)
		if err != nil {
			return err
		}
		for k, v := range info {
			doc[k] = v
		}
	} else {
		info, err := client.UploadFrame(ctx, f, attributeFormats[kind]...)
		if err != nil {
			return err
		}
		doc["values"] = info
	}
	switch kind {
	case AttributeScalar, AttributeInteger, AttributeCategory:
		doc["nan_description"] = map[string]any{"values": []any{}}
	}
	return nil
}

// attributeDocument builds a new attribute document for one column.
func attributeDocument(ctx context.Context, col frame.Column, client bulk.Client) (model.Document, error) {
	kind, err := InferAttributeType(col)
	if err != nil {
		return nil, err
	}
	f, err := frame.New(col)
	if err != nil {
		return nil, err
	}
	doc := model.Document{
		"name":           col.Name,
		"key":            uuid.NewString(),
		"attribute_type": kind,
	}
	if err := uploadAttributeValues(ctx, doc, f, kind, client); err != nil {
		return nil, err
	}
	return doc, nil
}

// attributesToDocument converts a frame into a list of attribute documents.
func attributesToDocument(ctx context.Context, data any, client bulk.Client) (any, error) {
	if data == nil {
		return []any{}, nil
	}
	f, ok := data.(*frame.Frame)
	if !ok {
		return nil, fmt.Errorf("%w: attributes need a frame, got %T", ErrValidation, data)
	}
	out := make([]any, 0, f.Width())
	for _, col := range f.Columns() {
		doc, err := attributeDocument(ctx, col, client)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// Attributes is an ordered collection of attributes.
type Attributes struct {
	*model.List[*Attribute]
}

func newAttributes(ctx *model.Context, loc model.Location) *Attributes {
	return &Attributes{List: model.NewList(ctx, loc, newAttribute)}
}

// ByName returns the last attribute called name.
func (as *Attributes) ByName(name string) (*Attribute, bool) {
	var found *Attribute
	for _, a := range as.All() {
		if n, _ := a.Name(); n == name {
			found = a
		}
	}
	return found, found != nil
}

// ByKey returns the attribute with the given key.
func (as *Attributes) ByKey(key string) (*Attribute, bool) {
	for _, a := range as.All() {
		if k, _ := a.Key(); k == key {
			return a, true
		}
	}
	return nil, false
}

// Frame downloads attribute values as one frame, one column per attribute.
// With keys, only attributes whose key is listed are included.
func (as *Attributes) Frame(ctx context.Context, keys ...string) (*frame.Frame, error) {
	var parts []*frame.Frame
	for _, a := range as.All() {
		if len(keys) > 0 {
			k, _ := a.Key()
			if !slices.Contains(keys, k) {
				continue
			}
		}
		f, err := a.Frame(ctx)
		if err != nil {
			return nil, err
		}
		parts = append(parts, f)
	}
	return frame.Concat(parts...)
}

// Append adds a new attribute from a one-column frame.
func (as *Attributes) Append(ctx context.Context, f *frame.Frame) error {
	if f.Width() != 1 {
		return fmt.Errorf("%w: append needs exactly one column, got %d", ErrValidation, f.Width())
	}
	return as.AppendAll(ctx, f)
}

// AppendAll adds one new attribute per column of f. Names already used in the
// collection are rejected before anything is uploaded.
func (as *Attributes) AppendAll(ctx context.Context, f *frame.Frame) error {
	client, err := dataClient(as.Context())
	if err != nil {
		return err
	}
	for _, name := range f.Names() {
		if _, taken := as.ByName(name); taken {
			return fmt.Errorf("%w: attribute %q already exists", ErrValidation, name)
		}
	}
	for _, col := range f.Columns() {
		doc, err := attributeDocument(ctx, col, client)
		if err != nil {
			return err
		}
		if err := as.AppendRaw(doc); err != nil {
			return err
		}
		as.Context().MarkModified(newAttribute(as.Context(), doc).DataRef())
	}
	return nil
}

// Set replaces the collection with the columns of f. Attributes whose name
// matches a column keep their key and attribute type and take the column's
// values; other columns become new attributes; attributes with no matching
// column are removed. The result follows the column order of f. The
// collection is left untouched when any column fails to upload.
func (as *Attributes) Set(ctx context.Context, f *frame.Frame) error {
	client, err := dataClient(as.Context())
	if err != nil {
		return err
	}
	existing := make(map[string]*Attribute, as.Len())
	for _, a := range as.All() {
		if name, err := a.Name(); err == nil {
			existing[name] = a
		}
	}
	docs := make([]model.Document, 0, f.Width())
	for _, col := range f.Columns() {
		a, ok := existing[col.Name]
		if !ok {
			doc, err := attributeDocument(ctx, col, client)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
			continue
		}
		doc, err := a.withValues(ctx, col, client)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	if err := as.Clear(); err != nil {
		return err
	}
	for _, doc := range docs {
		if err := as.AppendRaw(doc); err != nil {
			return err
		}
		as.Context().MarkModified(newAttribute(as.Context(), doc).DataRef())
	}
	return nil
}

// withValues returns a copy of the attribute document holding col as its
// values, stored under the attribute's declared type.
func (a *Attribute) withValues(ctx context.Context, col frame.Column, client bulk.Client) (model.Document, error) {
	f, err := frame.New(col)
	if err != nil {
		return nil, err
	}
	doc := maps.Clone(a.Document())
	kind, err := a.AttributeType()
	if err != nil {
		if kind, err = InferAttributeType(col); err != nil {
			return nil, err
		}
		doc["attribute_type"] = kind
	}
	if err := uploadAttributeValues(ctx, doc, f, kind, client); err != nil {
		name, _ := a.Name()
		return nil, fmt.Errorf("attribute %q (%s): %w", name, kind, err)
	}
	return doc, nil
}

// ValidateLengths checks that every attribute holds n values.
func (as *Attributes) ValidateLengths(n int) error {
	for _, a := range as.All() {
		name, _ := a.Name()
		length, ok := a.Length()
		if !ok {
			return fmt.Errorf("%w: can't determine length of attribute %q", ErrValidation, name)
		}
		if length != n {
			return fmt.Errorf("%w: attribute %q length (%d) does not match expected length (%d)", ErrValidation, name, length, n)
		}
	}
	return nil
}
