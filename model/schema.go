package model

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/docpath"
)

// Kind is the shape of a sub-document.
type Kind int

const (
	// KindObject binds an object sub-document.
	KindObject Kind = iota
	// KindList binds a list sub-document.
	KindList
)

// ConvertFunc builds the document fragment for data on the creation path.
type ConvertFunc func(ctx context.Context, data any, client bulk.Client) (any, error)

// Binding is a creation-path property binding, built with Field.
type Binding struct {
	Name  string
	path  *docpath.Path
	apply func(dst Document, data any) error
}

// Field binds the value returned by get to expr. When the data passed to
// ToDocument is not a D, the zero value of T is encoded.
func Field[D, T any](name, expr string, codec Codec[T], get func(D) T) Binding {
	prop := NewProperty(expr, codec)
	return Binding{
		Name: name,
		path: prop.path,
		apply: func(dst Document, data any) error {
			var v T
			if d, ok := data.(D); ok {
				v = get(d)
			}
			return prop.Set(dst, v)
		},
	}
}

// SubModel binds a nested view.
type SubModel struct {
	Name string

	// Path locates the sub-document. An empty path shares the parent
	// document.
	Path string
	Kind Kind

	// Data extracts the sub-model's data from the parent data. Nil passes the
	// parent data through.
	Data func(data any) any

	// Convert builds the sub-document on the creation path.
	Convert ConvertFunc
}

type subModel struct {
	SubModel
	path *docpath.Path
}

// Check validates data before any conversion work is done.
type Check func(data any) error

// Hook runs after a document has been converted.
type Hook func(ctx context.Context, dst Document, data any, client bulk.Client) error

// Schema is the binding table of a model type.
type Schema struct {
	name   string
	fields []Binding
	subs   []subModel
	checks []Check
	hooks  []Hook
}

// NewSchema creates an empty schema.
func NewSchema(name string) *Schema {
	return &Schema{name: name}
}

// Extend copies base under a new name.
func Extend(base *Schema, name string) *Schema {
	return &Schema{
		name:   name,
		fields: slices.Clone(base.fields),
		subs:   slices.Clone(base.subs),
		checks: slices.Clone(base.checks),
		hooks:  slices.Clone(base.hooks),
	}
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Field adds b, replacing a binding of the same name in place.
func (s *Schema) Field(b Binding) *Schema {
	if i := slices.IndexFunc(s.fields, func(f Binding) bool { return f.Name == b.Name }); i >= 0 {
		s.fields[i] = b
		return s
	}
	s.fields = append(s.fields, b)
	return s
}

// SubModel adds m, replacing a sub-model of the same name in place. It panics
// if m.Path does not compile.
func (s *Schema) SubModel(m SubModel) *Schema {
	sm := subModel{SubModel: m}
	if m.Path != "" {
		sm.path = docpath.MustCompile(m.Path)
	}
	if i := slices.IndexFunc(s.subs, func(o subModel) bool { return o.Name == m.Name }); i >= 0 {
		s.subs[i] = sm
		return s
	}
	s.subs = append(s.subs, sm)
	return s
}

// Check adds a data check run before conversion.
func (s *Schema) Check(c Check) *Schema {
	s.checks = append(s.checks, c)
	return s
}

// Hook adds a post-conversion hook.
func (s *Schema) Hook(h Hook) *Schema {
	s.hooks = append(s.hooks, h)
	return s
}

// Properties returns the names of the property bindings in order.
func (s *Schema) Properties() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// SubModels returns the sub-model bindings in order.
func (s *Schema) SubModels() []SubModel {
	out := make([]SubModel, len(s.subs))
	for i, m := range s.subs {
		out[i] = m.SubModel
	}
	return out
}

// Lookup returns the sub-model bound to name.
func (s *Schema) Lookup(name string) (SubModel, bool) {
	m, ok := s.lookup(name)
	return m.SubModel, ok
}

func (s *Schema) lookup(name string) (subModel, bool) {
	i := slices.IndexFunc(s.subs, func(m subModel) bool { return m.Name == name })
	if i < 0 {
		return subModel{}, false
	}
	return s.subs[i], true
}

// Convert returns a ConvertFunc running ToDocument on s, for use as a
// sub-model conversion.
func (s *Schema) Convert() ConvertFunc {
	return func(ctx context.Context, data any, client bulk.Client) (any, error) {
		return s.ToDocument(ctx, data, client)
	}
}

// ToDocument builds a document for data. Property bindings are applied
// first, then each sub-model conversion is spliced in at its path or merged
// into the result when it has none. Bulk data is uploaded through client.
func (s *Schema) ToDocument(ctx context.Context, data any, client bulk.Client) (Document, error) {
	for _, c := range s.checks {
		if err := c(data); err != nil {
			return nil, err
		}
	}

	result := Document{}
	for _, f := range s.fields {
		if err := f.apply(result, data); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.name, f.Name, err)
		}
	}

	for _, m := range s.subs {
		if m.Convert == nil {
			continue
		}
		sub := data
		if m.Data != nil {
			sub = m.Data(data)
		}
		v, err := m.Convert(ctx, sub, client)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.name, m.Name, err)
		}
		if m.path != nil {
			if err := m.path.Assign(result, v); err != nil {
				return nil, err
			}
			continue
		}
		frag, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s.%s: %w", s.name, m.Name, decodeError("object fragment", v))
		}
		maps.Copy(result, frag)
	}

	for _, h := range s.hooks {
		if err := h(ctx, result, data, client); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return result, nil
}
