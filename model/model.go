package model

import (
	"fmt"

	"github.com/jacentio/geoobject/docpath"
)

// Validator is implemented by every view.
type Validator interface {
	Validate() error
}

// Location names a sub-document: the parent document and the path of the
// sub-document inside it. A nil path is the parent itself.
type Location struct {
	Parent Document
	Path   *docpath.Path
}

// Document returns the object at the location, or nil if it is not an
// object.
func (l Location) Document() Document {
	if l.Path == nil {
		return l.Parent
	}
	doc, _ := l.Path.Get(l.Parent).(map[string]any)
	return doc
}

// Model is a view over a document bound to a schema.
type Model struct {
	ctx      *Context
	doc      Document
	schema   *Schema
	bind     func(m *Model)
	children []child
	err      error
}

type child struct {
	name string
	view Validator
}

// New creates a view over doc and runs bind to materialize its sub-models.
// bind is re-run by Rebuild; it should call Materialize for each declared
// sub-model. The view is returned even when a bound sub-document has the
// wrong shape; the error reports it.
func New(ctx *Context, doc Document, schema *Schema, bind func(m *Model)) (*Model, error) {
	if doc == nil {
		doc = Document{}
	}
	m := &Model{ctx: ctx, doc: doc, schema: schema, bind: bind}
	return m, m.Rebuild()
}

// Rebuild re-materializes every sub-model over the current document.
func (m *Model) Rebuild() error {
	m.children = nil
	m.err = nil
	if m.bind != nil {
		m.bind(m)
	}
	return m.err
}

// Replace swaps the underlying document and rebuilds.
func (m *Model) Replace(doc Document) error {
	if doc == nil {
		doc = Document{}
	}
	m.doc = doc
	return m.Rebuild()
}

// Context returns the shared context.
func (m *Model) Context() *Context { return m.ctx }

// Document returns the underlying document. It is not a copy.
func (m *Model) Document() Document { return m.doc }

// AsDocument returns a deep copy of the underlying document.
func (m *Model) AsDocument() Document { return CloneDocument(m.doc) }

// Schema returns the bound schema.
func (m *Model) Schema() *Schema { return m.schema }

// Search evaluates a read expression against the document.
func (m *Model) Search(expr string) (any, error) {
	return docpath.Get(m.doc, expr)
}

// Validate validates every materialized sub-model in declaration order.
func (m *Model) Validate() error {
	for _, c := range m.children {
		if err := c.view.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Materialize locates the sub-document bound to name, attaching an empty
// object or list when it is absent, builds its view and records the view for
// validation. Location errors are reported by New and Rebuild. It panics if
// the schema has no sub-model called name.
func Materialize[V Validator](m *Model, name string, build func(ctx *Context, loc Location) V) V {
	sub, ok := m.schema.lookup(name)
	if !ok {
		panic(fmt.Sprintf("model: schema %q has no sub-model %q", m.schema.Name(), name))
	}
	loc := Location{Parent: m.doc, Path: sub.path}
	if sub.path != nil {
		if err := attach(m.doc, sub); err != nil && m.err == nil {
			m.err = err
		}
	}
	view := build(m.ctx, loc)
	m.children = append(m.children, child{name: name, view: view})
	return view
}

func attach(doc Document, sub subModel) error {
	cur := sub.path.Get(doc)
	switch sub.Kind {
	case KindList:
		if cur == nil {
			return sub.path.Assign(doc, []any{})
		}
		items, ok := cur.([]any)
		if !ok {
			return fmt.Errorf("%s: %w", sub.path, decodeError("list", cur))
		}
		if err := checkItems(items); err != nil {
			return fmt.Errorf("%s%w", sub.path, err)
		}
	default:
		if cur == nil {
			return sub.path.Assign(doc, map[string]any{})
		}
		if _, ok := cur.(map[string]any); !ok {
			return fmt.Errorf("%s: %w", sub.path, decodeError("object", cur))
		}
	}
	return nil
}
