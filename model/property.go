package model

import (
	"fmt"

	"github.com/jacentio/geoobject/docpath"
)

// Property binds a typed value to a path inside a document.
type Property[T any] struct {
	path  *docpath.Path
	codec Codec[T]
}

// NewProperty binds codec to expr. It panics if expr does not compile, so
// properties are declared at package level.
func NewProperty[T any](expr string, codec Codec[T]) Property[T] {
	return Property[T]{path: docpath.MustCompile(expr), codec: codec}
}

// Path returns the bound path.
func (p Property[T]) Path() *docpath.Path { return p.path }

// Get decodes the value at the bound path.
func (p Property[T]) Get(doc Document) (T, error) {
	v, err := p.codec.Decode(p.path.Get(doc))
	if err != nil {
		return v, fmt.Errorf("%s: %w", p.path, err)
	}
	return v, nil
}

// Set encodes v at the bound path. A nil encoding deletes the path.
func (p Property[T]) Set(doc Document, v T) error {
	raw, err := p.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("%s: %w", p.path, err)
	}
	if raw == nil {
		return p.path.Delete(doc)
	}
	return p.path.Assign(doc, raw)
}
