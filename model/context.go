package model

import (
	"context"
	"time"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/frame"
)

// Metadata identifies a stored object version.
type Metadata struct {
	ID         string
	Path       string
	SchemaID   string
	VersionID  string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Object is a handle to a stored object version.
type Object interface {
	Metadata() Metadata

	// Document returns a copy of the stored document.
	Document() Document

	// DataClient returns the client used for the object's bulk data.
	DataClient() bulk.Client

	DownloadFrame(ctx context.Context, values Document, columns []string) (*frame.Frame, error)
	DownloadAttributeFrame(ctx context.Context, attribute Document) (*frame.Frame, error)
	DownloadArray(ctx context.Context, expr string) (frame.Column, error)

	// Update stores doc as a new version and returns its handle.
	Update(ctx context.Context, doc Document) (Object, error)
}

// Context is shared by every view of one document tree.
type Context struct {
	obj      Object
	modified map[string]struct{}
}

// NewContext creates a context for obj. obj is nil while a document is being
// created.
func NewContext(obj Object) *Context {
	return &Context{obj: obj, modified: make(map[string]struct{})}
}

// Object returns the stored object the tree was loaded from, or nil.
func (c *Context) Object() Object { return c.obj }

// MarkModified records that the data at ref was written in this session.
func (c *Context) MarkModified(ref string) {
	c.modified[ref] = struct{}{}
}

// IsModified reports whether ref was written since the last reset.
func (c *Context) IsModified(ref string) bool {
	_, ok := c.modified[ref]
	return ok
}

// Reset points the context at obj and forgets modified references.
func (c *Context) Reset(obj Object) {
	c.obj = obj
	clear(c.modified)
}
