package objectstore

import (
	"context"
	"fmt"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/docpath"
	"github.com/jacentio/geoobject/frame"
	"github.com/jacentio/geoobject/model"
)

// Object is a handle to one stored object version. It implements
// model.Object.
type Object struct {
	meta model.Metadata
	doc  model.Document
	data bulk.Client
	svc  Service
}

var _ model.Object = (*Object)(nil)

// NewObject creates a handle. Updates are written through svc.
func NewObject(meta model.Metadata, doc model.Document, data bulk.Client, svc Service) *Object {
	return &Object{meta: meta, doc: doc, data: data, svc: svc}
}

// Metadata implements model.Object.
func (o *Object) Metadata() model.Metadata { return o.meta }

// Document implements model.Object. Each call returns a fresh copy.
func (o *Object) Document() model.Document { return model.CloneDocument(o.doc) }

// DataClient implements model.Object.
func (o *Object) DataClient() bulk.Client { return o.data }

// DownloadFrame implements model.Object.
func (o *Object) DownloadFrame(ctx context.Context, values model.Document, columns []string) (*frame.Frame, error) {
	return o.data.DownloadFrame(ctx, values, columns)
}

// DownloadAttributeFrame implements model.Object.
func (o *Object) DownloadAttributeFrame(ctx context.Context, attribute model.Document) (*frame.Frame, error) {
	return bulk.DownloadAttribute(ctx, o.data, attribute)
}

// DownloadArray downloads the single-column table whose descriptor is found
// at expr in the stored document.
func (o *Object) DownloadArray(ctx context.Context, expr string) (frame.Column, error) {
	raw, err := docpath.Get(o.doc, expr)
	if err != nil {
		return frame.Column{}, err
	}
	values, ok := raw.(map[string]any)
	if !ok {
		return frame.Column{}, fmt.Errorf("%w: no table at %s", bulk.ErrInvalidDescriptor, expr)
	}
	f, err := o.data.DownloadFrame(ctx, values, nil)
	if err != nil {
		return frame.Column{}, err
	}
	if f.Width() != 1 {
		return frame.Column{}, fmt.Errorf("%w: %s holds %d columns", bulk.ErrFormatMismatch, expr, f.Width())
	}
	return f.Columns()[0], nil
}

// Update implements model.Object by replacing the object by ID.
func (o *Object) Update(ctx context.Context, doc model.Document) (model.Object, error) {
	next, err := o.svc.Replace(ctx, o.meta.ID, doc, false)
	if err != nil {
		return nil, err
	}
	return next, nil
}
