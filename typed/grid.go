package typed

import (
	"context"
	"fmt"

	"github.com/jacentio/geoobject/frame"
	"github.com/jacentio/geoobject/geom"
	"github.com/jacentio/geoobject/model"
)

// GridData is implemented by creation data of 3D grids, by embedding
// Base3DGridData.
type GridData interface {
	SpatialData
	gridBase() Base3DGridData
}

// Base3DGridData holds the geometry shared by 3D grids.
type Base3DGridData struct {
	BaseSpatialObjectData
	Origin   geom.Point3
	Size     geom.Size3i
	Rotation *geom.Rotation
}

func (d Base3DGridData) gridBase() Base3DGridData { return d }

var (
	propOrigin   = model.NewProperty("origin", geom.Point3Codec)
	propSize     = model.NewProperty("size", geom.Size3iCodec)
	propRotation = model.NewProperty("rotation", geom.RotationCodec)
	propCellSize = model.NewProperty("cell_size", geom.Size3dCodec)
)

var grid3DSchema = model.Extend(spatialSchema, "base-3d-grid").
	Field(model.Field("origin", "origin", geom.Point3Codec, func(d GridData) geom.Point3 {
		return d.gridBase().Origin
	})).
	Field(model.Field("size", "size", geom.Size3iCodec, func(d GridData) geom.Size3i {
		return d.gridBase().Size
	})).
	Field(model.Field("rotation", "rotation", geom.RotationCodec, func(d GridData) *geom.Rotation {
		return d.gridBase().Rotation
	}))

// cellData and vertexData are implemented by grid data carrying attribute
// frames.
type (
	cellData   interface{ cellFrame() *frame.Frame }
	vertexData interface{ vertexFrame() *frame.Frame }
)

func cellFrameOf(data any) any {
	if d, ok := data.(cellData); ok {
		if f := d.cellFrame(); f != nil {
			return f
		}
	}
	return nil
}

func vertexFrameOf(data any) any {
	if d, ok := data.(vertexData); ok {
		if f := d.vertexFrame(); f != nil {
			return f
		}
	}
	return nil
}

// gridAttributesSchema binds an attribute list at path, filled on creation
// from the frame returned by extract.
func gridAttributesSchema(name, path string, extract func(any) any) *model.Schema {
	return model.NewSchema(name).
		SubModel(model.SubModel{
			Name:    "attributes",
			Path:    path,
			Kind:    model.KindList,
			Data:    extract,
			Convert: attributesToDocument,
		})
}

var (
	cellsSchema    = gridAttributesSchema("cells", "cell_attributes", cellFrameOf)
	verticesSchema = gridAttributesSchema("vertices", "vertex_attributes", vertexFrameOf)
)

// cellCount and vertexCount derive the expected attribute lengths from the
// grid size.
func cellCount(doc model.Document) (int, error) {
	size, err := propSize.Get(doc)
	if err != nil {
		return 0, err
	}
	return size.TotalSize(), nil
}

func vertexCount(doc model.Document) (int, error) {
	size, err := propSize.Get(doc)
	if err != nil {
		return 0, err
	}
	return size.Vertices().TotalSize(), nil
}

// GridAttributes is the dataset of a grid's cells or vertices. The cells and
// vertices are ordered x fastest, then y, then z.
type GridAttributes struct {
	*model.Model
	Attributes *Attributes

	what     string
	expected func(doc model.Document) (int, error)
}

func newGridAttributes(schema *model.Schema, what string, expected func(model.Document) (int, error)) func(*model.Context, model.Location) *GridAttributes {
	return func(ctx *model.Context, loc model.Location) *GridAttributes {
		g := &GridAttributes{what: what, expected: expected}
		g.Model, _ = model.New(ctx, loc.Document(), schema, func(m *model.Model) {
			g.Attributes = model.Materialize(m, "attributes", newAttributes)
		})
		return g
	}
}

// ExpectedLength returns the number of values each attribute must hold.
func (g *GridAttributes) ExpectedLength() (int, error) {
	return g.expected(g.Document())
}

// Frame downloads every attribute as one frame.
func (g *GridAttributes) Frame(ctx context.Context) (*frame.Frame, error) {
	return g.Attributes.Frame(ctx)
}

// SetFrame replaces the attributes with the columns of f, which must have
// one row per element.
func (g *GridAttributes) SetFrame(ctx context.Context, f *frame.Frame) error {
	n, err := g.ExpectedLength()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if f.Len() != n {
		return fmt.Errorf("%w: the number of rows in the frame (%d) does not match the number of %s in the grid (%d)",
			ErrValidation, f.Len(), g.what, n)
	}
	return g.Attributes.Set(ctx, f)
}

// Validate checks every attribute length.
func (g *GridAttributes) Validate() error {
	n, err := g.ExpectedLength()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return g.Attributes.ValidateLengths(n)
}

// Base3DGrid is the view shared by 3D grids. The bounding box is derived from
// the geometry and stored on Update.
type Base3DGrid struct {
	*BaseSpatialObject

	compute func(doc model.Document) (geom.BoundingBox, error)
}

func newBase3DGrid(m *model.Model, compute func(model.Document) (geom.BoundingBox, error)) *Base3DGrid {
	g := &Base3DGrid{
		BaseSpatialObject: &BaseSpatialObject{BaseObject: &BaseObject{Model: m}},
		compute:           compute,
	}
	g.prepare = g.storeBoundingBox
	return g
}

// Origin returns the grid origin.
func (g *Base3DGrid) Origin() (geom.Point3, error) { return propOrigin.Get(g.Document()) }

// SetOrigin moves the grid.
func (g *Base3DGrid) SetOrigin(p geom.Point3) error { return propOrigin.Set(g.Document(), p) }

// Size returns the number of cells along each axis.
func (g *Base3DGrid) Size() (geom.Size3i, error) { return propSize.Get(g.Document()) }

// Rotation returns the grid rotation, or nil.
func (g *Base3DGrid) Rotation() (*geom.Rotation, error) { return propRotation.Get(g.Document()) }

// SetRotation rotates the grid. Nil removes the rotation.
func (g *Base3DGrid) SetRotation(r *geom.Rotation) error { return propRotation.Set(g.Document(), r) }

// BoundingBox computes the bounding box from the grid geometry.
func (g *Base3DGrid) BoundingBox() (geom.BoundingBox, error) { return g.compute(g.Document()) }

// SetBoundingBox always fails; the bounding box of a grid is derived.
func (g *Base3DGrid) SetBoundingBox(geom.BoundingBox) error { return ErrDerivedBoundingBox }

func (g *Base3DGrid) storeBoundingBox() error {
	box, err := g.BoundingBox()
	if err != nil {
		return err
	}
	return propBoundingBox.Set(g.Document(), box)
}

// regularBoundingBox computes the box of a grid with uniform cells.
func regularBoundingBox(doc model.Document) (geom.BoundingBox, error) {
	origin, err := propOrigin.Get(doc)
	if err != nil {
		return geom.BoundingBox{}, err
	}
	size, err := propSize.Get(doc)
	if err != nil {
		return geom.BoundingBox{}, err
	}
	cellSize, err := propCellSize.Get(doc)
	if err != nil {
		return geom.BoundingBox{}, err
	}
	rot, err := propRotation.Get(doc)
	if err != nil {
		return geom.BoundingBox{}, err
	}
	return geom.BoundingBoxFromRegularGrid(origin, size, cellSize, rot), nil
}

// checkRows reports a frame whose row count differs from n.
func checkRows(f *frame.Frame, field, what string, n int) error {
	if f != nil && f.Len() != n {
		return fmt.Errorf("%w: the number of rows in %s (%d) does not match the number of %s in the grid (%d)",
			ErrValidation, field, f.Len(), what, n)
	}
	return nil
}
