package typed

import (
	"github.com/jacentio/geoobject/frame"
	"github.com/jacentio/geoobject/geom"
	"github.com/jacentio/geoobject/model"
)

// Regular3DGridData is the creation data of a Regular3DGrid.
type Regular3DGridData struct {
	Base3DGridData
	CellSize geom.Size3d

	// CellData holds one attribute per column, one row per cell.
	CellData *frame.Frame

	// VertexData holds one attribute per column, one row per vertex.
	VertexData *frame.Frame
}

func (d Regular3DGridData) cellFrame() *frame.Frame   { return d.CellData }
func (d Regular3DGridData) vertexFrame() *frame.Frame { return d.VertexData }

// Validate checks the frame row counts against the grid size.
func (d Regular3DGridData) Validate() error {
	if err := checkRows(d.CellData, "cell data", "cells", d.Size.TotalSize()); err != nil {
		return err
	}
	return checkRows(d.VertexData, "vertex data", "vertices", d.Size.Vertices().TotalSize())
}

// ComputeBoundingBox implements SpatialData.
func (d Regular3DGridData) ComputeBoundingBox() (geom.BoundingBox, error) {
	return geom.BoundingBoxFromRegularGrid(d.Origin, d.Size, d.CellSize, d.Rotation), nil
}

var regular3DGridSchema = model.Extend(grid3DSchema, "regular-3d-grid").
	Field(model.Field("cell_size", "cell_size", geom.Size3dCodec, func(d Regular3DGridData) geom.Size3d {
		return d.CellSize
	})).
	SubModel(model.SubModel{Name: "cells", Convert: cellsSchema.Convert()}).
	SubModel(model.SubModel{Name: "vertices", Convert: verticesSchema.Convert()})

// Regular3DGrid is a grid of uniform cells. Its cells and vertices each carry
// a set of attributes; the geometry is given by origin, size, cell size and
// rotation.
type Regular3DGrid struct {
	*Base3DGrid
	Cells    *GridAttributes
	Vertices *GridAttributes
}

// CellSize returns the size of one cell.
func (g *Regular3DGrid) CellSize() (geom.Size3d, error) { return propCellSize.Get(g.Document()) }

// SetCellSize resizes the cells.
func (g *Regular3DGrid) SetCellSize(s geom.Size3d) error { return propCellSize.Set(g.Document(), s) }

func loadRegular3DGrid(ctx *model.Context, doc model.Document) (Object, error) {
	g := &Regular3DGrid{}
	m, err := model.New(ctx, doc, regular3DGridSchema, func(m *model.Model) {
		g.Cells = model.Materialize(m, "cells", newGridAttributes(cellsSchema, "cells", cellCount))
		g.Vertices = model.Materialize(m, "vertices", newGridAttributes(verticesSchema, "vertices", vertexCount))
	})
	g.Base3DGrid = newBase3DGrid(m, regularBoundingBox)
	return g, err
}

func init() {
	MustRegister(EntityType{
		SubClassification: "regular-3d-grid",
		Version:           SchemaVersion{1, 3, 0},
		Schema:            regular3DGridSchema,
		Data:              Regular3DGridData{},
		Load:              loadRegular3DGrid,
	})
}
