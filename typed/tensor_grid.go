package typed

import (
	"context"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/jacentio/geoobject/frame"
	"github.com/jacentio/geoobject/geom"
	"github.com/jacentio/geoobject/model"
)

// Tensor3DGridData is the creation data of a Tensor3DGrid. Build it with
// NewTensor3DGridData to have the cell sizes checked up front.
type Tensor3DGridData struct {
	Base3DGridData
	CellSizesX []float64
	CellSizesY []float64
	CellSizesZ []float64

	CellData   *frame.Frame
	VertexData *frame.Frame
}

// NewTensor3DGridData checks d and returns it.
func NewTensor3DGridData(d Tensor3DGridData) (Tensor3DGridData, error) {
	if err := d.Validate(); err != nil {
		return Tensor3DGridData{}, err
	}
	return d, nil
}

func (d Tensor3DGridData) cellFrame() *frame.Frame   { return d.CellData }
func (d Tensor3DGridData) vertexFrame() *frame.Frame { return d.VertexData }

// Validate checks one positive cell size per cell along each axis and the
// frame row counts.
func (d Tensor3DGridData) Validate() error {
	if err := checkCellSizes(d.Size, d.CellSizesX, d.CellSizesY, d.CellSizesZ); err != nil {
		return err
	}
	if err := checkRows(d.CellData, "cell data", "cells", d.Size.TotalSize()); err != nil {
		return err
	}
	return checkRows(d.VertexData, "vertex data", "vertices", d.Size.Vertices().TotalSize())
}

// ComputeBoundingBox implements SpatialData.
func (d Tensor3DGridData) ComputeBoundingBox() (geom.BoundingBox, error) {
	extent := geom.Size3d{DX: floats.Sum(d.CellSizesX), DY: floats.Sum(d.CellSizesY), DZ: floats.Sum(d.CellSizesZ)}
	return geom.BoundingBoxFromExtent(d.Origin, extent, d.Rotation), nil
}

func checkCellSizes(size geom.Size3i, x, y, z []float64) error {
	axes := []struct {
		name  string
		n     int
		sizes []float64
	}{{"x", size.NX, x}, {"y", size.NY, y}, {"z", size.NZ, z}}
	for _, a := range axes {
		if len(a.sizes) != a.n {
			return fmt.Errorf("%w: cell_sizes_%s must have length %d to match the grid size, got %d",
				ErrValidation, a.name, a.n, len(a.sizes))
		}
		if slices.ContainsFunc(a.sizes, func(s float64) bool { return s <= 0 }) {
			return fmt.Errorf("%w: cell_sizes_%s must all be positive", ErrValidation, a.name)
		}
	}
	return nil
}

var (
	propCellSizesX = model.NewProperty("grid_cells_3d.cell_sizes_x", model.FloatSlice)
	propCellSizesY = model.NewProperty("grid_cells_3d.cell_sizes_y", model.FloatSlice)
	propCellSizesZ = model.NewProperty("grid_cells_3d.cell_sizes_z", model.FloatSlice)
)

var tensor3DGridSchema = model.Extend(grid3DSchema, "tensor-3d-grid").
	Field(model.Field("cell_sizes_x", "grid_cells_3d.cell_sizes_x", model.FloatSlice, func(d Tensor3DGridData) []float64 {
		return d.CellSizesX
	})).
	Field(model.Field("cell_sizes_y", "grid_cells_3d.cell_sizes_y", model.FloatSlice, func(d Tensor3DGridData) []float64 {
		return d.CellSizesY
	})).
	Field(model.Field("cell_sizes_z", "grid_cells_3d.cell_sizes_z", model.FloatSlice, func(d Tensor3DGridData) []float64 {
		return d.CellSizesZ
	})).
	SubModel(model.SubModel{Name: "cells", Convert: cellsSchema.Convert()}).
	SubModel(model.SubModel{Name: "vertices", Convert: verticesSchema.Convert()})

// Tensor3DGrid is a grid whose cells vary in size along each axis.
type Tensor3DGrid struct {
	*Base3DGrid
	Cells    *GridAttributes
	Vertices *GridAttributes
}

// CellSizes returns the cell sizes along x, y and z.
func (g *Tensor3DGrid) CellSizes() (x, y, z []float64, err error) {
	if x, err = propCellSizesX.Get(g.Document()); err != nil {
		return nil, nil, nil, err
	}
	if y, err = propCellSizesY.Get(g.Document()); err != nil {
		return nil, nil, nil, err
	}
	if z, err = propCellSizesZ.Get(g.Document()); err != nil {
		return nil, nil, nil, err
	}
	return x, y, z, nil
}

// SetCellSizes replaces the cell sizes. Each axis must keep one positive
// size per cell.
func (g *Tensor3DGrid) SetCellSizes(x, y, z []float64) error {
	size, err := g.Size()
	if err != nil {
		return err
	}
	if err := checkCellSizes(size, x, y, z); err != nil {
		return err
	}
	doc := g.Document()
	if err := propCellSizesX.Set(doc, x); err != nil {
		return err
	}
	if err := propCellSizesY.Set(doc, y); err != nil {
		return err
	}
	return propCellSizesZ.Set(doc, z)
}

// Validate checks the cell sizes against the grid size, then every
// attribute length.
func (g *Tensor3DGrid) Validate() error {
	size, err := g.Size()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	x, y, z, err := g.CellSizes()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := checkCellSizes(size, x, y, z); err != nil {
		return err
	}
	return g.Base3DGrid.Validate()
}

// Update implements Object.
func (g *Tensor3DGrid) Update(ctx context.Context) error {
	if err := g.Validate(); err != nil {
		return err
	}
	return g.Base3DGrid.Update(ctx)
}

func tensorBoundingBox(doc model.Document) (geom.BoundingBox, error) {
	origin, err := propOrigin.Get(doc)
	if err != nil {
		return geom.BoundingBox{}, err
	}
	rot, err := propRotation.Get(doc)
	if err != nil {
		return geom.BoundingBox{}, err
	}
	var extent [3]float64
	for i, p := range []model.Property[[]float64]{propCellSizesX, propCellSizesY, propCellSizesZ} {
		sizes, err := p.Get(doc)
		if err != nil {
			return geom.BoundingBox{}, err
		}
		extent[i] = floats.Sum(sizes)
	}
	return geom.BoundingBoxFromExtent(origin, geom.Size3d{DX: extent[0], DY: extent[1], DZ: extent[2]}, rot), nil
}

func loadTensor3DGrid(ctx *model.Context, doc model.Document) (Object, error) {
	g := &Tensor3DGrid{}
	m, err := model.New(ctx, doc, tensor3DGridSchema, func(m *model.Model) {
		g.Cells = model.Materialize(m, "cells", newGridAttributes(cellsSchema, "cells", cellCount))
		g.Vertices = model.Materialize(m, "vertices", newGridAttributes(verticesSchema, "vertices", vertexCount))
	})
	g.Base3DGrid = newBase3DGrid(m, tensorBoundingBox)
	return g, err
}

func init() {
	MustRegister(EntityType{
		SubClassification: "tensor-3d-grid",
		Version:           SchemaVersion{1, 3, 0},
		Schema:            tensor3DGridSchema,
		Data:              Tensor3DGridData{},
		Load:              loadTensor3DGrid,
	})
}
