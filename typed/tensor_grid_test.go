package typed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/geoobject/geom"
	"github.com/jacentio/geoobject/objectstore"
	"github.com/jacentio/geoobject/typed"
)

func tensorGridData(t *testing.T, rot *geom.Rotation) typed.Tensor3DGridData {
	t.Helper()
	d, err := typed.NewTensor3DGridData(typed.Tensor3DGridData{
		Base3DGridData: gridBase("tensor", geom.Size3i{NX: 3, NY: 2, NZ: 1}, rot),
		CellSizesX:     []float64{5, 10, 15},
		CellSizesY:     []float64{8, 12},
		CellSizesZ:     []float64{5},
		CellData:       column("density", ramp(6, 1.5)),
		VertexData:     column("depth", ramp(24, 1)),
	})
	require.NoError(t, err)
	return d
}

func TestNewTensor3DGridData_Validation(t *testing.T) {
	base := gridBase("tensor", geom.Size3i{NX: 3, NY: 2, NZ: 1}, nil)
	tests := []struct {
		name    string
		data    typed.Tensor3DGridData
		message string
	}{
		{
			name:    "wrong x length",
			data:    typed.Tensor3DGridData{Base3DGridData: base, CellSizesX: []float64{1, 1}, CellSizesY: []float64{1, 1}, CellSizesZ: []float64{1}},
			message: "cell_sizes_x must have length 3 to match the grid size, got 2",
		},
		{
			name:    "non-positive y",
			data:    typed.Tensor3DGridData{Base3DGridData: base, CellSizesX: []float64{1, 1, 1}, CellSizesY: []float64{1, 0}, CellSizesZ: []float64{1}},
			message: "cell_sizes_y must all be positive",
		},
		{
			name: "cell rows",
			data: typed.Tensor3DGridData{
				Base3DGridData: base, CellSizesX: []float64{1, 1, 1}, CellSizesY: []float64{1, 1}, CellSizesZ: []float64{1},
				CellData: column("density", ramp(5, 1)),
			},
			message: "the number of rows in cell data (5) does not match the number of cells in the grid (6)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := typed.NewTensor3DGridData(tt.data)
			require.ErrorIs(t, err, typed.ErrValidation)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestTensor3DGrid_BoundingBox(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)

	rotated, err := typed.As[*typed.Tensor3DGrid](typed.Create(ctx, s, tensorGridData(t, &geom.Rotation{DipAzimuth: 90}), objectstore.CreateOptions{Path: "/rotated.json"}))
	require.NoError(t, err)
	box, err := rotated.BoundingBox()
	require.NoError(t, err)
	assertBox(t, geom.Point3{X: 0, Y: -30, Z: 0}, geom.Point3{X: 20, Y: 0, Z: 5}, box)

	plain, err := typed.As[*typed.Tensor3DGrid](typed.Create(ctx, s, tensorGridData(t, nil), objectstore.CreateOptions{Path: "/plain.json"}))
	require.NoError(t, err)
	box, err = plain.BoundingBox()
	require.NoError(t, err)
	assertBox(t, geom.Point3{}, geom.Point3{X: 30, Y: 20, Z: 5}, box)

	require.ErrorIs(t, plain.SetBoundingBox(box), typed.ErrDerivedBoundingBox)
}

func TestTensor3DGrid_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	data := tensorGridData(t, nil)

	g, err := typed.As[*typed.Tensor3DGrid](typed.Create(ctx, s, data, objectstore.CreateOptions{}))
	require.NoError(t, err)
	assert.Equal(t, "tensor-3d-grid", g.SubClassification())

	x, y, z, err := g.CellSizes()
	require.NoError(t, err)
	assert.Equal(t, data.CellSizesX, x)
	assert.Equal(t, data.CellSizesY, y)
	assert.Equal(t, data.CellSizesZ, z)

	cells, err := g.Cells.Frame(ctx)
	require.NoError(t, err)
	assert.True(t, cells.Equal(data.CellData))

	vertices, err := g.Vertices.Frame(ctx)
	require.NoError(t, err)
	assert.True(t, vertices.Equal(data.VertexData))

	next := column("depth", ramp(24, -1))
	require.NoError(t, g.Vertices.SetFrame(ctx, next))
	require.NoError(t, g.Update(ctx))
	vertices, err = g.Vertices.Frame(ctx)
	require.NoError(t, err)
	assert.True(t, vertices.Equal(next))
}

func TestTensor3DGrid_SetCellSizes(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	g, err := typed.As[*typed.Tensor3DGrid](typed.Create(ctx, s, tensorGridData(t, nil), objectstore.CreateOptions{}))
	require.NoError(t, err)

	require.ErrorIs(t, g.SetCellSizes([]float64{1}, []float64{1, 1}, []float64{1}), typed.ErrValidation)

	require.NoError(t, g.SetCellSizes([]float64{1, 1, 1}, []float64{2, 2}, []float64{3}))
	require.NoError(t, g.Update(ctx))

	stored, err := g.BaseSpatialObject.BoundingBox()
	require.NoError(t, err)
	assertBox(t, geom.Point3{}, geom.Point3{X: 3, Y: 4, Z: 3}, stored)
}
