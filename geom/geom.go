// Package geom holds the spatial value types of geoscience objects: points,
// grid sizes, rotations, bounding boxes and coordinate reference systems.
package geom

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptyPoints is returned when a bounding box is requested for no points.
var ErrEmptyPoints = errors.New("geoobject: no points")

// Point3 is a point in 3D space.
type Point3 struct {
	X, Y, Z float64
}

// Size3d is a 3D extent or cell size.
type Size3d struct {
	DX, DY, DZ float64
}

// Size3i is a 3D grid size in cells.
type Size3i struct {
	NX, NY, NZ int
}

// TotalSize returns the number of cells.
func (s Size3i) TotalSize() int { return s.NX * s.NY * s.NZ }

// Vertices returns the grid size in vertices.
func (s Size3i) Vertices() Size3i { return Size3i{s.NX + 1, s.NY + 1, s.NZ + 1} }

// BoundingBox is an axis-aligned box.
type BoundingBox struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// Min returns the minimum corner.
func (b BoundingBox) Min() Point3 { return Point3{b.MinX, b.MinY, b.MinZ} }

// Max returns the maximum corner.
func (b BoundingBox) Max() Point3 { return Point3{b.MaxX, b.MaxY, b.MaxZ} }

// String formats the box as min-max.
func (b BoundingBox) String() string {
	return fmt.Sprintf("(%g, %g, %g)-(%g, %g, %g)", b.MinX, b.MinY, b.MinZ, b.MaxX, b.MaxY, b.MaxZ)
}

// BoundingBoxFromPoints returns the box enclosing the given coordinates.
func BoundingBoxFromPoints(x, y, z []float64) (BoundingBox, error) {
	if len(x) == 0 || len(y) == 0 || len(z) == 0 {
		return BoundingBox{}, ErrEmptyPoints
	}
	return BoundingBox{
		MinX: floats.Min(x), MaxX: floats.Max(x),
		MinY: floats.Min(y), MaxY: floats.Max(y),
		MinZ: floats.Min(z), MaxZ: floats.Max(z),
	}, nil
}

// BoundingBoxFromExtent returns the box enclosing the rotated box
// [0,dx]x[0,dy]x[0,dz] translated to origin. A nil rotation is the identity.
func BoundingBoxFromExtent(origin Point3, extent Size3d, rot *Rotation) BoundingBox {
	corners := [8][3]float64{}
	for i := range corners {
		if i&1 != 0 {
			corners[i][0] = extent.DX
		}
		if i&2 != 0 {
			corners[i][1] = extent.DY
		}
		if i&4 != 0 {
			corners[i][2] = extent.DZ
		}
	}
	var xs, ys, zs [8]float64
	for i, c := range corners {
		if rot != nil {
			c = rot.Apply(c)
		}
		xs[i], ys[i], zs[i] = c[0]+origin.X, c[1]+origin.Y, c[2]+origin.Z
	}
	box, _ := BoundingBoxFromPoints(xs[:], ys[:], zs[:])
	return box
}

// BoundingBoxFromRegularGrid returns the box of a regular grid with the given
// cell count and cell size.
func BoundingBoxFromRegularGrid(origin Point3, size Size3i, cellSize Size3d, rot *Rotation) BoundingBox {
	extent := Size3d{
		DX: float64(size.NX) * cellSize.DX,
		DY: float64(size.NY) * cellSize.DY,
		DZ: float64(size.NZ) * cellSize.DZ,
	}
	return BoundingBoxFromExtent(origin, extent, rot)
}
