package typed_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jacentio/geoobject/bulk/memory"
	"github.com/jacentio/geoobject/frame"
	"github.com/jacentio/geoobject/geom"
	"github.com/jacentio/geoobject/objectstore"
	"github.com/jacentio/geoobject/typed"
)

func newSession(t *testing.T) (*typed.Session, *memory.Store) {
	t.Helper()
	data, blobs := memory.NewClient()
	return typed.NewSession(objectstore.NewMemoryStore(data, nil), data, nil), blobs
}

func ramp(n int, scale float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * scale
	}
	return out
}

func column(name string, values any) *frame.Frame {
	return frame.MustNew(frame.Column{Name: name, Values: values})
}

func spatialBase(name string) typed.BaseSpatialObjectData {
	return typed.BaseSpatialObjectData{
		BaseObjectData:            typed.BaseObjectData{Name: name},
		CoordinateReferenceSystem: geom.EPSG(32650),
	}
}

func gridBase(name string, size geom.Size3i, rot *geom.Rotation) typed.Base3DGridData {
	return typed.Base3DGridData{
		BaseSpatialObjectData: spatialBase(name),
		Size:                  size,
		Rotation:              rot,
	}
}

func assertBox(t *testing.T, lo, hi geom.Point3, box geom.BoundingBox) {
	t.Helper()
	const eps = 1e-9
	for i, pair := range [][2]float64{
		{lo.X, box.MinX}, {lo.Y, box.MinY}, {lo.Z, box.MinZ},
		{hi.X, box.MaxX}, {hi.Y, box.MaxY}, {hi.Z, box.MaxZ},
	} {
		if math.Abs(pair[0]-pair[1]) > eps {
			assert.Failf(t, "bounding box mismatch", "component %d: expected %g, got %g (box %s)", i, pair[0], pair[1], box)
		}
	}
}
