package typed

import (
	"fmt"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/frame"
	"github.com/jacentio/geoobject/geom"
	"github.com/jacentio/geoobject/model"
)

var coordinateSpec = TableSpec{Columns: []string{"x", "y", "z"}, Format: bulk.FloatArray3}

var locationsSchema = compositeSchema("locations", "coordinates", coordinateSpec)

// PointSetData is the creation data of a PointSet.
type PointSetData struct {
	BaseSpatialObjectData

	// Locations holds the x, y and z columns followed by any attribute
	// columns.
	Locations *frame.Frame
}

// Validate checks that the coordinate columns are present.
func (d PointSetData) Validate() error {
	if d.Locations == nil {
		return fmt.Errorf("%w: point set needs locations", ErrValidation)
	}
	_, _, err := coordinateSpec.split(d.Locations)
	return err
}

// ComputeBoundingBox implements SpatialData.
func (d PointSetData) ComputeBoundingBox() (geom.BoundingBox, error) {
	return coordinatesBoundingBox(d.Locations)
}

func coordinatesBoundingBox(f *frame.Frame) (geom.BoundingBox, error) {
	var axes [3][]float64
	for i, name := range coordinateSpec.Columns {
		col, ok := f.Column(name)
		if !ok {
			return geom.BoundingBox{}, fmt.Errorf("%w: missing %s column", ErrValidation, name)
		}
		vals, err := floatValues(col)
		if err != nil {
			return geom.BoundingBox{}, err
		}
		axes[i] = vals
	}
	return geom.BoundingBoxFromPoints(axes[0], axes[1], axes[2])
}

func floatValues(col frame.Column) ([]float64, error) {
	switch v := col.Values.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: column %q holds %T, not floats", ErrUnsupportedDataType, col.Name, col.Values)
}

var pointSetSchema = model.Extend(spatialSchema, "pointset").
	SubModel(model.SubModel{
		Name: "locations",
		Path: "locations",
		Data: func(data any) any {
			if d, ok := data.(PointSetData); ok && d.Locations != nil {
				return d.Locations
			}
			return nil
		},
		Convert: locationsSchema.Convert(),
	})

// PointSet is a set of points with attributes.
type PointSet struct {
	*BaseSpatialObject
	Locations *DataTableAndAttributes
}

// NumPoints returns the number of points.
func (p *PointSet) NumPoints() (int, error) { return p.Locations.Length() }

func loadPointSet(ctx *model.Context, doc model.Document) (Object, error) {
	p := &PointSet{}
	m, err := model.New(ctx, doc, pointSetSchema, func(m *model.Model) {
		p.Locations = model.Materialize(m, "locations", newDataTableAndAttributes(locationsSchema, coordinateSpec))
		p.Locations.Table.prepare = func(f *frame.Frame) (func() error, error) {
			box, err := coordinatesBoundingBox(f)
			if err != nil {
				return nil, err
			}
			return func() error { return propBoundingBox.Set(m.Document(), box) }, nil
		}
	})
	p.BaseSpatialObject = &BaseSpatialObject{BaseObject: &BaseObject{Model: m}}
	return p, err
}

func init() {
	MustRegister(EntityType{
		SubClassification: "pointset",
		Version:           SchemaVersion{1, 2, 0},
		Schema:            pointSetSchema,
		Data:              PointSetData{},
		Load:              loadPointSet,
	})
}
