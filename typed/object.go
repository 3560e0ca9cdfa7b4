package typed

import (
	"context"
	"fmt"
	"maps"

	"github.com/jacentio/geoobject/bulk"
	"github.com/jacentio/geoobject/geom"
	"github.com/jacentio/geoobject/model"
)

// Object is implemented by every typed object view.
type Object interface {
	model.Validator

	// Document returns the live document. Writes through it are visible to
	// every view of the object.
	Document() model.Document
	Context() *model.Context
	SubClassification() string
	ID() string
	Name() (string, error)

	// Update validates the object, stores it as a new version and rebuilds
	// its views over the stored document.
	Update(ctx context.Context) error
}

// ObjectData is implemented by the creation data of every object type, by
// embedding BaseObjectData.
type ObjectData interface {
	objectBase() BaseObjectData
}

// BaseObjectData holds the fields shared by every object.
type BaseObjectData struct {
	Name        string
	Description string
	Tags        map[string]string
	Extensions  map[string]any
}

func (d BaseObjectData) objectBase() BaseObjectData { return d }

var (
	propName        = model.NewProperty("name", model.String)
	propDescription = model.NewProperty("description", model.OptionalString)
	propTags        = model.NewProperty("tags", model.StringMap)
	propExtensions  = model.NewProperty("extensions", model.AnyMap)
	propSchema      = model.NewProperty("schema", model.String)
	propUUID        = model.NewProperty("uuid", model.OptionalString)
)

var baseObjectSchema = model.NewSchema("base-object").
	Check(func(data any) error {
		if v, ok := data.(model.Validator); ok {
			return v.Validate()
		}
		return nil
	}).
	Field(model.Field("name", "name", model.String, func(d ObjectData) string {
		return d.objectBase().Name
	})).
	Field(model.Field("description", "description", model.OptionalString, func(d ObjectData) string {
		return d.objectBase().Description
	})).
	Field(model.Field("tags", "tags", model.StringMap, func(d ObjectData) map[string]string {
		if t := d.objectBase().Tags; t != nil {
			return t
		}
		return map[string]string{}
	})).
	Field(model.Field("extensions", "extensions", model.AnyMap, func(d ObjectData) map[string]any {
		if e := d.objectBase().Extensions; e != nil {
			return maps.Clone(e)
		}
		return map[string]any{}
	}))

// BaseObject is the view shared by every object type.
type BaseObject struct {
	*model.Model

	// prepare runs before validation in Update.
	prepare func() error
}

// Name returns the object name.
func (o *BaseObject) Name() (string, error) { return propName.Get(o.Document()) }

// SetName renames the object.
func (o *BaseObject) SetName(name string) error { return propName.Set(o.Document(), name) }

// Description returns the description, or "".
func (o *BaseObject) Description() (string, error) { return propDescription.Get(o.Document()) }

// SetDescription sets the description. An empty string removes it.
func (o *BaseObject) SetDescription(d string) error { return propDescription.Set(o.Document(), d) }

// Tags returns the object tags.
func (o *BaseObject) Tags() (map[string]string, error) { return propTags.Get(o.Document()) }

// SetTags replaces the object tags.
func (o *BaseObject) SetTags(tags map[string]string) error { return propTags.Set(o.Document(), tags) }

// Extensions returns the extension object.
func (o *BaseObject) Extensions() (map[string]any, error) { return propExtensions.Get(o.Document()) }

// SetExtensions replaces the extension object.
func (o *BaseObject) SetExtensions(ext map[string]any) error {
	return propExtensions.Set(o.Document(), ext)
}

// ID returns the object UUID assigned by the object service.
func (o *BaseObject) ID() string {
	id, _ := propUUID.Get(o.Document())
	return id
}

// SchemaID returns the parsed schema identifier.
func (o *BaseObject) SchemaID() (SchemaID, error) {
	s, err := propSchema.Get(o.Document())
	if err != nil {
		return SchemaID{}, err
	}
	return ParseSchemaID(s)
}

// SubClassification returns the object type name.
func (o *BaseObject) SubClassification() string { return o.Schema().Name() }

// Metadata returns the metadata of the stored version, if any.
func (o *BaseObject) Metadata() (model.Metadata, bool) {
	obj := o.Context().Object()
	if obj == nil {
		return model.Metadata{}, false
	}
	return obj.Metadata(), true
}

// Update implements Object.
func (o *BaseObject) Update(ctx context.Context) error {
	if o.prepare != nil {
		if err := o.prepare(); err != nil {
			return err
		}
	}
	if err := o.Validate(); err != nil {
		return err
	}
	obj := o.Context().Object()
	if obj == nil {
		return ErrNoObject
	}
	next, err := obj.Update(ctx, o.AsDocument())
	if err != nil {
		return fmt.Errorf("update %s: %w", o.ID(), err)
	}
	o.Context().Reset(next)
	return o.Replace(next.Document())
}

// SpatialData is implemented by creation data of spatial objects.
type SpatialData interface {
	ObjectData
	spatialBase() BaseSpatialObjectData

	// ComputeBoundingBox derives the bounding box stored on creation.
	ComputeBoundingBox() (geom.BoundingBox, error)
}

// BaseSpatialObjectData holds the fields shared by spatial objects.
type BaseSpatialObjectData struct {
	BaseObjectData
	CoordinateReferenceSystem geom.CRS
}

func (d BaseSpatialObjectData) spatialBase() BaseSpatialObjectData { return d }

var (
	propBoundingBox = model.NewProperty("bounding_box", geom.BoundingBoxCodec)
	propCRS         = model.NewProperty("coordinate_reference_system", geom.CRSCodec)
)

var spatialSchema = model.Extend(baseObjectSchema, "base-spatial-object").
	Field(model.Field("coordinate_reference_system", "coordinate_reference_system", geom.CRSCodec, func(d SpatialData) geom.CRS {
		return d.spatialBase().CoordinateReferenceSystem
	})).
	Hook(func(_ context.Context, dst model.Document, data any, _ bulk.Client) error {
		d, ok := data.(SpatialData)
		if !ok {
			return nil
		}
		box, err := d.ComputeBoundingBox()
		if err != nil {
			return err
		}
		return propBoundingBox.Set(dst, box)
	})

// BaseSpatialObject adds a bounding box and coordinate reference system.
type BaseSpatialObject struct {
	*BaseObject
}

// BoundingBox returns the stored bounding box.
func (o *BaseSpatialObject) BoundingBox() (geom.BoundingBox, error) {
	return propBoundingBox.Get(o.Document())
}

// SetBoundingBox stores a bounding box.
func (o *BaseSpatialObject) SetBoundingBox(box geom.BoundingBox) error {
	return propBoundingBox.Set(o.Document(), box)
}

// CoordinateReferenceSystem returns the CRS.
func (o *BaseSpatialObject) CoordinateReferenceSystem() (geom.CRS, error) {
	return propCRS.Get(o.Document())
}

// SetCoordinateReferenceSystem replaces the CRS.
func (o *BaseSpatialObject) SetCoordinateReferenceSystem(crs geom.CRS) error {
	return propCRS.Set(o.Document(), crs)
}
