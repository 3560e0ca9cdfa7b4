package typed

import "errors"

var (
	// ErrValidation is returned when data or a document breaks a structural
	// rule: column sets, lengths, grid sizes or masks.
	ErrValidation = errors.New("geoobject: validation failed")

	// ErrDataModified is returned when reading bulk data that was written in
	// this session and has not been persisted with Update yet.
	ErrDataModified = errors.New("geoobject: data was modified and must be saved before it can be read")

	// ErrUnsupportedDataType is returned when a column's values have no
	// attribute type.
	ErrUnsupportedDataType = errors.New("geoobject: unsupported data type")

	// ErrDerivedBoundingBox is returned when setting the bounding box of an
	// object that derives it from its geometry.
	ErrDerivedBoundingBox = errors.New("geoobject: bounding box is derived from the grid geometry")

	// ErrUnknownType is returned when no object type is registered for a
	// sub-classification or data type.
	ErrUnknownType = errors.New("geoobject: unknown object type")

	// ErrTypeMismatch is returned when a loaded object is not of the
	// requested Go type.
	ErrTypeMismatch = errors.New("geoobject: object type mismatch")

	// ErrNoObject is returned when an operation needs the stored object but
	// the view was never stored.
	ErrNoObject = errors.New("geoobject: view is not backed by a stored object")
)
