// Package typed provides views over Geoscience Object documents: point sets
// and 3D grids with their attributes.
//
// Objects are created from plain data values and loaded back through a
// [Session]:
//
//	s := typed.NewSession(objects, data, logger)
//	obj, err := typed.Create(ctx, s, typed.Regular3DGridData{...}, objectstore.CreateOptions{})
//	grid, err := typed.As[*typed.Regular3DGrid](typed.FromReference(ctx, s, id))
//
// Each object type registers itself in [DefaultRegistry] with its schema
// sub-classification, the Go type of its creation data and a loader. Loading
// dispatches on the sub-classification of the stored schema id.
//
// Views write straight into the underlying document. Attribute values and
// tables live in the bulk data store; writing them uploads new data, and the
// new values can only be read back after [Object.Update] has stored the
// document. Reads before that fail with [ErrDataModified].
//
// # Errors
//
//   - [ErrValidation] - lengths, columns, grid sizes or masks are inconsistent
//   - [ErrDataModified] - bulk data was written but not yet stored
//   - [ErrUnsupportedDataType] - a column type has no attribute type
//   - [ErrDerivedBoundingBox] - a grid bounding box was set directly
//   - [ErrUnknownType] - no object type is registered for a document or value
//   - [ErrTypeMismatch] - an object is not of the requested type
//   - [ErrNoObject] - the view has no stored object behind it
package typed
