// Package objectstore provides object services that store versioned
// Geoscience Object documents.
//
// A [Service] creates, replaces and fetches documents by reference. A
// reference is either an object UUID or an object path such as
// "/surveys/grid.json". Every successful write produces a new version and
// returns an [*Object] handle over it. Handles carry the bulk data client used
// for the object's columnar data, so views over the document can download
// attribute values and upload new ones.
//
// # Implementations
//
//   - [MemoryStore] keeps documents in process. It backs tests and tools that
//     never persist anything.
//   - [DynamoStore] keeps documents in DynamoDB. Paths are unique across the
//     store, enforced atomically with a constraint item per path. Every bulk
//     data reference used by an object is indexed in a sharded reference table
//     so that unreferenced payloads can be found and collected.
//
// # Configuration
//
// Use [DefaultDynamoConfig] for small datasets (NumShards=1, single queries).
// Increase NumShards when many objects share the same payload:
//
//	cfg := objectstore.DefaultDynamoConfig()
//	cfg.NumShards = 16
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrNotFound] - no object matches the reference
//   - [ErrAlreadyExists] - an object already exists at the path; the error is
//     wrapped in an [*AlreadyExistsError] carrying the existing object ID
//   - [ErrConcurrentModification] - the object changed between read and write
//   - [ErrInvalidPath] - the object path could not be resolved
package objectstore
