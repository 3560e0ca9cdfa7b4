// Package model maps typed Go views onto untyped object documents.
//
// A document is a tree of map[string]any, []any and JSON scalars. Views never
// copy the document: a [Property] reads and writes a location inside it, and a
// [Model] materializes nested views ("sub-models") that share sub-trees of the
// same document. Writes through any view are therefore visible to every other
// view of the same tree.
//
// # Schemas
//
// A [Schema] is the explicit binding table of a model type: its creation-path
// property bindings ([Field]) and its sub-model bindings ([SubModel]).
// [Extend] copies a base schema so derived types can add to or replace
// bindings. Schemas drive two directions:
//
//   - materialization ([New], [Materialize]) builds views over an existing
//     document, creating empty objects or lists where a bound sub-document is
//     absent;
//   - conversion ([Schema.ToDocument]) builds a fresh document from a plain
//     data value, uploading bulk data through a [bulk.Client] on the way.
//
// # Context
//
// Every view in a tree shares one [Context]. It holds the handle of the
// stored object the tree was loaded from (nil during creation) and the set of
// data references written since the last reload, which guards against reading
// bulk data whose new value has not been persisted yet.
package model
