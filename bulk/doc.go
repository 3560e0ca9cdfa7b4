// Package bulk moves columnar data between frames and external blob storage.
//
// Geoscience object documents never embed large arrays. Each table or
// attribute is uploaded once as an immutable blob and referenced from the
// document by a small descriptor:
//
//	{"data": "<ref>", "length": 500, "width": 1, "data_type": "float64"}
//
// References are content addresses (hex SHA-256 of the encoded payload), so
// identical uploads share one blob.
//
// # Clients
//
// [Client] is the interface consumed by the typed object layer. [DataClient]
// implements it over any [BlobStore]; the memory and sqlite subpackages provide
// stores.
//
// # Table formats
//
// Uploads may be restricted to a list of [TableFormat] values. The first
// format whose width and data type fit the frame is used, otherwise the
// upload fails with [ErrFormatMismatch].
//
// # Categories
//
// Categorical columns are stored as two blobs: an int32 code array and a
// key/value lookup table. [DownloadAttribute] reassembles them.
package bulk
