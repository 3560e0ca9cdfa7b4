// Package shard provides partition key generation for the object service
// tables.
package shard

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
)

// ReferencePK computes the sharded partition key of a data reference record,
// which links a bulk data reference to one object using it.
// With numShards=1, all records for a reference go to shard "00".
// With numShards>1, records are spread across shards by object ID.
func ReferencePK(dataRef, objectID string, numShards int) string {
	if numShards <= 1 {
		return Key(dataRef, 0)
	}
	h := fnv.New32a()
	h.Write([]byte(objectID))
	return Key(dataRef, int(h.Sum32()%uint32(numShards)))
}

// Key returns the partition key of one shard of a data reference.
func Key(dataRef string, shard int) string {
	return fmt.Sprintf("%s#%02x", dataRef, shard)
}

// PathPK computes a hash-distributed partition key for an object path. Each
// path lands on its own partition.
func PathPK(path string) string {
	h := sha256.Sum256([]byte("path#" + path))
	return hex.EncodeToString(h[:16])
}
