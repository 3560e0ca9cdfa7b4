package objectstore

// DynamoConfig holds configuration for the DynamoStore.
type DynamoConfig struct {
	// ObjectTable holds one item per object, keyed by "id".
	// Default: "geoobject_objects"
	ObjectTable string

	// PathTable holds one constraint item per object path, keyed by "pk".
	// Default: "geoobject_paths"
	PathTable string

	// RefTable indexes bulk data references, keyed by "pk" and "object_id".
	// Default: "geoobject_data_refs"
	RefTable string

	// NumShards is the number of shards per data reference in the reference
	// table. Higher values spread objects sharing one payload across more
	// partitions but require more parallel queries.
	// Default: 1 (no sharding, single query)
	// Max: 256
	NumShards int
}

// DefaultDynamoConfig returns sensible defaults for small datasets.
func DefaultDynamoConfig() DynamoConfig {
	return DynamoConfig{
		ObjectTable: "geoobject_objects",
		PathTable:   "geoobject_paths",
		RefTable:    "geoobject_data_refs",
		NumShards:   1,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *DynamoConfig) validate() {
	def := DefaultDynamoConfig()
	if c.ObjectTable == "" {
		c.ObjectTable = def.ObjectTable
	}
	if c.PathTable == "" {
		c.PathTable = def.PathTable
	}
	if c.RefTable == "" {
		c.RefTable = def.RefTable
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > 256 {
		c.NumShards = 256
	}
}
