package config

const (
	// DatastoreFS keeps blocks in flatfs and the index in a key-value store.
	DatastoreFS = "fs"
	// DatastoreMem keeps everything in memory, for tests.
	DatastoreMem = "mem"

	IndexLevelDB = "leveldb"
	IndexBadger  = "badger"
	IndexPebble  = "pebble"

	DefaultBlocksPath      = "blocks"
	DefaultBlocksShardFunc = "/repo/flatfs/shard/v1/next-to-last/2"
	DefaultIndexPath       = "datastore"
)

// Datastore tracks the configuration of the datastore.
type Datastore struct {
	Type string

	// BlocksPath is relative to the repo root unless absolute.
	BlocksPath      string
	BlocksShardFunc string
	BlocksSync      bool

	IndexType string
	IndexPath string
	// IndexCompression is "none" or "snappy"; empty picks the backend
	// default. Only leveldb and pebble read it.
	IndexCompression string

	// Measure wraps every mounted datastore with go-ds-measure.
	Measure bool
}

// DefaultDatastoreConfig returns the on-disk layout used by Init.
func DefaultDatastoreConfig() Datastore {
	return Datastore{
		Type:             DatastoreFS,
		BlocksPath:       DefaultBlocksPath,
		BlocksShardFunc:  DefaultBlocksShardFunc,
		BlocksSync:       true,
		IndexType:        IndexLevelDB,
		IndexPath:        DefaultIndexPath,
		IndexCompression: "none",
		Measure:          true,
	}
}
