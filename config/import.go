package config

const (
	DefaultCidVersion    = 0
	DefaultUnixFSChunker = "size-262144"
)

// Import configures the default options for ingesting data.
type Import struct {
	CidVersion int
	// Chunker is a chunker spec string, see chunker.FromString.
	Chunker string
}

// Exporter configures retrieval.
type Exporter struct {
	// Concurrency bounds parallel child fetches; values below 2 fetch serially.
	Concurrency int
}
