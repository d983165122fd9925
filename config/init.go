package config

// Init returns a config holding the defaults for a new repo.
func Init() *Config {
	return &Config{
		Datastore: DefaultDatastoreConfig(),
		Import: Import{
			CidVersion: DefaultCidVersion,
			Chunker:    DefaultUnixFSChunker,
		},
		Exporter: Exporter{
			Concurrency: 1,
		},
		Routing: Routing{
			Type: RoutingOffline,
		},
	}
}
