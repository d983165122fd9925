package config

import (
	"fmt"
	"strings"
)

// Transformer is a function which takes configuration and applies some filter to it
type Transformer func(c *Config) error

// Profile contains the profile transformer the description of the profile
type Profile struct {
	// Description briefly describes the functionality of the profile
	Description string

	// Transform takes ipfs configuration and applies the profile to it
	Transform Transformer
}

// Profiles is a map holding configuration transformers.
var Profiles = map[string]Profile{
	"test": {
		Description: `Keeps all data in memory and disables routing,
this is useful in test environments.`,

		Transform: func(c *Config) error {
			c.Datastore.Type = DatastoreMem
			c.Datastore.Measure = false
			c.Routing.Type = RoutingNone
			return nil
		},
	},
	"badgerds": {
		Description: `Replaces the leveldb index with a badger datastore.

If you apply this profile after init, the existing index
is not migrated.`,

		Transform: func(c *Config) error {
			c.Datastore.IndexType = IndexBadger
			c.Datastore.IndexPath = "badgerds"
			c.Datastore.IndexCompression = ""
			return nil
		},
	},
	"pebbleds": {
		Description: `Replaces the leveldb index with a pebble datastore.

If you apply this profile after init, the existing index
is not migrated.`,

		Transform: func(c *Config) error {
			c.Datastore.IndexType = IndexPebble
			c.Datastore.IndexPath = "pebbleds"
			c.Datastore.IndexCompression = "none"
			return nil
		},
	},
	"default-datastore": {
		Description: `Restores default datastore configuration.`,

		Transform: func(c *Config) error {
			c.Datastore = DefaultDatastoreConfig()
			return nil
		},
	},
	"lowpower": {
		Description: `Fetches children one at a time and skips fsync on
block writes.`,

		Transform: func(c *Config) error {
			c.Exporter.Concurrency = 1
			c.Datastore.BlocksSync = false
			return nil
		},
	},
}

// ApplyProfiles applies a comma separated list of profiles in order.
func (c *Config) ApplyProfiles(list string) error {
	if list == "" {
		return nil
	}
	for _, name := range strings.Split(list, ",") {
		p, ok := Profiles[name]
		if !ok {
			return fmt.Errorf("invalid configuration profile: %s", name)
		}
		if err := p.Transform(c); err != nil {
			return err
		}
	}
	return nil
}
