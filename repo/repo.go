package repo

import (
	"errors"
	"io"

	config "github.com/ipfs/go-ipfs-lite/config"

	ds "github.com/ipfs/go-datastore"
)

var ErrClosed = errors.New("repo is closed")

// Repo holds the configuration and the datastore a node is built from.
type Repo interface {
	Config() (*config.Config, error)
	SetConfig(*config.Config) error

	Datastore() Datastore

	io.Closer
}

// Datastore is the interface required from a datastore to be
// acceptable to FSRepo.
type Datastore interface {
	ds.Batching // should be threadsafe, just be careful
	io.Closer
}
