package repo

import (
	"sync"

	"github.com/ipfs/go-ipfs-lite/config"

	ds "github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
)

// Mock is an in-memory Repo.
type Mock struct {
	mu sync.Mutex
	C  config.Config
	D  Datastore
}

// NewMock returns a Mock holding the default config and an empty datastore.
func NewMock() *Mock {
	return &Mock{
		C: *config.Init(),
		D: dssync.MutexWrap(ds.NewMapDatastore()),
	}
}

func (m *Mock) Config() (*config.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.C.Clone()
}

func (m *Mock) SetConfig(updated *config.Config) error {
	c, err := updated.Clone()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.C = *c
	m.mu.Unlock()
	return nil
}

func (m *Mock) Datastore() Datastore { return m.D }

func (m *Mock) Close() error { return m.D.Close() }

var _ Repo = (*Mock)(nil)
