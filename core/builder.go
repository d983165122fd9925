package core

import (
	"context"
	"errors"
	"fmt"

	bstore "github.com/ipfs/go-ipfs-lite/blocks/blockstore"
	"github.com/ipfs/go-ipfs-lite/config"
	"github.com/ipfs/go-ipfs-lite/exporter"
	merkledag "github.com/ipfs/go-ipfs-lite/merkledag"
	path "github.com/ipfs/go-ipfs-lite/path"
	"github.com/ipfs/go-ipfs-lite/repo"
	"github.com/ipfs/go-ipfs-lite/routing"
	nilrouting "github.com/ipfs/go-ipfs-lite/routing/none"
	offroute "github.com/ipfs/go-ipfs-lite/routing/offline"

	ds "github.com/ipfs/go-datastore"
)

// RoutingOption builds the router of a node from its DAG and datastore.
type RoutingOption func(dag merkledag.DAGService, d ds.Batching) (routing.Routing, error)

// OfflineRoutingOption serves values from the local DAG.
func OfflineRoutingOption(dag merkledag.DAGService, d ds.Batching) (routing.Routing, error) {
	return offroute.NewOfflineRouter(dag, d), nil
}

// NilRoutingOption disables routing.
func NilRoutingOption(merkledag.DAGService, ds.Batching) (routing.Routing, error) {
	return nilrouting.ConstructNilRouting(), nil
}

// BuildCfg describes how to assemble a node.
type BuildCfg struct {
	// If online is set, the node will have networking enabled
	Online bool

	// If NilRepo is set, a Repo backed by a nil datastore will be constructed
	NilRepo bool

	// Routing overrides the router picked by the config.
	Routing RoutingOption

	Repo repo.Repo
}

func (cfg *BuildCfg) fillDefaults() error {
	if cfg.Online {
		return errors.New("networking is not supported")
	}

	if cfg.Repo != nil && cfg.NilRepo {
		return errors.New("cannot set a Repo and specify nilrepo at the same time")
	}

	if cfg.Repo == nil {
		var d repo.Datastore
		if cfg.NilRepo {
			d = ds.NewNullDatastore()
		} else {
			d = repo.NewMock().D
		}
		c := config.Init()
		if err := c.ApplyProfiles("test"); err != nil {
			return err
		}
		cfg.Repo = &repo.Mock{
			C: *c,
			D: d,
		}
	}

	return nil
}

func (cfg *BuildCfg) routingOption(c *config.Config) (RoutingOption, error) {
	if cfg.Routing != nil {
		return cfg.Routing, nil
	}
	switch c.Routing.Type {
	case config.RoutingOffline, "":
		return OfflineRoutingOption, nil
	case config.RoutingNone:
		return NilRoutingOption, nil
	default:
		return nil, fmt.Errorf("unknown routing type %q", c.Routing.Type)
	}
}

// NewNode constructs and returns an IpfsNode using the given cfg.
func NewNode(ctx context.Context, cfg *BuildCfg) (*IpfsNode, error) {
	if cfg == nil {
		cfg = new(BuildCfg)
	}
	if err := cfg.fillDefaults(); err != nil {
		return nil, err
	}

	conf, err := cfg.Repo.Config()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	n := &IpfsNode{
		Repo:     cfg.Repo,
		Chunker:  conf.Import.Chunker,
		IsOnline: cfg.Online,
		ctx:      ctx,
		cancel:   cancel,
	}
	success := false
	defer func() {
		if !success {
			cancel()
		}
	}()

	d := cfg.Repo.Datastore()
	bs := bstore.NewBlockstore(d)
	n.Blockstore = bs
	if !cfg.NilRepo {
		n.Blockstore, err = bstore.CachedBlockstore(ctx, bs, bstore.DefaultCacheOpts())
		if err != nil {
			return nil, err
		}
	}

	n.DAG = merkledag.NewDAGService(n.Blockstore, d)
	n.Resolver = path.NewBasicResolver(n.DAG)

	ro, err := cfg.routingOption(conf)
	if err != nil {
		return nil, err
	}
	n.Routing, err = ro(n.DAG, d)
	if err != nil {
		return nil, err
	}

	// Without a router, content is read straight from the local DAG.
	var vs routing.ValueStore = n.Routing
	if conf.Routing.Type == config.RoutingNone && cfg.Routing == nil {
		vs = offroute.NewOfflineRouter(n.DAG, d)
	}
	n.Exporter = exporter.NewExporter(vs)
	if conf.Exporter.Concurrency > 0 {
		n.Exporter.Concurrency = conf.Exporter.Concurrency
	}

	log.Debugf("node built, routing %s, chunker %s", conf.Routing.Type, n.Chunker)
	success = true
	return n, nil
}
