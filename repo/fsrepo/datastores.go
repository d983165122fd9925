package fsrepo

import (
	"fmt"
	"os"

	config "github.com/ipfs/go-ipfs-lite/config"
	"github.com/ipfs/go-ipfs-lite/repo"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	ds "github.com/ipfs/go-datastore"
	mount "github.com/ipfs/go-datastore/mount"
	dssync "github.com/ipfs/go-datastore/sync"
	badgerds "github.com/ipfs/go-ds-badger"
	flatfs "github.com/ipfs/go-ds-flatfs"
	levelds "github.com/ipfs/go-ds-leveldb"
	measure "github.com/ipfs/go-ds-measure"
	pebbleds "github.com/ipfs/go-ds-pebble"
	ldbopts "github.com/syndtr/goleveldb/leveldb/opt"
)

const measurePrefix = "fsrepo.datastore."

// openDatastore builds the datastore tree: blocks under /blocks in flatfs,
// everything else in the index store.
func (r *FSRepo) openDatastore() (repo.Datastore, error) {
	dcfg := r.config.Datastore
	if dcfg.Type == config.DatastoreMem {
		return dssync.MutexWrap(ds.NewMapDatastore()), nil
	}

	blocksDS, err := r.openFlatfsDatastore(dcfg)
	if err != nil {
		return nil, fmt.Errorf("unable to open flatfs datastore: %w", err)
	}

	indexDS, err := r.openIndexDatastore(dcfg)
	if err != nil {
		blocksDS.Close()
		return nil, fmt.Errorf("unable to open %s datastore: %w", dcfg.IndexType, err)
	}

	if dcfg.Measure {
		blocksDS = measure.New(measurePrefix+"blocks", blocksDS)
		indexDS = measure.New(measurePrefix+dcfg.IndexType, indexDS)
	}

	return mount.New([]mount.Mount{
		{
			Prefix:    ds.NewKey("/blocks"),
			Datastore: blocksDS,
		},
		{
			Prefix:    ds.NewKey("/"),
			Datastore: indexDS,
		},
	}), nil
}

func (r *FSRepo) openFlatfsDatastore(dcfg config.Datastore) (repo.Datastore, error) {
	shardFun, err := flatfs.ParseShardFunc(dcfg.BlocksShardFunc)
	if err != nil {
		return nil, err
	}
	return flatfs.CreateOrOpen(resolvePath(r.path, dcfg.BlocksPath), shardFun, dcfg.BlocksSync)
}

func (r *FSRepo) openIndexDatastore(dcfg config.Datastore) (repo.Datastore, error) {
	p := resolvePath(r.path, dcfg.IndexPath)

	switch dcfg.IndexType {
	case config.IndexBadger:
		opts := badgerds.DefaultOptions
		return badgerds.NewDatastore(p, &opts)
	case config.IndexPebble:
		if err := os.MkdirAll(p, 0o755); err != nil {
			return nil, err
		}
		var opts pebble.Options
		opts = *opts.EnsureDefaults()
		if dcfg.IndexCompression != "snappy" {
			opts.Levels[0].Compression = pebble.NoCompression
		}
		opts.Levels[0].FilterPolicy = bloom.FilterPolicy(10)
		return pebbleds.NewDatastore(p, pebbleds.WithPebbleOpts(&opts))
	case config.IndexLevelDB:
		var c ldbopts.Compression
		switch dcfg.IndexCompression {
		case "none":
			c = ldbopts.NoCompression
		case "snappy":
			c = ldbopts.SnappyCompression
		default:
			c = ldbopts.DefaultCompression
		}
		return levelds.NewDatastore(p, &levelds.Options{
			Compression: c,
		})
	default:
		return nil, fmt.Errorf("unknown index type: %s", dcfg.IndexType)
	}
}
