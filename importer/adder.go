package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	gopath "path"
	"path/filepath"

	dag "github.com/ipfs/go-ipfs-lite/merkledag"
	"github.com/ipfs/go-ipfs-lite/routing"
	ft "github.com/ipfs/go-ipfs-lite/unixfs"

	"github.com/dustin/go-humanize"
	"github.com/ipfs/boxo/files"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("importer")

// Adder imports files and directory trees into a DAG. Each call stores
// its whole tree at once: a failure anywhere leaves nothing behind.
// An Adder is not safe for concurrent use.
type Adder struct {
	dag    dag.DAGService
	router routing.ContentRouting

	// Chunker is a chunker description, see NewSplitter.
	Chunker string

	// Recursive makes AddFile descend into directories. Without it a
	// directory is stored as an empty directory node.
	Recursive bool

	// Hidden includes dot files when walking directories.
	Hidden bool

	// OnAdded, when set, is called for every imported entry with its
	// slash separated name and the bytes stored for its subtree.
	OnAdded func(name string, nd *dag.ProtoNode, size uint64)

	// entries built by the current call, announced once it is stored
	entries []*dag.ProtoNode
}

// NewAdder returns an Adder storing into ds. The router may be nil.
func NewAdder(ds dag.DAGService, router routing.ContentRouting) *Adder {
	return &Adder{
		dag:     ds,
		router:  router,
		Chunker: DefaultChunker,
		Hidden:  true,
	}
}

// AddReader imports the content of r as a single file.
func (adder *Adder) AddReader(ctx context.Context, r io.Reader) (*dag.ProtoNode, uint64, error) {
	return adder.run(ctx, func(b *dag.Batch) (*dag.ProtoNode, uint64, error) {
		nd, size, err := adder.addReader(ctx, b, r)
		if err != nil {
			return nil, 0, err
		}
		adder.added("", nd, size)
		return nd, size, nil
	})
}

// AddFile imports the file, symlink or directory at fpath. Directories
// are only walked when Recursive is set.
func (adder *Adder) AddFile(ctx context.Context, fpath string) (*dag.ProtoNode, uint64, error) {
	stat, err := os.Lstat(fpath)
	if err != nil {
		return nil, 0, err
	}
	f, err := files.NewSerialFile(fpath, adder.Hidden, stat)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	return adder.run(ctx, func(b *dag.Batch) (*dag.ProtoNode, uint64, error) {
		return adder.addNode(ctx, b, f, filepath.Base(fpath))
	})
}

// AddPath is AddFile with Recursive forced on.
func (adder *Adder) AddPath(ctx context.Context, fpath string) (*dag.ProtoNode, uint64, error) {
	rec := adder.Recursive
	adder.Recursive = true
	defer func() { adder.Recursive = rec }()

	return adder.AddFile(ctx, fpath)
}

func (adder *Adder) run(ctx context.Context, build func(*dag.Batch) (*dag.ProtoNode, uint64, error)) (*dag.ProtoNode, uint64, error) {
	adder.entries = nil
	defer func() { adder.entries = nil }()

	batch := adder.dag.Batch()
	nd, size, err := build(batch)
	if err != nil {
		batch.Discard()
		return nil, 0, err
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, 0, err
	}

	adder.provide(ctx)
	return nd, size, nil
}

// provide announces every imported entry and its immediate children.
// Failures are only logged.
func (adder *Adder) provide(ctx context.Context) {
	if adder.router == nil {
		return
	}

	seen := make(map[string]struct{})
	announce := func(k []byte) {
		if _, ok := seen[string(k)]; ok {
			return
		}
		seen[string(k)] = struct{}{}

		err := adder.router.Provide(ctx, k)
		switch {
		case err == nil:
		case errors.Is(err, routing.ErrOffline):
			log.Debugf("provide %x: %s", k, err)
		default:
			log.Warnf("provide %x: %s", k, err)
		}
	}

	for _, nd := range adder.entries {
		announce(nd.Hash())
		for _, l := range nd.Links() {
			announce(l.Hash)
		}
	}
}

func (adder *Adder) added(name string, nd *dag.ProtoNode, size uint64) {
	adder.entries = append(adder.entries, nd)
	log.Infof("added %s %s (%s)", nd, name, humanize.Bytes(size))
	if adder.OnAdded != nil {
		adder.OnAdded(name, nd, size)
	}
}

func (adder *Adder) addReader(ctx context.Context, b *dag.Batch, r io.Reader) (*dag.ProtoNode, uint64, error) {
	spl, err := NewSplitter(r, adder.Chunker)
	if err != nil {
		return nil, 0, err
	}
	return BuildDagFromReader(ctx, b, spl)
}

func (adder *Adder) addNode(ctx context.Context, b *dag.Batch, node files.Node, name string) (*dag.ProtoNode, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	var (
		nd   *dag.ProtoNode
		size uint64
		err  error
	)
	switch f := node.(type) {
	case files.Directory:
		nd, size, err = adder.addDir(ctx, b, f, name)
	case *files.Symlink:
		nd, size, err = adder.addSymlink(ctx, b, f)
	case files.File:
		nd, size, err = adder.addReader(ctx, b, f)
	default:
		err = fmt.Errorf("%s: unknown file type %T", name, node)
	}
	if err != nil {
		return nil, 0, err
	}

	adder.added(name, nd, size)
	return nd, size, nil
}

func (adder *Adder) addSymlink(ctx context.Context, b *dag.Batch, l *files.Symlink) (*dag.ProtoNode, uint64, error) {
	nd := dag.NodeWithData(ft.SymlinkData(l.Target))
	size, err := b.Add(ctx, nd)
	if err != nil {
		return nil, 0, err
	}
	return nd, size, nil
}

// addDir imports the entries of a directory in name order and links
// each one by name, sized by the bytes stored for its subtree.
func (adder *Adder) addDir(ctx context.Context, b *dag.Batch, dir files.Directory, name string) (*dag.ProtoNode, uint64, error) {
	nd := dag.NewDirectory()
	var total uint64

	if adder.Recursive {
		it := dir.Entries()
		for it.Next() {
			child, size, err := adder.addEntry(ctx, b, it.Node(), gopath.Join(name, it.Name()))
			if err != nil {
				return nil, 0, err
			}
			if err := nd.AddRawLink(it.Name(), &dag.Link{Size: size, Hash: child.Hash()}); err != nil {
				return nil, 0, err
			}
			total += size
		}
		if err := it.Err(); err != nil {
			return nil, 0, err
		}
	}

	written, err := b.Add(ctx, nd)
	if err != nil {
		return nil, 0, err
	}
	return nd, total + written, nil
}

func (adder *Adder) addEntry(ctx context.Context, b *dag.Batch, node files.Node, name string) (*dag.ProtoNode, uint64, error) {
	defer node.Close()
	return adder.addNode(ctx, b, node, name)
}
