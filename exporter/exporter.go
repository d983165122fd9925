// Package exporter reads content back out of the DAG: as a byte stream,
// into a file, or as a printable description of a node.
package exporter

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ipfs/go-ipfs-lite/cid"
	"github.com/ipfs/go-ipfs-lite/errs"
	dag "github.com/ipfs/go-ipfs-lite/merkledag"
	"github.com/ipfs/go-ipfs-lite/routing"
	ft "github.com/ipfs/go-ipfs-lite/unixfs"

	"github.com/google/renameio"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/errgroup"
)

var log = logging.Logger("exporter")

// Exporter fetches nodes by hash through a value store.
type Exporter struct {
	Routing routing.ValueStore

	// Concurrency bounds how many children are fetched at once while
	// streaming. Output order is always link order.
	Concurrency int
}

func NewExporter(vs routing.ValueStore) *Exporter {
	return &Exporter{Routing: vs, Concurrency: 1}
}

// GetNode fetches and decodes the node with the given hash.
func (e *Exporter) GetNode(ctx context.Context, hash []byte) (*dag.ProtoNode, error) {
	v, err := e.Routing.GetValue(ctx, hash)
	if err != nil {
		return nil, &errs.RetrievalError{Err: err, Hash: hash}
	}
	nd, err := dag.DecodeProtobuf(v)
	if err != nil {
		return nil, &errs.RetrievalError{Err: err, Hash: hash}
	}
	nd.SetHash(hash)
	return nd, nil
}

// ToStream writes the file content rooted at hash to w. A root without
// links holds the content itself; otherwise the content of each linked
// node is written in link order.
func (e *Exporter) ToStream(ctx context.Context, hash []byte, w io.Writer) error {
	nd, err := e.GetNode(ctx, hash)
	if err != nil {
		return err
	}
	return e.writeContent(ctx, nd, w)
}

func (e *Exporter) writeContent(ctx context.Context, nd *dag.ProtoNode, w io.Writer) error {
	links := nd.Links()
	if len(links) == 0 {
		return writePayload(nd, w)
	}

	window := e.Concurrency
	if window < 1 {
		window = 1
	}
	for start := 0; start < len(links); start += window {
		end := start + window
		if end > len(links) {
			end = len(links)
		}

		children := make([]*dag.ProtoNode, end-start)
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				c, err := e.GetNode(gctx, links[i].Hash)
				children[i-start] = c
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, c := range children {
			if err := e.writeContent(ctx, c, w); err != nil {
				return err
			}
		}
	}
	return nil
}

func writePayload(nd *dag.ProtoNode, w io.Writer) error {
	fsn, err := ft.FSNodeFromBytes(nd.Data())
	if err != nil {
		return fmt.Errorf("%s: %w", nd, err)
	}
	_, err = w.Write(fsn.Data)
	return err
}

// ToFile writes the content named by a legacy base58 hash to filename.
// The file only appears once the whole content was written.
func (e *Exporter) ToFile(ctx context.Context, b58 string, filename string) error {
	c, err := cid.DecodeBase58Multihash(b58)
	if err != nil {
		return err
	}

	pf, err := renameio.TempFile(filepath.Dir(filename), filename)
	if err != nil {
		return err
	}
	defer pf.Cleanup()

	if err := e.ToStream(ctx, c.Hash, pf); err != nil {
		return err
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return err
	}
	log.Debugf("exported %s to %s", b58, filename)
	return nil
}

// CatNode writes the payload of nd and then, depth first, the payload of
// everything it links to.
func (e *Exporter) CatNode(ctx context.Context, nd *dag.ProtoNode, w io.Writer) error {
	if err := writePayload(nd, w); err != nil {
		return err
	}
	for _, l := range nd.Links() {
		child, err := e.GetNode(ctx, l.Hash)
		if err != nil {
			return err
		}
		if err := e.CatNode(ctx, child, w); err != nil {
			return err
		}
	}
	return nil
}

// Cat fetches the node with the given hash and writes it with CatNode.
func (e *Exporter) Cat(ctx context.Context, hash []byte, w io.Writer) error {
	nd, err := e.GetNode(ctx, hash)
	if err != nil {
		return err
	}
	return e.CatNode(ctx, nd, w)
}

// ToConsole writes a one line JSON description of the node: its links
// and its hex encoded data.
func (e *Exporter) ToConsole(ctx context.Context, hash []byte, w io.Writer) error {
	nd, err := e.GetNode(ctx, hash)
	if err != nil {
		return err
	}
	b, err := nd.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}
