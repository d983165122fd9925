/*
Package core implements the IpfsNode object and related methods.

Packages underneath core/ provide a (relatively) stable, low-level API
to carry out most IPFS-related tasks.
*/
package core

import (
	"context"
	"io"

	bstore "github.com/ipfs/go-ipfs-lite/blocks/blockstore"
	"github.com/ipfs/go-ipfs-lite/exporter"
	"github.com/ipfs/go-ipfs-lite/importer"
	merkledag "github.com/ipfs/go-ipfs-lite/merkledag"
	path "github.com/ipfs/go-ipfs-lite/path"
	"github.com/ipfs/go-ipfs-lite/repo"
	"github.com/ipfs/go-ipfs-lite/routing"

	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/multierr"
)

var log = logging.Logger("core")

// IpfsNode is IPFS Core module. It represents an IPFS instance.
type IpfsNode struct {
	Repo repo.Repo

	// Services
	Blockstore bstore.Blockstore    // the block store (lower level)
	DAG        merkledag.DAGService // the merkle dag service, get/add objects.
	Resolver   *path.Resolver       // the path resolution system
	Routing    routing.Routing      // the routing system
	Exporter   *exporter.Exporter   // reads content back through the value store

	// Chunker is the chunker spec used by NewAdder.
	Chunker string

	IsOnline bool // Online is set when networking is enabled.

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// Context returns the node's lifetime context.
func (n *IpfsNode) Context() context.Context {
	return n.ctx
}

// NewAdder returns an importer storing into the node's DAG and announcing
// through its router.
func (n *IpfsNode) NewAdder() *importer.Adder {
	a := importer.NewAdder(n.DAG, n.Routing)
	a.Chunker = n.Chunker
	return a
}

// Close stops the node's background work and closes the repo.
func (n *IpfsNode) Close() error {
	if n.closed {
		return nil
	}
	n.closed = true
	n.cancel()

	var err error
	if c, ok := n.Routing.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	err = multierr.Append(err, n.Repo.Close())
	if err != nil {
		log.Errorf("failure on close: %s", err)
	}
	return err
}
