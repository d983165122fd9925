package coreunix

import (
	"context"
	"io"

	core "github.com/ipfs/go-ipfs-lite/core"
	dag "github.com/ipfs/go-ipfs-lite/merkledag"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("coreunix")

// Add builds a merkledag from the a reader, storing all objects in the
// local datastore. Returns the base58 key of the root node.
func Add(ctx context.Context, n *core.IpfsNode, r io.Reader) (string, error) {
	nd, _, err := n.NewAdder().AddReader(ctx, r)
	if err != nil {
		return "", err
	}
	return nd.Cid().String(), nil
}

// AddR recursively adds files in |root|.
func AddR(ctx context.Context, n *core.IpfsNode, root string) (key string, err error) {
	adder := n.NewAdder()
	adder.OnAdded = func(name string, _ *dag.ProtoNode, size uint64) {
		log.Debugf("added %s (%d bytes)", name, size)
	}
	nd, _, err := adder.AddPath(ctx, root)
	if err != nil {
		return "", err
	}
	return nd.Cid().String(), nil
}
