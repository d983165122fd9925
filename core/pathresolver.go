package core

import (
	"context"
	"errors"
	"strings"

	merkledag "github.com/ipfs/go-ipfs-lite/merkledag"
	path "github.com/ipfs/go-ipfs-lite/path"
)

// ErrNoNamesys is returned for /ipns/ paths, which this node cannot resolve.
var ErrNoNamesys = errors.New(
	"core/resolve: no Namesys on IpfsNode - can't resolve ipns entry")

// Resolve resolves the given path and returns the final merkledag node.
// Plain hashes are treated as /ipfs/ paths.
func Resolve(ctx context.Context, n *IpfsNode, p path.Path) (*merkledag.ProtoNode, error) {
	if strings.HasPrefix(p.String(), "/ipns/") {
		return nil, ErrNoNamesys
	}

	p, err := path.ParsePath(p.String())
	if err != nil {
		return nil, err
	}
	return n.Resolver.ResolvePath(ctx, p)
}
