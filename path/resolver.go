package path

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-ipfs-lite/cid"
	dag "github.com/ipfs/go-ipfs-lite/merkledag"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("path")

// ErrNoLink is returned when a link is not found in a path
type ErrNoLink struct {
	Name string
	Node []byte
}

func (e ErrNoLink) Error() string {
	h, err := cid.HashToBase58(e.Node)
	if err != nil {
		h = fmt.Sprintf("%x", e.Node)
	}
	return fmt.Sprintf("no link named %q under %s", e.Name, h)
}

// Resolver provides path resolution to IPFS
// It has a pointer to a DAGService, which is uses to resolve nodes.
type Resolver struct {
	DAG dag.DAGService
}

// NewBasicResolver constructs a new basic resolver.
func NewBasicResolver(ds dag.DAGService) *Resolver {
	return &Resolver{DAG: ds}
}

// ResolvePath fetches the node for given path. It returns the last item
// returned by ResolvePathComponents.
func (s *Resolver) ResolvePath(ctx context.Context, fpath Path) (*dag.ProtoNode, error) {
	nodes, err := s.ResolvePathComponents(ctx, fpath)
	if err != nil {
		return nil, err
	}
	return nodes[len(nodes)-1], nil
}

// ResolvePathComponents fetches the nodes for each segment of the given path.
// It uses the first path component as a hash (key) of the first node, then
// resolves all other components walking the links, with ResolveLinks.
func (s *Resolver) ResolvePathComponents(ctx context.Context, fpath Path) ([]*dag.ProtoNode, error) {
	log.Debugf("resolve: '%s'", fpath)

	c, parts, err := SplitAbsPath(fpath)
	if err != nil {
		return nil, err
	}

	nd, err := s.DAG.Get(ctx, c.Hash)
	if err != nil {
		return nil, err
	}

	return s.ResolveLinks(ctx, nd, parts)
}

// ResolveLinks iteratively resolves names by walking the link hierarchy.
// Every node is fetched from the DAGService, resolving the next name.
// Returns the list of nodes forming the path, starting with ndd. This list is
// guaranteed never to be empty.
//
// ResolveLinks(nd, []string{"foo", "bar", "baz"})
// would retrieve "baz" in ("bar" in ("foo" in nd.Links).Links).Links
func (s *Resolver) ResolveLinks(ctx context.Context, ndd *dag.ProtoNode, names []string) ([]*dag.ProtoNode, error) {
	result := make([]*dag.ProtoNode, 0, len(names)+1)
	result = append(result, ndd)
	nd := ndd // dup arg workaround

	// for each of the path components
	for _, name := range names {
		lnk, err := nd.GetNodeLink(name)
		if errors.Is(err, dag.ErrLinkNotFound) {
			return result, ErrNoLink{Name: name, Node: nd.Hash()}
		} else if err != nil {
			return result, err
		}

		nextnode, err := s.DAG.Get(ctx, lnk.Hash)
		if err != nil {
			return result, err
		}

		nd = nextnode
		result = append(result, nextnode)
	}
	return result, nil
}
