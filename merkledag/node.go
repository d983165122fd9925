package merkledag

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ipfs/go-ipfs-lite/cid"
	"github.com/ipfs/go-ipfs-lite/unixfs"
)

// Common errors
var (
	ErrLinkNotFound  = errors.New("no link by that name")
	ErrNodeCommitted = errors.New("node is committed, uncommit it before modifying")
	ErrNotCommitted  = errors.New("node has no hash yet")
)

// Link is a named, sized reference from one node to another.
type Link struct {
	// utf string name. may be empty
	Name string

	// cumulative size of target object
	Size uint64

	// sha2-256 digest of the target object
	Hash []byte
}

// MakeLink creates a link to the given committed node.
func MakeLink(n *ProtoNode) (*Link, error) {
	if !n.Committed() {
		return nil, ErrNotCommitted
	}
	s, err := n.Size()
	if err != nil {
		return nil, err
	}
	return &Link{Size: s, Hash: n.Hash()}, nil
}

// Cid returns the version 0 cid of the link target.
func (l *Link) Cid() *cid.Cid {
	return cid.NewV0(l.Hash)
}

// ProtoNode represents a node in the IPFS Merkle DAG.
// nodes have opaque data and a set of navigable links.
//
// A ProtoNode is mutable until Commit stores its hash. After that, every
// mutation fails with ErrNodeCommitted until Uncommit is called.
type ProtoNode struct {
	links []*Link
	data  []byte

	// cache encoded/marshaled value
	encoded []byte

	hash []byte
}

// NodeWithData builds a new Protonode with the given data.
func NodeWithData(d []byte) *ProtoNode {
	return &ProtoNode{data: d}
}

// NewDirectory returns an empty unixfs directory node.
func NewDirectory() *ProtoNode {
	return NodeWithData(unixfs.FolderPBData())
}

func (n *ProtoNode) checkMutable() error {
	if n.hash != nil {
		return ErrNodeCommitted
	}
	n.encoded = nil
	return nil
}

// AddNodeLink adds a link to another node.
func (n *ProtoNode) AddNodeLink(name string, that *ProtoNode) error {
	lnk, err := MakeLink(that)
	if err != nil {
		return err
	}
	lnk.Name = name
	return n.AddRawLink(name, lnk)
}

func (l *Link) copy() *Link {
	return &Link{
		Name: l.Name,
		Size: l.Size,
		Hash: append([]byte(nil), l.Hash...),
	}
}

// AddRawLink appends a copy of a link to this node
func (n *ProtoNode) AddRawLink(name string, l *Link) error {
	if err := n.checkMutable(); err != nil {
		return err
	}
	lnk := l.copy()
	lnk.Name = name
	n.links = append(n.links, lnk)
	return nil
}

// RemoveNodeLink removes the first link with the given name.
func (n *ProtoNode) RemoveNodeLink(name string) error {
	for i, l := range n.links {
		if l.Name != name {
			continue
		}
		if err := n.checkMutable(); err != nil {
			return err
		}
		n.links = append(n.links[:i:i], n.links[i+1:]...)
		return nil
	}
	return ErrLinkNotFound
}

// GetNodeLink returns a copy of the first link with the given name.
func (n *ProtoNode) GetNodeLink(name string) (*Link, error) {
	for _, l := range n.links {
		if l.Name == name {
			return l.copy(), nil
		}
	}
	return nil, ErrLinkNotFound
}

// Copy returns a mutable copy of the node.
func (n *ProtoNode) Copy() *ProtoNode {
	nnode := new(ProtoNode)
	if len(n.data) > 0 {
		nnode.data = make([]byte, len(n.data))
		copy(nnode.data, n.data)
	}
	nnode.links = n.Links()
	return nnode
}

// Data returns the data stored by this node.
func (n *ProtoNode) Data() []byte {
	return n.data
}

// SetData stores data in this nodes.
func (n *ProtoNode) SetData(d []byte) error {
	if err := n.checkMutable(); err != nil {
		return err
	}
	n.data = d
	return nil
}

// IsDirectory reports whether the node's data is a unixfs directory.
func (n *ProtoNode) IsDirectory() bool {
	if len(n.data) < 2 {
		return false
	}
	fsn, err := unixfs.FSNodeFromBytes(n.data)
	if err != nil {
		return false
	}
	return fsn.Type == unixfs.TDirectory
}

// Size returns the total size of the data addressed by node,
// including the total sizes of references.
func (n *ProtoNode) Size() (uint64, error) {
	b, err := n.EncodeProtobuf(false)
	if err != nil {
		return 0, err
	}

	s := uint64(len(b))
	for _, l := range n.links {
		s += l.Size
	}
	return s, nil
}

// NodeStat is a statistics object for a Node. Mostly sizes.
type NodeStat struct {
	Hash           string
	NumLinks       int // number of links in link table
	BlockSize      int // size of the raw, encoded data
	LinksSize      int // size of the links segment
	DataSize       int // size of the data segment
	CumulativeSize int // cumulative size of object and its references
}

// Stat returns statistics on the node.
func (n *ProtoNode) Stat() (*NodeStat, error) {
	enc, err := n.EncodeProtobuf(false)
	if err != nil {
		return nil, err
	}

	cumSize, err := n.Size()
	if err != nil {
		return nil, err
	}

	return &NodeStat{
		Hash:           n.String(),
		NumLinks:       len(n.links),
		BlockSize:      len(enc),
		LinksSize:      len(enc) - len(n.data), // includes framing.
		DataSize:       len(n.data),
		CumulativeSize: int(cumSize),
	}, nil
}

// Loggable implements the ipfs/go-log.Loggable interface.
func (n *ProtoNode) Loggable() map[string]interface{} {
	return map[string]interface{}{
		"node": n.String(),
	}
}

type jsonLink struct {
	Name string
	Hash string
	Size uint64
}

// MarshalJSON returns a JSON representation of the node.
func (n *ProtoNode) MarshalJSON() ([]byte, error) {
	out := struct {
		Links []jsonLink
		Data  string
	}{Links: make([]jsonLink, 0, len(n.links)), Data: fmt.Sprintf("%x", n.data)}

	for _, l := range n.links {
		h, err := cid.HashToBase58(l.Hash)
		if err != nil {
			return nil, err
		}
		out.Links = append(out.Links, jsonLink{Name: l.Name, Hash: h, Size: l.Size})
	}
	return json.Marshal(out)
}

// Commit computes and stores the node's hash if it has none, freezing
// the node. The hash is the sha2-256 digest of a fresh encoding.
func (n *ProtoNode) Commit() ([]byte, error) {
	if n.hash != nil {
		return n.Hash(), nil
	}
	enc, err := n.EncodeProtobuf(true)
	if err != nil {
		return nil, err
	}
	n.hash = cid.Sum(enc)
	return n.Hash(), nil
}

// Committed reports whether the node carries a hash.
func (n *ProtoNode) Committed() bool {
	return n.hash != nil
}

// Uncommit drops the node's hash so it can be modified again.
func (n *ProtoNode) Uncommit() {
	n.hash = nil
	n.encoded = nil
}

// SetHash stamps a known hash on the node, freezing it.
func (n *ProtoNode) SetHash(h []byte) {
	n.hash = append([]byte(nil), h...)
}

// Hash returns a copy of the node's digest, or nil if it is not
// committed.
func (n *ProtoNode) Hash() []byte {
	if n.hash == nil {
		return nil
	}
	return append([]byte(nil), n.hash...)
}

// Cid returns the node's cid, or nil if it is not committed.
func (n *ProtoNode) Cid() *cid.Cid {
	if n.hash == nil {
		return nil
	}
	return cid.NewV0(n.hash)
}

// String prints the node's hash.
func (n *ProtoNode) String() string {
	if n.hash == nil {
		return "<uncommitted node>"
	}
	return n.Cid().String()
}

// Links returns copies of the node links. Changing them does not
// change the node.
func (n *ProtoNode) Links() []*Link {
	if len(n.links) == 0 {
		return nil
	}
	out := make([]*Link, len(n.links))
	for i, l := range n.links {
		out[i] = l.copy()
	}
	return out
}

// SetLinks replaces the node links with copies of the given ones.
func (n *ProtoNode) SetLinks(links []*Link) error {
	if err := n.checkMutable(); err != nil {
		return err
	}
	n.links = nil
	for _, l := range links {
		n.links = append(n.links, l.copy())
	}
	return nil
}

// ResolveLink consumes the first element of the path and obtains the link
// corresponding to it from the node. It returns the link
// and the path without the consumed element.
func (n *ProtoNode) ResolveLink(path []string) (*Link, []string, error) {
	if len(path) == 0 {
		return nil, nil, fmt.Errorf("end of path, no more links to resolve")
	}

	lnk, err := n.GetNodeLink(path[0])
	if err != nil {
		return nil, nil, err
	}

	return lnk, path[1:], nil
}
