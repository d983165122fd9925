package helpers

import (
	dag "github.com/ipfs/go-ipfs-lite/merkledag"
	ft "github.com/ipfs/go-ipfs-lite/unixfs"
)

// UnixfsNode is a struct created to aid in the generation
// of unixfs DAG trees
type UnixfsNode struct {
	node *dag.ProtoNode
}

// NewUnixfsNode creates a new Unixfs node to represent a file
func NewUnixfsNode() *UnixfsNode {
	return &UnixfsNode{node: new(dag.ProtoNode)}
}

func (n *UnixfsNode) NumChildren() int {
	return len(n.node.Links())
}

// SetFileData makes the node a single-block file holding data.
func (n *UnixfsNode) SetFileData(data []byte) error {
	return n.node.SetData(ft.FilePBData(data, uint64(len(data))))
}

// AddChild links a stored chunk node holding dataLen bytes of file
// content. The payload is decoded, grown and encoded again.
func (n *UnixfsNode) AddChild(child *dag.ProtoNode, written uint64, dataLen uint64) error {
	fsn, err := ft.FSNodeFromBytes(n.node.Data())
	if err != nil {
		return err
	}
	fsn.Type = ft.TFile
	fsn.AddBlockSize(dataLen)

	if err := n.node.SetData(fsn.Marshal()); err != nil {
		return err
	}
	return n.node.AddRawLink("", &dag.Link{Size: written, Hash: child.Hash()})
}

// GetDagNode returns the underlying dag node.
func (n *UnixfsNode) GetDagNode() *dag.ProtoNode {
	return n.node
}
