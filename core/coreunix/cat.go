package coreunix

import (
	"context"
	"io"

	core "github.com/ipfs/go-ipfs-lite/core"
	path "github.com/ipfs/go-ipfs-lite/path"
)

// Cat resolves pstr and writes the file content it names to w.
func Cat(ctx context.Context, n *core.IpfsNode, pstr string, w io.Writer) error {
	nd, err := core.Resolve(ctx, n, path.FromString(pstr))
	if err != nil {
		return err
	}
	return n.Exporter.ToStream(ctx, nd.Hash(), w)
}

// ObjectGet writes the JSON description of the node named by a base58 key.
func ObjectGet(ctx context.Context, n *core.IpfsNode, b58 string, w io.Writer) error {
	c, _, err := path.SplitAbsPath(path.FromString(b58))
	if err != nil {
		return err
	}
	return n.Exporter.ToConsole(ctx, c.Hash, w)
}

// Get writes the file content named by a base58 key to filename.
func Get(ctx context.Context, n *core.IpfsNode, b58 string, filename string) error {
	return n.Exporter.ToFile(ctx, b58, filename)
}
