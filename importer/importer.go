// package importer implements utilities used to create ipfs DAGs from files
// and readers
package importer

import (
	"context"
	"io"
	"os"

	h "github.com/ipfs/go-ipfs-lite/importer/helpers"
	dag "github.com/ipfs/go-ipfs-lite/merkledag"
	ft "github.com/ipfs/go-ipfs-lite/unixfs"

	chunker "github.com/ipfs/boxo/chunker"
)

// DefaultChunker splits files into fixed 256 KiB chunks.
var DefaultChunker = "size-262144"

// BuildDagFromFile chunks the named file and stores its nodes in ds.
func BuildDagFromFile(ctx context.Context, fpath string, ds dag.NodeAdder) (*dag.ProtoNode, uint64, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	return BuildDagFromReader(ctx, ds, chunker.DefaultSplitter(f))
}

// BuildDagFromReader builds a file DAG one level deep. A file that fits
// in one chunk becomes a single node holding the data. Otherwise every
// chunk becomes an unnamed child of the root, in order, and the root
// payload records each chunk size and the total file size.
//
// It returns the root and the number of encoded bytes stored.
func BuildDagFromReader(ctx context.Context, ds dag.NodeAdder, spl chunker.Splitter) (*dag.ProtoNode, uint64, error) {
	db := h.NewDagBuilderHelper(ds, spl)
	root := h.NewUnixfsNode()

	for {
		data, err := db.Next()
		if err != nil {
			return nil, 0, err
		}
		last := db.Done()

		if last && root.NumChildren() == 0 {
			if err := root.SetFileData(data); err != nil {
				return nil, 0, err
			}
			break
		}

		child := dag.NodeWithData(ft.FilePBData(data, uint64(len(data))))
		written, err := db.Add(ctx, child)
		if err != nil {
			return nil, 0, err
		}
		if err := root.AddChild(child, written, uint64(len(data))); err != nil {
			return nil, 0, err
		}

		if last {
			break
		}
	}

	nd := root.GetDagNode()
	if _, err := db.Add(ctx, nd); err != nil {
		return nil, 0, err
	}
	return nd, db.Written(), nil
}

// NewSplitter parses a chunker description such as "size-262144" or
// "rabin-16-32-64".
func NewSplitter(r io.Reader, spec string) (chunker.Splitter, error) {
	if spec == "" {
		spec = DefaultChunker
	}
	return chunker.FromString(r, spec)
}
