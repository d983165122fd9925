// Package unixfs implements a data format for files in the ipfs filesystem
// It is not the only format in ipfs, but it is the one that the filesystem assumes
package unixfs

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-ipfs-lite/errs"
	"github.com/ipfs/go-ipfs-lite/internal/pb"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrMalformedFileFormat = fmt.Errorf("unixfs: %w", errs.ErrMalformed)
	ErrUnrecognizedType    = errors.New("unrecognized node type")
)

// DataType is the kind of content a unixfs payload describes.
type DataType uint64

const (
	TRaw DataType = iota
	TDirectory
	TFile
	TMetadata
	TSymlink
)

func (t DataType) String() string {
	switch t {
	case TRaw:
		return "raw"
	case TDirectory:
		return "directory"
	case TFile:
		return "file"
	case TMetadata:
		return "metadata"
	case TSymlink:
		return "symlink"
	default:
		return fmt.Sprintf("unknown(%d)", uint64(t))
	}
}

const (
	fieldType       protowire.Number = 1
	fieldData       protowire.Number = 2
	fieldFileSize   protowire.Number = 3
	fieldBlockSizes protowire.Number = 4
)

// FSNode is the unixfs payload carried in a dag node's data.
type FSNode struct {
	Type       DataType
	Data       []byte
	FileSize   uint64
	BlockSizes []uint64
}

func NewFSNode(t DataType) *FSNode {
	return &FSNode{Type: t}
}

// FSNodeFromBytes decodes a unixfs payload. Empty input decodes to an
// empty raw node.
func FSNodeFromBytes(b []byte) (*FSNode, error) {
	n := new(FSNode)
	err := pb.Each(b, func(f pb.Field) error {
		switch f.Num {
		case fieldType:
			if f.Type != protowire.VarintType {
				return ErrMalformedFileFormat
			}
			n.Type = DataType(f.Varint)
		case fieldData:
			if f.Type != protowire.BytesType {
				return ErrMalformedFileFormat
			}
			n.Data = append([]byte(nil), f.Bytes...)
		case fieldFileSize:
			if f.Type != protowire.VarintType {
				return ErrMalformedFileFormat
			}
			n.FileSize = f.Varint
		case fieldBlockSizes:
			switch f.Type {
			case protowire.VarintType:
				n.BlockSizes = append(n.BlockSizes, f.Varint)
			case protowire.BytesType:
				packed := f.Bytes
				for len(packed) > 0 {
					v, l := protowire.ConsumeVarint(packed)
					if l < 0 {
						return ErrMalformedFileFormat
					}
					n.BlockSizes = append(n.BlockSizes, v)
					packed = packed[l:]
				}
			default:
				return ErrMalformedFileFormat
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMalformedFileFormat) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedFileFormat, err)
	}
	return n, nil
}

// Marshal encodes n. The type is always written; data, file size and
// block sizes only when set.
func (n *FSNode) Marshal() []byte {
	b := pb.AppendVarint(nil, fieldType, uint64(n.Type))
	if len(n.Data) > 0 {
		b = pb.AppendBytes(b, fieldData, n.Data)
	}
	if n.FileSize > 0 {
		b = pb.AppendVarint(b, fieldFileSize, n.FileSize)
	}
	for _, s := range n.BlockSizes {
		b = pb.AppendVarint(b, fieldBlockSizes, s)
	}
	return b
}

// AddBlockSize records a child of size s and grows the file size.
func (n *FSNode) AddBlockSize(s uint64) {
	n.FileSize += s
	n.BlockSizes = append(n.BlockSizes, s)
}

func (n *FSNode) RemoveBlockSize(i int) {
	n.FileSize -= n.BlockSizes[i]
	n.BlockSizes = append(n.BlockSizes[:i], n.BlockSizes[i+1:]...)
}

func (n *FSNode) BlockSize(i int) uint64 {
	return n.BlockSizes[i]
}

func (n *FSNode) NumChildren() int {
	return len(n.BlockSizes)
}

func (n *FSNode) SetData(d []byte) {
	n.Data = d
}

func FilePBData(data []byte, totalsize uint64) []byte {
	return (&FSNode{Type: TFile, Data: data, FileSize: totalsize}).Marshal()
}

// Returns Bytes that represent a Directory
func FolderPBData() []byte {
	return NewFSNode(TDirectory).Marshal()
}

func WrapData(b []byte) []byte {
	return (&FSNode{Type: TRaw, Data: b}).Marshal()
}

func SymlinkData(path string) []byte {
	return (&FSNode{Type: TSymlink, Data: []byte(path)}).Marshal()
}

func UnwrapData(data []byte) ([]byte, error) {
	n, err := FSNodeFromBytes(data)
	if err != nil {
		return nil, err
	}
	return n.Data, nil
}

func DataSize(data []byte) (uint64, error) {
	n, err := FSNodeFromBytes(data)
	if err != nil {
		return 0, err
	}

	switch n.Type {
	case TDirectory:
		return 0, errors.New("can't get data size of directory")
	case TFile:
		return n.FileSize, nil
	case TRaw, TSymlink:
		return uint64(len(n.Data)), nil
	default:
		return 0, ErrUnrecognizedType
	}
}

// Metadata describes the mime type of the content it sits next to.
type Metadata struct {
	MimeType string
}

func (m *Metadata) Marshal() []byte {
	var inner []byte
	if m.MimeType != "" {
		inner = protowire.AppendTag(inner, 1, protowire.BytesType)
		inner = protowire.AppendString(inner, m.MimeType)
	}
	return (&FSNode{Type: TMetadata, Data: inner}).Marshal()
}

func MetadataFromBytes(b []byte) (*Metadata, error) {
	n, err := FSNodeFromBytes(b)
	if err != nil {
		return nil, err
	}
	if n.Type != TMetadata {
		return nil, errors.New("incorrect node type")
	}

	md := new(Metadata)
	err = pb.Each(n.Data, func(f pb.Field) error {
		if f.Num == 1 && f.Type == protowire.BytesType {
			md.MimeType = string(f.Bytes)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFileFormat, err)
	}
	return md, nil
}
