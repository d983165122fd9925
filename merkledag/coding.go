package merkledag

import (
	"fmt"

	"github.com/ipfs/go-ipfs-lite/cid"
	"github.com/ipfs/go-ipfs-lite/internal/pb"

	"google.golang.org/protobuf/encoding/protowire"
)

// Link fields: multihash, name, cumulative size.
const (
	linkFieldHash  protowire.Number = 1
	linkFieldName  protowire.Number = 2
	linkFieldTsize protowire.Number = 3
)

// Node fields: data, then repeated links.
const (
	nodeFieldData  protowire.Number = 1
	nodeFieldLinks protowire.Number = 2
)

func (l *Link) appendTo(b []byte) ([]byte, error) {
	if len(l.Hash) > 0 {
		m, err := cid.WrapDigest(l.Hash)
		if err != nil {
			return nil, err
		}
		b = pb.AppendBytes(b, linkFieldHash, m)
	}
	// the name goes on the wire even when empty
	b = protowire.AppendTag(b, linkFieldName, protowire.BytesType)
	b = protowire.AppendString(b, l.Name)
	if l.Size > 0 {
		b = pb.AppendVarint(b, linkFieldTsize, l.Size)
	}
	return b, nil
}

// Marshal encodes a link on its own.
func (l *Link) Marshal() ([]byte, error) {
	return l.appendTo(nil)
}

// UnmarshalLink decodes a link, stripping the multihash envelope from
// its hash.
func UnmarshalLink(b []byte) (*Link, error) {
	l := new(Link)
	err := pb.Each(b, func(f pb.Field) error {
		switch f.Num {
		case linkFieldHash:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			h, err := cid.UnwrapDigest(f.Bytes)
			if err != nil {
				return err
			}
			l.Hash = append([]byte(nil), h...)
		case linkFieldName:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			l.Name = string(f.Bytes)
		case linkFieldTsize:
			if err := f.Expect(protowire.VarintType); err != nil {
				return err
			}
			l.Size = f.Varint
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal link failed: %w", err)
	}
	return l, nil
}

// Marshal encodes a *Node instance into a new byte slice. Links are
// written first, in order, followed by the data when there is any.
func (n *ProtoNode) Marshal() ([]byte, error) {
	var b []byte
	for _, l := range n.links {
		lb, err := l.Marshal()
		if err != nil {
			return nil, fmt.Errorf("marshal failed: %w", err)
		}
		b = pb.AppendBytes(b, nodeFieldLinks, lb)
	}
	if len(n.data) > 0 {
		b = pb.AppendBytes(b, nodeFieldData, n.data)
	}
	return b, nil
}

// EncodeProtobuf returns the encoded raw data version of a Node instance.
// It may use a cached encoded version, unless the force flag is given.
func (n *ProtoNode) EncodeProtobuf(force bool) ([]byte, error) {
	if n.encoded == nil || force {
		var err error
		n.encoded, err = n.Marshal()
		if err != nil {
			return nil, err
		}
	}
	return n.encoded, nil
}

// DecodeProtobuf decodes raw data and returns a new, mutable Node
// instance. Fields may come in any order; links keep stream order.
func DecodeProtobuf(encoded []byte) (*ProtoNode, error) {
	n := new(ProtoNode)
	err := pb.Each(encoded, func(f pb.Field) error {
		switch f.Num {
		case nodeFieldData:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			n.data = append([]byte(nil), f.Bytes...)
		case nodeFieldLinks:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			l, err := UnmarshalLink(f.Bytes)
			if err != nil {
				return err
			}
			n.links = append(n.links, l)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}
	n.encoded = append([]byte(nil), encoded...)
	return n, nil
}
