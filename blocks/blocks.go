// package blocks contains the lowest level of ipfs data structures,
// the raw block with a checksum.
package blocks

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ipfs/go-ipfs-lite/cid"
	"github.com/ipfs/go-ipfs-lite/errs"
	"github.com/ipfs/go-ipfs-lite/internal/pb"

	blockformat "github.com/ipfs/go-block-format"
	"google.golang.org/protobuf/encoding/protowire"
)

var ErrWrongHash = errors.New("data did not match given hash")

const (
	fieldData protowire.Number = 1
	fieldCid  protowire.Number = 2
)

// Block is a singular block of data in ipfs. The zero value is a block
// with no payload and no cid.
type Block struct {
	cid  *cid.Cid
	data []byte
}

// NewBlock creates a Block object from opaque data. It will hash the data.
func NewBlock(data []byte) *Block {
	d := make([]byte, len(data))
	copy(d, data)
	return &Block{data: d, cid: cid.NewV0(cid.Sum(d))}
}

// NewBlockWithCid creates a new block when the cid of the data is already
// known. A sha2-256 sized hash is checked against the data.
func NewBlockWithCid(data []byte, c *cid.Cid) (*Block, error) {
	if c != nil && len(c.Hash) == 32 && !bytes.Equal(cid.Sum(data), c.Hash) {
		return nil, ErrWrongHash
	}
	return &Block{data: data, cid: c}, nil
}

func (b *Block) Cid() *cid.Cid {
	return b.cid
}

func (b *Block) RawData() []byte {
	return b.data
}

func (b *Block) String() string {
	return fmt.Sprintf("[Block %s]", b.cid)
}

func (b *Block) Loggable() map[string]interface{} {
	return map[string]interface{}{
		"block": b.cid.String(),
	}
}

// EncodedSize returns an upper bound on the length of Marshal's output.
func (b *Block) EncodedSize() int {
	return 11 + len(b.data) + 11 + b.cid.EncodedSize()
}

func (b *Block) appendTo(buf []byte) ([]byte, error) {
	c, err := b.cid.Marshal()
	if err != nil {
		return nil, err
	}
	buf = pb.AppendBytes(buf, fieldData, b.data)
	return pb.AppendBytes(buf, fieldCid, c), nil
}

// MarshalTo writes the wire form of b into buf.
func (b *Block) MarshalTo(buf []byte) (int, error) {
	enc, err := b.appendTo(make([]byte, 0, b.EncodedSize()))
	if err != nil {
		return 0, err
	}
	if len(buf) < len(enc) {
		return 0, fmt.Errorf("block needs %d bytes, have %d: %w", len(enc), len(buf), errs.ErrBufferTooSmall)
	}
	return copy(buf, enc), nil
}

// Marshal returns the wire form of b.
func (b *Block) Marshal() ([]byte, error) {
	return b.appendTo(make([]byte, 0, b.EncodedSize()))
}

// Unmarshal decodes a block from its wire form. The cid is taken as is;
// use Verify to check it against the data.
func Unmarshal(data []byte) (*Block, error) {
	b := new(Block)
	err := pb.Each(data, func(f pb.Field) error {
		switch f.Num {
		case fieldData:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			b.data = append([]byte(nil), f.Bytes...)
		case fieldCid:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			c, err := cid.Unmarshal(f.Bytes)
			if err != nil {
				return err
			}
			b.cid = c
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decoding block: %w", err)
	}
	return b, nil
}

// Verify re-hashes the data and compares it with the block's cid.
func (b *Block) Verify() error {
	if b.cid == nil || !bytes.Equal(cid.Sum(b.data), b.cid.Hash) {
		return ErrWrongHash
	}
	return nil
}

// ToStandard converts b into a go-block-format block.
func (b *Block) ToStandard() (blockformat.Block, error) {
	if b.cid == nil {
		return nil, fmt.Errorf("block has no cid")
	}
	sc, err := b.cid.ToStandard()
	if err != nil {
		return nil, err
	}
	sb, err := blockformat.NewBlockWithCid(b.data, sc)
	if err != nil {
		return nil, err
	}
	return sb, nil
}
