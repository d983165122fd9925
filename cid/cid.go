// Package cid implements content identifiers: a version, a codec tag and
// the hash of the content they name.
package cid

import (
	"bytes"
	"fmt"

	"github.com/ipfs/go-ipfs-lite/errs"
	"github.com/ipfs/go-ipfs-lite/internal/pb"

	gocid "github.com/ipfs/go-cid"
	"github.com/mr-tron/base58/base58"
	"github.com/multiformats/go-multicodec"
	mh "github.com/multiformats/go-multihash"
	"github.com/multiformats/go-varint"
	"google.golang.org/protobuf/encoding/protowire"
)

// Codecs understood by the store.
const (
	DagProtobuf = multicodec.DagPb
	DagCBOR     = multicodec.DagCbor
	Raw         = multicodec.Raw
	DagJSON     = multicodec.DagJson
)

const (
	fieldVersion protowire.Number = 1
	fieldCodec   protowire.Number = 2
	fieldHash    protowire.Number = 3
)

// legacy base58 form: "Qm" + 44 characters of a sha2-256 multihash
const (
	legacyLen    = 46
	legacyPrefix = "Qm"
	sha256Code   = 0x12
	sha256Len    = 32
)

// Cid names content by hash. Hash holds the digest bytes.
type Cid struct {
	Version uint64
	Codec   multicodec.Code
	Hash    []byte
}

// New validates and builds a Cid. The hash is copied.
func New(version uint64, codec multicodec.Code, hash []byte) (*Cid, error) {
	switch version {
	case 0:
		if codec != DagProtobuf {
			return nil, errs.Malformedf("cid v0 must use dag-pb, got %s", codec)
		}
	case 1:
	default:
		return nil, errs.Malformedf("invalid cid version %d", version)
	}
	h := make([]byte, len(hash))
	copy(h, hash)
	return &Cid{Version: version, Codec: codec, Hash: h}, nil
}

// NewV0 returns a version 0 dag-pb Cid for digest.
func NewV0(digest []byte) *Cid {
	c, _ := New(0, DagProtobuf, digest)
	return c
}

// EncodedSize returns an upper bound on the length of Marshal's output.
func (c *Cid) EncodedSize() int {
	if c == nil {
		return 0
	}
	return 11 + 12 + len(c.Hash) + 11
}

func (c *Cid) appendTo(b []byte) []byte {
	b = pb.AppendVarint(b, fieldVersion, c.Version)
	b = pb.AppendVarint(b, fieldCodec, uint64(c.Codec))
	return pb.AppendBytes(b, fieldHash, c.Hash)
}

// MarshalTo writes the wire form of c into buf and returns the number
// of bytes written.
func (c *Cid) MarshalTo(buf []byte) (int, error) {
	if c == nil {
		return 0, nil
	}
	enc := c.appendTo(make([]byte, 0, c.EncodedSize()))
	if len(buf) < len(enc) {
		return 0, fmt.Errorf("cid needs %d bytes, have %d: %w", len(enc), len(buf), errs.ErrBufferTooSmall)
	}
	return copy(buf, enc), nil
}

// Marshal returns the wire form of c. A nil Cid encodes to nothing.
func (c *Cid) Marshal() ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	buf := make([]byte, c.EncodedSize())
	n, err := c.MarshalTo(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Unmarshal decodes the wire form of a Cid. Empty input means no Cid and
// yields (nil, nil).
func Unmarshal(data []byte) (*Cid, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var (
		version uint64
		codec   uint64
		hash    []byte
	)
	err := pb.Each(data, func(f pb.Field) error {
		switch f.Num {
		case fieldVersion:
			if err := f.Expect(protowire.VarintType); err != nil {
				return err
			}
			version = f.Varint
		case fieldCodec:
			if err := f.Expect(protowire.VarintType); err != nil {
				return err
			}
			codec = f.Varint
		case fieldHash:
			if err := f.Expect(protowire.BytesType); err != nil {
				return err
			}
			hash = f.Bytes
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decoding cid: %w", err)
	}
	return New(version, multicodec.Code(codec), hash)
}

// DecodeBase58Multihash parses the legacy "Qm..." text form.
func DecodeBase58Multihash(s string) (*Cid, error) {
	if len(s) != legacyLen || s[:len(legacyPrefix)] != legacyPrefix {
		return nil, errs.Malformedf("%q is not a base58 sha2-256 multihash", s)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, errs.Malformedf("base58: %v", err)
	}
	digest, err := UnwrapDigest(raw)
	if err != nil {
		return nil, err
	}
	return NewV0(digest), nil
}

// Cast interprets a binary Cid: either a bare sha2-256 multihash (v0) or
// a varint version and codec followed by the hash bytes.
func Cast(data []byte) (*Cid, error) {
	if len(data) == sha256Len+2 && data[0] == sha256Code && data[1] == sha256Len {
		return NewV0(data[2:]), nil
	}

	version, n, err := varint.FromUvarint(data)
	if err != nil {
		return nil, errs.Malformedf("cid version: %v", err)
	}
	if version > 1 {
		return nil, errs.Malformedf("invalid cid version %d", version)
	}
	data = data[n:]

	codec, n, err := varint.FromUvarint(data)
	if err != nil {
		return nil, errs.Malformedf("cid codec: %v", err)
	}
	return New(version, multicodec.Code(codec), data[n:])
}

// Sum returns the sha2-256 digest of data.
func Sum(data []byte) []byte {
	m, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		panic(err) // sha2-256 is always registered
	}
	return m[2:]
}

// WrapDigest prefixes digest with the sha2-256 multihash envelope.
func WrapDigest(digest []byte) ([]byte, error) {
	return mh.Encode(digest, mh.SHA2_256)
}

// UnwrapDigest strips the multihash envelope from m.
func UnwrapDigest(m []byte) ([]byte, error) {
	dm, err := mh.Decode(m)
	if err != nil {
		return nil, errs.Malformedf("multihash: %v", err)
	}
	return dm.Digest, nil
}

// HashToBase58 renders a digest in the legacy "Qm..." text form.
func HashToBase58(digest []byte) (string, error) {
	m, err := WrapDigest(digest)
	if err != nil {
		return "", err
	}
	return base58.Encode(m), nil
}

// ToStandard converts c to a go-cid value.
func (c *Cid) ToStandard() (gocid.Cid, error) {
	m, err := WrapDigest(c.Hash)
	if err != nil {
		return gocid.Undef, err
	}
	if c.Version == 0 {
		return gocid.NewCidV0(mh.Multihash(m)), nil
	}
	return gocid.NewCidV1(uint64(c.Codec), mh.Multihash(m)), nil
}

// FromStandard converts a go-cid value.
func FromStandard(sc gocid.Cid) (*Cid, error) {
	if !sc.Defined() {
		return nil, errs.Malformedf("undefined cid")
	}
	digest, err := UnwrapDigest(sc.Hash())
	if err != nil {
		return nil, err
	}
	return New(sc.Version(), multicodec.Code(sc.Type()), digest)
}

func (c *Cid) String() string {
	if c == nil {
		return "<nil cid>"
	}
	if c.Version == 0 {
		s, err := HashToBase58(c.Hash)
		if err != nil {
			return fmt.Sprintf("<invalid cid %x>", c.Hash)
		}
		return s
	}
	sc, err := c.ToStandard()
	if err != nil {
		return fmt.Sprintf("<invalid cid %x>", c.Hash)
	}
	return sc.String()
}

// Equals reports whether c and o name the same content the same way.
func (c *Cid) Equals(o *Cid) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.Version == o.Version && c.Codec == o.Codec && bytes.Equal(c.Hash, o.Hash)
}
