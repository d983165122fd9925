// Package pb holds the protobuf framing shared by the wire codecs.
package pb

import (
	"github.com/ipfs/go-ipfs-lite/errs"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field is a single decoded protobuf field. Varint is set for varint
// fields, Bytes for length-delimited ones.
type Field struct {
	Num    protowire.Number
	Type   protowire.Type
	Varint uint64
	Bytes  []byte
}

// Expect fails with a malformed error unless the field has wire type t.
func (f Field) Expect(t protowire.Type) error {
	if f.Type != t {
		return errs.Malformedf("field %d: wire type %d, want %d", f.Num, f.Type, t)
	}
	return nil
}

// Each calls fn for every field of b in stream order. Groups and fixed
// width fields are consumed and handed to fn without a value.
func Each(b []byte, fn func(Field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errs.Malformedf("tag: %v", protowire.ParseError(n))
		}
		b = b[n:]

		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			f.Varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.Bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return errs.Malformedf("field %d: %v", num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// AppendVarint appends field num as a varint.
func AppendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// AppendBytes appends field num as a length-delimited value.
func AppendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}
