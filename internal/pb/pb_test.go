package pb

import (
	"testing"

	"github.com/ipfs/go-ipfs-lite/errs"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestEachStreamOrder(t *testing.T) {
	var b []byte
	b = AppendBytes(b, 2, []byte("two"))
	b = AppendVarint(b, 1, 300)
	b = protowire.AppendTag(b, 9, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 7)

	var got []Field
	require.NoError(t, Each(b, func(f Field) error {
		got = append(got, f)
		return nil
	}))
	require.Len(t, got, 3)
	require.Equal(t, protowire.Number(2), got[0].Num)
	require.Equal(t, []byte("two"), got[0].Bytes)
	require.Equal(t, uint64(300), got[1].Varint)
	require.NoError(t, got[1].Expect(protowire.VarintType))
	require.ErrorIs(t, got[0].Expect(protowire.VarintType), errs.ErrMalformed)
}

func TestEachTruncated(t *testing.T) {
	b := AppendBytes(nil, 1, []byte("truncated"))
	err := Each(b[:len(b)-2], func(Field) error { return nil })
	require.ErrorIs(t, err, errs.ErrMalformed)

	err = Each([]byte{0x08, 0xff}, func(Field) error { return nil })
	require.ErrorIs(t, err, errs.ErrMalformed)
}
