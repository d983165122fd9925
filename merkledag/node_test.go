package merkledag

import (
	"testing"

	"github.com/ipfs/go-ipfs-lite/cid"
	"github.com/ipfs/go-ipfs-lite/errs"
	"github.com/ipfs/go-ipfs-lite/unixfs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkWireForm(t *testing.T) {
	l := &Link{Name: "My Name", Hash: []byte("QmMyHash")}
	enc, err := l.Marshal()
	require.NoError(t, err)

	want := []byte{0x0a, 0x0a, 0x12, 0x08}
	want = append(want, "QmMyHash"...)
	want = append(want, 0x12, 0x07)
	want = append(want, "My Name"...)
	assert.Equal(t, want, enc)

	out, err := UnmarshalLink(enc)
	require.NoError(t, err)
	assert.Equal(t, "My Name", out.Name)
	assert.Equal(t, []byte("QmMyHash"), out.Hash)
	assert.Zero(t, out.Size)
}

func TestLinkEmptyNameAndSize(t *testing.T) {
	l := &Link{Size: 300, Hash: cid.Sum([]byte("x"))}
	enc, err := l.Marshal()
	require.NoError(t, err)
	// empty name still on the wire, tsize last
	assert.Equal(t, []byte{0x12, 0x00, 0x18, 0xac, 0x02}, enc[len(enc)-5:])

	out, err := UnmarshalLink(enc)
	require.NoError(t, err)
	assert.Equal(t, l, out)
}

func TestNodeRoundTrip(t *testing.T) {
	n := NodeWithData([]byte("hello"))
	require.NoError(t, n.AddRawLink("Link1", &Link{Hash: []byte("QmLink1")}))
	require.NoError(t, n.AddRawLink("Link2", &Link{Hash: []byte("QmLink2"), Size: 12}))

	enc, err := n.Marshal()
	require.NoError(t, err)
	// links first, data last
	assert.Equal(t, byte(0x12), enc[0])
	assert.Equal(t, []byte{0x0a, 0x05, 'h', 'e', 'l', 'l', 'o'}, enc[len(enc)-7:])

	out, err := DecodeProtobuf(enc)
	require.NoError(t, err)
	require.Len(t, out.Links(), 2)
	assert.Equal(t, "Link1", out.Links()[0].Name)
	assert.Equal(t, []byte("QmLink1"), out.Links()[0].Hash)
	assert.Equal(t, "Link2", out.Links()[1].Name)
	assert.Equal(t, []byte("QmLink2"), out.Links()[1].Hash)
	assert.Equal(t, uint64(12), out.Links()[1].Size)
	assert.Equal(t, []byte("hello"), out.Data())
}

func TestDecodeDataFirst(t *testing.T) {
	lb, err := (&Link{Name: "a", Hash: []byte{1, 2}}).Marshal()
	require.NoError(t, err)

	enc := []byte{0x0a, 0x01, 'd', 0x12, byte(len(lb))}
	enc = append(enc, lb...)
	n, err := DecodeProtobuf(enc)
	require.NoError(t, err)
	assert.Equal(t, []byte("d"), n.Data())
	require.Len(t, n.Links(), 1)
	assert.Equal(t, "a", n.Links()[0].Name)
}

func TestDecodeMalformed(t *testing.T) {
	for _, b := range [][]byte{
		{0x12, 0x05, 0x0a},
		{0x0a},
		{0x12, 0x02, 0x0a, 0x01},
		{0x08, 0x01},
	} {
		_, err := DecodeProtobuf(b)
		assert.ErrorIs(t, err, errs.ErrMalformed, "%x", b)
	}
}

func TestEmptyNode(t *testing.T) {
	n := new(ProtoNode)
	enc, err := n.Marshal()
	require.NoError(t, err)
	assert.Empty(t, enc)

	out, err := DecodeProtobuf(enc)
	require.NoError(t, err)
	assert.Empty(t, out.Links())
	assert.Empty(t, out.Data())
}

func TestCommitFreezesNode(t *testing.T) {
	n := NodeWithData([]byte("beep"))
	assert.False(t, n.Committed())
	assert.Nil(t, n.Cid())

	h, err := n.Commit()
	require.NoError(t, err)
	enc, err := n.Marshal()
	require.NoError(t, err)
	assert.Equal(t, cid.Sum(enc), h)

	h2, err := n.Commit()
	require.NoError(t, err)
	assert.Equal(t, h, h2)

	assert.ErrorIs(t, n.SetData([]byte("boop")), ErrNodeCommitted)
	assert.ErrorIs(t, n.AddRawLink("x", &Link{}), ErrNodeCommitted)
	assert.ErrorIs(t, n.SetLinks(nil), ErrNodeCommitted)

	n.Uncommit()
	require.NoError(t, n.SetData([]byte("boop")))
	h3, err := n.Commit()
	require.NoError(t, err)
	assert.NotEqual(t, h, h3)
}

func TestAddNodeLink(t *testing.T) {
	child := NodeWithData([]byte("child"))
	parent := NodeWithData([]byte("parent"))
	assert.ErrorIs(t, parent.AddNodeLink("c", child), ErrNotCommitted)

	_, err := child.Commit()
	require.NoError(t, err)
	require.NoError(t, parent.AddNodeLink("c", child))

	lnk, err := parent.GetNodeLink("c")
	require.NoError(t, err)
	size, err := child.Size()
	require.NoError(t, err)
	assert.Equal(t, size, lnk.Size)
	assert.Equal(t, child.Hash(), lnk.Hash)
	assert.True(t, child.Cid().Equals(lnk.Cid()))
}

func TestRemoveNodeLinkFirstMatch(t *testing.T) {
	n := new(ProtoNode)
	require.NoError(t, n.AddRawLink("dup", &Link{Hash: []byte{1}}))
	require.NoError(t, n.AddRawLink("other", &Link{Hash: []byte{2}}))
	require.NoError(t, n.AddRawLink("dup", &Link{Hash: []byte{3}}))

	require.NoError(t, n.RemoveNodeLink("dup"))
	require.Len(t, n.Links(), 2)
	assert.Equal(t, []byte{2}, n.Links()[0].Hash)
	assert.Equal(t, []byte{3}, n.Links()[1].Hash)

	assert.ErrorIs(t, n.RemoveNodeLink("missing"), ErrLinkNotFound)
	_, err := n.GetNodeLink("missing")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestIsDirectory(t *testing.T) {
	assert.True(t, NewDirectory().IsDirectory())
	assert.False(t, NodeWithData(unixfs.FilePBData([]byte("f"), 1)).IsDirectory())
	assert.False(t, NodeWithData([]byte{0x08}).IsDirectory())
	assert.False(t, NodeWithData(nil).IsDirectory())
	assert.False(t, NodeWithData([]byte{0xff, 0xff, 0xff}).IsDirectory())
}

func TestSizeAndStat(t *testing.T) {
	n := NodeWithData([]byte("beep boop"))
	require.NoError(t, n.AddRawLink("a", &Link{Hash: cid.Sum([]byte("a")), Size: 100}))
	enc, err := n.EncodeProtobuf(true)
	require.NoError(t, err)

	s, err := n.Size()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(enc))+100, s)

	st, err := n.Stat()
	require.NoError(t, err)
	assert.Equal(t, 1, st.NumLinks)
	assert.Equal(t, len(enc), st.BlockSize)
	assert.Equal(t, len("beep boop"), st.DataSize)
	assert.Equal(t, int(s), st.CumulativeSize)
}

func TestCopyIsMutable(t *testing.T) {
	n := NodeWithData([]byte("orig"))
	_, err := n.Commit()
	require.NoError(t, err)

	c := n.Copy()
	require.NoError(t, c.SetData([]byte("changed")))
	assert.Equal(t, []byte("orig"), n.Data())
}

func TestMarshalJSON(t *testing.T) {
	n := NodeWithData([]byte{0xab})
	require.NoError(t, n.AddRawLink("x", &Link{Hash: cid.Sum([]byte("x")), Size: 3}))
	b, err := n.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"Name":"x"`)
	assert.Contains(t, string(b), `"Hash":"Qm`)
	assert.Contains(t, string(b), `"Data":"ab"`)
}

func TestHashCoversLinks(t *testing.T) {
	ha, hb := cid.Sum([]byte("a")), cid.Sum([]byte("b"))
	build := func(links ...*Link) *ProtoNode {
		n := NodeWithData(unixfs.FilePBData(nil, 0))
		for _, l := range links {
			require.NoError(t, n.AddRawLink(l.Name, l))
		}
		_, err := n.Commit()
		require.NoError(t, err)
		return n
	}

	base := build(&Link{Name: "a", Hash: ha, Size: 10}, &Link{Name: "b", Hash: hb, Size: 20})
	same := build(&Link{Name: "a", Hash: ha, Size: 10}, &Link{Name: "b", Hash: hb, Size: 20})
	assert.Equal(t, base.Hash(), same.Hash())

	cases := map[string]*ProtoNode{
		"order": build(&Link{Name: "b", Hash: hb, Size: 20}, &Link{Name: "a", Hash: ha, Size: 10}),
		"name":  build(&Link{Name: "A", Hash: ha, Size: 10}, &Link{Name: "b", Hash: hb, Size: 20}),
		"size":  build(&Link{Name: "a", Hash: ha, Size: 11}, &Link{Name: "b", Hash: hb, Size: 20}),
		"hash":  build(&Link{Name: "a", Hash: hb, Size: 10}, &Link{Name: "b", Hash: hb, Size: 20}),
		"count": build(&Link{Name: "a", Hash: ha, Size: 10}),
	}
	for name, n := range cases {
		assert.NotEqual(t, base.Hash(), n.Hash(), name)
	}
}

func TestCommittedNodeIsolated(t *testing.T) {
	n := NodeWithData([]byte("data"))
	require.NoError(t, n.AddRawLink("a", &Link{Hash: cid.Sum([]byte("a")), Size: 1}))
	h, err := n.Commit()
	require.NoError(t, err)
	enc, err := n.Marshal()
	require.NoError(t, err)
	enc = append([]byte(nil), enc...)

	n.Links()[0].Name = "changed"
	n.Links()[0].Hash[0] ^= 0xff
	lnk, err := n.GetNodeLink("a")
	require.NoError(t, err)
	lnk.Size = 99
	lnk.Hash[0] ^= 0xff
	n.Hash()[0] ^= 0xff
	h[0] ^= 0xff

	lnk, err = n.GetNodeLink("a")
	require.NoError(t, err)
	assert.Equal(t, cid.Sum([]byte("a")), lnk.Hash)
	assert.Equal(t, uint64(1), lnk.Size)
	after, err := n.Marshal()
	require.NoError(t, err)
	assert.Equal(t, enc, after)
	assert.Equal(t, cid.Sum(enc), n.Hash())
}
