// Package blocksutil provides utility functions for working
// with Blocks.
package blocksutil

import (
	"fmt"

	"github.com/ipfs/go-ipfs-lite/blocks"
)

// NewBlockGenerator returns an object capable of
// producing blocks.
func NewBlockGenerator() BlockGenerator {
	return BlockGenerator{}
}

// BlockGenerator generates Blocks whose data is a sequence number.
type BlockGenerator struct {
	seq int
}

// Next generates a new Block with distinct content.
func (bg *BlockGenerator) Next() *blocks.Block {
	bg.seq++
	return blocks.NewBlock([]byte(fmt.Sprintf("block %d", bg.seq)))
}

// Blocks generates as many Blocks as specified by n.
func (bg *BlockGenerator) Blocks(n int) []*blocks.Block {
	blks := make([]*blocks.Block, 0, n)
	for i := 0; i < n; i++ {
		blks = append(blks, bg.Next())
	}
	return blks
}
