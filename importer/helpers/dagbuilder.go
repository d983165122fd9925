package helpers

import (
	"context"
	"io"

	dag "github.com/ipfs/go-ipfs-lite/merkledag"

	chunker "github.com/ipfs/boxo/chunker"
)

// DagBuilderHelper wraps together a bunch of objects needed to
// efficiently create unixfs dag trees
type DagBuilderHelper struct {
	dserv    dag.NodeAdder
	spl      chunker.Splitter
	recvdErr error
	nextData []byte // the next item to return.
	eof      bool
	written  uint64
}

// NewDagBuilderHelper reads chunks from spl and stores nodes through dserv.
func NewDagBuilderHelper(dserv dag.NodeAdder, spl chunker.Splitter) *DagBuilderHelper {
	return &DagBuilderHelper{dserv: dserv, spl: spl}
}

// prepareNext consumes the next item from the splitter and puts it
// in the nextData field. it is idempotent-- if nextData is full
// it will do nothing.
func (db *DagBuilderHelper) prepareNext() {
	// if we already have data waiting to be consumed, we're ready
	if db.nextData != nil || db.recvdErr != nil || db.eof {
		return
	}

	db.nextData, db.recvdErr = db.spl.NextBytes()
	if db.recvdErr == io.EOF {
		db.recvdErr = nil
		db.eof = true
	}
}

// Done returns whether or not we're done consuming the incoming data.
// Called after Next, it tells whether the chunk just returned was the
// last one.
func (db *DagBuilderHelper) Done() bool {
	// ensure we have an accurate perspective on data
	// as `done` this may be called before `next`.
	db.prepareNext() // idempotent
	if db.recvdErr != nil {
		return false
	}
	return db.nextData == nil
}

// Next returns the next chunk of data to be inserted into the dag
// if it returns nil, that signifies that the stream is at an end, and
// that the current building operation should finish
func (db *DagBuilderHelper) Next() ([]byte, error) {
	db.prepareNext() // idempotent
	d := db.nextData
	db.nextData = nil // signal we've consumed it
	if db.recvdErr != nil {
		return nil, db.recvdErr
	}
	return d, nil
}

// Add stores nd and counts the bytes written.
func (db *DagBuilderHelper) Add(ctx context.Context, nd *dag.ProtoNode) (uint64, error) {
	n, err := db.dserv.Add(ctx, nd)
	if err != nil {
		return 0, err
	}
	db.written += n
	return n, nil
}

// Written returns the total of encoded bytes stored so far.
func (db *DagBuilderHelper) Written() uint64 {
	return db.written
}
