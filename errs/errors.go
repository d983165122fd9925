// Package errs holds the error kinds shared by the codecs and the store.
package errs

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58/base58"
	mh "github.com/multiformats/go-multihash"
)

var (
	// ErrMalformed is returned for truncated or otherwise invalid encodings.
	ErrMalformed = errors.New("malformed input")

	// ErrBufferTooSmall is returned when an output buffer cannot hold an encoding.
	ErrBufferTooSmall = errors.New("buffer too small")

	ErrNotFound = errors.New("not found")
)

// Malformedf returns an error wrapping ErrMalformed.
func Malformedf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, a...))
}

// RetrievalError is an error indicating that a hash could not be
// retrieved for some reason
type RetrievalError struct {
	Err  error
	Hash []byte
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("could not retrieve %s: %s", displayHash(e.Hash), e.Err.Error())
}

func displayHash(h []byte) string {
	enc, err := mh.Encode(h, mh.SHA2_256)
	if err != nil {
		return fmt.Sprintf("%x", h)
	}
	return base58.Encode(enc)
}
