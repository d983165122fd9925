package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetrievalErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("fetch: %w", &RetrievalError{Err: ErrNotFound, Hash: make([]byte, 32)})
	require.True(t, errors.Is(err, ErrNotFound))

	var re *RetrievalError
	require.True(t, errors.As(err, &re))
	require.Contains(t, re.Error(), "could not retrieve Qm")
}

func TestMalformedf(t *testing.T) {
	err := Malformedf("field %d", 3)
	require.ErrorIs(t, err, ErrMalformed)
	require.Contains(t, err.Error(), "field 3")
}
