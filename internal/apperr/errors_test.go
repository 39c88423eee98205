package apperr

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderParseError_IsSentinel(t *testing.T) {
	err := error(&HeaderParseError{Line: "Hello world"})
	assert.ErrorIs(t, err, ErrHeaderParse)
	assert.Contains(t, err.Error(), "Hello world")
}

func TestIOError_UnwrapsAndCarriesPath(t *testing.T) {
	err := NewIOError("write", "songs/a.lyrics", fs.ErrPermission)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "songs/a.lyrics", ioErr.Path)
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestNewIOError_Nil(t *testing.T) {
	assert.NoError(t, NewIOError("read", "x", nil))
}
