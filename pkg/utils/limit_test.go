package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAllLimit(t *testing.T) {
	b, err := ReadAllLimit(strings.NewReader("hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	b, err = ReadAllLimit(strings.NewReader("hello world"), 5)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
	assert.Equal(t, "hello", string(b))
}
