package bytecode

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddConstantInternsEqualValues(t *testing.T) {
	chunk := NewChunk()
	i1, err := chunk.AddConstant("hi")
	require.NoError(t, err)
	i2, err := chunk.AddConstant("hi")
	require.NoError(t, err)
	assert.Equal(t, i1, i2)
	assert.Len(t, chunk.Constants, 1)
}

func TestAddConstantRejects257th(t *testing.T) {
	chunk := NewChunk()
	for i := 0; i < 256; i++ {
		_, err := chunk.AddConstant("const-" + strconv.Itoa(i))
		require.NoError(t, err)
	}
	_, err := chunk.AddConstant("one-too-many")
	require.Error(t, err)
}
