package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpString(t *testing.T) {
	assert.Equal(t, "ADD", OpAdd.String())
	assert.Equal(t, "POP", OpPop.String())
	assert.Equal(t, "UNKNOWN", Op(255).String())
}
