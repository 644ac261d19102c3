package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shadowCow/iodicium-go/lang/bytecode"
)

func TestFormatStackRendersValues(t *testing.T) {
	assert.Equal(t, "          [ a b ]", formatStack([]string{"a", "b"}))
	assert.Equal(t, "          [ ]", formatStack(nil))
}

func TestDisassembleInstructionWithOperand(t *testing.T) {
	chunk := &bytecode.Chunk{Code: []byte{byte(bytecode.OpConst), 5}}
	assert.Equal(t, "0000 CONST 5", disassembleInstruction(chunk, 0))
}

func TestDisassembleInstructionCall(t *testing.T) {
	chunk := &bytecode.Chunk{Code: []byte{byte(bytecode.OpCall), 2, 0x01, 0x00}}
	assert.Equal(t, "0000 CALL argc=2 addr=256", disassembleInstruction(chunk, 0))
}

func TestDisassembleInstructionJump(t *testing.T) {
	chunk := &bytecode.Chunk{Code: []byte{byte(bytecode.OpJump), 0x00, 0x05}}
	assert.Equal(t, "0000 JUMP addr=5", disassembleInstruction(chunk, 0))
}

func TestDisassembleInstructionBareMnemonic(t *testing.T) {
	chunk := &bytecode.Chunk{Code: []byte{byte(bytecode.OpReturn)}}
	assert.Equal(t, "0000 RETURN", disassembleInstruction(chunk, 0))
}

func TestDisassembleInstructionOutOfRange(t *testing.T) {
	chunk := &bytecode.Chunk{Code: []byte{byte(bytecode.OpReturn)}}
	assert.Equal(t, "0005 <out of range>", disassembleInstruction(chunk, 5))
}
