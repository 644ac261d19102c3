package vm

import (
	"fmt"
	"strings"

	"github.com/shadowCow/iodicium-go/lang/bytecode"
)

// formatStack renders the value stack the way the original VM's debug
// dump did, recovered from original_source/src/vm/vm.cpp's printStack.
func formatStack(stack []string) string {
	var b strings.Builder
	b.WriteString("          [ ")
	for _, v := range stack {
		b.WriteString(v)
		b.WriteString(" ")
	}
	b.WriteString("]")
	return b.String()
}

// disassembleInstruction renders the opcode at ip, with its operand
// bytes where the opcode has any. Recovered from
// original_source/src/vm/vm.cpp's disassembleInstruction, which only
// printed the mnemonic; operand printing is an addition useful for the
// `-d` debug trace this VM now emits through the logger instead of raw
// stdout.
func disassembleInstruction(chunk *bytecode.Chunk, ip int) string {
	if ip < 0 || ip >= len(chunk.Code) {
		return fmt.Sprintf("%04d <out of range>", ip)
	}
	op := bytecode.Op(chunk.Code[ip])
	switch op {
	case bytecode.OpCall:
		if ip+3 < len(chunk.Code) {
			argc := chunk.Code[ip+1]
			addr := uint16(chunk.Code[ip+2])<<8 | uint16(chunk.Code[ip+3])
			return fmt.Sprintf("%04d %s argc=%d addr=%d", ip, op, argc, addr)
		}
	case bytecode.OpJump:
		if ip+2 < len(chunk.Code) {
			addr := uint16(chunk.Code[ip+1])<<8 | uint16(chunk.Code[ip+2])
			return fmt.Sprintf("%04d %s addr=%d", ip, op, addr)
		}
	case bytecode.OpConst, bytecode.OpDefineGlobal, bytecode.OpGetGlobal, bytecode.OpSetGlobal, bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpConvert:
		if ip+1 < len(chunk.Code) {
			return fmt.Sprintf("%04d %s %d", ip, op, chunk.Code[ip+1])
		}
	}
	return fmt.Sprintf("%04d %s", ip, op)
}
