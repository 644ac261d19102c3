// Package vm implements the Iodicium stack virtual machine: call
// frames, a value stack of UTF-8 strings, a globals map, and opcode
// dispatch.
//
// Grounded on original_source/src/vm/vm.cpp, with the arithmetic
// opcodes spec.md documents (SUB/MUL/DIV are numeric-only) implemented
// in full — the original source's dispatch loop never reaches them
// (their cases are absent, an omission in that revision), so spec.md's
// complete instruction table is followed rather than the gap.
package vm

import (
	"fmt"
	"io"
	"strconv"

	"github.com/shadowCow/iodicium-go/lang/bytecode"
	"github.com/shadowCow/iodicium-go/lang/iodlog"
	"github.com/shadowCow/iodicium-go/lang/types"
)

// Frame is one activation record: the chunk it executes in, its
// instruction pointer, and the stack index its locals are based at.
type Frame struct {
	Chunk     *bytecode.Chunk
	IP        int
	StackBase int
}

// VM executes a compiled Chunk to completion or to a RuntimeError.
// State does not persist across Run calls — every call starts clean.
type VM struct {
	logger *iodlog.Logger
	stdout io.Writer
	stderr io.Writer

	// memoryLimit is an advisory hint only; nothing in this
	// implementation enforces it, matching the original VM's unused
	// m_memory_limit field (spec.md §4.5: "configurable memory-limit
	// hint (advisory in this design)").
	memoryLimit uint64

	frames  []Frame
	stack   []string
	globals map[string]string
}

// New creates a VM writing program output to stdout/stderr.
// memoryLimit is recorded but never enforced.
func New(logger *iodlog.Logger, stdout, stderr io.Writer, memoryLimit uint64) *VM {
	if logger == nil {
		logger = iodlog.Discard()
	}
	return &VM{logger: logger, stdout: stdout, stderr: stderr, memoryLimit: memoryLimit}
}

// Run executes chunk as the main program, starting a fresh frame at
// ip=0, stack_base=0, with empty stack and globals.
func (m *VM) Run(chunk *bytecode.Chunk) error {
	m.frames = []Frame{{Chunk: chunk, IP: 0, StackBase: 0}}
	m.stack = nil
	m.globals = map[string]string{}

	for {
		frame := &m.frames[len(m.frames)-1]

		if m.logger.Enabled(iodlog.Debug) {
			m.logger.Debugf("%s", formatStack(m.stack))
			m.logger.Debugf("%s", disassembleInstruction(frame.Chunk, frame.IP))
		}

		op, err := m.fetch(frame)
		if err != nil {
			return err
		}

		switch bytecode.Op(op) {
		case bytecode.OpReturn:
			if err := m.execReturn(); err != nil {
				return err
			}
			if len(m.frames) == 0 {
				return nil
			}
		case bytecode.OpCall:
			if err := m.execCall(frame); err != nil {
				return err
			}
		case bytecode.OpConst:
			idx, err := m.fetch(frame)
			if err != nil {
				return err
			}
			val, err := m.constant(frame.Chunk, idx)
			if err != nil {
				return err
			}
			m.push(val)
		case bytecode.OpWriteOut:
			val, err := m.pop()
			if err != nil {
				return err
			}
			fmt.Fprint(m.stdout, val)
		case bytecode.OpWriteErr:
			val, err := m.pop()
			if err != nil {
				return err
			}
			fmt.Fprint(m.stderr, val)
		case bytecode.OpFlush:
			flush(m.stdout)
			flush(m.stderr)
		case bytecode.OpAdd:
			if err := m.execAdd(); err != nil {
				return err
			}
		case bytecode.OpSub:
			if err := m.execArith(func(a, b float64) float64 { return a - b }, "-"); err != nil {
				return err
			}
		case bytecode.OpMul:
			if err := m.execArith(func(a, b float64) float64 { return a * b }, "*"); err != nil {
				return err
			}
		case bytecode.OpDiv:
			if err := m.execArith(func(a, b float64) float64 { return a / b }, "/"); err != nil {
				return err
			}
		case bytecode.OpDefineGlobal:
			if err := m.execDefineGlobal(frame); err != nil {
				return err
			}
		case bytecode.OpGetGlobal:
			if err := m.execGetGlobal(frame); err != nil {
				return err
			}
		case bytecode.OpSetGlobal:
			if err := m.execSetGlobal(frame); err != nil {
				return err
			}
		case bytecode.OpGetLocal:
			if err := m.execGetLocal(frame); err != nil {
				return err
			}
		case bytecode.OpSetLocal:
			if err := m.execSetLocal(frame); err != nil {
				return err
			}
		case bytecode.OpConvert:
			if err := m.execConvert(frame); err != nil {
				return err
			}
		case bytecode.OpPop:
			if _, err := m.pop(); err != nil {
				return err
			}
		case bytecode.OpJump:
			address, err := m.fetchShort(frame)
			if err != nil {
				return err
			}
			frame.IP = int(address)
		default:
			return &RuntimeError{Message: fmt.Sprintf("unknown opcode: %d", op)}
		}
	}
}

func (m *VM) execReturn() error {
	returnValue, err := m.pop()
	if err != nil {
		return err
	}
	m.frames = m.frames[:len(m.frames)-1]
	if len(m.frames) == 0 {
		return nil
	}
	top := &m.frames[len(m.frames)-1]
	m.stack = m.stack[:top.StackBase]
	m.push(returnValue)
	return nil
}

func (m *VM) execCall(frame *Frame) error {
	argCount, err := m.fetch(frame)
	if err != nil {
		return err
	}
	address, err := m.fetchShort(frame)
	if err != nil {
		return err
	}
	if len(m.stack) < int(argCount) {
		return &RuntimeError{Message: "stack underflow on call"}
	}
	m.frames = append(m.frames, Frame{
		Chunk:     frame.Chunk,
		IP:        int(address),
		StackBase: len(m.stack) - int(argCount),
	})
	return nil
}

func (m *VM) execAdd() error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		m.push(formatDouble(fa + fb))
	} else {
		m.push(a + b)
	}
	return nil
}

func (m *VM) execArith(op func(a, b float64) float64, symbol string) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return &RuntimeError{Message: fmt.Sprintf("operator %q requires numeric operands, got %q and %q", symbol, a, b)}
	}
	m.push(formatDouble(op(fa, fb)))
	return nil
}

func (m *VM) execDefineGlobal(frame *Frame) error {
	idx, err := m.fetch(frame)
	if err != nil {
		return err
	}
	name, err := m.constant(frame.Chunk, idx)
	if err != nil {
		return err
	}
	val, err := m.pop()
	if err != nil {
		return err
	}
	m.globals[name] = val
	return nil
}

func (m *VM) execGetGlobal(frame *Frame) error {
	idx, err := m.fetch(frame)
	if err != nil {
		return err
	}
	name, err := m.constant(frame.Chunk, idx)
	if err != nil {
		return err
	}
	val, ok := m.globals[name]
	if !ok {
		return &RuntimeError{Message: fmt.Sprintf("undefined global %q", name)}
	}
	m.push(val)
	return nil
}

func (m *VM) execSetGlobal(frame *Frame) error {
	idx, err := m.fetch(frame)
	if err != nil {
		return err
	}
	name, err := m.constant(frame.Chunk, idx)
	if err != nil {
		return err
	}
	val, err := m.peek()
	if err != nil {
		return err
	}
	m.globals[name] = val
	return nil
}

func (m *VM) execGetLocal(frame *Frame) error {
	slot, err := m.fetch(frame)
	if err != nil {
		return err
	}
	index := frame.StackBase + int(slot)
	if index < 0 || index >= len(m.stack) {
		return &RuntimeError{Message: "local slot out of range"}
	}
	m.push(m.stack[index])
	return nil
}

func (m *VM) execSetLocal(frame *Frame) error {
	slot, err := m.fetch(frame)
	if err != nil {
		return err
	}
	val, err := m.peek()
	if err != nil {
		return err
	}
	index := frame.StackBase + int(slot)
	if index < 0 || index >= len(m.stack) {
		return &RuntimeError{Message: "local slot out of range"}
	}
	m.stack[index] = val
	return nil
}

func (m *VM) execConvert(frame *Frame) error {
	targetByte, err := m.fetch(frame)
	if err != nil {
		return err
	}
	value, err := m.pop()
	if err != nil {
		return err
	}
	switch types.DataType(targetByte) {
	case types.Int:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &RuntimeError{Message: fmt.Sprintf("cannot convert %q to the requested numeric type", value)}
		}
		m.push(strconv.FormatInt(int64(f), 10))
	case types.Double:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &RuntimeError{Message: fmt.Sprintf("cannot convert %q to the requested numeric type", value)}
		}
		m.push(formatDouble(f))
	case types.String:
		m.push(value)
	default:
		return &RuntimeError{Message: "unsupported conversion type requested in VM"}
	}
	return nil
}

// ---- stack / fetch helpers ----

func (m *VM) fetch(frame *Frame) (byte, error) {
	if frame.IP >= len(frame.Chunk.Code) {
		return 0, &RuntimeError{Message: "instruction pointer ran past end of code"}
	}
	b := frame.Chunk.Code[frame.IP]
	frame.IP++
	return b, nil
}

func (m *VM) fetchShort(frame *Frame) (uint16, error) {
	hi, err := m.fetch(frame)
	if err != nil {
		return 0, err
	}
	lo, err := m.fetch(frame)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (m *VM) constant(chunk *bytecode.Chunk, idx byte) (string, error) {
	if int(idx) >= len(chunk.Constants) {
		return "", &RuntimeError{Message: "constant index out of range"}
	}
	return chunk.Constants[idx], nil
}

func (m *VM) push(value string) { m.stack = append(m.stack, value) }

func (m *VM) pop() (string, error) {
	if len(m.stack) == 0 {
		return "", &RuntimeError{Message: "VM stack underflow"}
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *VM) peek() (string, error) {
	if len(m.stack) == 0 {
		return "", &RuntimeError{Message: "VM stack underflow"}
	}
	return m.stack[len(m.stack)-1], nil
}

// formatDouble canonicalizes a numeric result as fixed-point with 6
// fractional digits, matching the original VM's std::to_string(double)
// (scenario 4 of the testable end-to-end properties).
func formatDouble(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

type flusher interface{ Flush() error }

func flush(w io.Writer) {
	if f, ok := w.(flusher); ok {
		_ = f.Flush()
	}
}
