// Package bytecode implements the compiled object representation
// (Chunk) and the generator that lowers a decorated AST into one.
//
// Grounded on original_source/include/compiler/codegen.h and
// src/compiler/codegen.cpp.
package bytecode

import "fmt"

// maxConstants is the hard cap on a chunk's constant pool: indexes must
// fit a single byte operand.
const maxConstants = 256

// Chunk is a compiled object: a code byte sequence, an interned constant
// pool of UTF-8 strings, and — for libraries only — an export table
// mapping exported function names to their entry instruction pointer.
type Chunk struct {
	Code      []byte
	Constants []string
	// Exports is non-nil only for library chunks.
	Exports map[string]int
	// Imports is the ordered list of import paths, indexed by module
	// ordinal. The generator leaves it empty (at compile time the list is
	// lang/semantics.Analyzer.Imports()); lang/runner fills it from a
	// loaded executable's import table.
	Imports []string
}

// NewChunk returns an empty executable chunk.
func NewChunk() *Chunk {
	return &Chunk{}
}

// AddConstant interns value into the constant pool, returning its index.
// An existing equal value returns its existing index rather than adding
// a duplicate entry.
func (c *Chunk) AddConstant(value string) (byte, error) {
	for i, existing := range c.Constants {
		if existing == value {
			return byte(i), nil
		}
	}
	if len(c.Constants) >= maxConstants {
		return 0, fmt.Errorf("too many constants in one chunk (max %d)", maxConstants)
	}
	c.Constants = append(c.Constants, value)
	return byte(len(c.Constants) - 1), nil
}
