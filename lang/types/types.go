// Package types holds the data-model pieces shared by lang/semantics and
// lang/bytecode: the DataType tag, Symbol records, and the lexically
// scoped SymbolTable.
//
// Grounded on original_source/src/compiler/semantics.cpp's DataType enum
// and dataTypeToString table; the scope-stack SymbolTable (rather than
// the original's single flat map) is the documented spec.md redesign.
package types

import "fmt"

// DataType tags the static type of a symbol or expression.
type DataType int

const (
	Unknown DataType = iota
	Nil
	Bool
	Int
	Double
	String
	Function
)

var dataTypeNames = map[DataType]string{
	Unknown:  "Unknown",
	Nil:      "Nil",
	Bool:     "Bool",
	Int:      "Int",
	Double:   "Double",
	String:   "String",
	Function: "Function",
}

func (d DataType) String() string {
	if s, ok := dataTypeNames[d]; ok {
		return s
	}
	return fmt.Sprintf("DataType(%d)", int(d))
}

// ParseDataType maps a type-annotation identifier to its DataType, or
// Unknown if the name isn't one of the built-in type names.
func ParseDataType(name string) DataType {
	switch name {
	case "String":
		return String
	case "Int":
		return Int
	case "Double":
		return Double
	case "Bool":
		return Bool
	case "Function":
		return Function
	case "Nil":
		return Nil
	default:
		return Unknown
	}
}

// Symbol is one entry in the symbol table.
type Symbol struct {
	Type DataType
	// ReturnType is meaningful only when Type == Function; Nil if the
	// source omitted a return type.
	ReturnType DataType
	// Arity is meaningful only when Type == Function: the declared
	// parameter count, used to enforce call-site arity (SPEC_FULL.md
	// Open Question #2 — spec.md leaves this unenforced, we close it).
	// -1 means unknown/unenforceable, the case for a function imported
	// from a .iodl binary, whose export table carries no signature.
	Arity int
	// ParamTypes holds each parameter's DataType, in order, for
	// functions. It is recorded but not consulted by any check; argument
	// types are not compared against it.
	ParamTypes []DataType

	Mutable  bool
	Exported bool
	External bool
	// ModuleIndex is the 0-based ordinal of the import that provided
	// this symbol, or -1 for locally defined symbols.
	ModuleIndex int
}

// Scope is one lexical scope: a flat map of name to Symbol.
type Scope map[string]Symbol

// SymbolTable is a stack of scopes. The outermost (index 0) scope is the
// module/global scope.
type SymbolTable struct {
	scopes []Scope
}

// NewSymbolTable creates a table with a single global scope, seeded with
// the builtin function symbols.
func NewSymbolTable() *SymbolTable {
	t := &SymbolTable{}
	t.scopes = append(t.scopes, Scope{})
	builtinArity := map[string]int{"writeOut": 1, "writeErr": 1, "flush": 0, "convert": 2}
	for _, name := range []string{"writeOut", "writeErr", "flush", "convert"} {
		t.scopes[0][name] = Symbol{Type: Function, Arity: builtinArity[name], ModuleIndex: -1}
	}
	return t
}

// BeginScope pushes a fresh empty scope.
func (t *SymbolTable) BeginScope() {
	t.scopes = append(t.scopes, Scope{})
}

// EndScope pops the innermost scope.
func (t *SymbolTable) EndScope() {
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Depth returns how many scopes are currently open (1 when only the
// global scope is present).
func (t *SymbolTable) Depth() int { return len(t.scopes) }

// Define adds a symbol to the innermost scope. Returns false if a symbol
// with that name is already present in the innermost scope.
func (t *SymbolTable) Define(name string, sym Symbol) bool {
	innermost := t.scopes[len(t.scopes)-1]
	if _, exists := innermost[name]; exists {
		return false
	}
	innermost[name] = sym
	return true
}

// Find looks up name from the innermost scope outward, returning the
// symbol and whether it was found.
func (t *SymbolTable) Find(name string) (Symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i][name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// GlobalSymbols returns the symbols defined directly in the outermost
// (module) scope — used by lang/runner to collect exported functions when
// writing a library.
func (t *SymbolTable) GlobalSymbols() Scope {
	return t.scopes[0]
}
