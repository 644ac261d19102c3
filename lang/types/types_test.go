package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDataType(t *testing.T) {
	assert.Equal(t, String, ParseDataType("String"))
	assert.Equal(t, Int, ParseDataType("Int"))
	assert.Equal(t, Double, ParseDataType("Double"))
	assert.Equal(t, Bool, ParseDataType("Bool"))
	assert.Equal(t, Function, ParseDataType("Function"))
	assert.Equal(t, Nil, ParseDataType("Nil"))
	assert.Equal(t, Unknown, ParseDataType("Bogus"))
}

func TestDataTypeString(t *testing.T) {
	assert.Equal(t, "Int", Int.String())
	assert.Equal(t, "DataType(99)", DataType(99).String())
}

func TestNewSymbolTableSeedsBuiltinsWithArity(t *testing.T) {
	table := NewSymbolTable()

	writeOut, ok := table.Find("writeOut")
	assert.True(t, ok)
	assert.Equal(t, Function, writeOut.Type)
	assert.Equal(t, 1, writeOut.Arity)

	flush, ok := table.Find("flush")
	assert.True(t, ok)
	assert.Equal(t, 0, flush.Arity)

	convert, ok := table.Find("convert")
	assert.True(t, ok)
	assert.Equal(t, 2, convert.Arity)
}

func TestDefineRejectsRedeclarationInSameScope(t *testing.T) {
	table := NewSymbolTable()
	assert.True(t, table.Define("x", Symbol{Type: Int}))
	assert.False(t, table.Define("x", Symbol{Type: String}))
}

func TestBeginScopeShadowsOuterDefinition(t *testing.T) {
	table := NewSymbolTable()
	table.Define("x", Symbol{Type: Int})

	table.BeginScope()
	assert.True(t, table.Define("x", Symbol{Type: String}))

	sym, ok := table.Find("x")
	assert.True(t, ok)
	assert.Equal(t, String, sym.Type)

	table.EndScope()
	sym, ok = table.Find("x")
	assert.True(t, ok)
	assert.Equal(t, Int, sym.Type)
}

func TestFindWalksOuterScopes(t *testing.T) {
	table := NewSymbolTable()
	table.Define("g", Symbol{Type: Bool})
	table.BeginScope()
	defer table.EndScope()

	sym, ok := table.Find("g")
	assert.True(t, ok)
	assert.Equal(t, Bool, sym.Type)
}

func TestFindMissingReturnsFalse(t *testing.T) {
	table := NewSymbolTable()
	_, ok := table.Find("nope")
	assert.False(t, ok)
}

func TestDepthTracksScopeStack(t *testing.T) {
	table := NewSymbolTable()
	assert.Equal(t, 1, table.Depth())
	table.BeginScope()
	assert.Equal(t, 2, table.Depth())
	table.EndScope()
	assert.Equal(t, 1, table.Depth())
}

func TestGlobalSymbolsReturnsOuterScope(t *testing.T) {
	table := NewSymbolTable()
	table.Define("g", Symbol{Type: Int, Exported: true})
	table.BeginScope()
	table.Define("local", Symbol{Type: Int})
	defer table.EndScope()

	global := table.GlobalSymbols()
	_, hasLocal := global["local"]
	assert.False(t, hasLocal)
	sym, hasGlobal := global["g"]
	assert.True(t, hasGlobal)
	assert.True(t, sym.Exported)
}
