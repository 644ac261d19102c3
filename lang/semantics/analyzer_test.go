package semantics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowCow/iodicium-go/lang/lexer"
	"github.com/shadowCow/iodicium-go/lang/object"
	"github.com/shadowCow/iodicium-go/lang/parser"
)

func analyze(t *testing.T, basePath, source string) error {
	t.Helper()
	tokens, err := lexer.New(source, nil).Tokenize()
	require.NoError(t, err)
	statements, err := parser.New(tokens, nil).Parse()
	require.NoError(t, err)
	return New(nil, basePath).Analyze(statements)
}

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	semErr, ok := err.(*Error)
	require.True(t, ok, "expected *semantics.Error, got %T", err)
	return semErr.Kind
}

func TestAnalyzeUndefinedSymbol(t *testing.T) {
	err := analyze(t, ".", `writeOut(missing)`)
	require.Error(t, err)
	assert.Equal(t, ErrUndefinedSymbol, kindOf(t, err))
}

func TestAnalyzeRedeclarationInSameScope(t *testing.T) {
	err := analyze(t, ".", `val x: Int = 1
val x: Int = 2
`)
	require.Error(t, err)
	assert.Equal(t, ErrRedeclaration, kindOf(t, err))
}

func TestAnalyzeTypeMismatchInInitializer(t *testing.T) {
	err := analyze(t, ".", `val x: Int = "oops"`)
	require.Error(t, err)
	assert.Equal(t, ErrTypeMismatch, kindOf(t, err))
}

func TestAnalyzeImmutableReassignmentPointsAtEqualToken(t *testing.T) {
	err := analyze(t, ".", `val x: Int = 1
x = 2
`)
	require.Error(t, err)
	semErr := err.(*Error)
	assert.Equal(t, ErrImmutableReassignment, semErr.Kind)
	assert.Equal(t, 2, semErr.Line)
}

func TestAnalyzeMutableReassignmentIsAllowed(t *testing.T) {
	err := analyze(t, ".", `var x: Int = 1
x = 2
`)
	require.NoError(t, err)
}

func TestAnalyzeAssignmentTypeMismatch(t *testing.T) {
	err := analyze(t, ".", `var x: Int = 1
x = "oops"
`)
	require.Error(t, err)
	assert.Equal(t, ErrTypeMismatch, kindOf(t, err))
}

func TestAnalyzeUnknownTypeName(t *testing.T) {
	err := analyze(t, ".", `val x: Bogus = 1`)
	require.Error(t, err)
	assert.Equal(t, ErrUnknownType, kindOf(t, err))
}

func TestAnalyzeUntypedParameter(t *testing.T) {
	err := analyze(t, ".", `def f(x) { return x }`)
	require.Error(t, err)
	assert.Equal(t, ErrUntypedParameter, kindOf(t, err))
}

func TestAnalyzeImportFileNotFound(t *testing.T) {
	err := analyze(t, t.TempDir(), `#import "missing"`)
	require.Error(t, err)
	assert.Equal(t, ErrFileNotFound, kindOf(t, err))
}

func TestAnalyzeArityMismatchOnCall(t *testing.T) {
	err := analyze(t, ".", `def f(a: Int, b: Int): Int { return a }
f(1)
`)
	require.Error(t, err)
	assert.Equal(t, ErrArityMismatch, kindOf(t, err))
}

func TestAnalyzeCorrectArityIsAccepted(t *testing.T) {
	err := analyze(t, ".", `def f(a: Int, b: Int): Int { return a }
f(1, 2)
`)
	require.NoError(t, err)
}

func TestAnalyzeForwardReferenceToLaterFunctionIsAllowed(t *testing.T) {
	err := analyze(t, ".", `def main() { f() }
def f(): String { return "ok" }
`)
	require.NoError(t, err)
}

func TestAnalyzeConvertCallRequiresTwoArguments(t *testing.T) {
	err := analyze(t, ".", `writeOut(convert(1))`)
	require.Error(t, err)
	assert.Equal(t, ErrArityMismatch, kindOf(t, err))
}

func TestAnalyzeConvertCallWithUnknownTargetType(t *testing.T) {
	err := analyze(t, ".", `writeOut(convert(1, Bogus))`)
	require.Error(t, err)
	assert.Equal(t, ErrUnknownType, kindOf(t, err))
}

func TestAnalyzeCallToNonFunctionIsInvalidCallee(t *testing.T) {
	err := analyze(t, ".", `val x: Int = 1
x()
`)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidCallee, kindOf(t, err))
}

func TestAnalyzeImportOfSourceFileOnlyExposesExportedSymbols(t *testing.T) {
	dir := t.TempDir()
	lib := `def helper(): String { return "hi" }
@export
def greet(): String { return helper() }
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.iodc"), []byte(lib), 0644))

	err := analyze(t, dir, `#import "lib"
writeOut(greet())
`)
	require.NoError(t, err)

	err = analyze(t, dir, `#import "lib"
writeOut(helper())
`)
	require.Error(t, err)
	assert.Equal(t, ErrUndefinedSymbol, kindOf(t, err))
}

func TestAnalyzeImportCycleTerminates(t *testing.T) {
	dir := t.TempDir()
	a := `#import "b"
@export
def fromA(): String { return "a" }
`
	b := `#import "a"
@export
def fromB(): String { return "b" }
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.iodc"), []byte(a), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.iodc"), []byte(b), 0644))

	err := analyze(t, dir, `#import "a"
writeOut(fromA())
`)
	require.NoError(t, err)
}

func TestAnalyzeImportOfLibrarySkipsArityEnforcement(t *testing.T) {
	dir := t.TempDir()
	lib := &object.Library{
		Exports:   map[string]uint64{"greet": 0},
		Constants: []string{""},
		Code:      []byte{},
	}
	require.NoError(t, object.WriteLibrary(filepath.Join(dir, "greet.iodl"), lib))

	// greet's real signature takes one argument, but the .iodl export
	// table carries no parameter info, so any arity is accepted.
	err := analyze(t, dir, `#import "greet.iodl"
writeOut(greet(1, 2, 3))
`)
	require.NoError(t, err)
}
