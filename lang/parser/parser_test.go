package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowCow/iodicium-go/lang/ast"
	"github.com/shadowCow/iodicium-go/lang/lexer"
)

func parse(t *testing.T, source string) []ast.Statement {
	t.Helper()
	tokens, err := lexer.New(source, nil).Tokenize()
	require.NoError(t, err)
	statements, err := New(tokens, nil).Parse()
	require.NoError(t, err)
	return statements
}

func TestParseVarDeclMutableFlag(t *testing.T) {
	statements := parse(t, `val x: Int = 1
var y = 2
`)
	require.Len(t, statements, 2)

	val := statements[0].(*ast.VarDecl)
	assert.False(t, val.Mutable)
	assert.Equal(t, "x", val.Name.Lexeme)
	require.NotNil(t, val.Type)

	v := statements[1].(*ast.VarDecl)
	assert.True(t, v.Mutable)
	assert.Nil(t, v.Type)
}

func TestParseFunctionDefAndDecl(t *testing.T) {
	statements := parse(t, `def greet(name: String): String { return name }
def undeclared(x: Int): Int
`)
	require.Len(t, statements, 2)

	def := statements[0].(*ast.FunctionDef)
	assert.Equal(t, "greet", def.Name.Lexeme)
	require.Len(t, def.Params, 1)
	assert.Equal(t, "name", def.Params[0].Name.Lexeme)
	require.Len(t, def.Body, 1)

	decl := statements[1].(*ast.FunctionDecl)
	assert.Equal(t, "undeclared", decl.Name.Lexeme)
}

func TestParseExportAnnotation(t *testing.T) {
	statements := parse(t, `@export def f(): String { return "x" }`)
	require.Len(t, statements, 1)
	def := statements[0].(*ast.FunctionDef)
	assert.True(t, def.Exported)
}

func TestParseExportAllAppliesToEverySubsequentFunction(t *testing.T) {
	statements := parse(t, `@exportall
def a(): String { return "a" }
def b(): String { return "b" }
`)
	require.Len(t, statements, 2)
	assert.True(t, statements[0].(*ast.FunctionDef).Exported)
	assert.True(t, statements[1].(*ast.FunctionDef).Exported)
}

func TestParseImportDirective(t *testing.T) {
	statements := parse(t, `#import "lib.iodl"`)
	require.Len(t, statements, 1)
	imp := statements[0].(*ast.Import)
	assert.Equal(t, "lib.iodl", imp.Path.Lexeme)
}

func TestParseCommentDirectiveIsDiscarded(t *testing.T) {
	statements := parse(t, "# just a comment\nwriteOut(\"hi\")")
	require.Len(t, statements, 1)
	_, ok := statements[0].(*ast.ExprStmt)
	assert.True(t, ok)
}

func TestParseBinaryPrecedence(t *testing.T) {
	statements := parse(t, "1 + 2 * 3")
	expr := statements[0].(*ast.ExprStmt).Expression.(*ast.Binary)
	assert.Equal(t, "+", expr.Op.Lexeme)
	right := expr.Right.(*ast.Binary)
	assert.Equal(t, "*", right.Op.Lexeme)
}

func TestParseCallExpression(t *testing.T) {
	statements := parse(t, `greet("x")`)
	call := statements[0].(*ast.ExprStmt).Expression.(*ast.Call)
	require.Len(t, call.Arguments, 1)
	lit := call.Arguments[0].(*ast.Literal)
	assert.Equal(t, "x", lit.Token.Lexeme)
}

func TestParseAssignment(t *testing.T) {
	statements := parse(t, "x = 2")
	assign := statements[0].(*ast.ExprStmt).Expression.(*ast.Assign)
	assert.Equal(t, "x", assign.Name.Lexeme)
	assert.Equal(t, "=", assign.Equal.Lexeme)
}

func TestParseInvalidAssignmentTargetIsError(t *testing.T) {
	tokens, err := lexer.New("1 = 2", nil).Tokenize()
	require.NoError(t, err)
	_, err = New(tokens, nil).Parse()
	require.Error(t, err)
}

func TestParseUnknownAnnotationIsError(t *testing.T) {
	tokens, err := lexer.New("@bogus def f() { }", nil).Tokenize()
	require.NoError(t, err)
	_, err = New(tokens, nil).Parse()
	require.Error(t, err)
}

func TestParseMissingClosingParenIsError(t *testing.T) {
	tokens, err := lexer.New("greet(\"x\"", nil).Tokenize()
	require.NoError(t, err)
	_, err = New(tokens, nil).Parse()
	require.Error(t, err)
}
