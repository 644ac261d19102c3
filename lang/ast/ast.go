// Package ast defines the Iodicium abstract syntax tree: two disjoint
// node families, Expression and Statement, each carrying the token that
// best identifies its source location.
package ast

import "github.com/shadowCow/iodicium-go/lang/token"

// Node is the base interface implemented by every AST node.
type Node interface {
	// Pos returns the token that best identifies this node's source
	// location, for error reporting.
	Pos() token.Token
}

// Expression is implemented by every node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is implemented by every top-level or body node.
type Statement interface {
	Node
	statementNode()
}

// Program is the root node: an ordered sequence of top-level statements.
type Program struct {
	Statements []Statement
}

// Parameter is a function parameter: a name and an optional declared
// type expression (a bare identifier, per the grammar's type-expr rule).
type Parameter struct {
	Name token.Token
	Type Expression // nil if untyped
}

// ---- Expressions ----

// Literal is a string or number literal.
type Literal struct {
	Token token.Token
}

func (e *Literal) Pos() token.Token { return e.Token }
func (*Literal) expressionNode()    {}

// Variable is a reference to a named symbol.
type Variable struct {
	Name token.Token
}

func (e *Variable) Pos() token.Token { return e.Name }
func (*Variable) expressionNode()    {}

// Grouping is a parenthesized expression.
type Grouping struct {
	Paren token.Token
	Inner Expression
}

func (e *Grouping) Pos() token.Token { return e.Paren }
func (*Grouping) expressionNode()    {}

// Binary is a two-operand arithmetic or concatenation expression.
type Binary struct {
	Left  Expression
	Op    token.Token
	Right Expression
}

func (e *Binary) Pos() token.Token { return e.Op }
func (*Binary) expressionNode()    {}

// Assign is `name = value`.
type Assign struct {
	Name  token.Token
	Equal token.Token
	Value Expression
}

func (e *Assign) Pos() token.Token { return e.Equal }
func (*Assign) expressionNode()    {}

// Call is a function call expression.
type Call struct {
	Callee    Expression
	Paren     token.Token
	Arguments []Expression
}

func (e *Call) Pos() token.Token { return e.Paren }
func (*Call) expressionNode()    {}

// ---- Statements ----

// Import is a `#import "path"` directive.
type Import struct {
	Keyword token.Token
	Path    token.Token
}

func (s *Import) Pos() token.Token { return s.Keyword }
func (*Import) statementNode()     {}

// VarDecl is a `val`/`var` declaration.
type VarDecl struct {
	Keyword     token.Token
	Name        token.Token
	Type        Expression // nil if omitted
	Initializer Expression // nil if omitted
	Mutable     bool
	Exported    bool
}

func (s *VarDecl) Pos() token.Token { return s.Keyword }
func (*VarDecl) statementNode()     {}

// FunctionDef is a `def` with a body.
type FunctionDef struct {
	Keyword    token.Token
	Name       token.Token
	Params     []Parameter
	ReturnType Expression // nil if omitted
	Body       []Statement
	Exported   bool
}

func (s *FunctionDef) Pos() token.Token { return s.Keyword }
func (*FunctionDef) statementNode()     {}

// FunctionDecl is a `def` without a body (library header material: the
// signature only, used when importing from a library chunk or describing
// an externally-provided function).
type FunctionDecl struct {
	Keyword    token.Token
	Name       token.Token
	Params     []Parameter
	ReturnType Expression // nil if omitted
	Exported   bool
}

func (s *FunctionDecl) Pos() token.Token { return s.Keyword }
func (*FunctionDecl) statementNode()     {}

// Return is a `return` statement, with an optional value.
type Return struct {
	Keyword token.Token
	Value   Expression // nil if omitted
}

func (s *Return) Pos() token.Token { return s.Keyword }
func (*Return) statementNode()     {}

// ExprStmt wraps an expression evaluated for its side effects.
type ExprStmt struct {
	Expression Expression
}

func (s *ExprStmt) Pos() token.Token { return s.Expression.Pos() }
func (*ExprStmt) statementNode()     {}
