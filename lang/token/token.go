// Package token defines the lexical tokens produced by lang/lexer and
// consumed by lang/parser.
package token

import "fmt"

// Kind identifies the syntactic category of a Token.
type Kind int

const (
	// EOF marks the end of the token stream.
	EOF Kind = iota
	// Error is a token kind that lang/lexer never emits: on a character
	// it cannot scan it returns a *lexer.Error instead.
	Error

	Identifier
	StringLiteral
	NumberLiteral

	// Keywords.
	Def
	Return
	Val
	Var

	// Operators.
	Minus
	Plus
	Slash
	Star
	Equal
	Arrow // "->"

	// Punctuation.
	LParen
	RParen
	LBrace
	RBrace
	Colon
	Comma
	Hash // "#"
	At   // "@"
)

var names = map[Kind]string{
	EOF:           "EOF",
	Error:         "ERROR",
	Identifier:    "IDENTIFIER",
	StringLiteral: "STRING",
	NumberLiteral: "NUMBER",
	Def:           "def",
	Return:        "return",
	Val:           "val",
	Var:           "var",
	Minus:         "-",
	Plus:          "+",
	Slash:         "/",
	Star:          "*",
	Equal:         "=",
	Arrow:         "->",
	LParen:        "(",
	RParen:        ")",
	LBrace:        "{",
	RBrace:        "}",
	Colon:         ":",
	Comma:         ",",
	Hash:          "#",
	At:            "@",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Keywords maps reserved lexemes to their Kind. Looked up after an
// identifier-shaped run has been scanned in full.
var Keywords = map[string]Kind{
	"def":    Def,
	"return": Return,
	"val":    Val,
	"var":    Var,
}

// Token is one lexical unit: its kind, the source text it spans, and its
// 1-based source position. Line and column are assigned at the first byte
// of the lexeme.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Lexeme, t.Line, t.Column)
}
