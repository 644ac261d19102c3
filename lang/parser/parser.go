// Package parser implements the Iodicium parser: recursive descent, one
// token of lookahead, producing lang/ast nodes from a lang/token stream.
//
// The parser never recovers past an error — the first syntax error it
// hits aborts parsing for the whole file, per spec.
package parser

import (
	"fmt"
	"strconv"

	"github.com/shadowCow/iodicium-go/lang/ast"
	"github.com/shadowCow/iodicium-go/lang/iodlog"
	"github.com/shadowCow/iodicium-go/lang/token"
)

// Error is a parse error: an unexpected or missing token, an invalid
// assignment target, or an unknown annotation/directive.
type Error struct {
	Message string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// Parser holds the state during parsing of a single token stream.
type Parser struct {
	tokens   []token.Token
	current  int
	logger   *iodlog.Logger
	exportAll bool
}

// New creates a Parser over tokens (as produced by lang/lexer).
func New(tokens []token.Token, logger *iodlog.Logger) *Parser {
	if logger == nil {
		logger = iodlog.Discard()
	}
	return &Parser{tokens: tokens, logger: logger}
}

// Parse parses the whole token stream into a slice of top-level
// statements (directives that produce no statement, like @exportall and
// the comment-escape `#`, are simply skipped).
func (p *Parser) Parse() ([]ast.Statement, error) {
	var statements []ast.Statement
	for !p.isAtEnd() {
		stmt, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			statements = append(statements, stmt)
		}
	}
	return statements, nil
}

func (p *Parser) parseDeclaration() (ast.Statement, error) {
	p.logger.Debugf("parser: at %s", p.peek())

	if p.match(token.Hash) {
		return p.parseDirective()
	}

	exported := false
	if p.match(token.At) {
		name, err := p.consume(token.Identifier, "expect annotation name after '@'")
		if err != nil {
			return nil, err
		}
		switch name.Lexeme {
		case "export":
			exported = true
		case "exportall":
			p.exportAll = true
			return nil, nil
		default:
			return nil, p.errorAt(name, fmt.Sprintf("unknown annotation %q", name.Lexeme))
		}
	}

	if p.match(token.Val, token.Var) {
		return p.parseVarDecl(exported)
	}
	if p.match(token.Def) {
		return p.parseFunction(exported)
	}
	if exported {
		return nil, p.errorAt(p.peek(), "expect function or variable declaration after @export")
	}

	return p.parseStatement()
}

// parseDirective handles the token following a '#'. `#import "path"`
// produces an Import statement; anything else is a comment-like escape
// hatch silently consumed to end of line.
func (p *Parser) parseDirective() (ast.Statement, error) {
	hash := p.previous()
	if p.check(token.Identifier) && p.peek().Lexeme == "import" {
		importKeyword := p.advance()
		path, err := p.consume(token.StringLiteral, "expect file path after #import")
		if err != nil {
			return nil, err
		}
		return &ast.Import{Keyword: importKeyword, Path: path}, nil
	}

	line := hash.Line
	for !p.isAtEnd() && p.peek().Line == line {
		p.advance()
	}
	return nil, nil
}

func (p *Parser) parseVarDecl(exported bool) (ast.Statement, error) {
	keyword := p.previous()
	mutable := keyword.Kind == token.Var

	name, err := p.consume(token.Identifier, "expect variable name")
	if err != nil {
		return nil, err
	}

	var typeExpr ast.Expression
	if p.match(token.Colon) {
		typeExpr, err = p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
	}

	var initializer ast.Expression
	if p.match(token.Equal) {
		initializer, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}

	return &ast.VarDecl{
		Keyword:     keyword,
		Name:        name,
		Type:        typeExpr,
		Initializer: initializer,
		Mutable:     mutable,
		Exported:    exported || p.exportAll,
	}, nil
}

func (p *Parser) parseFunction(exported bool) (ast.Statement, error) {
	keyword := p.previous()
	name, err := p.consume(token.Identifier, "expect function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LParen, "expect '(' after function name"); err != nil {
		return nil, err
	}

	var params []ast.Parameter
	if !p.check(token.RParen) {
		for {
			pname, err := p.consume(token.Identifier, "expect parameter name")
			if err != nil {
				return nil, err
			}
			var ptype ast.Expression
			if p.match(token.Colon) {
				ptype, err = p.parseTypeExpr()
				if err != nil {
					return nil, err
				}
			}
			params = append(params, ast.Parameter{Name: pname, Type: ptype})
			if !p.match(token.Comma) {
				break
			}
		}
	}
	if _, err := p.consume(token.RParen, "expect ')' after parameters"); err != nil {
		return nil, err
	}

	var returnType ast.Expression
	if p.match(token.Colon) {
		returnType, err = p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
	}

	finalExported := exported || p.exportAll

	if p.match(token.LBrace) {
		parentExportAll := p.exportAll
		p.exportAll = false

		var body []ast.Statement
		for !p.check(token.RBrace) && !p.isAtEnd() {
			stmt, err := p.parseDeclaration()
			if err != nil {
				return nil, err
			}
			if stmt != nil {
				body = append(body, stmt)
			}
		}
		if _, err := p.consume(token.RBrace, "expect '}' after function body"); err != nil {
			return nil, err
		}

		p.exportAll = parentExportAll

		return &ast.FunctionDef{
			Keyword:    keyword,
			Name:       name,
			Params:     params,
			ReturnType: returnType,
			Body:       body,
			Exported:   finalExported,
		}, nil
	}

	return &ast.FunctionDecl{
		Keyword:    keyword,
		Name:       name,
		Params:     params,
		ReturnType: returnType,
		Exported:   finalExported,
	}, nil
}

// parseTypeExpr parses a type-expr: a bare identifier.
func (p *Parser) parseTypeExpr() (ast.Expression, error) {
	name, err := p.consume(token.Identifier, "expect type name")
	if err != nil {
		return nil, err
	}
	return &ast.Variable{Name: name}, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	if p.match(token.Return) {
		keyword := p.previous()
		// A bare `return` with nothing following in the grammar's FIRST
		// set for expression would be malformed here, but the grammar
		// (§4.2) treats `return expression` as requiring a value, so we
		// always parse one.
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Return{Keyword: keyword, Value: value}, nil
	}
	return p.parseExprStatement()
}

func (p *Parser) parseExprStatement() (ast.Statement, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expression: expr}, nil
}

// ---- Expressions ----

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (ast.Expression, error) {
	expr, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if p.match(token.Equal) {
		equals := p.previous()
		value, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		if v, ok := expr.(*ast.Variable); ok {
			return &ast.Assign{Name: v.Name, Equal: equals, Value: value}, nil
		}
		return nil, p.errorAt(equals, "invalid assignment target")
	}
	return expr, nil
}

func (p *Parser) parseTerm() (ast.Expression, error) {
	expr, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.match(token.Plus, token.Minus) {
		op := p.previous()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseFactor() (ast.Expression, error) {
	expr, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.match(token.Star, token.Slash) {
		op := p.previous()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr, nil
}

// parseUnary consumes a leading '-' per the grammar's `unary := '-'?
// call` rule. The data model has no dedicated negation node (§3 lists
// only Literal/Variable/Grouping/Binary/Assign/Call); a leading minus is
// therefore accepted syntactically and otherwise has no effect, matching
// the original implementation's own "simplified unary expression".
func (p *Parser) parseUnary() (ast.Expression, error) {
	p.match(token.Minus)
	return p.parseCall()
}

func (p *Parser) parseCall() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.match(token.LParen) {
		var args []ast.Expression
		if !p.check(token.RParen) {
			for {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.match(token.Comma) {
					break
				}
			}
		}
		paren, err := p.consume(token.RParen, "expect ')' after arguments")
		if err != nil {
			return nil, err
		}
		return &ast.Call{Callee: expr, Paren: paren, Arguments: args}, nil
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	switch {
	case p.match(token.StringLiteral, token.NumberLiteral):
		return &ast.Literal{Token: p.previous()}, nil
	case p.match(token.Identifier):
		return &ast.Variable{Name: p.previous()}, nil
	case p.match(token.LParen):
		paren := p.previous()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RParen, "expect ')' after expression"); err != nil {
			return nil, err
		}
		return &ast.Grouping{Paren: paren, Inner: inner}, nil
	}
	return nil, p.errorAt(p.peek(), "expect expression")
}

// ---- Token navigation ----

func (p *Parser) isAtEnd() bool { return p.peek().Kind == token.EOF }

func (p *Parser) peek() token.Token { return p.tokens[p.current] }

func (p *Parser) previous() token.Token { return p.tokens[p.current-1] }

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(kind token.Kind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(kind token.Kind, message string) (token.Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorAt(p.peek(), message)
}

func (p *Parser) errorAt(t token.Token, message string) error {
	return &Error{Message: message, Line: t.Line, Column: t.Column}
}

// ParseNumberLiteral parses a NumberLiteral token's lexeme as a float64,
// the runtime representation used when a constant is textual. Neither
// lang/bytecode nor lang/semantics calls it.
func ParseNumberLiteral(lexeme string) (float64, error) {
	return strconv.ParseFloat(lexeme, 64)
}
