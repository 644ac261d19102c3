// Package lexer turns Iodicium source text into a token stream.
//
// Scanning is single-pass, character by character. Line and column are
// 1-based and assigned at the first byte of a lexeme.
package lexer

import (
	"fmt"

	"github.com/shadowCow/iodicium-go/lang/iodlog"
	"github.com/shadowCow/iodicium-go/lang/token"
)

// Error is a lexical error: an unrecognised character or an unterminated
// string literal.
type Error struct {
	Message string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("lexer error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// Lexer scans a source string into a []token.Token.
type Lexer struct {
	source string
	logger *iodlog.Logger

	start, current int
	line           int
	lineStartIndex int

	tokens []token.Token
}

// New creates a Lexer over source, logging through logger (nil is
// permitted and is treated as a logger that discards everything).
func New(source string, logger *iodlog.Logger) *Lexer {
	if logger == nil {
		logger = iodlog.Discard()
	}
	return &Lexer{
		source: source,
		logger: logger,
		line:   1,
	}
}

// Tokenize scans the whole source and returns the resulting token
// sequence, terminated by an token.EOF token. Returns the first lexical
// error encountered, if any.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	for !l.isAtEnd() {
		l.start = l.current
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	l.tokens = append(l.tokens, token.Token{
		Kind:   token.EOF,
		Lexeme: "",
		Line:   l.line,
		Column: l.current - l.lineStartIndex + 1,
	})
	return l.tokens, nil
}

func (l *Lexer) isAtEnd() bool { return l.current >= len(l.source) }

func (l *Lexer) advance() byte {
	c := l.source[l.current]
	l.current++
	return c
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func (l *Lexer) previous() byte { return l.source[l.current-1] }

func (l *Lexer) addToken(kind token.Kind) {
	text := l.source[l.start:l.current]
	l.tokens = append(l.tokens, token.Token{
		Kind:   kind,
		Lexeme: text,
		Line:   l.line,
		Column: l.start - l.lineStartIndex + 1,
	})
}

func (l *Lexer) addTokenLiteral(kind token.Kind, literal string) {
	l.tokens = append(l.tokens, token.Token{
		Kind:   kind,
		Lexeme: literal,
		Line:   l.line,
		Column: l.start - l.lineStartIndex + 1,
	})
}

func (l *Lexer) scanToken() error {
	c := l.advance()
	l.logger.Debugf("lexer: scanning %q at %d:%d", string(c), l.line, l.current-l.lineStartIndex)

	switch c {
	case '(':
		l.addToken(token.LParen)
	case ')':
		l.addToken(token.RParen)
	case '{':
		l.addToken(token.LBrace)
	case '}':
		l.addToken(token.RBrace)
	case ',':
		l.addToken(token.Comma)
	case ':':
		l.addToken(token.Colon)
	case '+':
		l.addToken(token.Plus)
	case '*':
		l.addToken(token.Star)
	case '=':
		l.addToken(token.Equal)
	case '@':
		l.addToken(token.At)
	case '#':
		l.addToken(token.Hash)
	case '-':
		if l.peek() == '>' {
			l.advance()
			l.addToken(token.Arrow)
		} else {
			l.addToken(token.Minus)
		}
	case '/':
		if l.peek() == '/' {
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		} else {
			l.addToken(token.Slash)
		}
	case ' ', '\r', '\t':
		// discarded
	case '\n':
		l.line++
		l.lineStartIndex = l.current
	case '"':
		return l.handleString()
	default:
		switch {
		case isAlpha(c):
			l.handleIdentifier()
		case isDigit(c):
			l.handleNumber()
		default:
			return &Error{
				Message: fmt.Sprintf("unexpected character: %q", string(c)),
				Line:    l.line,
				Column:  l.start - l.lineStartIndex + 1,
			}
		}
	}
	return nil
}

func (l *Lexer) handleString() error {
	startLine := l.line
	var value []byte
	for l.peek() != '"' && !l.isAtEnd() {
		c := l.advance()
		if c == '\\' {
			if l.isAtEnd() {
				break
			}
			switch l.advance() {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			case '\\':
				value = append(value, '\\')
			case '"':
				value = append(value, '"')
			default:
				value = append(value, '\\', l.previous())
			}
		} else {
			if c == '\n' {
				l.line++
				l.lineStartIndex = l.current
			}
			value = append(value, c)
		}
	}
	if l.isAtEnd() {
		return &Error{
			Message: "unterminated string",
			Line:    startLine,
			Column:  l.start - l.lineStartIndex + 1,
		}
	}
	l.advance() // closing quote
	l.addTokenLiteral(token.StringLiteral, string(value))
	return nil
}

func (l *Lexer) handleIdentifier() {
	for isAlnum(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	text := l.source[l.start:l.current]
	if kind, ok := token.Keywords[text]; ok {
		l.addToken(kind)
	} else {
		l.addToken(token.Identifier)
	}
}

func (l *Lexer) handleNumber() {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	l.addToken(token.NumberLiteral)
}

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }
