// Package lexer tokenizes proto3 surface syntax. It is hand-written
// rather than built on a scanner library: neither bufbuild/protocompile
// nor jhump/protoreflect — the two proto-grammar exemplars in the
// corpus — use one either, both hand-rolling a lexer ahead of their own
// recursive-descent or goyacc parser.
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/axonops/protolens/ast"
)

// Kind classifies a Token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Int
	Float
	String
	Bool
	Symbol // punctuation: { } ( ) [ ] < > ; , . = : - +
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "identifier"
	case Int:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Bool:
		return "bool"
	case Symbol:
		return "symbol"
	default:
		return "unknown"
	}
}

// Token is one lexical token together with its source position.
type Token struct {
	Kind Kind
	Text string // raw text for Ident/Symbol; unescaped value for String
	Int  int64
	Flt  float64
	Bool bool
	Pos  ast.Position
}

// Error is a lexical error: an unrecognized or malformed token.
type Error struct {
	Pos     ast.Position
	Message string
}

func (e *Error) Error() string {
	return e.Pos.File + ": " + e.Message
}

// Lexer scans a proto3 source string into a Token stream. Whitespace
// and both comment forms are skipped between tokens, per spec.md §4.1.
type Lexer struct {
	file   string
	src    string
	offset int
	line   int
	col    int
}

// New returns a Lexer over src, attributing positions to file in error
// messages and Token.Pos.
func New(file, src string) *Lexer {
	return &Lexer{file: file, src: src, line: 1, col: 1}
}

func (l *Lexer) pos() ast.Position {
	return ast.Position{File: l.file, Offset: l.offset, Line: l.line, Col: l.col}
}

func (l *Lexer) peekByte() (byte, bool) {
	if l.offset >= len(l.src) {
		return 0, false
	}
	return l.src[l.offset], true
}

func (l *Lexer) advance() (rune, bool) {
	if l.offset >= len(l.src) {
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(l.src[l.offset:])
	l.offset += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r, true
}

func (l *Lexer) skipSpaceAndComments() *Error {
	for {
		b, ok := l.peekByte()
		if !ok {
			return nil
		}
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			l.advance()
		case b == '/' && l.offset+1 < len(l.src) && l.src[l.offset+1] == '/':
			for {
				b, ok := l.peekByte()
				if !ok || b == '\n' {
					break
				}
				l.advance()
			}
		case b == '/' && l.offset+1 < len(l.src) && l.src[l.offset+1] == '*':
			start := l.pos()
			l.advance()
			l.advance()
			closed := false
			for {
				b, ok := l.peekByte()
				if !ok {
					break
				}
				if b == '*' && l.offset+1 < len(l.src) && l.src[l.offset+1] == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return &Error{Pos: start, Message: "unterminated block comment"}
			}
		default:
			return nil
		}
	}
}

// Next returns the next token, or a Kind == EOF token at end of input.
func (l *Lexer) Next() (Token, *Error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return Token{}, err
	}
	start := l.pos()
	b, ok := l.peekByte()
	if !ok {
		return Token{Kind: EOF, Pos: start}, nil
	}

	switch {
	case isIdentStart(rune(b)):
		return l.scanIdent(start), nil
	case b >= '0' && b <= '9':
		return l.scanNumber(start)
	case b == '.' && l.offset+1 < len(l.src) && isDigit(l.src[l.offset+1]):
		return l.scanNumber(start)
	case b == '"' || b == '\'':
		return l.scanString(start)
	default:
		return l.scanSymbol(start)
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func (l *Lexer) scanIdent(start ast.Position) Token {
	begin := l.offset
	for {
		b, ok := l.peekByte()
		if !ok || !isIdentCont(rune(b)) {
			break
		}
		l.advance()
	}
	text := l.src[begin:l.offset]
	switch text {
	case "true":
		return Token{Kind: Bool, Text: text, Bool: true, Pos: start}
	case "false":
		return Token{Kind: Bool, Text: text, Bool: false, Pos: start}
	default:
		return Token{Kind: Ident, Text: text, Pos: start}
	}
}

func (l *Lexer) scanNumber(start ast.Position) (Token, *Error) {
	begin := l.offset
	isFloat := false

	// Hex integer.
	if b, ok := l.peekByte(); ok && b == '0' && l.offset+1 < len(l.src) && (l.src[l.offset+1] == 'x' || l.src[l.offset+1] == 'X') {
		l.advance()
		l.advance()
		for {
			b, ok := l.peekByte()
			if !ok || !isHexDigit(b) {
				break
			}
			l.advance()
		}
		text := l.src[begin:l.offset]
		v, err := strconv.ParseInt(text[2:], 16, 64)
		if err != nil {
			return Token{}, &Error{Pos: start, Message: "invalid hex literal " + text}
		}
		return Token{Kind: Int, Text: text, Int: v, Pos: start}, nil
	}

	for {
		b, ok := l.peekByte()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}
	if b, ok := l.peekByte(); ok && b == '.' {
		isFloat = true
		l.advance()
		for {
			b, ok := l.peekByte()
			if !ok || !isDigit(b) {
				break
			}
			l.advance()
		}
	}
	if b, ok := l.peekByte(); ok && (b == 'e' || b == 'E') {
		isFloat = true
		l.advance()
		if b, ok := l.peekByte(); ok && (b == '+' || b == '-') {
			l.advance()
		}
		for {
			b, ok := l.peekByte()
			if !ok || !isDigit(b) {
				break
			}
			l.advance()
		}
	}

	text := l.src[begin:l.offset]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Token{}, &Error{Pos: start, Message: "invalid float literal " + text}
		}
		return Token{Kind: Float, Text: text, Flt: f, Pos: start}, nil
	}
	// Octal: leading zero, no following x, length > 1.
	base := 10
	lit := text
	if len(text) > 1 && text[0] == '0' {
		base = 8
	}
	v, err := strconv.ParseInt(lit, base, 64)
	if err != nil {
		// Might overflow int64 as unsigned (e.g. field numbers don't
		// reach this far, but options can carry uint64 constants).
		uv, uerr := strconv.ParseUint(lit, base, 64)
		if uerr != nil {
			return Token{}, &Error{Pos: start, Message: "invalid integer literal " + text}
		}
		return Token{Kind: Int, Text: text, Int: int64(uv), Pos: start}, nil
	}
	return Token{Kind: Int, Text: text, Int: v, Pos: start}, nil
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func (l *Lexer) scanString(start ast.Position) (Token, *Error) {
	quote, _ := l.advance()
	var sb strings.Builder
	for {
		r, ok := l.advance()
		if !ok {
			return Token{}, &Error{Pos: start, Message: "unterminated string literal"}
		}
		if r == rune(quote) {
			break
		}
		if r == '\\' {
			esc, ok := l.advance()
			if !ok {
				return Token{}, &Error{Pos: start, Message: "unterminated escape in string literal"}
			}
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteRune(esc)
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(r)
	}
	return Token{Kind: String, Text: sb.String(), Pos: start}, nil
}

var symbolRunes = "{}()[]<>;,.=:-+"

func (l *Lexer) scanSymbol(start ast.Position) (Token, *Error) {
	r, _ := l.advance()
	if strings.ContainsRune(symbolRunes, r) {
		return Token{Kind: Symbol, Text: string(r), Pos: start}, nil
	}
	return Token{}, &Error{Pos: start, Message: "unexpected character " + strconv.QuoteRune(r)}
}
