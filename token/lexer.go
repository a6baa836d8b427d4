package token

import (
	"strings"

	"github.com/queryflow/pipeql/perr"
)

var escapes = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
}

var singleCharTokens = map[byte]Kind{
	'|': PIPE,
	',': COMMA,
	'.': DOT,
	'(': LPAREN,
	')': RPAREN,
	'[': LBRACKET,
	']': RBRACKET,
	'+': PLUS,
	'*': STAR,
	'/': SLASH,
}

// Lexer turns command source text into a token stream.
type Lexer struct {
	src    string
	pos    int
	line   int
	column int
}

// NewLexer creates a Lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, pos: 0, line: 1, column: 1}
}

// Tokenize runs the lexer to completion, returning every token including a
// trailing EOF, or a *perr.Error wrapping ErrLexical on the first failure.
func Tokenize(src string) ([]Token, error) {
	l := NewLexer(src)
	return l.Tokenize()
}

func (l *Lexer) Tokenize() ([]Token, error) {
	var toks []Token
	for {
		l.skipWhitespace()
		if l.atEnd() {
			toks = append(toks, Token{Kind: EOF, Offset: l.pos, Line: l.line, Column: l.column})
			return toks, nil
		}

		startOffset, startLine, startCol := l.pos, l.line, l.column
		c := l.src[l.pos]

		switch {
		case c == '"' || c == '\'':
			s, err := l.readString(c)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{Kind: STRING, Value: s, Offset: startOffset, Line: startLine, Column: startCol})

		case isDigit(c) || (c == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
			n := l.readNumber()
			if unit, ok := l.peekDurationUnit(); ok {
				l.advance()
				toks = append(toks, Token{Kind: DURATION, Value: n + unit, Offset: startOffset, Line: startLine, Column: startCol})
			} else {
				toks = append(toks, Token{Kind: NUMBER, Value: n, Offset: startOffset, Line: startLine, Column: startCol})
			}

		case isIdentStart(c):
			id := l.readIdentifier()
			kind := IDENT
			if kw, ok := Keywords[strings.ToLower(id)]; ok {
				kind = kw
			}
			toks = append(toks, Token{Kind: kind, Value: id, Offset: startOffset, Line: startLine, Column: startCol})

		case c == '=':
			l.advance()
			if !l.atEnd() && l.src[l.pos] == '=' {
				l.advance()
				toks = append(toks, Token{Kind: EQ, Value: "==", Offset: startOffset, Line: startLine, Column: startCol})
			} else {
				toks = append(toks, Token{Kind: EQUALS, Value: "=", Offset: startOffset, Line: startLine, Column: startCol})
			}

		case c == '!':
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == '=' {
				l.advance()
				l.advance()
				toks = append(toks, Token{Kind: NEQ, Value: "!=", Offset: startOffset, Line: startLine, Column: startCol})
			} else {
				return nil, perr.Lexical("unexpected character '!'", perr.Location{Offset: startOffset, Line: startLine, Column: startCol})
			}

		case c == '>':
			l.advance()
			if !l.atEnd() && l.src[l.pos] == '=' {
				l.advance()
				toks = append(toks, Token{Kind: GTE, Value: ">=", Offset: startOffset, Line: startLine, Column: startCol})
			} else {
				toks = append(toks, Token{Kind: GT, Value: ">", Offset: startOffset, Line: startLine, Column: startCol})
			}

		case c == '<':
			l.advance()
			if !l.atEnd() && l.src[l.pos] == '=' {
				l.advance()
				toks = append(toks, Token{Kind: LTE, Value: "<=", Offset: startOffset, Line: startLine, Column: startCol})
			} else {
				toks = append(toks, Token{Kind: LT, Value: "<", Offset: startOffset, Line: startLine, Column: startCol})
			}

		case c == '-':
			l.advance()
			toks = append(toks, Token{Kind: MINUS, Value: "-", Offset: startOffset, Line: startLine, Column: startCol})

		default:
			if kind, ok := singleCharTokens[c]; ok {
				l.advance()
				toks = append(toks, Token{Kind: kind, Value: string(c), Offset: startOffset, Line: startLine, Column: startCol})
				continue
			}
			return nil, perr.Lexical("unexpected character '"+string(c)+"'", perr.Location{Offset: startOffset, Line: startLine, Column: startCol})
		}
	}
}

func (l *Lexer) atEnd() bool { return l.pos >= len(l.src) }

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.advance()
			continue
		}
		break
	}
}

func (l *Lexer) readString(quote byte) (string, error) {
	startLine, startCol, startOffset := l.line, l.column, l.pos
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.atEnd() {
			return "", perr.Lexical("unterminated string literal", perr.Location{Offset: startOffset, Line: startLine, Column: startCol})
		}
		c := l.src[l.pos]
		if c == quote {
			l.advance()
			return sb.String(), nil
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			next := l.src[l.pos+1]
			if repl, ok := escapes[next]; ok {
				sb.WriteByte(repl)
				l.advance()
				l.advance()
				continue
			}
			// Unknown escape: preserve the backslash verbatim so regex
			// patterns like \d or \w survive lexing.
			sb.WriteByte('\\')
			l.advance()
			continue
		}
		sb.WriteByte(c)
		l.advance()
	}
}

func (l *Lexer) readNumber() string {
	var sb strings.Builder
	if l.src[l.pos] == '-' {
		sb.WriteByte(l.advance())
	}
	for !l.atEnd() && isDigit(l.src[l.pos]) {
		sb.WriteByte(l.advance())
	}
	if !l.atEnd() && l.src[l.pos] == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		sb.WriteByte(l.advance()) // '.'
		for !l.atEnd() && isDigit(l.src[l.pos]) {
			sb.WriteByte(l.advance())
		}
	}
	return sb.String()
}

// durationUnits are the single-letter span/offset suffixes spec.md's
// <N><unit> grammar positions use (span=, maxspan=, latest=, earliest=).
const durationUnits = "smhdw"

// peekDurationUnit reports whether the byte immediately following the
// number just read is one of durationUnits with no intervening
// whitespace, and that unit letter isn't itself the start of a longer
// identifier (so "5mb" stays NUMBER("5") + IDENT("mb"), while "5m" merges
// into a single DURATION token). It does not consume the byte; callers
// that accept the merge call advance() themselves.
func (l *Lexer) peekDurationUnit() (string, bool) {
	if l.atEnd() || !strings.ContainsRune(durationUnits, rune(l.src[l.pos])) {
		return "", false
	}
	if l.pos+1 < len(l.src) && isIdentPart(l.src[l.pos+1]) {
		return "", false
	}
	return string(l.src[l.pos]), true
}

func (l *Lexer) readIdentifier() string {
	var sb strings.Builder
	for !l.atEnd() && isIdentPart(l.src[l.pos]) {
		sb.WriteByte(l.advance())
	}
	return sb.String()
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

// SplitByPipe splits source on top-level '|' boundaries, respecting
// bracket depth and string literals, for callers that want to pre-split a
// command without invoking the full tokenizer.
func SplitByPipe(source string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	var inString byte
	i := 0
	for i < len(source) {
		c := source[i]
		if inString != 0 {
			current.WriteByte(c)
			if c == '\\' && i+1 < len(source) {
				current.WriteByte(source[i+1])
				i += 2
				continue
			}
			if c == inString {
				inString = 0
			}
			i++
			continue
		}
		switch c {
		case '"', '\'':
			inString = c
			current.WriteByte(c)
		case '(', '[':
			depth++
			current.WriteByte(c)
		case ')', ']':
			depth--
			current.WriteByte(c)
		case '|':
			if depth == 0 {
				parts = append(parts, current.String())
				current.Reset()
			} else {
				current.WriteByte(c)
			}
		default:
			current.WriteByte(c)
		}
		i++
	}
	parts = append(parts, current.String())
	return parts
}
