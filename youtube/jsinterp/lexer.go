package jsinterp

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tIdent
	tNumber
	tString
	tPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// multi-character punctuators, longest first so the scanner is greedy.
var punctuators = []string{
	"===", "!==", ">>>=", "<<=", ">>=", ">>>",
	"==", "!=", "<=", ">=", "&&", "||", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "<<", ">>",
	"+", "-", "*", "/", "%", "<", ">", "=", "!",
	"(", ")", "[", "]", "{", "}", ",", ";", ":", "?", ".", "&", "|", "^", "~",
}

type lexer struct {
	src    string
	pos    int
	tokens []token
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src}
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '"' || c == '\'':
			if err := l.scanString(c); err != nil {
				return nil, err
			}
		case c >= '0' && c <= '9':
			l.scanNumber()
		case isIdentStart(rune(c)):
			l.scanIdent()
		default:
			if !l.scanPunct() {
				return nil, unsupportedf("unexpected character %q near %q", c, snippet(l.src[l.pos:]))
			}
		}
	}
	l.tokens = append(l.tokens, token{kind: tEOF, pos: l.pos})
	return l.tokens, nil
}

func isIdentStart(r rune) bool {
	return r == '$' || r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func (l *lexer) scanString(quote byte) error {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			next := l.src[l.pos+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(next)
			}
			l.pos += 2
			continue
		}
		if c == quote {
			l.pos++
			l.tokens = append(l.tokens, token{kind: tString, text: b.String(), pos: start})
			return nil
		}
		b.WriteByte(c)
		l.pos++
	}
	return unsupportedf("unterminated string near %q", snippet(l.src[start:]))
}

func (l *lexer) scanNumber() {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'x' || c == 'X' ||
			(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			l.pos++
			continue
		}
		break
	}
	l.tokens = append(l.tokens, token{kind: tNumber, text: l.src[start:l.pos], pos: start})
}

func (l *lexer) scanIdent() {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(rune(l.src[l.pos])) {
		l.pos++
	}
	l.tokens = append(l.tokens, token{kind: tIdent, text: l.src[start:l.pos], pos: start})
}

func (l *lexer) scanPunct() bool {
	for _, p := range punctuators {
		if strings.HasPrefix(l.src[l.pos:], p) {
			l.tokens = append(l.tokens, token{kind: tPunct, text: p, pos: l.pos})
			l.pos += len(p)
			return true
		}
	}
	return false
}
