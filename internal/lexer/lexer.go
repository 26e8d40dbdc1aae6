// Package lexer tokenizes Datalog source. Tokens carry line numbers so the
// parser can point diagnostics at the offending input.
package lexer

import (
	"unicode"
	"unicode/utf8"
)

// Lexer scans one source string. The zero value is not usable; call New.
type Lexer struct {
	src  string
	pos  int
	line int
}

// New returns a lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

// Tokenize scans all of src including the terminating EOF token.
func Tokenize(src string) []Token {
	l := New(src)
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

// Next returns the next token. After EOF it keeps returning EOF.
func (l *Lexer) Next() Token {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Line: l.line}
	}

	line := l.line
	c := l.src[l.pos]
	switch c {
	case ',':
		l.pos++
		return Token{Kind: Comma, Text: ",", Line: line}
	case '.':
		l.pos++
		return Token{Kind: Period, Text: ".", Line: line}
	case '?':
		l.pos++
		return Token{Kind: Question, Text: "?", Line: line}
	case '(':
		l.pos++
		return Token{Kind: LParen, Text: "(", Line: line}
	case ')':
		l.pos++
		return Token{Kind: RParen, Text: ")", Line: line}
	case ':':
		l.pos++
		if l.pos < len(l.src) && l.src[l.pos] == '-' {
			l.pos++
			return Token{Kind: ColonDash, Text: ":-", Line: line}
		}
		return Token{Kind: Colon, Text: ":", Line: line}
	case '\'':
		return l.scanString()
	}

	if isLetter(rune(c)) {
		return l.scanIdent()
	}

	// Anything else is a single undefined token; the parser reports it.
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	return Token{Kind: Undefined, Text: string(r), Line: line}
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

// scanString consumes a single-quoted constant. There are no escapes; a
// newline or EOF before the closing quote yields an Undefined token holding
// everything consumed so far.
func (l *Lexer) scanString() Token {
	start, line := l.pos, l.line
	l.pos++ // opening quote
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\'':
			l.pos++
			return Token{Kind: Str, Text: l.src[start+1 : l.pos-1], Line: line}
		case '\n':
			return Token{Kind: Undefined, Text: l.src[start:l.pos], Line: line}
		default:
			l.pos++
		}
	}
	return Token{Kind: Undefined, Text: l.src[start:l.pos], Line: line}
}

func (l *Lexer) scanIdent() Token {
	start, line := l.pos, l.line
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isLetter(r) && !unicode.IsDigit(r) {
			break
		}
		l.pos += size
	}
	text := l.src[start:l.pos]
	if kind, ok := keywords[text]; ok {
		return Token{Kind: kind, Text: text, Line: line}
	}
	return Token{Kind: Ident, Text: text, Line: line}
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}
