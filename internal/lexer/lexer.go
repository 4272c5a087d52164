// Package lexer implements a byte-offset scanner over the tracing DSL's
// surface syntax, producing token.Token values for the bundled minimal
// parser (SPEC_FULL §10). Grounded in the teacher's internal/lexer
// scanning loop shape (a single forward-scanning cursor over file
// content, emitting tokens with source.Span positions), scaled down from
// surge's full grammar.
package lexer

import (
	"tracesema/internal/diag"
	"tracesema/internal/source"
	"tracesema/internal/token"
)

// Lexer scans one source file into tokens.
type Lexer struct {
	file   source.FileID
	src    []byte
	pos    int
	bag    *diag.Bag
	tokens []token.Token
}

// New creates a Lexer over src belonging to file, reporting lexical
// errors into bag.
func New(file source.FileID, src []byte, bag *diag.Bag) *Lexer {
	return &Lexer{file: file, src: src, bag: bag}
}

// Tokenize scans the full input and returns the resulting token stream,
// terminated by a single EOF token.
func (l *Lexer) Tokenize() []token.Token {
	for {
		t := l.next()
		l.tokens = append(l.tokens, t)
		if t.Kind == token.EOF {
			break
		}
	}
	return l.tokens
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) span(start int) source.Span {
	return source.Span{File: l.file, Start: uint32(start), End: uint32(l.pos)}
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.peekByte()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '#': // line comment, bpftrace-style
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.peekByteAt(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *Lexer) next() token.Token {
	l.skipTrivia()
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Span: l.span(l.pos)}
	}
	start := l.pos
	c := l.peekByte()

	switch {
	case isIdentStart(c):
		return l.scanIdent(start)
	case c == '$':
		return l.scanVarOrParam(start)
	case c == '@':
		return l.scanMapVar(start)
	case isDigit(c):
		return l.scanNumber(start)
	case c == '"':
		return l.scanString(start)
	}

	l.pos++
	switch c {
	case '+':
		if l.peekByte() == '+' {
			l.pos++
			return l.tok(token.PlusPlus, start)
		}
		return l.tok(token.Plus, start)
	case '-':
		if l.peekByte() == '-' {
			l.pos++
			return l.tok(token.MinusMinus, start)
		}
		if l.peekByte() == '>' {
			l.pos++
			return l.tok(token.Arrow, start)
		}
		return l.tok(token.Minus, start)
	case '*':
		return l.tok(token.Star, start)
	case '/':
		return l.tok(token.Slash, start)
	case '%':
		return l.tok(token.Percent, start)
	case '=':
		if l.peekByte() == '=' {
			l.pos++
			return l.tok(token.EqEq, start)
		}
		return l.tok(token.Assign, start)
	case '!':
		if l.peekByte() == '=' {
			l.pos++
			return l.tok(token.BangEq, start)
		}
		return l.tok(token.Bang, start)
	case '<':
		if l.peekByte() == '=' {
			l.pos++
			return l.tok(token.LtEq, start)
		}
		if l.peekByte() == '<' {
			l.pos++
			return l.tok(token.Shl, start)
		}
		return l.tok(token.Lt, start)
	case '>':
		if l.peekByte() == '=' {
			l.pos++
			return l.tok(token.GtEq, start)
		}
		if l.peekByte() == '>' {
			l.pos++
			return l.tok(token.Shr, start)
		}
		return l.tok(token.Gt, start)
	case '&':
		if l.peekByte() == '&' {
			l.pos++
			return l.tok(token.AndAnd, start)
		}
		return l.tok(token.Amp, start)
	case '|':
		if l.peekByte() == '|' {
			l.pos++
			return l.tok(token.OrOr, start)
		}
		return l.tok(token.Pipe, start)
	case '^':
		return l.tok(token.Caret, start)
	case '.':
		if l.peekByte() == '.' {
			l.pos++
			return l.tok(token.DotDot, start)
		}
		return l.tok(token.Dot, start)
	case ',':
		return l.tok(token.Comma, start)
	case ':':
		return l.tok(token.Colon, start)
	case ';':
		return l.tok(token.Semicolon, start)
	case '?':
		return l.tok(token.Question, start)
	case '(':
		return l.tok(token.LParen, start)
	case ')':
		return l.tok(token.RParen, start)
	case '{':
		return l.tok(token.LBrace, start)
	case '}':
		return l.tok(token.RBrace, start)
	case '[':
		return l.tok(token.LBracket, start)
	case ']':
		return l.tok(token.RBracket, start)
	}

	sp := l.span(start)
	if l.bag != nil {
		diag.Error(diag.BagReporter{Bag: l.bag}, diag.SemaCallBadLiteral, sp, "unexpected character '"+string(c)+"'").Emit()
	}
	return token.Token{Kind: token.Invalid, Span: sp, Text: string(c)}
}

func (l *Lexer) tok(k token.Kind, start int) token.Token {
	sp := l.span(start)
	return token.Token{Kind: k, Span: sp, Text: string(l.src[start:l.pos])}
}

func (l *Lexer) scanIdent(start int) token.Token {
	for l.pos < len(l.src) && isIdentPart(l.peekByte()) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Span: l.span(start), Text: text}
	}
	return token.Token{Kind: token.Ident, Span: l.span(start), Text: text}
}

func (l *Lexer) scanVarOrParam(start int) token.Token {
	l.pos++ // consume '$'
	if l.peekByte() == '#' {
		l.pos++
		return token.Token{Kind: token.ParamCnt, Span: l.span(start), Text: "$#"}
	}
	if isDigit(l.peekByte()) {
		for l.pos < len(l.src) && isDigit(l.peekByte()) {
			l.pos++
		}
		return token.Token{Kind: token.Param, Span: l.span(start), Text: string(l.src[start:l.pos])}
	}
	for l.pos < len(l.src) && isIdentPart(l.peekByte()) {
		l.pos++
	}
	return token.Token{Kind: token.Var, Span: l.span(start), Text: string(l.src[start:l.pos])}
}

func (l *Lexer) scanMapVar(start int) token.Token {
	l.pos++ // consume '@'
	for l.pos < len(l.src) && isIdentPart(l.peekByte()) {
		l.pos++
	}
	return token.Token{Kind: token.MapVar, Span: l.span(start), Text: string(l.src[start:l.pos])}
}

func (l *Lexer) scanNumber(start int) token.Token {
	for l.pos < len(l.src) && (isDigit(l.peekByte()) || l.peekByte() == 'x' || isHexDigit(l.peekByte())) {
		l.pos++
	}
	// duration suffix: ns, us, ms, s
	if suf, n := matchDurationSuffix(l.src[l.pos:]); suf {
		l.pos += n
		return token.Token{Kind: token.DurationLit, Span: l.span(start), Text: string(l.src[start:l.pos])}
	}
	return token.Token{Kind: token.IntLit, Span: l.span(start), Text: string(l.src[start:l.pos])}
}

func matchDurationSuffix(rest []byte) (bool, int) {
	for _, suf := range []string{"ns", "us", "ms", "s"} {
		if len(rest) >= len(suf) && string(rest[:len(suf)]) == suf {
			// guard against matching the start of an identifier
			if len(rest) == len(suf) || !isIdentPart(rest[len(suf)]) {
				return true, len(suf)
			}
		}
	}
	return false, 0
}

func (l *Lexer) scanString(start int) token.Token {
	l.pos++ // opening quote
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		if l.src[l.pos] == '\\' && l.pos+1 < len(l.src) {
			l.pos += 2
			continue
		}
		l.pos++
	}
	if l.pos >= len(l.src) {
		sp := l.span(start)
		if l.bag != nil {
			diag.Error(diag.BagReporter{Bag: l.bag}, diag.SemaCallBadLiteral, sp, "unterminated string literal").Emit()
		}
		return token.Token{Kind: token.Invalid, Span: sp, Text: string(l.src[start:l.pos])}
	}
	l.pos++ // closing quote
	raw := string(l.src[start+1 : l.pos-1])
	return token.Token{Kind: token.StringLit, Span: l.span(start), Text: raw}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
