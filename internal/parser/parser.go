// Package parser implements a hand-written recursive-descent parser over
// the tracing DSL's surface syntax (SPEC_FULL §10), producing an
// *ast.Program from a token.Token stream. Grounded in the teacher's
// internal/parser/parser.go shape — a Parser struct holding a token
// cursor and a diagnostic bag, one method per grammar production, and an
// operator-precedence ladder for binary expressions (internal/parser/op_table.go)
// — scaled down to this DSL's much smaller grammar (no generics, async,
// contracts, or modules).
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"tracesema/internal/ast"
	"tracesema/internal/diag"
	"tracesema/internal/source"
	"tracesema/internal/token"
)

// Parser consumes a token stream and builds an *ast.Program.
type Parser struct {
	toks []token.Token
	pos  int
	bag  *diag.Bag
	prog *ast.Program
}

// New creates a Parser over toks, reporting syntax errors into bag and
// allocating AST nodes into prog.
func New(toks []token.Token, prog *ast.Program, bag *diag.Bag) *Parser {
	return &Parser{toks: toks, prog: prog, bag: bag}
}

// ParseProgram parses the whole token stream into the bound *ast.Program.
func (p *Parser) ParseProgram() *ast.Program {
	for !p.at(token.EOF) {
		if p.at(token.KwFn) {
			p.parseFn()
		} else {
			p.parseProbe()
		}
	}
	return p.prog
}

// --- cursor helpers ---

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 || t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind, what string) token.Token {
	if p.at(k) {
		return p.advance()
	}
	p.errorf(p.cur().Span, "expected %s, found '%s'", what, p.cur().Text)
	return p.cur()
}

// expectStmtEnd consumes the ';' terminating a simple statement, except a
// trailing statement immediately before '}' may omit it.
func (p *Parser) expectStmtEnd() {
	if p.at(token.RBrace) {
		return
	}
	p.expect(token.Semicolon, "';'")
}

func (p *Parser) errorf(sp source.Span, format string, args ...any) {
	if p.bag == nil {
		return
	}
	diag.Error(diag.BagReporter{Bag: p.bag}, diag.SemaCallBadLiteral, sp, fmt.Sprintf(format, args...)).Emit()
}

// --- top level ---

func (p *Parser) parseProbe() {
	start := p.cur().Span
	var attach []ast.AttachPoint
	attach = append(attach, p.parseAttachPoint())
	for p.at(token.Comma) {
		p.advance()
		attach = append(attach, p.parseAttachPoint())
	}

	var predicate ast.ExprID
	if p.at(token.Slash) {
		p.advance()
		predicate = p.parseExpr()
		p.expect(token.Slash, "'/'")
	}

	body := p.parseBlock()
	p.prog.Probes = append(p.prog.Probes, ast.Probe{
		Span:         start.Cover(p.prevSpan()),
		AttachPoints: attach,
		Predicate:    predicate,
		Body:         body,
	})
}

func (p *Parser) prevSpan() source.Span {
	if p.pos == 0 {
		return p.cur().Span
	}
	return p.toks[p.pos-1].Span
}

func (p *Parser) parseAttachPoint() ast.AttachPoint {
	start := p.cur().Span
	segs := []string{p.parseSegment()}
	for p.at(token.Colon) {
		p.advance()
		segs = append(segs, p.parseSegment())
	}
	ap := ast.AttachPoint{Span: start.Cover(p.prevSpan())}
	if len(segs) > 0 {
		ap.Provider = segs[0]
	}
	if len(segs) > 1 {
		ap.Target = segs[1]
		ap.Wildcard = strings.ContainsAny(ap.Target, "*?")
	}
	if len(segs) > 2 {
		ap.Extra = segs[2:]
	}
	return ap
}

func (p *Parser) parseSegment() string {
	var sb strings.Builder
	for p.at(token.Ident) || p.at(token.Star) || p.at(token.IntLit) || p.at(token.Minus) {
		sb.WriteString(p.advance().Text)
	}
	if sb.Len() == 0 {
		p.errorf(p.cur().Span, "expected attach-point segment, found '%s'", p.cur().Text)
		p.advance()
	}
	return sb.String()
}

func (p *Parser) parseFn() {
	start := p.advance().Span // 'fn'
	name := p.expect(token.Ident, "function name").Text
	p.expect(token.LParen, "'('")
	var params []ast.FnParam
	for !p.at(token.RParen) && !p.at(token.EOF) {
		pname := strings.TrimPrefix(p.expect(token.Var, "parameter name").Text, "$")
		p.expect(token.Colon, "':'")
		ty := p.parseTypeSyn()
		params = append(params, ast.FnParam{Name: pname, Type: ty})
		if p.at(token.Comma) {
			p.advance()
		}
	}
	p.expect(token.RParen, "')'")
	var ret ast.TypeSyn
	if p.at(token.Colon) {
		p.advance()
		ret = p.parseTypeSyn()
	}
	body := p.parseBlock()
	p.prog.Functions = append(p.prog.Functions, ast.Fn{
		Span: start.Cover(p.prevSpan()), Name: name, Params: params, ReturnType: ret, Body: body,
	})
}

// --- types ---

func (p *Parser) parseTypeSyn() ast.TypeSyn {
	ty, ok := p.tryParseTypeSyn()
	if !ok {
		p.errorf(p.cur().Span, "expected type, found '%s'", p.cur().Text)
	}
	return ty
}

func (p *Parser) tryParseTypeSyn() (ast.TypeSyn, bool) {
	var name string
	switch p.cur().Kind {
	case token.KwStruct, token.KwEnum:
		kw := p.advance().Text
		if !p.at(token.Ident) {
			return ast.TypeSyn{}, false
		}
		name = kw + " " + p.advance().Text
	case token.Ident:
		name = p.advance().Text
	default:
		return ast.TypeSyn{}, false
	}
	ty := ast.TypeSyn{Name: name}
	if p.at(token.Star) {
		p.advance()
		ty.Pointer = true
	}
	if p.at(token.LBracket) {
		save := p.pos
		p.advance()
		if p.at(token.IntLit) {
			n, _ := strconv.ParseInt(p.advance().Text, 0, 64)
			if p.at(token.RBracket) {
				p.advance()
				ty.ArrayLen = uint32(n)
				ty.ArrayBool = true
				return ty, true
			}
		}
		p.pos = save
	}
	return ty, true
}

// --- statements ---

func (p *Parser) parseBlock() ast.StmtID {
	start := p.cur().Span
	p.expect(token.LBrace, "'{'")
	var stmts []ast.StmtID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		stmts = append(stmts, p.parseStmt())
	}
	p.expect(token.RBrace, "'}'")
	return p.prog.NewStmt(ast.Stmt{Kind: ast.StmtBlock, Span: start.Cover(p.prevSpan()), Stmts: stmts})
}

func (p *Parser) parseStmt() ast.StmtID {
	switch p.cur().Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwFor:
		return p.parseFor()
	case token.KwUnroll:
		return p.parseUnroll()
	case token.KwBreak:
		sp := p.advance().Span
		p.expectStmtEnd()
		return p.prog.NewStmt(ast.Stmt{Kind: ast.StmtBreak, Span: sp})
	case token.KwContinue:
		sp := p.advance().Span
		p.expectStmtEnd()
		return p.prog.NewStmt(ast.Stmt{Kind: ast.StmtContinue, Span: sp})
	case token.KwReturn:
		sp := p.advance().Span
		var e ast.ExprID
		if !p.at(token.Semicolon) && !p.at(token.RBrace) {
			e = p.parseExpr()
		}
		p.expectStmtEnd()
		return p.prog.NewStmt(ast.Stmt{Kind: ast.StmtReturn, Span: sp.Cover(p.prevSpan()), Expr: e})
	case token.LBrace:
		return p.parseBlock()
	default:
		return p.parseAssignOrExprStmt()
	}
}

func (p *Parser) parseLet() ast.StmtID {
	start := p.advance().Span // 'let'
	name := strings.TrimPrefix(p.expect(token.Var, "variable name").Text, "$")
	var ty ast.TypeSyn
	hasType := false
	if p.at(token.Colon) {
		p.advance()
		ty = p.parseTypeSyn()
		hasType = true
	}
	var init ast.ExprID
	if p.at(token.Assign) {
		p.advance()
		init = p.parseExpr()
	}
	p.expectStmtEnd()
	return p.prog.NewStmt(ast.Stmt{
		Kind: ast.StmtLet, Span: start.Cover(p.prevSpan()),
		LetName: name, LetType: ty, HasLetType: hasType, LetInit: init,
	})
}

func (p *Parser) parseIf() ast.StmtID {
	start := p.advance().Span // 'if'
	p.expect(token.LParen, "'('")
	cond := p.parseExpr()
	p.expect(token.RParen, "')'")
	then := p.parseBlock()
	var els ast.StmtID
	if p.at(token.KwElse) {
		p.advance()
		if p.at(token.KwIf) {
			els = p.parseIf()
		} else {
			els = p.parseBlock()
		}
	}
	return p.prog.NewStmt(ast.Stmt{Kind: ast.StmtIf, Span: start.Cover(p.prevSpan()), Cond: cond, Then: then, Else: els})
}

func (p *Parser) parseWhile() ast.StmtID {
	start := p.advance().Span // 'while'
	p.expect(token.LParen, "'('")
	cond := p.parseExpr()
	p.expect(token.RParen, "')'")
	body := p.parseBlock()
	return p.prog.NewStmt(ast.Stmt{Kind: ast.StmtWhile, Span: start.Cover(p.prevSpan()), Cond: cond, Then: body})
}

func (p *Parser) parseFor() ast.StmtID {
	start := p.advance().Span // 'for'
	p.expect(token.LParen, "'('")
	varName := strings.TrimPrefix(p.expect(token.Var, "induction variable").Text, "$")
	p.expect(token.Colon, "':'")
	if p.at(token.MapVar) {
		mapName := strings.TrimPrefix(p.advance().Text, "@")
		p.expect(token.RParen, "')'")
		body := p.parseBlock()
		return p.prog.NewStmt(ast.Stmt{
			Kind: ast.StmtForMap, Span: start.Cover(p.prevSpan()),
			ForMapVar: varName, ForMapOf: mapName, ForMapBody: body,
		})
	}
	rangeStart := p.parseExpr()
	p.expect(token.DotDot, "'..'")
	rangeEnd := p.parseExpr()
	p.expect(token.RParen, "')'")
	body := p.parseBlock()
	return p.prog.NewStmt(ast.Stmt{
		Kind: ast.StmtForRange, Span: start.Cover(p.prevSpan()),
		RangeVar: varName, RangeStart: rangeStart, RangeEnd: rangeEnd, RangeBody: body,
	})
}

func (p *Parser) parseUnroll() ast.StmtID {
	start := p.advance().Span // 'unroll'
	p.expect(token.LParen, "'('")
	n := p.parseExpr()
	p.expect(token.RParen, "')'")
	body := p.parseBlock()
	return p.prog.NewStmt(ast.Stmt{Kind: ast.StmtUnroll, Span: start.Cover(p.prevSpan()), UnrollCount: n, UnrollBody: body})
}

func (p *Parser) parseAssignOrExprStmt() ast.StmtID {
	start := p.cur().Span
	lhs := p.parseExpr()
	if p.at(token.Assign) {
		p.advance()
		rhs := p.parseExpr()
		p.expectStmtEnd()
		return p.prog.NewStmt(ast.Stmt{Kind: ast.StmtAssign, Span: start.Cover(p.prevSpan()), AssignLHS: lhs, AssignRHS: rhs})
	}
	p.expectStmtEnd()
	return p.prog.NewStmt(ast.Stmt{Kind: ast.StmtExpr, Span: start.Cover(p.prevSpan()), Expr: lhs})
}
