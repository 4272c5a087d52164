package parser

import (
	"strconv"
	"strings"

	"tracesema/internal/ast"
	"tracesema/internal/source"
	"tracesema/internal/token"
)

// precedence ladder, grounded in the teacher's internal/parser/op_table.go
// (a table mapping token kinds to binding power), collapsed here into a
// fixed sequence of mutually-recursive parse functions since this
// grammar's operator set is small and fixed.

func (p *Parser) parseExpr() ast.ExprID {
	return p.parseTernary()
}

func (p *Parser) parseTernary() ast.ExprID {
	cond := p.parseLogicOr()
	if p.at(token.Question) {
		p.advance()
		then := p.parseExpr()
		p.expect(token.Colon, "':'")
		els := p.parseExpr()
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprTernary, LHS: then, RHS: els, Args: []ast.ExprID{cond}, Span: p.spanOf(cond)})
	}
	return cond
}

func (p *Parser) spanOf(id ast.ExprID) source.Span {
	if e := p.prog.Expr(id); e != nil {
		return e.Span
	}
	return p.cur().Span
}

func (p *Parser) parseLogicOr() ast.ExprID {
	lhs := p.parseLogicAnd()
	for p.at(token.OrOr) {
		p.advance()
		rhs := p.parseLogicAnd()
		lhs = p.binExpr(ast.OpOr, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseLogicAnd() ast.ExprID {
	lhs := p.parseBitOr()
	for p.at(token.AndAnd) {
		p.advance()
		rhs := p.parseBitOr()
		lhs = p.binExpr(ast.OpAnd, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseBitOr() ast.ExprID {
	lhs := p.parseBitXor()
	for p.at(token.Pipe) {
		p.advance()
		rhs := p.parseBitXor()
		lhs = p.binExpr(ast.OpBitOr, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseBitXor() ast.ExprID {
	lhs := p.parseBitAnd()
	for p.at(token.Caret) {
		p.advance()
		rhs := p.parseBitAnd()
		lhs = p.binExpr(ast.OpBitXor, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseBitAnd() ast.ExprID {
	lhs := p.parseEquality()
	for p.at(token.Amp) {
		p.advance()
		rhs := p.parseEquality()
		lhs = p.binExpr(ast.OpBitAnd, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseEquality() ast.ExprID {
	lhs := p.parseRelational()
	for p.at(token.EqEq) || p.at(token.BangEq) {
		op := ast.OpEq
		if p.cur().Kind == token.BangEq {
			op = ast.OpNe
		}
		p.advance()
		rhs := p.parseRelational()
		lhs = p.binExpr(op, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseRelational() ast.ExprID {
	lhs := p.parseShift()
	for {
		var op ast.BinOp
		switch p.cur().Kind {
		case token.Lt:
			op = ast.OpLt
		case token.LtEq:
			op = ast.OpLe
		case token.Gt:
			op = ast.OpGt
		case token.GtEq:
			op = ast.OpGe
		default:
			return lhs
		}
		p.advance()
		rhs := p.parseShift()
		lhs = p.binExpr(op, lhs, rhs)
	}
}

func (p *Parser) parseShift() ast.ExprID {
	lhs := p.parseAdditive()
	for p.at(token.Shl) || p.at(token.Shr) {
		op := ast.OpShl
		if p.cur().Kind == token.Shr {
			op = ast.OpShr
		}
		p.advance()
		rhs := p.parseAdditive()
		lhs = p.binExpr(op, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseAdditive() ast.ExprID {
	lhs := p.parseMultiplicative()
	for p.at(token.Plus) || p.at(token.Minus) {
		op := ast.OpAdd
		if p.cur().Kind == token.Minus {
			op = ast.OpSub
		}
		p.advance()
		rhs := p.parseMultiplicative()
		lhs = p.binExpr(op, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseMultiplicative() ast.ExprID {
	lhs := p.parseUnary()
	// A '/' directly followed by '{' closes a probe predicate (`/ expr / {`)
	// rather than dividing.
	for p.at(token.Star) || p.at(token.Percent) ||
		(p.at(token.Slash) && !(p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.LBrace)) {
		var op ast.BinOp
		switch p.cur().Kind {
		case token.Star:
			op = ast.OpMul
		case token.Slash:
			op = ast.OpDiv
		case token.Percent:
			op = ast.OpMod
		}
		p.advance()
		rhs := p.parseUnary()
		lhs = p.binExpr(op, lhs, rhs)
	}
	return lhs
}

func (p *Parser) binExpr(op ast.BinOp, lhs, rhs ast.ExprID) ast.ExprID {
	return p.prog.NewExpr(ast.Expr{Kind: ast.ExprBinary, BinOp: op, LHS: lhs, RHS: rhs, Span: p.spanOf(lhs).Cover(p.spanOf(rhs))})
}

func (p *Parser) parseUnary() ast.ExprID {
	switch p.cur().Kind {
	case token.Minus:
		sp := p.advance().Span
		operand := p.parseUnary()
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprUnary, UnOp: ast.OpNeg, RHS: operand, Span: sp.Cover(p.spanOf(operand))})
	case token.Bang:
		sp := p.advance().Span
		operand := p.parseUnary()
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprUnary, UnOp: ast.OpNot, RHS: operand, Span: sp.Cover(p.spanOf(operand))})
	case token.Amp:
		sp := p.advance().Span
		operand := p.parseUnary()
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprUnary, UnOp: ast.OpAddrOf, RHS: operand, Span: sp.Cover(p.spanOf(operand))})
	case token.PlusPlus, token.MinusMinus:
		sp := p.advance().Span
		operand := p.parseUnary()
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprPreIncDec, Span: sp.Cover(p.spanOf(operand)), RHS: operand})
	case token.LParen:
		if ty, ok := p.tryCast(); ok {
			return ty
		}
	}
	return p.parsePostfix()
}

// tryCast attempts `(type) unary` at the current position; on failure it
// rewinds and returns ok=false so the caller falls back to a parenthesized
// or tuple expression.
func (p *Parser) tryCast() (ast.ExprID, bool) {
	save := p.pos
	p.advance() // '('
	ty, ok := p.tryParseTypeSyn()
	if !ok || !p.at(token.RParen) {
		p.pos = save
		return 0, false
	}
	start := p.toks[save].Span
	p.advance() // ')'
	operand := p.parseUnary()
	return p.prog.NewExpr(ast.Expr{Kind: ast.ExprCast, CastType: ty, RHS: operand, Span: start.Cover(p.spanOf(operand))}), true
}

func (p *Parser) parsePostfix() ast.ExprID {
	e := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.Dot:
			p.advance()
			if p.at(token.IntLit) {
				idxTok := p.advance()
				idx, _ := strconv.ParseUint(idxTok.Text, 10, 32)
				e = p.prog.NewExpr(ast.Expr{Kind: ast.ExprTupleIndex, LHS: e, TupleIdx: uint32(idx), Span: p.spanOf(e).Cover(idxTok.Span)})
				continue
			}
			field := p.expect(token.Ident, "field name")
			e = p.prog.NewExpr(ast.Expr{Kind: ast.ExprFieldAccess, FieldOp: ast.FieldDot, LHS: e, Name: field.Text, Span: p.spanOf(e).Cover(field.Span)})
		case token.Arrow:
			p.advance()
			field := p.expect(token.Ident, "field name")
			e = p.prog.NewExpr(ast.Expr{Kind: ast.ExprFieldAccess, FieldOp: ast.FieldArrow, LHS: e, Name: field.Text, Span: p.spanOf(e).Cover(field.Span)})
		case token.PlusPlus, token.MinusMinus:
			op := p.advance()
			e = p.prog.NewExpr(ast.Expr{Kind: ast.ExprPostIncDec, RHS: e, Span: p.spanOf(e).Cover(op.Span)})
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() ast.ExprID {
	t := p.cur()
	switch t.Kind {
	case token.IntLit:
		p.advance()
		v, _ := strconv.ParseInt(strings.TrimPrefix(t.Text, "0x"), hexOrDec(t.Text), 64)
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprIntLit, IntValue: v, Span: t.Span})
	case token.DurationLit:
		p.advance()
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprDurationLit, IntValue: parseDurationNanos(t.Text), Span: t.Span})
	case token.StringLit:
		p.advance()
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprStringLit, StringValue: t.Text, Span: t.Span})
	case token.KwTrue:
		p.advance()
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprBoolLit, IntValue: 1, Span: t.Span})
	case token.KwFalse:
		p.advance()
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprBoolLit, IntValue: 0, Span: t.Span})
	case token.Var:
		p.advance()
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprVar, Name: strings.TrimPrefix(t.Text, "$"), Span: t.Span})
	case token.Param:
		p.advance()
		n, _ := strconv.ParseInt(strings.TrimPrefix(t.Text, "$"), 10, 64)
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprParam, IntValue: n, Span: t.Span})
	case token.ParamCnt:
		p.advance()
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprParamCnt, Span: t.Span})
	case token.MapVar:
		p.advance()
		name := strings.TrimPrefix(t.Text, "@")
		var key ast.ExprID
		if p.at(token.LBracket) {
			p.advance()
			key = p.parseExpr()
			p.expect(token.RBracket, "']'")
		}
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprMapAccess, Name: name, MapKey: key, Span: t.Span.Cover(p.prevSpan())})
	case token.Ident:
		p.advance()
		if p.at(token.LParen) {
			p.advance()
			var args []ast.ExprID
			for !p.at(token.RParen) && !p.at(token.EOF) {
				args = append(args, p.parseExpr())
				if p.at(token.Comma) {
					p.advance()
				}
			}
			p.expect(token.RParen, "')'")
			return p.prog.NewExpr(ast.Expr{Kind: ast.ExprCall, Name: t.Text, Args: args, Span: t.Span.Cover(p.prevSpan())})
		}
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprIdent, Name: t.Text, Span: t.Span})
	case token.LParen:
		p.advance()
		first := p.parseExpr()
		if p.at(token.Comma) {
			elems := []ast.ExprID{first}
			for p.at(token.Comma) {
				p.advance()
				elems = append(elems, p.parseExpr())
			}
			p.expect(token.RParen, "')'")
			return p.prog.NewExpr(ast.Expr{Kind: ast.ExprTupleLit, Args: elems, Span: t.Span.Cover(p.prevSpan())})
		}
		p.expect(token.RParen, "')'")
		return first
	default:
		p.errorf(t.Span, "unexpected token '%s' in expression", t.Text)
		p.advance()
		return p.prog.NewExpr(ast.Expr{Kind: ast.ExprInvalid, Span: t.Span})
	}
}

func hexOrDec(s string) int {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return 16
	}
	return 10
}

func parseDurationNanos(text string) int64 {
	var unit string
	for _, u := range []string{"ns", "us", "ms", "s"} {
		if strings.HasSuffix(text, u) {
			unit = u
			break
		}
	}
	numPart := strings.TrimSuffix(text, unit)
	n, _ := strconv.ParseInt(numPart, 10, 64)
	switch unit {
	case "ns":
		return n
	case "us":
		return n * 1_000
	case "ms":
		return n * 1_000_000
	case "s":
		return n * 1_000_000_000
	default:
		return n
	}
}
