package sema

import (
	"fmt"

	"tracesema/internal/ast"
	"tracesema/internal/diag"
	"tracesema/internal/types"
)

// checkStmt dispatches on stmt kind, same shape as checkExpr: every path
// returns having emitted whatever diagnostics apply, never panicking.
func (a *Analyzer) checkStmt(id ast.StmtID) {
	s := a.prog.Stmt(id)
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		a.scopes.push()
		for _, child := range s.Stmts {
			a.checkStmt(child)
		}
		a.scopes.pop()
	case ast.StmtExpr:
		a.checkExpr(s.Expr)
	case ast.StmtLet:
		a.checkLet(s)
	case ast.StmtAssign:
		a.checkAssign(s)
	case ast.StmtIf:
		a.checkIf(s)
	case ast.StmtWhile:
		a.checkWhile(s)
	case ast.StmtForRange:
		a.checkForRange(s)
	case ast.StmtForMap:
		a.checkForMap(s)
	case ast.StmtUnroll:
		a.checkUnroll(s)
	case ast.StmtBreak:
		if !a.inLoop() {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaBreakOutsideLoop, s.Span, "break outside of a loop").Emit()
		}
	case ast.StmtContinue:
		if !a.inLoop() {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaContinueOutsideLoop, s.Span, "continue outside of a loop").Emit()
		}
	case ast.StmtReturn:
		a.checkReturn(s)
	}
}

func (a *Analyzer) checkLet(s *ast.Stmt) {
	var declType types.SizedType
	var initType types.SizedType
	if s.LetInit.IsValid() {
		initType = a.checkExpr(s.LetInit)
	}
	if s.HasLetType {
		declType = a.resolveTypeSyn(s.LetType)
		if s.LetInit.IsValid() && !initType.IsNone() {
			a.checkAssignable(s.LetName, declType, initType, s.LetInit)
		}
	} else if s.LetInit.IsValid() {
		declType = a.defaultLiteralType(s.LetInit, initType)
	} else {
		declType = types.Int64
	}
	if a.scopes.declaredHere(s.LetName) {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaRedeclaredVar, s.Span,
			fmt.Sprintf("variable '$%s' is already declared in this scope", s.LetName)).Emit()
	} else if origin, shadowed := a.scopes.shadowsOuter(s.LetName); shadowed {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaShadowedVar, s.Span,
			fmt.Sprintf("redeclaration of '$%s' shadowing is not allowed", s.LetName)).
			Note(origin, "this is the initial declaration.").
			Hint("This is the initial declaration.").Emit()
	}
	a.scopes.declare(s.LetName, declType, s.Span)
}

// defaultLiteralType picks the narrowest signed width fitting an untyped
// `let` initializer's literal value, matching "the smallest fitting
// signed type is chosen when no annotation is present" (§4.2); non-int
// initializers just keep their inferred type.
func (a *Analyzer) defaultLiteralType(id ast.ExprID, inferred types.SizedType) types.SizedType {
	e := a.prog.Expr(id)
	if e != nil && e.Kind == ast.ExprIntLit {
		w, signed := types.SmallestFittingWidth(e.IntValue)
		return types.Int(w, signed)
	}
	return inferred
}

// checkAssignable enforces literal-fit (I4/P5) when assigning a constant
// literal into a fixed-width slot, matching scenario 6's message shape;
// any other integer-to-integer assignment is accepted, and every other
// pair of types must be equal.
func (a *Analyzer) checkAssignable(varName string, target, value types.SizedType, valueExpr ast.ExprID) bool {
	e := a.prog.Expr(valueExpr)
	if e != nil && e.Kind == ast.ExprIntLit && target.Kind == types.KindInt {
		if !types.LiteralFits(e.IntValue, target.IntWidth, target.Signed) {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaLiteralDoesNotFit, e.Span,
				fmt.Sprintf("Type mismatch for $%s: trying to assign value '%d' which does not fit into the variable of type '%s'",
					varName, e.IntValue, target.String())).Emit()
			return false
		}
		return true
	}
	if target.Kind == types.KindInt && value.Kind == types.KindInt {
		return true // integer widening/narrowing between named variables is permitted; width checked at runtime lowering
	}
	if !target.Equal(value) {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaTypeMismatch, e.Span,
			fmt.Sprintf("Type mismatch for $%s: trying to assign value of type '%s' when variable already has type '%s'",
				varName, value.String(), target.String())).Emit()
		return false
	}
	return true
}

func (a *Analyzer) checkAssign(s *ast.Stmt) {
	lhs := a.prog.Expr(s.AssignLHS)
	if lhs == nil {
		return
	}
	switch lhs.Kind {
	case ast.ExprMapAccess:
		a.checkMapAssign(lhs, s.AssignRHS)
	case ast.ExprVar:
		rhsType := a.checkExpr(s.AssignRHS)
		target, ok := a.scopes.lookup(lhs.Name)
		if !ok {
			// A scratch variable with no preceding `let` is declared by its
			// first assignment, at the RHS-inferred type (§3 Lifecycles),
			// mirroring checkLet's untyped path.
			declType := a.defaultLiteralType(s.AssignRHS, rhsType)
			a.scopes.declare(lhs.Name, declType, lhs.Span)
			return
		}
		a.checkAssignable(lhs.Name, target, rhsType, s.AssignRHS)
	default:
		a.checkExpr(s.AssignLHS)
		a.checkExpr(s.AssignRHS)
	}
}

func (a *Analyzer) checkIf(s *ast.Stmt) {
	ty := a.checkExpr(s.Cond)
	if !ty.IsNone() && !ty.IsNumericLike() {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaTypeMismatch, a.prog.Expr(s.Cond).Span,
			fmt.Sprintf("Invalid type for if condition: %s", ty.String())).Emit()
	}
	a.checkStmt(s.Then)
	if s.Else.IsValid() {
		a.checkStmt(s.Else)
	}
}

func (a *Analyzer) checkWhile(s *ast.Stmt) {
	ty := a.checkExpr(s.Cond)
	if !ty.IsNone() && !ty.IsNumericLike() {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaTypeMismatch, a.prog.Expr(s.Cond).Span,
			fmt.Sprintf("Invalid type for while condition: %s", ty.String())).Emit()
	}
	a.pushLoop(loopWhile)
	a.checkStmt(s.Then)
	a.popLoop()
}

func (a *Analyzer) checkForRange(s *ast.Stmt) {
	startTy := a.checkExpr(s.RangeStart)
	endTy := a.checkExpr(s.RangeEnd)
	if !startTy.IsNone() && !startTy.IsInteger() {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaTypeMismatch, a.prog.Expr(s.RangeStart).Span,
			"for-range bounds must be integers").Emit()
	}
	if !endTy.IsNone() && !endTy.IsInteger() {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaTypeMismatch, a.prog.Expr(s.RangeEnd).Span,
			"for-range bounds must be integers").Emit()
	}
	a.scopes.push()
	a.scopes.declare(s.RangeVar, types.Int64, s.Span)
	a.pushLoop(loopForRange)
	a.ctxLoopDepth++
	a.checkStmt(s.RangeBody)
	a.ctxLoopDepth--
	a.popLoop()
	a.scopes.pop()
}

func (a *Analyzer) checkForMap(s *ast.Stmt) {
	if !a.features.Has(FeatureForEachMapElem) {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaFeatureUnavailable, s.Span,
			"for-each-map iteration requires the for_each_map_elem kernel feature").Emit()
	}
	m := a.maps.lookupOrCreate(s.ForMapOf)
	if m.FirstUse {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaUndefinedMap, s.Span,
			fmt.Sprintf("@%s used before its key/value types were established", s.ForMapOf)).Emit()
	} else {
		if m.Scalarity != types.NonScalar {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaForMapNotNonScalar, s.Span,
				fmt.Sprintf("for-loop over @%s requires a map used with an explicit key", s.ForMapOf)).Emit()
		}
		if m.ValueType.IsAggregate() && m.ValueType.Agg.IterationForbidden() {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaForMapAggregate, s.Span,
				fmt.Sprintf("@%s holds a %s value and cannot be iterated", s.ForMapOf, m.ValueType.String())).Emit()
		}
	}
	kvType := types.Tuple(m.KeyType, m.ValueType)
	a.scopes.push()
	a.scopes.declare(s.ForMapVar, kvType, s.Span)
	a.pushLoop(loopForMap)
	a.ctxLoopDepth++
	a.checkStmt(s.ForMapBody)
	a.ctxLoopDepth--
	a.popLoop()
	a.scopes.pop()
}

func (a *Analyzer) checkUnroll(s *ast.Stmt) {
	n := a.prog.Expr(s.UnrollCount)
	if n != nil && n.Kind == ast.ExprIntLit {
		if n.IntValue < 1 || n.IntValue > 100 {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaUnrollBoundInvalid, n.Span,
				fmt.Sprintf("unroll() count must be between 1 and 100 (%d provided)", n.IntValue)).Emit()
		}
	} else {
		a.checkExpr(s.UnrollCount)
	}
	a.scopes.push()
	a.pushLoop(loopUnroll)
	a.checkStmt(s.UnrollBody)
	a.popLoop()
	a.scopes.pop()
}

func (a *Analyzer) checkReturn(s *ast.Stmt) {
	if a.inLoop() && !a.inUnrollOnlyChain() {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaReturnInForLoop, s.Span,
			"return is not permitted inside a for/while loop").Emit()
	}
	a.hasRet = true
	var got types.SizedType
	if s.Expr.IsValid() {
		got = a.checkExpr(s.Expr)
	} else {
		got = types.Void
	}
	if a.inFn && !got.IsNone() && !got.Equal(a.fnReturn) {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaReturnTypeMismatch, s.Span,
			fmt.Sprintf("return type mismatch: expected '%s', got '%s'", a.fnReturn.String(), got.String())).Emit()
	}
}

// inUnrollOnlyChain reports whether every enclosing loop frame up to the
// nearest function boundary is an unroll() (which is fully inlined, so
// `return` inside it behaves like a plain early-exit, unlike a real
// while/for loop body).
func (a *Analyzer) inUnrollOnlyChain() bool {
	for _, k := range a.loopStack {
		if k != loopUnroll {
			return false
		}
	}
	return true
}
