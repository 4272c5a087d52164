package sema

import (
	"fmt"

	"tracesema/internal/ast"
	"tracesema/internal/diag"
	"tracesema/internal/types"
)

// diagTypeName renders t the way spec's own error-message examples do:
// bare "string"/"buffer" rather than their capacity-qualified form, since
// the capacity is implementation detail the diagnostic text never spells
// out.
func diagTypeName(t types.SizedType) string {
	switch t.Kind {
	case types.KindString:
		return "string"
	case types.KindBuffer:
		return "buffer"
	default:
		return t.String()
	}
}

// checkExpr infers and returns the type of expr id, reporting any
// diagnostic along the way. It never fails loudly: an unresolvable
// sub-expression types as types.None so the caller can keep walking.
func (a *Analyzer) checkExpr(id ast.ExprID) types.SizedType {
	e := a.prog.Expr(id)
	if e == nil {
		return types.None
	}
	switch e.Kind {
	case ast.ExprIntLit:
		return types.Int64
	case ast.ExprDurationLit:
		return types.Int64
	case ast.ExprStringLit:
		return types.String(uint32(len(e.StringValue)) + 1)
	case ast.ExprBoolLit:
		return types.Bool
	case ast.ExprVar:
		ty, ok := a.scopes.lookup(e.Name)
		if !ok {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaUndefinedVar, e.Span,
				fmt.Sprintf("undefined variable '$%s'", e.Name)).Emit()
			return types.None
		}
		return ty
	case ast.ExprParam, ast.ExprParamCnt:
		return types.Int64
	case ast.ExprMapAccess:
		return a.checkMapRead(e)
	case ast.ExprIdent:
		return a.checkIdent(e)
	case ast.ExprBinary:
		return a.checkBinary(e)
	case ast.ExprUnary:
		return a.checkUnary(e)
	case ast.ExprPreIncDec, ast.ExprPostIncDec:
		return a.checkExpr(e.RHS)
	case ast.ExprCall:
		return a.checkCall(e)
	case ast.ExprFieldAccess:
		return a.checkFieldAccess(e)
	case ast.ExprTupleIndex:
		return a.checkTupleIndex(e)
	case ast.ExprCast:
		return a.checkCast(e)
	case ast.ExprTupleLit:
		fields := make([]types.SizedType, len(e.Args))
		for i, arg := range e.Args {
			fields[i] = a.checkExpr(arg)
		}
		return types.Tuple(fields...)
	case ast.ExprTernary:
		var cond ast.ExprID
		if len(e.Args) > 0 {
			cond = e.Args[0]
		}
		condTy := a.checkExpr(cond)
		if !condTy.IsNone() && !condTy.IsNumericLike() {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaTypeMismatch, e.Span,
				fmt.Sprintf("Invalid type for ternary condition: %s", condTy.String())).Emit()
		}
		thenTy := a.checkExpr(e.LHS)
		elseTy := a.checkExpr(e.RHS)
		if !thenTy.IsNone() && !elseTy.IsNone() && !thenTy.Equal(elseTy) {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaTypeMismatch, e.Span,
				fmt.Sprintf("ternary branches have mismatched types '%s' and '%s'", thenTy.String(), elseTy.String())).Emit()
		}
		return thenTy
	default:
		return types.None
	}
}

// checkMapRead types a map access that occurs as a value, e.g. a bare
// `@x;` statement or `@x` used as an operand — shares the scalarity check
// with checkMapAssign's write path (P2).
func (a *Analyzer) checkMapRead(e *ast.Expr) types.SizedType {
	m := a.maps.lookupOrCreate(e.Name)
	scalarity := types.NonScalar
	if !e.MapKey.IsValid() {
		scalarity = types.Scalar
	} else {
		a.checkExpr(e.MapKey)
	}
	if m.FirstUse {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaUndefinedMap, e.Span,
			fmt.Sprintf("@%s is read before it has been assigned a value", e.Name)).Emit()
		return types.None
	}
	a.checkScalarity(m, e, scalarity)
	return m.ValueType
}

// checkScalarity implements P2: a map is used either always with a key or
// always without.
func (a *Analyzer) checkScalarity(m *types.MapType, site *ast.Expr, want types.Scalarity) {
	if m.FirstUse || m.Scalarity == types.ScalarityUnknown {
		return
	}
	if m.Scalarity != want {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaMapScalarityConflict, site.Span,
			fmt.Sprintf("@%s used as a map %s, previously used %s", site.Name, scalarityDesc(want), scalarityDesc(m.Scalarity))).Emit()
	}
}

func scalarityDesc(s types.Scalarity) string {
	if s == types.Scalar {
		return "without an explicit key (scalar map)"
	}
	return "with an explicit key (non-scalar map)"
}

// checkMapAssign implements value-type consistency (the value half of
// P1), scalarity-consistency (P2) and aggregate-purity/map-to-map (P3,
// I3) for `@m[...] = rhs;` and `@m = rhs;`. Key types are not compared:
// every map is seeded with an int64 KeyType whatever the type of its key
// expression.
func (a *Analyzer) checkMapAssign(lhs *ast.Expr, rhsID ast.ExprID) {
	m := a.maps.lookupOrCreate(lhs.Name)
	scalarity := types.NonScalar
	if !lhs.MapKey.IsValid() {
		scalarity = types.Scalar
	} else {
		a.checkExpr(lhs.MapKey)
	}

	rhsExpr := a.prog.Expr(rhsID)
	if rhsExpr != nil && rhsExpr.Kind == ast.ExprMapAccess {
		src := a.maps.lookupOrCreate(rhsExpr.Name)
		if !src.FirstUse && src.ValueType.IsAggregate() {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaMapFromMapAssign, rhsExpr.Span,
				fmt.Sprintf("Map value '%s' cannot be assigned from one map to another.", src.ValueType.String())).
				Hint(fmt.Sprintf("@%s = (int64)@%s;", lhs.Name, rhsExpr.Name)).Emit()
			return
		}
	}

	// hist()/count()/etc. may only be the direct RHS of a map assignment
	// (P3/I3); checkCall consumes this permission once and never lets it
	// propagate into a nested call's own arguments.
	a.aggAssignOK = rhsExpr != nil && rhsExpr.Kind == ast.ExprCall
	rhsType := a.checkExpr(rhsID)
	a.aggAssignOK = false
	if rhsType.IsNone() {
		return
	}

	if !m.FirstUse {
		a.checkScalarity(m, lhs, scalarity)
	}

	if m.FirstUse {
		fromAgg := rhsExpr != nil && rhsExpr.Kind == ast.ExprCall && isAggBuiltin(rhsExpr.Name)
		m.Seed(types.Int64, rhsType, scalarity, fromAgg)
		return
	}
	if !m.ValueType.Equal(rhsType) {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaMapValueTypeMismatch, rhsExpr.Span,
			fmt.Sprintf("Type mismatch for @%s: trying to assign value of type '%s' when map already contains a value of type '%s'",
				lhs.Name, diagTypeName(rhsType), diagTypeName(m.ValueType))).Emit()
	}
}

func (a *Analyzer) checkIdent(e *ast.Expr) types.SizedType {
	switch e.Name {
	case "ctx":
		return a.checkCtxCapture(e, types.Ctx)
	case "pid", "tid", "uid", "gid", "cpu":
		return a.checkCtxCapture(e, types.UInt64.WithCtxAccess())
	case "comm":
		return a.checkCtxCapture(e, types.String(16).WithCtxAccess())
	case "nsecs":
		return types.Timestamp(types.TimestampBoot)
	case "retval":
		return a.checkCtxCapture(e, types.Int64.WithCtxAccess())
	case "args":
		if !probeAllowsArgs(a.probe) {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaCtxOutsideAllowed, e.Span,
				"args is only available in tracepoint/fentry/fexit/rawtracepoint/uprobe probes").Emit()
			return types.None
		}
		return a.checkCtxCapture(e, types.Ctx)
	default:
		if s, ok := a.structs.Lookup(e.Name); ok {
			return types.RecordType(s)
		}
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaUndefinedVar, e.Span,
			fmt.Sprintf("undefined identifier '%s'", e.Name)).Emit()
		return types.None
	}
}

// checkCtxCapture enforces §4.4's context-capture rule: a probe-context
// builtin (ctx, pid/tid/uid/gid/cpu, comm, retval, args, ...) read from
// within a for-loop body cannot be captured, since the loop executes
// outside the probe's own stack frame. ty is still returned so the
// caller's traversal continues per the accumulation model.
func (a *Analyzer) checkCtxCapture(e *ast.Expr, ty types.SizedType) types.SizedType {
	if a.ctxLoopDepth > 0 {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaCtxOutsideAllowed, e.Span,
			fmt.Sprintf("'%s' is probe-context and cannot be captured inside a for-loop body", e.Name)).Emit()
	}
	return ty
}

func (a *Analyzer) checkBinary(e *ast.Expr) types.SizedType {
	lhs := a.checkExpr(e.LHS)
	rhs := a.checkExpr(e.RHS)
	if lhs.IsNone() || rhs.IsNone() {
		return types.None
	}
	switch e.BinOp {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if lhs.Kind == types.KindString && rhs.Kind == types.KindString && lhs.Capacity != rhs.Capacity {
			diag.Warning(diag.BagReporter{Bag: a.bag}, diag.WarnAlwaysFalseCompare, e.Span,
				"comparing strings of different capacities; the literal may never match").Emit()
		}
		return types.Bool
	case ast.OpAnd, ast.OpOr:
		return types.Bool
	default:
		if lhs.Kind == types.KindPointer && rhs.IsInteger() {
			if rhs.Signed {
				diag.Warning(diag.BagReporter{Bag: a.bag}, diag.WarnPointerSignedOffset, e.Span,
					"pointer arithmetic with a signed offset").Emit()
			}
			return lhs
		}
		if !lhs.IsInteger() || !rhs.IsInteger() {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaTypeMismatch, e.Span,
				fmt.Sprintf("invalid operand types '%s' and '%s' for binary operator", lhs.String(), rhs.String())).Emit()
			return types.None
		}
		result, mixed := types.BinaryArithResult(lhs, rhs)
		if mixed {
			diag.Warning(diag.BagReporter{Bag: a.bag}, diag.WarnSignUnsignedMismatch, e.Span,
				"mixing signed and unsigned operands; result is unsigned").Emit()
		}
		return result
	}
}

func (a *Analyzer) checkUnary(e *ast.Expr) types.SizedType {
	rhs := a.checkExpr(e.RHS)
	if rhs.IsNone() {
		return types.None
	}
	switch e.UnOp {
	case ast.OpNot:
		return types.Bool
	case ast.OpAddrOf:
		return types.Pointer(rhs, types.AddrSpaceNone)
	default:
		return rhs
	}
}

func (a *Analyzer) checkFieldAccess(e *ast.Expr) types.SizedType {
	base := a.checkExpr(e.LHS)
	if base.IsNone() {
		return types.None
	}

	var record types.SizedType
	switch e.FieldOp {
	case ast.FieldArrow:
		if base.Kind != types.KindPointer || base.Pointee == nil {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaBadFieldAccess, e.Span,
				fmt.Sprintf("'->' requires a pointer, '%s' is not a pointer", base.String())).Emit()
			return types.None
		}
		record = *base.Pointee
	default: // ast.FieldDot
		if base.Kind == types.KindPointer {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaBadFieldAccess, e.Span,
				fmt.Sprintf("'.' requires a value, '%s' is a pointer; use '->' instead", base.String())).Emit()
			return types.None
		}
		record = base
	}

	if record.Kind != types.KindRecord || record.Record == nil {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaBadFieldAccess, e.Span,
			fmt.Sprintf("'%s' is not a struct and has no field '%s'", base.String(), e.Name)).Emit()
		return types.None
	}
	f := record.Record.FieldByName(e.Name)
	if f == nil {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaUndefinedField, e.Span,
			fmt.Sprintf("struct '%s' has no field '%s'", record.Record.Name, e.Name)).Emit()
		return types.None
	}
	return f.Type
}

func (a *Analyzer) checkTupleIndex(e *ast.Expr) types.SizedType {
	base := a.checkExpr(e.LHS)
	if base.Kind != types.KindTuple {
		if !base.IsNone() {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaTupleArityMismatch, e.Span,
				fmt.Sprintf("'%s' is not a tuple", base.String())).Emit()
		}
		return types.None
	}
	if int(e.TupleIdx) >= len(base.TupleFields) {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaTupleIndexOOB, e.Span,
			fmt.Sprintf("tuple index %d out of range for %s", e.TupleIdx, base.String())).Emit()
		return types.None
	}
	return base.TupleFields[e.TupleIdx]
}

func (a *Analyzer) checkCast(e *ast.Expr) types.SizedType {
	operand := a.checkExpr(e.RHS)
	target := a.resolveTypeSyn(e.CastType)
	if target.IsNone() {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaInvalidCast, e.Span,
			fmt.Sprintf("unknown cast target type '%s'", e.CastType.Name)).Emit()
		return types.None
	}
	if operand.IsNone() {
		return target
	}
	if !operand.IsNumericLike() && !operand.IsAggregate() {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaInvalidCast, e.Span,
			fmt.Sprintf("cannot cast value of type '%s' to '%s'", operand.String(), target.String())).Emit()
		return target
	}
	return target
}
