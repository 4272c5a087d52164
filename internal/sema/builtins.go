package sema

import (
	"fmt"

	"tracesema/internal/ast"
	"tracesema/internal/diag"
	"tracesema/internal/types"
)

// builtinSpec describes one builtin function's arity and result, grounded
// in spec §4.3's builtin table. minArgs==maxArgs for fixed-arity builtins;
// maxArgs<0 means unbounded.
type builtinSpec struct {
	minArgs, maxArgs int
	result           func(a *Analyzer, e *ast.Expr, argTypes []types.SizedType) types.SizedType
	extra            func(a *Analyzer, e *ast.Expr) // extra, builtin-specific checks run after arity passes
}

var aggBuiltins = map[string]types.AggKind{
	"count": types.AggCount, "sum": types.AggSum, "min": types.AggMin, "max": types.AggMax,
	"avg": types.AggAvg, "stats": types.AggStats, "hist": types.AggHist, "lhist": types.AggLHist,
	"tseries": types.AggTSeries,
}

func isAggBuiltin(name string) bool {
	_, ok := aggBuiltins[name]
	return ok
}

func aggResult(kind types.AggKind) func(*Analyzer, *ast.Expr, []types.SizedType) types.SizedType {
	return func(a *Analyzer, e *ast.Expr, argTypes []types.SizedType) types.SizedType {
		return types.Aggregation(kind)
	}
}

var builtins = map[string]builtinSpec{
	"count": {minArgs: 0, maxArgs: 0, result: aggResult(types.AggCount)},
	"sum":   {minArgs: 1, maxArgs: 1, result: aggResult(types.AggSum)},
	"min":   {minArgs: 1, maxArgs: 1, result: aggResult(types.AggMin)},
	"max":   {minArgs: 1, maxArgs: 1, result: aggResult(types.AggMax)},
	"avg":   {minArgs: 1, maxArgs: 1, result: aggResult(types.AggAvg)},
	"stats": {minArgs: 1, maxArgs: 1, result: aggResult(types.AggStats)},
	"hist":  {minArgs: 1, maxArgs: 2, result: aggResult(types.AggHist), extra: checkHistBits},
	"lhist": {minArgs: 4, maxArgs: 4, result: aggResult(types.AggLHist), extra: checkLhistArgs},
	"tseries": {
		minArgs: 3, maxArgs: 3, result: aggResult(types.AggTSeries),
		extra: checkTSeriesIntervals,
	},
	"delete": {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Void }},
	"print":  {minArgs: 1, maxArgs: 2, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Void }},
	"clear":  {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Void }},
	"zero":   {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Void }},
	"has_key": {minArgs: 2, maxArgs: 2, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Bool }},
	"len": {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.UInt64 }},
	"str": {minArgs: 1, maxArgs: 2, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.String(64) }},
	"buf": {minArgs: 1, maxArgs: 2, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Buffer(64) }},
	"ntop": {minArgs: 1, maxArgs: 2, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.SizedType{Kind: types.KindInet} }},
	"pton": {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Buffer(16) }},
	"ksym": {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.SizedType{Kind: types.KindKsym} }},
	"usym": {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.SizedType{Kind: types.KindUsym} }},
	"kaddr": {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Pointer(types.Void, types.AddrSpaceKernel) }},
	"uaddr": {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Pointer(types.Void, types.AddrSpaceUser) }},
	"cgroupid":     {minArgs: 1, maxArgs: -1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.UInt64 }},
	"cgroup_path":  {minArgs: 1, maxArgs: 2, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.SizedType{Kind: types.KindCgroupPath} }},
	"strerror":     {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.SizedType{Kind: types.KindStrerror} }},
	"strftime":     {minArgs: 2, maxArgs: 2, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.String(32) }},
	"nsecs":        {minArgs: 0, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Timestamp(types.TimestampBoot) }},
	"pid":          {minArgs: 0, maxArgs: 0, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.UInt64 }},
	"tid":          {minArgs: 0, maxArgs: 0, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.UInt64 }},
	"signal":       {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Void }},
	"override":     {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Void }},
	"unwatch":      {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Void }},
	"reg":          {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.UInt64 }},
	"offsetof":     {minArgs: 2, maxArgs: 2, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.UInt64 }},
	"sizeof":       {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.UInt64 }},
	"path":         {minArgs: 1, maxArgs: 2, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.String(64) }},
	"skboutput":    {minArgs: 4, maxArgs: 4, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Void }},
	"percpu_kaddr": {minArgs: 1, maxArgs: 2, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Pointer(types.Void, types.AddrSpaceKernel) }},
	"socket_cookie": {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.UInt64 }},
	"bswap":        {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { if len(t) > 0 { return t[0] }; return types.Int64 }},
	"join":         {minArgs: 1, maxArgs: 2, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Void }},
	"macaddr":      {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.SizedType{Kind: types.KindMacaddr} }},
	"kptr":         {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { if len(t) > 0 { return types.Pointer(t[0], types.AddrSpaceKernel) }; return types.Pointer(types.Void, types.AddrSpaceKernel) }},
	"uptr":         {minArgs: 1, maxArgs: 1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { if len(t) > 0 { return types.Pointer(t[0], types.AddrSpaceUser) }; return types.Pointer(types.Void, types.AddrSpaceUser) }},
	"system":       {minArgs: 1, maxArgs: -1, result: func(a *Analyzer, e *ast.Expr, t []types.SizedType) types.SizedType { return types.Void }},
}

func (a *Analyzer) checkCall(e *ast.Expr) types.SizedType {
	// aggAssignOK is consumed here regardless of whether e.Name is a
	// builtin at all, so a nested call's arguments never inherit the
	// direct-assignment permission from an enclosing call.
	assignedDirectly := a.aggAssignOK
	a.aggAssignOK = false

	spec, ok := builtins[e.Name]
	if !ok {
		return a.checkUserCall(e)
	}
	if isAggBuiltin(e.Name) && !assignedDirectly {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaMapNotAssignedDirect, e.Span,
			fmt.Sprintf("%s() must be assigned directly to a map", e.Name)).Emit()
	}
	n := len(e.Args)
	if n < spec.minArgs || (spec.maxArgs >= 0 && n > spec.maxArgs) {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaCallArity, e.Span,
			fmt.Sprintf("%s() requires %s (%d provided)", e.Name, arityDesc(spec.minArgs, spec.maxArgs), n)).Emit()
	}
	if a.cfg.SafeMode && safeModeForbidden[e.Name] {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaSafeModeForbidden, e.Span,
			fmt.Sprintf("%s() is forbidden in safe mode", e.Name)).Emit()
	}
	if feat, gated := builtinFeature[e.Name]; gated && !a.features.Has(feat) {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaFeatureUnavailable, e.Span,
			fmt.Sprintf("%s() requires a kernel feature not available on this system", e.Name)).Emit()
	}
	argTypes := make([]types.SizedType, n)
	for i, arg := range e.Args {
		argTypes[i] = a.checkExpr(arg)
	}
	if spec.extra != nil {
		spec.extra(a, e)
	}
	return spec.result(a, e, argTypes)
}

func arityDesc(min, max int) string {
	if min == max {
		return fmt.Sprintf("%d arguments", min)
	}
	if max < 0 {
		return fmt.Sprintf("at least %d arguments", min)
	}
	return fmt.Sprintf("between %d and %d arguments", min, max)
}

// checkTSeriesIntervals enforces tseries()'s third-argument bound: a
// literal interval count must be >= 1. A non-literal count is not checked.
func checkTSeriesIntervals(a *Analyzer, e *ast.Expr) {
	if len(e.Args) < 3 {
		return
	}
	n := a.prog.Expr(e.Args[2])
	if n != nil && n.Kind == ast.ExprIntLit && n.IntValue < 1 {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaCallArgKind, n.Span,
			fmt.Sprintf("tseries() num_intervals must be >= 1 (%d provided)", n.IntValue)).Emit()
	}
}

// checkHistBits enforces hist()'s optional second argument: a literal
// integer in 0..5 (§4.3).
func checkHistBits(a *Analyzer, e *ast.Expr) {
	if len(e.Args) < 2 {
		return
	}
	n := a.prog.Expr(e.Args[1])
	if n == nil || n.Kind != ast.ExprIntLit {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaCallBadLiteral, e.Span,
			"hist() bits argument must be a literal integer").Emit()
		return
	}
	if n.IntValue < 0 || n.IntValue > 5 {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaCallArgKind, n.Span,
			fmt.Sprintf("hist() bits must be between 0 and 5 (%d provided)", n.IntValue)).Emit()
	}
}

// checkLhistArgs enforces lhist()'s min/max/step arguments: all literal
// integers, with min >= 0 (§4.3).
func checkLhistArgs(a *Analyzer, e *ast.Expr) {
	if len(e.Args) < 4 {
		return
	}
	for i := 1; i < 4; i++ {
		n := a.prog.Expr(e.Args[i])
		if n == nil || n.Kind != ast.ExprIntLit {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaCallBadLiteral, e.Span,
				"lhist() min/max/step arguments must be literal integers").Emit()
			return
		}
	}
	if minExpr := a.prog.Expr(e.Args[1]); minExpr.IntValue < 0 {
		diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaCallArgKind, minExpr.Span,
			fmt.Sprintf("lhist() min must be >= 0 (%d provided)", minExpr.IntValue)).Emit()
	}
}

// checkUserCall resolves a call to a user-defined `fn` subprogram (§4.5).
func (a *Analyzer) checkUserCall(e *ast.Expr) types.SizedType {
	for i := range a.prog.Functions {
		fn := &a.prog.Functions[i]
		if fn.Name != e.Name {
			continue
		}
		if len(e.Args) != len(fn.Params) {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaCallArity, e.Span,
				fmt.Sprintf("%s() requires %d arguments (%d provided)", e.Name, len(fn.Params), len(e.Args))).Emit()
		}
		for _, arg := range e.Args {
			a.checkExpr(arg)
		}
		return a.resolveTypeSyn(fn.ReturnType)
	}
	diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaUndefinedFn, e.Span,
		fmt.Sprintf("undefined function '%s'", e.Name)).Emit()
	for _, arg := range e.Args {
		a.checkExpr(arg)
	}
	return types.None
}
