// Package sema implements the semantic analyser: name resolution, type
// inference, coercion, and diagnostic reporting over a parsed
// *ast.Program. Grounded in the teacher's internal/sema visitor, which
// walks the AST accumulating diagnostics into a Bag rather than
// panicking on the first failure ("visitor with accumulation" — every
// node still returns a type, possibly types.None, so traversal never
// stops early).
package sema

import (
	"fmt"

	"tracesema/internal/ast"
	"tracesema/internal/config"
	"tracesema/internal/diag"
	"tracesema/internal/types"
)

// loopKind records what kind of loop construct an enclosing frame is, for
// break/continue/return validity checks (§4.4).
type loopKind uint8

const (
	loopNone loopKind = iota
	loopWhile
	loopForRange
	loopForMap
	loopUnroll
)

// Analyzer holds all state threaded through one program's semantic
// analysis: the program being checked, the map/scratch-variable symbol
// tables, and the diagnostic sink.
type Analyzer struct {
	prog    *ast.Program
	bag     *diag.Bag
	maps    *mapTable
	scopes  *scopeStack
	structs *types.Interner
	cfg     config.Config
	features FeatureSet
	probe   *ast.Probe

	loopStack    []loopKind
	ctxLoopDepth int
	aggAssignOK  bool // true only while checking the RHS of `@m = <expr>`
	inFn         bool
	fnReturn     types.SizedType
	hasRet       bool
}

// New creates an Analyzer over prog, reporting diagnostics into bag and
// resolving struct names against structs (normally the registry
// populated by the tracepoint-format parser). It defaults to spec §6's
// configuration defaults and every feature available; callers targeting
// a specific kernel use WithConfig/WithFeatures before Run.
func New(prog *ast.Program, bag *diag.Bag, structs *types.Interner) *Analyzer {
	if structs == nil {
		structs = types.NewInterner()
	}
	return &Analyzer{
		prog:     prog,
		bag:      bag,
		maps:     newMapTable(),
		scopes:   newScopeStack(),
		structs:  structs,
		cfg:      config.Default(),
		features: AllFeatures(),
	}
}

// WithConfig overrides the configuration record Run checks safe_mode and
// other options against.
func (a *Analyzer) WithConfig(cfg config.Config) *Analyzer {
	a.cfg = cfg
	return a
}

// WithFeatures overrides the set of kernel features available to the
// program being checked.
func (a *Analyzer) WithFeatures(fs FeatureSet) *Analyzer {
	a.features = fs
	return a
}

// maxInferencePasses bounds the fixed-point loop Run drives: each pass
// can seed at most one map per forward reference chain, so this many
// passes comfortably covers any realistic program (§4.2).
const maxInferencePasses = 8

// Run checks every function and probe in the bound program. It never
// returns an error value: failures are diagnostics collected in the
// Analyzer's Bag, per the package's accumulation model.
//
// Map types are seeded by their first *textual* assignment, but a read
// may occur earlier in program order (`@x = @y; @y = 2;`, §4.2's
// map_use_before_assign scenario). Run is therefore a two-pass,
// fixed-point inferencer: it re-walks the program, discarding
// diagnostics, until a pass seeds no new maps, then makes one final
// pass that actually reports diagnostics against the now-stable map
// table.
func (a *Analyzer) Run() {
	realBag := a.bag
	prevUnseeded := -1
	for pass := 0; pass < maxInferencePasses; pass++ {
		final := pass == maxInferencePasses-1
		if final {
			a.bag = realBag
		} else {
			a.bag = diag.NewBag(0)
		}
		a.runPass()
		if final {
			break
		}
		unseeded := a.maps.unseededCount()
		if unseeded == prevUnseeded {
			a.bag = realBag
			a.runPass()
			break
		}
		prevUnseeded = unseeded
	}
	a.bag = realBag
}

func (a *Analyzer) runPass() {
	for i := range a.prog.Functions {
		a.checkFn(&a.prog.Functions[i])
	}
	for i := range a.prog.Probes {
		a.checkProbe(&a.prog.Probes[i])
	}
}

func (a *Analyzer) checkFn(fn *ast.Fn) {
	a.scopes.push()
	defer a.scopes.pop()
	a.inFn = true
	a.fnReturn = a.resolveTypeSyn(fn.ReturnType)
	if fn.ReturnType.Name == "" {
		a.fnReturn = types.Void
	}
	a.hasRet = false
	for _, p := range fn.Params {
		a.scopes.declare(p.Name, a.resolveTypeSyn(p.Type), fn.Span)
	}
	a.checkStmt(fn.Body)
	a.inFn = false
}

func (a *Analyzer) checkProbe(p *ast.Probe) {
	a.scopes.push()
	defer a.scopes.pop()
	a.probe = p
	defer func() { a.probe = nil }()
	if p.Predicate.IsValid() {
		ty := a.checkExpr(p.Predicate)
		if !ty.IsNone() && !ty.IsNumericLike() {
			diag.Error(diag.BagReporter{Bag: a.bag}, diag.SemaInvalidPredicate, a.prog.Expr(p.Predicate).Span,
				fmt.Sprintf("Invalid type for predicate: %s", diagTypeName(ty))).Emit()
		}
	}
	a.checkStmt(p.Body)
}

func (a *Analyzer) pushLoop(k loopKind) { a.loopStack = append(a.loopStack, k) }
func (a *Analyzer) popLoop()            { a.loopStack = a.loopStack[:len(a.loopStack)-1] }
func (a *Analyzer) inLoop() bool        { return len(a.loopStack) > 0 }
func (a *Analyzer) inUnrollOnly() bool {
	if len(a.loopStack) == 0 {
		return false
	}
	return a.loopStack[len(a.loopStack)-1] == loopUnroll
}
