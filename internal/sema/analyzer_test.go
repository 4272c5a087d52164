package sema

import (
	"testing"

	"tracesema/internal/ast"
	"tracesema/internal/config"
	"tracesema/internal/diag"
	"tracesema/internal/lexer"
	"tracesema/internal/parser"
	"tracesema/internal/source"
	"tracesema/internal/types"
)

// checkSrc lexes, parses, and semantically analyses src, returning the
// resulting diagnostics bag. Syntax errors are folded into the same bag
// as semantic ones since both share the Analyzer's Reporter contract.
func checkSrc(t *testing.T, src string) *diag.Bag {
	t.Helper()
	fs := source.NewFileSet()
	fid := fs.AddFile("t.bt", []byte(src))
	bag := diag.NewBag(8)
	toks := lexer.New(fid, []byte(src), bag).Tokenize()
	prog := ast.NewProgram(fs, fid)
	parser.New(toks, prog, bag).ParseProgram()
	if bag.HasErrors() {
		t.Fatalf("syntax errors before semantic analysis: %+v", bag.Items())
	}
	New(prog, bag, types.NewInterner()).Run()
	return bag
}

// checkSrcWithStructs is checkSrc with a pre-populated struct interner,
// for field-access scenarios that reference `struct <name>`.
func checkSrcWithStructs(t *testing.T, src string, structs *types.Interner) *diag.Bag {
	t.Helper()
	fs := source.NewFileSet()
	fid := fs.AddFile("t.bt", []byte(src))
	bag := diag.NewBag(8)
	toks := lexer.New(fid, []byte(src), bag).Tokenize()
	prog := ast.NewProgram(fs, fid)
	parser.New(toks, prog, bag).ParseProgram()
	if bag.HasErrors() {
		t.Fatalf("syntax errors before semantic analysis: %+v", bag.Items())
	}
	New(prog, bag, structs).Run()
	return bag
}

// checkSrcOpts is checkSrc with a hook to configure the Analyzer (safe
// mode, feature set) before Run.
func checkSrcOpts(t *testing.T, src string, configure func(*Analyzer)) *diag.Bag {
	t.Helper()
	fs := source.NewFileSet()
	fid := fs.AddFile("t.bt", []byte(src))
	bag := diag.NewBag(8)
	toks := lexer.New(fid, []byte(src), bag).Tokenize()
	prog := ast.NewProgram(fs, fid)
	parser.New(toks, prog, bag).ParseProgram()
	if bag.HasErrors() {
		t.Fatalf("syntax errors before semantic analysis: %+v", bag.Items())
	}
	an := New(prog, bag, types.NewInterner())
	configure(an)
	an.Run()
	return bag
}

func firstErrorMessage(t *testing.T, bag *diag.Bag) string {
	t.Helper()
	for _, d := range bag.Items() {
		if d.Severity == diag.SevError {
			return d.Message
		}
	}
	t.Fatalf("expected at least one error diagnostic, got none (%d items)", bag.Len())
	return ""
}

func TestMapValueTypeMismatch(t *testing.T) {
	bag := checkSrc(t, `kprobe:f { @x = 0; @x = "a"; }`)
	want := "Type mismatch for @x: trying to assign value of type 'string' when map already contains a value of type 'int64'"
	if got := firstErrorMessage(t, bag); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMapScalarityConflict(t *testing.T) {
	bag := checkSrc(t, `BEGIN { @x[1] = 0; @x; }`)
	want := "@x used as a map without an explicit key (scalar map), previously used with an explicit key (non-scalar map)"
	if got := firstErrorMessage(t, bag); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMapFromMapAssign(t *testing.T) {
	bag := checkSrc(t, `kprobe:f { @x = count(); @y = @x; }`)
	want := "Map value 'count_t' cannot be assigned from one map to another."
	if got := firstErrorMessage(t, bag); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	var hint string
	for _, d := range bag.Items() {
		if d.Message == want {
			hint = d.Hint
		}
	}
	if hint != "@y = (int64)@x;" {
		t.Fatalf("unexpected hint: %q", hint)
	}
}

func TestLhistArity(t *testing.T) {
	bag := checkSrc(t, `kprobe:f { @ = lhist(5, 0, 10); }`)
	want := "lhist() requires 4 arguments (3 provided)"
	if got := firstErrorMessage(t, bag); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestTSeriesIntervalBound(t *testing.T) {
	bag := checkSrc(t, `kprobe:f { @ = tseries(1, 10s, 0); }`)
	want := "tseries() num_intervals must be >= 1 (0 provided)"
	if got := firstErrorMessage(t, bag); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLiteralDoesNotFit(t *testing.T) {
	bag := checkSrc(t, `BEGIN { let $a: uint8 = 1; $a = 10000; }`)
	want := "Type mismatch for $a: trying to assign value '10000' which does not fit into the variable of type 'uint8'"
	if got := firstErrorMessage(t, bag); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestForMapInductionTyping(t *testing.T) {
	bag := checkSrc(t, `BEGIN { @map[0] = 1; for ($kv : @map) { print($kv.0); } }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func TestInvalidPredicateType(t *testing.T) {
	bag := checkSrc(t, `kprobe:f / "str" / { 123 }`)
	want := "Invalid type for predicate: string"
	if got := firstErrorMessage(t, bag); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBareAssignDeclaresVariable(t *testing.T) {
	bag := checkSrc(t, `BEGIN { $a = 1; $a = 2; }`)
	if bag.HasErrors() {
		t.Fatalf("a bare assignment should declare the variable, not error: %+v", bag.Items())
	}
}

func TestUndefinedVariableInReadPosition(t *testing.T) {
	bag := checkSrc(t, `BEGIN { $a = $b; }`)
	want := "undefined variable '$b'"
	if got := firstErrorMessage(t, bag); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBreakOutsideLoop(t *testing.T) {
	bag := checkSrc(t, `BEGIN { break; }`)
	if !bag.HasErrors() {
		t.Fatal("expected a break-outside-loop error")
	}
}

func TestUnrollBoundOutOfRange(t *testing.T) {
	bag := checkSrc(t, `BEGIN { unroll(200) { let $a = 1; } }`)
	if !bag.HasErrors() {
		t.Fatal("expected an unroll-bound error")
	}
}

func TestShadowingIsAnErrorWithHintAtOriginal(t *testing.T) {
	bag := checkSrc(t, `BEGIN { let $a = 1; if (1) { let $a = 2; } }`)
	if !bag.HasErrors() {
		t.Fatalf("shadowing an outer let must be an error: %+v", bag.Items())
	}
	var found *diag.Diagnostic
	for i := range bag.Items() {
		if bag.Items()[i].Code == diag.SemaShadowedVar {
			found = &bag.Items()[i]
		}
	}
	if found == nil {
		t.Fatalf("expected a shadowed-var error, got %+v", bag.Items())
	}
	if len(found.Notes) == 0 {
		t.Fatalf("expected a note pointing at the original declaration, got %+v", found)
	}
	if found.Hint == "" {
		t.Fatalf("expected a hint pointing at the original declaration")
	}
}

func TestSafeModeForbidsSystem(t *testing.T) {
	bag := checkSrcOpts(t, `BEGIN { system("ls"); }`, func(a *Analyzer) {
		a.WithConfig(config.Config{SafeMode: true})
	})
	if !bag.HasErrors() {
		t.Fatal("expected safe-mode error for system()")
	}
}

func TestFeatureGatingForbidsSignalWithoutFeature(t *testing.T) {
	bag := checkSrcOpts(t, `kprobe:f { signal(9); }`, func(a *Analyzer) {
		a.WithFeatures(FeatureSet(0))
	})
	if !bag.HasErrors() {
		t.Fatal("expected a feature-unavailable error for signal()")
	}
}

func TestFeatureGatingAllowsSignalWithFeature(t *testing.T) {
	bag := checkSrcOpts(t, `kprobe:f { signal(9); }`, func(a *Analyzer) {
		a.WithFeatures(NewFeatureSet(FeatureSignal))
	})
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func TestArgsOutsideAllowedProbeFamily(t *testing.T) {
	bag := checkSrc(t, `kprobe:f { args.foo; }`)
	if !bag.HasErrors() {
		t.Fatal("expected a ctx-outside-allowed error for args in a kprobe")
	}
}

func TestArgsAllowedInTracepoint(t *testing.T) {
	bag := checkSrc(t, `tracepoint:syscalls:sys_enter_openat { args; }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func newType1Interner() *types.Interner {
	in := types.NewInterner()
	in.Intern("type1", func() *types.Struct {
		return &types.Struct{Fields: []types.Field{{Name: "field", Type: types.Int64}}}
	})
	return in
}

func TestDotThroughPointerIsRejected(t *testing.T) {
	bag := checkSrcWithStructs(t, `BEGIN { ((struct type1*)0).field; }`, newType1Interner())
	if !bag.HasErrors() {
		t.Fatal("expected an error for '.' through a pointer")
	}
}

func TestArrowThroughPointerIsAccepted(t *testing.T) {
	bag := checkSrcWithStructs(t, `BEGIN { ((struct type1*)0)->field; }`, newType1Interner())
	if bag.HasErrors() {
		t.Fatalf("unexpected errors for '->' through a pointer: %+v", bag.Items())
	}
}

func TestArrowThroughValueIsRejected(t *testing.T) {
	bag := checkSrcWithStructs(t, `BEGIN { ((struct type1)0)->field; }`, newType1Interner())
	if !bag.HasErrors() {
		t.Fatal("expected an error for '->' through a value")
	}
}

func TestHistMustBeAssignedDirectlyToMap(t *testing.T) {
	cases := []string{
		`kprobe:f { $x = hist(1); }`,
		`kprobe:f { hist(1); }`,
		`kprobe:f { @x[hist(1)] = 1; }`,
		`kprobe:f { if (hist(1)) { } }`,
	}
	for _, src := range cases {
		bag := checkSrc(t, src)
		if !bag.HasErrors() {
			t.Fatalf("expected a must-be-assigned-directly error for %q", src)
		}
	}
}

func TestHistDirectMapAssignmentIsAccepted(t *testing.T) {
	bag := checkSrc(t, `kprobe:f { @x = hist(1); }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func TestHistBitsOutOfRange(t *testing.T) {
	bag := checkSrc(t, `kprobe:f { @x = hist(1, 10); }`)
	if !bag.HasErrors() {
		t.Fatal("expected a bits-out-of-range error for hist()")
	}
}

func TestHistBitsMustBeLiteral(t *testing.T) {
	bag := checkSrc(t, `kprobe:f { let $n = 2; @x = hist(1, $n); }`)
	if !bag.HasErrors() {
		t.Fatal("expected a literal-required error for hist()'s bits argument")
	}
}

func TestMapUseBeforeAssignIsAccepted(t *testing.T) {
	bag := checkSrc(t, `kprobe:f { @x = @y; @y = 2; }`)
	if bag.HasErrors() {
		t.Fatalf("forward map reference should resolve via the fixed-point pass: %+v", bag.Items())
	}
}

func TestCtxCaptureForbiddenInForLoop(t *testing.T) {
	bag := checkSrc(t, `tracepoint:syscalls:sys_enter_openat { for ($i : 0..9) { args; } }`)
	if !bag.HasErrors() {
		t.Fatal("expected a ctx-outside-allowed error for args read inside a for-loop body")
	}
}

func TestCtxReadOutsideLoopIsAccepted(t *testing.T) {
	bag := checkSrc(t, `tracepoint:syscalls:sys_enter_openat { args; }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func TestFunctionCallArity(t *testing.T) {
	bag := checkSrc(t, `fn double($x: int64): int64 { return $x * 2; } BEGIN { double(1, 2); }`)
	want := "double() requires 1 arguments (2 provided)"
	if got := firstErrorMessage(t, bag); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
