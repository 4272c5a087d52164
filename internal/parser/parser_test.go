package parser

import (
	"testing"

	"tracesema/internal/ast"
	"tracesema/internal/diag"
	"tracesema/internal/lexer"
	"tracesema/internal/source"
)

func parseSrc(t *testing.T, src string) (*ast.Program, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	fid := fs.AddFile("t.bt", []byte(src))
	bag := diag.NewBag(4)
	toks := lexer.New(fid, []byte(src), bag).Tokenize()
	prog := ast.NewProgram(fs, fid)
	New(toks, prog, bag).ParseProgram()
	t.Cleanup(func() {
		if t.Failed() && bag.HasErrors() {
			t.Logf("diagnostics: %s", diag.FormatGolden(bag.Items(), fs))
		}
	})
	return prog, bag
}

func TestParseSimpleMapAssign(t *testing.T) {
	prog, bag := parseSrc(t, `kprobe:f { @x = 0; @x = "a"; }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected syntax errors, count=%d", bag.Len())
	}
	if len(prog.Probes) != 1 {
		t.Fatalf("expected 1 probe, got %d", len(prog.Probes))
	}
	probe := prog.Probes[0]
	if probe.AttachPoints[0].Provider != "kprobe" || probe.AttachPoints[0].Target != "f" {
		t.Fatalf("unexpected attach point: %+v", probe.AttachPoints[0])
	}
	body := prog.Stmt(probe.Body)
	if body.Kind != ast.StmtBlock || len(body.Stmts) != 2 {
		t.Fatalf("expected block of 2 statements, got %+v", body)
	}
	first := prog.Stmt(body.Stmts[0])
	if first.Kind != ast.StmtAssign {
		t.Fatalf("expected assign stmt, got kind %v", first.Kind)
	}
	lhs := prog.Expr(first.AssignLHS)
	if lhs.Kind != ast.ExprMapAccess || lhs.Name != "x" {
		t.Fatalf("expected scalar map access to @x, got %+v", lhs)
	}
}

func TestParseMapWithKey(t *testing.T) {
	prog, bag := parseSrc(t, `BEGIN { @x[1] = 0; @x; }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected syntax errors, count=%d", bag.Len())
	}
	body := prog.Stmt(prog.Probes[0].Body)
	assign := prog.Stmt(body.Stmts[0])
	lhs := prog.Expr(assign.AssignLHS)
	if lhs.Kind != ast.ExprMapAccess || lhs.MapKey == 0 {
		t.Fatalf("expected keyed map access, got %+v", lhs)
	}
	key := prog.Expr(lhs.MapKey)
	if key.Kind != ast.ExprIntLit || key.IntValue != 1 {
		t.Fatalf("expected int key 1, got %+v", key)
	}
}

func TestParseCallArgsAndMapToMap(t *testing.T) {
	prog, bag := parseSrc(t, `kprobe:f { @x = count(); @y = @x; }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected syntax errors, count=%d", bag.Len())
	}
	body := prog.Stmt(prog.Probes[0].Body)
	first := prog.Stmt(body.Stmts[0])
	rhs := prog.Expr(first.AssignRHS)
	if rhs.Kind != ast.ExprCall || rhs.Name != "count" || len(rhs.Args) != 0 {
		t.Fatalf("expected count() call, got %+v", rhs)
	}
}

func TestParseBuiltinCallArity(t *testing.T) {
	prog, bag := parseSrc(t, `kprobe:f { @ = lhist(5, 0, 10); }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected syntax errors, count=%d", bag.Len())
	}
	body := prog.Stmt(prog.Probes[0].Body)
	first := prog.Stmt(body.Stmts[0])
	rhs := prog.Expr(first.AssignRHS)
	if rhs.Kind != ast.ExprCall || rhs.Name != "lhist" || len(rhs.Args) != 3 {
		t.Fatalf("expected lhist() with 3 args, got %+v", rhs)
	}
}

func TestParseLetAndReassign(t *testing.T) {
	prog, bag := parseSrc(t, `BEGIN { let $a: uint8 = 1; $a = 10000; }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected syntax errors, count=%d", bag.Len())
	}
	body := prog.Stmt(prog.Probes[0].Body)
	letStmt := prog.Stmt(body.Stmts[0])
	if letStmt.Kind != ast.StmtLet || letStmt.LetName != "a" || !letStmt.HasLetType || letStmt.LetType.Name != "uint8" {
		t.Fatalf("unexpected let statement: %+v", letStmt)
	}
	assign := prog.Stmt(body.Stmts[1])
	rhs := prog.Expr(assign.AssignRHS)
	if rhs.Kind != ast.ExprIntLit || rhs.IntValue != 10000 {
		t.Fatalf("expected literal 10000, got %+v", rhs)
	}
}

func TestParseForMapAndTupleIndex(t *testing.T) {
	prog, bag := parseSrc(t, `BEGIN { @map[0] = 1; for ($kv : @map) { print($kv.0); } }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected syntax errors, count=%d", bag.Len())
	}
	body := prog.Stmt(prog.Probes[0].Body)
	forStmt := prog.Stmt(body.Stmts[1])
	if forStmt.Kind != ast.StmtForMap || forStmt.ForMapVar != "kv" || forStmt.ForMapOf != "map" {
		t.Fatalf("unexpected for-map statement: %+v", forStmt)
	}
	inner := prog.Stmt(forStmt.ForMapBody)
	printStmt := prog.Stmt(inner.Stmts[0])
	call := prog.Expr(printStmt.Expr)
	if call.Kind != ast.ExprCall || call.Name != "print" || len(call.Args) != 1 {
		t.Fatalf("unexpected print call: %+v", call)
	}
	arg := prog.Expr(call.Args[0])
	if arg.Kind != ast.ExprTupleIndex || arg.TupleIdx != 0 {
		t.Fatalf("expected tuple index .0, got %+v", arg)
	}
}

func TestParsePredicate(t *testing.T) {
	prog, bag := parseSrc(t, `kprobe:f / "str" / { 123 }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected syntax errors, count=%d", bag.Len())
	}
	probe := prog.Probes[0]
	pred := prog.Expr(probe.Predicate)
	if pred.Kind != ast.ExprStringLit || pred.StringValue != "str" {
		t.Fatalf("expected string predicate, got %+v", pred)
	}
}

func TestParseCastDisambiguation(t *testing.T) {
	prog, bag := parseSrc(t, `kprobe:f { @y = (int64)@x; }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected syntax errors, count=%d", bag.Len())
	}
	body := prog.Stmt(prog.Probes[0].Body)
	assign := prog.Stmt(body.Stmts[0])
	rhs := prog.Expr(assign.AssignRHS)
	if rhs.Kind != ast.ExprCast || rhs.CastType.Name != "int64" {
		t.Fatalf("expected (int64) cast, got %+v", rhs)
	}
}

func TestParseTupleLiteralVsParen(t *testing.T) {
	prog, bag := parseSrc(t, `BEGIN { let $t = (1, 2); let $p = (1); }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected syntax errors, count=%d", bag.Len())
	}
	body := prog.Stmt(prog.Probes[0].Body)
	tup := prog.Expr(prog.Stmt(body.Stmts[0]).LetInit)
	if tup.Kind != ast.ExprTupleLit || len(tup.Args) != 2 {
		t.Fatalf("expected 2-element tuple literal, got %+v", tup)
	}
	paren := prog.Expr(prog.Stmt(body.Stmts[1]).LetInit)
	if paren.Kind != ast.ExprIntLit || paren.IntValue != 1 {
		t.Fatalf("expected plain literal from parenthesized expr, got %+v", paren)
	}
}

func TestParseUnrollAndTernary(t *testing.T) {
	prog, bag := parseSrc(t, `BEGIN { unroll(4) { let $a = 1 > 0 ? 1 : 2; } }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected syntax errors, count=%d", bag.Len())
	}
	body := prog.Stmt(prog.Probes[0].Body)
	unrollStmt := prog.Stmt(body.Stmts[0])
	if unrollStmt.Kind != ast.StmtUnroll {
		t.Fatalf("expected unroll statement, got %+v", unrollStmt)
	}
	n := prog.Expr(unrollStmt.UnrollCount)
	if n.IntValue != 4 {
		t.Fatalf("expected unroll count 4, got %+v", n)
	}
	inner := prog.Stmt(unrollStmt.UnrollBody)
	letStmt := prog.Stmt(inner.Stmts[0])
	ternary := prog.Expr(letStmt.LetInit)
	if ternary.Kind != ast.ExprTernary {
		t.Fatalf("expected ternary expr, got %+v", ternary)
	}
}

func TestParseFunctionDecl(t *testing.T) {
	prog, bag := parseSrc(t, `fn double($x: int64): int64 { return $x * 2; }`)
	if bag.HasErrors() {
		t.Fatalf("unexpected syntax errors, count=%d", bag.Len())
	}
	if len(prog.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(prog.Functions))
	}
	fn := prog.Functions[0]
	if fn.Name != "double" || len(fn.Params) != 1 || fn.Params[0].Name != "x" || fn.ReturnType.Name != "int64" {
		t.Fatalf("unexpected function decl: %+v", fn)
	}
}
