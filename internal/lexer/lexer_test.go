package lexer

import (
	"testing"

	"tracesema/internal/diag"
	"tracesema/internal/source"
	"tracesema/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeBasic(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddFile("t.bt", []byte(`kprobe:f { @x = $1 + 10s; }`))
	bag := diag.NewBag(4)
	toks := New(id, fs.File(id).Content, bag).Tokenize()
	if bag.HasErrors() {
		t.Fatalf("unexpected lex errors: %v", bag.Items())
	}
	got := kinds(toks)
	want := []token.Kind{
		token.Ident, token.Colon, token.Ident, token.LBrace,
		token.MapVar, token.Assign, token.Param, token.Plus, token.DurationLit, token.Semicolon,
		token.RBrace, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("at %d: got %v want %v (full %v)", i, got[i], want[i], got)
		}
	}
}

func TestTokenizeStringAndComment(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddFile("t.bt", []byte("// hi\n@x = \"ab\\\"c\";"))
	toks := New(id, fs.File(id).Content, nil).Tokenize()
	if toks[0].Kind != token.MapVar {
		t.Fatalf("expected comment skipped, got %v", toks[0].Kind)
	}
	var str token.Token
	for _, tk := range toks {
		if tk.Kind == token.StringLit {
			str = tk
		}
	}
	if str.Text != `ab\"c` {
		t.Fatalf("got %q", str.Text)
	}
}

func TestUnterminatedString(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddFile("t.bt", []byte(`"abc`))
	bag := diag.NewBag(4)
	New(id, fs.File(id).Content, bag).Tokenize()
	if !bag.HasErrors() {
		t.Fatal("expected unterminated string error")
	}
}
