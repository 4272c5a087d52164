package diag

import (
	"testing"

	"tracesema/internal/source"
)

func TestBagHasErrors(t *testing.T) {
	b := NewBag(4)
	if b.HasErrors() {
		t.Fatal("empty bag should not have errors")
	}
	b.Add(Diagnostic{Severity: SevWarning})
	if b.HasErrors() {
		t.Fatal("warning-only bag should not have errors")
	}
	b.Add(Diagnostic{Severity: SevError})
	if !b.HasErrors() {
		t.Fatal("expected HasErrors true")
	}
}

func TestBagSortBySpan(t *testing.T) {
	b := NewBag(4)
	b.Add(Diagnostic{Primary: source.Span{File: 1, Start: 10}, Code: 2})
	b.Add(Diagnostic{Primary: source.Span{File: 1, Start: 2}, Code: 1})
	b.SortBySpan()
	items := b.Items()
	if items[0].Primary.Start != 2 {
		t.Fatalf("expected sorted order, got %+v", items)
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(4)
	sp := source.Span{File: 1, Start: 1, End: 2}
	b.Add(Diagnostic{Primary: sp, Code: SemaUndefinedVar, Message: "a"})
	b.Add(Diagnostic{Primary: sp, Code: SemaUndefinedVar, Message: "a again"})
	b.Dedup()
	if b.Len() != 1 {
		t.Fatalf("expected dedup to collapse to 1, got %d", b.Len())
	}
}

func TestFormatGolden(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddFile("t.bt", []byte("kprobe:f { @x = 1; }\n"))
	b := NewBag(1)
	b.Add(Diagnostic{Severity: SevError, Code: SemaUndefinedVar, Primary: source.Span{File: id, Start: 0, End: 1}, Message: "boom"})
	got := FormatGolden(b.Items(), fs)
	want := "t.bt:1:1: ERROR undefined-var: boom"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
