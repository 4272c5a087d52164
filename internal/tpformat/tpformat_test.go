package tpformat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tracesema/internal/diag"
	"tracesema/internal/diskcache"
	"tracesema/internal/types"
)

// writeFormat creates <root>/<category>/<event>/format with body.
func writeFormat(t *testing.T, root, category, event, body string) {
	t.Helper()
	dir := filepath.Join(root, category, event)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "format"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

const openatFormat = `name: sys_enter_openat
ID: 548
format:
	field:unsigned short common_type;	offset:0;	size:2;	signed:0;
	field:int __syscall_nr;	offset:8;	size:4;	signed:1;
	field:int dfd;	offset:16;	size:4;	signed:0;
	field:const char * filename;	offset:24;	size:8;	signed:0;
	field:int flags;	offset:32;	size:4;	signed:0;

print fmt: "dfd: 0x%08lx, filename: 0x%08lx, flags: 0x%08lx", ((unsigned long)(REC->dfd)), ((unsigned long)(REC->filename)), ((unsigned long)(REC->flags))
`

func TestParseSingleEvent(t *testing.T) {
	root := t.TempDir()
	writeFormat(t, root, "syscalls", "sys_enter_openat", openatFormat)

	structs := types.NewInterner()
	bag := diag.NewBag(4)
	p := NewParser(root, structs, bag, false)
	p.ParseAll([]Target{{Category: "syscalls", Event: "sys_enter_openat"}})

	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	s, ok := structs.Lookup("_tracepoint_syscalls_sys_enter_openat")
	if !ok {
		t.Fatal("struct not registered")
	}
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	// common_type ends at offset 2, __syscall_nr starts at 8: six pad bytes.
	wantFirstPad := "__pad_2"
	if names[1] != wantFirstPad {
		t.Fatalf("expected padding at index 1, got %q (fields: %v)", names[1], names)
	}
	dfd := s.FieldByName("dfd")
	if dfd == nil || !dfd.Type.Equal(types.Int(32, false)) {
		t.Fatalf("dfd: got %+v", dfd)
	}
	nr := s.FieldByName("__syscall_nr")
	if nr == nil || !nr.Type.Equal(types.Int(32, true)) {
		t.Fatalf("__syscall_nr: got %+v", nr)
	}
}

func TestDataLocFieldRewritten(t *testing.T) {
	root := t.TempDir()
	writeFormat(t, root, "syscalls", "sys_enter_execve", `
	field:int nr;	offset:0;	size:4;	signed:1;
	field:__data_loc char * filename;	offset:8;	size:4;	signed:0;
`)
	structs := types.NewInterner()
	bag := diag.NewBag(4)
	p := NewParser(root, structs, bag, false)
	p.ParseAll([]Target{{Category: "syscalls", Event: "sys_enter_execve"}})

	s, _ := structs.Lookup("_tracepoint_syscalls_sys_enter_execve")
	fn := s.FieldByName("filename")
	if fn == nil || !fn.Type.Equal(types.UInt64) {
		t.Fatalf("expected __data_loc field rewritten to u64, got %+v", fn)
	}
}

func TestWideningSize8(t *testing.T) {
	root := t.TempDir()
	writeFormat(t, root, "cat", "wide", `
	field:int a;	offset:0;	size:8;	signed:1;
	field:unsigned int b;	offset:8;	size:8;	signed:0;
`)
	structs := types.NewInterner()
	bag := diag.NewBag(4)
	p := NewParser(root, structs, bag, false)
	p.ParseAll([]Target{{Category: "cat", Event: "wide"}})

	s, _ := structs.Lookup("_tracepoint_cat_wide")
	a := s.FieldByName("a")
	b := s.FieldByName("b")
	if a == nil || !a.Type.Equal(types.Int(64, true)) {
		t.Fatalf("a: got %+v, want s64", a)
	}
	if b == nil || !b.Type.Equal(types.Int(64, false)) {
		t.Fatalf("b: got %+v, want u64", b)
	}
}

func TestArrayField(t *testing.T) {
	root := t.TempDir()
	writeFormat(t, root, "cat", "arr", `
	field:char comm[16];	offset:0;	size:16;	signed:0;
`)
	structs := types.NewInterner()
	bag := diag.NewBag(4)
	p := NewParser(root, structs, bag, false)
	p.ParseAll([]Target{{Category: "cat", Event: "arr"}})

	s, _ := structs.Lookup("_tracepoint_cat_arr")
	comm := s.FieldByName("comm")
	if comm == nil || comm.Type.Kind != types.KindArray || comm.Type.Count != 16 {
		t.Fatalf("comm: got %+v", comm)
	}
}

func TestWildcardExpandsAndDedups(t *testing.T) {
	root := t.TempDir()
	writeFormat(t, root, "sched", "sched_wakeup", `field:int pid;	offset:0;	size:4;	signed:1;`)
	writeFormat(t, root, "sched", "sched_wakeup_new", `field:int pid;	offset:0;	size:4;	signed:1;`)
	writeFormat(t, root, "sched", "sched_switch", `field:int prev_pid;	offset:0;	size:4;	signed:1;`)

	structs := types.NewInterner()
	bag := diag.NewBag(4)
	p := NewParser(root, structs, bag, false)
	p.ParseAll([]Target{
		{Category: "sched", Event: "sched_wakeup*"},
		{Category: "sched", Event: "sched_wakeup"}, // already interned, must not be reparsed
	})

	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if _, ok := structs.Lookup("_tracepoint_sched_sched_wakeup"); !ok {
		t.Fatal("missing sched_wakeup")
	}
	if _, ok := structs.Lookup("_tracepoint_sched_sched_wakeup_new"); !ok {
		t.Fatal("missing sched_wakeup_new")
	}
	if _, ok := structs.Lookup("_tracepoint_sched_sched_switch"); ok {
		t.Fatal("sched_switch should not match the sched_wakeup* wildcard")
	}
}

func TestWildcardNoMatchSyscallHint(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(root, 0o755)

	structs := types.NewInterner()
	bag := diag.NewBag(4)
	p := NewParser(root, structs, bag, false)
	p.ParseAll([]Target{{Category: "syscall", Event: "sys_enter_*"}})

	if !bag.HasErrors() {
		t.Fatal("expected a no-match error")
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.TPFormatNoMatch {
			found = true
			if d.Hint == "" {
				t.Fatal("expected a syscalls: hint")
			}
		}
	}
	if !found {
		t.Fatal("expected TPFormatNoMatch diagnostic")
	}
}

func TestDiskCacheServesSecondParseWithoutRereading(t *testing.T) {
	root := t.TempDir()
	writeFormat(t, root, "syscalls", "sys_enter_openat", openatFormat)
	path := filepath.Join(root, "syscalls", "sys_enter_openat", "format")
	fixedMTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, fixedMTime, fixedMTime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	cache, err := diskcache.Open(t.TempDir())
	if err != nil {
		t.Fatalf("diskcache.Open: %v", err)
	}

	structs := types.NewInterner()
	bag := diag.NewBag(4)
	NewParser(root, structs, bag, false).WithCache(cache).
		ParseAll([]Target{{Category: "syscalls", Event: "sys_enter_openat"}})
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}

	// Corrupt the file on disk but restore the exact mtime the cache
	// entry keys on; a re-read would now fail to find "dfd" at all,
	// so resolving it correctly below proves the cache served the
	// second parse instead of touching the file again.
	if err := os.WriteFile(path, []byte("not a format file"), 0o644); err != nil {
		t.Fatalf("corrupt write: %v", err)
	}
	if err := os.Chtimes(path, fixedMTime, fixedMTime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	structs2 := types.NewInterner()
	bag2 := diag.NewBag(4)
	NewParser(root, structs2, bag2, false).WithCache(cache).
		ParseAll([]Target{{Category: "syscalls", Event: "sys_enter_openat"}})
	if bag2.HasErrors() {
		t.Fatalf("unexpected errors on cached parse: %+v", bag2.Items())
	}
	s, ok := structs2.Lookup("_tracepoint_syscalls_sys_enter_openat")
	if !ok {
		t.Fatal("struct not registered from cached parse")
	}
	dfd := s.FieldByName("dfd")
	if dfd == nil || !dfd.Type.Equal(types.Int(32, false)) {
		t.Fatalf("dfd from cached parse: got %+v", dfd)
	}
}

func TestSingleEventNotFoundWarns(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "syscalls"), 0o755)

	structs := types.NewInterner()
	bag := diag.NewBag(4)
	p := NewParser(root, structs, bag, false)
	p.ParseAll([]Target{{Category: "syscalls", Event: "sys_enter_bogus"}})

	if bag.HasErrors() {
		t.Fatalf("not-found should warn, not error: %+v", bag.Items())
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.TPFormatNotFound {
		t.Fatalf("expected exactly one TPFormatNotFound warning, got %+v", bag.Items())
	}
}
