package diskcache

import "testing"

func TestPutGetRoundTrip(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	payload := &DiskPayload{
		Category:   "syscalls",
		Event:      "sys_enter_openat",
		StructName: "_tracepoint_syscalls_sys_enter_openat",
		Fields: []FieldPayload{
			{Name: "filename", CType: "const char *", Offset: 16, Size: 8},
		},
		ModTimeNS: 1000,
	}
	if err := c.Put("/sys/kernel/tracing/events", payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get("/sys/kernel/tracing/events", "syscalls", "sys_enter_openat", 1000)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got.StructName != payload.StructName || len(got.Fields) != 1 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestGetMissesOnModTimeChange(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	payload := &DiskPayload{Category: "syscalls", Event: "sys_enter_openat", ModTimeNS: 1000}
	if err := c.Put("/sys/kernel/tracing/events", payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	_, ok, err := c.Get("/sys/kernel/tracing/events", "syscalls", "sys_enter_openat", 2000)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected a cache miss after mtime changed")
	}
}

func TestGetMissesOnUnknownKey(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, ok, err := c.Get("/sys/kernel/tracing/events", "syscalls", "sys_enter_read", 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected a cache miss for a never-written key")
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	if err := c.Put("root", &DiskPayload{}); err != nil {
		t.Fatalf("Put on nil cache: %v", err)
	}
	_, ok, err := c.Get("root", "cat", "ev", 0)
	if err != nil || ok {
		t.Fatalf("Get on nil cache: ok=%v err=%v", ok, err)
	}
}

func TestDropAllRemovesEntries(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Put("root", &DiskPayload{Category: "syscalls", Event: "sys_enter_openat"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	_, ok, err := c.Get("root", "syscalls", "sys_enter_openat", 0)
	if err != nil {
		t.Fatalf("Get after DropAll: %v", err)
	}
	if ok {
		t.Fatal("expected a cache miss after DropAll")
	}
}
