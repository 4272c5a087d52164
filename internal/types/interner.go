package types

import (
	"sort"
	"sync"
)

// Interner seals named records by name so every `struct Foo` reference in
// a program resolves to the same *Struct, letting SizedType.Equal compare
// records by pointer identity. Grounded in the teacher's
// internal/types/interner.go name-keyed interning pattern, simplified
// from a TypeID-indexed table to a direct name->*Struct map since this
// module has no alias/generic-instantiation machinery to thread through
// indices for.
type Interner struct {
	mu      sync.Mutex
	records map[string]*Struct
	sealed  bool
}

// NewInterner creates an empty Interner.
func NewInterner() *Interner {
	return &Interner{records: make(map[string]*Struct)}
}

// Intern returns the canonical *Struct for name, registering s the first
// time name is seen. Once interned, a record's field list is treated as
// immutable for the remainder of semantic analysis (§3 Lifecycles).
func (in *Interner) Intern(name string, build func() *Struct) *Struct {
	in.mu.Lock()
	defer in.mu.Unlock()
	if existing, ok := in.records[name]; ok {
		return existing
	}
	s := build()
	s.Name = name
	in.records[name] = s
	return s
}

// Lookup returns the interned record named name, if any.
func (in *Interner) Lookup(name string) (*Struct, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	s, ok := in.records[name]
	return s, ok
}

// All returns every interned record, sorted by name for deterministic
// iteration (e.g. CLI output enumerating every tracepoint struct seen).
func (in *Interner) All() []*Struct {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]*Struct, 0, len(in.records))
	for _, s := range in.records {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Seal marks the interner read-only; later passes may still Lookup but
// must not register new records through it.
func (in *Interner) Seal() {
	in.mu.Lock()
	in.sealed = true
	in.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (in *Interner) Sealed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.sealed
}
