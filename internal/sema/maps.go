package sema

import "tracesema/internal/types"

// mapTable is the global registry of `@name` maps encountered while
// checking a program, grounded in the teacher's internal/sema global
// symbol table (one flat map, since bpftrace-style maps have no lexical
// scope: every probe shares the same `@name` namespace).
type mapTable struct {
	entries map[string]*types.MapType
}

func newMapTable() *mapTable {
	return &mapTable{entries: make(map[string]*types.MapType)}
}

// lookupOrCreate returns the existing record for name, creating an
// unseeded one on first sight.
func (t *mapTable) lookupOrCreate(name string) *types.MapType {
	if m, ok := t.entries[name]; ok {
		return m
	}
	m := types.NewMapType(name)
	t.entries[name] = m
	return m
}

// unseededCount returns the number of maps still awaiting their first
// typed use, used by the analyser's fixed-point loop to detect
// convergence (no pass left anything newly seeded).
func (t *mapTable) unseededCount() int {
	n := 0
	for _, m := range t.entries {
		if m.FirstUse {
			n++
		}
	}
	return n
}
