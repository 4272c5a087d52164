package diag

import (
	"fmt"
	"sort"
)

// Bag is an append-only, order-preserving collection of diagnostics for a
// single analysis run. Passes only ever add to a Bag; nothing is ever
// removed mid-pass, matching spec's "collected, not thrown" propagation
// policy.
type Bag struct {
	items []Diagnostic
}

// NewBag creates an empty Bag with capHint pre-allocated slots.
func NewBag(capHint int) *Bag {
	return &Bag{items: make([]Diagnostic, 0, capHint)}
}

// Add appends a diagnostic in encounter order.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// HasErrors reports whether any diagnostic has SevError severity.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

// Len returns the number of diagnostics collected.
func (b *Bag) Len() int { return len(b.items) }

// Items returns the diagnostics in encounter order. Callers must not
// mutate the returned slice.
func (b *Bag) Items() []Diagnostic { return b.items }

// Merge appends every diagnostic from other, preserving its internal
// encounter order after this Bag's existing items.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

// SortBySpan orders diagnostics by file, then start offset, then end
// offset, then severity (errors first), then code — for stable,
// deterministic output independent of traversal order.
func (b *Bag) SortBySpan() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// Dedup removes diagnostics that repeat an earlier (Code, Primary) pair.
func (b *Bag) Dedup() {
	seen := make(map[string]bool, len(b.items))
	kept := make([]Diagnostic, 0, len(b.items))
	for _, d := range b.items {
		key := fmt.Sprintf("%d:%s", d.Code, d.Primary.String())
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, d)
	}
	b.items = kept
}
