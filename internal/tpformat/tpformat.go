// Package tpformat implements the tracepoint format parser: given a set
// of tracepoint attach points, it reads the tracefs-style
// `<events_root>/<category>/<event>/format` files and synthesizes a
// record type per event, named `_tracepoint_<category>_<event>`, for the
// semantic analyser to resolve `args` field access against.
//
// Grounded in original_source/src/tracepoint_format_parser.cpp: the glob
// expansion, field-line grammar, and integer-widening table are ports of
// that file's logic, re-expressed idiomatically (no istream/ofstream
// plumbing, no global struct_list — dedup is delegated to
// internal/types.Interner, which already refuses to rebuild a record
// once interned under a given name).
package tpformat

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"tracesema/internal/diag"
	"tracesema/internal/diskcache"
	"tracesema/internal/source"
	"tracesema/internal/types"
)

// Target names one tracepoint attach point's category and event, as
// parsed from a `tracepoint:<category>:<event>` attach string; either
// half may carry `*`/`?` wildcards.
type Target struct {
	Category string
	Event    string
	Span     source.Span
}

// Parser holds the state needed to resolve Targets against a tracefs
// layout: the events root, the shared record interner new structs are
// registered into, and the diagnostic sink.
type Parser struct {
	eventsRoot string
	structs    *types.Interner
	bag        *diag.Bag
	verbose    bool
	cache      *diskcache.Cache

	btfTypes map[string]bool
}

// WithCache installs a disk cache consulted before (and populated after)
// reading a format file, returning p for chaining. A nil cache disables
// caching without the caller needing a conditional.
func (p *Parser) WithCache(c *diskcache.Cache) *Parser {
	p.cache = c
	return p
}

// NewParser creates a Parser rooted at eventsRoot. structs is the shared
// interner structs are registered into (typically the same interner the
// analyser resolves `struct`/`enum` type syntax against); verbose widens
// a not-found single event from a bare warning to one carrying the
// underlying OS error.
func NewParser(eventsRoot string, structs *types.Interner, bag *diag.Bag, verbose bool) *Parser {
	return &Parser{
		eventsRoot: eventsRoot,
		structs:    structs,
		bag:        bag,
		verbose:    verbose,
		btfTypes:   make(map[string]bool),
	}
}

// DefaultEventsRoot returns the first existing well-known tracefs events
// directory, per spec §6's external-interface layout, falling back to
// the tracefs (non-debugfs) path if neither exists yet.
func DefaultEventsRoot() string {
	for _, root := range []string{
		"/sys/kernel/tracing/events",
		"/sys/kernel/debug/tracing/events",
	} {
		if st, err := os.Stat(root); err == nil && st.IsDir() {
			return root
		}
	}
	return "/sys/kernel/tracing/events"
}

// BTFTypes returns the set of raw C type names referenced by fields seen
// so far, sorted for deterministic output. Downstream BTF-based type
// resolution (out of scope here) consumes this to decide which kernel
// headers it can skip including.
func (p *Parser) BTFTypes() []string {
	out := make([]string, 0, len(p.btfTypes))
	for t := range p.btfTypes {
		out = append(out, t)
	}
	return out
}

// ParseAll resolves every target, registering one synthetic record per
// distinct (category, event) pair into the Parser's interner. Diagnostics
// for missing/ambiguous events are appended to the Parser's Bag; ParseAll
// itself never returns an error; filesystem failures are diagnostics,
// not Go errors, per spec §5.
func (p *Parser) ParseAll(targets []Target) {
	for _, t := range targets {
		p.parseOne(t)
	}
}

func (p *Parser) parseOne(t Target) {
	if hasWildcard(t.Category) || hasWildcard(t.Event) {
		p.parseWildcard(t)
		return
	}
	p.parseSingle(t)
}

func (p *Parser) parseSingle(t Target) {
	path := filepath.Join(p.eventsRoot, t.Category, t.Event, "format")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b := diag.Warning(diag.BagReporter{Bag: p.bag}, diag.TPFormatNotFound, t.Span,
				fmt.Sprintf("tracepoint not found: %s:%s", t.Category, t.Event))
			if t.Category == "syscall" {
				b = b.Hint(fmt.Sprintf("Did you mean syscalls:%s?", t.Event))
			}
			if p.verbose {
				b = b.Note(t.Span, fmt.Sprintf("%s: %s", err.Error(), path))
			}
			b.Emit()
			return
		}
		diag.Error(diag.BagReporter{Bag: p.bag}, diag.TPFormatStatError, t.Span,
			fmt.Sprintf("unexpected error: %s", err)).Emit()
		return
	}
	p.parseFormatFile(t.Category, t.Event, path, t.Span)
}

func (p *Parser) parseWildcard(t Target) {
	matches, err := p.globTargets(t.Category, t.Event)
	if err != nil {
		diag.Error(diag.BagReporter{Bag: p.bag}, diag.TPFormatStatError, t.Span,
			fmt.Sprintf("unexpected error: %s", err)).Emit()
		return
	}
	if len(matches) == 0 {
		b := diag.Error(diag.BagReporter{Bag: p.bag}, diag.TPFormatNoMatch, t.Span,
			fmt.Sprintf("tracepoints not found: %s:%s", t.Category, t.Event))
		if t.Category == "syscall" {
			b = b.Hint(fmt.Sprintf("Did you mean syscalls:%s?", t.Event))
		}
		b.Emit()
		return
	}
	for _, m := range matches {
		p.parseFormatFile(m.Category, m.Event, m.Path, t.Span)
	}
}

// structName builds the synthetic record name a tracepoint's `args`
// field access resolves against.
func structName(category, event string) string {
	return fmt.Sprintf("_tracepoint_%s_%s", category, event)
}

// parseFormatFile reads and parses one format file, registering the
// resulting record under its struct name. Records are interned, so a
// (category, event) pair already seen by a prior target is never
// re-parsed (spec §4.7 "duplicate declarations ... deduplicated by
// struct name").
func (p *Parser) parseFormatFile(category, event, path string, span source.Span) *types.Struct {
	name := structName(category, event)
	return p.structs.Intern(name, func() *types.Struct {
		st, statErr := os.Stat(path)
		var modTimeNS int64
		if statErr == nil {
			modTimeNS = st.ModTime().UnixNano()
			if raws, ok := p.readCachedFields(category, event, modTimeNS); ok {
				return &types.Struct{Name: name, Fields: p.buildStructFields(raws, span)}
			}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			diag.Error(diag.BagReporter{Bag: p.bag}, diag.TPFormatStatError, span,
				fmt.Sprintf("unexpected error reading %s: %s", path, err)).Emit()
			return &types.Struct{Name: name}
		}
		raws := parseFormatLines(string(data))
		if statErr == nil {
			p.writeCachedFields(category, event, name, modTimeNS, raws)
		}
		return &types.Struct{Name: name, Fields: p.buildStructFields(raws, span)}
	})
}

// readCachedFields consults the disk cache for a field list parsed from
// this exact format file content (keyed on its mtime), sparing the
// os.ReadFile and line-grammar parse below when it hits.
func (p *Parser) readCachedFields(category, event string, modTimeNS int64) ([]formatField, bool) {
	if p.cache == nil {
		return nil, false
	}
	payload, ok, err := p.cache.Get(p.eventsRoot, category, event, modTimeNS)
	if err != nil || !ok {
		return nil, false
	}
	raws := make([]formatField, len(payload.Fields))
	for i, fp := range payload.Fields {
		raws[i] = formatField{
			Name:     fp.Name,
			CType:    fp.CType,
			Offset:   fp.Offset,
			Size:     fp.Size,
			Signed:   fp.Signed,
			ArrayLen: fp.ArrayLen,
			DataLoc:  fp.DataLoc,
		}
	}
	return raws, true
}

func (p *Parser) writeCachedFields(category, event, structName string, modTimeNS int64, raws []formatField) {
	if p.cache == nil {
		return
	}
	fps := make([]diskcache.FieldPayload, len(raws))
	for i, r := range raws {
		fps[i] = diskcache.FieldPayload{
			Name:     r.Name,
			CType:    r.CType,
			Offset:   r.Offset,
			Size:     r.Size,
			Signed:   r.Signed,
			ArrayLen: r.ArrayLen,
			DataLoc:  r.DataLoc,
		}
	}
	p.cache.Put(p.eventsRoot, &diskcache.DiskPayload{
		Category:   category,
		Event:      event,
		StructName: structName,
		Fields:     fps,
		ModTimeNS:  modTimeNS,
	})
}
