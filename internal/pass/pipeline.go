package pass

import (
	"errors"

	"tracesema/internal/ast"
	"tracesema/internal/diskcache"
	"tracesema/internal/lexer"
	"tracesema/internal/parser"
	"tracesema/internal/sema"
	"tracesema/internal/tpformat"
)

// LexPass tokenizes ctx.Src into ctx.Tokens.
func LexPass() Pass {
	return Pass{Name: "lex", Run: func(ctx *Context) error {
		ctx.Tokens = lexer.New(ctx.File, ctx.Src, ctx.Bag).Tokenize()
		return nil
	}}
}

// ParsePass builds ctx.Prog from ctx.Tokens.
func ParsePass() Pass {
	return Pass{Name: "parse", Run: func(ctx *Context) error {
		if ctx.Prog == nil {
			ctx.Prog = ast.NewProgram(ctx.FS, ctx.File)
		}
		parser.New(ctx.Tokens, ctx.Prog, ctx.Bag).ParseProgram()
		return nil
	}}
}

// TracepointPass resolves every `tracepoint:category:event` attach point
// in ctx.Prog against the tracefs tree rooted at eventsRoot, interning a
// struct for each into ctx.Structs. A program with no tracepoint attach
// points makes this a no-op. cache may be nil to disable the on-disk
// format cache.
func TracepointPass(eventsRoot string, verbose bool, cache *diskcache.Cache) Pass {
	return Pass{Name: "tracepoint", Run: func(ctx *Context) error {
		if ctx.Prog == nil {
			return errors.New("tracepoint pass requires a parsed program")
		}
		targets := collectTracepointTargets(ctx.Prog)
		if len(targets) == 0 {
			return nil
		}
		tpformat.NewParser(eventsRoot, ctx.Structs, ctx.Bag, verbose).WithCache(cache).ParseAll(targets)
		return nil
	}}
}

// SemaPass runs name resolution and type checking over ctx.Prog, honoring
// ctx.Config and ctx.Features.
func SemaPass() Pass {
	return Pass{Name: "sema", Run: func(ctx *Context) error {
		if ctx.Prog == nil {
			return errors.New("sema pass requires a parsed program")
		}
		sema.New(ctx.Prog, ctx.Bag, ctx.Structs).
			WithConfig(ctx.Config).
			WithFeatures(ctx.Features).
			Run()
		return nil
	}}
}

// collectTracepointTargets walks every probe's attach points looking for
// `tracepoint:category:event` entries; wildcard categories/events are
// passed through unexpanded, left for tpformat's own glob handling.
func collectTracepointTargets(prog *ast.Program) []tpformat.Target {
	var out []tpformat.Target
	for _, probe := range prog.Probes {
		for _, ap := range probe.AttachPoints {
			if ap.Provider != "tracepoint" || len(ap.Extra) == 0 {
				continue
			}
			out = append(out, tpformat.Target{
				Category: ap.Target,
				Event:    ap.Extra[0],
				Span:     ap.Span,
			})
		}
	}
	return out
}

// StandardPipeline registers the lex/parse/tracepoint/sema sequence on m,
// the same staged order every cmd/tracesema entry point runs. cache may
// be nil to disable the tracepoint format disk cache.
func StandardPipeline(m *Manager, eventsRoot string, verbose bool, cache *diskcache.Cache) {
	m.Register(LexPass())
	m.Register(ParsePass())
	m.Register(TracepointPass(eventsRoot, verbose, cache))
	m.Register(SemaPass())
}
