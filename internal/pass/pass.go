// Package pass implements the pass manager: a small, ordered scheduler
// that runs named Pass values over a shared Context, one to completion
// before the next begins, matching spec §5's "a pass runs to completion
// before the next begins" concurrency model.
//
// Grounded in the teacher's internal/driver.DiagnoseWithOptions, which
// runs tokenize/parse/imports-graph/symbols stages in a fixed sequence
// against shared state (a *source.FileSet, a *diag.Bag, ...), timing
// each stage with internal/observ.Timer and reporting phase boundaries
// through a PhaseObserver callback (internal/driver/phase_observer.go).
// This package generalizes that fixed inline sequence into a registered
// list of Pass values so the ten-stage pipeline from spec §2 can be
// assembled and re-sequenced without touching the scheduler itself.
package pass

import (
	"fmt"
	"time"

	"tracesema/internal/ast"
	"tracesema/internal/config"
	"tracesema/internal/diag"
	"tracesema/internal/sema"
	"tracesema/internal/source"
	"tracesema/internal/token"
	"tracesema/internal/types"
)

// Context carries every resource a Pass may need, put in place by earlier
// passes and read by later ones — the "puts shared resources into a
// pass.Context" scheduler design note.
type Context struct {
	FS     *source.FileSet
	File   source.FileID
	Src    []byte
	Tokens []token.Token
	Prog   *ast.Program

	Structs  *types.Interner
	Config   config.Config
	Features sema.FeatureSet

	Bag *diag.Bag
}

// NewContext creates a Context ready to run the lex/parse/tracepoint/sema
// pipeline over src, reporting into bag.
func NewContext(fs *source.FileSet, file source.FileID, src []byte, bag *diag.Bag) *Context {
	return &Context{
		FS:       fs,
		File:     file,
		Src:      src,
		Structs:  types.NewInterner(),
		Config:   config.Default(),
		Features: sema.AllFeatures(),
		Bag:      bag,
	}
}

// Pass is one named stage of the pipeline. Run should report ordinary
// failures as diagnostics into ctx.Bag; a non-nil return is reserved for
// a structural failure that makes every later pass meaningless (spec §5
// "short-circuiting only when the AST is malformed").
type Pass struct {
	Name string
	Run  func(ctx *Context) error
}

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes one pass's start or completion, emitted to a
// Manager's Observer if set.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
}

// Observer receives phase boundary events as a Manager runs its passes.
type Observer func(PhaseEvent)

// Manager runs a fixed, registered sequence of passes over one Context.
type Manager struct {
	passes   []Pass
	observer Observer
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register appends p to the end of the pass sequence.
func (m *Manager) Register(p Pass) {
	m.passes = append(m.passes, p)
}

// SetObserver installs obs to receive phase boundary events; pass nil to
// stop observing.
func (m *Manager) SetObserver(obs Observer) {
	m.observer = obs
}

// Run executes every registered pass in order against ctx, stopping
// early only when a pass reports a structural failure.
func (m *Manager) Run(ctx *Context) error {
	for _, p := range m.passes {
		m.emit(PhaseEvent{Name: p.Name, Status: PhaseStart})
		start := time.Now()
		err := p.Run(ctx)
		elapsed := time.Since(start)
		m.emit(PhaseEvent{Name: p.Name, Status: PhaseEnd, Elapsed: elapsed})
		if err != nil {
			return fmt.Errorf("pass %q: %w", p.Name, err)
		}
	}
	return nil
}

func (m *Manager) emit(ev PhaseEvent) {
	if m.observer != nil {
		m.observer(ev)
	}
}
