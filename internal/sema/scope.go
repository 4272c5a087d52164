package sema

import (
	"tracesema/internal/source"
	"tracesema/internal/types"
)

// binding is one scratch-variable declaration visible in some lexical
// scope, grounded in the teacher's internal/sema symbol-table entry shape
// (name, type, declaration site) minus the borrow/ownership fields this
// DSL has no use for. Span records where the declaration occurred, so a
// shadowing diagnostic can point back at it.
type binding struct {
	Type types.SizedType
	Span source.Span
}

// scope is one lexical frame in the scratch-variable stack: the body of a
// probe, a block, or a loop. Variables declared in a scope are invisible
// once the scope is popped (P4).
type scope struct {
	vars map[string]binding
}

// scopeStack implements the declare-before-use (I5) and no-shadowing (I6)
// invariants over `let`-declared scratch variables, following the
// teacher's internal/sema scope-stack pattern: push on block entry, pop on
// block exit, and resolve a name by walking outward from the innermost
// frame.
type scopeStack struct {
	frames []scope
}

func newScopeStack() *scopeStack {
	s := &scopeStack{}
	s.push()
	return s
}

func (s *scopeStack) push() {
	s.frames = append(s.frames, scope{vars: make(map[string]binding)})
}

func (s *scopeStack) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// declaredHere reports whether name already exists in the current
// (innermost) frame — a straight redeclaration, distinct from shadowing
// an outer frame's binding.
func (s *scopeStack) declaredHere(name string) bool {
	_, ok := s.frames[len(s.frames)-1].vars[name]
	return ok
}

// shadowsOuter reports whether name is visible in any frame other than
// the innermost one, and if so the span of that outer declaration.
func (s *scopeStack) shadowsOuter(name string) (source.Span, bool) {
	for i := len(s.frames) - 2; i >= 0; i-- {
		if b, ok := s.frames[i].vars[name]; ok {
			return b.Span, true
		}
	}
	return source.Span{}, false
}

func (s *scopeStack) declare(name string, ty types.SizedType, span source.Span) {
	s.frames[len(s.frames)-1].vars[name] = binding{Type: ty, Span: span}
}

// lookup resolves name outward from the innermost frame, implementing
// lexical scoping (P4).
func (s *scopeStack) lookup(name string) (types.SizedType, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if b, ok := s.frames[i].vars[name]; ok {
			return b.Type, true
		}
	}
	return types.None, false
}
