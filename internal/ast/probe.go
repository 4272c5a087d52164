package ast

import "tracesema/internal/source"

// AttachPoint is one `provider:target[:...]` entry in a probe's attach
// list (§4.6).
type AttachPoint struct {
	Span     source.Span
	Provider string // "kprobe", "uprobe", "tracepoint", "BEGIN", "self", ...
	Target   string // function name, "category:event" for tracepoint, signal name for self:signal:NAME, ...
	Extra    []string
	Wildcard bool // target contains '*' or '?'
}

// Probe is one probe declaration: attach points, optional predicate, and
// a body block.
type Probe struct {
	Span         source.Span
	AttachPoints []AttachPoint
	Predicate    ExprID // 0 if absent
	Body         StmtID // block
}

// FnParam is one parameter in a subprogram signature (§4.5).
type FnParam struct {
	Name string
	Type TypeSyn
}

// Fn is a named subprogram: `fn name($p1:T1, ...): R { ... }`.
type Fn struct {
	Span       source.Span
	Name       string
	Params     []FnParam
	ReturnType TypeSyn // zero Name means void
	Body       StmtID
}
