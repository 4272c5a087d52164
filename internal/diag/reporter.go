package diag

import "tracesema/internal/source"

// Reporter is the minimal contract a pass needs to emit diagnostics,
// letting callers swap a *Bag for a no-op or fan-out implementation in
// tests without changing call sites.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter adapts a *Bag to the Reporter interface.
type BagReporter struct {
	Bag *Bag
}

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}

// Builder accumulates a diagnostic's notes/hint before it is emitted, so
// call sites can chain `.Note(...).Hint(...).Emit()` the way the teacher's
// ReportBuilder does.
type Builder struct {
	r       Reporter
	d       Diagnostic
	emitted bool
}

// Error starts building a SevError diagnostic.
func Error(r Reporter, code Code, primary source.Span, msg string) *Builder {
	return &Builder{r: r, d: Diagnostic{Severity: SevError, Code: code, Primary: primary, Message: msg}}
}

// Warning starts building a SevWarning diagnostic.
func Warning(r Reporter, code Code, primary source.Span, msg string) *Builder {
	return &Builder{r: r, d: Diagnostic{Severity: SevWarning, Code: code, Primary: primary, Message: msg}}
}

// Note appends a secondary span+message, e.g. "previously declared here".
func (b *Builder) Note(sp source.Span, msg string) *Builder {
	if b == nil {
		return nil
	}
	b.d.Notes = append(b.d.Notes, Note{Span: sp, Msg: msg})
	return b
}

// Hint sets the diagnostic's remediation hint.
func (b *Builder) Hint(msg string) *Builder {
	if b == nil {
		return nil
	}
	b.d.Hint = msg
	return b
}

// Emit sends the diagnostic to the underlying Reporter exactly once.
func (b *Builder) Emit() {
	if b == nil || b.emitted {
		return
	}
	b.emitted = true
	if b.r != nil {
		b.r.Report(b.d)
	}
}
