package diag

import "tracesema/internal/source"

// Note attaches a secondary span and message to a Diagnostic, used for
// "previously declared here" style hints.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is a single error, warning, or info emitted by a pass.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Hint     string
}

// WithNote returns a copy of d with an additional note appended.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(append([]Note{}, d.Notes...), Note{Span: sp, Msg: msg})
	return d
}

// WithHint returns a copy of d with its hint set.
func (d Diagnostic) WithHint(msg string) Diagnostic {
	d.Hint = msg
	return d
}
