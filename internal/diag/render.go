package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"tracesema/internal/source"
)

// Renderer formats diagnostics as
// "<file>:<line>:<col_start>-<col_end>: <SEVERITY>: <msg>" followed by a
// source excerpt and caret underline, and any "HINT: ..." line, per
// spec's §6 output contract.
type Renderer struct {
	FileSet *source.FileSet
	Color   bool
}

// NewRenderer builds a Renderer; color is auto-detected from w when
// colorMode is "auto".
func NewRenderer(fs *source.FileSet, w io.Writer, colorMode string) *Renderer {
	enabled := false
	switch colorMode {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		enabled = color.NoColor == false && isTerminalWriter(w)
	}
	return &Renderer{FileSet: fs, Color: enabled}
}

// Render writes the full multi-line representation of d to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) {
	f := r.FileSet.File(d.Primary.File)
	start := r.FileSet.Position(d.Primary.File, d.Primary.Start)
	end := r.FileSet.Position(d.Primary.File, d.Primary.End)

	path := "<input>"
	if f != nil {
		path = f.Path
	}

	sevText := d.Severity.String()
	if r.Color {
		sevText = colorFor(d.Severity).Sprint(sevText)
	}
	fmt.Fprintf(w, "%s:%d:%d-%d: %s: %s\n", path, start.Line, start.Col, end.Col, sevText, d.Message)

	if f != nil {
		line := r.FileSet.LineText(d.Primary.File, start.Line)
		fmt.Fprintf(w, "    %s\n", line)
		pad := runewidth.StringWidth(line[:min(len(line), int(start.Col)-1)])
		width := 1
		if end.Line == start.Line && end.Col > start.Col {
			width = runewidth.StringWidth(line[min(len(line), int(start.Col)-1):min(len(line), int(end.Col)-1)])
			if width == 0 {
				width = 1
			}
		}
		caret := strings.Repeat(" ", pad+4) + strings.Repeat("^", width)
		if r.Color {
			caret = colorFor(d.Severity).Sprint(caret)
		}
		fmt.Fprintln(w, caret)
	}

	for _, n := range d.Notes {
		fmt.Fprintf(w, "  note: %s\n", n.Msg)
	}
	if d.Hint != "" {
		fmt.Fprintf(w, "HINT: %s\n", d.Hint)
	}
}

// RenderAll renders every diagnostic in b, in its current order.
func (r *Renderer) RenderAll(w io.Writer, b *Bag) {
	for _, d := range b.Items() {
		r.Render(w, d)
	}
}

func colorFor(s Severity) *color.Color {
	switch s {
	case SevError:
		return color.New(color.FgRed, color.Bold)
	case SevWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
