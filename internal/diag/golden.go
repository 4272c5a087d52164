package diag

import (
	"fmt"
	"sort"
	"strings"

	"tracesema/internal/source"
)

type goldenEntry struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Col      uint32
	Message  string
}

// FormatGolden renders diagnostics into a stable, single-line-per-entry
// string suitable for table-driven test assertions:
// "<path>:<line>:<col>: <SEVERITY> <code>: <message>".
func FormatGolden(items []Diagnostic, fs *source.FileSet) string {
	if len(items) == 0 {
		return ""
	}
	entries := make([]goldenEntry, 0, len(items))
	for _, d := range items {
		pos := fs.Position(d.Primary.File, d.Primary.Start)
		path := "<input>"
		if f := fs.File(d.Primary.File); f != nil {
			path = f.Path
		}
		entries = append(entries, goldenEntry{
			Severity: d.Severity.String(),
			Code:     d.Code.String(),
			Path:     path,
			Line:     pos.Line,
			Col:      pos.Col,
			Message:  d.Message,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Col < b.Col
	})
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s:%d:%d: %s %s: %s", e.Path, e.Line, e.Col, e.Severity, e.Code, e.Message)
	}
	return sb.String()
}
