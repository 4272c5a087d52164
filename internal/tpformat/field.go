package tpformat

import (
	"fmt"
	"strconv"
	"strings"

	"tracesema/internal/diag"
	"tracesema/internal/source"
	"tracesema/internal/types"
)

// formatField is one `field:<type> <name>; offset:<N>; size:<M>;
// signed:<0|1>;` line, parsed but not yet resolved to a SizedType.
type formatField struct {
	Name     string
	CType    string
	Offset   uint32
	Size     uint32
	Signed   bool
	ArrayLen int // 0 if the field is not declared as an array
	DataLoc  bool
}

func parseFormatLines(data string) []formatField {
	var out []formatField
	for _, line := range strings.Split(data, "\n") {
		if f, ok := parseFieldLine(line); ok {
			out = append(out, f)
		}
	}
	return out
}

// parseFieldLine parses one line of a tracefs format file. Lines that
// aren't a `field:` declaration (the header's "name:", "ID:", and
// "print fmt:" lines) are silently skipped.
func parseFieldLine(line string) (formatField, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "field:") {
		return formatField{}, false
	}
	var f formatField
	var haveOffset, haveSize bool
	for _, part := range strings.Split(line, ";") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "field:"):
			decl := strings.TrimSpace(strings.TrimPrefix(part, "field:"))
			idx := strings.LastIndexAny(decl, " \t")
			if idx < 0 {
				return formatField{}, false
			}
			f.CType = strings.TrimSpace(decl[:idx])
			f.Name = strings.TrimSpace(decl[idx+1:])
		case strings.HasPrefix(part, "offset:"):
			v, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(part, "offset:")))
			if err != nil {
				return formatField{}, false
			}
			f.Offset, haveOffset = uint32(v), true
		case strings.HasPrefix(part, "size:"):
			v, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(part, "size:")))
			if err != nil {
				return formatField{}, false
			}
			f.Size, haveSize = uint32(v), true
		case strings.HasPrefix(part, "signed:"):
			f.Signed = strings.TrimSpace(strings.TrimPrefix(part, "signed:")) == "1"
		}
	}
	if !haveOffset || !haveSize || f.Name == "" {
		return formatField{}, false
	}
	if i := strings.IndexByte(f.Name, '['); i >= 0 {
		if end := strings.IndexByte(f.Name, ']'); end > i {
			if n, err := strconv.Atoi(f.Name[i+1 : end]); err == nil {
				f.ArrayLen = n
			}
			f.Name = f.Name[:i]
		}
	}
	f.DataLoc = strings.Contains(f.CType, "__data_loc")
	return f, true
}

// adjustIntegerTypes widens a narrow C integer spelling when the kernel's
// reported size disagrees with it, the table from §4.7: size==8 recasts
// a declared `int` to `s64`, and any of the listed 32-bit unsigned
// spellings to `u64`. Every other (type, size) pair is left alone —
// unusual C types (e.g. `long long unsigned int`) are not remapped.
func adjustIntegerTypes(cType string, size uint32) string {
	if size != 8 {
		return cType
	}
	switch cType {
	case "int":
		return "s64"
	case "unsigned int", "unsigned", "u32", "pid_t", "uid_t", "gid_t":
		return "u64"
	default:
		return cType
	}
}

var scalarCTypes = map[string]types.SizedType{
	"char": types.Int(8, true), "signed char": types.Int(8, true), "s8": types.Int(8, true),
	"unsigned char": types.Int(8, false), "u8": types.Int(8, false),
	"short": types.Int(16, true), "s16": types.Int(16, true),
	"unsigned short": types.Int(16, false), "u16": types.Int(16, false),
	"int": types.Int(32, true), "s32": types.Int(32, true),
	"unsigned int": types.Int(32, false), "unsigned": types.Int(32, false), "u32": types.Int(32, false),
	"pid_t": types.Int(32, false), "uid_t": types.Int(32, false), "gid_t": types.Int(32, false),
	"long": types.Int(64, true), "long long": types.Int(64, true), "s64": types.Int(64, true),
	"unsigned long": types.Int(64, false), "unsigned long long": types.Int(64, false), "u64": types.Int(64, false),
}

func widthForSize(size uint32) uint8 {
	switch {
	case size <= 1:
		return 8
	case size <= 2:
		return 16
	case size <= 4:
		return 32
	default:
		return 64
	}
}

// resolveFieldType maps one parsed field to a SizedType. known is false
// when the C spelling isn't in the recognized table, in which case the
// field still gets a best-effort integer type sized and signed from the
// format file's own size:/signed: values, so a parse never stalls on an
// unfamiliar kernel type.
func (p *Parser) resolveFieldType(r formatField) (ty types.SizedType, known bool) {
	if r.DataLoc {
		// The declared type never matters for a __data_loc field: the
		// kernel rewrites it to a pointer-sized offset at runtime.
		ty = types.UInt64
		known = true
	} else {
		ctype := adjustIntegerTypes(r.CType, r.Size)
		p.btfTypes[ctype] = true
		base, ok := scalarCTypes[ctype]
		if !ok {
			base = types.Int(widthForSize(r.Size), r.Signed)
		}
		ty, known = base, ok
	}
	if r.ArrayLen > 0 {
		ty = types.Array(ty, uint32(r.ArrayLen))
	}
	return ty, known
}

// buildStructFields lays out a tracepoint record's fields in file order,
// inserting `char __pad_<n>` filler for any gap between a field's end
// and the next field's start so the record's layout stays byte-exact
// (§4.7).
func (p *Parser) buildStructFields(raws []formatField, span source.Span) []types.Field {
	var fields []types.Field
	var lastOffset uint32
	for _, r := range raws {
		if r.Offset > 0 && lastOffset > 0 && r.Offset > lastOffset {
			gap := r.Offset - lastOffset
			for i := uint32(0); i < gap; i++ {
				fields = append(fields, types.Field{
					Name:   fmt.Sprintf("__pad_%d", lastOffset+i),
					Type:   types.Int(8, true),
					Offset: lastOffset + i,
				})
			}
		}
		ty, known := p.resolveFieldType(r)
		if !known {
			diag.Warning(diag.BagReporter{Bag: p.bag}, diag.TPFormatFieldUnknown, span,
				fmt.Sprintf("tracepoint field '%s' has unrecognized type '%s'; treated as a raw %d-bit integer",
					r.Name, r.CType, widthForSize(r.Size))).Emit()
		}
		fields = append(fields, types.Field{Name: r.Name, Type: ty, Offset: r.Offset})
		lastOffset = r.Offset + r.Size
	}
	return fields
}
