package sema

import (
	"strings"

	"tracesema/internal/ast"
	"tracesema/internal/types"
)

// namedIntTypes lists the built-in scalar spellings a `let`/cast/parameter
// type annotation may use, grounded in spec §3's type vocabulary.
var namedIntTypes = map[string]types.SizedType{
	"int8": types.Int(8, true), "int16": types.Int(16, true),
	"int32": types.Int(32, true), "int64": types.Int(64, true),
	"uint8": types.Int(8, false), "uint16": types.Int(16, false),
	"uint32": types.Int(32, false), "uint64": types.Int(64, false),
	"bool": types.Bool,
}

// resolveTypeSyn converts the unresolved syntax for a type, as written in
// source, into a SizedType. Unknown record names resolve against structs
// seen from the tracepoint-format parser or declared `struct`/`enum`
// blocks (not modeled here); anything unrecognized types as None so the
// caller can still emit a diagnostic and keep walking.
func (a *Analyzer) resolveTypeSyn(ty ast.TypeSyn) types.SizedType {
	var base types.SizedType
	switch {
	case ty.Name == "string":
		base = types.String(64)
	case ty.Name == "buffer":
		base = types.Buffer(64)
	default:
		if t, ok := namedIntTypes[ty.Name]; ok {
			base = t
		} else if strings.HasPrefix(ty.Name, "struct ") || strings.HasPrefix(ty.Name, "enum ") {
			name := strings.TrimPrefix(strings.TrimPrefix(ty.Name, "struct "), "enum ")
			if s, ok := a.structs.Lookup(name); ok {
				base = types.RecordType(s)
			} else {
				base = types.None
			}
		} else {
			base = types.None
		}
	}
	if ty.ArrayBool {
		base = types.Array(base, ty.ArrayLen)
	}
	if ty.Pointer {
		base = types.Pointer(base, types.AddrSpaceNone)
	}
	return base
}
