// Package types implements SizedType, the tagged-variant value-type system
// described by the data model: every value flowing through the semantic
// analyser carries exactly one SizedType, compared structurally.
package types

import "fmt"

// Kind discriminates the variant carried by a SizedType.
type Kind uint8

const (
	KindNone Kind = iota
	KindVoid
	KindInt
	KindBool
	KindString
	KindBuffer
	KindPointer
	KindArray
	KindRecord
	KindTuple
	KindStack
	KindAgg
	KindKsym
	KindUsym
	KindInet
	KindMacaddr
	KindCgroupPath
	KindStrerror
	KindTimestamp
	KindCtx
)

// AggKind enumerates the aggregation reducers a map value may hold.
type AggKind uint8

const (
	AggNone AggKind = iota
	AggCount
	AggSum
	AggUSum
	AggMin
	AggUMin
	AggMax
	AggUMax
	AggAvg
	AggUAvg
	AggStats
	AggUStats
	AggHist
	AggLHist
	AggTSeries
)

func (a AggKind) String() string {
	switch a {
	case AggCount:
		return "count_t"
	case AggSum:
		return "sum_t"
	case AggUSum:
		return "usum_t"
	case AggMin:
		return "min_t"
	case AggUMin:
		return "umin_t"
	case AggMax:
		return "max_t"
	case AggUMax:
		return "umax_t"
	case AggAvg:
		return "avg_t"
	case AggUAvg:
		return "uavg_t"
	case AggStats:
		return "stats_t"
	case AggUStats:
		return "ustats_t"
	case AggHist:
		return "hist_t"
	case AggLHist:
		return "lhist_t"
	case AggTSeries:
		return "tseries_t"
	default:
		return "agg_t"
	}
}

// PerCPU reports whether this aggregation kind is stored per-cpu and
// therefore subject to map_lookup_percpu_elem gating (§9 open question).
func (a AggKind) PerCPU() bool {
	switch a {
	case AggHist, AggLHist, AggTSeries, AggStats, AggUStats:
		return true
	default:
		return false
	}
}

// IterationForbidden reports whether values of this aggregation kind may
// not be the source of a for-each-map loop (§4.4).
func (a AggKind) IterationForbidden() bool {
	switch a {
	case AggHist, AggLHist, AggTSeries, AggStats, AggUStats:
		return true
	default:
		return false
	}
}

// StackKind enumerates supported stack-unwind representations.
type StackKind uint8

const (
	StackBpftrace StackKind = iota
	StackPerf
	StackRaw
)

// TimestampMode enumerates supported clock sources for `timestamp` values.
type TimestampMode uint8

const (
	TimestampBoot TimestampMode = iota
	TimestampMonotonic
	TimestampTAI
	TimestampSWTAI
)

func (m TimestampMode) String() string {
	switch m {
	case TimestampBoot:
		return "boot"
	case TimestampMonotonic:
		return "monotonic"
	case TimestampTAI:
		return "tai"
	case TimestampSWTAI:
		return "sw_tai"
	default:
		return "boot"
	}
}

// AddrSpace distinguishes kernel- and user-space pointee access, used by
// kptr()/uptr() and the context-access tagging rules.
type AddrSpace uint8

const (
	AddrSpaceNone AddrSpace = iota
	AddrSpaceKernel
	AddrSpaceUser
)

// SizedType is the closed sum type every expression's inferred type is an
// instance of. Variants carry their payload directly in the fields below;
// only the fields relevant to Kind are meaningful, the rest are zero.
type SizedType struct {
	Kind Kind

	// KindInt
	IntWidth uint8 // 8, 16, 32, 64
	Signed   bool

	// KindString, KindBuffer
	Capacity uint32

	// KindPointer
	Pointee   *SizedType
	AddrSpace AddrSpace

	// KindArray
	Elem  *SizedType
	Count uint32

	// KindRecord
	Record *Struct

	// KindTuple
	TupleFields []SizedType

	// KindStack
	StackKind  StackKind
	StackLimit uint32

	// KindAgg
	Agg AggKind

	// KindTimestamp
	TimeMode TimestampMode

	// ctx-access tainting (§4.2): set on any value derived from `ctx`.
	CtxAccess bool
}

// None is the bottom type returned when an expression could not be typed;
// downstream nodes still receive a SizedType so traversal can continue
// per the "visitor with accumulation" design note.
var None = SizedType{Kind: KindNone}

// Void is the return type of statements and void-returning functions.
var Void = SizedType{Kind: KindVoid}

// Bool is the boolean predicate/result type.
var Bool = SizedType{Kind: KindBool}

// Ctx is the special type of the ctx builtin itself.
var Ctx = SizedType{Kind: KindCtx}

// Int constructs an integer type of the given width and signedness.
func Int(width uint8, signed bool) SizedType {
	return SizedType{Kind: KindInt, IntWidth: width, Signed: signed}
}

// Int64 and Uint64 are the most common default integer types: bpftrace's
// scratch variables and positional parameters default to this width.
var (
	Int64  = Int(64, true)
	UInt64 = Int(64, false)
)

// String constructs a string type with the given capacity (including the
// NUL terminator), per spec: literal capacity = length + 1.
func String(capacity uint32) SizedType {
	return SizedType{Kind: KindString, Capacity: capacity}
}

// Buffer constructs a buffer type bounded by the given length.
func Buffer(capacity uint32) SizedType {
	return SizedType{Kind: KindBuffer, Capacity: capacity}
}

// Pointer constructs a pointer to pointee in the given address space.
func Pointer(pointee SizedType, space AddrSpace) SizedType {
	p := pointee
	return SizedType{Kind: KindPointer, Pointee: &p, AddrSpace: space}
}

// Array constructs a fixed-size array type.
func Array(elem SizedType, count uint32) SizedType {
	e := elem
	return SizedType{Kind: KindArray, Elem: &e, Count: count}
}

// Tuple constructs an anonymous tuple type from its field sequence.
func Tuple(fields ...SizedType) SizedType {
	return SizedType{Kind: KindTuple, TupleFields: fields}
}

// RecordType constructs a named-record value type from an interned Struct.
func RecordType(s *Struct) SizedType {
	return SizedType{Kind: KindRecord, Record: s}
}

// Stack constructs a stack value type.
func Stack(kind StackKind, limit uint32) SizedType {
	return SizedType{Kind: KindStack, StackKind: kind, StackLimit: limit}
}

// Aggregation constructs an aggregation-valued map type.
func Aggregation(kind AggKind) SizedType {
	return SizedType{Kind: KindAgg, Agg: kind}
}

// Timestamp constructs a timestamp value type with the given clock mode.
func Timestamp(mode TimestampMode) SizedType {
	return SizedType{Kind: KindTimestamp, TimeMode: mode}
}

// WithCtxAccess returns a copy of t tagged as derived from ctx.
func (t SizedType) WithCtxAccess() SizedType {
	t.CtxAccess = true
	return t
}

// IsNone reports whether t is the bottom type.
func (t SizedType) IsNone() bool { return t.Kind == KindNone }

// IsInteger reports whether t is an integer type.
func (t SizedType) IsInteger() bool { return t.Kind == KindInt }

// IsAggregate reports whether t is any aggregation-valued type — the
// discriminant the "cannot assign map to map" check (I3) reduces to.
func (t SizedType) IsAggregate() bool { return t.Kind == KindAgg }

// IsPointer reports whether t is a pointer type.
func (t SizedType) IsPointer() bool { return t.Kind == KindPointer }

// IsNumericLike reports whether t may appear as an if/while predicate.
func (t SizedType) IsNumericLike() bool {
	return t.Kind == KindInt || t.Kind == KindBool || t.Kind == KindPointer
}

// Equal reports structural equality between t and other. Records compare
// by interned identity (same *Struct, since records are interned by
// name); tuples compare element-wise including signedness.
func (t SizedType) Equal(other SizedType) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindInt:
		return t.IntWidth == other.IntWidth && t.Signed == other.Signed
	case KindString, KindBuffer:
		return t.Capacity == other.Capacity
	case KindPointer:
		return t.AddrSpace == other.AddrSpace && t.Pointee != nil && other.Pointee != nil && t.Pointee.Equal(*other.Pointee)
	case KindArray:
		return t.Count == other.Count && t.Elem != nil && other.Elem != nil && t.Elem.Equal(*other.Elem)
	case KindRecord:
		return t.Record == other.Record
	case KindTuple:
		if len(t.TupleFields) != len(other.TupleFields) {
			return false
		}
		for i := range t.TupleFields {
			if !t.TupleFields[i].Equal(other.TupleFields[i]) {
				return false
			}
		}
		return true
	case KindStack:
		return t.StackKind == other.StackKind
	case KindAgg:
		return t.Agg == other.Agg
	case KindTimestamp:
		return t.TimeMode == other.TimeMode
	default:
		return true
	}
}

// String renders a human-readable type name for diagnostics, matching the
// vocabulary used in spec's error message examples ("int64", "string",
// "hist_t", ...).
func (t SizedType) String() string {
	switch t.Kind {
	case KindNone:
		return "none"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindCtx:
		return "ctx"
	case KindInt:
		sign := "int"
		if !t.Signed {
			sign = "uint"
		}
		return fmt.Sprintf("%s%d", sign, t.IntWidth)
	case KindString:
		return fmt.Sprintf("string[%d]", t.Capacity)
	case KindBuffer:
		return fmt.Sprintf("buffer[%d]", t.Capacity)
	case KindPointer:
		if t.Pointee != nil {
			return t.Pointee.String() + "*"
		}
		return "void*"
	case KindArray:
		elem := "?"
		if t.Elem != nil {
			elem = t.Elem.String()
		}
		return fmt.Sprintf("%s[%d]", elem, t.Count)
	case KindRecord:
		if t.Record != nil {
			return t.Record.Name
		}
		return "struct"
	case KindTuple:
		s := "("
		for i, f := range t.TupleFields {
			if i > 0 {
				s += ", "
			}
			s += f.String()
		}
		return s + ")"
	case KindStack:
		return "stack"
	case KindAgg:
		return t.Agg.String()
	case KindKsym:
		return "ksym_t"
	case KindUsym:
		return "usym_t"
	case KindInet:
		return "inet"
	case KindMacaddr:
		return "macaddr_t"
	case KindCgroupPath:
		return "cgroup_path_t"
	case KindStrerror:
		return "strerror_t"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}
