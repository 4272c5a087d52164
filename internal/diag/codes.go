package diag

// Code uniquely identifies a class of diagnostic. Codes are grouped into
// ranges by pipeline stage/category, mirroring the teacher's convention of
// reserving a thousand-block per concern.
type Code uint16

const (
	UnknownCode Code = 0

	// 1000s: name resolution / scope.
	SemaUndefinedVar      Code = 1000
	SemaUndefinedMap      Code = 1001
	SemaUndefinedFn       Code = 1002
	SemaUndefinedField    Code = 1003
	SemaShadowedVar       Code = 1010
	SemaUseBeforeDecl     Code = 1011
	SemaRedeclaredVar     Code = 1012

	// 2000s: type mismatch / coercion / literal fit.
	SemaTypeMismatch       Code = 2000
	SemaLiteralDoesNotFit  Code = 2001
	SemaInvalidCast        Code = 2002
	SemaInvalidCastKeyword Code = 2003
	SemaBadPointerArith    Code = 2004
	SemaBadFieldAccess     Code = 2005
	SemaTupleIndexOOB      Code = 2006
	SemaTupleArityMismatch Code = 2007
	SemaInvalidPredicate   Code = 2008
	SemaBufLenOverflow     Code = 2009
	SemaEnumLiteralInvalid Code = 2010

	// 2100s: map & aggregation invariants (I1-I3, P1-P3).
	SemaMapKeyTypeMismatch   Code = 2100
	SemaMapValueTypeMismatch Code = 2101
	SemaMapScalarityConflict Code = 2102
	SemaMapFromMapAssign     Code = 2103
	SemaAggregateEscapes     Code = 2104
	SemaMapNotAssignedDirect Code = 2105

	// 3000s: call arity / argument kind.
	SemaCallArity       Code = 3000
	SemaCallArgKind     Code = 3001
	SemaCallNotCallable Code = 3002
	SemaCallBadLiteral  Code = 3003

	// 4000s: domain / feature-gating violations.
	SemaBuiltinWrongFamily Code = 4000
	SemaFeatureUnavailable Code = 4001
	SemaSafeModeForbidden  Code = 4002
	SemaCtxOutsideAllowed  Code = 4003

	// 5000s: control-flow construct errors.
	SemaBreakOutsideLoop    Code = 5000
	SemaContinueOutsideLoop Code = 5001
	SemaReturnInForLoop     Code = 5002
	SemaUnrollBoundInvalid  Code = 5003
	SemaForMapNotNonScalar  Code = 5004
	SemaForMapAggregate     Code = 5005
	SemaReturnTypeMismatch  Code = 5006

	// 6000s: tracepoint format parser.
	TPFormatNoMatch      Code = 6000
	TPFormatNotFound     Code = 6001
	TPFormatParseError   Code = 6002
	TPFormatStatError    Code = 6003
	TPFormatFieldUnknown Code = 6004

	// 7000s: warnings.
	WarnSignUnsignedMismatch Code = 7000
	WarnAlwaysFalseCompare   Code = 7001
	WarnDeadCode             Code = 7002
	WarnPrintInLoop          Code = 7003
	WarnDiscardedReturn      Code = 7004
	WarnPointerSignedOffset  Code = 7005
)

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "E" + itoa(uint16(c))
}

func itoa(v uint16) string {
	if v == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

var codeNames = map[Code]string{
	SemaUndefinedVar:         "undefined-var",
	SemaUndefinedMap:         "undefined-map",
	SemaUndefinedFn:          "undefined-fn",
	SemaUndefinedField:       "undefined-field",
	SemaShadowedVar:          "shadowed-var",
	SemaUseBeforeDecl:        "use-before-decl",
	SemaRedeclaredVar:        "redeclared-var",
	SemaTypeMismatch:         "type-mismatch",
	SemaLiteralDoesNotFit:    "literal-does-not-fit",
	SemaInvalidCast:          "invalid-cast",
	SemaInvalidCastKeyword:   "invalid-cast-keyword",
	SemaBadPointerArith:      "bad-pointer-arith",
	SemaBadFieldAccess:       "bad-field-access",
	SemaTupleIndexOOB:        "tuple-index-oob",
	SemaTupleArityMismatch:   "tuple-arity-mismatch",
	SemaInvalidPredicate:     "invalid-predicate",
	SemaBufLenOverflow:       "buf-len-overflow",
	SemaEnumLiteralInvalid:   "enum-literal-invalid",
	SemaMapKeyTypeMismatch:   "map-key-type-mismatch",
	SemaMapValueTypeMismatch: "map-value-type-mismatch",
	SemaMapScalarityConflict: "map-scalarity-conflict",
	SemaMapFromMapAssign:     "map-from-map-assign",
	SemaAggregateEscapes:     "aggregate-escapes",
	SemaMapNotAssignedDirect: "map-not-assigned-direct",
	SemaCallArity:            "call-arity",
	SemaCallArgKind:          "call-arg-kind",
	SemaCallNotCallable:      "call-not-callable",
	SemaCallBadLiteral:       "call-bad-literal",
	SemaBuiltinWrongFamily:   "builtin-wrong-family",
	SemaFeatureUnavailable:   "feature-unavailable",
	SemaSafeModeForbidden:    "safe-mode-forbidden",
	SemaCtxOutsideAllowed:    "ctx-outside-allowed",
	SemaBreakOutsideLoop:     "break-outside-loop",
	SemaContinueOutsideLoop:  "continue-outside-loop",
	SemaReturnInForLoop:      "return-in-for-loop",
	SemaUnrollBoundInvalid:   "unroll-bound-invalid",
	SemaForMapNotNonScalar:   "for-map-not-non-scalar",
	SemaForMapAggregate:      "for-map-aggregate",
	SemaReturnTypeMismatch:   "return-type-mismatch",
	TPFormatNoMatch:          "tracepoint-no-match",
	TPFormatNotFound:         "tracepoint-not-found",
	TPFormatParseError:       "tracepoint-parse-error",
	TPFormatStatError:        "tracepoint-stat-error",
	TPFormatFieldUnknown:     "tracepoint-field-unknown",
	WarnSignUnsignedMismatch: "sign-unsigned-mismatch",
	WarnAlwaysFalseCompare:   "always-false-compare",
	WarnDeadCode:             "dead-code",
	WarnPrintInLoop:          "print-in-loop",
	WarnDiscardedReturn:      "discarded-return",
	WarnPointerSignedOffset:  "pointer-signed-offset",
}
