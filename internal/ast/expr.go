package ast

import "tracesema/internal/source"

// ExprKind discriminates the variant an Expr node carries.
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprIntLit
	ExprStringLit
	ExprDurationLit // literal like 10s, pre-resolved to nanoseconds in IntValue
	ExprBoolLit
	ExprVar       // $name
	ExprParam     // $1 positional parameter
	ExprParamCnt  // $#
	ExprMapAccess // @name or @name[key]
	ExprIdent     // bare identifier: builtin name, ctx field, enum variant, C ident
	ExprBinary
	ExprUnary
	ExprPreIncDec  // ++x / --x
	ExprPostIncDec // x++ / x--
	ExprCall
	ExprFieldAccess // base.field or base->field
	ExprTupleIndex  // base.N
	ExprCast        // (type)operand
	ExprTupleLit    // (a, b, c)
	ExprTernary     // cond ? a : b
)

// BinOp enumerates binary operators.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
)

// UnOp enumerates unary prefix operators.
type UnOp uint8

const (
	OpNeg UnOp = iota
	OpNot
	OpBitNot
	OpAddrOf // &expr (rarely surfaced; kept for completeness)
)

// FieldOp distinguishes `.` (value) from `->` (pointer) field access.
type FieldOp uint8

const (
	FieldDot   FieldOp = iota // record-by-value access
	FieldArrow                // pointer-to-record access
)

// TypeSyn is the unresolved syntax for a type, as written by the user in
// `let`, cast, and function-signature positions.
type TypeSyn struct {
	Name      string // "int64", "uint8", "string", "struct foo", "bool", "enum Color", ...
	Pointer   bool
	ArrayLen  uint32 // > 0 for (intN[M]) cast / array type syntax
	ArrayBool bool   // true if ArrayLen was explicitly written (vs. 0 meaning "no array")
}

// Expr is the tagged-variant expression node. Only the fields relevant to
// Kind are populated; the rest are zero, per the "tagged variants"
// design note generalized from SizedType to AST nodes.
type Expr struct {
	Kind ExprKind
	Span source.Span

	IntValue    int64
	StringValue string
	Name        string // Var/Param-name text, MapAccess map name, Ident text, Call callee name

	BinOp BinOp
	UnOp  UnOp
	LHS   ExprID
	RHS   ExprID

	FieldOp FieldOp

	Args []ExprID // call args, tuple literal elements

	MapKey ExprID // 0 if scalar map access

	CastType TypeSyn

	TupleIdx uint32 // constant index for `.N`
}
