// Package token defines the lexical token vocabulary of the tracing DSL's
// surface syntax, used only by the bundled minimal lexer/parser
// (SPEC_FULL §10) — a testability convenience, not the grammar's source
// of truth.
package token

// Kind categorizes a single token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident    // bare identifier: probe names, field names, fn names
	Var      // $name
	MapVar   // @name
	Param    // $1, $2, ... positional parameter
	ParamCnt // $#

	IntLit      // 123, 0x7f
	DurationLit // 10s, 500ms, 1us, 1ns
	StringLit   // "..."

	// keywords
	KwLet
	KwIf
	KwElse
	KwWhile
	KwFor
	KwUnroll
	KwBreak
	KwContinue
	KwReturn
	KwFn
	KwTrue
	KwFalse
	KwStruct
	KwEnum

	// punctuation / operators
	Plus
	Minus
	Star
	Slash
	Percent
	Assign
	EqEq
	BangEq
	Lt
	LtEq
	Gt
	GtEq
	AndAnd
	OrOr
	Bang
	Amp
	Pipe
	Caret
	Shl
	Shr
	PlusPlus
	MinusMinus
	Arrow  // ->
	Dot    // .
	DotDot // ..
	Comma
	Colon
	Semicolon
	Question
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Slash2 // predicate delimiter '/'
)

var kindNames = map[Kind]string{
	Invalid: "invalid", EOF: "eof", Ident: "ident", Var: "$var", MapVar: "@map",
	Param: "$N", ParamCnt: "$#", IntLit: "int", DurationLit: "duration", StringLit: "string",
	KwLet: "let", KwIf: "if", KwElse: "else", KwWhile: "while", KwFor: "for", KwUnroll: "unroll",
	KwBreak: "break", KwContinue: "continue", KwReturn: "return", KwFn: "fn",
	KwTrue: "true", KwFalse: "false", KwStruct: "struct", KwEnum: "enum",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%", Assign: "=",
	EqEq: "==", BangEq: "!=", Lt: "<", LtEq: "<=", Gt: ">", GtEq: ">=",
	AndAnd: "&&", OrOr: "||", Bang: "!", Amp: "&", Pipe: "|", Caret: "^",
	Shl: "<<", Shr: ">>", PlusPlus: "++", MinusMinus: "--", Arrow: "->",
	Dot: ".", DotDot: "..", Comma: ",", Colon: ":", Semicolon: ";", Question: "?",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Slash2: "/",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "?"
}

var keywords = map[string]Kind{
	"let": KwLet, "if": KwIf, "else": KwElse, "while": KwWhile, "for": KwFor,
	"unroll": KwUnroll, "break": KwBreak, "continue": KwContinue, "return": KwReturn,
	"fn": KwFn, "true": KwTrue, "false": KwFalse, "struct": KwStruct, "enum": KwEnum,
}

// LookupKeyword returns the keyword Kind for word, if any.
func LookupKeyword(word string) (Kind, bool) {
	k, ok := keywords[word]
	return k, ok
}
