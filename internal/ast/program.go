package ast

import "tracesema/internal/source"

// CDef is a resolved C preprocessor #define, produced by the (external)
// C macro expansion pass and consumed as a seam input here.
type CDef struct {
	IntValue    int64
	StringValue string
	IsString    bool
}

// Program is the root AST node: the output of parsing plus the seam
// inputs produced by the earlier, out-of-scope passes (macro expansion,
// clang parsing, C macro expansion) that the semantic analyser consumes.
type Program struct {
	Exprs *Arena[Expr]
	Stmts *Arena[Stmt]

	Probes    []Probe
	Functions []Fn

	// CDefs holds #define symbols resolved to literals by the (external)
	// C macro expansion pass.
	CDefs map[string]CDef

	FileSet *source.FileSet
	File    source.FileID
}

// NewProgram creates an empty Program backed by fresh expression/statement
// arenas.
func NewProgram(fs *source.FileSet, file source.FileID) *Program {
	return &Program{
		Exprs:   NewArena[Expr](64),
		Stmts:   NewArena[Stmt](64),
		CDefs:   make(map[string]CDef),
		FileSet: fs,
		File:    file,
	}
}

// Expr returns the node at id, or nil if id is invalid.
func (p *Program) Expr(id ExprID) *Expr { return p.Exprs.Get(uint32(id)) }

// Stmt returns the node at id, or nil if id is invalid.
func (p *Program) Stmt(id StmtID) *Stmt { return p.Stmts.Get(uint32(id)) }

// NewExpr allocates e in the program's expression arena.
func (p *Program) NewExpr(e Expr) ExprID { return ExprID(p.Exprs.Allocate(e)) }

// NewStmt allocates s in the program's statement arena.
func (p *Program) NewStmt(s Stmt) StmtID { return StmtID(p.Stmts.Allocate(s)) }
