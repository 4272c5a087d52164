package ast

// ExprID and StmtID are 1-based arena indices; zero means "absent" (e.g.
// an if without an else, a return without a value).
type (
	ExprID uint32
	StmtID uint32
)

// IsValid reports whether the ID refers to an allocated node.
func (id ExprID) IsValid() bool { return id != 0 }
func (id StmtID) IsValid() bool { return id != 0 }
