package ir

// Expr is a pure expression tree. The concrete types below are the
// only implementations; external packages must not define new ones,
// since the simplifier and region packages switch over this closed
// set.
type Expr interface {
	isExpr()
}

// Lit is a signed 32-bit literal.
type Lit int32

// Var reads a previously bound local.
type Var VarName

// LoadReg reads the current value of a guest register.
type LoadReg RegName

// LoadMem reads guest memory at the address given by Addr.
type LoadMem struct {
	Op   MemOp
	Addr Expr
}

// Un is a unary expression.
type Un struct {
	Op UnOp
	X  Expr
}

// Bin is a binary expression.
type Bin struct {
	Op   BinOp
	X, Y Expr
}

func (Lit) isExpr()     {}
func (Var) isExpr()     {}
func (LoadReg) isExpr() {}
func (LoadMem) isExpr() {}
func (Un) isExpr()      {}
func (Bin) isExpr()     {}

// CondExpr is a boolean-valued condition expression.
type CondExpr interface {
	isCond()
}

// BinCond compares two expressions.
type BinCond struct {
	Op   CondOp
	X, Y Expr
}

// LitCond is a constant true/false condition.
type LitCond bool

func (BinCond) isCond() {}
func (LitCond) isCond() {}

// Equal reports whether a and b are structurally identical
// expression trees (same shape, same literal values, same variable
// and register names). This is the fixed-point termination test the
// simplifier relies on (§4.3 of the design): traversal continues
// until a full pass returns a tree Equal to its input.
func Equal(a, b Expr) bool {
	switch a := a.(type) {
	case Lit:
		b, ok := b.(Lit)
		return ok && a == b
	case Var:
		b, ok := b.(Var)
		return ok && a == b
	case LoadReg:
		b, ok := b.(LoadReg)
		return ok && a == b
	case LoadMem:
		b, ok := b.(LoadMem)
		return ok && a.Op == b.Op && Equal(a.Addr, b.Addr)
	case Un:
		b, ok := b.(Un)
		return ok && a.Op == b.Op && Equal(a.X, b.X)
	case Bin:
		b, ok := b.(Bin)
		return ok && a.Op == b.Op && Equal(a.X, b.X) && Equal(a.Y, b.Y)
	default:
		return false
	}
}

// EqualCond reports whether a and b are structurally identical
// condition trees.
func EqualCond(a, b CondExpr) bool {
	switch a := a.(type) {
	case LitCond:
		b, ok := b.(LitCond)
		return ok && a == b
	case BinCond:
		b, ok := b.(BinCond)
		return ok && a.Op == b.Op && Equal(a.X, b.X) && Equal(a.Y, b.Y)
	default:
		return false
	}
}

// MapExprs returns a copy of s with f applied to every immediate
// Expr and CondExpr position (non-recursively; f is responsible for
// recursing if it wants to transform subexpressions). At least four
// passes (commute/associate/constFold, substitution, constant
// propagation, and non-final-store lifting) use this as their single
// point of contact with Statement's shape, so adding a new Statement
// kind or expression position only requires updating this function.
func MapExprs(s Statement, f func(Expr) Expr, fc func(CondExpr) CondExpr) Statement {
	switch s := s.(type) {
	case Let:
		return Let{s.Name, f(s.RHS)}
	case StoreReg:
		return StoreReg{s.Reg, f(s.Value)}
	case StoreMem:
		return StoreMem{s.Op, f(s.Addr), f(s.Value)}
	case Jump:
		return Jump{fc(s.Cond), s.Then, s.Else}
	case IndirectJump:
		return IndirectJump{f(s.Target)}
	case Syscall:
		return s
	case Break:
		return s
	default:
		panic("ir: unknown statement kind")
	}
}
