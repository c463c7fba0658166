// Package simplify implements the fixed-point IR simplifier: the
// expression folder (this file and cond.go), the per-block
// statement passes (subst.go, constprop.go, liftstore.go,
// useless.go), and the per-block simplifyBB1 fixed point and worker
// pool (driver.go); the optimization-level composition of §4.7 lives
// in internal/driver. Every rewrite returns a new value; nothing
// here mutates its argument, following the same discipline as
// obj/internal/ssa's value construction.
package simplify

import "github.com/aclements/rvxlate/internal/ir"

// RunConstFold reduces e to a fixed point of constFold ∘ associate ∘
// commute (§4.3): the three rewrites are applied repeatedly until a
// full pass leaves the tree structurally unchanged.
func RunConstFold(e ir.Expr) ir.Expr {
	for {
		next := constFold(associate(commute(e)))
		if ir.Equal(next, e) {
			return next
		}
		e = next
	}
}

// commute rewrites Bin(op, a, Lit(c)) to Bin(op, Lit(c), commute(a))
// for commutative op, placing literals on the left so constFold can
// see them. It recurses under unary, binary, and memory-load
// operators; non-commutative binary nodes are recursed into on both
// sides without reordering.
func commute(e ir.Expr) ir.Expr {
	switch e := e.(type) {
	case ir.Lit, ir.Var, ir.LoadReg:
		return e
	case ir.LoadMem:
		return ir.LoadMem{e.Op, commute(e.Addr)}
	case ir.Un:
		return ir.Un{e.Op, commute(e.X)}
	case ir.Bin:
		x, y := commute(e.X), commute(e.Y)
		if e.Op.Commutative() {
			if _, isLit := y.(ir.Lit); isLit {
				if _, xIsLit := x.(ir.Lit); !xIsLit {
					return ir.Bin{e.Op, y, x}
				}
			}
		}
		return ir.Bin{e.Op, x, y}
	default:
		panic("simplify: unknown expression kind")
	}
}

// associate rewrites right-leaning chains of the same associative
// operator into left-leaning ones, so that literals produced by
// commute end up adjacent and foldable: Bin(op, a, Bin(op, b, c)) ->
// Bin(op, Bin(op, a, b), c).
func associate(e ir.Expr) ir.Expr {
	switch e := e.(type) {
	case ir.Lit, ir.Var, ir.LoadReg:
		return e
	case ir.LoadMem:
		return ir.LoadMem{e.Op, associate(e.Addr)}
	case ir.Un:
		return ir.Un{e.Op, associate(e.X)}
	case ir.Bin:
		x, y := associate(e.X), associate(e.Y)
		if e.Op.Associative() {
			if inner, ok := y.(ir.Bin); ok && inner.Op == e.Op {
				return ir.Bin{e.Op, ir.Bin{e.Op, x, inner.X}, inner.Y}
			}
		}
		return ir.Bin{e.Op, x, y}
	default:
		panic("simplify: unknown expression kind")
	}
}

// constFold applies the algebraic identity and literal-folding rules
// of §4.3, recursing into children first so that nested all-literal
// subtrees are reduced before the enclosing rule is tried.
func constFold(e ir.Expr) ir.Expr {
	switch e := e.(type) {
	case ir.Lit, ir.Var, ir.LoadReg:
		return e
	case ir.LoadMem:
		return ir.LoadMem{e.Op, constFold(e.Addr)}
	case ir.Un:
		x := constFold(e.X)
		if lit, ok := x.(ir.Lit); ok {
			return ir.Lit(ir.EvalUn(e.Op, int32(lit)))
		}
		if inner, ok := x.(ir.Un); ok && inner.Op == e.Op && (e.Op == ir.Negate || e.Op == ir.Not) {
			return inner.X
		}
		return ir.Un{e.Op, x}
	case ir.Bin:
		return foldBin(e.Op, constFold(e.X), constFold(e.Y))
	default:
		panic("simplify: unknown expression kind")
	}
}

func isLit(e ir.Expr, v int32) bool {
	lit, ok := e.(ir.Lit)
	return ok && int32(lit) == v
}

func negOf(e ir.Expr) (ir.Expr, bool) {
	if u, ok := e.(ir.Un); ok && u.Op == ir.Negate {
		return u.X, true
	}
	return nil, false
}

func foldBin(op ir.BinOp, x, y ir.Expr) ir.Expr {
	if lx, ok := x.(ir.Lit); ok {
		if ly, ok := y.(ir.Lit); ok {
			return ir.Lit(ir.EvalBin(op, int32(lx), int32(ly)))
		}
	}

	switch op {
	case ir.Add:
		if isLit(x, 0) {
			return y
		}
		if inner, ok := negOf(y); ok {
			return foldBin(ir.Sub, x, inner)
		}
		if inner, ok := negOf(x); ok {
			return foldBin(ir.Sub, y, inner)
		}
	case ir.Sub:
		if isLit(y, 0) {
			return x
		}
		if isLit(x, 0) {
			return ir.Un{ir.Negate, y}
		}
		if ir.Equal(x, y) {
			return ir.Lit(0)
		}
		if inner, ok := negOf(y); ok {
			return foldBin(ir.Add, x, inner)
		}
	case ir.Mult:
		if isLit(x, 1) {
			return y
		}
		if isLit(x, 0) {
			return ir.Lit(0)
		}
		if isLit(x, -1) {
			return ir.Un{ir.Negate, y}
		}
	case ir.MultHi:
		if isLit(x, 0) {
			return ir.Lit(0)
		}
	case ir.MultHiU:
		if isLit(x, 0) || isLit(x, 1) {
			return ir.Lit(0)
		}
	case ir.Quot, ir.QuotU:
		if isLit(y, 1) {
			return x
		}
	case ir.Rem, ir.RemU:
		if isLit(y, 1) {
			return ir.Lit(0)
		}
		if op == ir.Rem && isLit(y, -1) {
			return ir.Lit(0)
		}
	case ir.And:
		if isLit(x, -1) {
			return y
		}
		if isLit(x, 0) {
			return ir.Lit(0)
		}
	case ir.Or:
		if isLit(x, -1) {
			return ir.Lit(-1)
		}
		if isLit(x, 0) {
			return y
		}
	case ir.Xor:
		if isLit(x, -1) {
			return ir.Un{ir.Not, y}
		}
		if isLit(x, 0) {
			return y
		}
	case ir.LogicalShiftLeft, ir.LogicalShiftRight, ir.ArithShiftRight:
		if isLit(y, 0) {
			return x
		}
	case ir.SetIfLess:
		if ir.Equal(x, y) {
			return ir.Lit(0)
		}
	case ir.SetIfLessU:
		if ir.Equal(x, y) {
			return ir.Lit(0)
		}
		if isLit(y, 0) {
			return ir.Lit(0)
		}
	}
	return ir.Bin{op, x, y}
}
