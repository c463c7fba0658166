package simplify

import "github.com/aclements/rvxlate/internal/ir"

// RunConstFoldCond reduces c to a fixed point, folding its expression
// children with RunConstFold and then applying the condition rewrite
// rules of §4.3 until a full pass leaves the tree unchanged.
func RunConstFoldCond(c ir.CondExpr) ir.CondExpr {
	for {
		next := foldCond(commuteCond(c))
		if ir.EqualCond(next, c) {
			return next
		}
		c = next
	}
}

// commuteCond mirrors commute for the two symmetric CondOps (Equal,
// NotEqual): it moves a literal operand to the left.
func commuteCond(c ir.CondExpr) ir.CondExpr {
	bc, ok := c.(ir.BinCond)
	if !ok {
		return c
	}
	x, y := RunConstFold(bc.X), RunConstFold(bc.Y)
	if bc.Op.Commutative() {
		if _, isLit := y.(ir.Lit); isLit {
			if _, xIsLit := x.(ir.Lit); !xIsLit {
				return ir.BinCond{bc.Op, y, x}
			}
		}
	}
	return ir.BinCond{bc.Op, x, y}
}

// setIfLessUnwrap reports whether e is Bin(op, e1, e2) and returns
// its operands.
func setIfLessUnwrap(e ir.Expr, op ir.BinOp) (e1, e2 ir.Expr, ok bool) {
	b, isBin := e.(ir.Bin)
	if !isBin || b.Op != op {
		return nil, nil, false
	}
	return b.X, b.Y, true
}

func foldCond(c ir.CondExpr) ir.CondExpr {
	bc, ok := c.(ir.BinCond)
	if !ok {
		return c
	}
	x, y := RunConstFold(bc.X), RunConstFold(bc.Y)

	if lx, ok := x.(ir.Lit); ok {
		if ly, ok := y.(ir.Lit); ok {
			return ir.LitCond(ir.EvalCond(bc.Op, int32(lx), int32(ly)))
		}
	}

	if bc.Op == ir.Equal && ir.Equal(x, y) {
		return ir.LitCond(true)
	}

	// Equal/NotEqual are commuteCond's only commutative ops, so by
	// this point a literal comparand of theirs has already been
	// moved to x; the non-commutative unsigned-order ops below are
	// left exactly as written, so a literal there is still on y.
	switch bc.Op {
	case ir.NotEqual, ir.Equal:
		if lit, ok := x.(ir.Lit); ok && int32(lit) == 0 {
			if e1, e2, ok := setIfLessUnwrap(y, ir.SetIfLessU); ok {
				if bc.Op == ir.NotEqual {
					return ir.BinCond{ir.LessThanU, e1, e2}
				}
				return ir.BinCond{ir.GtrEqualU, e1, e2}
			}
			if e1, e2, ok := setIfLessUnwrap(y, ir.SetIfLess); ok {
				if bc.Op == ir.NotEqual {
					return ir.BinCond{ir.LessThan, e1, e2}
				}
				return ir.BinCond{ir.GtrEqual, e1, e2}
			}
		}
	case ir.LessThanU:
		if lit, ok := y.(ir.Lit); ok && int32(lit) == 0 {
			return ir.LitCond(false)
		}
	case ir.GtrEqualU:
		if lit, ok := y.(ir.Lit); ok && int32(lit) == 0 {
			return ir.LitCond(true)
		}
	}

	return ir.BinCond{bc.Op, x, y}
}
