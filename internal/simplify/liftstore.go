package simplify

import "github.com/aclements/rvxlate/internal/ir"

// replaceLoadReg rewrites every LoadReg(r) in e to Var(v).
func replaceLoadReg(e ir.Expr, r ir.RegName, v ir.VarName) ir.Expr {
	switch e := e.(type) {
	case ir.Lit, ir.Var:
		return e
	case ir.LoadReg:
		if ir.RegName(e) == r {
			return ir.Var(v)
		}
		return e
	case ir.LoadMem:
		return ir.LoadMem{e.Op, replaceLoadReg(e.Addr, r, v)}
	case ir.Un:
		return ir.Un{e.Op, replaceLoadReg(e.X, r, v)}
	case ir.Bin:
		return ir.Bin{e.Op, replaceLoadReg(e.X, r, v), replaceLoadReg(e.Y, r, v)}
	default:
		panic("simplify: unknown expression kind")
	}
}

func replaceLoadRegCond(c ir.CondExpr, r ir.RegName, v ir.VarName) ir.CondExpr {
	switch c := c.(type) {
	case ir.LitCond:
		return c
	case ir.BinCond:
		return ir.BinCond{c.Op, replaceLoadReg(c.X, r, v), replaceLoadReg(c.Y, r, v)}
	default:
		panic("simplify: unknown condition kind")
	}
}

func replaceLoadRegStmt(s ir.Statement, r ir.RegName, v ir.VarName) ir.Statement {
	return ir.MapExprs(s,
		func(e ir.Expr) ir.Expr { return replaceLoadReg(e, r, v) },
		func(c ir.CondExpr) ir.CondExpr { return replaceLoadRegCond(c, r, v) },
	)
}

// LiftNonFinalStores replaces every StoreReg(r, e) that is followed
// later in the block by another StoreReg(r, _) with Let(v, e),
// rewriting LoadReg(r) reads up to and including that next store to
// Var(v) (§4.4.3). This runs once, before the optimization fixed
// point, so that a store's value is exposed to substitution and
// folding instead of sitting behind an opaque register write that
// will simply be overwritten.
func LiftNonFinalStores(stmts []ir.Statement, fresh *Namer) []ir.Statement {
	out := make([]ir.Statement, len(stmts))
	copy(out, stmts)

	for i, s := range out {
		store, ok := s.(ir.StoreReg)
		if !ok {
			continue
		}
		next := -1
		for j := i + 1; j < len(out); j++ {
			if later, ok := out[j].(ir.StoreReg); ok && later.Reg == store.Reg {
				next = j
				break
			}
		}
		if next == -1 {
			continue
		}
		v := fresh.Next("nf_var")
		out[i] = ir.Let{v, store.Value}
		rewritten := RewriteUsesUntilNextStore(out, i+1, store.Reg, v)
		copy(out[i+1:], rewritten[i+1:])
	}
	return out
}
