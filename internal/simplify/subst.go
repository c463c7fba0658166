package simplify

import (
	"github.com/aclements/rvxlate/internal/ir"
	"github.com/aclements/rvxlate/internal/region"
)

// substExpr replaces every occurrence of Var(v) in e with rhs.
func substExpr(e ir.Expr, v ir.VarName, rhs ir.Expr) ir.Expr {
	switch e := e.(type) {
	case ir.Lit, ir.LoadReg:
		return e
	case ir.Var:
		if ir.VarName(e) == v {
			return rhs
		}
		return e
	case ir.LoadMem:
		return ir.LoadMem{e.Op, substExpr(e.Addr, v, rhs)}
	case ir.Un:
		return ir.Un{e.Op, substExpr(e.X, v, rhs)}
	case ir.Bin:
		return ir.Bin{e.Op, substExpr(e.X, v, rhs), substExpr(e.Y, v, rhs)}
	default:
		panic("simplify: unknown expression kind")
	}
}

func substCond(c ir.CondExpr, v ir.VarName, rhs ir.Expr) ir.CondExpr {
	switch c := c.(type) {
	case ir.LitCond:
		return c
	case ir.BinCond:
		return ir.BinCond{c.Op, substExpr(c.X, v, rhs), substExpr(c.Y, v, rhs)}
	default:
		panic("simplify: unknown condition kind")
	}
}

func substStmt(s ir.Statement, v ir.VarName, rhs ir.Expr) ir.Statement {
	return ir.MapExprs(s,
		func(e ir.Expr) ir.Expr { return substExpr(e, v, rhs) },
		func(c ir.CondExpr) ir.CondExpr { return substCond(c, v, rhs) },
	)
}

// countVarExpr counts occurrences of Var(v) in e.
func countVarExpr(e ir.Expr, v ir.VarName) int {
	switch e := e.(type) {
	case ir.Lit, ir.LoadReg:
		return 0
	case ir.Var:
		if ir.VarName(e) == v {
			return 1
		}
		return 0
	case ir.LoadMem:
		return countVarExpr(e.Addr, v)
	case ir.Un:
		return countVarExpr(e.X, v)
	case ir.Bin:
		return countVarExpr(e.X, v) + countVarExpr(e.Y, v)
	default:
		panic("simplify: unknown expression kind")
	}
}

func countVarCond(c ir.CondExpr, v ir.VarName) int {
	switch c := c.(type) {
	case ir.LitCond:
		return 0
	case ir.BinCond:
		return countVarExpr(c.X, v) + countVarExpr(c.Y, v)
	default:
		panic("simplify: unknown condition kind")
	}
}

func countVarStmt(s ir.Statement, v ir.VarName) int {
	n := 0
	ir.MapExprs(s,
		func(e ir.Expr) ir.Expr { n += countVarExpr(e, v); return e },
		func(c ir.CondExpr) ir.CondExpr { n += countVarCond(c, v); return c },
	)
	return n
}

// isSimple reports whether e is a Lit, Var, or LoadReg: cheap enough
// that substituting it is always worth doing regardless of how many
// times it is referenced (§4.4.1).
func isSimple(e ir.Expr) bool {
	switch e.(type) {
	case ir.Lit, ir.Var, ir.LoadReg:
		return true
	default:
		return false
	}
}

// substituteSafe finds the first statement in rest whose write
// region overlaps rd (the read region of the candidate RHS). If none
// exists, substitution is always safe. Otherwise it is safe only if
// no statement strictly after that hazard point reads or writes v
// (§4.4.1's hazard rule).
func substituteSafe(rest []ir.Statement, rd region.Region, v ir.VarName) bool {
	hazard := -1
	for i, s := range rest {
		if region.Overlaps(region.Write(s), rd) {
			hazard = i
			break
		}
	}
	if hazard == -1 {
		return true
	}
	for i := hazard + 1; i < len(rest); i++ {
		if refersTo(rest[i], v) {
			return false
		}
	}
	return true
}

func refersTo(s ir.Statement, v ir.VarName) bool {
	return countVarStmt(s, v) > 0
}

// Substitute walks stmts left to right, substituting and dropping
// each Let(v, rhs) whose substitution is safe and either simple or
// referenced at most once in the remainder (§4.4.1).
func Substitute(stmts []ir.Statement) []ir.Statement {
	stmts = append([]ir.Statement(nil), stmts...)
	out := make([]ir.Statement, 0, len(stmts))
	for i := 0; i < len(stmts); i++ {
		let, ok := stmts[i].(ir.Let)
		if !ok {
			out = append(out, stmts[i])
			continue
		}

		rest := stmts[i+1:]
		refs := 0
		for _, s := range rest {
			refs += countVarStmt(s, let.Name)
		}

		eligible := isSimple(let.RHS) || refs <= 1
		if eligible && substituteSafe(rest, region.ReadExpr(let.RHS), let.Name) {
			for j := range rest {
				rest[j] = substStmt(rest[j], let.Name, let.RHS)
			}
			continue // drop the Let
		}
		out = append(out, stmts[i])
	}
	return out
}
