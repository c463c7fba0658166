package simplify

import "github.com/aclements/rvxlate/internal/ir"

// RewriteUsesUntilNextStore rewrites LoadReg(r) to Var(v) in stmts,
// starting at index from, up to and including the next StoreReg(r,
// _) (or through the end of the block if there is none). Non-final-
// store lifting (§4.4.3) uses it after replacing a soon-overwritten
// store with a Let. Dead-store elimination (internal/deadstore) does
// not call it: a store it rewrites has, by its liveness check, no read
// of the register before the next write, so there is nothing to
// rewrite.
func RewriteUsesUntilNextStore(stmts []ir.Statement, from int, r ir.RegName, v ir.VarName) []ir.Statement {
	out := make([]ir.Statement, len(stmts))
	copy(out, stmts)
	for k := from; k < len(out); k++ {
		out[k] = replaceLoadRegStmt(out[k], r, v)
		if later, ok := out[k].(ir.StoreReg); ok && later.Reg == r {
			break
		}
	}
	return out
}
