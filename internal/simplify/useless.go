package simplify

import "github.com/aclements/rvxlate/internal/ir"

// RemoveUselessAssignments deletes StoreReg(r, LoadReg(r)) statements
// (§4.4.4), which substitution can produce once a register's current
// value has been propagated back into a store of itself.
func RemoveUselessAssignments(stmts []ir.Statement) []ir.Statement {
	out := make([]ir.Statement, 0, len(stmts))
	for _, s := range stmts {
		if store, ok := s.(ir.StoreReg); ok {
			if load, ok := store.Value.(ir.LoadReg); ok && ir.RegName(load) == store.Reg {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}
