package simplify

import "github.com/aclements/rvxlate/internal/ir"

// ConstProp runs the single left-to-right register-constant
// propagation pass of §4.4.2. env tracks which registers currently
// hold a known literal value; it is reset at the start of each block
// and never crosses block boundaries.
func ConstProp(stmts []ir.Statement) []ir.Statement {
	env := make(map[ir.RegName]int32)
	out := make([]ir.Statement, 0, len(stmts))
	ended := false

	for _, s := range stmts {
		if ended {
			out = append(out, s)
			continue
		}

		switch s := s.(type) {
		case ir.StoreReg:
			e := substEnv(s.Value, env)
			if lit, ok := e.(ir.Lit); ok {
				env[s.Reg] = int32(lit)
			} else {
				delete(env, s.Reg)
			}
			out = append(out, ir.StoreReg{s.Reg, e})
		case ir.Syscall:
			out = append(out, substEnvStmt(s, env))
			ended = true
		case ir.IndirectJump:
			out = append(out, substEnvStmt(s, env))
			ended = true
		default:
			out = append(out, substEnvStmt(s, env))
		}
	}
	return out
}

func substEnv(e ir.Expr, env map[ir.RegName]int32) ir.Expr {
	switch e := e.(type) {
	case ir.Lit, ir.Var:
		return e
	case ir.LoadReg:
		if v, ok := env[ir.RegName(e)]; ok {
			return ir.Lit(v)
		}
		return e
	case ir.LoadMem:
		return ir.LoadMem{e.Op, substEnv(e.Addr, env)}
	case ir.Un:
		return ir.Un{e.Op, substEnv(e.X, env)}
	case ir.Bin:
		return ir.Bin{e.Op, substEnv(e.X, env), substEnv(e.Y, env)}
	default:
		panic("simplify: unknown expression kind")
	}
}

func substEnvCond(c ir.CondExpr, env map[ir.RegName]int32) ir.CondExpr {
	switch c := c.(type) {
	case ir.LitCond:
		return c
	case ir.BinCond:
		return ir.BinCond{c.Op, substEnv(c.X, env), substEnv(c.Y, env)}
	default:
		panic("simplify: unknown condition kind")
	}
}

func substEnvStmt(s ir.Statement, env map[ir.RegName]int32) ir.Statement {
	return ir.MapExprs(s,
		func(e ir.Expr) ir.Expr { return substEnv(e, env) },
		func(c ir.CondExpr) ir.CondExpr { return substEnvCond(c, env) },
	)
}
