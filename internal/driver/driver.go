// Package driver composes §4.7's per-block passes into the top-level
// optimization pipeline selected by an optimization level, the way
// obj's asm.Assemble composes its own decode/build/check stages. It
// sits above internal/simplify, internal/liveness, and
// internal/deadstore so that none of those packages need to know
// about the others.
package driver

import (
	"context"
	"fmt"

	"github.com/aclements/rvxlate/internal/deadstore"
	"github.com/aclements/rvxlate/internal/ir"
	"github.com/aclements/rvxlate/internal/liveness"
	"github.com/aclements/rvxlate/internal/simplify"
)

// Level selects how far the driver carries the fixed point.
type Level int

const (
	Level0 Level = 0 // return input unchanged
	Level1 Level = 1 // non-final-store lifting + simplifyBB1 fixed point
	Level2 Level = 2 // Level1, then liveness + dead-store elimination, then simplifyBB1 again
)

func (l Level) String() string {
	switch l {
	case Level0:
		return "O0"
	case Level1:
		return "O1"
	case Level2:
		return "O2"
	default:
		return fmt.Sprintf("O%d(invalid)", int(l))
	}
}

// InvalidLevelError is returned for any level outside {0, 1, 2}.
type InvalidLevelError struct {
	Level int
}

func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("driver: invalid optimization level %d", e.Level)
}

// Simplify runs the fixed-point driver of §4.7 over prog at the given
// level. indirectTargets is the deduplicated global set of addresses
// reachable by a computed jump anywhere in the program; Level2 needs
// it to seed liveness.Analyze.
func Simplify(ctx context.Context, level Level, indirectTargets []ir.Address, prog ir.Program) (ir.Program, error) {
	switch level {
	case Level0:
		return prog, nil
	case Level1, Level2:
	default:
		return nil, &InvalidLevelError{int(level)}
	}

	lifted := simplify.LiftAll(prog)
	step2 := simplify.SimplifyBB1All(lifted)
	if level == Level1 {
		return step2, nil
	}
	return finishLevel2(ctx, indirectTargets, step2)
}

// finishLevel2 runs §4.7 steps 3-5: liveness over the whole program,
// dead-store elimination per block using each block's live-out
// region, and a second simplifyBB1 fixed point to clean up the Lets
// that dead-store elimination introduces.
func finishLevel2(ctx context.Context, indirectTargets []ir.Address, prog ir.Program) (ir.Program, error) {
	live := liveness.Analyze(prog, indirectTargets)

	stripped, err := simplify.RunPerBlock(ctx, prog, func(b ir.Block) (ir.Block, error) {
		out := live[b.Entry].Out
		return ir.Block{Entry: b.Entry, Stmts: deadstore.Eliminate(b.Stmts, out)}, nil
	})
	if err != nil {
		return nil, err
	}

	return simplify.SimplifyBB1All(stripped), nil
}
