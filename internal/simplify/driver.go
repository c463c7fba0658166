package simplify

import (
	"context"
	"runtime"
	"sync"

	"github.com/aclements/rvxlate/internal/bblock"
	"github.com/aclements/rvxlate/internal/ir"
)

// foldStatement folds every Expr and CondExpr position of s to a
// fixed point.
func foldStatement(s ir.Statement) ir.Statement {
	return ir.MapExprs(s, RunConstFold, RunConstFoldCond)
}

// simplifyBB1 is the inner per-block fixed point of §4.7 step 2:
// fold, substitute, propagate constants, then drop useless
// self-assignments, repeated until the statement list stops
// changing.
func simplifyBB1(stmts []ir.Statement) []ir.Statement {
	for {
		next := make([]ir.Statement, len(stmts))
		for i, s := range stmts {
			next[i] = foldStatement(s)
		}
		next = Substitute(next)
		next = ConstProp(next)
		next = RemoveUselessAssignments(next)

		if stmtsEqual(next, stmts) {
			return next
		}
		stmts = next
	}
}

func stmtsEqual(a, b []ir.Statement) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !stmtEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func stmtEqual(a, b ir.Statement) bool {
	switch a := a.(type) {
	case ir.Let:
		b, ok := b.(ir.Let)
		return ok && a.Name == b.Name && ir.Equal(a.RHS, b.RHS)
	case ir.StoreReg:
		b, ok := b.(ir.StoreReg)
		return ok && a.Reg == b.Reg && ir.Equal(a.Value, b.Value)
	case ir.StoreMem:
		b, ok := b.(ir.StoreMem)
		return ok && a.Op == b.Op && ir.Equal(a.Addr, b.Addr) && ir.Equal(a.Value, b.Value)
	case ir.Jump:
		b, ok := b.(ir.Jump)
		return ok && a.Then == b.Then && a.Else == b.Else && ir.EqualCond(a.Cond, b.Cond)
	case ir.IndirectJump:
		b, ok := b.(ir.IndirectJump)
		return ok && ir.Equal(a.Target, b.Target)
	case ir.Syscall:
		b, ok := b.(ir.Syscall)
		return ok && a.Continuation == b.Continuation
	case ir.Break:
		_, ok := b.(ir.Break)
		return ok
	default:
		return false
	}
}

// Workers bounds the number of blocks processed concurrently by
// runPerBlock. Zero means use runtime.GOMAXPROCS(0), mirroring how the
// CLI's -workers flag (§9) is plumbed through.
var Workers = 0

// runPerBlock applies f to every block of prog concurrently, bounded
// by Workers, and returns a new Program. Ordering of the result never
// depends on completion order: each goroutine writes only to its own
// map key under the mutex, and no goroutine observes another's
// partially-updated output (§5).
func runPerBlock(ctx context.Context, prog ir.Program, f func(ir.Block) (ir.Block, error)) (ir.Program, error) {
	workers := Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	addrs := bblock.SortedAddrs(prog)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	out := make(ir.Program, len(prog))
	errs := make([]error, len(addrs))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i, a := range addrs {
		select {
		case <-runCtx.Done():
		default:
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, a ir.Address, b ir.Block) {
			defer wg.Done()
			defer func() { <-sem }()
			select {
			case <-runCtx.Done():
				return
			default:
			}
			nb, err := f(b)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			mu.Lock()
			out[a] = nb
			mu.Unlock()
		}(i, a, prog[a])
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SimplifyBB1All applies the per-block fold/substitute/propagate/
// useless-assignment fixed point of §4.7 step 2 to every block of
// prog.
func SimplifyBB1All(prog ir.Program) ir.Program {
	return simplifyBB1All(prog)
}

func simplifyBB1All(prog ir.Program) ir.Program {
	out, _ := runPerBlock(context.Background(), prog, func(b ir.Block) (ir.Block, error) {
		return ir.Block{Entry: b.Entry, Stmts: simplifyBB1(b.Stmts)}, nil
	})
	return out
}

// LiftAll applies LiftNonFinalStores to every block of prog (§4.7
// step 1), giving each block its own fresh-variable namer.
func LiftAll(prog ir.Program) ir.Program {
	out, _ := runPerBlock(context.Background(), prog, func(b ir.Block) (ir.Block, error) {
		var namer Namer
		return ir.Block{Entry: b.Entry, Stmts: LiftNonFinalStores(b.Stmts, &namer)}, nil
	})
	return out
}

// RunPerBlock exposes the bounded-parallelism per-block runner of §5
// so that other driver stages (e.g. dead-store elimination) can reuse
// the same worker pool and cancellation behavior instead of building
// their own.
func RunPerBlock(ctx context.Context, prog ir.Program, f func(ir.Block) (ir.Block, error)) (ir.Program, error) {
	return runPerBlock(ctx, prog, f)
}
