package simplify

import (
	"testing"

	"github.com/aclements/rvxlate/internal/ir"
)

func TestRunConstFoldLiteralArithmetic(t *testing.T) {
	e := ir.Bin{ir.Add, ir.Lit(1), ir.Lit(2)}
	got := RunConstFold(e)
	if !ir.Equal(got, ir.Lit(3)) {
		t.Errorf("RunConstFold(1+2) = %v, want Lit(3)", got)
	}
}

func TestRunConstFoldCommutesLiteralToLeft(t *testing.T) {
	// a0 + 0 should reduce to a0 once commuted to 0 + a0: the 0+x
	// identity only matches a literal on the left.
	e := ir.Bin{ir.Add, ir.LoadReg(ir.RegA0), ir.Lit(0)}
	got := RunConstFold(e)
	if !ir.Equal(got, ir.LoadReg(ir.RegA0)) {
		t.Errorf("RunConstFold(a0 + 0) = %v, want LoadReg(a0)", got)
	}
}

func TestRunConstFoldAssociatesNestedLiterals(t *testing.T) {
	// (a0 + 1) + 2 should associate so the two literals land together
	// and fold to a0 + 3.
	e := ir.Bin{ir.Add, ir.Bin{ir.Add, ir.LoadReg(ir.RegA0), ir.Lit(1)}, ir.Lit(2)}
	got := RunConstFold(e)
	// commute always moves a literal operand to the left, so the
	// folded constant (1+2) ends up on the left of the result too.
	want := ir.Bin{ir.Add, ir.Lit(3), ir.LoadReg(ir.RegA0)}
	if !ir.Equal(got, want) {
		t.Errorf("RunConstFold((a0+1)+2) = %v, want %v", got, want)
	}
}

func TestRunConstFoldIdentities(t *testing.T) {
	a0 := ir.LoadReg(ir.RegA0)
	tests := []struct {
		name string
		in   ir.Expr
		want ir.Expr
	}{
		{"mult by 1", ir.Bin{ir.Mult, ir.Lit(1), a0}, a0},
		{"mult by 0", ir.Bin{ir.Mult, ir.Lit(0), a0}, ir.Lit(0)},
		{"sub self", ir.Bin{ir.Sub, a0, a0}, ir.Lit(0)},
		{"and with all-ones", ir.Bin{ir.And, ir.Lit(-1), a0}, a0},
		{"or with all-ones", ir.Bin{ir.Or, ir.Lit(-1), a0}, ir.Lit(-1)},
		{"xor with zero", ir.Bin{ir.Xor, ir.Lit(0), a0}, a0},
		{"shift by zero", ir.Bin{ir.LogicalShiftLeft, a0, ir.Lit(0)}, a0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := RunConstFold(tc.in)
			if !ir.Equal(got, tc.want) {
				t.Errorf("RunConstFold(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestRunConstFoldDoubleNegation(t *testing.T) {
	e := ir.Un{ir.Negate, ir.Un{ir.Negate, ir.LoadReg(ir.RegA0)}}
	got := RunConstFold(e)
	if !ir.Equal(got, ir.LoadReg(ir.RegA0)) {
		t.Errorf("RunConstFold(-(-a0)) = %v, want LoadReg(a0)", got)
	}
}

func TestRunConstFoldCondLiterals(t *testing.T) {
	c := ir.BinCond{ir.Equal, ir.Lit(1), ir.Lit(1)}
	got := RunConstFoldCond(c)
	if !ir.EqualCond(got, ir.LitCond(true)) {
		t.Errorf("RunConstFoldCond(1 == 1) = %v, want LitCond(true)", got)
	}
}

func TestRunConstFoldCondSetIfLessRewrite(t *testing.T) {
	// (a0 slt a1) != 0  should rewrite to  a0 < a1, since that is what
	// the setIfLess result being nonzero means.
	c := ir.BinCond{ir.NotEqual, ir.Bin{ir.SetIfLess, ir.LoadReg(ir.RegA0), ir.LoadReg(ir.RegA1)}, ir.Lit(0)}
	got := RunConstFoldCond(c)
	want := ir.BinCond{ir.LessThan, ir.LoadReg(ir.RegA0), ir.LoadReg(ir.RegA1)}
	if !ir.EqualCond(got, want) {
		t.Errorf("RunConstFoldCond(slt != 0) = %v, want %v", got, want)
	}
}
