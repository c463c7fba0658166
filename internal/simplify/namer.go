package simplify

import (
	"fmt"

	"github.com/aclements/rvxlate/internal/ir"
)

// Namer generates fresh VarNames with a stable prefix and a per-block
// counter (§3: "nf_var_N", "dead_var_N"). A Namer must not be shared
// across blocks, since VarNames are only unique within a block.
type Namer struct {
	n int
}

// Next returns a fresh name "<prefix>_N" and advances the counter.
func (f *Namer) Next(prefix string) ir.VarName {
	v := ir.VarName(fmt.Sprintf("%s_%d", prefix, f.n))
	f.n++
	return v
}
