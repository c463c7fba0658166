// Package diag implements the -stats and -dump-cfg diagnostics named
// in §9/§10: a terminal-width-aware summary table (following
// stress2/reporter.go's and benchmany/status.go's use of
// golang.org/x/crypto/ssh/terminal) and an optional per-function CFG
// visualization combining an SVG heatmap (github.com/aclements/go-gg,
// following benchplot/plot.go's use of table+gg) with a PNG thumbnail
// (golang.org/x/image/draw, following srgb/main.go's use of
// draw.BiLinear.Scale).
package diag

import (
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/aclements/go-moremath/scale"
)

// BlockStats summarizes the per-block statement counts and
// simplifier iteration counts. The driver does not record iteration
// counts and cmd/rvxlate fills in only StmtCounts, so the -stats
// summary reports mean and stddev 0 for iterations.
type BlockStats struct {
	StmtCounts []int // number of statements, per block, after simplification
	Iterations []int // number of simplifyBB1 fixed-point rounds taken, per block
}

func mean(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += float64(x)
	}
	return sum / float64(len(xs))
}

func stddev(xs []int, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sumSq float64
	for _, x := range xs {
		d := float64(x) - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

// terminalWidth returns the current terminal width, falling back to
// 80 columns when stdout is not a terminal (piped output, CI logs)
// exactly as stress2's ReporterDumb/ReporterVT100 split does.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !terminal.IsTerminal(fd) {
		return 80
	}
	w, _, err := terminal.GetSize(fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// histogramLevel picks how many buckets the block-size histogram
// should use: as many as TickOptions.FindLevel says will fit legibly
// in the available terminal width, one character wide apiece plus a
// label gutter.
func histogramLevel(max, width int) int {
	budget := width - 20
	if budget < 1 {
		budget = 1
	}
	opts := scale.TickOptions{Max: budget}
	level, ok := opts.FindLevel(
		func(level int) int {
			n := max - level
			if n < 1 {
				n = 1
			}
			return n
		},
		func(level int) []float64 {
			n := max - level
			if n < 1 {
				n = 1
			}
			ticks := make([]float64, n)
			for i := range ticks {
				ticks[i] = float64(i)
			}
			return ticks
		},
		0,
	)
	if !ok {
		return 1
	}
	n := max - level
	if n < 1 {
		n = 1
	}
	return n
}

// WriteSummary writes a terminal-width-aware summary table of s to w.
func WriteSummary(w io.Writer, s BlockStats) {
	width := terminalWidth()

	stmtMean := mean(s.StmtCounts)
	stmtStd := stddev(s.StmtCounts, stmtMean)
	iterMean := mean(s.Iterations)
	iterStd := stddev(s.Iterations, iterMean)

	fmt.Fprintf(w, "blocks: %d\n", len(s.StmtCounts))
	fmt.Fprintf(w, "statements per block: mean %.2f, stddev %.2f\n", stmtMean, stmtStd)
	fmt.Fprintf(w, "simplify iterations per block: mean %.2f, stddev %.2f\n", iterMean, iterStd)

	maxStmts := 0
	for _, n := range s.StmtCounts {
		if n > maxStmts {
			maxStmts = n
		}
	}
	buckets := histogramLevel(maxStmts, width)
	writeHistogram(w, s.StmtCounts, buckets, width)
}

// writeHistogram renders a simple ASCII bar histogram of xs across n
// buckets spanning [0, max(xs)], each bar capped to fit width
// columns.
func writeHistogram(w io.Writer, xs []int, n, width int) {
	if n <= 0 || len(xs) == 0 {
		return
	}
	max := 0
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	if max == 0 {
		return
	}

	counts := make([]int, n)
	for _, x := range xs {
		b := x * n / (max + 1)
		if b >= n {
			b = n - 1
		}
		counts[b]++
	}

	peak := 0
	for _, c := range counts {
		if c > peak {
			peak = c
		}
	}
	barWidth := width - 16
	if barWidth < 1 {
		barWidth = 1
	}

	for i, c := range counts {
		lo := i * (max + 1) / n
		hi := (i+1)*(max+1)/n - 1
		barLen := 0
		if peak > 0 {
			barLen = c * barWidth / peak
		}
		fmt.Fprintf(w, "%4d-%-4d |%s %d\n", lo, hi, repeat("#", barLen), c)
	}
}

func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
