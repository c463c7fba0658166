// Command rvxlate statically translates a 32-bit RISC-V ELF
// executable into C-like header and implementation source files.
//
// Usage:
//
//	rvxlate [flags] input.elf output.h
//
// The -impl flag gives the implementation file path (default:
// output.h with its extension replaced by .c). -O selects the
// optimization level (0, 1, or 2; default 1). Extra flags may be
// supplied via the RVXLATE_FLAGS environment variable, shell-quoted
// and prepended to the command line, the way several of the
// teacher's own tools source default arguments from the environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/aclements/rvxlate/internal/bblock"
	"github.com/aclements/rvxlate/internal/cliargs"
	"github.com/aclements/rvxlate/internal/decode"
	"github.com/aclements/rvxlate/internal/diag"
	"github.com/aclements/rvxlate/internal/driver"
	"github.com/aclements/rvxlate/internal/elfload"
	"github.com/aclements/rvxlate/internal/emit"
	"github.com/aclements/rvxlate/internal/ir"
	"github.com/aclements/rvxlate/internal/liveness"
	"github.com/aclements/rvxlate/internal/region"
	"github.com/aclements/rvxlate/internal/simplify"
)

func main() {
	log.SetPrefix("rvxlate: ")
	log.SetFlags(0)

	extra, err := cliargs.EnvFlags(os.Getenv("RVXLATE_FLAGS"))
	if err != nil {
		log.Fatalf("parsing RVXLATE_FLAGS: %v", err)
	}
	args := cliargs.Prepend(extra, os.Args[1:])

	var (
		flagImpl    = flag.String("impl", "", "implementation output `path` (default: header path with .c)")
		flagLevel   = flag.Int("O", 1, "optimization `level` (0, 1, or 2)")
		flagWorkers = flag.Int("workers", 0, "number of blocks to simplify concurrently (default: GOMAXPROCS)")
		flagStats   = flag.Bool("stats", false, "print a block-size and simplifier-iteration summary to stderr")
		flagDumpCFG = flag.String("dump-cfg", "", "write per-block CFG heatmap SVG/PNG files to `dir`")
	)
	flag.CommandLine.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] input.elf output.h\n", os.Args[0])
		flag.PrintDefaults()
	}
	if err := flag.CommandLine.Parse(args); err != nil {
		os.Exit(2)
	}

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	elfPath, headerPath := flag.Arg(0), flag.Arg(1)
	implPath := *flagImpl
	if implPath == "" {
		implPath = strings.TrimSuffix(headerPath, ".h") + ".c"
	}

	level := driver.Level(*flagLevel)
	switch level {
	case driver.Level0, driver.Level1, driver.Level2:
	default:
		log.Fatalf("invalid optimization level %d (must be 0, 1, or 2)", *flagLevel)
	}

	f, err := os.Open(elfPath)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	img, err := elfload.Load(elfPath, f)
	if err != nil {
		log.Fatal(err)
	}

	decoded, err := decode.Decode(img)
	if err != nil {
		log.Fatal(err)
	}

	indirectTargets := dedupAddrs(decoded.IndirectTargets)

	prog, err := bblock.Build(decoded.Insts, indirectTargets)
	if err != nil {
		log.Fatal(err)
	}

	if *flagWorkers > 0 {
		// Plumbed through package-level state rather than a function
		// parameter: the worker pool lives inside internal/simplify,
		// which driver.Simplify calls into several times per level,
		// and every call should honor the same bound.
		simplify.Workers = *flagWorkers
	}

	simplified, err := driver.Simplify(context.Background(), level, indirectTargets, prog)
	if err != nil {
		log.Fatal(err)
	}

	if *flagStats {
		printStats(simplified)
	}
	if *flagDumpCFG != "" {
		if err := dumpCFG(*flagDumpCFG, simplified, indirectTargets); err != nil {
			log.Fatal(err)
		}
	}

	header, impl, err := emit.Emit(emit.Program{
		Blocks:          simplified,
		IndirectTargets: indirectTargets,
		Data:            img.Data,
		Entry:           ir.Address(img.Entry),
		ProgramBreak:    img.ProgramBreak,
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(headerPath, []byte(header), 0o644); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(implPath, []byte(impl), 0o644); err != nil {
		log.Fatal(err)
	}
}

func dedupAddrs(addrs []ir.Address) []ir.Address {
	seen := make(map[ir.Address]bool, len(addrs))
	out := make([]ir.Address, 0, len(addrs))
	for _, a := range addrs {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

func printStats(prog ir.Program) {
	addrs := bblock.SortedAddrs(prog)
	stats := diag.BlockStats{StmtCounts: make([]int, len(addrs))}
	for i, a := range addrs {
		stats.StmtCounts[i] = len(prog[a].Stmts)
	}
	diag.WriteSummary(os.Stderr, stats)
}

func dumpCFG(dir string, prog ir.Program, indirectTargets []ir.Address) error {
	addrs := bblock.SortedAddrs(prog)
	live := liveness.Analyze(prog, indirectTargets)

	liveOut := make(map[ir.Address]region.Region, len(addrs))
	for _, a := range addrs {
		liveOut[a] = live[a].Out
	}

	cells := diag.CellsFromLiveOut(prog, addrs, liveOut)
	if len(addrs) == 0 {
		return nil
	}
	return diag.DumpCFG(dir, addrs[0], cells)
}
