package diag

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/aclements/go-gg/gg"
	"github.com/aclements/go-gg/table"

	"github.com/aclements/rvxlate/internal/bblock"
	"github.com/aclements/rvxlate/internal/graph"
	"github.com/aclements/rvxlate/internal/ir"
	"github.com/aclements/rvxlate/internal/region"
)

// BlockCell is one cell of the CFG grid dump: a block's position in
// address order, its dominator-tree depth (Row, the entry block is
// row 0), and a liveness-derived heat value (the number of distinct
// registers live out of the block, used as a rough measure of
// register pressure).
type BlockCell struct {
	Index int
	Row   int
	Addr  ir.Address
	Heat  int // region.Count of the block's live-out region
}

// DumpCFG writes two files into dir for one function's block map: a
// block_<entry>.svg heatmap (one tile per block, colored by Heat) via
// go-gg, and a matching .png thumbnail scaled to a fixed size via
// golang.org/x/image/draw, for embedding in reports where SVG is
// inconvenient.
func DumpCFG(dir string, funcAddr ir.Address, cells []BlockCell) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	base := filepath.Join(dir, fmt.Sprintf("block_%#x", uint32(funcAddr)))

	svgPath := base + ".svg"
	f, err := os.Create(svgPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := writeHeatmapSVG(f, cells); err != nil {
		return err
	}

	pngPath := base + ".png"
	pf, err := os.Create(pngPath)
	if err != nil {
		return err
	}
	defer pf.Close()
	return writeHeatmapPNG(pf, cells)
}

// writeHeatmapSVG renders cells as a grid of colored tiles, one
// column per block in address order and one row per dominator-tree
// depth (the entry block at the top), following benchplot/plot.go's
// pattern of building a table.Builder and driving gg.Plot/LayerTiles
// from it.
func writeHeatmapSVG(w io.Writer, cells []BlockCell) error {
	xs := make([]float64, len(cells))
	ys := make([]float64, len(cells))
	fills := make([]float64, len(cells))
	maxRow := 0
	for i, c := range cells {
		xs[i] = float64(c.Index)
		ys[i] = float64(c.Row)
		fills[i] = float64(c.Heat)
		if c.Row > maxRow {
			maxRow = c.Row
		}
	}

	tb := table.NewBuilder(nil)
	tb.Add("x", xs).Add("y", ys).Add("heat", fills)

	plot := gg.NewPlot(tb.Done())
	plot.Add(gg.LayerTiles{X: "x", Y: "y", Fill: "heat"})

	height := 40 * (maxRow + 1)
	if height < 120 {
		height = 120
	}
	width := 24 * len(cells)
	if width < 200 {
		width = 200
	}
	return plot.WriteSVG(w, width, height)
}

// writeHeatmapPNG renders the same data directly as a small bitmap
// (one pixel column per block and one pixel row per dominator-tree
// depth, colored by a simple heat ramp), then upscales it to a
// legible fixed-size thumbnail with draw.BiLinear.Scale the same way
// srgb/main.go downscales a decoded image — the scaler is the same
// regardless of which direction the resize goes.
func writeHeatmapPNG(w io.Writer, cells []BlockCell) error {
	if len(cells) == 0 {
		return png.Encode(w, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	}

	maxHeat, maxRow := 0, 0
	for _, c := range cells {
		if c.Heat > maxHeat {
			maxHeat = c.Heat
		}
		if c.Row > maxRow {
			maxRow = c.Row
		}
	}

	src := image.NewRGBA(image.Rect(0, 0, len(cells), maxRow+1))
	bg := color.RGBA{0x10, 0x10, 0x10, 0xff}
	for y := 0; y <= maxRow; y++ {
		for x := 0; x < len(cells); x++ {
			src.Set(x, y, bg)
		}
	}
	for i, c := range cells {
		src.Set(i, c.Row, heatColor(c.Heat, maxHeat))
	}

	const thumbWidth, thumbHeight = 512, 64
	dst := image.NewRGBA(image.Rect(0, 0, thumbWidth, thumbHeight))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	return png.Encode(w, dst)
}

func heatColor(heat, max int) color.RGBA {
	if max == 0 {
		return color.RGBA{0x20, 0x20, 0x20, 0xff}
	}
	t := float64(heat) / float64(max)
	r := uint8(0x20 + t*(0xff-0x20))
	return color.RGBA{r, 0x40, 0xff - r/2, 0xff}
}

// CellsFromLiveOut builds the BlockCell grid for a function's blocks
// given each block's live-out region, in address order. Row is the
// dominator-tree depth of each block (addrs[0], the function entry,
// is the dominance root), computed from prog's direct-jump CFG via
// graph.IDom/graph.Dom.
func CellsFromLiveOut(prog ir.Program, addrs []ir.Address, liveOut map[ir.Address]region.Region) []BlockCell {
	cells := make([]BlockCell, len(addrs))
	if len(addrs) == 0 {
		return cells
	}

	g := bblock.Graph(prog, addrs)
	tree := graph.Dom(graph.IDom(g, 0))

	for i, a := range addrs {
		// A block with no direct-edge path from the entry (reachable
		// only via an indirect jump) gets idom -1 and Depth 0, the
		// same row as the entry itself; that is fine here, since
		// rows only need to separate blocks dominance can order.
		cells[i] = BlockCell{Index: i, Row: tree.Depth(i), Addr: a, Heat: region.Count(liveOut[a])}
	}
	return cells
}
