// Package graph provides small directed-graph algorithms (traversal
// order and dominance) shared by the basic-block builder, the
// liveness analysis, and the CFG diagnostic dump. Nodes are densely
// numbered integers; callers adapt their own node type (here, basic
// blocks keyed by entry Address) to this shape.
package graph

// Graph is a directed graph whose nodes are the dense integers
// [0, NumNodes()).
type Graph interface {
	NumNodes() int
	// Out returns the nodes that node i points to.
	Out(i int) []int
}

// BiGraph is a Graph that also exposes predecessor edges.
type BiGraph interface {
	Graph
	// In returns the nodes that point to node i.
	In(i int) []int
}

// MakeBiGraph derives a BiGraph from a unidirectional Graph by
// inverting its edges. If g already implements BiGraph, it is
// returned unchanged.
func MakeBiGraph(g Graph) BiGraph {
	if bg, ok := g.(BiGraph); ok {
		return bg
	}
	preds := make([][]int, g.NumNodes())
	for i := 0; i < g.NumNodes(); i++ {
		for _, j := range g.Out(i) {
			preds[j] = append(preds[j], i)
		}
	}
	return &bigraph{g, preds}
}

type bigraph struct {
	Graph
	preds [][]int
}

func (b *bigraph) In(i int) []int { return b.preds[i] }

// IntGraph is a Graph represented directly as an adjacency list:
// IntGraph[i] is the list of nodes i points to.
type IntGraph [][]int

func (g IntGraph) NumNodes() int    { return len(g) }
func (g IntGraph) Out(i int) []int  { return g[i] }
