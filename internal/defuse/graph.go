package defuse

import (
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// LineGraph is the directed define-use graph of one function: an edge
// runs from a definition line to each line using it.
type LineGraph struct {
	g *simple.DirectedGraph
}

func newLineGraph() *LineGraph {
	return &LineGraph{g: simple.NewDirectedGraph()}
}

// NewLineGraph builds the graph of one chain table. Self-loops are
// dropped but their line stays a node.
func NewLineGraph(chains ChainTable) *LineGraph {
	g := newLineGraph()
	for site, uses := range chains {
		for _, use := range uses {
			g.AddEdge(site.Line, use)
		}
	}
	return g
}

func (g *LineGraph) addNode(line int) graph.Node {
	if n := g.g.Node(int64(line)); n != nil {
		return n
	}
	n := simple.Node(line)
	g.g.AddNode(n)
	return n
}

func (g *LineGraph) AddEdge(from, to int) {
	f := g.addNode(from)
	t := g.addNode(to)
	if from != to {
		g.g.SetEdge(g.g.NewEdge(f, t))
	}
}

func (g *LineGraph) HasNode(line int) bool {
	return g.g.Node(int64(line)) != nil
}

// Nodes returns the lines of the graph in ascending order.
func (g *LineGraph) Nodes() []int {
	var nodes []int
	for it := g.g.Nodes(); it.Next(); {
		nodes = append(nodes, int(it.Node().ID()))
	}
	slices.Sort(nodes)
	return nodes
}

// Edges returns every edge as a {from, to} pair, sorted.
func (g *LineGraph) Edges() [][2]int {
	var edges [][2]int
	for it := g.g.Edges(); it.Next(); {
		e := it.Edge()
		edges = append(edges, [2]int{int(e.From().ID()), int(e.To().ID())})
	}
	slices.SortFunc(edges, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	return edges
}

// Neighbors returns the lines reachable from line along edges, at most
// radius hops away, or without bound when radius is 0. The center is
// never included and an unknown line has no neighbors.
func (g *LineGraph) Neighbors(line, radius int) []int {
	center := g.g.Node(int64(line))
	if center == nil || radius < 0 {
		return []int{}
	}

	out := []int{}
	var bfs traverse.BreadthFirst
	bfs.Walk(g.g, center, func(n graph.Node, depth int) bool {
		if radius > 0 && depth > radius {
			return true
		}
		if depth > 0 {
			out = append(out, int(n.ID()))
		}
		return false
	})
	slices.Sort(out)
	return out
}
