package defuse

import (
	"context"
	"testing"

	"github.com/agusespa/szz/internal/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainSource = `int f(int n) {
    int a = 0;
    int c = n * 2;
    int d = c + 1;
    a = a + 1;
    a = c + a;
    int b = c * a;
    for (int i = 0; i < n; i++) {
        d += i;
    }
    return b + d + a;
}
`

const structSource = `void g(struct P *p) {
    int s = 0;
    p->salary = 10;
    s = p->salary + p->age;
    p->age = s;
}
`

func site(name string, line int) DefinitionSite {
	return DefinitionSite{Name: name, Line: line}
}

func buildC(t *testing.T, src string) []FunctionChains {
	t.Helper()
	tree, err := syntax.NewTreeSitterParser(nil).Parse(context.Background(), []byte(src), "f.c")
	require.NoError(t, err)
	return Build(tree)
}

func fixtureGraph() *LineGraph {
	g := newLineGraph()
	edges := [][2]int{{3, 4}, {3, 6}, {3, 7}, {5, 6}, {6, 7}, {6, 18}, {8, 8}, {9, 12}, {13, 14}, {13, 15}, {13, 16}}
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

func TestBuild_Chains(t *testing.T) {
	fns := buildC(t, chainSource)
	require.Len(t, fns, 1)

	fc := fns[0]
	assert.Equal(t, 1, fc.StartLine)
	assert.Equal(t, 12, fc.EndLine)
	assert.Equal(t, []DefinitionSite{
		site("n", 1), site("a", 2), site("c", 3), site("d", 4), site("a", 5),
		site("a", 6), site("b", 7), site("i", 8), site("d", 9),
	}, fc.Definitions)

	assert.Equal(t, ChainTable{
		site("n", 1): {3, 8},
		site("a", 2): {5},
		site("c", 3): {4, 6, 7},
		site("a", 5): {6},
		site("a", 6): {7, 11},
		site("b", 7): {11},
		site("i", 8): {8, 9},
		site("d", 9): {11},
	}, fc.Chains)
}

func TestBuild_MemberAccess(t *testing.T) {
	fns := buildC(t, structSource)
	require.Len(t, fns, 1)

	assert.Equal(t, []DefinitionSite{
		site("p", 1), site("s", 2), site("p->salary", 3), site("s", 4), site("p->age", 5),
	}, fns[0].Definitions)
	assert.Equal(t, ChainTable{
		site("p->salary", 3): {4},
		site("s", 4):         {5},
	}, fns[0].Chains)
}

func TestBuild_OneTablePerFunction(t *testing.T) {
	fns := buildC(t, chainSource+structSource)
	require.Len(t, fns, 2)
	assert.Equal(t, 13, fns[1].StartLine)
}

func TestFoldName(t *testing.T) {
	leaf := func(kind syntax.Kind, text string) *syntax.Node {
		return &syntax.Node{Kind: kind, Text: text}
	}
	compound := func(children ...*syntax.Node) *syntax.Node {
		return &syntax.Node{Kind: syntax.KindName, Children: children}
	}

	ab := compound(leaf(syntax.KindName, "a"), leaf(syntax.KindOperator, "."), leaf(syntax.KindName, "b"))
	abc := compound(ab, leaf(syntax.KindOperator, "->"), leaf(syntax.KindName, "c"))
	index := compound(leaf(syntax.KindName, "a"), &syntax.Node{Kind: syntax.KindExpr})

	assert.Equal(t, "x", foldName(leaf(syntax.KindName, "x")))
	assert.Equal(t, "a.b", foldName(ab))
	assert.Equal(t, "a.b->c", foldName(abc))
	assert.Equal(t, "", foldName(index))
}

func TestIsDefinitionTarget(t *testing.T) {
	name := &syntax.Node{Kind: syntax.KindName, Text: "x"}
	op := func(text string) *syntax.Node {
		return &syntax.Node{Kind: syntax.KindOperator, Text: text}
	}

	tests := []struct {
		name     string
		siblings []*syntax.Node
		index    int
		expect   bool
	}{
		{"assignment", []*syntax.Node{name, op("=")}, 0, true},
		{"compound assignment", []*syntax.Node{name, op("<<=")}, 0, true},
		{"prefix increment", []*syntax.Node{op("++"), name}, 1, true},
		{"postfix decrement", []*syntax.Node{name, op("--")}, 0, true},
		{"comparison", []*syntax.Node{name, op("==")}, 0, false},
		{"right-hand side", []*syntax.Node{op("="), name}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, isDefinitionTarget(tt.siblings, tt.index))
		})
	}
}

func TestLineGraph_Fixture(t *testing.T) {
	g := fixtureGraph()

	assert.Equal(t, []int{3, 4, 5, 6, 7, 8, 9, 12, 13, 14, 15, 16, 18}, g.Nodes())
	assert.NotContains(t, g.Edges(), [2]int{8, 8})
	assert.Len(t, g.Edges(), 10)

	assert.Equal(t, []int{7, 18}, g.Neighbors(6, 0))
	assert.Equal(t, []int{14, 15, 16}, g.Neighbors(13, 0))
	assert.Empty(t, g.Neighbors(8, 0))
	assert.Empty(t, g.Neighbors(100, 0))
}

func TestLineGraph_Radius(t *testing.T) {
	g := fixtureGraph()

	assert.Equal(t, []int{6}, g.Neighbors(5, 1))
	assert.Equal(t, []int{6, 7, 18}, g.Neighbors(5, 2))
	assert.Equal(t, []int{6, 7, 18}, g.Neighbors(5, 0))
}

func TestLineGraph_NeighborsMonotone(t *testing.T) {
	g := newLineGraph()
	for i := 1; i < 30; i++ {
		g.AddEdge(i, i+1)
		g.AddEdge(i, (i*7)%30+1)
	}

	for _, center := range g.Nodes() {
		prev := g.Neighbors(center, 1)
		for r := 2; r <= 8; r++ {
			cur := g.Neighbors(center, r)
			assert.Subset(t, cur, prev, "center %d radius %d", center, r)
			prev = cur
		}
		assert.Subset(t, g.Neighbors(center, 0), prev)
	}
}

func TestNewLineGraph(t *testing.T) {
	g := NewLineGraph(ChainTable{
		site("a", 2): {3, 2},
		site("b", 3): {5},
	})
	assert.Equal(t, []int{2, 3, 5}, g.Nodes())
	assert.Equal(t, [][2]int{{2, 3}, {3, 5}}, g.Edges())
}

func TestExpander(t *testing.T) {
	ctx := context.Background()
	parser := syntax.NewTreeSitterParser(nil)

	tests := []struct {
		name   string
		radius int
		added  []int
		expect []int
	}{
		{"unbounded", 0, []int{6}, []int{7, 11}},
		{"one hop", 1, []int{3}, []int{4, 6, 7}},
		{"unbounded from a root", 0, []int{3}, []int{4, 6, 7, 11}},
		{"added lines are excluded", 0, []int{3, 7}, []int{4, 6, 11}},
		{"line outside the graph", 0, []int{10}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := NewExpander(parser, tt.radius).Expand(ctx, chainSource, "f.c", tt.added)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, lines)
		})
	}
}

func TestExpander_Unsupported(t *testing.T) {
	_, err := NewExpander(syntax.NewTreeSitterParser(nil), 0).Expand(context.Background(), "x = 1\n", "f.py", []int{1})
	assert.ErrorIs(t, err, syntax.ErrUnsupportedLanguage)
}
