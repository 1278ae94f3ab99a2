// Package defuse builds per-function define-use chains from a syntax tree
// and answers neighborhood queries over the resulting line graphs.
package defuse

import (
	"fmt"
	"slices"

	"github.com/agusespa/szz/internal/syntax"
)

var assignOps = map[string]bool{
	"=": true, "*=": true, "/=": true, "%=": true, "+=": true, "-=": true,
	"&=": true, "^=": true, "|=": true, "<<=": true, ">>=": true,
}

// DefinitionSite is one definition of a variable. Member accesses are
// whole names: person.salary and person are different variables.
type DefinitionSite struct {
	Name string
	Line int
}

func (d DefinitionSite) String() string {
	return fmt.Sprintf("%s:%d", d.Name, d.Line)
}

// ChainTable maps each definition to the sorted lines that use it.
type ChainTable map[DefinitionSite][]int

// FunctionChains holds the analysis of one function.
type FunctionChains struct {
	StartLine int
	EndLine   int
	// Definitions lists every definition site in the order it was
	// committed, including ones without uses.
	Definitions []DefinitionSite
	Chains      ChainTable
}

// Build computes the define-use chains of every function in tree.
func Build(tree *syntax.Tree) []FunctionChains {
	var out []FunctionChains
	for _, fn := range tree.Functions() {
		out = append(out, buildFunction(fn))
	}
	return out
}

type pendingName struct {
	name string
	line int
}

type builder struct {
	latest      map[string]DefinitionSite
	defs        []DefinitionSite
	uses        map[DefinitionSite]map[int]bool
	pendingDefs []pendingName
	pendingUses []pendingName
}

func buildFunction(fn *syntax.Node) FunctionChains {
	b := &builder{
		latest: make(map[string]DefinitionSite),
		uses:   make(map[DefinitionSite]map[int]bool),
	}

	visited := make(map[*syntax.Node]bool)
	var walk func(parent, n *syntax.Node)
	walk = func(parent, n *syntax.Node) {
		if n.Kind == syntax.KindName && parent != nil && !visited[parent] &&
			(parent.Kind == syntax.KindDecl || parent.Kind == syntax.KindExpr) {
			visited[parent] = true
			b.visit(parent)
		}
		for _, c := range n.Children {
			walk(n, c)
		}
	}
	walk(nil, fn)
	b.flush()

	chains := make(ChainTable)
	for site, lines := range b.uses {
		if len(lines) == 0 {
			continue
		}
		sorted := make([]int, 0, len(lines))
		for l := range lines {
			sorted = append(sorted, l)
		}
		slices.Sort(sorted)
		chains[site] = sorted
	}

	return FunctionChains{
		StartLine:   fn.StartLine,
		EndLine:     fn.EndLine,
		Definitions: b.defs,
		Chains:      chains,
	}
}

// visit classifies the direct name children of a decl or expr node. Names
// of one statement are buffered until a node on another line shows up.
func (b *builder) visit(parent *syntax.Node) {
	children := parent.Children
	if len(b.pendingDefs) > 0 && len(children) > 0 &&
		b.pendingDefs[len(b.pendingDefs)-1].line != children[len(children)-1].Line() {
		b.flush()
	}

	for i, c := range children {
		if c.Kind != syntax.KindName {
			continue
		}
		name := foldName(c)
		if name == "" {
			continue
		}
		pn := pendingName{name: name, line: c.Line()}

		if parent.Kind == syntax.KindDecl || isDefinitionTarget(children, i) {
			b.pendingDefs = append(b.pendingDefs, pn)
			continue
		}
		if !b.use(pn) {
			b.pendingUses = append(b.pendingUses, pn)
		}
	}
}

func (b *builder) flush() {
	for _, d := range b.pendingDefs {
		b.define(d)
	}
	b.pendingDefs = nil

	// uses still without a definition are dropped
	for _, u := range b.pendingUses {
		b.use(u)
	}
	b.pendingUses = nil
}

func (b *builder) define(pn pendingName) {
	site := DefinitionSite{Name: pn.name, Line: pn.line}
	b.latest[pn.name] = site
	if _, ok := b.uses[site]; !ok {
		b.uses[site] = make(map[int]bool)
		b.defs = append(b.defs, site)
	}
}

func (b *builder) use(pn pendingName) bool {
	site, ok := b.latest[pn.name]
	if !ok {
		return false
	}
	b.uses[site][pn.line] = true
	return true
}

// isDefinitionTarget reports whether the name at i is assigned to or
// incremented/decremented in either position.
func isDefinitionTarget(siblings []*syntax.Node, i int) bool {
	if i+1 < len(siblings) {
		next := siblings[i+1]
		if next.Kind == syntax.KindOperator && (assignOps[next.Text] || isStep(next.Text)) {
			return true
		}
	}
	if i > 0 {
		prev := siblings[i-1]
		if prev.Kind == syntax.KindOperator && isStep(prev.Text) {
			return true
		}
	}
	return false
}

func isStep(op string) bool {
	return op == "++" || op == "--"
}

// foldName returns the identity of a name node: the identifier itself, or
// the joined form of a member access (a.b, a->b, a.b.c). Other compound
// names such as subscripts yield "".
func foldName(n *syntax.Node) string {
	if len(n.Children) == 0 {
		return n.Text
	}
	if len(n.Children) != 3 {
		return ""
	}

	left, op, right := n.Children[0], n.Children[1], n.Children[2]
	if left.Kind != syntax.KindName || right.Kind != syntax.KindName ||
		op.Kind != syntax.KindOperator || (op.Text != "." && op.Text != "->") {
		return ""
	}

	l, r := foldName(left), foldName(right)
	if l == "" || r == "" {
		return ""
	}
	return l + op.Text + r
}
