// Package syntax turns source text into a small position-annotated tree.
// Two backends produce it: in-process tree-sitter grammars and the external
// srcML tool. Consumers only see the normalized node kinds below.
package syntax

import (
	"context"
	"errors"

	"github.com/agusespa/szz/internal/types"
)

var (
	// ErrParse is returned when a backend cannot produce a tree.
	ErrParse = errors.New("structural parse failed")
	// ErrUnsupportedLanguage is returned for files no backend grammar covers.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

type Kind int

const (
	KindOther Kind = iota
	KindFunction
	// KindBlock spans the content of a lexical block, delimiters excluded.
	KindBlock
	KindDecl
	KindExpr
	KindName
	KindOperator
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindBlock:
		return "block"
	case KindDecl:
		return "decl"
	case KindExpr:
		return "expr"
	case KindName:
		return "name"
	case KindOperator:
		return "operator"
	default:
		return "other"
	}
}

// Node is one element of the normalized tree. Lines are 1-indexed. Text is
// set for leaf names and operators; a compound name (a.b, a[i]) has
// children and an empty Text.
type Node struct {
	Kind      Kind
	Text      string
	StartLine int
	EndLine   int
	Children  []*Node
}

// Line is the line a node is attributed to, which is where it ends.
func (n *Node) Line() int {
	return n.EndLine
}

type Tree struct {
	Root     *Node
	Language string
}

// Parser produces a Tree from source text. fileName selects the language
// by extension.
type Parser interface {
	Parse(ctx context.Context, source []byte, fileName string) (*Tree, error)
}

// Walk visits n and its descendants in document order. Returning false
// from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Blocks returns the content range of every non-empty block in document
// (pre-)order.
func (t *Tree) Blocks() []types.BlockRange {
	var ranges []types.BlockRange
	if t == nil {
		return ranges
	}
	Walk(t.Root, func(n *Node) bool {
		if n.Kind == KindBlock && n.StartLine > 0 && n.EndLine >= n.StartLine {
			ranges = append(ranges, types.BlockRange{Start: n.StartLine, End: n.EndLine})
		}
		return true
	})
	return ranges
}

// Functions returns the outermost function nodes in document order.
func (t *Tree) Functions() []*Node {
	var fns []*Node
	if t == nil {
		return fns
	}
	Walk(t.Root, func(n *Node) bool {
		if n.Kind == KindFunction {
			fns = append(fns, n)
			return false
		}
		return true
	})
	return fns
}
