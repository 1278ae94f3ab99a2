package syntax

import (
	"context"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// TreeSitterParser parses with the in-process grammars of a Registry.
type TreeSitterParser struct {
	registry *Registry
}

func NewTreeSitterParser(registry *Registry) *TreeSitterParser {
	if registry == nil {
		registry = NewRegistry()
	}
	return &TreeSitterParser{registry: registry}
}

func (p *TreeSitterParser) Parse(ctx context.Context, source []byte, fileName string) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lang := p.registry.ForFile(fileName)
	if lang == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, fileName)
	}

	// sitter.Parser is not safe for concurrent use
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang.sitterLanguage()); err != nil {
		return nil, fmt.Errorf("%w: failed to set language for %s: %v", ErrParse, fileName, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w: tree-sitter returned nil for %s", ErrParse, fileName)
	}
	defer tree.Close()

	l := &lowerer{lang: lang, src: source}
	root := tree.RootNode()
	return &Tree{
		Root: &Node{
			Kind:      KindOther,
			StartLine: startLine(root),
			EndLine:   endLine(root),
			Children:  l.children(root),
		},
		Language: lang.Name,
	}, nil
}

type lowerer struct {
	lang *Language
	src  []byte
}

func (l *lowerer) lower(n *sitter.Node) []*Node {
	if l.lang.lowerStatements != nil {
		return l.lang.lowerStatements(l, n)
	}

	switch kind := n.Kind(); {
	case l.lang.blocks[kind]:
		return []*Node{l.block(n)}
	case l.lang.functions[kind]:
		return []*Node{{
			Kind:      KindFunction,
			StartLine: startLine(n),
			EndLine:   endLine(n),
			Children:  l.children(n),
		}}
	default:
		// only blocks and functions are kept; everything else is spliced
		// into its parent
		return l.children(n)
	}
}

// children lowers the named children of n.
func (l *lowerer) children(n *sitter.Node) []*Node {
	var out []*Node
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		out = append(out, l.lower(child)...)
	}
	return out
}

// block spans from the first to the last named child of n, which leaves
// out braces and the line that introduces the block. An empty block is
// lowered as KindOther.
func (l *lowerer) block(n *sitter.Node) *Node {
	var first, last *sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		if first == nil {
			first = child
		}
		last = child
	}

	if first == nil {
		return &Node{Kind: KindOther, StartLine: startLine(n), EndLine: endLine(n)}
	}
	return &Node{
		Kind:      KindBlock,
		StartLine: startLine(first),
		EndLine:   endLine(last),
		Children:  l.children(n),
	}
}

func (l *lowerer) text(n *sitter.Node) string {
	return n.Utf8Text(l.src)
}

func startLine(n *sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

func endLine(n *sitter.Node) int {
	return int(n.EndPosition().Row) + 1
}
