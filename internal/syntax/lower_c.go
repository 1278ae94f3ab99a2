package syntax

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

var cDeclaratorKinds = set(
	"identifier",
	"init_declarator",
	"pointer_declarator",
	"array_declarator",
	"parenthesized_declarator",
	"attributed_declarator",
)

var cExpressionKinds = set(
	"identifier",
	"field_expression",
	"subscript_expression",
	"call_expression",
	"assignment_expression",
	"binary_expression",
	"unary_expression",
	"update_expression",
	"pointer_expression",
	"conditional_expression",
	"cast_expression",
	"comma_expression",
	"parenthesized_expression",
	"sizeof_expression",
	"compound_literal_expression",
	"initializer_list",
	"number_literal",
	"string_literal",
	"concatenated_string",
	"char_literal",
	"true",
	"false",
	"null",
)

var cLiteralKinds = set(
	"number_literal",
	"string_literal",
	"concatenated_string",
	"char_literal",
	"true",
	"false",
	"null",
	"sizeof_expression",
)

// lowerCStatement lowers C statements into decl, expr, name and operator
// nodes shaped the way srcML marks up C, so both backends feed the same
// define-use analysis.
func lowerCStatement(l *lowerer, n *sitter.Node) []*Node {
	kind := n.Kind()
	switch {
	case kind == "comment":
		return nil
	case kind == "function_definition":
		return []*Node{l.cFunction(n)}
	case l.lang.blocks[kind]:
		return []*Node{l.block(n)}
	case kind == "declaration":
		return []*Node{l.cDeclaration(n)}
	case cExpressionKinds[kind]:
		return []*Node{l.cExpr(n)}
	}

	return []*Node{{
		Kind:      KindOther,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Children:  l.children(n),
	}}
}

func (l *lowerer) cFunction(n *sitter.Node) *Node {
	fn := &Node{Kind: KindFunction, StartLine: startLine(n), EndLine: endLine(n)}

	if decl := findFunctionDeclarator(n.ChildByFieldName("declarator")); decl != nil {
		if params := decl.ChildByFieldName("parameters"); params != nil {
			for i := uint(0); i < params.NamedChildCount(); i++ {
				p := params.NamedChild(i)
				if p == nil || p.Kind() != "parameter_declaration" {
					continue
				}
				if d := l.cDeclarator(p.ChildByFieldName("declarator")); d != nil {
					fn.Children = append(fn.Children, d)
				}
			}
		}
	}

	if body := n.ChildByFieldName("body"); body != nil {
		fn.Children = append(fn.Children, l.lower(body)...)
	}
	return fn
}

func findFunctionDeclarator(n *sitter.Node) *sitter.Node {
	for n != nil {
		if n.Kind() == "function_declarator" {
			return n
		}
		n = n.ChildByFieldName("declarator")
	}
	return nil
}

// cDeclaration groups one decl node per declarator under a statement node.
func (l *lowerer) cDeclaration(n *sitter.Node) *Node {
	stmt := &Node{Kind: KindOther, StartLine: startLine(n), EndLine: endLine(n)}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || !cDeclaratorKinds[child.Kind()] {
			continue
		}
		if d := l.cDeclarator(child); d != nil {
			stmt.Children = append(stmt.Children, d)
		}
	}
	return stmt
}

func (l *lowerer) cDeclarator(n *sitter.Node) *Node {
	if n == nil {
		return nil
	}

	decl := &Node{Kind: KindDecl, StartLine: startLine(n), EndLine: endLine(n)}
	target := n
	if n.Kind() == "init_declarator" {
		target = n.ChildByFieldName("declarator")
	}

	if id := declaredIdentifier(target); id != nil {
		decl.Children = append(decl.Children, l.leaf(KindName, id))
	}

	if n.Kind() == "init_declarator" {
		if value := n.ChildByFieldName("value"); value != nil {
			decl.Children = append(decl.Children,
				&Node{Kind: KindOperator, Text: "=", StartLine: startLine(value), EndLine: startLine(value)},
				l.cExpr(value),
			)
		}
	}

	if len(decl.Children) == 0 {
		return nil
	}
	return decl
}

// declaredIdentifier digs through pointer, array and parenthesized
// declarators down to the declared identifier.
func declaredIdentifier(n *sitter.Node) *sitter.Node {
	for n != nil {
		if n.Kind() == "identifier" {
			return n
		}
		next := n.ChildByFieldName("declarator")
		if next == nil && n.NamedChildCount() > 0 {
			next = n.NamedChild(0)
		}
		n = next
	}
	return nil
}

// cExpr wraps an expression in an expr node, dropping one level of
// parentheses.
func (l *lowerer) cExpr(n *sitter.Node) *Node {
	if n.Kind() == "parenthesized_expression" {
		for i := uint(0); i < n.NamedChildCount(); i++ {
			if inner := n.NamedChild(i); inner != nil && inner.Kind() != "comment" {
				return l.cExpr(inner)
			}
		}
	}
	return &Node{
		Kind:      KindExpr,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Children:  l.cFlatten(n),
	}
}

// cFlatten lays out an expression as a flat run of names and operators.
// Calls and subscripts keep their arguments and indices as nested exprs.
func (l *lowerer) cFlatten(n *sitter.Node) []*Node {
	switch n.Kind() {
	case "identifier", "field_identifier":
		return []*Node{l.leaf(KindName, n)}

	case "field_expression":
		// a.b and a->b become one compound name
		name := &Node{Kind: KindName, StartLine: startLine(n), EndLine: endLine(n)}
		name.Children = l.cTokens(n)
		return []*Node{name}

	case "subscript_expression":
		name := &Node{Kind: KindName, StartLine: startLine(n), EndLine: endLine(n)}
		if arg := n.ChildByFieldName("argument"); arg != nil {
			name.Children = append(name.Children, l.cFlatten(arg)...)
		}
		if idx := n.ChildByFieldName("index"); idx != nil {
			name.Children = append(name.Children, l.cExpr(idx))
		}
		return []*Node{name}

	case "call_expression":
		call := &Node{Kind: KindOther, StartLine: startLine(n), EndLine: endLine(n)}
		if args := n.ChildByFieldName("arguments"); args != nil {
			for i := uint(0); i < args.NamedChildCount(); i++ {
				arg := args.NamedChild(i)
				if arg == nil || arg.Kind() == "comment" {
					continue
				}
				call.Children = append(call.Children, l.cExpr(arg))
			}
		}
		return []*Node{call}

	case "cast_expression":
		if value := n.ChildByFieldName("value"); value != nil {
			return l.cFlatten(value)
		}
		return nil
	}

	if cLiteralKinds[n.Kind()] {
		return []*Node{l.leaf(KindOther, n)}
	}
	return l.cTokens(n)
}

// cTokens flattens every child of n, anonymous tokens becoming operators.
func (l *lowerer) cTokens(n *sitter.Node) []*Node {
	var out []*Node
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if !child.IsNamed() {
			out = append(out, l.leaf(KindOperator, child))
			continue
		}
		if child.Kind() == "comment" {
			continue
		}
		out = append(out, l.cFlatten(child)...)
	}
	return out
}

func (l *lowerer) leaf(kind Kind, n *sitter.Node) *Node {
	return &Node{Kind: kind, Text: l.text(n), StartLine: startLine(n), EndLine: endLine(n)}
}
