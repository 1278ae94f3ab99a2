package syntax

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const srcMLPositionNS = "http://www.srcML.org/srcML/position"

var srcMLKinds = map[string]Kind{
	"function":      KindFunction,
	"constructor":   KindFunction,
	"destructor":    KindFunction,
	"block_content": KindBlock,
	"decl":          KindDecl,
	"expr":          KindExpr,
	"name":          KindName,
	"operator":      KindOperator,
}

// SrcMLParser runs the srcml command line tool on a temporary copy of the
// source.
type SrcMLParser struct {
	binary  string
	tempDir string
}

// NewSrcMLParser returns a parser invoking binary ("srcml" when empty).
// Temporary copies go under tempDir, or the system default when empty.
func NewSrcMLParser(binary, tempDir string) *SrcMLParser {
	if binary == "" {
		binary = "srcml"
	}
	return &SrcMLParser{binary: binary, tempDir: tempDir}
}

func (p *SrcMLParser) Parse(ctx context.Context, source []byte, fileName string) (*Tree, error) {
	dir, err := os.MkdirTemp(p.tempDir, "szz-srcml-")
	if err != nil {
		return nil, fmt.Errorf("failed to create srcml work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(fileName))
	if err := os.WriteFile(path, source, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write %s for srcml: %w", fileName, err)
	}

	cmd := exec.CommandContext(ctx, p.binary, "--position", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: srcml on %s: %v: %s", ErrParse, fileName, err, strings.TrimSpace(stderr.String()))
	}

	tree, err := decodeSrcML(&stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, fileName, err)
	}
	return tree, nil
}

// decodeSrcML builds a Tree from srcML position-annotated XML.
func decodeSrcML(r io.Reader) (*Tree, error) {
	dec := xml.NewDecoder(r)

	var (
		tree  *Tree
		stack []*Node
		texts []*strings.Builder
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed srcml output: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Kind: srcMLKinds[t.Name.Local]}
			for _, attr := range t.Attr {
				if attr.Name.Space != srcMLPositionNS {
					continue
				}
				switch attr.Name.Local {
				case "start":
					node.StartLine = positionLine(attr.Value)
				case "end":
					node.EndLine = positionLine(attr.Value)
				}
			}

			if len(stack) == 0 {
				tree = &Tree{Root: node}
				for _, attr := range t.Attr {
					if attr.Name.Local == "language" {
						tree.Language = attr.Value
					}
				}
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
			texts = append(texts, &strings.Builder{})

		case xml.CharData:
			if len(texts) > 0 {
				texts[len(texts)-1].Write(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced element %s", t.Name.Local)
			}
			node := stack[len(stack)-1]
			text := texts[len(texts)-1].String()
			stack = stack[:len(stack)-1]
			texts = texts[:len(texts)-1]

			if (node.Kind == KindName || node.Kind == KindOperator) && len(node.Children) == 0 {
				node.Text = strings.TrimSpace(text)
			}
			inheritLines(node)
		}
	}

	if tree == nil {
		return nil, errors.New("empty srcml output")
	}
	if len(stack) != 0 {
		return nil, errors.New("truncated srcml output")
	}
	return tree, nil
}

func inheritLines(n *Node) {
	if len(n.Children) == 0 {
		return
	}
	if n.StartLine == 0 {
		n.StartLine = n.Children[0].StartLine
	}
	if n.EndLine == 0 {
		n.EndLine = n.Children[len(n.Children)-1].EndLine
	}
}

// positionLine reads the line of a "line:column" position.
func positionLine(pos string) int {
	line, _, _ := strings.Cut(pos, ":")
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 {
		return 0
	}
	return n
}
