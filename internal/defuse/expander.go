package defuse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agusespa/szz/internal/syntax"
	"github.com/agusespa/szz/internal/types"
)

// Supports reports whether define-use analysis handles fileName.
func Supports(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".c", ".h":
		return true
	default:
		return false
	}
}

// Expander selects, for added lines, the lines linked to them through
// define-use chains of the enclosing functions.
type Expander struct {
	parser syntax.Parser
	radius int
}

// NewExpander returns an expander walking at most radius hops from each
// added line; 0 means no bound.
func NewExpander(parser syntax.Parser, radius int) *Expander {
	return &Expander{parser: parser, radius: radius}
}

func (e *Expander) Expand(ctx context.Context, content, fileName string, added []int) ([]int, error) {
	if !Supports(fileName) {
		return nil, fmt.Errorf("%w: define-use chains for %s", syntax.ErrUnsupportedLanguage, fileName)
	}

	tree, err := e.parser.Parse(ctx, []byte(content), fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fileName, err)
	}

	skip := make(map[int]bool, len(added))
	for _, l := range added {
		skip[l] = true
	}

	var lines []int
	for _, fc := range Build(tree) {
		g := NewLineGraph(fc.Chains)
		for _, l := range types.NormalizeLines(added) {
			for _, n := range g.Neighbors(l, e.radius) {
				if !skip[n] {
					lines = append(lines, n)
				}
			}
		}
	}
	return types.NormalizeLines(lines), nil
}
