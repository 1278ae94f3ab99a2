// Package blocks maps lines of a file to the lexical blocks enclosing them.
package blocks

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agusespa/szz/internal/syntax"
	"github.com/agusespa/szz/internal/types"
)

type Resolver struct {
	parser       syntax.Parser
	experimental bool
}

// NewResolver returns a resolver backed by parser. With experimental set,
// files covered by a line heuristic (Python, Ruby, PHP, JavaScript) skip
// the parser.
func NewResolver(parser syntax.Parser, experimental bool) *Resolver {
	return &Resolver{parser: parser, experimental: experimental}
}

// Ranges returns the content range of every block of the file in document
// order.
func (r *Resolver) Ranges(ctx context.Context, content, fileName string) ([]types.BlockRange, error) {
	if r.experimental {
		if heuristic := fallbackFor(fileName); heuristic != nil {
			return heuristic(content), nil
		}
	}

	tree, err := r.parser.Parse(ctx, []byte(content), fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse blocks of %s: %w", fileName, err)
	}
	return tree.Blocks(), nil
}

// ResolveBlocks returns the innermost block enclosing each of lines. Lines
// outside every block contribute nothing.
func (r *Resolver) ResolveBlocks(ctx context.Context, content, fileName string, lines []int) ([]types.BlockRange, error) {
	ranges, err := r.Ranges(ctx, content, fileName)
	if err != nil {
		return nil, err
	}
	return SelectInnermost(ranges, lines), nil
}

// Expand turns added lines into the other lines of their enclosing blocks.
func (r *Resolver) Expand(ctx context.Context, content, fileName string, added []int) ([]int, error) {
	matched, err := r.ResolveBlocks(ctx, content, fileName, added)
	if err != nil {
		return nil, err
	}

	skip := make(map[int]bool, len(added))
	for _, l := range added {
		skip[l] = true
	}

	var lines []int
	for _, b := range matched {
		for l := b.Start; l <= b.End; l++ {
			if !skip[l] {
				lines = append(lines, l)
			}
		}
	}
	return types.NormalizeLines(lines), nil
}

// SelectInnermost picks, for each line in ascending order, the last range
// in parse order that contains it and was not picked for an earlier line.
// Ranges are tracked by position, so identical ranges stay distinct.
func SelectInnermost(ranges []types.BlockRange, lines []int) []types.BlockRange {
	picked := make(map[int]bool)
	var out []types.BlockRange

	for _, line := range types.NormalizeLines(lines) {
		best := -1
		for i, rg := range ranges {
			if rg.Contains(line) && !picked[i] {
				best = i
			}
		}
		if best >= 0 {
			picked[best] = true
			out = append(out, ranges[best])
		}
	}
	return out
}

func fallbackFor(fileName string) func(string) []types.BlockRange {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".py":
		return IndentBlocks
	case ".rb":
		return EndBlocks
	case ".php", ".phpt", ".js", ".jsx":
		return BraceBlocks
	default:
		return nil
	}
}
