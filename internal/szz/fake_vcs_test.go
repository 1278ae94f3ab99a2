package szz

import (
	"context"
	"fmt"
	"slices"

	"github.com/agusespa/szz/internal/git"
	"github.com/agusespa/szz/internal/types"
	"github.com/agusespa/szz/internal/utils"
)

type blameCall struct {
	rev   string
	path  string
	lines []int
	opts  git.BlameOptions
}

// fakeVCS serves canned answers keyed by revision and path.
type fakeVCS struct {
	commits map[string]types.Commit
	parents map[string]string
	diffs   map[string][]utils.FileChange
	blames  map[string][]utils.BlameLine // rev + ":" + path
	sizes   map[string]int
	files   map[string]string // rev + ":" + path

	blameErrs map[string]error // path
	calls     []blameCall
}

func newFakeVCS() *fakeVCS {
	return &fakeVCS{
		commits:   make(map[string]types.Commit),
		parents:   make(map[string]string),
		diffs:     make(map[string][]utils.FileChange),
		blames:    make(map[string][]utils.BlameLine),
		sizes:     make(map[string]int),
		files:     make(map[string]string),
		blameErrs: make(map[string]error),
	}
}

func (f *fakeVCS) addCommit(c types.Commit) {
	f.commits[c.Hash] = c
}

func (f *fakeVCS) addBlame(rev, path string, lines ...utils.BlameLine) {
	key := rev + ":" + path
	f.blames[key] = append(f.blames[key], lines...)
}

func (f *fakeVCS) Diff(ctx context.Context, from, to string) ([]utils.FileChange, error) {
	return f.diffs[to], nil
}

func (f *fakeVCS) CommitDiff(ctx context.Context, hash string) ([]utils.FileChange, error) {
	if _, ok := f.commits[hash]; !ok {
		return nil, fmt.Errorf("%w: %s", git.ErrRevisionNotFound, hash)
	}
	return f.diffs[hash], nil
}

func (f *fakeVCS) Blame(ctx context.Context, rev, path string, lines []int, opts git.BlameOptions) ([]utils.BlameLine, error) {
	f.calls = append(f.calls, blameCall{rev: rev, path: path, lines: lines, opts: opts})
	if err := f.blameErrs[path]; err != nil {
		return nil, err
	}

	var out []utils.BlameLine
	for _, bl := range f.blames[rev+":"+path] {
		if slices.Contains(lines, bl.FinalLine) {
			out = append(out, bl)
		}
	}
	return out, nil
}

func (f *fakeVCS) Commit(ctx context.Context, rev string) (types.Commit, error) {
	c, ok := f.commits[rev]
	if !ok {
		return types.Commit{}, fmt.Errorf("%w: %s", git.ErrRevisionNotFound, rev)
	}
	return c, nil
}

func (f *fakeVCS) FirstParent(ctx context.Context, hash string) (string, bool, error) {
	p, ok := f.parents[hash]
	return p, ok, nil
}

func (f *fakeVCS) ChangeSize(ctx context.Context, hash string) (int, error) {
	return f.sizes[hash], nil
}

func (f *fakeVCS) ReadFile(ctx context.Context, rev, path string) (string, error) {
	content, ok := f.files[rev+":"+path]
	if !ok {
		return "", fmt.Errorf("%w: %s not in %s", git.ErrRevisionNotFound, path, rev)
	}
	return content, nil
}

// stubExpander maps every added line set to fixed context lines.
type stubExpander struct {
	lines []int
	err   error
}

func (s stubExpander) Expand(ctx context.Context, content, fileName string, added []int) ([]int, error) {
	return s.lines, s.err
}
