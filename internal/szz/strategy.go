package szz

import (
	"context"
	"fmt"

	"github.com/agusespa/szz/internal/types"
)

// Selection is how a strategy reduces the filtered candidates.
type Selection int

const (
	SelectAll Selection = iota
	SelectLatest
	SelectLargest
)

// MoveMode tells whether a strategy is move-aware.
type MoveMode int

const (
	MoveOff MoveMode = iota
	// MoveOn always follows moves within a file; cross-file detection
	// comes from the options.
	MoveOn
	// MoveConfigured takes both settings from the options.
	MoveConfigured
)

// ContextKind selects how added lines are turned into existing lines.
type ContextKind int

const (
	ContextNone ContextKind = iota
	ContextBlocks
	ContextDefUse
)

// Strategy is one variant of the algorithm, described as data.
type Strategy struct {
	Name             string
	Description      string
	Selection        Selection
	Move             MoveMode
	IgnoreWhitespace bool
	Context          ContextKind
}

var strategies = []Strategy{
	{Name: "b", Description: "base", Selection: SelectAll},
	{Name: "ag", Description: "annotation graph", Selection: SelectAll, IgnoreWhitespace: true},
	{Name: "ma", Description: "meta-change aware", Selection: SelectAll, Move: MoveOn},
	{Name: "latest", Description: "latest candidate", Selection: SelectLatest},
	{Name: "r", Description: "latest candidate, move aware", Selection: SelectLatest, Move: MoveOn},
	{Name: "l", Description: "largest candidate, move aware", Selection: SelectLargest, Move: MoveOn},
	{Name: "a", Description: "added lines through syntactic blocks", Selection: SelectLatest, Move: MoveConfigured, Context: ContextBlocks},
	{Name: "df", Description: "added lines through define-use chains", Selection: SelectLatest, Move: MoveConfigured, Context: ContextDefUse},
}

// StrategyFor returns the strategy registered under name.
func StrategyFor(name string) (Strategy, error) {
	for _, s := range strategies {
		if s.Name == name {
			return s, nil
		}
	}
	return Strategy{}, fmt.Errorf("unknown strategy %q (known: %v)", name, StrategyNames())
}

func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.Name)
	}
	return names
}

// ExtractImpacted lists the fix commit's impacted lines. Strategies
// without context expansion only look at deleted lines.
func (s Strategy) ExtractImpacted(ctx context.Context, vcs VCS, fixHash string, opts Options) ([]types.ImpactedFile, error) {
	onlyDeleted := opts.OnlyDeletedLines || s.Context == ContextNone
	return ImpactedFiles(ctx, vcs, fixHash, opts.Extensions, onlyDeleted)
}

func (s Strategy) resolveOptions(opts Options) ResolveOptions {
	ro := ResolveOptions{
		IgnoreRevsFile:   opts.IgnoreRevsFile,
		MaxChangeSize:    opts.MaxChangeSize,
		IgnoreWhitespace: s.IgnoreWhitespace,
	}

	switch s.Move {
	case MoveOn:
		ro.Move = MoveOptions{WithinFile: true, FromOtherFiles: opts.DetectMoveFromOtherFiles, MaxDepth: opts.MaxMoveDepth}
	case MoveConfigured:
		ro.Move = MoveOptions{WithinFile: opts.DetectMoveWithinFile, FromOtherFiles: opts.DetectMoveFromOtherFiles, MaxDepth: opts.MaxMoveDepth}
	}
	return ro
}

// Select reduces the filtered candidates to the strategy's answer, sorted
// by hash. Context-expanding strategies return every candidate when
// singleAnswer is off.
func (s Strategy) Select(ctx context.Context, vcs VCS, set *types.CandidateSet, singleAnswer bool) ([]types.Commit, error) {
	selection := s.Selection
	if s.Context != ContextNone && !singleAnswer {
		selection = SelectAll
	}

	switch selection {
	case SelectLatest:
		if c, ok := SelectLatestCommit(set); ok {
			return []types.Commit{c}, nil
		}
		return []types.Commit{}, nil
	case SelectLargest:
		c, ok, err := SelectLargestCommit(ctx, vcs, set)
		if err != nil {
			return nil, err
		}
		if ok {
			return []types.Commit{c}, nil
		}
		return []types.Commit{}, nil
	default:
		commits := set.Commits()
		if commits == nil {
			commits = []types.Commit{}
		}
		return commits, nil
	}
}

// SelectLatestCommit returns the candidate committed last. Ties go to the
// smallest hash.
func SelectLatestCommit(set *types.CandidateSet) (types.Commit, bool) {
	var (
		best  types.Commit
		found bool
	)
	for _, c := range set.Commits() {
		if !found || c.CommittedDate.After(best.CommittedDate) {
			best, found = c, true
		}
	}
	return best, found
}

// SelectLargestCommit returns the candidate whose own change touches the
// most lines. A candidate must change more than zero lines and strictly
// more than the current best; ties go to the smallest hash.
func SelectLargestCommit(ctx context.Context, vcs VCS, set *types.CandidateSet) (types.Commit, bool, error) {
	var (
		best    types.Commit
		found   bool
		maxSize int
	)
	for _, c := range set.Commits() {
		size, err := vcs.ChangeSize(ctx, c.Hash)
		if err != nil {
			return types.Commit{}, false, fmt.Errorf("failed to size candidate %s: %w", c.Hash, err)
		}
		if size > maxSize {
			best, found, maxSize = c, true, size
		}
	}
	return best, found, nil
}

// hashes is a helper for logging.
func hashes(commits []types.Commit) []string {
	out := make([]string, 0, len(commits))
	for _, c := range commits {
		out = append(out, c.Hash)
	}
	return out
}
