package szz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agusespa/szz/internal/blocks"
	"github.com/agusespa/szz/internal/defuse"
	"github.com/agusespa/szz/internal/git"
	"github.com/agusespa/szz/internal/syntax"
	"github.com/agusespa/szz/internal/types"
)

// Options are the run settings a Finder needs, already validated.
type Options struct {
	Extensions       []string
	OnlyDeletedLines bool
	IgnoreRevsFile   string
	MaxChangeSize    int

	DetectMoveWithinFile     bool
	DetectMoveFromOtherFiles git.CopyDetection
	MaxMoveDepth             int

	IssueDateFilter     bool
	FilterRevertCommits bool
	SingleAnswer        bool

	DefUseRadius             int
	ExperimentalBlockParsers bool
}

// Finder runs one strategy against fix commits of one checked-out
// repository.
type Finder struct {
	vcs      VCS
	strategy Strategy
	opts     Options
	resolver *Resolver
	expander ContextExpander
	logger   *slog.Logger
}

// NewFinder wires a finder. parser is only used by context-expanding
// strategies and may be nil for the others.
func NewFinder(vcs VCS, strategy Strategy, opts Options, parser syntax.Parser, logger *slog.Logger) (*Finder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("strategy", strategy.Name)

	f := &Finder{
		vcs:      vcs,
		strategy: strategy,
		opts:     opts,
		resolver: NewResolver(vcs, logger),
		logger:   logger,
	}

	switch strategy.Context {
	case ContextBlocks:
		if parser == nil {
			return nil, errors.New("block-aware strategy needs a structural parser")
		}
		f.expander = blocks.NewResolver(parser, opts.ExperimentalBlockParsers)
	case ContextDefUse:
		if parser == nil {
			return nil, errors.New("define-use strategy needs a structural parser")
		}
		f.expander = defuse.NewExpander(parser, opts.DefUseRadius)
	}

	return f, nil
}

// Find returns the commits that likely introduced the bug fixed by
// fixHash, sorted by hash. issueDate may be nil.
func (f *Finder) Find(ctx context.Context, fixHash string, issueDate *time.Time) ([]types.Commit, error) {
	fix, err := f.vcs.Commit(ctx, fixHash)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fix commit %s: %w", fixHash, err)
	}

	impacted, err := f.strategy.ExtractImpacted(ctx, f.vcs, fix.Hash, f.opts)
	if err != nil {
		return nil, err
	}

	var deleted, added []types.ImpactedFile
	for _, imp := range impacted {
		if imp.Kind == types.LineDeleted {
			deleted = append(deleted, imp)
		} else {
			added = append(added, imp)
		}
	}
	f.logger.Debug("impacted files", "fix", fix.Hash, "deleted", len(deleted), "added", len(added))

	ropts := f.strategy.resolveOptions(f.opts)

	candidates, err := f.resolver.Resolve(ctx, fix.Hash+"^", deleted, ropts)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve deleted lines of %s: %w", fix.Hash, err)
	}

	if f.expander != nil && len(added) > 0 {
		related, err := f.expandAdded(ctx, fix.Hash, added)
		if err != nil {
			return nil, err
		}
		fromAdded, err := f.resolver.Resolve(ctx, fix.Hash, related, ropts)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve added lines of %s: %w", fix.Hash, err)
		}
		candidates.Merge(fromAdded)
	}

	candidates.Remove(fix.Hash)
	candidates = f.filter(candidates, issueDate)

	selected, err := f.strategy.Select(ctx, f.vcs, candidates, f.opts.SingleAnswer)
	if err != nil {
		return nil, err
	}

	f.logger.Info("bug-inducing commits found", "fix", fix.Hash, "candidates", candidates.Len(), "selected", hashes(selected))
	return selected, nil
}

// expandAdded maps the added lines of each file to existing lines of the
// fix version. A file that cannot be analyzed contributes nothing.
func (f *Finder) expandAdded(ctx context.Context, fixHash string, added []types.ImpactedFile) ([]types.ImpactedFile, error) {
	var out []types.ImpactedFile
	for _, imp := range added {
		content, err := f.vcs.ReadFile(ctx, fixHash, imp.Path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			f.logger.Warn("cannot read added file", "file", imp.Path, "error", err)
			continue
		}

		lines, err := f.expander.Expand(ctx, content, imp.Path, imp.Lines)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, syntax.ErrUnsupportedLanguage) {
				f.logger.Debug("no context analysis for file", "file", imp.Path)
			} else {
				f.logger.Warn("context analysis failed", "file", imp.Path, "error", err)
			}
			continue
		}

		if ctxFile, ok := types.NewImpactedFile(imp.Path, lines, types.LineAdded); ok {
			out = append(out, ctxFile)
		}
	}
	return out, nil
}

func (f *Finder) filter(set *types.CandidateSet, issueDate *time.Time) *types.CandidateSet {
	if f.opts.FilterRevertCommits {
		set = FilterReverts(set)
	}
	if f.opts.IssueDateFilter {
		if issueDate != nil {
			set = FilterByIssueDate(set, *issueDate)
		} else {
			f.logger.Warn("issue date filter enabled but record has no issue date")
		}
	}
	return set
}
