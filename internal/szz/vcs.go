// Package szz attributes the lines a bug fix corrects to the commits that
// introduced them.
package szz

import (
	"context"

	"github.com/agusespa/szz/internal/git"
	"github.com/agusespa/szz/internal/types"
	"github.com/agusespa/szz/internal/utils"
)

// VCS is the version-control view the finder works against. *git.Session
// implements it.
type VCS interface {
	Diff(ctx context.Context, from, to string) ([]utils.FileChange, error)
	CommitDiff(ctx context.Context, hash string) ([]utils.FileChange, error)
	Blame(ctx context.Context, rev, path string, lines []int, opts git.BlameOptions) ([]utils.BlameLine, error)
	Commit(ctx context.Context, rev string) (types.Commit, error)
	FirstParent(ctx context.Context, hash string) (string, bool, error)
	ChangeSize(ctx context.Context, hash string) (int, error)
	ReadFile(ctx context.Context, rev, path string) (string, error)
}

var _ VCS = (*git.Session)(nil)

// ContextExpander rewrites lines added by a fix into existing lines of the
// same file that relate to them.
type ContextExpander interface {
	Expand(ctx context.Context, content, fileName string, added []int) ([]int, error)
}
