// Package git is the version-control collaborator of the finder. Object
// lookups (commits, file contents, change stats) go through go-git; blame,
// diff and checkout shell out to the git CLI because they need rename, move
// and copy detection that go-git does not offer.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"
)

// emptyTree is the well-known id of the empty tree, used as the "parent" of
// root commits.
const emptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Repository is one local clone. Its working tree is a single shared
// resource: at most one Session owns it at a time.
type Repository struct {
	dir     string
	repo    *gogit.Repository
	logger  *slog.Logger
	tmpRoot string // set when the clone lives in a temp dir

	mu sync.Mutex
}

// Open opens the repository rooted at dir.
func Open(dir string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotRepository, dir, err)
	}

	return &Repository{dir: dir, repo: repo, logger: logger}, nil
}

// OpenOrClone opens reposDir/fullName, cloning url into it first when it
// does not exist yet. An empty reposDir clones into a temporary directory
// that Close removes.
func OpenOrClone(ctx context.Context, reposDir, fullName, url string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tmpRoot := ""
	if reposDir == "" {
		tmp, err := os.MkdirTemp("", "szz-repo-")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp dir for %s: %w", fullName, err)
		}
		reposDir = tmp
		tmpRoot = tmp
	}

	dir := filepath.Join(reposDir, filepath.FromSlash(fullName))
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return Open(dir, logger)
	}

	logger.Info("cloning repository", "repo", fullName, "dir", dir)
	repo, err := gogit.PlainCloneContext(ctx, dir, false, &gogit.CloneOptions{URL: url})
	if err != nil {
		if tmpRoot != "" {
			os.RemoveAll(tmpRoot)
		}
		return nil, fmt.Errorf("failed to clone %s: %w", fullName, err)
	}

	return &Repository{dir: dir, repo: repo, logger: logger, tmpRoot: tmpRoot}, nil
}

func (r *Repository) Dir() string {
	return r.dir
}

// Close removes the clone when it was created in a temporary directory.
func (r *Repository) Close() error {
	if r.tmpRoot == "" {
		return nil
	}
	return os.RemoveAll(r.tmpRoot)
}

// Checkout waits for exclusive ownership of the working tree, checks out
// rev and returns the session that owns it. The caller must Close the
// session to release the tree.
func (r *Repository) Checkout(ctx context.Context, rev string) (*Session, error) {
	r.mu.Lock()

	if _, err := r.run(ctx, "checkout", "-f", "-q", rev); err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("failed to check out %s: %w", rev, err)
	}

	r.logger.Debug("working tree checked out", "repo", r.dir, "rev", rev)
	return newSession(r, rev), nil
}

// run executes git in the repository directory and returns its stdout.
func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-c", "core.quotepath=off"}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("executing git command", "args", args)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		msg := strings.TrimSpace(stderr.String())
		return "", &CommandError{Args: args, Stderr: msg, Kind: classify(msg, nil), Err: err}
	}

	return stdout.String(), nil
}
