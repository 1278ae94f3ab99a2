// Package gittest builds throwaway repositories for tests.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// Epoch is the author date of the first commit; every further commit is
// one day later.
var Epoch = time.Date(2020, time.January, 1, 12, 0, 0, 0, time.UTC)

type Repo struct {
	Dir string

	t     testing.TB
	repo  *gogit.Repository
	wt    *gogit.Worktree
	clock time.Time
}

// RequireGit skips the test when the git binary is not installed.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func New(t testing.TB) *Repo {
	t.Helper()
	return NewAt(t, t.TempDir())
}

// NewAt initializes a repository in dir, creating it when needed.
func NewAt(t testing.TB, dir string) *Repo {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	return &Repo{Dir: dir, t: t, repo: repo, wt: wt, clock: Epoch}
}

// Write creates or replaces a file in the working tree.
func (r *Repo) Write(name, content string) {
	r.t.Helper()
	path := filepath.Join(r.Dir, filepath.FromSlash(name))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
}

func (r *Repo) Remove(name string) {
	r.t.Helper()
	_, err := r.wt.Remove(name)
	require.NoError(r.t, err)
}

// Commit stages everything and commits it, returning the new hash.
func (r *Repo) Commit(msg string) string {
	r.t.Helper()
	require.NoError(r.t, r.wt.AddWithOptions(&gogit.AddOptions{All: true}))

	sig := &object.Signature{Name: "Test", Email: "test@test.com", When: r.clock}
	hash, err := r.wt.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig})
	require.NoError(r.t, err)

	r.clock = r.clock.Add(24 * time.Hour)
	return hash.String()
}

// When returns the author date the next commit will get.
func (r *Repo) When() time.Time {
	return r.clock
}
