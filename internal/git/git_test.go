package git

import (
	"context"
	"testing"

	"github.com/agusespa/szz/internal/git/gittest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fooV1 = `int main() {
	a = 1;
	b = 2;
	c = 3;
}
`

const fooV2 = `int main() {
	a = 1;
	b = 20;
	c = 3;
}
`

func setupRepo(t *testing.T) (*Repository, string, string) {
	t.Helper()
	gittest.RequireGit(t)

	g := gittest.New(t)
	g.Write("foo.c", fooV1)
	first := g.Commit("add foo")
	g.Write("foo.c", fooV2)
	second := g.Commit("fix b")

	repo, err := Open(g.Dir, nil)
	require.NoError(t, err)
	return repo, first, second
}

func TestOpen_NotRepository(t *testing.T) {
	_, err := Open(t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestSession_CommitMetadata(t *testing.T) {
	repo, first, second := setupRepo(t)
	ctx := context.Background()

	s, err := repo.Checkout(ctx, second)
	require.NoError(t, err)
	defer s.Close()

	c, err := s.Commit(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, second, c.Hash)
	assert.Equal(t, "fix b", c.Message)
	assert.True(t, c.AuthoredDate.Equal(gittest.Epoch.AddDate(0, 0, 1)))

	head, err := s.ResolveRevision(ctx, "HEAD^")
	require.NoError(t, err)
	assert.Equal(t, first, head)

	parent, ok, err := s.FirstParent(ctx, second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first, parent)

	_, ok, err = s.FirstParent(ctx, first)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Commit(ctx, "no-such-branch")
	assert.ErrorIs(t, err, ErrRevisionNotFound)
}

func TestSession_ChangeSizeAndReadFile(t *testing.T) {
	repo, first, second := setupRepo(t)
	ctx := context.Background()

	s, err := repo.Checkout(ctx, "HEAD")
	require.NoError(t, err)
	defer s.Close()

	size, err := s.ChangeSize(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	size, err = s.ChangeSize(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 5, size)

	content, err := s.ReadFile(ctx, first, "foo.c")
	require.NoError(t, err)
	assert.Equal(t, fooV1, content)

	_, err = s.ReadFile(ctx, first, "missing.c")
	assert.ErrorIs(t, err, ErrRevisionNotFound)
}

func TestSession_CommitDiff(t *testing.T) {
	repo, first, second := setupRepo(t)
	ctx := context.Background()

	s, err := repo.Checkout(ctx, second)
	require.NoError(t, err)
	defer s.Close()

	changes, err := s.CommitDiff(ctx, second)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "foo.c", changes[0].Path())
	assert.Equal(t, []int{3}, changes[0].DeletedNumbers())
	assert.Equal(t, []int{3}, changes[0].AddedNumbers())

	root, err := s.CommitDiff(ctx, first)
	require.NoError(t, err)
	require.Len(t, root, 1)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, root[0].AddedNumbers())
}

func TestSession_Blame(t *testing.T) {
	repo, first, second := setupRepo(t)
	ctx := context.Background()

	s, err := repo.Checkout(ctx, second)
	require.NoError(t, err)
	defer s.Close()

	lines, err := s.Blame(ctx, "HEAD^", "foo.c", []int{3, 2}, BlameOptions{})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Equal(t, first, l.Commit)
	}

	lines, err = s.Blame(ctx, "HEAD", "foo.c", []int{3}, BlameOptions{IgnoreWhitespace: true, DetectMoves: true})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, second, lines[0].Commit)
	assert.Equal(t, "\tb = 20;", lines[0].Content)

	empty, err := s.Blame(ctx, "HEAD", "foo.c", nil, BlameOptions{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = s.Blame(ctx, "HEAD", "missing.c", []int{1}, BlameOptions{})
	assert.ErrorIs(t, err, ErrBlameUnavailable)

	_, err = s.Blame(ctx, "deadbeef", "foo.c", []int{1}, BlameOptions{})
	assert.ErrorIs(t, err, ErrRevisionNotFound)
}

func TestSession_CloseReleasesWorkingTree(t *testing.T) {
	repo, first, second := setupRepo(t)
	ctx := context.Background()

	s, err := repo.Checkout(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, s.Revision())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Blame(ctx, "HEAD", "foo.c", []int{1}, BlameOptions{})
	assert.ErrorIs(t, err, ErrSessionClosed)

	next, err := repo.Checkout(ctx, second)
	require.NoError(t, err)
	require.NoError(t, next.Close())
}

func TestParseCopyDetection(t *testing.T) {
	tests := []struct {
		input   string
		expect  CopyDetection
		wantErr bool
	}{
		{"", CopyDetectionDisabled, false},
		{"disabled", CopyDetectionDisabled, false},
		{"same_commit", CopyDetectionSameCommit, false},
		{"1", CopyDetectionSameCommit, false},
		{"trace_source_file", CopyDetectionTraceSourceFile, false},
		{"2", CopyDetectionTraceSourceFile, false},
		{"3", CopyDetectionDisabled, true},
	}

	for _, tt := range tests {
		got, err := ParseCopyDetection(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expect, got, tt.input)
	}
}

func TestBlameOptionsArgs(t *testing.T) {
	opts := BlameOptions{
		IgnoreRevsFile:   ".git-blame-ignore-revs",
		IgnoreWhitespace: true,
		DetectMoves:      true,
		DetectCopies:     CopyDetectionTraceSourceFile,
	}
	assert.Equal(t, []string{"-w", "-M", "-C", "-C", "--ignore-revs-file", ".git-blame-ignore-revs"}, opts.args())
	assert.Empty(t, BlameOptions{}.args())
}

func TestLineRanges(t *testing.T) {
	got := lineRanges([]int{1, 2, 3, 7, 9, 10})
	require.Len(t, got, 3)
	assert.Equal(t, "1-3", got[0].String())
	assert.Equal(t, "7-7", got[1].String())
	assert.Equal(t, "9-10", got[2].String())
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify("fatal: bad revision 'xyz'", nil), ErrRevisionNotFound)
	assert.ErrorIs(t, classify("fatal: not a git repository (or any parent)", nil), ErrNotRepository)
	assert.ErrorIs(t, classify("fatal: no such path foo.c in HEAD", ErrBlameUnavailable), ErrBlameUnavailable)
	assert.Nil(t, classify("something else", nil))
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		version string
		expect  bool
	}{
		{"2.23", true},
		{"2.23.0", true},
		{"2.39.2", true},
		{"3.0", true},
		{"2.22.4", false},
		{"1.9", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, versionAtLeast(tt.version, MinVersion), tt.version)
	}
}

func TestCheckVersion(t *testing.T) {
	gittest.RequireGit(t)

	version, err := CheckVersion(context.Background())
	if err != nil {
		t.Skipf("installed git is too old: %v", err)
	}
	assert.NotEmpty(t, version)
}
