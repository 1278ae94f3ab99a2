package git

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/agusespa/szz/internal/types"
	"github.com/agusespa/szz/internal/utils"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CopyDetection selects how far git blame looks for lines copied from
// other files.
type CopyDetection int

const (
	CopyDetectionDisabled CopyDetection = iota
	// CopyDetectionSameCommit looks in files modified by the same commit (-C).
	CopyDetectionSameCommit
	// CopyDetectionTraceSourceFile also looks in the commit that created
	// the file (-C -C).
	CopyDetectionTraceSourceFile
)

// ParseCopyDetection accepts the configuration names and the legacy
// numeric values 0, 1 and 2.
func ParseCopyDetection(s string) (CopyDetection, error) {
	switch s {
	case "", "disabled", "0":
		return CopyDetectionDisabled, nil
	case "same_commit", "1":
		return CopyDetectionSameCommit, nil
	case "trace_source_file", "2":
		return CopyDetectionTraceSourceFile, nil
	default:
		return CopyDetectionDisabled, fmt.Errorf("unknown move detection mode %q", s)
	}
}

func (c CopyDetection) String() string {
	switch c {
	case CopyDetectionSameCommit:
		return "same_commit"
	case CopyDetectionTraceSourceFile:
		return "trace_source_file"
	default:
		return "disabled"
	}
}

// BlameOptions tunes a blame call.
type BlameOptions struct {
	IgnoreRevsFile   string
	IgnoreWhitespace bool
	DetectMoves      bool // moved lines within the file (-M)
	DetectCopies     CopyDetection
}

func (o BlameOptions) args() []string {
	var args []string
	if o.IgnoreWhitespace {
		args = append(args, "-w")
	}
	if o.DetectMoves {
		args = append(args, "-M")
	}
	switch o.DetectCopies {
	case CopyDetectionSameCommit:
		args = append(args, "-C")
	case CopyDetectionTraceSourceFile:
		args = append(args, "-C", "-C")
	}
	if o.IgnoreRevsFile != "" {
		args = append(args, "--ignore-revs-file", o.IgnoreRevsFile)
	}
	return args
}

// Session owns the repository's working tree from Checkout until Close.
// It caches commit metadata, change sizes and diffs for its lifetime.
type Session struct {
	repo *Repository
	rev  string

	commits map[string]types.Commit
	sizes   map[string]int
	diffs   map[string][]utils.FileChange

	closeOnce sync.Once
	closed    bool
}

func newSession(repo *Repository, rev string) *Session {
	return &Session{
		repo:    repo,
		rev:     rev,
		commits: make(map[string]types.Commit),
		sizes:   make(map[string]int),
		diffs:   make(map[string][]utils.FileChange),
	}
}

// Revision returns the revision the working tree was checked out at.
func (s *Session) Revision() string {
	return s.rev
}

// Close releases the working tree.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		s.repo.mu.Unlock()
	})
	return nil
}

// ResolveRevision turns a revision expression into a full commit hash.
func (s *Session) ResolveRevision(ctx context.Context, rev string) (string, error) {
	if s.closed {
		return "", ErrSessionClosed
	}
	hash, err := s.repo.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRevisionNotFound, rev, err)
	}
	return hash.String(), nil
}

// Commit returns the metadata of rev.
func (s *Session) Commit(ctx context.Context, rev string) (types.Commit, error) {
	if c, ok := s.commits[rev]; ok {
		return c, nil
	}

	obj, err := s.commitObject(rev)
	if err != nil {
		return types.Commit{}, err
	}

	c := types.Commit{
		Hash:          obj.Hash.String(),
		AuthoredDate:  obj.Author.When,
		CommittedDate: obj.Committer.When,
		Message:       obj.Message,
	}
	s.commits[rev] = c
	s.commits[c.Hash] = c
	return c, nil
}

// FirstParent returns the first parent of hash, or false for a root commit.
func (s *Session) FirstParent(ctx context.Context, hash string) (string, bool, error) {
	obj, err := s.commitObject(hash)
	if err != nil {
		return "", false, err
	}
	if len(obj.ParentHashes) == 0 {
		return "", false, nil
	}
	return obj.ParentHashes[0].String(), true, nil
}

// ChangeSize returns the number of lines the commit added plus the number
// it deleted, summed over all files.
func (s *Session) ChangeSize(ctx context.Context, hash string) (int, error) {
	if n, ok := s.sizes[hash]; ok {
		return n, nil
	}

	obj, err := s.commitObject(hash)
	if err != nil {
		return 0, err
	}

	stats, err := obj.Stats()
	if err != nil {
		return 0, fmt.Errorf("failed to compute stats of %s: %w", hash, err)
	}

	total := 0
	for _, fs := range stats {
		total += fs.Addition + fs.Deletion
	}
	s.sizes[hash] = total
	return total, nil
}

// ReadFile returns the content of path at rev.
func (s *Session) ReadFile(ctx context.Context, rev, path string) (string, error) {
	obj, err := s.commitObject(rev)
	if err != nil {
		return "", err
	}

	file, err := obj.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", fmt.Errorf("%w: %s not in %s", ErrRevisionNotFound, path, rev)
		}
		return "", fmt.Errorf("failed to read %s at %s: %w", path, rev, err)
	}

	content, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("failed to read %s at %s: %w", path, rev, err)
	}
	return content, nil
}

// Diff returns the line changes between two revisions with rename
// detection and no context lines. An empty from diffs against the empty
// tree.
func (s *Session) Diff(ctx context.Context, from, to string) ([]utils.FileChange, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if from == "" {
		from = emptyTree
	}

	key := from + ".." + to
	if d, ok := s.diffs[key]; ok {
		return d, nil
	}

	out, err := s.repo.run(ctx, "diff", "--no-color", "--no-ext-diff", "-M", "-U0", from, to, "--")
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..%s: %w", from, to, err)
	}

	changes, err := utils.ParseUnifiedDiff(out)
	if err != nil {
		return nil, err
	}
	s.diffs[key] = changes
	return changes, nil
}

// CommitDiff returns the changes hash made relative to its first parent.
func (s *Session) CommitDiff(ctx context.Context, hash string) ([]utils.FileChange, error) {
	parent, ok, err := s.FirstParent(ctx, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		parent = ""
	}
	return s.Diff(ctx, parent, hash)
}

// Blame attributes lines of path at rev to the commits that last touched
// them. Failures wrap ErrBlameUnavailable unless the revision itself is
// unknown.
func (s *Session) Blame(ctx context.Context, rev, path string, lines []int, opts BlameOptions) ([]utils.BlameLine, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	lines = types.NormalizeLines(lines)
	if len(lines) == 0 {
		return []utils.BlameLine{}, nil
	}

	args := []string{"blame", "--porcelain"}
	args = append(args, opts.args()...)
	for _, r := range lineRanges(lines) {
		args = append(args, "-L", strconv.Itoa(r.Start)+","+strconv.Itoa(r.End))
	}
	args = append(args, rev, "--", path)

	out, err := s.repo.run(ctx, args...)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.Kind == nil {
			cmdErr.Kind = ErrBlameUnavailable
		}
		return nil, fmt.Errorf("failed to blame %s at %s: %w", path, rev, err)
	}

	return utils.ParseBlamePorcelain(out)
}

func (s *Session) commitObject(rev string) (*object.Commit, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	var hash plumbing.Hash
	if plumbing.IsHash(rev) {
		hash = plumbing.NewHash(rev)
	} else {
		h, err := s.repo.repo.ResolveRevision(plumbing.Revision(rev))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrRevisionNotFound, rev, err)
		}
		hash = *h
	}

	obj, err := s.repo.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRevisionNotFound, rev, err)
	}
	return obj, nil
}

// lineRanges folds sorted line numbers into consecutive ranges.
func lineRanges(lines []int) []types.BlockRange {
	var ranges []types.BlockRange
	for _, l := range lines {
		if n := len(ranges); n > 0 && ranges[n-1].End+1 == l {
			ranges[n-1].End = l
			continue
		}
		ranges = append(ranges, types.BlockRange{Start: l, End: l})
	}
	return ranges
}
