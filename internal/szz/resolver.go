package szz

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"github.com/agusespa/szz/internal/git"
	"github.com/agusespa/szz/internal/types"
	"github.com/agusespa/szz/internal/utils"
)

// MoveOptions controls how far the resolver looks past commits that only
// relocated a line.
type MoveOptions struct {
	WithinFile     bool
	FromOtherFiles git.CopyDetection
	// MaxDepth bounds the number of relocations followed per line; 0 means
	// a single one.
	MaxDepth int
}

func (m MoveOptions) Enabled() bool {
	return m.WithinFile || m.FromOtherFiles != git.CopyDetectionDisabled
}

type ResolveOptions struct {
	IgnoreRevsFile   string
	MaxChangeSize    int // 0 disables the bound
	IgnoreWhitespace bool
	Move             MoveOptions
}

func (o ResolveOptions) blameOptions() git.BlameOptions {
	return git.BlameOptions{
		IgnoreRevsFile:   o.IgnoreRevsFile,
		IgnoreWhitespace: o.IgnoreWhitespace,
		DetectMoves:      o.Move.WithinFile,
		DetectCopies:     o.Move.FromOtherFiles,
	}
}

// Resolver blames impacted lines and walks past pure relocations.
type Resolver struct {
	vcs    VCS
	logger *slog.Logger
}

func NewResolver(vcs VCS, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{vcs: vcs, logger: logger}
}

// Resolve blames the lines of files at anchor and returns the commits they
// are attributed to. A file that cannot be blamed is logged and skipped.
// Commits larger than MaxChangeSize are dropped.
func (r *Resolver) Resolve(ctx context.Context, anchor string, files []types.ImpactedFile, opts ResolveOptions) (*types.CandidateSet, error) {
	set := types.NewCandidateSet()
	oversized := make(map[string]bool)

	for _, f := range files {
		path := f.BlamePath()
		blamed, err := r.vcs.Blame(ctx, anchor, path, f.Lines, opts.blameOptions())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			r.logger.Error("blame failed, skipping file", "file", path, "rev", anchor, "error", err)
			continue
		}

		for _, line := range blamed {
			hash := line.Commit
			if opts.Move.Enabled() {
				hash, err = r.follow(ctx, line, opts)
				if err != nil {
					return nil, err
				}
			}

			if set.Contains(hash) || oversized[hash] {
				continue
			}

			if opts.MaxChangeSize > 0 {
				size, err := r.vcs.ChangeSize(ctx, hash)
				if err != nil {
					return nil, err
				}
				if size > opts.MaxChangeSize {
					r.logger.Info("dropping oversized candidate", "commit", hash, "size", size, "max", opts.MaxChangeSize)
					oversized[hash] = true
					continue
				}
			}

			c, err := r.vcs.Commit(ctx, hash)
			if err != nil {
				return nil, err
			}
			set.Add(c)
		}
	}

	return set, nil
}

type lineOrigin struct {
	path string
	line int
}

// follow re-blames a line in the parent of every commit that merely moved
// it there, up to the configured depth, and returns the last commit
// reached.
func (r *Resolver) follow(ctx context.Context, line utils.BlameLine, opts ResolveOptions) (string, error) {
	hops := opts.Move.MaxDepth
	if hops <= 0 {
		hops = 1
	}

	cur := line
	for range hops {
		origin, ok, err := r.movedFrom(ctx, cur, opts)
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}

		prev, err := r.vcs.Blame(ctx, cur.Commit+"^", origin.path, []int{origin.line}, opts.blameOptions())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			r.logger.Warn("cannot blame move origin", "commit", cur.Commit, "file", origin.path, "line", origin.line, "error", err)
			break
		}
		if len(prev) == 0 {
			break
		}

		r.logger.Debug("line moved", "commit", cur.Commit, "from", origin.path, "line", origin.line, "to", prev[0].Commit)
		cur = prev[0]
	}
	return cur.Commit, nil
}

// movedFrom looks for a deleted line with the same content in the diff of
// the commit the line is attributed to. Lines in the same file are
// preferred over lines of other files. Lines too generic to identify a
// relocation, and lines the commit rewrote in place, never count.
func (r *Resolver) movedFrom(ctx context.Context, line utils.BlameLine, opts ResolveOptions) (lineOrigin, bool, error) {
	content := strings.TrimSpace(line.Content)
	if line.Boundary || lowInformation(content) {
		return lineOrigin{}, false, nil
	}

	changes, err := r.vcs.CommitDiff(ctx, line.Commit)
	if err != nil {
		if errors.Is(err, git.ErrRevisionNotFound) {
			return lineOrigin{}, false, nil
		}
		return lineOrigin{}, false, err
	}

	for _, fc := range changes {
		if fc.Path() != line.OrigPath {
			continue
		}
		if _, edited := fc.InPlaceEdits(); edited[line.OrigLine] {
			return lineOrigin{}, false, nil
		}
	}

	var other *lineOrigin
	for _, fc := range changes {
		sameFile := fc.Path() == line.OrigPath
		if sameFile && !opts.Move.WithinFile {
			continue
		}
		if !sameFile && (opts.Move.FromOtherFiles == git.CopyDetectionDisabled || other != nil) {
			continue
		}

		rewritten, _ := fc.InPlaceEdits()
		for _, d := range fc.Deleted {
			if rewritten[d.Number] || strings.TrimSpace(d.Text) != content {
				continue
			}
			origin := lineOrigin{path: fc.OldPath, line: d.Number}
			if sameFile {
				return origin, true, nil
			}
			other = &origin
			break
		}
	}

	if other != nil {
		return *other, true, nil
	}
	return lineOrigin{}, false, nil
}

// genericWords are keywords and literals common to the supported languages.
var genericWords = map[string]bool{
	"break": true, "case": true, "continue": true, "default": true, "do": true,
	"else": true, "end": true, "except": true, "false": true, "False": true,
	"finally": true, "fi": true, "nil": true, "None": true, "null": true,
	"pass": true, "return": true, "this": true, "self": true, "true": true,
	"True": true, "try": true, "undefined": true, "void": true,
}

// lowInformation reports whether a trimmed line is too common to tell a
// relocation from new code: blank, punctuation only, or nothing but
// keywords and numeric literals (`}`, `break;`, `else {`, `return 0;`).
func lowInformation(content string) bool {
	words := strings.FieldsFunc(content, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, w := range words {
		if genericWords[w] || unicode.IsDigit(rune(w[0])) {
			continue
		}
		return false
	}
	return true
}
