package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/agusespa/szz/internal/git"
	"github.com/agusespa/szz/internal/szz"
	"github.com/agusespa/szz/internal/types"
)

// PostfilterMode narrows the inducing commits of results saved earlier.
type PostfilterMode string

const (
	PostfilterIssueDate PostfilterMode = "issue-date"
	PostfilterLatest    PostfilterMode = "latest"
	PostfilterLargest   PostfilterMode = "largest"
)

var postfilterSuffixes = map[PostfilterMode]string{
	PostfilterIssueDate: ".issue-filter.json",
	PostfilterLatest:    ".rszz.json",
	PostfilterLargest:   ".lszz.json",
}

func ParsePostfilterMode(s string) (PostfilterMode, error) {
	m := PostfilterMode(s)
	if _, ok := postfilterSuffixes[m]; !ok {
		return "", fmt.Errorf("unknown postfilter mode %q (want issue-date, latest or largest)", s)
	}
	return m, nil
}

// Suffix replaces ".json" in the names of the files the mode writes.
func (m PostfilterMode) Suffix() string {
	return postfilterSuffixes[m]
}

// Postfilter rewrites result files without blaming again. It only needs
// the commit metadata of the candidates, read from the local clones.
type Postfilter struct {
	mode     PostfilterMode
	reposDir string
	cloneURL func(string) string
	logger   *slog.Logger
}

func NewPostfilter(mode PostfilterMode, reposDir string, logger *slog.Logger) *Postfilter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postfilter{mode: mode, reposDir: reposDir, cloneURL: GitHubURL, logger: logger}
}

// FilterDir filters every bic_*.json file of dir that is not itself the
// output of a postfilter, and returns the paths written.
func (p *Postfilter) FilterDir(ctx context.Context, dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "bic_*.json"))
	if err != nil {
		return nil, err
	}
	slices.Sort(matches)

	var written []string
	for _, path := range matches {
		if isPostfiltered(path) {
			continue
		}
		p.logger.Info("postfiltering", "file", path, "mode", p.mode)

		records, err := LoadRecords(path)
		if err != nil {
			return written, err
		}
		filtered, err := p.Apply(ctx, records)
		if err != nil {
			return written, err
		}

		out := strings.TrimSuffix(path, ".json") + p.mode.Suffix()
		if err := writeRecords(out, filtered); err != nil {
			return written, err
		}
		written = append(written, out)
	}
	return written, nil
}

func isPostfiltered(path string) bool {
	for _, suffix := range postfilterSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// Apply narrows the inducing commits of every record. A record whose
// commits cannot be read keeps its candidates.
func (p *Postfilter) Apply(ctx context.Context, records []types.FixRecord) ([]types.FixRecord, error) {
	out := make([]types.FixRecord, len(records))
	copy(out, records)

	repos := make(map[string]*git.Repository)
	defer func() {
		for _, repo := range repos {
			repo.Close()
		}
	}()

	for i, record := range out {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger := p.logger.With("repo", record.RepoName, "fix", short(record.FixCommitHash))

		repo, ok := repos[record.RepoName]
		if !ok {
			var err error
			repo, err = git.OpenOrClone(ctx, p.reposDir, record.RepoName, p.cloneURL(record.RepoName), logger)
			if err != nil {
				logger.Error("cannot open repository, keeping candidates", "error", err)
				continue
			}
			repos[record.RepoName] = repo
		}

		kept, err := p.filter(ctx, repo, record, logger)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Error("postfilter failed, keeping candidates", "error", err)
			continue
		}
		logger.Info("filtered", "before", len(record.InducingCommitHash), "after", len(kept))
		out[i].InducingCommitHash = kept
	}
	return out, nil
}

func (p *Postfilter) filter(ctx context.Context, repo *git.Repository, record types.FixRecord, logger *slog.Logger) ([]string, error) {
	if len(record.InducingCommitHash) == 0 {
		return []string{}, nil
	}

	session, err := repo.Checkout(ctx, record.FixCommitHash)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	set := types.NewCandidateSet()
	for _, hash := range record.InducingCommitHash {
		c, err := session.Commit(ctx, hash)
		if err != nil {
			return nil, err
		}
		set.Add(c)
	}

	switch p.mode {
	case PostfilterIssueDate:
		issued, ok, err := szz.ParseIssueDate(record)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Warn("record has no issue date, keeping candidates")
			return record.InducingCommitHash, nil
		}
		set = szz.FilterByIssueDate(set, issued)
		kept := []string{}
		for _, hash := range record.InducingCommitHash {
			if c, err := session.Commit(ctx, hash); err == nil && set.Contains(c.Hash) {
				kept = append(kept, hash)
			}
		}
		return kept, nil

	case PostfilterLatest:
		if c, ok := szz.SelectLatestCommit(set); ok {
			return []string{c.Hash}, nil
		}
		return []string{}, nil

	case PostfilterLargest:
		c, ok, err := szz.SelectLargestCommit(ctx, session, set)
		if err != nil {
			return nil, err
		}
		if ok {
			return []string{c.Hash}, nil
		}
		return []string{}, nil
	}
	return nil, fmt.Errorf("unknown postfilter mode %q", p.mode)
}

func writeRecords(path string, records []types.FixRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results file to %s: %w", path, err)
	}
	return nil
}
