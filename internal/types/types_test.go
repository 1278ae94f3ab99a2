package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImpactedFile(t *testing.T) {
	tests := []struct {
		name   string
		lines  []int
		expect []int
		ok     bool
	}{
		{"sorted and deduplicated", []int{12, 10, 11, 10}, []int{10, 11, 12}, true},
		{"drops non-positive lines", []int{0, -3, 4}, []int{4}, true},
		{"empty", nil, nil, false},
		{"only invalid lines", []int{0}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := NewImpactedFile("foo.c", tt.lines, LineDeleted)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.expect, f.Lines)
				assert.True(t, f.HasLine(tt.expect[0]))
			}
		})
	}
}

func TestImpactedFile_BlamePath(t *testing.T) {
	deleted := ImpactedFile{Path: "new.c", OldPath: "old.c", Lines: []int{1}, Kind: LineDeleted}
	added := ImpactedFile{Path: "new.c", OldPath: "old.c", Lines: []int{1}, Kind: LineAdded}

	assert.Equal(t, "old.c", deleted.BlamePath())
	assert.Equal(t, "new.c", added.BlamePath())
}

func TestCandidateSet(t *testing.T) {
	now := time.Now()
	s := NewCandidateSet(
		Commit{Hash: "bbb", CommittedDate: now},
		Commit{Hash: "aaa", CommittedDate: now},
		Commit{Hash: "bbb", CommittedDate: now},
	)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"aaa", "bbb"}, s.Hashes())

	s.Merge(NewCandidateSet(Commit{Hash: "ccc"}))
	s.Remove("aaa")
	assert.Equal(t, []string{"bbb", "ccc"}, s.Hashes())
	assert.False(t, s.Contains("aaa"))

	filtered := s.Filter(func(c Commit) bool { return c.Hash == "ccc" })
	assert.Equal(t, []string{"ccc"}, filtered.Hashes())
	assert.Equal(t, 2, s.Len(), "filter must not mutate the receiver")

	var empty *CandidateSet
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Hashes())
}

func TestFixRecord_RoundTripKeepsUnknownFields(t *testing.T) {
	input := `{"id": 4, "repo_name": "ahobson/ruby-pcap",
		"fix_commit_hash": "0ad41d0684c2ec4c2a6b604f7aafbaf9f0459dcc",
		"best_scenario_issue_date": "2011-06-01T04:05:04",
		"language": ["rb"]}`

	var rec FixRecord
	require.NoError(t, json.Unmarshal([]byte(input), &rec))
	assert.Equal(t, "ahobson/ruby-pcap", rec.RepoName)

	date, ok := rec.StringField("best_scenario_issue_date")
	assert.True(t, ok)
	assert.Equal(t, "2011-06-01T04:05:04", date)

	_, ok = rec.StringField("earliest_issue_date")
	assert.False(t, ok)

	rec.InducingCommitHash = []string{"272f03ff3b5bf79829f80c2febd004904d64006e"}
	out, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, float64(4), decoded["id"])
	assert.Equal(t, []any{"rb"}, decoded["language"])
	assert.Equal(t, []any{"272f03ff3b5bf79829f80c2febd004904d64006e"}, decoded["inducing_commit_hash"])
}

func TestFixRecord_EmptyResultIsAnEmptyList(t *testing.T) {
	rec := FixRecord{RepoName: "a/b", FixCommitHash: "abc"}
	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"inducing_commit_hash":[]`)
}

func TestFixRecord_MissingRequiredField(t *testing.T) {
	var rec FixRecord
	err := json.Unmarshal([]byte(`{"repo_name": "a/b"}`), &rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fix_commit_hash")
}
