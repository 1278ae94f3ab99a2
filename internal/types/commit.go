package types

import (
	"maps"
	"slices"
	"time"
)

// Commit is an immutable snapshot of the commit metadata the finder needs.
// Two commits are the same commit when their hashes are equal.
type Commit struct {
	Hash          string    `json:"hash"`
	AuthoredDate  time.Time `json:"authored_date"`
	CommittedDate time.Time `json:"committed_date"`
	Message       string    `json:"message"`
}

// CandidateSet is a set of commits deduplicated by hash.
type CandidateSet struct {
	commits map[string]Commit
}

func NewCandidateSet(commits ...Commit) *CandidateSet {
	s := &CandidateSet{commits: make(map[string]Commit, len(commits))}
	for _, c := range commits {
		s.Add(c)
	}
	return s
}

func (s *CandidateSet) Add(c Commit) {
	if s.commits == nil {
		s.commits = make(map[string]Commit)
	}
	s.commits[c.Hash] = c
}

// Merge adds every commit of other to s.
func (s *CandidateSet) Merge(other *CandidateSet) {
	if other == nil {
		return
	}
	for _, c := range other.commits {
		s.Add(c)
	}
}

func (s *CandidateSet) Remove(hash string) {
	delete(s.commits, hash)
}

func (s *CandidateSet) Contains(hash string) bool {
	_, ok := s.commits[hash]
	return ok
}

func (s *CandidateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.commits)
}

// Commits returns the members sorted by hash.
func (s *CandidateSet) Commits() []Commit {
	if s == nil {
		return nil
	}
	out := make([]Commit, 0, len(s.commits))
	for _, h := range slices.Sorted(maps.Keys(s.commits)) {
		out = append(out, s.commits[h])
	}
	return out
}

// Hashes returns the member hashes in sorted order.
func (s *CandidateSet) Hashes() []string {
	if s == nil || len(s.commits) == 0 {
		return []string{}
	}
	return slices.Sorted(maps.Keys(s.commits))
}

// Filter returns a new set holding the members for which keep is true.
func (s *CandidateSet) Filter(keep func(Commit) bool) *CandidateSet {
	out := NewCandidateSet()
	if s == nil {
		return out
	}
	for _, c := range s.commits {
		if keep(c) {
			out.Add(c)
		}
	}
	return out
}
