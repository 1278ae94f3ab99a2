package types

import (
	"fmt"
	"slices"
)

// LineChangeType tells whether the lines of an ImpactedFile were added or
// deleted by the fix commit.
type LineChangeType int

const (
	LineAdded LineChangeType = iota + 1
	LineDeleted
)

func (t LineChangeType) String() string {
	switch t {
	case LineAdded:
		return "ADD"
	case LineDeleted:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// ImpactedFile is one file touched by a fix commit together with the line
// numbers of one change kind. A file with both additions and deletions
// yields two ImpactedFile values.
type ImpactedFile struct {
	Path    string         // post-rename path (pre-image path for deleted files)
	OldPath string         // pre-rename path, empty when unchanged
	Lines   []int          // sorted, deduplicated, 1-indexed
	Kind    LineChangeType // LineAdded or LineDeleted
}

// NewImpactedFile builds an ImpactedFile with a normalized line set.
// It returns false when no valid line remains.
func NewImpactedFile(path string, lines []int, kind LineChangeType) (ImpactedFile, bool) {
	normalized := NormalizeLines(lines)
	if len(normalized) == 0 {
		return ImpactedFile{}, false
	}
	return ImpactedFile{Path: path, Lines: normalized, Kind: kind}, true
}

// BlamePath returns the path that identifies the file in the fix commit's
// parent: deleted lines live in the pre-rename file.
func (f ImpactedFile) BlamePath() string {
	if f.Kind == LineDeleted && f.OldPath != "" {
		return f.OldPath
	}
	return f.Path
}

// HasLine reports whether line belongs to the file's line set.
func (f ImpactedFile) HasLine(line int) bool {
	_, found := slices.BinarySearch(f.Lines, line)
	return found
}

func (f ImpactedFile) String() string {
	return fmt.Sprintf("%s %s %v", f.Kind, f.Path, f.Lines)
}

// NormalizeLines sorts lines, drops duplicates and anything below 1.
func NormalizeLines(lines []int) []int {
	out := make([]int, 0, len(lines))
	for _, l := range lines {
		if l >= 1 {
			out = append(out, l)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// BlockRange is one lexical block of a file version, 1-indexed, inclusive.
type BlockRange struct {
	Start int
	End   int
}

func (r BlockRange) Contains(line int) bool {
	return r.Start <= line && line <= r.End
}

func (r BlockRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}
