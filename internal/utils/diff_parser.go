package utils

import (
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// DiffLine is one added or deleted line of a hunk.
type DiffLine struct {
	Number int    // line number in the new file (added) or old file (deleted)
	Text   string // content without the +/- marker
}

// FileChange holds the line-level changes of one file in a diff.
type FileChange struct {
	OldPath string // empty for added files
	NewPath string // empty for deleted files
	Added   []DiffLine
	Deleted []DiffLine
	Binary  bool
}

// Path returns the post-change path, or the pre-change path when the file
// was deleted.
func (fc FileChange) Path() string {
	if fc.NewPath == "" {
		return fc.OldPath
	}
	return fc.NewPath
}

func (fc FileChange) IsRename() bool {
	return fc.OldPath != "" && fc.NewPath != "" && fc.OldPath != fc.NewPath
}

// AddedNumbers returns the new-file line numbers of the added lines.
func (fc FileChange) AddedNumbers() []int {
	return lineNumbers(fc.Added)
}

// DeletedNumbers returns the old-file line numbers of the deleted lines.
func (fc FileChange) DeletedNumbers() []int {
	return lineNumbers(fc.Deleted)
}

// InPlaceEdits pairs deleted and added lines that occupy the same position
// of a change block, i.e. lines that were rewritten rather than removed or
// inserted. It returns the paired old and new line numbers. Both line lists
// must be sorted, as ParseUnifiedDiff leaves them.
func (fc FileChange) InPlaceEdits() (deleted, added map[int]bool) {
	deleted = make(map[int]bool)
	added = make(map[int]bool)

	// delta maps an old line number onto the new file past the blocks seen so far.
	delta := 0
	i, j := 0, 0
	for i < len(fc.Deleted) || j < len(fc.Added) {
		if i < len(fc.Deleted) && (j >= len(fc.Added) || fc.Deleted[i].Number+delta <= fc.Added[j].Number) {
			start := fc.Deleted[i].Number
			k := runLength(fc.Deleted[i:])
			m := 0
			if j < len(fc.Added) && fc.Added[j].Number == start+delta {
				m = runLength(fc.Added[j:])
			}
			for n := range min(k, m) {
				deleted[fc.Deleted[i+n].Number] = true
				added[fc.Added[j+n].Number] = true
			}
			i += k
			j += m
			delta += m - k
			continue
		}

		m := runLength(fc.Added[j:])
		j += m
		delta += m
	}

	return deleted, added
}

// runLength counts the lines at the head of lines with consecutive numbers.
func runLength(lines []DiffLine) int {
	n := 1
	for n < len(lines) && lines[n].Number == lines[n-1].Number+1 {
		n++
	}
	return n
}

// ParseUnifiedDiff parses the output of git diff into per-file line changes.
func ParseUnifiedDiff(diff string) ([]FileChange, error) {
	if strings.TrimSpace(diff) == "" {
		return []FileChange{}, nil
	}

	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(diff))
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	changes := make([]FileChange, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		changes = append(changes, parseFileDiff(fd))
	}

	return changes, nil
}

func parseFileDiff(fd *godiff.FileDiff) FileChange {
	fc := FileChange{
		OldPath: cleanPath(fd.OrigName),
		NewPath: cleanPath(fd.NewName),
		Binary:  isBinary(fd),
	}

	for _, hunk := range fd.Hunks {
		added, deleted := walkHunk(hunk)
		fc.Added = append(fc.Added, added...)
		fc.Deleted = append(fc.Deleted, deleted...)
	}

	return fc
}

func walkHunk(hunk *godiff.Hunk) (added, deleted []DiffLine) {
	oldLine := int(hunk.OrigStartLine)
	newLine := int(hunk.NewStartLine)

	lines := strings.Split(string(hunk.Body), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	for _, line := range lines {
		if len(line) == 0 {
			oldLine++
			newLine++
			continue
		}

		switch line[0] {
		case '+':
			added = append(added, DiffLine{Number: newLine, Text: line[1:]})
			newLine++
		case '-':
			deleted = append(deleted, DiffLine{Number: oldLine, Text: line[1:]})
			oldLine++
		case ' ':
			oldLine++
			newLine++
		case '\\':
			// "\ No newline at end of file"
		}
	}

	return added, deleted
}

func isBinary(fd *godiff.FileDiff) bool {
	for _, ext := range fd.Extended {
		if strings.HasPrefix(ext, "Binary files ") || strings.HasPrefix(ext, "GIT binary patch") {
			return true
		}
	}
	return false
}

// cleanPath strips the a/ and b/ prefixes git puts in front of diff paths.
func cleanPath(path string) string {
	if path == "" || path == devNull {
		return ""
	}
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}

func lineNumbers(lines []DiffLine) []int {
	out := make([]int, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Number)
	}
	return out
}
