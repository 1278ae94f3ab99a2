package utils

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// BlameLine is one line of `git blame --porcelain` output.
type BlameLine struct {
	Commit    string
	OrigLine  int    // line number in the commit that introduced it
	FinalLine int    // line number in the blamed revision
	OrigPath  string // path of the file in the introducing commit
	Content   string
	Boundary  bool
}

// ParseBlamePorcelain parses `git blame --porcelain` output. Commit details
// and the filename are printed only the first time a commit shows up, so
// they are remembered per commit.
func ParseBlamePorcelain(output string) ([]BlameLine, error) {
	var result []BlameLine

	filenames := make(map[string]string)
	boundaries := make(map[string]bool)

	var current *BlameLine
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "\t") {
			if current == nil {
				return nil, fmt.Errorf("blame content line without header: %q", line)
			}
			current.Content = line[1:]
			current.OrigPath = filenames[current.Commit]
			current.Boundary = boundaries[current.Commit]
			result = append(result, *current)
			current = nil
			continue
		}

		if current == nil {
			header, err := parseBlameHeader(line)
			if err != nil {
				return nil, err
			}
			current = &header
			continue
		}

		switch {
		case strings.HasPrefix(line, "filename "):
			filenames[current.Commit] = strings.TrimPrefix(line, "filename ")
		case line == "boundary":
			boundaries[current.Commit] = true
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read blame output: %w", err)
	}
	if current != nil {
		return nil, fmt.Errorf("truncated blame output for commit %s", current.Commit)
	}

	return result, nil
}

func parseBlameHeader(line string) (BlameLine, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 || !isHexHash(fields[0]) {
		return BlameLine{}, fmt.Errorf("malformed blame header: %q", line)
	}

	orig, err := strconv.Atoi(fields[1])
	if err != nil {
		return BlameLine{}, fmt.Errorf("malformed blame header: %q", line)
	}
	final, err := strconv.Atoi(fields[2])
	if err != nil {
		return BlameLine{}, fmt.Errorf("malformed blame header: %q", line)
	}

	return BlameLine{Commit: fields[0], OrigLine: orig, FinalLine: final}, nil
}

func isHexHash(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// ParseGitVersion extracts the dotted version from `git --version`, e.g.
// "git version 2.39.2 (Apple Git-143)" -> "2.39.2".
func ParseGitVersion(output string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(output))
	if len(fields) < 3 || fields[0] != "git" || fields[1] != "version" {
		return "", fmt.Errorf("unexpected git version output: %q", output)
	}

	parts := strings.Split(fields[2], ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return "", fmt.Errorf("unexpected git version %q", fields[2])
		}
	}

	return strings.Join(parts, "."), nil
}
