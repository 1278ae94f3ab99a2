package blocks

import (
	"slices"
	"strings"

	"github.com/agusespa/szz/internal/types"
)

// Line heuristics for languages without a grammar. They are best effort:
// strings, heredocs and multi-line headers can confuse them.

var indentKeywords = []string{"if", "elif", "else", "for", "while", "def", "class", "with", "try", "except", "finally", "async def"}

// IndentBlocks finds the bodies of keyword-introduced Python blocks: the
// lines after a header ending in ':' that are indented deeper than it.
func IndentBlocks(content string) []types.BlockRange {
	lines := strings.Split(content, "\n")
	var ranges []types.BlockRange

	for i, line := range lines {
		trimmed := strings.TrimSpace(stripComment(line, "#"))
		if !strings.HasSuffix(trimmed, ":") || !startsWithKeyword(trimmed, indentKeywords) {
			continue
		}

		depth := indentation(line)
		last := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "" {
				continue
			}
			if indentation(lines[j]) <= depth {
				break
			}
			last = j
		}
		if last > i {
			ranges = append(ranges, types.BlockRange{Start: i + 2, End: last + 1})
		}
	}
	return ranges
}

var rubyOpeners = []string{"def", "class", "module", "if", "unless", "while", "until", "for", "case", "begin"}

// EndBlocks pairs Ruby block openers with their 'end', counting nesting.
// The range is the body between the two lines.
func EndBlocks(content string) []types.BlockRange {
	lines := strings.Split(content, "\n")
	var (
		ranges []types.BlockRange
		open   []int
	)

	for i, line := range lines {
		trimmed := strings.TrimSpace(stripComment(line, "#"))
		if trimmed == "" {
			continue
		}

		if startsWithKeyword(trimmed, rubyOpeners) || opensDoBlock(trimmed) {
			open = append(open, i)
			continue
		}

		if trimmed == "end" || strings.HasPrefix(trimmed, "end.") || strings.HasPrefix(trimmed, "end ") {
			if len(open) == 0 {
				continue
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]
			if i-1 > start {
				ranges = append(ranges, types.BlockRange{Start: start + 2, End: i})
			}
		}
	}

	sortPreorder(ranges)
	return ranges
}

func opensDoBlock(line string) bool {
	if strings.HasSuffix(line, " do") || line == "do" {
		return true
	}
	// do |x|
	idx := strings.LastIndex(line, " do |")
	return idx >= 0 && strings.HasSuffix(line, "|")
}

type openBrace struct {
	line      int
	restEmpty bool
}

// BraceBlocks pairs curly braces, skipping string literals and comments.
// A block's range excludes the brace lines when nothing else sits on them.
func BraceBlocks(content string) []types.BlockRange {
	lines := strings.Split(content, "\n")
	var (
		ranges  []types.BlockRange
		open    []openBrace
		quote   rune
		comment bool // inside /* */
	)

	for i, line := range lines {
		runes := []rune(line)
		for j := 0; j < len(runes); j++ {
			c := runes[j]
			switch {
			case comment:
				if c == '*' && j+1 < len(runes) && runes[j+1] == '/' {
					comment = false
					j++
				}
			case quote != 0:
				if c == '\\' {
					j++
				} else if c == quote {
					quote = 0
				}
			case c == '"' || c == '\'' || c == '`':
				quote = c
			case c == '/' && j+1 < len(runes) && runes[j+1] == '/':
				j = len(runes)
			case c == '/' && j+1 < len(runes) && runes[j+1] == '*':
				comment = true
				j++
			case c == '{':
				open = append(open, openBrace{line: i, restEmpty: strings.TrimSpace(string(runes[j+1:])) == ""})
			case c == '}':
				if len(open) == 0 {
					continue
				}
				b := open[len(open)-1]
				open = open[:len(open)-1]

				start, end := b.line, i
				if b.restEmpty {
					start++
				}
				if strings.TrimSpace(string(runes[:j])) == "" {
					end--
				}
				if end >= start {
					ranges = append(ranges, types.BlockRange{Start: start + 1, End: end + 1})
				}
			}
		}
		// single-quoted and double-quoted strings do not span lines
		if quote == '"' || quote == '\'' {
			quote = 0
		}
	}

	sortPreorder(ranges)
	return ranges
}

// sortPreorder orders ranges by start line, enclosing ranges first.
func sortPreorder(ranges []types.BlockRange) {
	slices.SortStableFunc(ranges, func(a, b types.BlockRange) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return b.End - a.End
	})
}

func startsWithKeyword(line string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.HasPrefix(line, kw) {
			continue
		}
		rest := line[len(kw):]
		if rest == "" || !isIdentRune(rune(rest[0])) {
			return true
		}
	}
	return false
}

func isIdentRune(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func indentation(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 8 - n%8
		default:
			return n
		}
	}
	return n
}

func stripComment(line, marker string) string {
	if idx := strings.Index(line, marker); idx >= 0 {
		return line[:idx]
	}
	return line
}
