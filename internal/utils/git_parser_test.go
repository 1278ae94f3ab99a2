package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hashA = "1111111111111111111111111111111111111111"
	hashB = "2222222222222222222222222222222222222222"
)

func TestParseBlamePorcelain(t *testing.T) {
	output := hashA + ` 10 10 2
author Alice
author-mail <alice@example.com>
author-time 1300000000
author-tz +0000
committer Alice
committer-mail <alice@example.com>
committer-time 1300000000
committer-tz +0000
summary add foo
boundary
filename foo.c
	a = 1;
` + hashA + ` 11 11
	b = 2;
` + hashB + ` 4 12 1
author Bob
author-mail <bob@example.com>
author-time 1310000000
author-tz +0200
committer Bob
committer-mail <bob@example.com>
committer-time 1310000000
committer-tz +0200
summary move c from bar.c
previous 3333333333333333333333333333333333333333 bar.c
filename bar.c
	c = 3;
`

	lines, err := ParseBlamePorcelain(output)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, BlameLine{Commit: hashA, OrigLine: 10, FinalLine: 10, OrigPath: "foo.c", Content: "a = 1;", Boundary: true}, lines[0])
	assert.Equal(t, hashA, lines[1].Commit)
	assert.Equal(t, "foo.c", lines[1].OrigPath, "filename is remembered per commit")
	assert.Equal(t, 11, lines[1].FinalLine)
	assert.Equal(t, BlameLine{Commit: hashB, OrigLine: 4, FinalLine: 12, OrigPath: "bar.c", Content: "c = 3;"}, lines[2])
}

func TestParseBlamePorcelain_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"bad header", "not-a-hash 1 1\n\tx\n"},
		{"content without header", "\tx\n"},
		{"truncated", hashA + " 1 1 1\nauthor A\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBlamePorcelain(tt.output)
			assert.Error(t, err)
		})
	}
}

func TestParseBlamePorcelain_Empty(t *testing.T) {
	lines, err := ParseBlamePorcelain("")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestParseGitVersion(t *testing.T) {
	tests := []struct {
		input   string
		expect  string
		wantErr bool
	}{
		{"git version 2.39.2\n", "2.39.2", false},
		{"git version 2.39.2 (Apple Git-143)", "2.39.2", false},
		{"git version 2.40.1.windows.1", "2.40.1", false},
		{"git version 2.23", "2.23", false},
		{"hg version 5", "", true},
		{"git version abc", "", true},
	}

	for _, tt := range tests {
		got, err := ParseGitVersion(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expect, got)
	}
}
