package szz

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agusespa/szz/internal/types"
)

// ImpactedFiles lists the lines the fix commit deleted and, unless
// onlyDeleted is set, the lines it added. exts restricts the files by
// extension ("c" and ".c" are the same); empty means every file. Binary
// files and changes without hunks are skipped.
func ImpactedFiles(ctx context.Context, vcs VCS, fixHash string, exts []string, onlyDeleted bool) ([]types.ImpactedFile, error) {
	changes, err := vcs.CommitDiff(ctx, fixHash)
	if err != nil {
		return nil, fmt.Errorf("failed to diff fix commit %s: %w", fixHash, err)
	}

	allowed := extensionFilter(exts)

	var files []types.ImpactedFile
	for _, fc := range changes {
		if fc.Binary || !allowed(fc.Path()) {
			continue
		}

		if f, ok := types.NewImpactedFile(fc.Path(), fc.DeletedNumbers(), types.LineDeleted); ok {
			if fc.IsRename() {
				f.OldPath = fc.OldPath
			}
			files = append(files, f)
		}
		if onlyDeleted {
			continue
		}
		if f, ok := types.NewImpactedFile(fc.Path(), fc.AddedNumbers(), types.LineAdded); ok {
			files = append(files, f)
		}
	}
	return files, nil
}

func extensionFilter(exts []string) func(string) bool {
	if len(exts) == 0 {
		return func(string) bool { return true }
	}

	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}

	return func(path string) bool {
		return set[strings.ToLower(filepath.Ext(path))]
	}
}
