// Package batch resolves a file of fix records, one repository per worker.
package batch

import (
	"fmt"

	"github.com/agusespa/szz/internal/git"
	"github.com/agusespa/szz/internal/syntax"
	"github.com/agusespa/szz/internal/szz"
	"github.com/agusespa/szz/pkg/config"
)

// FinderOptions maps a validated configuration onto the finder's settings.
func FinderOptions(cfg *config.Config) (szz.Options, error) {
	fromOther, err := git.ParseCopyDetection(string(cfg.DetectMoveFromOtherFiles))
	if err != nil {
		return szz.Options{}, &config.ConfigError{Field: "detect_move_from_other_files", Reason: err.Error()}
	}

	return szz.Options{
		Extensions:               cfg.FileExtToParse,
		OnlyDeletedLines:         cfg.OnlyDeletedLines,
		IgnoreRevsFile:           cfg.IgnoreRevsFilePath,
		MaxChangeSize:            cfg.MaxChangeSize,
		DetectMoveWithinFile:     cfg.DetectMoveWithinFile,
		DetectMoveFromOtherFiles: fromOther,
		MaxMoveDepth:             cfg.MaxMoveDepth,
		IssueDateFilter:          cfg.IssueDateFilter,
		FilterRevertCommits:      cfg.FilterRevertCommits,
		SingleAnswer:             cfg.UseSingleAnswerHeuristic,
		DefUseRadius:             cfg.DefUseChainRadius,
		ExperimentalBlockParsers: cfg.ExperimentalBlockParsers,
	}, nil
}

// NewParser returns the structural parser the configuration selects.
func NewParser(cfg *config.Config) (syntax.Parser, error) {
	switch cfg.StructuralParser {
	case config.ParserTreeSitter, "":
		return syntax.NewTreeSitterParser(nil), nil
	case config.ParserSrcML:
		return syntax.NewSrcMLParser(cfg.SrcMLBinary, ""), nil
	default:
		return nil, &config.ConfigError{Field: "structural_parser", Reason: fmt.Sprintf("unknown parser %q", cfg.StructuralParser)}
	}
}
