package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Strategy names accepted in szz_name.
var SupportedStrategies = []string{"b", "ag", "ma", "latest", "r", "l", "a", "df"}

// Structural parser backends.
const (
	ParserTreeSitter = "treesitter"
	ParserSrcML      = "srcml"
)

var SupportedParsers = []string{ParserTreeSitter, ParserSrcML}

var moveModes = []string{"", "disabled", "same_commit", "trace_source_file", "0", "1", "2"}

type Config struct {
	SZZName                  string        `yaml:"szz_name"`
	FileExtToParse           []string      `yaml:"file_ext_to_parse"`
	OnlyDeletedLines         bool          `yaml:"only_deleted_lines"`
	MaxChangeSize            int           `yaml:"max_change_size"`
	DetectMoveWithinFile     bool          `yaml:"detect_move_within_file"`
	DetectMoveFromOtherFiles MoveDetection `yaml:"detect_move_from_other_files"`
	MaxMoveDepth             int           `yaml:"max_move_depth"`
	IssueDateFilter          bool          `yaml:"issue_date_filter"`
	FilterRevertCommits      bool          `yaml:"filter_revert_commits"`
	IgnoreRevsFilePath       string        `yaml:"ignore_revs_file_path"`
	DefUseChainRadius        int           `yaml:"defuse_chain_radius"`
	UseSingleAnswerHeuristic bool          `yaml:"use_single_answer_heuristic"`
	ExperimentalBlockParsers bool          `yaml:"experimental_block_parsers"`
	StructuralParser         string        `yaml:"structural_parser"`
	SrcMLBinary              string        `yaml:"srcml_binary"`
	Workers                  int           `yaml:"workers"`
	LogLevel                 string        `yaml:"log_level"`
}

// legacyKeys are older spellings, honored only when the current key is
// absent.
type legacyKeys struct {
	UseRSZZHeuristic *bool `yaml:"use_rszz_heuristic"`
	Experimental     *bool `yaml:"experimental"`
}

// MoveDetection is the raw detect_move_from_other_files value. Both the
// mode names and the numbers 0, 1 and 2 are accepted.
type MoveDetection string

func (m *MoveDetection) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: detect_move_from_other_files must be a scalar", value.Line)
	}
	*m = MoveDetection(strings.ToLower(strings.TrimSpace(value.Value)))
	return nil
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// Default returns the configuration used for keys the file leaves out.
func Default() *Config {
	return &Config{
		SZZName:                  "b",
		FilterRevertCommits:      true,
		UseSingleAnswerHeuristic: true,
		StructuralParser:         ParserTreeSitter,
		SrcMLBinary:              "srcml",
		Workers:                  runtime.NumCPU(),
		LogLevel:                 "info",
	}
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	return config, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	var present map[string]any
	if err := yaml.Unmarshal(data, &present); err != nil {
		return nil, err
	}
	var legacy legacyKeys
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}
	if _, ok := present["use_single_answer_heuristic"]; !ok && legacy.UseRSZZHeuristic != nil {
		config.UseSingleAnswerHeuristic = *legacy.UseRSZZHeuristic
	}
	if _, ok := present["experimental_block_parsers"]; !ok && legacy.Experimental != nil {
		config.ExperimentalBlockParsers = *legacy.Experimental
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every field and returns a *ConfigError for the first bad
// one.
func (c *Config) Validate() error {
	switch {
	case c.SZZName == "":
		return &ConfigError{Field: "szz_name", Reason: "missing"}
	case !slices.Contains(SupportedStrategies, c.SZZName):
		return &ConfigError{Field: "szz_name", Reason: fmt.Sprintf("unknown strategy %q (supported: %s)", c.SZZName, strings.Join(SupportedStrategies, ", "))}
	case c.MaxChangeSize < 0:
		return &ConfigError{Field: "max_change_size", Reason: "must not be negative"}
	case c.MaxMoveDepth < 0:
		return &ConfigError{Field: "max_move_depth", Reason: "must not be negative"}
	case c.DefUseChainRadius < 0:
		return &ConfigError{Field: "defuse_chain_radius", Reason: "must not be negative"}
	case !slices.Contains(moveModes, string(c.DetectMoveFromOtherFiles)):
		return &ConfigError{Field: "detect_move_from_other_files", Reason: fmt.Sprintf("unknown mode %q", c.DetectMoveFromOtherFiles)}
	case !slices.Contains(SupportedParsers, c.StructuralParser):
		return &ConfigError{Field: "structural_parser", Reason: fmt.Sprintf("unknown parser %q", c.StructuralParser)}
	case c.Workers < 1:
		return &ConfigError{Field: "workers", Reason: "must be at least 1"}
	}
	return nil
}

// Name returns the configuration file name without directory and
// extensions, as used in result file names.
func Name(filename string) string {
	base := filepath.Base(filename)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return base
}
