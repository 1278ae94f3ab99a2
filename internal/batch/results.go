package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agusespa/szz/internal/types"
)

// LoadRecords reads a JSON array of fix records.
func LoadRecords(path string) ([]types.FixRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	var records []types.FixRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse input file %s: %w", path, err)
	}
	return records, nil
}

type ResultsManager struct {
	resultsDir string
}

func NewResultsManager(resultsDir string) *ResultsManager {
	return &ResultsManager{
		resultsDir: resultsDir,
	}
}

// Save writes records to bic_<confName>_<unix>.json and returns the path.
// An existing file is never overwritten; a numeric suffix is added instead.
func (rm *ResultsManager) Save(confName string, started time.Time, records []types.FixRecord) (string, error) {
	if err := os.MkdirAll(rm.resultsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory at %s: %w", rm.resultsDir, err)
	}

	if records == nil {
		records = []types.FixRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	base := fmt.Sprintf("bic_%s_%d", confName, started.Unix())
	path := filepath.Join(rm.resultsDir, base+".json")
	for i := 1; ; i++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			path = filepath.Join(rm.resultsDir, fmt.Sprintf("%s.%d.json", base, i))
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create results file %s: %w", path, err)
		}

		_, werr := f.Write(data)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return "", fmt.Errorf("failed to write results file to %s: %w", path, werr)
		}
		return path, nil
	}
}
