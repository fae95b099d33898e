package indexer

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/singabi/dbkb/internal/errors"
)

// statsFile sits next to the index database so a rebuild of the index also
// controls its stats
const statsFile = "build_stats.json"

// Report summarizes one build run; the last successful report is persisted
// as build_stats.json in the index directory
type Report struct {
	SchemaDocuments int     `json:"schema_documents"`
	QueryDocuments  int     `json:"query_documents"`
	TotalDocuments  int     `json:"total_documents"`
	ChunksCreated   int     `json:"chunks_created"`
	Embedded        int     `json:"embedded"`
	Skipped         int     `json:"skipped"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	LastBuild       string  `json:"last_build"`
}

// SaveStats writes the report into the index directory
func SaveStats(indexDir string, report *Report) error {
	if err := os.MkdirAll(indexDir, 0755); err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to create index directory")
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to encode build stats")
	}

	path := filepath.Join(indexDir, statsFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to write build stats")
	}

	return nil
}

// LoadStats reads the last persisted report. A missing file yields a
// not_found error so callers can distinguish "never built" from corruption.
func LoadStats(indexDir string) (*Report, error) {
	data, err := os.ReadFile(filepath.Join(indexDir, statsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrTypeNotFound, "no build stats found").
				WithSuggestion("Run 'dbkb build' to create the index")
		}

		return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to read build stats")
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInternal, "corrupt build stats file")
	}

	return &report, nil
}

// RemoveStats deletes the persisted report, if any
func RemoveStats(indexDir string) {
	_ = os.Remove(filepath.Join(indexDir, statsFile))
}
