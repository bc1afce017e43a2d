package github

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bryan-cox/grantledger/internal/model"
)

// LoadRecords reads a YAML snapshot written by SaveRecords.
func LoadRecords(path string) ([]model.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file '%s': %w", path, err)
	}
	var records []model.RawRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("could not parse YAML from '%s': %w", path, err)
	}
	return records, nil
}

// SaveRecords writes records as a YAML list.
func SaveRecords(path string, records []model.RawRecord) error {
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}
	return nil
}
