package history

// This file contains shared history utilities for loading and parsing
// recorded build runs.

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/crossforge/crossforge/model"
)

// Entry pairs a parsed run record with its on-disk directory.
type Entry struct {
	Record   model.RunRecord
	FullPath string
}

// GetCrossforgeRoot returns the .crossforge directory path from the git
// repository root.
func GetCrossforgeRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not in a git repository: %w", err)
	}
	repoRoot := strings.TrimSpace(string(output))
	crossforgeRoot := filepath.Join(repoRoot, ".crossforge")

	// Check if .crossforge directory exists
	if _, err := os.Stat(crossforgeRoot); os.IsNotExist(err) {
		return "", fmt.Errorf("no build runs found in %s", crossforgeRoot)
	}

	return crossforgeRoot, nil
}

// LoadEntries loads all run records from the .crossforge directory.
func LoadEntries(logger zerolog.Logger, crossforgeRoot string) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(crossforgeRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			recordPath := filepath.Join(path, "record.json")
			if _, err := os.Stat(recordPath); err == nil {
				record, err := parseRecordJSON(recordPath)
				if err != nil {
					logger.Warn().Err(err).Str("path", recordPath).Msg("Failed to parse record.json")
					return nil
				}

				entries = append(entries, Entry{
					Record:   record,
					FullPath: path,
				})
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk .crossforge directory: %w", err)
	}

	return entries, nil
}

// parseRecordJSON parses a record.json file.
func parseRecordJSON(recordPath string) (model.RunRecord, error) {
	data, err := os.ReadFile(recordPath)
	if err != nil {
		return model.RunRecord{}, err
	}

	var record model.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.RunRecord{}, err
	}

	return record, nil
}
