package cli

// This file contains run recording functionality for saving build run
// metadata to the history directory.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crossforge/crossforge/model"
)

func (a *App) recordRun(record *model.RunRecord) error {
	repoRoot, err := a.getRepoRoot()
	if err != nil {
		return err
	}
	repoName := filepath.Base(repoRoot)

	if record.Git != nil {
		record.Git.Repo = repoName
	}

	// Get relative path from repo root
	relPath := "."
	if record.WorkDir != "" {
		if rel, err := filepath.Rel(repoRoot, record.WorkDir); err == nil {
			relPath = rel
		}
	}

	// Update WorkDir to be relative to repo root
	record.WorkDir = relPath

	// Create directory in .crossforge/<timestamp>-<id>
	timestamp := record.Timestamp.Format("20060102-150405")
	shortID := record.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	runName := fmt.Sprintf("%s-%s", timestamp, shortID)
	runDir := filepath.Join(repoRoot, ".crossforge", runName)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	// Write run metadata
	recordPath := filepath.Join(runDir, "record.json")
	recordJSON, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	if err := os.WriteFile(recordPath, recordJSON, 0644); err != nil {
		return fmt.Errorf("failed to write run record: %w", err)
	}

	a.logger.Debug().Str("dir", runDir).Str("id", record.ID).Msg("Recorded build run")
	return nil
}
