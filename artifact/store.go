package artifact

// This file contains the directory-backed artifact store for publishing
// built executables under their artifact names.

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/crossforge/crossforge/model"
)

// ManifestEntry describes one published artifact in the run manifest.
type ManifestEntry struct {
	// Artifact name the file was published under
	Name string `json:"name"`
	// File name inside the artifact directory
	File string `json:"file"`
	// Size of the published file in bytes
	Size uint64 `json:"size"`
	// SHA256 of the published file, hex encoded
	SHA256 string `json:"sha256"`
}

// DirStore publishes artifacts into <dir>/<run-id>/<name>/ and records
// them in a per-run manifest. Name uniqueness is the caller's contract;
// the store does not defend against collisions.
type DirStore struct {
	logger zerolog.Logger
	dir    string
	runID  string
	dryRun bool

	// Publish is called from parallel target pipelines.
	mu       sync.Mutex
	manifest []ManifestEntry
}

// NewDirStore creates an artifact store rooted at dir for the given run.
func NewDirStore(logger zerolog.Logger, dir, runID string, dryRun bool) *DirStore {
	return &DirStore{
		logger: logger,
		dir:    dir,
		runID:  runID,
		dryRun: dryRun,
	}
}

// Publish copies the executable at path into the store under name and
// registers it in the manifest. No retry on failure.
func (s *DirStore) Publish(ctx context.Context, name, path string) (model.Location, error) {
	destDir := filepath.Join(s.dir, s.runID, name)
	dest := filepath.Join(destDir, filepath.Base(path))

	if s.dryRun {
		s.logger.Info().
			Str("artifact", name).
			Str("dest", dest).
			Msg("Dry run, skipping publish")
		return model.Location{Path: dest}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Location{}, fmt.Errorf("failed to read executable %s: %w", path, err)
	}

	hashBytes := sha256.Sum256(data)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return model.Location{}, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0755); err != nil {
		return model.Location{}, fmt.Errorf("failed to write artifact %s: %w", name, err)
	}

	location := model.Location{
		Path:   dest,
		Size:   uint64(len(data)),
		SHA256: hash,
	}

	s.mu.Lock()
	s.manifest = append(s.manifest, ManifestEntry{
		Name:   name,
		File:   filepath.Base(path),
		Size:   location.Size,
		SHA256: hash,
	})
	s.mu.Unlock()

	s.logger.Info().
		Str("artifact", name).
		Str("dest", dest).
		Uint64("size", location.Size).
		Msg("Published artifact")

	return location, nil
}

// Manifest returns a copy of the entries published so far.
func (s *DirStore) Manifest() []ManifestEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]ManifestEntry, len(s.manifest))
	copy(entries, s.manifest)
	return entries
}

// WriteManifest writes manifest.json next to the published artifacts.
// Nothing is written when no artifact was published (e.g., dry run or a
// fully failed matrix).
func (s *DirStore) WriteManifest() error {
	entries := s.Manifest()
	if len(entries) == 0 || s.dryRun {
		return nil
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	manifestPath := filepath.Join(s.dir, s.runID, "manifest.json")
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	s.logger.Debug().Str("manifest", manifestPath).Msg("Wrote artifact manifest")
	return nil
}
