package cli

// This file contains the run command: executing the full platform matrix
// and recording the outcome.

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/crossforge/crossforge/artifact"
	"github.com/crossforge/crossforge/builder"
	"github.com/crossforge/crossforge/matrix"
	"github.com/crossforge/crossforge/model"
	"github.com/crossforge/crossforge/pipeline"
	"github.com/crossforge/crossforge/toolchain"
)

const defaultPipelineFile = pipeline.DefaultFile

func (a *App) run(ctx *cli.Context) error {
	startTime := time.Now()
	dryRun := ctx.Bool("dry-run")

	p, err := pipeline.Load(ctx.String("config"))
	if err != nil {
		return err
	}

	targets, err := p.Filter(ctx.StringSlice("target"))
	if err != nil {
		return err
	}

	// Generate random 16-byte run ID
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return fmt.Errorf("failed to generate run ID: %w", err)
	}
	runID := hex.EncodeToString(idBytes)

	record := &model.RunRecord{
		ID:        runID,
		Timestamp: startTime,
		Args:      os.Args,
		Binary:    p.Binary,
		Channel:   p.Channel,
	}

	// Capture working directory
	if cwd, err := os.Getwd(); err == nil {
		record.WorkDir = cwd
	}

	// Capture git info (non-fatal if it fails)
	if commit, branch, err := a.getGitInfo(); err == nil {
		record.Git = &model.Git{
			Commit: commit,
			Branch: branch,
		}
	}

	a.logger.Info().
		Str("binary", p.Binary).
		Str("channel", p.Channel).
		Int("targets", len(targets)).
		Bool("dry_run", dryRun).
		Str("id", runID[:8]).
		Msg("Starting build run")

	store := artifact.NewDirStore(a.logger, p.StoreDir, runID[:8], dryRun)
	controller := matrix.New(
		a.logger,
		toolchain.New(a.logger, dryRun),
		builder.New(a.logger, p.BuildCommand, dryRun),
		builder.NewStripProcessor(a.logger, dryRun),
		store,
	)

	results := controller.Run(ctx.Context, p.Channel, targets)

	if err := store.WriteManifest(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to write artifact manifest")
	}

	for _, r := range results {
		tr := model.TargetResult{
			OS:           string(r.Target.OS),
			ArtifactName: r.Target.ArtifactName,
			OutputPath:   r.Target.OutputPath,
			Status:       r.Status,
			Duration:     r.Duration,
			Location:     r.Location,
		}
		if r.Err != nil {
			tr.Error = r.Err.Error()
		}
		record.Targets = append(record.Targets, tr)
	}

	succeeded := matrix.Succeeded(results)
	record.Duration = time.Since(startTime)
	if !succeeded {
		record.ExitCode = 1
	}

	// Record the run (non-fatal if it fails)
	if err := a.recordRun(record); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to record build run")
	}

	for _, r := range results {
		event := a.logger.Info()
		if r.Status.Failed() {
			event = a.logger.Error().Err(r.Err)
		}
		event.
			Str("target", string(r.Target.OS)).
			Str("status", string(r.Status)).
			Dur("duration", r.Duration).
			Msg("Target result")
	}

	if !succeeded {
		return cli.Exit("build run failed", 1)
	}

	a.logger.Info().Dur("duration", record.Duration).Msg("Build run succeeded")
	return nil
}
