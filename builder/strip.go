package builder

// This file contains the post-build processor: platform-conditional
// in-place debug symbol stripping.

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/crossforge/crossforge/pipeline"
)

// StripProcessor removes debug symbols from a built executable in place.
// Targets without strip support traverse the step as a successful no-op.
type StripProcessor struct {
	logger zerolog.Logger
	tool   string
	dryRun bool
}

// NewStripProcessor creates a post-build processor using the strip utility.
func NewStripProcessor(logger zerolog.Logger, dryRun bool) *StripProcessor {
	return &StripProcessor{
		logger: logger,
		tool:   "strip",
		dryRun: dryRun,
	}
}

// Process strips the target's executable. If stripping fails on a platform
// that supports it, the error is fatal for the target; the unstripped
// binary must not pass as the published artifact.
func (s *StripProcessor) Process(ctx context.Context, target pipeline.Target) error {
	if !target.SupportsStrip {
		s.logger.Debug().
			Str("target", string(target.OS)).
			Msg("Stripping unsupported on this platform, skipping")
		return nil
	}

	s.logger.Debug().
		Str("command", quoteCommand(s.tool, []string{target.OutputPath})).
		Msg("Stripping debug symbols")

	if s.dryRun {
		s.logger.Info().
			Str("command", quoteCommand(s.tool, []string{target.OutputPath})).
			Msg("Dry run, skipping strip")
		return nil
	}

	cmd := exec.CommandContext(ctx, s.tool, target.OutputPath)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to strip %s: %w (stderr: %s)", target.OutputPath, err, stderr.String())
	}
	return nil
}
