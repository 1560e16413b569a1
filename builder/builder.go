package builder

// This file contains the build executor for invoking the compiler in
// release mode and verifying the produced executable.

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"

	"github.com/crossforge/crossforge/pipeline"
)

// CommandBuilder runs the pipeline's build command. The invocation is
// identical on every platform; only the expected output path varies.
type CommandBuilder struct {
	logger  zerolog.Logger
	command []string
	dryRun  bool
}

// New creates a build executor for the given command line
// (e.g., ["cargo", "build", "--release"]).
func New(logger zerolog.Logger, command []string, dryRun bool) *CommandBuilder {
	return &CommandBuilder{
		logger:  logger,
		command: command,
		dryRun:  dryRun,
	}
}

// Build runs the build command and verifies the executable exists at the
// target's output path. Compiler diagnostics are surfaced verbatim in the
// returned error, never interpreted.
func (b *CommandBuilder) Build(ctx context.Context, target pipeline.Target) error {
	if len(b.command) == 0 {
		return fmt.Errorf("no build command configured")
	}

	b.logger.Info().
		Str("target", string(target.OS)).
		Str("output", target.OutputPath).
		Msg("Building release executable")

	b.logger.Debug().
		Str("command", quoteCommand(b.command[0], b.command[1:])).
		Msg("Executing build command")

	if b.dryRun {
		b.logger.Info().
			Str("command", quoteCommand(b.command[0], b.command[1:])).
			Msg("Dry run, skipping build")
		return nil
	}

	cmd := exec.CommandContext(ctx, b.command[0], b.command[1:]...)

	// Capture stderr for error reporting while still displaying it
	var stderr bytes.Buffer
	cmd.Stdout = os.Stdout
	cmd.Stderr = io.MultiWriter(os.Stderr, &stderr)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build command failed: %w (stderr: %s)", err, stderr.String())
	}

	// Verify the executable was created at the expected path
	if _, err := os.Stat(target.OutputPath); err != nil {
		return fmt.Errorf("executable not found after build: %w", err)
	}

	return nil
}

// quoteCommand renders a command line with proper shell escaping for logs.
func quoteCommand(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, arg := range args {
		parts = append(parts, shellescape.Quote(arg))
	}
	return strings.Join(parts, " ")
}
