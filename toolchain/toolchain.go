package toolchain

// This file contains the toolchain provisioner for installing and
// activating a compiler toolchain channel via rustup.

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"
)

// Provisioner installs and selects a rustup toolchain channel.
type Provisioner struct {
	logger zerolog.Logger
	rustup string
	dryRun bool
}

// New creates a provisioner that shells out to rustup.
func New(logger zerolog.Logger, dryRun bool) *Provisioner {
	return &Provisioner{
		logger: logger,
		rustup: "rustup",
		dryRun: dryRun,
	}
}

// Provision installs the channel and selects it as the default toolchain.
// Both steps must succeed for the build executor to rely on the channel.
func (p *Provisioner) Provision(ctx context.Context, channel string) error {
	if err := p.run(ctx, "toolchain", "install", channel); err != nil {
		return fmt.Errorf("failed to install toolchain %s: %w", channel, err)
	}
	if err := p.run(ctx, "default", channel); err != nil {
		return fmt.Errorf("failed to activate toolchain %s: %w", channel, err)
	}
	return nil
}

func (p *Provisioner) run(ctx context.Context, args ...string) error {
	p.logger.Debug().
		Str("command", quoteCommand(p.rustup, args)).
		Msg("Executing rustup")

	if p.dryRun {
		p.logger.Info().Str("command", quoteCommand(p.rustup, args)).Msg("Dry run, skipping rustup")
		return nil
	}

	cmd := exec.CommandContext(ctx, p.rustup, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("rustup %s: %w (stderr: %s)", strings.Join(args, " "), err, stderr.String())
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
