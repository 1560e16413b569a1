package cli

// This file contains git interrogation utilities: the commit/branch
// metadata captured into run records and the repository root the
// .crossforge history directory hangs off.

import (
	"fmt"
	"os/exec"
	"strings"
)

// gitOutput runs a git query and returns its trimmed stdout.
func (a *App) gitOutput(args ...string) (string, error) {
	output, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// getRepoRoot returns the top-level directory of the enclosing git
// repository. Run records are stored relative to it.
func (a *App) getRepoRoot() (string, error) {
	root, err := a.gitOutput("rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not in a git repository: %w", err)
	}
	return root, nil
}

func (a *App) getGitInfo() (commit, branch string, err error) {
	commit, err = a.gitOutput("rev-parse", "HEAD")
	if err != nil {
		return "", "", fmt.Errorf("failed to get git commit: %w", err)
	}

	branch, err = a.gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", "", fmt.Errorf("failed to get git branch: %w", err)
	}

	return commit, branch, nil
}
