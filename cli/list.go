package cli

// This file contains the list command for displaying previous build runs.

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/crossforge/crossforge/history"
)

func (a *App) list(ctx *cli.Context) error {
	limit := ctx.Int("limit")

	// Get crossforge root directory
	crossforgeRoot, err := history.GetCrossforgeRoot()
	if err != nil {
		return err
	}

	// Load all run records
	entries, err := history.LoadEntries(a.logger, crossforgeRoot)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No build runs found")
		return nil
	}

	// Sort by timestamp (newest first)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Record.Timestamp.After(entries[j].Record.Timestamp)
	})

	// Apply limit
	displayRuns := entries
	if limit > 0 && limit < len(displayRuns) {
		displayRuns = displayRuns[:limit]
	}

	fmt.Printf("\n=== Build runs (%d total) ===\n\n", len(entries))

	for _, entry := range displayRuns {
		record := entry.Record
		timestamp := record.Timestamp.Format("2006-01-02 15:04:05")

		// Format duration
		duration := record.Duration.Round(time.Millisecond)

		// Determine status indicator
		status := "✓"
		if record.ExitCode != 0 {
			status = "✗"
		}

		// Show short ID (first 8 chars)
		shortID := record.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		fmt.Printf("%s  %s  [%s]  exit=%d  id=%s\n", status, timestamp, duration, record.ExitCode, shortID)
		fmt.Printf("   Binary: %s (channel %s)\n", record.Binary, record.Channel)
		if record.Git != nil && record.Git.Commit != "" {
			shortCommit := record.Git.Commit
			if len(shortCommit) > 8 {
				shortCommit = shortCommit[:8]
			}
			fmt.Printf("   Commit: %s", shortCommit)
			if record.Git.Branch != "" {
				fmt.Printf(" (%s)", record.Git.Branch)
			}
			fmt.Println()
		}
		for _, t := range record.Targets {
			line := fmt.Sprintf("   %s: %s", t.OS, t.Status)
			if t.Status.Failed() && t.Error != "" {
				// Keep the first line of the error only
				msg := t.Error
				if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
					msg = msg[:idx]
				}
				line += fmt.Sprintf(" (%s)", msg)
			} else if t.Location != nil {
				line += fmt.Sprintf(" → %s (%.1f KB)", t.Location.Path, float64(t.Location.Size)/1024)
			}
			fmt.Println(line)
		}
		fmt.Printf("   %s\n", entry.FullPath)
		fmt.Println()
	}

	return nil
}
