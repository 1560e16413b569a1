package model

import "time"

// Status is the terminal outcome of one target's pipeline.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusToolchainFailure Status = "toolchain_failure"
	StatusBuildFailure     Status = "build_failure"
	StatusStripFailure     Status = "strip_failure"
	StatusPublishFailure   Status = "publish_failure"
)

// Failed reports whether the status is any of the failure kinds.
func (s Status) Failed() bool {
	return s != StatusSuccess
}

// RunRecord represents a single crossforge build run across the full
// platform matrix.
type RunRecord struct {
	// Unique ID for this run (16 random bytes, hex encoded)
	ID string `json:"id"`
	// Timestamp when the run started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// Working directory where the run started (relative to repo root)
	WorkDir string `json:"workdir"`
	// Name of the binary the pipeline builds
	Binary string `json:"binary"`
	// Toolchain channel the run provisioned
	Channel string `json:"channel"`
	// Exit code of the run (0 only if every target succeeded)
	ExitCode int `json:"exit_code"`
	// Duration of the full run
	Duration time.Duration `json:"duration"`
	// Git information
	Git *Git `json:"git,omitempty"`
	// One result per target in the matrix
	Targets []TargetResult `json:"targets"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of the run
	Commit string `json:"commit,omitempty"`
	// Git branch at time of the run
	Branch string `json:"branch,omitempty"`
	// Repository name
	Repo string `json:"repo,omitempty"`
}

// TargetResult is the recorded outcome of one platform target's pipeline.
type TargetResult struct {
	// Platform identifier (linux, windows, macos)
	OS string `json:"os"`
	// Artifact name the target publishes under
	ArtifactName string `json:"artifact_name"`
	// Path the build wrote the executable to
	OutputPath string `json:"output_path"`
	// Terminal status of the pipeline
	Status Status `json:"status"`
	// Error message for failed targets
	Error string `json:"error,omitempty"`
	// Duration of this target's pipeline
	Duration time.Duration `json:"duration"`
	// Published artifact location (success only)
	Location *Location `json:"location,omitempty"`
}

// Location identifies a published artifact in the store.
type Location struct {
	// Path of the stored file
	Path string `json:"path"`
	// Size of the stored file in bytes
	Size uint64 `json:"size"`
	// SHA256 of the stored file, hex encoded
	SHA256 string `json:"sha256,omitempty"`
}
