package matrix

// State is the position of one target's pipeline in its lifecycle. Every
// target traverses the full sequence; a no-op step is still entered and
// left, never skipped.
type State int32

const (
	// StatePending indicates the pipeline has not started yet.
	StatePending State = iota
	// StateProvisioning indicates the toolchain is being installed/activated.
	StateProvisioning
	// StateBuilding indicates the compiler invocation is running.
	StateBuilding
	// StatePostProcessing indicates the post-build step (strip) is running.
	StatePostProcessing
	// StatePublishing indicates the artifact is being registered in the store.
	StatePublishing
	// StateSucceeded is the terminal success state.
	StateSucceeded
	// StateFailed is the terminal failure state.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateProvisioning:
		return "provisioning"
	case StateBuilding:
		return "building"
	case StatePostProcessing:
		return "post-processing"
	case StatePublishing:
		return "publishing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}
