package matrix

// This file contains the platform matrix controller: fanning one build
// definition out across targets, running each target's pipeline in
// isolation and collecting one result per target.

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/crossforge/crossforge/model"
	"github.com/crossforge/crossforge/pipeline"
)

// Provisioner installs and activates a toolchain channel on the host.
type Provisioner interface {
	Provision(ctx context.Context, channel string) error
}

// Builder runs the compiler invocation for one target.
type Builder interface {
	Build(ctx context.Context, target pipeline.Target) error
}

// PostProcessor applies platform-conditional transformations to the built
// executable. Implementations must succeed as a no-op on targets the
// transformation does not apply to.
type PostProcessor interface {
	Process(ctx context.Context, target pipeline.Target) error
}

// Publisher registers a finished executable under an artifact name.
type Publisher interface {
	Publish(ctx context.Context, name, path string) (model.Location, error)
}

// Result is the outcome of one target's pipeline.
type Result struct {
	Target pipeline.Target
	Status model.Status
	// Final is the terminal machine state, StateSucceeded or StateFailed.
	Final    State
	Location *model.Location
	Err      error
	Duration time.Duration
}

// Controller coordinates the per-target pipelines.
type Controller struct {
	logger      zerolog.Logger
	provisioner Provisioner
	builder     Builder
	post        PostProcessor
	publisher   Publisher
}

// New creates a matrix controller from its step implementations.
func New(logger zerolog.Logger, provisioner Provisioner, builder Builder, post PostProcessor, publisher Publisher) *Controller {
	return &Controller{
		logger:      logger,
		provisioner: provisioner,
		builder:     builder,
		post:        post,
		publisher:   publisher,
	}
}

// indexed pairs a result with its position so parallel completions can be
// reported back in matrix order.
type indexed struct {
	pos    int
	result Result
}

// Run executes every target's pipeline in parallel and returns one result
// per target, in the given order. A target's failure never affects its
// siblings; Run returns only once every target reached a terminal state.
func (c *Controller) Run(ctx context.Context, channel string, targets []pipeline.Target) []Result {
	results := make([]Result, len(targets))
	done := make(chan indexed, len(targets))

	for i, target := range targets {
		go func(pos int, target pipeline.Target) {
			done <- indexed{pos: pos, result: c.runTarget(ctx, channel, target)}
		}(i, target)
	}

	for range targets {
		r := <-done
		results[r.pos] = r.result
	}
	return results
}

// Succeeded reports whether every target in the run succeeded.
func Succeeded(results []Result) bool {
	for _, r := range results {
		if r.Status.Failed() {
			return false
		}
	}
	return true
}

// step is one entry of the pipeline sequence: the state it occupies, the
// failure kind it maps to, and the work itself.
type step struct {
	state State
	kind  model.Status
	run   func(ctx context.Context) error
}

// runTarget drives one target through the sequential state machine. A step
// failure aborts the remaining steps for this target only.
func (c *Controller) runTarget(ctx context.Context, channel string, target pipeline.Target) Result {
	startTime := time.Now()
	logger := c.logger.With().Str("target", string(target.OS)).Logger()

	result := Result{Target: target, Status: model.StatusSuccess}

	steps := []step{
		{
			state: StateProvisioning,
			kind:  model.StatusToolchainFailure,
			run: func(ctx context.Context) error {
				return c.provisioner.Provision(ctx, channel)
			},
		},
		{
			state: StateBuilding,
			kind:  model.StatusBuildFailure,
			run: func(ctx context.Context) error {
				return c.builder.Build(ctx, target)
			},
		},
		{
			state: StatePostProcessing,
			kind:  model.StatusStripFailure,
			run: func(ctx context.Context) error {
				return c.post.Process(ctx, target)
			},
		},
		{
			state: StatePublishing,
			kind:  model.StatusPublishFailure,
			run: func(ctx context.Context) error {
				location, err := c.publisher.Publish(ctx, target.ArtifactName, target.OutputPath)
				if err != nil {
					return err
				}
				result.Location = &location
				return nil
			},
		},
	}

	state := StatePending
	for _, s := range steps {
		// Cancellation granularity is "do not start the next step"; an
		// in-flight step always runs to completion or failure.
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Str("state", s.state.String()).Msg("Abandoning target before step")
			return c.fail(logger, result, s.kind, err, startTime)
		}

		state = s.state
		logger.Debug().Str("state", state.String()).Msg("Entering pipeline state")

		if err := s.run(ctx); err != nil {
			logger.Error().Err(err).Str("state", state.String()).Msg("Pipeline step failed")
			return c.fail(logger, result, s.kind, err, startTime)
		}
	}

	result.Final = StateSucceeded
	result.Duration = time.Since(startTime)
	logger.Info().
		Str("state", result.Final.String()).
		Str("artifact", target.ArtifactName).
		Dur("duration", result.Duration).
		Msg("Target pipeline succeeded")
	return result
}

// fail moves a target into the terminal failure state.
func (c *Controller) fail(logger zerolog.Logger, result Result, kind model.Status, err error, startTime time.Time) Result {
	result.Final = StateFailed
	result.Status = kind
	result.Err = err
	result.Duration = time.Since(startTime)
	logger.Debug().Str("state", result.Final.String()).Str("status", string(kind)).Msg("Entering pipeline state")
	return result
}
