// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow provides a generic composable pipeline engine: ordered
// steps threading one shared mutable state through a run. Pipelines nest,
// steps fail independently, and the engine itself never retries — retry
// policy belongs to callers.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/review-engine/pkg/logger"
)

// State is the shared mutable dictionary threaded through a pipeline run.
// Any step may read or write any key; nothing is deleted implicitly. A State
// is scoped to one run and must not be mutated concurrently.
type State map[string]any

// NewState returns an empty State, optionally seeded from init maps.
func NewState(init ...map[string]any) State {
	st := State{}
	for _, m := range init {
		for k, v := range m {
			st[k] = v
		}
	}
	return st
}

// Value returns the raw value for key and whether it was present.
func (s State) Value(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// String returns the string value for key. The ok result is false when the
// key is absent or holds a non-string.
func (s State) String(key string) (string, bool) {
	v, ok := s[key].(string)
	return v, ok
}

// Strings returns the []string value for key.
func (s State) Strings(key string) ([]string, bool) {
	v, ok := s[key].([]string)
	return v, ok
}

// Set stores value under key.
func (s State) Set(key string, value any) {
	s[key] = value
}

// Delete removes key. Steps that need to clear a key do so explicitly.
func (s State) Delete(key string) {
	delete(s, key)
}

// Step is one unit of pipeline work. Run reads and writes the shared State;
// a non-nil error aborts the enclosing pipeline run.
type Step interface {
	Name() string
	Run(ctx context.Context, st State) error
}

// StepFailure reports a failed step together with the pipeline it ran in and
// the partially populated state at the time of failure, for diagnostics.
type StepFailure struct {
	Pipeline string
	Step     string
	State    State
	Err      error
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("pipeline %s: step %s: %v", e.Pipeline, e.Step, e.Err)
}

func (e *StepFailure) Unwrap() error {
	return e.Err
}

// StepFunc adapts a plain function into a Step.
type StepFunc struct {
	StepName string
	Fn       func(ctx context.Context, st State) error
}

// Name returns the step name.
func (s StepFunc) Name() string { return s.StepName }

// Run invokes the wrapped function.
func (s StepFunc) Run(ctx context.Context, st State) error { return s.Fn(ctx, st) }

// Pipeline is a named ordered sequence of steps. A Pipeline is itself a
// Step, so pipelines compose hierarchically.
type Pipeline struct {
	name  string
	steps []Step
	log   logger.Logger
}

// NewPipeline builds a pipeline over the given steps. A nil log discards
// per-step records.
func NewPipeline(name string, log logger.Logger, steps ...Step) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{name: name, steps: steps, log: log}
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Run executes the steps in order against st. The first failing step wraps
// into a *StepFailure carrying the pipeline name, step name, and the state
// as populated so far; remaining steps are skipped. Step execution is
// logged (name, duration, outcome) — the engine's only side effect.
func (p *Pipeline) Run(ctx context.Context, st State) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return &StepFailure{Pipeline: p.name, Step: step.Name(), State: st, Err: err}
		}

		start := time.Now()
		err := step.Run(ctx, st)
		elapsed := time.Since(start)

		if err != nil {
			p.log.Error("step failed", "pipeline", p.name, "step", step.Name(),
				"duration", elapsed, "error", err)
			// Nested pipeline failures already carry their own context.
			if inner, ok := err.(*StepFailure); ok {
				return inner
			}
			return &StepFailure{Pipeline: p.name, Step: step.Name(), State: st, Err: err}
		}

		p.log.Debug("step ok", "pipeline", p.name, "step", step.Name(),
			"duration", elapsed)
	}
	return nil
}
