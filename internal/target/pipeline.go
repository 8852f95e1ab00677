// Package target turns a deployment model into build artifacts: a compose
// folder ready for docker compose, or a build folder plus container images.
package target

import (
	"context"

	"github.com/cameronsjo/gantry/internal/deploy"
)

// Stage is one step of a target pipeline.
type Stage interface {
	Run(ctx context.Context, m *deploy.Model) error
}

// StageFunc adapts a function to the Stage interface.
type StageFunc func(ctx context.Context, m *deploy.Model) error

// Run implements Stage.
func (f StageFunc) Run(ctx context.Context, m *deploy.Model) error {
	return f(ctx, m)
}

// Pipeline runs stages in order and stops at the first failure.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline with the given initial stages.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: append([]Stage(nil), stages...)}
}

// Add appends a stage to the end of the pipeline.
func (p *Pipeline) Add(s Stage) {
	p.stages = append(p.stages, s)
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Run executes every stage against m.
func (p *Pipeline) Run(ctx context.Context, m *deploy.Model) error {
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Run(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Target builds a deployment model.
type Target interface {
	Build(ctx context.Context, m *deploy.Model) error
}
