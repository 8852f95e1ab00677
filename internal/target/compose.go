package target

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cameronsjo/gantry/internal/compose"
	"github.com/cameronsjo/gantry/internal/deploy"
	"github.com/cameronsjo/gantry/internal/lock"
	"github.com/cameronsjo/gantry/internal/ui"
)

// Verifier checks a written compose file, e.g. with docker compose config.
type Verifier func(ctx context.Context, composeFile string) error

// ComposeTarget writes a service group as a compose folder: the compose
// file, the rendered router config, and every service's resources.
type ComposeTarget struct {
	output   string
	verify   Verifier
	pipeline *Pipeline
}

// ComposeOption configures a ComposeTarget.
type ComposeOption func(*ComposeTarget)

// WithVerifier checks the compose file once it is written.
func WithVerifier(v Verifier) ComposeOption {
	return func(t *ComposeTarget) {
		t.verify = v
	}
}

// NewComposeTarget creates a target writing into output. An existing output
// folder is refused unless overwrite is set, in which case it is snapshotted
// first.
func NewComposeTarget(output string, overwrite bool, opts ...ComposeOption) *ComposeTarget {
	t := &ComposeTarget{output: output}
	for _, opt := range opts {
		opt(t)
	}

	t.pipeline = NewPipeline()
	if overwrite {
		t.pipeline.Add(SnapshotOutput{Path: output})
	}
	t.pipeline.Add(CreateFolder{Path: output, Overwrite: overwrite})
	t.pipeline.Add(WriteRouterConfig{Path: output})
	t.pipeline.Add(CopyResources{Path: output})
	t.pipeline.Add(WriteCompose{Path: output})
	if t.verify != nil {
		t.pipeline.Add(StageFunc(func(ctx context.Context, _ *deploy.Model) error {
			return t.verify(ctx, filepath.Join(t.output, compose.FileName))
		}))
	}
	return t
}

// Build implements Target.
func (t *ComposeTarget) Build(ctx context.Context, m *deploy.Model) error {
	abs, err := filepath.Abs(t.output)
	if err != nil {
		return fmt.Errorf("resolve output folder: %w", err)
	}

	ui.Info("Writing %s to %s", m.Name, t.output)
	err = lock.WithLock(filepath.Dir(abs), filepath.Base(abs), func() error {
		return t.pipeline.Run(ctx, m)
	})
	if err != nil {
		return fmt.Errorf("build compose target: %w", err)
	}

	ui.Success("Compose folder ready: %s", t.output)
	return nil
}
