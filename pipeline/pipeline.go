// Package pipeline chains post-processing steps over encoded images and runs
// hooks around each of them.
package pipeline

import (
	"context"
	"time"

	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
)

// Pipeline executes a sequence of Steps with hook support.  An empty
// pipeline returns its input unchanged.  Failures are never retried.
type Pipeline struct {
	steps []core.Step
	hooks []core.Hook
}

// New returns an empty Pipeline.
func New() *Pipeline { return &Pipeline{} }

// Use appends a step to the pipeline.  Returns the same Pipeline for chaining.
func (p *Pipeline) Use(s ...core.Step) *Pipeline {
	p.steps = append(p.steps, s...)
	return p
}

// AddHook registers an observer.
func (p *Pipeline) AddHook(h core.Hook) *Pipeline {
	p.hooks = append(p.hooks, h)
	return p
}

// Len reports the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// Run executes the pipeline on img.  It returns the final image and a map
// of per-step timing observations.
func (p *Pipeline) Run(ctx context.Context, img *core.EncodedImage) (*core.EncodedImage, map[string]time.Duration, error) {
	timings := make(map[string]time.Duration, len(p.steps))
	current := img

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, timings, apperrors.Wrap(apperrors.CategoryPipeline, step.Name(), err)
		}

		p.callHooksBefore(ctx, step.Name(), current)
		start := time.Now()
		result, err := step.Execute(ctx, current)
		elapsed := time.Since(start)
		p.callHooksAfter(ctx, step.Name(), result, elapsed, err)

		timings[step.Name()] = elapsed
		if err != nil {
			return nil, timings, apperrors.Wrap(apperrors.CategoryPipeline, step.Name(), err)
		}
		if result == nil {
			return nil, timings, apperrors.New(apperrors.CategoryPipeline, step.Name(), apperrors.ErrEmptyInput)
		}
		current = result
	}
	return current, timings, nil
}

// OutputFormat folds the format changes of every step over in.
func (p *Pipeline) OutputFormat(in core.Format) core.Format {
	out := in
	for _, step := range p.steps {
		if fc, ok := step.(core.FormatChanger); ok {
			out = fc.OutputFormat(out)
		}
	}
	return out
}

func (p *Pipeline) callHooksBefore(ctx context.Context, name string, img *core.EncodedImage) {
	for _, h := range p.hooks {
		h.BeforeStep(ctx, name, img)
	}
}

func (p *Pipeline) callHooksAfter(ctx context.Context, name string, img *core.EncodedImage, d time.Duration, err error) {
	for _, h := range p.hooks {
		h.AfterStep(ctx, name, img, d, err)
	}
}

// Clone returns a shallow copy of the pipeline so templates can be reused
// safely across plots.
func (p *Pipeline) Clone() *Pipeline {
	cp := &Pipeline{
		steps: make([]core.Step, len(p.steps)),
		hooks: make([]core.Hook, len(p.hooks)),
	}
	copy(cp.steps, p.steps)
	copy(cp.hooks, p.hooks)
	return cp
}

// StepFunc adapts a function to core.Step.
type StepFunc struct {
	StepName string
	Fn       func(ctx context.Context, img *core.EncodedImage) (*core.EncodedImage, error)
}

func (s StepFunc) Name() string { return s.StepName }

func (s StepFunc) Execute(ctx context.Context, img *core.EncodedImage) (*core.EncodedImage, error) {
	return s.Fn(ctx, img)
}
