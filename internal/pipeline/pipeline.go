package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default retry budget applied to fallible steps, matching the demo flows:
// two retries with a fixed five-second delay.
const (
	DefaultRetries    = 2
	DefaultRetryDelay = 5 * time.Second
)

// Step is one unit of a linear pipeline. Retries is the number of extra
// attempts after the first; zero means fail-fast.
type Step struct {
	Name       string
	Retries    int
	RetryDelay time.Duration
	Run        func(ctx context.Context) error
}

// Retried wraps fn in a step with the default retry budget.
func Retried(name string, fn func(ctx context.Context) error) Step {
	return Step{Name: name, Retries: DefaultRetries, RetryDelay: DefaultRetryDelay, Run: fn}
}

// Once wraps fn in a step with no retries.
func Once(name string, fn func(ctx context.Context) error) Step {
	return Step{Name: name, Run: fn}
}

// Pipeline executes steps strictly in order. The first step whose attempts
// are exhausted fails the run.
type Pipeline struct {
	Name  string
	RunID string

	steps []Step
	log   *zap.SugaredLogger
}

func New(name string, log *zap.SugaredLogger) *Pipeline {
	runID := uuid.NewString()
	return &Pipeline{
		Name:  name,
		RunID: runID,
		log:   log.With("pipeline", name, "run_id", runID),
	}
}

func (p *Pipeline) Add(steps ...Step) *Pipeline {
	p.steps = append(p.steps, steps...)
	return p
}

// Run executes the pipeline. Context cancellation aborts between attempts
// and between steps.
func (p *Pipeline) Run(ctx context.Context) error {
	p.log.Infow("pipeline started", "steps", len(p.steps))
	start := time.Now()

	for _, step := range p.steps {
		if err := p.runStep(ctx, step); err != nil {
			p.log.Errorw("pipeline failed", "step", step.Name, "error", err)
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
	}

	p.log.Infow("pipeline completed", "duration", time.Since(start))
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step) error {
	attempts := step.Retries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		if err = step.Run(ctx); err == nil {
			p.log.Infow("step completed", "step", step.Name, "duration", time.Since(start))
			return nil
		}
		p.log.Warnw("step attempt failed",
			"step", step.Name,
			"attempt", attempt,
			"attempts", attempts,
			"error", err,
		)

		if attempt < attempts && step.RetryDelay > 0 {
			select {
			case <-time.After(step.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}
