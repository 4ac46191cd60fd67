package pipeline

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/doublediamond/pkg/config"
)

// Job is one diagram of a batch.
type Job struct {
	Name   string
	Config config.Config
}

// BatchResult is the outcome of one job. Exactly one of Result and Err is set.
type BatchResult struct {
	Job    Job
	Result *Result
	Err    error
}

// Batch generates every job with at most limit running at once and returns
// the outcomes in job order. A failing job does not stop the others; only
// cancellation of ctx aborts the batch.
func (r *Runner) Batch(ctx context.Context, jobs []Job, opts Options, limit int) ([]BatchResult, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(jobs))
	var finished atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			jobOpts := opts
			jobOpts.Logger = opts.Logger.With("job", job.Name)
			res, err := r.Generate(gctx, job.Config, jobOpts)
			results[i] = BatchResult{Job: job, Result: res, Err: err}
			if err != nil && gctx.Err() == nil {
				jobOpts.Logger.Error("generation failed", "error", err)
			}
			if opts.Progress != nil {
				opts.Progress(int(finished.Add(1)), len(jobs))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
