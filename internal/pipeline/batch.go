package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ironsheep/coloc-tools-mcp/internal/imaging"
)

// FieldError records the failure of one field. Other fields are unaffected.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// BatchResult collects the outcome of a batch.
type BatchResult struct {
	// Results holds successful fields in input order.
	Results []*FieldResult

	// Errors holds failed fields in input order.
	Errors []*FieldError

	// Skipped counts fields never started because the context was
	// cancelled.
	Skipped int
}

// Runner analyzes many fields with a bounded number of workers.
type Runner struct {
	Params  Params
	Workers int
	Logger  *slog.Logger

	// Analyze replaces AnalyzeField; tests use it to avoid files.
	Analyze func(FieldInputs, Params) (*FieldResult, error)

	// OnResult, when set, is called for each finished field from the
	// worker that produced it. It must be safe for concurrent use.
	OnResult func(*FieldResult)
}

// Run analyzes fields and returns once every started field has finished.
//
// A field's error is recorded and the batch continues. When ctx is
// cancelled no new field is started; Run then returns the partial result
// together with ctx.Err().
func (r *Runner) Run(ctx context.Context, fields []FieldInputs) (*BatchResult, error) {
	if err := r.Params.Validate(); err != nil {
		return nil, err
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	analyze := r.Analyze
	if analyze == nil {
		analyze = func(in FieldInputs, p Params) (*FieldResult, error) {
			// Each field gets its own cache so memory is released per field.
			return NewAnalyzer(imaging.NewImageCache(), p).Analyze(in)
		}
	}
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(fields) {
		workers = len(fields)
	}

	results := make([]*FieldResult, len(fields))
	errs := make([]*FieldError, len(fields))
	started := make([]bool, len(fields))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				in := fields[i]
				start := time.Now()
				res, err := analyze(in, r.Params)
				if err != nil {
					logger.Warn("field failed", "field", in.Name, "error", err)
					errs[i] = &FieldError{Field: in.Name, Err: err}
					continue
				}
				logger.Debug("field analyzed",
					"field", in.Name,
					"colocalized", res.Colocalized,
					"enriched", len(res.Enriched),
					"elapsed", time.Since(start))
				for _, warning := range res.Warnings {
					logger.Info("field warning", "field", in.Name, "warning", warning)
				}
				results[i] = res
				if r.OnResult != nil {
					r.OnResult(res)
				}
			}
		}()
	}

dispatch:
	for i := range fields {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
			started[i] = true
		}
	}
	close(jobs)
	wg.Wait()

	batch := &BatchResult{}
	for i := range fields {
		switch {
		case !started[i]:
			batch.Skipped++
		case errs[i] != nil:
			batch.Errors = append(batch.Errors, errs[i])
		case results[i] != nil:
			batch.Results = append(batch.Results, results[i])
		}
	}

	logger.Info("batch complete",
		"fields", len(fields),
		"analyzed", len(batch.Results),
		"failed", len(batch.Errors),
		"skipped", batch.Skipped)

	if batch.Skipped > 0 {
		return batch, ctx.Err()
	}
	return batch, nil
}
