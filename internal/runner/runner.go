// Package runner sends every request of a collection in order and
// summarizes the outcome.
package runner

import (
	"context"
	"time"

	"github.com/artpar/postbox/internal/core"
)

// SendFunc executes one request.
type SendFunc func(ctx context.Context, req core.RequestConfig) (core.Response, error)

// RunResult represents the result of a single request execution.
type RunResult struct {
	RequestID   string
	RequestName string
	Method      core.Method
	URL         string
	Status      int
	StatusText  string
	Duration    time.Duration
	Error       error
}

// RunSummary represents the summary of a collection run.
type RunSummary struct {
	CollectionName string
	TotalRequests  int
	Executed       int
	Passed         int
	Failed         int
	TotalDuration  time.Duration
	Results        []RunResult
	StartTime      time.Time
	EndTime        time.Time
}

// ProgressCallback is called after each request is executed.
type ProgressCallback func(current int, total int, result *RunResult)

// Runner executes all requests in a collection.
type Runner struct {
	collection    core.Collection
	send          SendFunc
	onProgress    ProgressCallback
	stopOnFailure bool
}

// Option configures the Runner.
type Option func(*Runner)

// WithProgressCallback sets a callback for progress updates.
func WithProgressCallback(cb ProgressCallback) Option {
	return func(r *Runner) {
		r.onProgress = cb
	}
}

// WithStopOnFailure ends the run at the first failed request.
func WithStopOnFailure(stop bool) Option {
	return func(r *Runner) {
		r.stopOnFailure = stop
	}
}

// NewRunner creates a new collection runner.
func NewRunner(collection core.Collection, send SendFunc, opts ...Option) *Runner {
	r := &Runner{
		collection: collection,
		send:       send,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Requests lists the collection's requests in run order: top-level requests
// first, then each folder's.
func Requests(coll core.Collection) []core.RequestConfig {
	requests := append([]core.RequestConfig{}, coll.Requests...)
	for _, folder := range coll.Folders {
		requests = append(requests, folder.Requests...)
	}
	return requests
}

// Run executes all requests in the collection sequentially.
func (r *Runner) Run(ctx context.Context) *RunSummary {
	summary := &RunSummary{
		CollectionName: r.collection.Name,
		StartTime:      time.Now(),
		Results:        make([]RunResult, 0),
	}

	requests := Requests(r.collection)
	summary.TotalRequests = len(requests)

	for i, req := range requests {
		if ctx.Err() != nil {
			break
		}

		result := r.executeRequest(ctx, req)
		summary.Results = append(summary.Results, result)
		summary.Executed++

		if result.IsSuccess() {
			summary.Passed++
		} else {
			summary.Failed++
		}

		if r.onProgress != nil {
			r.onProgress(i+1, len(requests), &result)
		}

		if r.stopOnFailure && !result.IsSuccess() {
			break
		}
	}

	summary.EndTime = time.Now()
	summary.TotalDuration = summary.EndTime.Sub(summary.StartTime)

	return summary
}

func (r *Runner) executeRequest(ctx context.Context, req core.RequestConfig) RunResult {
	result := RunResult{
		RequestID:   req.ID,
		RequestName: req.Name,
		Method:      req.Method,
		URL:         req.URL,
	}

	startTime := time.Now()
	resp, err := r.send(ctx, req)
	result.Duration = time.Since(startTime)
	result.Status = resp.Status
	result.StatusText = resp.StatusText
	result.Error = err
	return result
}

// IsSuccess reports whether the request completed with a non-error status.
func (r *RunResult) IsSuccess() bool {
	return r.Error == nil && r.Status > 0 && r.Status < 400
}

// IsSuccess returns true if all executed requests passed.
func (s *RunSummary) IsSuccess() bool {
	return s.Failed == 0
}

// Skipped is the number of requests not executed.
func (s *RunSummary) Skipped() int {
	return s.TotalRequests - s.Executed
}
