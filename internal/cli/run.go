package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/runner"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Env         string
	Verbose     bool
	JSON        bool
	StopOnError bool
}

// NewRunCommand creates the run command.
func NewRunCommand(s *session) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run COLLECTION",
		Short: "Run all requests in a collection",
		Long: `Send every request of a saved collection in order and display results.
Each response is recorded in history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollection(cmd, s, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Env, "env", "e", "", "Environment to resolve variables with for this run")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed output for each request")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.StopOnError, "bail", false, "Stop at the first failed request")

	return cmd
}

func runCollection(cmd *cobra.Command, s *session, ref string, opts *RunOptions) error {
	collection, err := s.app.FindCollection(ref)
	if err != nil {
		return err
	}

	if opts.Env != "" {
		prev := s.app.State().ActiveEnvironment
		if err := s.app.SetActiveEnvironment(opts.Env); err != nil {
			return err
		}
		defer func() {
			if prev == nil {
				_ = s.app.SetActiveEnvironment("")
			} else {
				_ = s.app.SetActiveEnvironment(prev.ID)
			}
		}()
		if !opts.JSON {
			fmt.Fprintf(cmd.ErrOrStderr(), "Using environment: %s\n", opts.Env)
		}
	}

	send := func(ctx context.Context, req core.RequestConfig) (core.Response, error) {
		return sendRequest(ctx, cmd.ErrOrStderr(), s.app, req, "")
	}

	out := cmd.OutOrStdout()
	runnerOpts := []runner.Option{runner.WithStopOnFailure(opts.StopOnError)}
	if opts.Verbose && !opts.JSON {
		runnerOpts = append(runnerOpts, runner.WithProgressCallback(func(current, total int, result *runner.RunResult) {
			printRunResult(out, *result)
		}))
	}

	r := runner.NewRunner(collection, send, runnerOpts...)

	if !opts.JSON {
		fmt.Fprintf(out, "Running collection: %s\n", collection.Name)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	summary := r.Run(ctx)

	if opts.JSON {
		if err := outputRunResultsJSON(cmd, summary); err != nil {
			return err
		}
	} else {
		outputRunResultsHuman(cmd, summary, opts.Verbose)
	}

	if !summary.IsSuccess() {
		return fmt.Errorf("%d of %d requests failed", summary.Failed, summary.TotalRequests)
	}
	return nil
}

func printRunResult(out io.Writer, r runner.RunResult) {
	if r.IsSuccess() {
		successColor.Fprint(out, "✓ ")
	} else {
		clientErrColor.Fprint(out, "✗ ")
	}
	methodColor.Fprintf(out, "%s ", r.Method)
	fmt.Fprintf(out, "%s ", sanitize(r.RequestName))

	switch {
	case r.Error != nil:
		clientErrColor.Fprintf(out, "%s ", sanitize(r.Error.Error()))
	default:
		statusColor(r.Status).Fprintf(out, "%d ", r.Status)
	}
	dimColor.Fprintf(out, "(%dms)\n", r.Duration.Milliseconds())
}

type runResultJSON struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Method     core.Method `json:"method"`
	URL        string      `json:"url"`
	Status     int         `json:"status"`
	StatusText string      `json:"status_text"`
	DurationMS int64       `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
}

type runSummaryJSON struct {
	Collection    string          `json:"collection"`
	TotalRequests int             `json:"total_requests"`
	Executed      int             `json:"executed"`
	Passed        int             `json:"passed"`
	Failed        int             `json:"failed"`
	Skipped       int             `json:"skipped"`
	TotalDuration int64           `json:"total_duration"`
	Results       []runResultJSON `json:"results"`
}

func outputRunResultsJSON(cmd *cobra.Command, summary *runner.RunSummary) error {
	results := make([]runResultJSON, 0, len(summary.Results))
	for _, r := range summary.Results {
		result := runResultJSON{
			ID:         r.RequestID,
			Name:       r.RequestName,
			Method:     r.Method,
			URL:        r.URL,
			Status:     r.Status,
			StatusText: r.StatusText,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Error != nil {
			result.Error = r.Error.Error()
		}
		results = append(results, result)
	}

	return printJSON(cmd.OutOrStdout(), runSummaryJSON{
		Collection:    summary.CollectionName,
		TotalRequests: summary.TotalRequests,
		Executed:      summary.Executed,
		Passed:        summary.Passed,
		Failed:        summary.Failed,
		Skipped:       summary.Skipped(),
		TotalDuration: summary.TotalDuration.Milliseconds(),
		Results:       results,
	})
}

func outputRunResultsHuman(cmd *cobra.Command, summary *runner.RunSummary, verbose bool) {
	out := cmd.OutOrStdout()

	// Verbose output already printed each result as it finished
	if !verbose {
		for _, r := range summary.Results {
			printRunResult(out, r)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Summary:\n")
	fmt.Fprintf(out, "  Requests: %d/%d passed\n", summary.Passed, summary.TotalRequests)
	if skipped := summary.Skipped(); skipped > 0 {
		fmt.Fprintf(out, "  Skipped: %d\n", skipped)
	}
	fmt.Fprintf(out, "  Total time: %s\n", formatDuration(summary.TotalDuration))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
