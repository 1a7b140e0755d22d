package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"assetflow/internal/domain"
	"assetflow/internal/service/jobs"
)

func newJobsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Follow long-running server jobs",
	}
	cmd.AddCommand(newJobsWatchCmd(s))
	return cmd
}

func newJobsWatchCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Poll a deduplication job until it ends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			progress := newProgressPrinter(cmd.ErrOrStderr())
			var onProgress jobs.ProgressFunc
			if getOutputFormat(cmd) != "json" {
				onProgress = progress.Update
			}
			res, err := a.Discovery.WatchJob(cmd.Context(), args[0], onProgress)
			progress.Done()
			return printJobResult(cmd, res, err)
		},
	}
}

// printJobResult reports the end of a poll loop. A timeout is reported as
// such and does not fail the command; the job may still finish server-side.
func printJobResult(cmd *cobra.Command, res *domain.JobResult, err error) error {
	var timeout *domain.JobTimeoutError
	timedOut := errors.As(err, &timeout)
	if err != nil && !timedOut {
		return err
	}
	if res == nil {
		return err
	}

	if getOutputFormat(cmd) == "json" {
		return PrintJSON(cmd.OutOrStdout(), toJobView(res))
	}
	out := cmd.OutOrStdout()
	if timedOut {
		_, _ = fmt.Fprintf(out, "Stopped polling job %s after %d attempts; it may still be running\n", res.JobID, res.Attempts)
		return nil
	}
	_, _ = fmt.Fprintf(out, "Job %s completed: %d processed, %d hidden\n", res.JobID, res.Last.ProcessedCount, res.Last.HiddenCount)
	return nil
}
