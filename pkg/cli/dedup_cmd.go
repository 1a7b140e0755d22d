package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"assetflow/internal/service/jobs"
)

func newDedupCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Deduplicate discoveries and manage hidden duplicates",
	}
	cmd.AddCommand(newDedupRunCmd(s))
	cmd.AddCommand(newDedupHiddenCmd(s))
	cmd.AddCommand(newDedupRestoreCmd(s))
	return cmd
}

func newDedupRunCmd(s *session) *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Hide duplicate discoveries",
		Long:  "Ask the server to deduplicate discoveries. Large runs are accepted as a job whose progress is followed until it ends.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			jsonOut := getOutputFormat(cmd) == "json"
			progress := newProgressPrinter(cmd.ErrOrStderr())
			var onProgress jobs.ProgressFunc
			if !jsonOut && !noWait {
				onProgress = progress.Update
			}

			res, err := a.Discovery.Deduplicate(cmd.Context(), onProgress)
			if err != nil {
				return err
			}
			if !res.IsAsync() {
				if jsonOut {
					return PrintJSON(cmd.OutOrStdout(), map[string]interface{}{"hidden": res.Hidden})
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Hidden %d duplicate discoveries\n", res.Hidden)
				return nil
			}

			if noWait {
				a.Jobs.Cancel(res.JobID)
				if jsonOut {
					return PrintJSON(cmd.OutOrStdout(), map[string]interface{}{
						"job_id":            res.JobID,
						"status":            string(res.Status),
						"total_discoveries": res.TotalDiscoveries,
					})
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deduplication job %s accepted (%d discoveries); follow it with 'assetflow jobs watch %s'\n",
					res.JobID, res.TotalDiscoveries, res.JobID)
				return nil
			}

			result, err := a.Discovery.WaitJob(cmd.Context(), res.JobID)
			progress.Done()
			return printJobResult(cmd, result, err)
		},
	}
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return once the job is accepted")
	return cmd
}

func newDedupHiddenCmd(s *session) *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "hidden",
		Short: "List discoveries hidden as duplicates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			res, err := a.Discovery.ListHidden(cmd.Context(), page, perPage)
			if err != nil {
				return err
			}
			views := make([]discoveryView, 0, len(res.Discoveries))
			for i := range res.Discoveries {
				views = append(views, toDiscoveryView(&res.Discoveries[i]))
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), map[string]interface{}{
					"discoveries": views,
					"total":       res.Total,
					"total_pages": res.TotalPages,
				})
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.ID, v.Name, v.ConnectionID, v.DuplicateOf, v.DiscoveredAt})
			}
			PrintTable(cmd.OutOrStdout(), []string{"id", "name", "connection", "duplicate_of", "discovered_at"}, rows)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%s hidden discoveries\n", strconv.FormatInt(res.Total, 10))
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&perPage, "per-page", 25, "Discoveries per page")
	return cmd
}

func newDedupRestoreCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <discovery-id>",
		Short: "Unhide a discovery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := a.Discovery.Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), map[string]string{"status": "restored", "discovery_id": args[0]})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Discovery %s restored\n", args[0])
			return nil
		},
	}
}
