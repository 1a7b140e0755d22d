package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newDiscoverCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Run discovery on data source connections",
	}
	cmd.AddCommand(newDiscoverConnectionsCmd(s))
	cmd.AddCommand(newDiscoverRunCmd(s))
	cmd.AddCommand(newDiscoverProgressCmd(s))
	cmd.AddCommand(newDiscoverScheduleCmd(s))
	return cmd
}

func newDiscoverConnectionsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "connections",
		Short: "List data source connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			conns, err := a.Discovery.Connections(cmd.Context())
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				out := make([]map[string]string, 0, len(conns))
				for _, c := range conns {
					out = append(out, map[string]string{"id": c.ID, "name": c.Name, "type": c.Type, "status": c.Status})
				}
				return PrintJSON(cmd.OutOrStdout(), out)
			}
			rows := make([][]string, 0, len(conns))
			for _, c := range conns {
				rows = append(rows, []string{c.ID, c.Name, c.Type, c.Status})
			}
			PrintTable(cmd.OutOrStdout(), []string{"id", "name", "type", "status"}, rows)
			return nil
		},
	}
}

func newDiscoverRunCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "run [connection-id...]",
		Short: "Trigger discovery on connections (all when none are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			runs, err := a.Discovery.TriggerAll(cmd.Context(), args)
			if err != nil {
				return err
			}

			failed := 0
			type runView struct {
				ConnectionID string `json:"connection_id"`
				Status       string `json:"status"`
				Error        string `json:"error,omitempty"`
			}
			views := make([]runView, 0, len(runs))
			for _, r := range runs {
				v := runView{ConnectionID: r.ConnectionID, Status: r.Status}
				if r.Err != nil {
					v.Error = r.Err.Error()
					failed++
				}
				views = append(views, v)
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), views)
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.ConnectionID, v.Status, v.Error})
			}
			PrintTable(cmd.OutOrStdout(), []string{"connection", "status", "error"}, rows)
			if failed > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d connections failed\n", failed, len(runs))
			}
			return nil
		},
	}
}

func newDiscoverProgressCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <connection-id>",
		Short: "Show discovery progress of a connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			p, err := a.Discovery.Progress(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), map[string]interface{}{
					"connection_id":    p.ConnectionID,
					"status":           p.Status,
					"progress_percent": p.ProgressPercent,
					"discovered":       p.Discovered,
					"message":          p.Message,
				})
			}
			PrintDetail(cmd.OutOrStdout(), map[string]interface{}{
				"connection": p.ConnectionID,
				"status":     p.Status,
				"progress":   fmt.Sprintf("%.1f%%", p.ProgressPercent),
				"discovered": p.Discovered,
				"message":    p.Message,
			})
			return nil
		},
	}
}

func newDiscoverScheduleCmd(s *session) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "schedule [connection-id...]",
		Short: "Trigger discovery on a cron schedule until interrupted",
		Example: `  assetflow discover schedule --cron "0 */6 * * *"
  ASSETFLOW_DISCOVERY_SCHEDULE=@hourly assetflow discover schedule conn-1 conn-2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("cron") {
				schedule = s.cfg.DiscoverySchedule
			}
			if schedule == "" {
				return fmt.Errorf("--cron or ASSETFLOW_DISCOVERY_SCHEDULE is required")
			}
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := a.Scheduler.Add(schedule, args...); err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.Scheduler.Start()
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Discovery scheduled (%s); press Ctrl-C to stop\n", schedule)
			<-ctx.Done()
			a.Scheduler.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&schedule, "cron", "", "Cron schedule, e.g. \"0 */6 * * *\" or @hourly")
	return cmd
}
