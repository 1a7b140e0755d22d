package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"assetflow/internal/domain"
)

func newAssetsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "List, inspect and govern discovered assets",
	}
	cmd.AddCommand(newAssetsListCmd(s))
	cmd.AddCommand(newAssetsShowCmd(s))
	cmd.AddCommand(newAssetsApproveCmd(s))
	cmd.AddCommand(newAssetsRejectCmd(s))
	cmd.AddCommand(newAssetsReasonsCmd())
	cmd.AddCommand(newAssetsPublishCmd(s))
	cmd.AddCommand(newAssetsUpdateCmd(s))
	return cmd
}

func newAssetsListCmd(s *session) *cobra.Command {
	var (
		search, types, catalogs, statuses, apps []string
		page                                    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets matching the filters",
		Example: `  # Pending tables of the billing application
  assetflow assets list --type table --status pending --app billing

  # Second page, 50 per page
  assetflow assets list --page 2 --page-size 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be >= 1")
			}
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			filters := domain.FilterSet{
				Search:           search,
				Types:            types,
				Catalogs:         catalogs,
				ApplicationNames: apps,
			}
			for _, st := range statuses {
				filters.ApprovalStatuses = append(filters.ApprovalStatuses, domain.ApprovalStatus(st))
			}

			if err := a.Pages.SetPosition(filters, page-1, s.cfg.PageSize); err != nil {
				return err
			}
			res, err := a.Pages.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			state := a.Pages.State()
			assets := a.Cache.Page()

			if getOutputFormat(cmd) == "json" {
				views := make([]assetView, 0, len(assets))
				for i := range assets {
					v := toAssetView(&assets[i])
					v.Columns = nil
					views = append(views, v)
				}
				return PrintJSON(cmd.OutOrStdout(), map[string]interface{}{
					"assets":      views,
					"page":        state.Page + 1,
					"page_size":   state.PageSize,
					"total":       res.Total,
					"total_pages": res.TotalPages,
				})
			}

			rows := make([][]string, 0, len(assets))
			for i := range assets {
				as := &assets[i]
				rows = append(rows, []string{
					as.ID, as.Name, as.Type, as.Catalog, stateLabel(as), as.OperationalMetadata.ApplicationName,
				})
			}
			PrintTable(cmd.OutOrStdout(), []string{"id", "name", "type", "catalog", "state", "application"}, rows)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d of %d (%d assets)\n", state.Page+1, max(res.TotalPages, 1), res.Total)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&search, "search", nil, "Free-text search terms")
	f.StringSliceVar(&types, "type", nil, "Asset types")
	f.StringSliceVar(&catalogs, "catalog", nil, "Catalogs")
	f.StringSliceVar(&statuses, "status", nil, "Approval statuses (pending, approved, rejected)")
	f.StringSliceVar(&apps, "app", nil, "Application names")
	f.IntVar(&page, "page", 1, "Page number (1-based)")
	return cmd
}

func newAssetsShowCmd(s *session) *cobra.Command {
	var allFields bool

	cmd := &cobra.Command{
		Use:   "show <asset-id>",
		Short: "Show an asset with its metadata and columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			asset, err := a.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer a.Close(asset.ID)

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), toAssetView(asset))
			}

			visible := domain.DefaultFieldVisibility()
			if !allFields {
				if pa, err := s.App(cmd.Context(), true); err == nil {
					if v, err := pa.Preferences.Load(cmd.Context()); err == nil {
						visible = v
					}
				} else {
					s.logger.Debug("preference store unavailable, using defaults", "error", err)
				}
			}

			fields := map[string]interface{}{"id": asset.ID, "state": stateLabel(asset)}
			for name, value := range assetFields(asset) {
				if allFields || visible[name] {
					fields[name] = value
				}
			}
			PrintDetail(cmd.OutOrStdout(), fields)

			if len(asset.Columns) > 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
				rows := make([][]string, 0, len(asset.Columns))
				for i := range asset.Columns {
					rows = append(rows, columnRow(toColumnView(&asset.Columns[i])))
				}
				PrintTable(cmd.OutOrStdout(), columnHeaders, rows)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&allFields, "all-fields", false, "Ignore the field visibility preference")
	return cmd
}

// printTransition renders the asset state after a lifecycle command. A
// partial failure still prints the committed state before returning the error.
func printTransition(cmd *cobra.Command, asset *domain.Asset, err error) error {
	var partial *domain.PartialFailureError
	if err != nil && !errors.As(err, &partial) {
		return err
	}
	if asset != nil {
		if getOutputFormat(cmd) == "json" {
			if perr := PrintJSON(cmd.OutOrStdout(), toAssetView(asset)); perr != nil {
				return perr
			}
		} else {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", asset.ID, stateLabel(asset))
		}
	}
	return err
}

func newAssetsApproveCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <asset-id>",
		Short: "Approve a pending asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			asset, err := a.Lifecycle.Approve(cmd.Context(), args[0])
			return printTransition(cmd, asset, err)
		},
	}
}

func newAssetsRejectCmd(s *session) *cobra.Command {
	var reason, text string

	cmd := &cobra.Command{
		Use:   "reject <asset-id>",
		Short: "Reject a pending asset with a coded reason",
		Example: `  assetflow assets reject a-123 --reason 003
  assetflow assets reject a-123 --reason other --text "Legacy export"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := domain.RejectRequest{ReasonCode: reason, OtherText: text}
			if err := req.Validate(); err != nil {
				return err
			}
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			asset, err := a.Lifecycle.Reject(cmd.Context(), args[0], req)
			return printTransition(cmd, asset, err)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Rejection reason code (see 'assets reasons')")
	cmd.Flags().StringVar(&text, "text", "", "Free-text reason, required with --reason other")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newAssetsReasonsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reasons",
		Short: "List rejection reason codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == "json" {
				out := make([]map[string]string, 0, len(domain.RejectionReasons))
				for _, r := range domain.RejectionReasons {
					out = append(out, map[string]string{"code": r.Code, "label": r.Label})
				}
				return PrintJSON(cmd.OutOrStdout(), out)
			}
			rows := make([][]string, 0, len(domain.RejectionReasons))
			for _, r := range domain.RejectionReasons {
				rows = append(rows, []string{r.Code, r.Label})
			}
			PrintTable(cmd.OutOrStdout(), []string{"code", "label"}, rows)
			return nil
		},
	}
}

func newAssetsPublishCmd(s *session) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "publish <asset-id>",
		Short: "Publish an approved asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			asset, err := a.Lifecycle.Publish(cmd.Context(), args[0], target)
			return printTransition(cmd, asset, err)
		},
	}
	cmd.Flags().StringVar(&target, "target", "catalog", "Publication target")
	return cmd
}

func newAssetsUpdateCmd(s *session) *cobra.Command {
	var (
		classification, sensitivity, description, department string
		tags                                                 []string
		custom                                               map[string]string
	)

	cmd := &cobra.Command{
		Use:   "update <asset-id>",
		Short: "Update business metadata of an asset",
		Example: `  assetflow assets update a-123 --classification confidential --custom retention=7y`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.BusinessDelta
			flags := cmd.Flags()
			setIfChanged := func(name string, v string, dst **string) {
				if flags.Changed(name) {
					val := v
					*dst = &val
				}
			}
			setIfChanged("classification", classification, &patch.Classification)
			setIfChanged("sensitivity", sensitivity, &patch.Sensitivity)
			setIfChanged("description", description, &patch.Description)
			setIfChanged("department", department, &patch.Department)
			if flags.Changed("tag") {
				patch.Tags = tags
			}
			if flags.Changed("custom") {
				patch.CustomColumns = custom
			}

			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			asset, err := a.Lifecycle.UpdateMetadata(cmd.Context(), args[0], patch)
			return printTransition(cmd, asset, err)
		},
	}

	f := cmd.Flags()
	f.StringVar(&classification, "classification", "", "Data classification")
	f.StringVar(&sensitivity, "sensitivity", "", "Sensitivity level")
	f.StringVar(&description, "description", "", "Description")
	f.StringVar(&department, "department", "", "Owning department")
	f.StringSliceVar(&tags, "tag", nil, "Replace the tag list")
	f.StringToStringVar(&custom, "custom", nil, "Custom column values (key=value)")
	return cmd
}

func parseBoolArg(s string) (bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected true or false, got %q", s)
	}
	return b, nil
}
