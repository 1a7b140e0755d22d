package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"assetflow/internal/domain"
)

func newPIICmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pii",
		Short: "Inspect and edit column PII classification and masking",
	}
	cmd.AddCommand(newPIIShowCmd(s))
	cmd.AddCommand(newPIISetCmd(s))
	cmd.AddCommand(newPIITypesCmd(s))
	return cmd
}

func newPIIShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <asset-id>",
		Short: "Show the PII state of every column of an asset",
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

			views := make([]columnView, 0, len(asset.Columns))
			for i := range asset.Columns {
				views = append(views, toColumnView(&asset.Columns[i]))
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), views)
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, columnRow(v))
			}
			PrintTable(cmd.OutOrStdout(), columnHeaders, rows)
			return nil
		},
	}
}

func newPIISetCmd(s *session) *cobra.Command {
	var (
		pii         string
		types       []string
		customTypes []string
		analytical  string
		operational string
	)

	cmd := &cobra.Command{
		Use:   "set <asset-id> <column>",
		Short: "Edit and save the PII classification of one column",
		Example: `  # Mark a column as an e-mail address, hashed for analytics
  assetflow pii set a-123 email --pii true --type EMAIL --analytical hash --operational partial_mask

  # Clear PII
  assetflow pii set a-123 email --pii false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.App(cmd.Context(), false)
			if err != nil {
				return err
			}
			if _, err := a.Open(cmd.Context(), args[0]); err != nil {
				return err
			}
			defer a.Close(args[0])

			key := domain.ColumnKey{AssetID: args[0], Column: args[1]}
			buf, err := a.PII.OpenDialog(key)
			if err != nil {
				return err
			}
			defer a.PII.CloseDialog(key)

			flags := cmd.Flags()
			if flags.Changed("pii") {
				on, err := parseBoolArg(pii)
				if err != nil {
					return fmt.Errorf("--pii: %w", err)
				}
				if err := a.PII.SetPII(key, on); err != nil {
					return err
				}
				if !on {
					buf.PIITypes = nil
				}
			}
			if flags.Changed("type") {
				for i := range types {
					types[i] = strings.ToUpper(strings.TrimSpace(types[i]))
				}
				for _, t := range buf.PIITypes {
					if !slices.Contains(types, t) {
						if err := a.PII.RemovePIIType(key, t); err != nil {
							return err
						}
					}
				}
				for _, t := range types {
					if slices.Contains(buf.PIITypes, t) {
						continue
					}
					if err := a.PII.AddPIIType(key, t); err != nil {
						return err
					}
				}
			}
			for _, t := range customTypes {
				if err := a.PII.AddCustomPIIType(key, t); err != nil {
					return err
				}
			}
			if flags.Changed("analytical") {
				if err := a.PII.SelectMasking(key, domain.TierAnalytical, analytical); err != nil {
					return err
				}
			}
			if flags.Changed("operational") {
				if err := a.PII.SelectMasking(key, domain.TierOperational, operational); err != nil {
					return err
				}
			}

			col, err := a.PII.Save(cmd.Context(), key)
			if err != nil {
				return err
			}
			v := toColumnView(col)
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), v)
			}
			PrintTable(cmd.OutOrStdout(), columnHeaders, [][]string{columnRow(v)})
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&pii, "pii", "", "Mark the column as PII (true or false)")
	f.StringSliceVar(&types, "type", nil, "Catalog PII types; replaces the current list")
	f.StringSliceVar(&customTypes, "custom-type", nil, "Free-text PII types to add")
	f.StringVar(&analytical, "analytical", "", "Analytical masking logic")
	f.StringVar(&operational, "operational", "", "Operational masking logic")
	return cmd
}

func newPIITypesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "types [<asset-id> <column>]",
		Short: "List PII types and their masking options",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or <asset-id> <column>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			type entry struct {
				Type        string   `json:"type"`
				Analytical  []string `json:"analytical"`
				Operational []string `json:"operational"`
			}
			var entries []entry

			if len(args) == 2 {
				a, err := s.App(cmd.Context(), false)
				if err != nil {
					return err
				}
				if _, err := a.Open(cmd.Context(), args[0]); err != nil {
					return err
				}
				defer a.Close(args[0])
				key := domain.ColumnKey{AssetID: args[0], Column: args[1]}
				buf, err := a.PII.OpenDialog(key)
				if err != nil {
					return err
				}
				opts, err := a.PII.MaskingOptions(key)
				if err != nil {
					return err
				}
				entries = append(entries, entry{Type: strings.Join(buf.PIITypes, ","), Analytical: opts.Analytical, Operational: opts.Operational})
			} else {
				for _, t := range domain.PIITypes {
					opts := domain.MaskingOptionsFor([]string{t})
					entries = append(entries, entry{Type: t, Analytical: opts.Analytical, Operational: opts.Operational})
				}
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Type, strings.Join(e.Analytical, ","), strings.Join(e.Operational, ",")})
			}
			PrintTable(cmd.OutOrStdout(), []string{"type", "analytical", "operational"}, rows)
			return nil
		},
	}
}
