package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"assetflow/internal/domain"
)

func newPrefsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Manage local display preferences",
	}
	cmd.AddCommand(newPrefsShowCmd(s))
	cmd.AddCommand(newPrefsSetCmd(s))
	cmd.AddCommand(newPrefsResetCmd(s))
	return cmd
}

func newPrefsShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show which metadata fields 'assets show' displays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.App(cmd.Context(), true)
			if err != nil {
				return err
			}
			fields, err := a.Preferences.Load(cmd.Context())
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), fields)
			}
			names := domain.SortedFieldNames(fields)
			rows := make([][]string, 0, len(names))
			for _, n := range names {
				rows = append(rows, []string{n, strconv.FormatBool(fields[n])})
			}
			PrintTable(cmd.OutOrStdout(), []string{"field", "visible"}, rows)
			return nil
		},
	}
}

func newPrefsSetCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "set <field> <true|false>",
		Short: "Show or hide a metadata field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			visible, err := parseBoolArg(args[1])
			if err != nil {
				return err
			}
			a, err := s.App(cmd.Context(), true)
			if err != nil {
				return err
			}
			if err := a.Preferences.SetVisible(cmd.Context(), args[0], visible); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), map[string]interface{}{"field": args[0], "visible": visible})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s visible=%t\n", args[0], visible)
			return nil
		},
	}
}

func newPrefsResetCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore default field visibility",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.App(cmd.Context(), true)
			if err != nil {
				return err
			}
			if err := a.Preferences.Reset(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Field visibility reset to defaults")
			return nil
		},
	}
}
