package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// commandInfo describes one runnable command of the tree.
type commandInfo struct {
	Path    string     `json:"path"`
	Group   string     `json:"group"`
	Short   string     `json:"short"`
	Args    string     `json:"args,omitempty"`
	Example string     `json:"example,omitempty"`
	Flags   []flagInfo `json:"flags,omitempty"`
}

type flagInfo struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Type      string `json:"type"`
	Default   string `json:"default,omitempty"`
	Usage     string `json:"usage,omitempty"`
	Required  bool   `json:"required,omitempty"`
}

func newCommandsCmd() *cobra.Command {
	var (
		search    string
		group     string
		withFlags bool
	)

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List every command with its arguments and flags",
		Long:  "Walks the command tree offline and lists runnable commands. JSON output includes flag metadata.",
		Example: `  assetflow commands --group assets
  assetflow commands --search publish -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			needle := strings.ToLower(search)
			entries := slices.DeleteFunc(listCommands(cmd.Root(), ""), func(e commandInfo) bool {
				if group != "" && e.Group != group {
					return true
				}
				return needle != "" && !strings.Contains(strings.ToLower(e.Path+" "+e.Short), needle)
			})

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				row := []string{strings.TrimSpace(e.Path + " " + e.Args), e.Short}
				if withFlags {
					names := make([]string, 0, len(e.Flags))
					for _, f := range e.Flags {
						names = append(names, "--"+f.Name)
					}
					row = append(row, strings.Join(names, " "))
				}
				rows = append(rows, row)
			}
			columns := []string{"command", "description"}
			if withFlags {
				columns = append(columns, "flags")
			}
			PrintTable(cmd.OutOrStdout(), columns, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive substring of the command path or description")
	cmd.Flags().StringVar(&group, "group", "", "Top-level command group, e.g. assets or dedup")
	cmd.Flags().BoolVar(&withFlags, "flags", false, "Add a flags column to table output")
	return cmd
}

// listCommands returns the runnable leaves below cmd in tree order.
func listCommands(cmd *cobra.Command, prefix string) []commandInfo {
	var out []commandInfo
	for _, child := range cmd.Commands() {
		if child.Hidden || child.Name() == "help" || child.Name() == "completion" {
			continue
		}
		path := strings.TrimSpace(prefix + " " + child.Name())
		if child.HasSubCommands() {
			out = append(out, listCommands(child, path)...)
			continue
		}
		group, _, _ := strings.Cut(path, " ")
		_, args, _ := strings.Cut(child.Use, " ")
		out = append(out, commandInfo{
			Path:    path,
			Group:   group,
			Short:   child.Short,
			Args:    args,
			Example: child.Example,
			Flags:   localFlags(child.LocalFlags()),
		})
	}
	return out
}

func localFlags(fs *pflag.FlagSet) []flagInfo {
	var out []flagInfo
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		req := f.Annotations[cobra.BashCompOneRequiredFlag]
		out = append(out, flagInfo{
			Name:      f.Name,
			Shorthand: f.Shorthand,
			Type:      f.Value.Type(),
			Default:   f.DefValue,
			Usage:     f.Usage,
			Required:  len(req) > 0 && req[0] == "true",
		})
	})
	return out
}
