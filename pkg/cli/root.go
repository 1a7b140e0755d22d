// Package cli implements the assetflow command tree.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"assetflow/internal/app"
	"assetflow/internal/client"
	"assetflow/internal/config"
	"assetflow/internal/db"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{
				"error": err.Error(),
			}
			var apiErr *client.APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				errObj["code"] = apiErr.Code
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// session resolves configuration once per invocation and builds the app
// lazily, so commands that never reach the API need no base URL.
type session struct {
	baseURL  string
	apiKey   string
	token    string
	output   string
	profile  string
	logLevel string
	prefsDB  string
	pageSize int

	cfg    *config.Config
	logger *slog.Logger
	app    *app.App
	db     *sql.DB
	stderr io.Writer
}

func (s *session) resolve(cmd *cobra.Command) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	uc, err := LoadUserConfig()
	if err != nil {
		// Config file is optional
		uc = emptyUserConfig()
	}
	p := uc.ActiveProfile(s.profile)

	// Apply precedence: flag > env > profile > default
	flags := cmd.Flags()
	pick := func(flag, flagVal, envVal, profileVal string) string {
		switch {
		case flags.Changed(flag):
			return flagVal
		case envVal != "":
			return envVal
		case profileVal != "":
			return profileVal
		}
		return flagVal
	}
	cfg.BaseURL = pick("base-url", s.baseURL, os.Getenv("ASSETFLOW_BASE_URL"), p.BaseURL)
	cfg.APIKey = pick("api-key", s.apiKey, os.Getenv("ASSETFLOW_API_KEY"), p.APIKey)
	cfg.Token = pick("token", s.token, os.Getenv("ASSETFLOW_TOKEN"), p.Token)
	s.output = pick("output", s.output, os.Getenv("ASSETFLOW_OUTPUT"), p.Output)
	if flags.Changed("log-level") {
		cfg.LogLevel = s.logLevel
	}
	if flags.Changed("prefs-db") {
		cfg.PrefsDBPath = s.prefsDB
	}
	switch {
	case flags.Changed("page-size"):
		cfg.PageSize = s.pageSize
	case os.Getenv("ASSETFLOW_PAGE_SIZE") == "" && p.PageSize > 0:
		cfg.PageSize = p.PageSize
	}

	if err := validateOutputFormat(s.output); err != nil {
		return err
	}
	if err := cmd.Root().PersistentFlags().Set("output", s.output); err != nil {
		return err
	}

	s.cfg = cfg
	s.logger = slog.New(slog.NewTextHandler(s.stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	for _, w := range cfg.Warnings {
		s.logger.Debug("config warning", "warning", w)
	}
	return nil
}

// App returns the wired application, opening the preference store when
// withPrefs is set.
func (s *session) App(ctx context.Context, withPrefs bool) (*app.App, error) {
	if s.app != nil && (!withPrefs || s.app.Preferences != nil) {
		return s.app, nil
	}
	if s.cfg == nil {
		return nil, fmt.Errorf("configuration not resolved")
	}
	deps := app.Deps{Cfg: s.cfg, Logger: s.logger}
	if withPrefs {
		if s.db == nil {
			conn, err := db.Open(ctx, s.cfg.PrefsDBPath)
			if err != nil {
				return nil, fmt.Errorf("open preference store: %w", err)
			}
			s.db = conn
		}
		deps.PrefsDB = s.db
	} else if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	a, err := app.New(deps)
	if err != nil {
		return nil, err
	}
	s.app = a
	return a, nil
}

func (s *session) close() {
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
}

func newRootCmd() *cobra.Command {
	s := &session{stderr: os.Stderr}

	rootCmd := &cobra.Command{
		Use:           "assetflow",
		Short:         "Asset governance workflow client",
		Long:          "Command-line client for reviewing, approving and publishing discovered data assets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.resolve(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			s.close()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&s.baseURL, "base-url", "http://localhost:8080", "Governance API base URL")
	pf.StringVar(&s.apiKey, "api-key", "", "API key for authentication")
	pf.StringVar(&s.token, "token", "", "JWT token for authentication (takes precedence over --api-key)")
	pf.StringVarP(&s.output, "output", "o", "table", "Output format (table, json)")
	pf.StringVarP(&s.profile, "profile", "p", "", "Config profile to use")
	pf.StringVar(&s.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&s.prefsDB, "prefs-db", "", "Path of the local preference store")
	pf.IntVar(&s.pageSize, "page-size", config.DefaultPageSize, "Assets per page")

	rootCmd.AddCommand(newAssetsCmd(s))
	rootCmd.AddCommand(newPIICmd(s))
	rootCmd.AddCommand(newDedupCmd(s))
	rootCmd.AddCommand(newJobsCmd(s))
	rootCmd.AddCommand(newDiscoverCmd(s))
	rootCmd.AddCommand(newPrefsCmd(s))
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newAuthCmd(s))
	rootCmd.AddCommand(newCommandsCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "assetflow version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
