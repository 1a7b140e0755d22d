package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"assetflow/internal/client"
)

func newAuthCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication helpers",
	}

	cmd.AddCommand(newAuthTokenCmd(s))
	return cmd
}

func newAuthTokenCmd(s *session) *cobra.Command {
	var (
		principal string
		secret    string
		admin     bool
		expires   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a dev-mode JWT token and save it to the active profile",
		Long:  "Generate an HS256 JWT token for development servers. The token is saved to the active profile.",
		Example: `  assetflow auth token --principal steward --secret dev-secret
  ASSETFLOW_JWT_SECRET=dev-secret assetflow auth token --principal admin --admin --expires 48h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("secret") && s.cfg != nil {
				secret = s.cfg.JWTSecret
			}
			if secret == "" {
				return fmt.Errorf("--secret or ASSETFLOW_JWT_SECRET is required")
			}
			if expires <= 0 {
				return fmt.Errorf("--expires must be positive")
			}

			signed, err := client.MintDevToken(principal, secret, admin, expires, time.Now())
			if err != nil {
				return err
			}

			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = emptyUserConfig()
			}
			profileName := s.profile
			if profileName == "" {
				profileName = cfg.CurrentProfile
			}
			if profileName == "" {
				profileName = "default"
				cfg.CurrentProfile = profileName
			}
			p := cfg.Profiles[profileName]
			p.Token = signed
			cfg.Profiles[profileName] = p
			if err := SaveUserConfig(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&principal, "principal", "", "Principal name (JWT sub claim)")
	cmd.Flags().StringVar(&secret, "secret", "", "JWT signing secret (HS256)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Include admin claim in the token")
	cmd.Flags().DurationVar(&expires, "expires", 24*time.Hour, "Token expiry duration")
	_ = cmd.MarkFlagRequired("principal")

	return cmd
}
