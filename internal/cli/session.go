package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/attask-archive/internal/config"
)

// NewSessionCmd creates the session command group.
func NewSessionCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{Use: "session", Short: "Session commands"}
	cmd.AddCommand(newSessionCheckCmd(cfg))
	return cmd
}

func newSessionCheckCmd(cfg *config.Config) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Log in and out to verify credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" {
				username = cfg.API.Username
			}
			if password == "" {
				password = cfg.API.Password
			}
			if username == "" {
				return errors.New("--username or " + config.EnvVarUsername + " is required")
			}
			if password == "" {
				var err error
				password, err = PromptSecret(cmd.ErrOrStderr(), "Password")
				if errors.Is(err, ErrNotInteractive) {
					return errors.New("--password or " + config.EnvVarPassword + " is required")
				}
				if err != nil {
					return err
				}
			}

			client, err := newAPIClient(cmd, cfg.API)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err = client.Login(ctx, username, password); err != nil {
				return err
			}
			userID := client.UserID()
			if err = client.Logout(ctx); err != nil {
				logger.Warn().Ctx(ctx).Err(err).Msg("logout failed")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as user %s\n", userID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "user name (env "+config.EnvVarUsername+")")
	cmd.Flags().StringVar(&password, "password", "",
		"password (env "+config.EnvVarPassword+"; prompted for on a terminal when unset)")
	return cmd
}
