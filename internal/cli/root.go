package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/attask-archive/internal/config"
	"github.com/rshade/attask-archive/internal/logging"
)

// logger is the package-level logger for CLI operations.
var logger = zerolog.Nop() //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the attask-archive CLI.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithArgs(ver, os.Args, os.LookupEnv)
}

// NewRootCmdWithArgs creates the root command with explicit args and env lookup for testability.
// Configuration is resolved once per invocation: defaults, then ATTASK_* variables, then flags.
func NewRootCmdWithArgs(
	ver string,
	args []string,
	lookupEnv func(string) (string, bool),
) *cobra.Command {
	var logResult *logging.LogPathResult
	cfg := config.New()

	cmd := &cobra.Command{
		Use:           binaryName(args),
		Short:         "Archive aged issues between Workfront (AtTask) queues",
		Long:          "attask-archive: move completed issues out of a support queue and work with API records",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.ApplyEnv(lookupEnv); err != nil {
				return err
			}
			applyRootFlags(cmd, cfg)

			result := setupLogging(cmd, cfg.Logging)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	pf := cmd.PersistentFlags()
	pf.Bool("debug", false, "enable debug logging")
	pf.String("sub-domain", "", "Workfront sub-domain (env "+config.EnvVarSubDomain+")")
	pf.String("env", config.EnvSandbox, "API environment: sandbox or live (env "+config.EnvVarEnv+")")
	pf.String("api-version", config.DefaultAPIVersion, "API version (env "+config.EnvVarAPIVersion+")")
	pf.String("api-key", "", "API key (env "+config.EnvVarAPIKey+")")
	pf.String("base-url", "", "full API base URL, overrides sub-domain and env (env "+config.EnvVarBaseURL+")")
	pf.String("log-format", "", "log format: console or json (env "+config.EnvVarLogFormat+")")

	cmd.AddCommand(NewMoveCmd(cfg), NewRecordCmd(cfg), NewSessionCmd(cfg))

	return cmd
}

// applyRootFlags copies explicitly set persistent flags over cfg.
func applyRootFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("sub-domain", &cfg.API.SubDomain)
	str("env", &cfg.API.Environment)
	str("api-version", &cfg.API.APIVersion)
	str("api-key", &cfg.API.APIKey)
	str("base-url", &cfg.API.BaseURL)
	str("log-format", &cfg.Logging.Format)
}

// binaryName returns the invoked program name for usage text.
func binaryName(args []string) string {
	const name = "attask-archive"
	if len(args) == 0 || args[0] == "" {
		return name
	}
	return strings.TrimSuffix(filepath.Base(args[0]), ".exe")
}

const rootCmdExample = `  # Move issues completed more than 6 months ago from one queue to another
  attask-archive move --sub-domain acme --env live --api-key $KEY --from 4f1a... --to 52bc... --age 6

  # Fetch a single record
  attask-archive record get proj 4f1a... --fields name,status

  # Search issues in a project, newest first
  attask-archive record search optask projectID=4f1a... --sort entryDate:desc --limit 20

  # Count matching issues
  attask-archive record count optask projectID=4f1a... status=CLS

  # Check credentials
  attask-archive session check --username jdoe --password secret`
