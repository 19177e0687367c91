package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/attask-archive/internal/config"
	"github.com/rshade/attask-archive/internal/logging"
)

// setupLogging configures logging from the resolved config and the --debug flag,
// and stores the logger and a trace id in the command context.
func setupLogging(cmd *cobra.Command, loggingCfg config.LoggingConfig) logging.LogPathResult {
	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = logging.FormatConsole
		loggingCfg.File = ""
		loggingCfg.Caller = true
	}

	result := logging.NewLoggerWithPath(loggingCfg.ToLoggingConfig())
	if !result.UsingFile {
		// Follow cobra's stderr so output redirected by the caller captures logs too.
		result.Logger = logging.NewWriterLogger(cmd.ErrOrStderr(), loggingCfg.ToLoggingConfig())
	}
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = result.Logger.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Debug().Ctx(ctx).Str("command", cmd.Name()).Msg("command started")

	return result
}

// cleanupLogging closes the log file handle, if any.
func cleanupLogging(_ *cobra.Command, logResult *logging.LogPathResult) error {
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}
