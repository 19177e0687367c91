package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/attask-archive/internal/attask"
	"github.com/rshade/attask-archive/internal/config"
)

// newAPIClient validates the API section and builds a client whose failed
// response bodies are written to the command's stderr.
func newAPIClient(cmd *cobra.Command, api config.APIConfig) (*attask.Client, error) {
	if err := api.Validate(); err != nil {
		return nil, fmt.Errorf("api config: %w", err)
	}
	baseURL, err := api.URL()
	if err != nil {
		return nil, fmt.Errorf("api config: %w", err)
	}

	logger.Debug().
		Ctx(cmd.Context()).
		Str("base_url", baseURL).
		Str("environment", api.Environment).
		Msg("api client configured")

	return attask.NewClient(baseURL, api.APIKey).WithDiagnostics(cmd.ErrOrStderr()), nil
}

// parseAssignments turns key=value arguments into request parameters.
// A later assignment to the same key wins.
func parseAssignments(args []string) (attask.Params, error) {
	params := make(attask.Params, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected key=value", arg)
		}
		params[key] = value
	}
	return params, nil
}
