package cli

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/attask-archive/internal/config"
	"github.com/rshade/attask-archive/internal/mover"
	"github.com/rshade/attask-archive/internal/tui"
)

const licenseNotice = `THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE
WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR
OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.`

// moveOptions holds the move command flags.
type moveOptions struct {
	from     string
	to       string
	age      int
	pageSize int
	maxPages int
	yes      bool
}

// NewMoveCmd creates the move command, which archives aged issues from one
// project (queue) to another.
func NewMoveCmd(cfg *config.Config) *cobra.Command {
	var opts moveOptions

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move aged issues from one queue to another",
		Long: `Moves every issue in the source project whose actual completion date is at
least --age months ago into the destination project.

Before anything is moved the command shows how many issues match and asks for
confirmation. Issues are moved one page at a time until none are left.`,
		Example: `  # Archive issues completed more than 6 months ago
  attask-archive move --from 4f1a... --to 52bc... --age 6

  # Run unattended
  attask-archive move --from 4f1a... --to 52bc... --age 6 --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyMoveFlags(cmd, cfg, opts)
			return runMove(cmd, cfg, opts.yes)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "ID of the project to move issues from")
	cmd.Flags().StringVar(&opts.to, "to", "", "ID of the project to move issues to")
	cmd.Flags().IntVar(&opts.age, "age", 0, "move issues completed at least this many months ago")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", config.MaxPageSize, "issues per search page (1-100)")
	cmd.Flags().IntVar(&opts.maxPages, "max-pages", config.DefaultMaxPages,
		"stop after this many pages (env "+config.EnvVarMaxPages+")")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "skip the license and confirmation prompts")

	return cmd
}

func applyMoveFlags(cmd *cobra.Command, cfg *config.Config, opts moveOptions) {
	cfg.Mover.From = opts.from
	cfg.Mover.To = opts.to
	cfg.Mover.AgeMonths = opts.age
	if cmd.Flags().Changed("page-size") {
		cfg.Mover.PageSize = opts.pageSize
	}
	if cmd.Flags().Changed("max-pages") {
		cfg.Mover.MaxPages = opts.maxPages
	}
}

// runMove executes the move: license, pre-flight summary, confirmation, run.
func runMove(cmd *cobra.Command, cfg *config.Config, yes bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	in := bufio.NewReader(cmd.InOrStdin())
	p := message.NewPrinter(language.English)

	if err := cfg.Mover.Validate(); err != nil {
		return fmt.Errorf("mover config: %w", err)
	}

	if !yes {
		fmt.Fprintln(out, licenseNotice)
		if !confirmed(cmd, Confirm(out, in, "AGREE?")) {
			return ErrCancelled
		}
	}

	client, err := newAPIClient(cmd, cfg.API)
	if err != nil {
		return err
	}
	mv, err := mover.New(cfg.Mover, client)
	if err != nil {
		return err
	}

	fromName, err := mv.ProjectName(ctx, cfg.Mover.From)
	if err != nil {
		return err
	}
	toName, err := mv.ProjectName(ctx, cfg.Mover.To)
	if err != nil {
		return err
	}
	count, err := mv.CountMatching(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, tui.RenderMoveNotice(tui.MoveNotice{
		Count:     count,
		AgeMonths: cfg.Mover.AgeMonths,
		FromName:  fromName,
		ToName:    toName,
		PageSize:  mv.Config().PageSize,
	}))

	if !yes {
		if !confirmed(cmd, Confirm(out, in, "Should I proceed?")) {
			return ErrCancelled
		}
	}

	mv.OnMoved = func(string) { fmt.Fprint(out, ".") }
	mv.OnPage = func(moved int, progress *mover.Progress) {
		p.Fprintf(out, "\nMoved %d items\n", moved)
		logger.Debug().
			Ctx(ctx).
			Int("moved", moved).
			Float64("percent", progress.PercentComplete()).
			Int("estimated_pages", progress.EstimatedPages()).
			Float64("rate", progress.ItemsPerSecond()).
			Dur("eta", progress.EstimatedTimeRemaining()).
			Msg("page progress")
	}

	result, err := mv.Run(ctx)
	if err != nil {
		p.Fprintf(out, "\nStopped after moving %d items\n", result.Moved)
		return err
	}

	fmt.Fprintln(out, "Operation complete")

	snap := mv.Progress().Snapshot()
	logger.Info().
		Ctx(ctx).
		Int("moved", result.Moved).
		Int("pages", result.Pages).
		Int("estimated", snap.Estimated).
		Dur("elapsed", snap.ElapsedTime).
		Float64("rate", snap.ItemsPerSecond).
		Msg("move finished")
	return nil
}

// confirmed reports whether a prompt was accepted, telling the user what
// happens when it was not.
func confirmed(cmd *cobra.Command, res PromptResult) bool {
	if res.Accepted {
		return true
	}
	if res.NonInteractive {
		cmd.PrintErrln("Confirmation required but stdin is not a terminal; re-run with --yes.")
	}
	printExiting(cmd.OutOrStdout())
	return false
}

func printExiting(w io.Writer) {
	fmt.Fprintln(w, "Exiting...")
}
