package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/attask-archive/internal/attask"
	"github.com/rshade/attask-archive/internal/cli/pagination"
	"github.com/rshade/attask-archive/internal/config"
	"github.com/rshade/attask-archive/internal/record"
)

// NewRecordCmd creates the record command group for working with individual API records.
func NewRecordCmd(cfg *config.Config) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Read and modify API records",
		Long: "Read and modify API records. <objcode> is an object code such as optask or proj,\n" +
			"or its long name such as issue or project. Known codes: " + knownObjCodes(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Cobra runs only the nearest PersistentPreRunE, so call the root's explicitly.
			root := cmd.Root()
			if root != nil && root.PersistentPreRunE != nil && root != cmd {
				if err := root.PersistentPreRunE(cmd, args); err != nil {
					return err
				}
			}
			return validateOutputFormat(output)
		},
	}

	cmd.PersistentFlags().StringVarP(&output, "output", "o", outputJSON, "output format: json or yaml")

	out := func() string { return output }
	cmd.AddCommand(
		newRecordGetCmd(cfg, out), newRecordListCmd(cfg, out), newRecordSearchCmd(cfg, out),
		newRecordCountCmd(cfg, out), newRecordSetCmd(cfg, out), newRecordDeleteCmd(cfg),
	)
	return cmd
}

func newRecordGetCmd(cfg *config.Config, output func() string) *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "get <objcode> <id>",
		Short: "Fetch one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			objCode, client, err := recordSetup(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			data, err := client.Get(cmd.Context(), objCode, args[1], fields)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output(), data)
		},
	}
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to return (comma-separated)")
	return cmd
}

func newRecordListCmd(cfg *config.Config, output func() string) *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "list <objcode> <id>[,<id>...]",
		Short: "Fetch several records by id in one request",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			objCode, client, err := recordSetup(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			var ids []string
			for _, arg := range args[1:] {
				for _, id := range strings.Split(arg, ",") {
					if id = strings.TrimSpace(id); id != "" {
						ids = append(ids, id)
					}
				}
			}
			items, err := client.GetList(cmd.Context(), objCode, ids, fields)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output(), items)
		},
	}
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to return (comma-separated)")
	return cmd
}

func newRecordSearchCmd(cfg *config.Config, output func() string) *cobra.Command {
	var (
		fields    []string
		withTotal bool
	)
	page := pagination.New()

	cmd := &cobra.Command{
		Use:   "search <objcode> [key=value...]",
		Short: "Search records by field values",
		Long: `Search records by field values. Each key=value becomes a search parameter, so
comparison operators are given as <field>_Mod=<op> (for example status_Mod=ne).`,
		Example: `  # Closed issues in a project, newest first
  attask-archive record search optask projectID=4f1a... status=CLS --sort entryDate:desc

  # Second page of 20 projects, with the total count on stderr
  attask-archive record search proj status=CUR --page 2 --page-size 20 --with-total`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			params := criteria.Clone()
			if err = page.Apply(params); err != nil {
				return err
			}

			objCode, client, err := recordSetup(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			items, err := client.Search(cmd.Context(), objCode, params, fields)
			if err != nil {
				return err
			}

			if withTotal {
				total, countErr := countRecords(cmd, client, objCode, criteria, defaultCountAgg)
				if countErr != nil {
					return countErr
				}
				meta := pagination.NewMeta(*page, total)
				message.NewPrinter(language.English).Fprintf(cmd.ErrOrStderr(),
					"page %d of %d (%d records)\n", meta.CurrentPage, meta.TotalPages, meta.TotalItems)
			}
			return writeOutput(cmd.OutOrStdout(), output(), items)
		},
	}
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to return (comma-separated)")
	cmd.Flags().BoolVar(&withTotal, "with-total", false, "also report the total number of matches on stderr")
	page.AddFlags(cmd)
	return cmd
}

// defaultCountAgg is the report aggregate used to count records.
const defaultCountAgg = "dcount"

func newRecordCountCmd(cfg *config.Config, output func() string) *cobra.Command {
	var agg string
	cmd := &cobra.Command{
		Use:   "count <objcode> [key=value...]",
		Short: "Count records matching field values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			objCode, client, err := recordSetup(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			data, err := client.Report(cmd.Context(), objCode, criteria, agg)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output(), data)
		},
	}
	cmd.Flags().StringVar(&agg, "agg", defaultCountAgg, "aggregate function applied to ID")
	return cmd
}

func newRecordSetCmd(cfg *config.Config, output func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <objcode> <id|new> key=value...",
		Short: "Update fields of a record, or create one with id \"new\"",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			updates, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			objCode, client, err := recordSetup(cmd, cfg, args[0])
			if err != nil {
				return err
			}

			data := map[string]any{}
			if id := args[1]; id != "new" {
				data[record.FieldID] = id
			}
			rec := record.NewWithCode(objCode, data, client)
			for field, value := range updates {
				rec.Set(field, value)
			}
			if err = rec.Save(cmd.Context()); err != nil {
				return err
			}

			logger.Info().
				Ctx(cmd.Context()).
				Str("objcode", string(objCode)).
				Str("id", rec.ID()).
				Int("fields", len(updates)).
				Msg("record saved")
			return writeOutput(cmd.OutOrStdout(), output(), rec.Data())
		},
	}
}

func newRecordDeleteCmd(cfg *config.Config) *cobra.Command {
	var force, yes bool
	cmd := &cobra.Command{
		Use:   "delete <objcode> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			objCode, client, err := recordSetup(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			id := args[1]

			if !yes {
				question := fmt.Sprintf("Delete %s %s?", objCode, id)
				if !confirmed(cmd, Confirm(cmd.OutOrStdout(), bufio.NewReader(cmd.InOrStdin()), question)) {
					return ErrCancelled
				}
			}

			rec := record.NewWithCode(objCode, map[string]any{record.FieldID: id}, client)
			if err = rec.Delete(cmd.Context(), force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", objCode, id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "also delete dependent records")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// recordSetup resolves the object code argument and builds the client.
func recordSetup(cmd *cobra.Command, cfg *config.Config, code string) (attask.ObjCode, *attask.Client, error) {
	objCode, err := attask.ParseObjCode(code)
	if err != nil {
		return "", nil, err
	}
	client, err := newAPIClient(cmd, cfg.API)
	if err != nil {
		return "", nil, err
	}
	return objCode, client, nil
}

// countRecords runs a report over criteria and returns <agg>_ID as an int.
func countRecords(
	cmd *cobra.Command,
	client *attask.Client,
	objCode attask.ObjCode,
	criteria attask.Params,
	agg string,
) (int, error) {
	data, err := client.Report(cmd.Context(), objCode, criteria, agg)
	if err != nil {
		return 0, err
	}
	return record.NewWithCode(objCode, data, nil).GetInt(agg + "_ID")
}

func knownObjCodes() string {
	codes := attask.ObjCodes()
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
