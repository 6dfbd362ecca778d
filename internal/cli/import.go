package cli

import (
	"context"
	"fmt"
	"os"

	"cellar/internal/importer"
	"cellar/internal/services"

	"github.com/spf13/cobra"
)

// NewImportCSVCommand creates the import-csv command.
func NewImportCSVCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dryRun  bool
		keepIDs bool
	)

	cmd := &cobra.Command{
		Use:   "import-csv <file>",
		Short: "Import a spreadsheet export into the cellar",
		Long: `Import the rows of a CSV export into the cellar table.

Ids are derived from producer, name, year, size and bottle date or batch
unless --keep-ids is set. Supplied lastModified values are kept. Rows
that fail validation are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(rootOpts, cmd, func(ctx context.Context, e *env) error {
				return runImportCSV(ctx, e, cmd, args[0], services.ImportOptions{NeedsID: !keepIDs, DryRun: dryRun})
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate rows without writing")
	cmd.Flags().BoolVar(&keepIDs, "keep-ids", false, "keep ids present in the file")

	return cmd
}

func runImportCSV(ctx context.Context, e *env, cmd *cobra.Command, path string, opts services.ImportOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := importer.ReadCSV(f)
	if err != nil {
		return err
	}

	result, err := e.cellar.ImportRecords(ctx, rows, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, failure := range result.Failures {
		fmt.Fprintf(out, "row %d: %v\n", failure.Row+1, failure.Err)
	}
	verb := "imported"
	if opts.DryRun {
		verb = "valid"
	}
	fmt.Fprintf(out, "%d rows %s, %d rejected\n", result.Imported, verb, len(result.Failures))

	if len(result.Failures) > 0 {
		return fmt.Errorf("%d rows rejected", len(result.Failures))
	}
	return nil
}
