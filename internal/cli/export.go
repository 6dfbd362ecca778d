package cli

import (
	"context"
	"encoding/json"

	"cellar/internal/models"

	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var epoch bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every cellar record as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(rootOpts, cmd, func(ctx context.Context, e *env) error {
				recs, err := e.cellar.ListRecords(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(models.ProjectBeverages(recs, epoch))
			})
		},
	}

	cmd.Flags().BoolVar(&epoch, "epoch", false, "render dates as epoch milliseconds")

	return cmd
}
