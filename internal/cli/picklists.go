package cli

import (
	"context"
	"fmt"
	"os"

	"cellar/internal/models"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewSeedPicklistsCommand creates the seed-picklists command.
func NewSeedPicklistsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-picklists [file]",
		Short: "Store picklists from a YAML file or from the values in use",
		Long: `Store picklists, replacing those with the same name.

With a file, the file holds a YAML list of picklists:

  - listName: size
    values:
      - value: 12 oz
      - value: 750 ml

Without a file, the picklists are derived from the locations, sizes,
styles and specific styles currently in the cellar.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(rootOpts, cmd, func(ctx context.Context, e *env) error {
				var (
					lists []models.Picklist
					err   error
				)
				if len(args) == 1 {
					lists, err = readPicklists(args[0])
				} else {
					lists, err = e.picklists.Suggest(ctx)
				}
				if err != nil {
					return err
				}
				return savePicklists(ctx, e, cmd, lists)
			})
		},
	}

	return cmd
}

func readPicklists(path string) ([]models.Picklist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lists []models.Picklist
	if err := yaml.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return lists, nil
}

func savePicklists(ctx context.Context, e *env, cmd *cobra.Command, lists []models.Picklist) error {
	for i := range lists {
		saved, err := e.picklists.Save(ctx, &lists[i])
		if err != nil {
			return fmt.Errorf("picklist %d: %w", i, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d values\n", saved.ListName, len(saved.Values))
	}
	return nil
}
