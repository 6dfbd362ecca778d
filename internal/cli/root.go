// Package cli implements cellarctl, the data maintenance tool of the
// cellar: CSV imports, store copies, S3 backups and picklist seeding.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Verbose    bool
}

// NewRootCommand creates the root command for cellarctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cellarctl",
		Short: "cellarctl - cellar data maintenance",
		Long: `Maintenance commands for the cellar tables.

The store is selected the same way as for the server: STORE_DRIVER and
the related environment variables, or a config file given with --config.`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (yaml, json, toml or env)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewImportCSVCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewCopyCommand(opts))
	cmd.AddCommand(NewSeedPicklistsCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))

	return cmd
}
