package cli

import (
	"context"
	"fmt"

	"cellar/internal/repositories"

	"github.com/spf13/cobra"
)

// CopyOptions describe the destination store of the copy command. Settings
// left empty are taken from the configuration.
type CopyOptions struct {
	Driver         string
	DSN            string
	BadgerPath     string
	DynamoEndpoint string
}

// NewCopyCommand creates the copy command.
func NewCopyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CopyOptions{}

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Replace the contents of another store with the configured one",
		Long: `Copy both tables from the configured store into the store given by
--to. Everything already in the destination is deleted first.

Typical uses are pulling the cloud tables into a local sqlite or badger
store, and pushing a local store back to DynamoDB.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(rootOpts, cmd, func(ctx context.Context, e *env) error {
				return runCopy(ctx, e, cmd, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "to", "", "destination store driver (sqlite|postgres|badger|dynamodb)")
	cmd.Flags().StringVar(&opts.DSN, "to-dsn", "", "destination DSN for sqlite and postgres")
	cmd.Flags().StringVar(&opts.BadgerPath, "to-badger-path", "", "destination badger directory")
	cmd.Flags().StringVar(&opts.DynamoEndpoint, "to-dynamodb-endpoint", "", "destination DynamoDB endpoint")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// destination merges opts over the configured store options.
func (o *CopyOptions) destination(base repositories.Options) repositories.Options {
	dst := base
	dst.Driver = o.Driver
	if o.DSN != "" {
		dst.DSN = o.DSN
	}
	if o.BadgerPath != "" {
		dst.BadgerPath = o.BadgerPath
	}
	if o.DynamoEndpoint != "" {
		dst.DynamoEndpoint = o.DynamoEndpoint
	}
	return dst
}

func runCopy(ctx context.Context, e *env, cmd *cobra.Command, opts *CopyOptions) error {
	src := e.cfg.StoreOptions()
	dstOpts := opts.destination(src)
	if err := checkPersistent(dstOpts); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if sameStore(src, dstOpts) {
		return fmt.Errorf("source and destination are the same %s store", src.Driver)
	}

	dst, err := repositories.Open(ctx, dstOpts)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer dst.Close()

	beverages, picklists, err := repositories.CopyAll(ctx, e.repos, dst)
	if err != nil {
		return err
	}

	e.logger.Info("Copy finished", "from", src.Driver, "to", dstOpts.Driver)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "cellar: %d copied, %d purged\n", beverages.Copied, beverages.Purged)
	fmt.Fprintf(out, "picklists: %d copied, %d purged\n", picklists.Copied, picklists.Purged)
	return nil
}
