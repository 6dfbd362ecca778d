package cli

import (
	"context"
	"errors"
	"fmt"

	"cellar/internal/backup"

	"github.com/spf13/cobra"
)

var errNoBucket = errors.New("BACKUP_BUCKET is not set")

func newBackupService(ctx context.Context, e *env) (*backup.Service, error) {
	if e.cfg.BackupBucket == "" {
		return nil, errNoBucket
	}
	client, err := backup.NewS3Client(ctx, e.cfg.AWSOptions(), e.cfg.S3Endpoint)
	if err != nil {
		return nil, err
	}
	return backup.New(client, e.cfg.BackupBucket, e.repos, e.cellar, e.logger), nil
}

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Upload a JSON snapshot of both tables to S3",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(rootOpts, cmd, func(ctx context.Context, e *env) error {
				svc, err := newBackupService(ctx, e)
				if err != nil {
					return err
				}
				key, err := svc.Backup(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s\n", e.cfg.BackupBucket, key)
				return nil
			})
		},
	}
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore [key]",
		Short: "Load a snapshot from S3 into the tables",
		Long: `Load a snapshot into the tables. Without a key the newest snapshot is
used. The whole snapshot is validated before anything is written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(rootOpts, cmd, func(ctx context.Context, e *env) error {
				svc, err := newBackupService(ctx, e)
				if err != nil {
					return err
				}
				var key string
				if len(args) == 1 {
					key = args[0]
				}
				result, err := svc.Restore(ctx, key)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records, %d picklists restored\n", result.Key, result.Records, result.Picklists)
				return nil
			})
		},
	}
}
