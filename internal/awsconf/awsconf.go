// Package awsconf loads the AWS SDK configuration shared by the DynamoDB
// store and the S3 backup.
package awsconf

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// Options holds explicit AWS settings. Empty keys fall back to the default
// credentials chain.
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Load resolves an aws.Config from opts.
func Load(ctx context.Context, opts Options) (aws.Config, error) {
	region := opts.Region
	if region == "" {
		region = DefaultRegion
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
