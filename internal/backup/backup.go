// Package backup writes JSON snapshots of the cellar to S3 and restores them.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"cellar/internal/awsconf"
	"cellar/internal/models"
	"cellar/internal/repositories"
	"cellar/internal/services"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// KeyPrefix is the object key prefix of every snapshot.
const KeyPrefix = "cellar/"

const keyLayout = "20060102T150405.000Z"

// ErrNoSnapshot is returned when the bucket holds no snapshot to restore.
var ErrNoSnapshot = errors.New("no snapshot found")

// ObjectAPI is the subset of the S3 client the backup uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// NewS3Client builds an S3 client. A non-empty endpoint targets an
// S3-compatible server (MinIO, LocalStack) with path-style addressing.
func NewS3Client(ctx context.Context, opts awsconf.Options, endpoint string) (*s3.Client, error) {
	cfg, err := awsconf.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Snapshot is the stored document. Dates are ISO strings.
type Snapshot struct {
	TakenAt   string                  `json:"takenAt"`
	Records   []models.BeverageOutput `json:"records"`
	Picklists []models.PicklistOutput `json:"picklists"`
}

// storedSnapshot is Snapshot as read back: records stay raw so they go
// through the record constructor again.
type storedSnapshot struct {
	TakenAt   string            `json:"takenAt"`
	Records   []map[string]any  `json:"records"`
	Picklists []models.Picklist `json:"picklists"`
}

// RestoreResult reports what a restore wrote.
type RestoreResult struct {
	Key       string
	Records   int
	Picklists int
}

// Service snapshots both tables into one bucket.
type Service struct {
	client ObjectAPI
	bucket string
	repos  *repositories.Repositories
	cellar *services.CellarService
	logger *slog.Logger
	now    func() time.Time
}

// New creates a backup Service. cellar validates and writes restored
// records; repos supplies the tables to snapshot.
func New(client ObjectAPI, bucket string, repos *repositories.Repositories, cellar *services.CellarService, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		bucket: bucket,
		repos:  repos,
		cellar: cellar,
		logger: logger,
		now:    time.Now,
	}
}

// Backup uploads a snapshot and returns its object key.
func (s *Service) Backup(ctx context.Context) (string, error) {
	recs, err := s.cellar.ListRecords(ctx)
	if err != nil {
		return "", err
	}
	lists, err := s.repos.Picklists.Scan(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list picklists: %w", err)
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].ListName < lists[j].ListName })

	now := s.now().UTC()
	snap := Snapshot{
		TakenAt:   models.FormatTimestamp(now),
		Records:   models.ProjectBeverages(recs, false),
		Picklists: models.ProjectPicklists(lists, false),
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := KeyPrefix + now.Format(keyLayout) + ".json"
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return "", fmt.Errorf("failed to upload snapshot %s: %w", key, err)
	}

	s.logger.Info("Snapshot uploaded", "bucket", s.bucket, "key", key, "records", len(recs), "picklists", len(lists))
	return key, nil
}

// Latest returns the key of the newest snapshot.
func (s *Service) Latest(ctx context.Context) (string, error) {
	var latest string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(KeyPrefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, ".json") && key > latest {
				latest = key
			}
		}
	}
	if latest == "" {
		return "", ErrNoSnapshot
	}
	return latest, nil
}

// Restore loads the snapshot under key (the newest one when key is empty)
// into the tables. Every record and picklist is validated before anything
// is written; stored lastModified values are kept.
func (s *Service) Restore(ctx context.Context, key string) (RestoreResult, error) {
	if key == "" {
		latest, err := s.Latest(ctx)
		if err != nil {
			return RestoreResult{}, err
		}
		key = latest
	}
	result := RestoreResult{Key: key}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return result, fmt.Errorf("failed to download snapshot %s: %w", key, err)
	}
	defer out.Body.Close()

	var snap storedSnapshot
	dec := json.NewDecoder(out.Body)
	dec.UseNumber()
	if err := dec.Decode(&snap); err != nil {
		return result, fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}

	check, err := s.cellar.ImportRecords(ctx, snap.Records, services.ImportOptions{DryRun: true})
	if err != nil {
		return result, err
	}
	if len(check.Failures) > 0 {
		f := check.Failures[0]
		return result, fmt.Errorf("snapshot %s: record %d: %w", key, f.Row, f.Err)
	}
	for i := range snap.Picklists {
		if err := models.ValidatePicklist(&snap.Picklists[i]); err != nil {
			return result, fmt.Errorf("snapshot %s: picklist %d: %w", key, i, err)
		}
	}

	imported, err := s.cellar.ImportRecords(ctx, snap.Records, services.ImportOptions{})
	if err != nil {
		return result, err
	}
	result.Records = imported.Imported

	for i := range snap.Picklists {
		if err := s.repos.Picklists.Put(ctx, &snap.Picklists[i]); err != nil {
			return result, fmt.Errorf("failed to restore picklist %s: %w", snap.Picklists[i].ListName, err)
		}
		result.Picklists++
	}

	s.logger.Info("Snapshot restored", "key", key, "taken_at", snap.TakenAt, "records", result.Records, "picklists", result.Picklists)
	return result, nil
}
