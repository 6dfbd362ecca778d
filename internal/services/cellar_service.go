package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"strings"
	"time"

	"cellar/internal/metrics"
	"cellar/internal/models"
	"cellar/internal/repositories"
)

// ErrKeyMismatch is returned when an update body names a different record
// than the request path.
var ErrKeyMismatch = errors.New("record key mismatch")

// Option configures a service.
type Option func(*deps)

type deps struct {
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// WithPublisher sends change events through p.
func WithPublisher(p EventPublisher) Option {
	return func(d *deps) { d.publisher = p }
}

// WithMetrics records decode and store outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *deps) { d.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

func newDeps(opts []Option) deps {
	d := deps{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func instrument[K any, T any](repo repositories.Repository[K, T], m *metrics.Metrics) repositories.Repository[K, T] {
	if m == nil {
		return repo
	}
	return repositories.Instrument(repo, m)
}

// CellarService handles business logic related to cellar records.
type CellarService struct {
	repo    repositories.BeverageRepository
	events  notifier
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewCellarService creates a new CellarService.
func NewCellarService(repo repositories.BeverageRepository, opts ...Option) *CellarService {
	d := newDeps(opts)
	return &CellarService{
		repo:    instrument(repo, d.metrics),
		events:  notifier{publisher: d.publisher, logger: d.logger},
		metrics: d.metrics,
		logger:  d.logger,
		now:     d.now,
	}
}

func (s *CellarService) decode(raw map[string]any, opts models.DecodeOptions) (*models.BeverageRecord, error) {
	opts.Now = s.now
	rec, err := models.DecodeBeverage(raw, opts)
	s.metrics.ObserveDecode(err)
	return rec, err
}

// ListRecords returns every record ordered by id, then location.
func (s *CellarService) ListRecords(ctx context.Context) ([]models.BeverageRecord, error) {
	recs, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	sortRecords(recs)
	return recs, nil
}

// GetRecord retrieves a single record by key.
func (s *CellarService) GetRecord(ctx context.Context, key models.RecordKey) (*models.BeverageRecord, error) {
	rec, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s/%s: %w", key.ID, key.Location, err)
	}
	return rec, nil
}

// CreateRecord builds a record from raw input and stores it. A supplied id
// is kept; otherwise it is derived.
func (s *CellarService) CreateRecord(ctx context.Context, raw map[string]any) (*models.BeverageRecord, error) {
	rec, err := s.decode(raw, models.DecodeOptions{})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	s.logger.Info("Record created", "id", rec.ID, "location", rec.Location)
	s.events.recordSaved(ctx, rec, s.now())
	return rec, nil
}

// UpdateRecord replaces the record stored under key. The body must describe
// the same key. A body without dateAdded keeps the stored one.
func (s *CellarService) UpdateRecord(ctx context.Context, key models.RecordKey, raw map[string]any) (*models.BeverageRecord, error) {
	existing, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s/%s: %w", key.ID, key.Location, err)
	}

	if !hasValue(raw, models.FieldDateAdded, "date_added") {
		raw = maps.Clone(raw)
		raw[models.FieldDateAdded] = existing.DateAdded
	}

	rec, err := s.decode(raw, models.DecodeOptions{})
	if err != nil {
		return nil, err
	}
	if rec.Key() != key {
		return nil, fmt.Errorf("%w: path %s/%s, body %s/%s", ErrKeyMismatch, key.ID, key.Location, rec.ID, rec.Location)
	}

	if err := s.repo.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	s.logger.Info("Record updated", "id", rec.ID, "location", rec.Location)
	s.events.recordSaved(ctx, rec, s.now())
	return rec, nil
}

// DeleteRecord deletes the record stored under key.
func (s *CellarService) DeleteRecord(ctx context.Context, key models.RecordKey) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete record %s/%s: %w", key.ID, key.Location, err)
	}

	s.logger.Info("Record deleted", "id", key.ID, "location", key.Location)
	s.events.recordDeleted(ctx, key, s.now())
	return nil
}

// ImportOptions tune ImportRecords.
type ImportOptions struct {
	// NeedsID derives ids even for rows that carry one.
	NeedsID bool
	// DryRun validates every row without writing.
	DryRun bool
}

// ImportFailure is one rejected input row.
type ImportFailure struct {
	Row int
	Err error
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Imported int
	Failures []ImportFailure
}

// ImportRecords is the bulk path used by data loads, copies and restores:
// supplied lastModified values are kept. Rows that fail validation are
// collected; a store failure aborts the import.
func (s *CellarService) ImportRecords(ctx context.Context, raws []map[string]any, opts ImportOptions) (ImportResult, error) {
	var result ImportResult
	for i, raw := range raws {
		rec, err := s.decode(raw, models.DecodeOptions{NeedsID: opts.NeedsID, PreserveLastModified: true})
		if err != nil {
			result.Failures = append(result.Failures, ImportFailure{Row: i, Err: err})
			continue
		}
		if opts.DryRun {
			result.Imported++
			continue
		}
		if err := s.repo.Put(ctx, rec); err != nil {
			return result, fmt.Errorf("failed to import row %d: %w", i, err)
		}
		result.Imported++
	}

	s.logger.Info("Import finished", "imported", result.Imported, "rejected", len(result.Failures), "dry_run", opts.DryRun)
	return result, nil
}

// Hierarchy returns the cellar grouped as beverage -> vintage -> location.
func (s *CellarService) Hierarchy(ctx context.Context) ([]models.Beverage, error) {
	recs, err := s.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return models.BuildHierarchy(recs), nil
}

// ReplaceBeverage stores every record of a nested beverage payload and
// deletes the records of the same producer and name that the payload no
// longer lists.
func (s *CellarService) ReplaceBeverage(ctx context.Context, raw map[string]any) ([]models.BeverageRecord, error) {
	recs, err := models.DecodeBeverageTree(raw, models.DecodeOptions{Now: s.now})
	s.metrics.ObserveDecode(err)
	if err != nil {
		return nil, err
	}

	keep := make(map[models.RecordKey]bool, len(recs))
	for i := range recs {
		keep[recs[i].Key()] = true
	}

	existing, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	for i := range recs {
		if err := s.repo.Put(ctx, &recs[i]); err != nil {
			return nil, fmt.Errorf("failed to save record: %w", err)
		}
		s.events.recordSaved(ctx, &recs[i], s.now())
	}

	producer, name := recs[0].Producer, recs[0].Name
	for i := range existing {
		rec := &existing[i]
		if rec.Producer != producer || rec.Name != name || keep[rec.Key()] {
			continue
		}
		if err := s.repo.Delete(ctx, rec.Key()); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to delete stale record: %w", err)
		}
		s.events.recordDeleted(ctx, rec.Key(), s.now())
	}

	s.logger.Info("Beverage replaced", "producer", producer, "name", name, "records", len(recs))
	return recs, nil
}

// hasValue reports whether raw carries a non-blank value under any of keys.
func hasValue(raw map[string]any, keys ...string) bool {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case nil:
		case string:
			if strings.TrimSpace(v) != "" {
				return true
			}
		default:
			return true
		}
	}
	return false
}

func sortRecords(recs []models.BeverageRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].ID != recs[j].ID {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].Location < recs[j].Location
	})
}
