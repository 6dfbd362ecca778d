package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"cellar/internal/models"
	"cellar/internal/repositories"
)

// PicklistService handles the allowed values of the categorical fields.
type PicklistService struct {
	repo    repositories.PicklistRepository
	records repositories.BeverageRepository
	events  notifier
	logger  *slog.Logger
	now     func() time.Time
}

// NewPicklistService creates a new PicklistService. records feeds Suggest.
func NewPicklistService(repo repositories.PicklistRepository, records repositories.BeverageRepository, opts ...Option) *PicklistService {
	d := newDeps(opts)
	return &PicklistService{
		repo:    instrument(repo, d.metrics),
		records: instrument(records, d.metrics),
		events:  notifier{publisher: d.publisher, logger: d.logger},
		logger:  d.logger,
		now:     d.now,
	}
}

// List returns every picklist ordered by name.
func (s *PicklistService) List(ctx context.Context) ([]models.Picklist, error) {
	lists, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list picklists: %w", err)
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].ListName < lists[j].ListName })
	return lists, nil
}

// Get retrieves one picklist by name.
func (s *PicklistService) Get(ctx context.Context, listName string) (*models.Picklist, error) {
	p, err := s.repo.Get(ctx, listName)
	if err != nil {
		return nil, fmt.Errorf("failed to get picklist %s: %w", listName, err)
	}
	return p, nil
}

// Save validates p, stamps it with the current time and stores it,
// replacing any picklist with the same name.
func (s *PicklistService) Save(ctx context.Context, p *models.Picklist) (*models.Picklist, error) {
	saved := *p
	saved.ListName = strings.TrimSpace(saved.ListName)
	saved.Values = make([]models.PicklistEntry, len(p.Values))
	for i, v := range p.Values {
		v.Value = strings.TrimSpace(v.Value)
		saved.Values[i] = v
	}
	if err := models.ValidatePicklist(&saved); err != nil {
		return nil, err
	}
	saved.LastModified = s.now().UTC()

	if err := s.repo.Put(ctx, &saved); err != nil {
		return nil, fmt.Errorf("failed to save picklist: %w", err)
	}

	s.logger.Info("Picklist updated", "list_name", saved.ListName, "values", len(saved.Values))
	s.events.picklistSaved(ctx, &saved, s.now())
	return &saved, nil
}

// Suggest derives picklists from the values currently used in the cellar.
// Nothing is stored.
func (s *PicklistService) Suggest(ctx context.Context) ([]models.Picklist, error) {
	recs, err := s.records.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	sortRecords(recs)
	return models.SuggestPicklists(recs), nil
}
