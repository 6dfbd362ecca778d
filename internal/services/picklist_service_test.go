package services_test

import (
	"testing"

	"cellar/internal/models"
	"cellar/internal/repositories"
	"cellar/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPicklistService(opts ...services.Option) (*services.PicklistService, *repositories.MemoryRepository[models.RecordKey, models.BeverageRecord]) {
	records := repositories.NewMemoryBeverageRepository()
	opts = append([]services.Option{services.WithClock(clock), services.WithLogger(quiet)}, opts...)
	return services.NewPicklistService(repositories.NewMemoryPicklistRepository(), records, opts...), records
}

func TestPicklistService_SaveAndGet(t *testing.T) {
	publisher := new(MockPublisher)
	service, _ := newPicklistService(services.WithPublisher(publisher))
	publisher.On("Publish", ctx, services.RoutingPicklistSaved, mock.Anything).Return(nil).Once()

	saved, err := service.Save(ctx, &models.Picklist{
		ListName: " size ",
		Values:   []models.PicklistEntry{{Value: " 12 oz "}, {Value: "750 ml"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "size", saved.ListName)
	assert.Equal(t, "12 oz", saved.Values[0].Value)
	assert.True(t, fixedAt.Equal(saved.LastModified))

	got, err := service.Get(ctx, "size")
	require.NoError(t, err)
	assert.Equal(t, saved.Values, got.Values)

	_, err = service.Get(ctx, "style")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	publisher.AssertExpectations(t)
}

func TestPicklistService_SaveInvalid(t *testing.T) {
	service, _ := newPicklistService()

	_, err := service.Save(ctx, &models.Picklist{Values: []models.PicklistEntry{{Value: "x"}}})
	assert.ErrorIs(t, err, models.ErrMissingField)

	_, err = service.Save(ctx, &models.Picklist{ListName: "size", Values: []models.PicklistEntry{{Value: "  "}}})
	assert.ErrorIs(t, err, &models.FieldError{Kind: models.KindMissingField, Field: "values[0].value"})

	lists, err := service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestPicklistService_List(t *testing.T) {
	service, _ := newPicklistService()
	for _, name := range []string{"style", "location", "size"} {
		_, err := service.Save(ctx, &models.Picklist{ListName: name, Values: []models.PicklistEntry{{Value: "x"}}})
		require.NoError(t, err)
	}

	lists, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 3)
	assert.Equal(t, "location", lists[0].ListName)
	assert.Equal(t, "size", lists[1].ListName)
	assert.Equal(t, "style", lists[2].ListName)
}

func TestPicklistService_Suggest(t *testing.T) {
	service, records := newPicklistService()
	cellar := newCellarService(records)

	for _, loc := range []string{"Fridge", "Cellar"} {
		raw := duffLite()
		raw["location"] = loc
		raw["style"] = "Lager"
		_, err := cellar.CreateRecord(ctx, raw)
		require.NoError(t, err)
	}

	lists, err := service.Suggest(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 4)
	for _, l := range lists {
		if l.ListName == models.PicklistLocation {
			require.Len(t, l.Values, 2)
			assert.Equal(t, "Cellar", l.Values[0].Value)
		}
	}

	// Suggestions are not stored.
	stored, err := service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
