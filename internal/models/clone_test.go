package models_test

import (
	"testing"

	"cellar/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBeverageRecord_Clone(t *testing.T) {
	batch, note := 3, "salty"
	rec := models.BeverageRecord{ID: "a", Location: "Cellar", Batch: &batch, Note: &note}

	c := rec.Clone()
	assert.Equal(t, rec, c)
	*c.Batch = 4
	*c.Note = "sweet"
	assert.Equal(t, 3, *rec.Batch)
	assert.Equal(t, "salty", *rec.Note)
	assert.Nil(t, c.Style)
}

func TestPicklist_Clone(t *testing.T) {
	order := 1
	p := models.Picklist{ListName: "style", Values: []models.PicklistEntry{
		{Value: "Sour", DependentValues: []string{"Gose"}, DisplayOrder: &order},
	}}

	c := p.Clone()
	assert.Equal(t, p, c)
	c.Values[0].DependentValues[0] = "Kriek"
	*c.Values[0].DisplayOrder = 5
	assert.Equal(t, "Gose", p.Values[0].DependentValues[0])
	assert.Equal(t, 1, order)

	assert.Nil(t, (&models.Picklist{ListName: "size"}).Clone().Values)
}
