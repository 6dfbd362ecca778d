package models

import (
	"fmt"
	"time"
)

// VintageLocation is where the bottles of one vintage are kept.
type VintageLocation struct {
	Name         string
	Quantity     int
	QuantityCold int
	Note         *string
	DisplayOrder int
}

// Vintage groups the locations holding the same record id.
type Vintage struct {
	ID             string
	Year           int
	Size           string
	BottleDate     *string
	Batch          *int
	ForTrade       bool
	TradeValue     float64
	AgingPotential float64
	DisplayOrder   int
	DateAdded      time.Time
	LastModified   time.Time
	Locations      []VintageLocation
}

// Beverage is a producer and name with every vintage held of it. The tree
// is a strict ownership tree: nothing below a Beverage is shared.
type Beverage struct {
	Producer      string
	Name          string
	Style         *string
	SpecificStyle *string
	DateAdded     time.Time
	LastModified  time.Time
	Vintages      []Vintage
}

// BuildHierarchy groups flat records into beverages, vintages and locations.
// Every level keeps the order in which its first record appears.
func BuildHierarchy(recs []BeverageRecord) []Beverage {
	var beverages []Beverage
	beverageIdx := make(map[[2]string]int)
	vintageIdx := make(map[[2]string]map[string]int)

	for i := range recs {
		rec := &recs[i]
		bk := [2]string{rec.Producer, rec.Name}
		bi, ok := beverageIdx[bk]
		if !ok {
			bi = len(beverages)
			beverageIdx[bk] = bi
			vintageIdx[bk] = make(map[string]int)
			beverages = append(beverages, Beverage{
				Producer:      rec.Producer,
				Name:          rec.Name,
				Style:         rec.Style,
				SpecificStyle: rec.SpecificStyle,
				DateAdded:     rec.DateAdded,
				LastModified:  rec.LastModified,
			})
		}
		bev := &beverages[bi]
		widenSpan(&bev.DateAdded, &bev.LastModified, rec)

		vi, ok := vintageIdx[bk][rec.ID]
		if !ok {
			vi = len(bev.Vintages)
			vintageIdx[bk][rec.ID] = vi
			bev.Vintages = append(bev.Vintages, Vintage{
				ID:             rec.ID,
				Year:           rec.Year,
				Size:           rec.Size,
				BottleDate:     rec.BottleDate,
				Batch:          rec.Batch,
				ForTrade:       rec.ForTrade,
				TradeValue:     rec.TradeValue,
				AgingPotential: rec.AgingPotential,
				DisplayOrder:   vi,
				DateAdded:      rec.DateAdded,
				LastModified:   rec.LastModified,
			})
		}
		vin := &bev.Vintages[vi]
		widenSpan(&vin.DateAdded, &vin.LastModified, rec)
		vin.Locations = append(vin.Locations, VintageLocation{
			Name:         rec.Location,
			Quantity:     rec.Quantity,
			QuantityCold: rec.QuantityCold,
			Note:         rec.Note,
			DisplayOrder: len(vin.Locations),
		})
	}
	return beverages
}

func widenSpan(added, modified *time.Time, rec *BeverageRecord) {
	if rec.DateAdded.Before(*added) {
		*added = rec.DateAdded
	}
	if rec.LastModified.After(*modified) {
		*modified = rec.LastModified
	}
}

// DecodeBeverageTree builds every record of one beverage from a nested
// payload: beverage fields at the top, a "vintages" list, and a "locations"
// list inside each vintage. Each location becomes one record and goes
// through DecodeBeverage, so the same rules apply as for flat input.
func DecodeBeverageTree(raw map[string]any, opts DecodeOptions) ([]BeverageRecord, error) {
	vintages, err := childMaps(raw, "vintages")
	if err != nil {
		return nil, err
	}

	var recs []BeverageRecord
	seen := make(map[RecordKey]bool)
	for vi, vintage := range vintages {
		locations, err := childMaps(vintage, "locations")
		if err != nil {
			return nil, fmt.Errorf("vintage %d: %w", vi, err)
		}
		for li, location := range locations {
			flat := make(map[string]any, len(raw)+len(vintage)+len(location))
			for k, v := range raw {
				if k != "vintages" {
					flat[k] = v
				}
			}
			for k, v := range vintage {
				if k != "locations" {
					flat[k] = v
				}
			}
			for k, v := range location {
				if k == FieldName {
					k = FieldLocation
				}
				flat[k] = v
			}
			rec, err := DecodeBeverage(flat, opts)
			if err != nil {
				return nil, fmt.Errorf("vintage %d location %d: %w", vi, li, err)
			}
			if seen[rec.Key()] {
				return nil, fmt.Errorf("vintage %d location %d: %w", vi, li,
					invalidType("locations", fmt.Sprintf("location %q is listed twice for %s", rec.Location, rec.ID)))
			}
			seen[rec.Key()] = true
			recs = append(recs, *rec)
		}
	}
	return recs, nil
}

func childMaps(parent map[string]any, field string) ([]map[string]any, error) {
	v, ok := parent[field]
	if !ok || v == nil {
		return nil, missingField(field)
	}
	items, ok := v.([]any)
	if !ok {
		return nil, invalidType(field, field+" must be a list")
	}
	if len(items) == 0 {
		return nil, missingField(field)
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, invalidType(field, field+" entries must be objects")
		}
		out = append(out, m)
	}
	return out, nil
}

// LocationOutput is the wire form of a VintageLocation.
type LocationOutput struct {
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	QuantityCold int     `json:"quantityCold"`
	Note         *string `json:"note"`
	DisplayOrder int     `json:"displayOrder"`
}

// VintageOutput is the wire form of a Vintage.
type VintageOutput struct {
	ID             string           `json:"id"`
	Year           int              `json:"year"`
	Size           string           `json:"size"`
	BottleDate     *string          `json:"bottleDate"`
	Batch          *int             `json:"batch"`
	ForTrade       bool             `json:"forTrade"`
	TradeValue     float64          `json:"tradeValue"`
	AgingPotential float64          `json:"agingPotential"`
	DisplayOrder   int              `json:"displayOrder"`
	DateAdded      any              `json:"dateAdded"`
	LastModified   any              `json:"lastModified"`
	Locations      []LocationOutput `json:"locations"`
}

// BeverageTreeOutput is the wire form of a Beverage.
type BeverageTreeOutput struct {
	Producer      string          `json:"producer"`
	Name          string          `json:"name"`
	Style         *string         `json:"style"`
	SpecificStyle *string         `json:"specificStyle"`
	DateAdded     any             `json:"dateAdded"`
	LastModified  any             `json:"lastModified"`
	Vintages      []VintageOutput `json:"vintages"`
}

// ProjectHierarchy renders beverages and, recursively, their vintages and
// locations.
func ProjectHierarchy(beverages []Beverage, datesAsEpoch bool) []BeverageTreeOutput {
	out := make([]BeverageTreeOutput, 0, len(beverages))
	for _, bev := range beverages {
		vintages := make([]VintageOutput, 0, len(bev.Vintages))
		for _, vin := range bev.Vintages {
			locations := make([]LocationOutput, 0, len(vin.Locations))
			for _, loc := range vin.Locations {
				locations = append(locations, LocationOutput(loc))
			}
			vintages = append(vintages, VintageOutput{
				ID:             vin.ID,
				Year:           vin.Year,
				Size:           vin.Size,
				BottleDate:     vin.BottleDate,
				Batch:          vin.Batch,
				ForTrade:       vin.ForTrade,
				TradeValue:     vin.TradeValue,
				AgingPotential: vin.AgingPotential,
				DisplayOrder:   vin.DisplayOrder,
				DateAdded:      projectTime(vin.DateAdded, datesAsEpoch),
				LastModified:   projectTime(vin.LastModified, datesAsEpoch),
				Locations:      locations,
			})
		}
		out = append(out, BeverageTreeOutput{
			Producer:      bev.Producer,
			Name:          bev.Name,
			Style:         bev.Style,
			SpecificStyle: bev.SpecificStyle,
			DateAdded:     projectTime(bev.DateAdded, datesAsEpoch),
			LastModified:  projectTime(bev.LastModified, datesAsEpoch),
			Vintages:      vintages,
		})
	}
	return out
}
