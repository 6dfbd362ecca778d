package models

// BeverageOutput is the wire form of a BeverageRecord. Optional fields are
// pointers so that an absent value renders as null while 0 and false still
// render as themselves.
type BeverageOutput struct {
	ID             string  `json:"id"`
	Producer       string  `json:"producer"`
	Name           string  `json:"name"`
	Year           int     `json:"year"`
	Size           string  `json:"size"`
	Location       string  `json:"location"`
	Batch          *int    `json:"batch"`
	BottleDate     *string `json:"bottleDate"`
	Quantity       int     `json:"quantity"`
	QuantityCold   int     `json:"quantityCold"`
	Style          *string `json:"style"`
	SpecificStyle  *string `json:"specificStyle"`
	ForTrade       bool    `json:"forTrade"`
	TradeValue     float64 `json:"tradeValue"`
	AgingPotential float64 `json:"agingPotential"`
	Note           *string `json:"note"`
	DateAdded      any     `json:"dateAdded"`
	LastModified   any     `json:"lastModified"`
}

// ProjectBeverage renders a record. With datesAsEpoch the timestamps are
// epoch milliseconds, otherwise strings in TimestampLayout.
func ProjectBeverage(rec *BeverageRecord, datesAsEpoch bool) BeverageOutput {
	return BeverageOutput{
		ID:             rec.ID,
		Producer:       rec.Producer,
		Name:           rec.Name,
		Year:           rec.Year,
		Size:           rec.Size,
		Location:       rec.Location,
		Batch:          rec.Batch,
		BottleDate:     rec.BottleDate,
		Quantity:       rec.Quantity,
		QuantityCold:   rec.QuantityCold,
		Style:          rec.Style,
		SpecificStyle:  rec.SpecificStyle,
		ForTrade:       rec.ForTrade,
		TradeValue:     rec.TradeValue,
		AgingPotential: rec.AgingPotential,
		Note:           rec.Note,
		DateAdded:      projectTime(rec.DateAdded, datesAsEpoch),
		LastModified:   projectTime(rec.LastModified, datesAsEpoch),
	}
}

// ProjectBeverages renders records in input order.
func ProjectBeverages(recs []BeverageRecord, datesAsEpoch bool) []BeverageOutput {
	out := make([]BeverageOutput, 0, len(recs))
	for i := range recs {
		out = append(out, ProjectBeverage(&recs[i], datesAsEpoch))
	}
	return out
}
