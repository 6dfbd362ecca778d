package models

import (
	"strconv"
	"strings"
	"time"
)

// DecodeOptions tune how DecodeBeverage treats identifiers and timestamps.
type DecodeOptions struct {
	// NeedsID derives the composite id even when the input carries one.
	NeedsID bool
	// PreserveLastModified keeps a supplied lastModified instead of
	// stamping the record with the current time. Used by bulk imports,
	// copies and restores.
	PreserveLastModified bool
	// Now replaces time.Now.
	Now func() time.Time
}

func (o DecodeOptions) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

// requiredFields are checked in this order before anything else happens.
var requiredFields = []string{FieldProducer, FieldName, FieldYear, FieldSize, FieldLocation}

// fieldAliases maps the snake_case names used by the CSV exports and older
// payloads onto the canonical field names.
var fieldAliases = map[string]string{
	"brewery":         FieldProducer,
	"beer_id":         FieldID,
	"beverage_id":     FieldID,
	"batch_str":       FieldBatch,
	"bottle_date":     FieldBottleDate,
	"qty":             FieldQuantity,
	"qty_cold":        FieldQuantityCold,
	"quantity_cold":   FieldQuantityCold,
	"specific_style":  FieldSpecificStyle,
	"substyle":        FieldSpecificStyle,
	"for_trade":       FieldForTrade,
	"trade_value":     FieldTradeValue,
	"aging_potential": FieldAgingPotential,
	"date_added":      FieldDateAdded,
	"last_modified":   FieldLastModified,
}

// canonicalFields resolves aliases. A canonical key always wins over an
// alias carrying the same field.
func canonicalFields(raw map[string]any) map[string]any {
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		if _, alias := fieldAliases[k]; !alias {
			fields[k] = v
		}
	}
	for k, v := range raw {
		canonical, alias := fieldAliases[k]
		if !alias {
			continue
		}
		if _, exists := fields[canonical]; !exists {
			fields[canonical] = v
		}
	}
	return fields
}

// DecodeBeverage validates a loosely typed input map and turns it into a
// canonical record. It never touches a store.
func DecodeBeverage(raw map[string]any, opts DecodeOptions) (*BeverageRecord, error) {
	fields := canonicalFields(raw)

	for _, field := range requiredFields {
		if blank(fields[field]) {
			return nil, missingField(field)
		}
	}

	rec := &BeverageRecord{}
	var err error
	if rec.Producer, err = requiredString(fields, FieldProducer); err != nil {
		return nil, err
	}
	if rec.Name, err = requiredString(fields, FieldName); err != nil {
		return nil, err
	}
	if rec.Size, err = requiredString(fields, FieldSize); err != nil {
		return nil, err
	}
	if rec.Location, err = requiredString(fields, FieldLocation); err != nil {
		return nil, err
	}

	// Numeric coercions.
	year, ok := toInt(fields[FieldYear])
	if !ok {
		return nil, invalidType(FieldYear, "Year must be an integer")
	}
	rec.Year = year

	if !blank(fields[FieldBatch]) {
		batch, ok := toInt(fields[FieldBatch])
		if !ok {
			return nil, invalidType(FieldBatch, "Batch must be an integer")
		}
		rec.Batch = &batch
	}
	if rec.Quantity, err = optionalInt(fields, FieldQuantity, "Quantity must be an integer"); err != nil {
		return nil, err
	}
	if rec.QuantityCold, err = optionalInt(fields, FieldQuantityCold, "Cold quantity must be an integer"); err != nil {
		return nil, err
	}
	if rec.TradeValue, err = optionalFloat(fields, FieldTradeValue, 0); err != nil {
		return nil, err
	}
	if rec.AgingPotential, err = optionalFloat(fields, FieldAgingPotential, DefaultAgingPotential); err != nil {
		return nil, err
	}

	rec.ForTrade = true
	if !blank(fields[FieldForTrade]) {
		forTrade, ok := toBool(fields[FieldForTrade])
		if !ok {
			return nil, invalidType(FieldForTrade, "For trade must be a boolean")
		}
		rec.ForTrade = forTrade
	}

	for _, opt := range []struct {
		field string
		dst   **string
	}{
		{FieldBottleDate, &rec.BottleDate},
		{FieldStyle, &rec.Style},
		{FieldSpecificStyle, &rec.SpecificStyle},
		{FieldNote, &rec.Note},
	} {
		if *opt.dst, err = optionalString(fields, opt.field); err != nil {
			return nil, err
		}
	}

	// Identifier, built from the coerced values so that 2013, "2013" and
	// 2013.0 name the same record.
	if id, ok := scalarString(fields[FieldID]); ok && id != "" && !opts.NeedsID {
		rec.ID = id
	} else {
		rec.ID = composeID(rec.Producer, rec.Name, rec.Year, rec.Size, rec.BottleDate, rec.Batch)
	}

	// Timestamps. dateAdded falls back to the lastModified resolved first,
	// and the ordering fix-up has to run after both are known.
	now := opts.now()
	rec.LastModified = now
	if v := fields[FieldLastModified]; !blank(v) {
		t, err := ParseTimestamp(v)
		if err != nil {
			return nil, invalidType(FieldLastModified, "Last modified must be epoch milliseconds or an ISO-8601 string")
		}
		if opts.PreserveLastModified {
			rec.LastModified = t
		}
	}
	rec.DateAdded = rec.LastModified
	if v := fields[FieldDateAdded]; !blank(v) {
		t, err := ParseTimestamp(v)
		if err != nil {
			return nil, invalidType(FieldDateAdded, "Date added must be epoch milliseconds or an ISO-8601 string")
		}
		rec.DateAdded = t
	}
	if rec.DateAdded.After(rec.LastModified) {
		rec.LastModified = rec.DateAdded
	}

	return rec, nil
}

// DeriveID builds the composite id for an input that does not carry one.
func DeriveID(raw map[string]any) (string, error) {
	fields := canonicalFields(raw)
	for _, field := range []string{FieldProducer, FieldName, FieldYear, FieldSize} {
		if blank(fields[field]) {
			return "", missingField(field)
		}
	}

	producer, err := requiredString(fields, FieldProducer)
	if err != nil {
		return "", err
	}
	name, err := requiredString(fields, FieldName)
	if err != nil {
		return "", err
	}
	size, err := requiredString(fields, FieldSize)
	if err != nil {
		return "", err
	}
	year, ok := toInt(fields[FieldYear])
	if !ok {
		return "", invalidType(FieldYear, "Year must be an integer")
	}
	var batch *int
	if !blank(fields[FieldBatch]) {
		b, ok := toInt(fields[FieldBatch])
		if !ok {
			return "", invalidType(FieldBatch, "Batch must be an integer")
		}
		batch = &b
	}
	bottleDate, err := optionalString(fields, FieldBottleDate)
	if err != nil {
		return "", err
	}
	return composeID(producer, name, year, size, bottleDate, batch), nil
}

// composeID joins producer, name, year and size with the bottle date, the
// batch, or NoSuffix, in that order of preference.
func composeID(producer, name string, year int, size string, bottleDate *string, batch *int) string {
	suffix := NoSuffix
	switch {
	case bottleDate != nil:
		suffix = *bottleDate
	case batch != nil:
		suffix = strconv.Itoa(*batch)
	}
	return strings.Join([]string{producer, name, strconv.Itoa(year), size, suffix}, IDSeparator)
}

func requiredString(fields map[string]any, field string) (string, error) {
	s, ok := scalarString(fields[field])
	if !ok {
		return "", invalidType(field, field+" must be a string")
	}
	return s, nil
}

func optionalString(fields map[string]any, field string) (*string, error) {
	v := fields[field]
	if blank(v) {
		return nil, nil
	}
	s, ok := scalarString(v)
	if !ok {
		return nil, invalidType(field, field+" must be a string")
	}
	return &s, nil
}

func optionalInt(fields map[string]any, field, message string) (int, error) {
	v := fields[field]
	if blank(v) {
		return 0, nil
	}
	i, ok := toInt(v)
	if !ok {
		return 0, invalidType(field, message)
	}
	return i, nil
}

func optionalFloat(fields map[string]any, field string, fallback float64) (float64, error) {
	v := fields[field]
	if blank(v) {
		return fallback, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, invalidType(field, field+" must be a number")
	}
	return f, nil
}
