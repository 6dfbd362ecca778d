package models

import (
	"time"
)

// Field names as they appear in JSON payloads.
const (
	FieldID             = "id"
	FieldProducer       = "producer"
	FieldName           = "name"
	FieldYear           = "year"
	FieldSize           = "size"
	FieldLocation       = "location"
	FieldBatch          = "batch"
	FieldBottleDate     = "bottleDate"
	FieldQuantity       = "quantity"
	FieldQuantityCold   = "quantityCold"
	FieldStyle          = "style"
	FieldSpecificStyle  = "specificStyle"
	FieldForTrade       = "forTrade"
	FieldTradeValue     = "tradeValue"
	FieldAgingPotential = "agingPotential"
	FieldNote           = "note"
	FieldDateAdded      = "dateAdded"
	FieldLastModified   = "lastModified"
)

const (
	// IDSeparator joins the segments of a derived record id.
	IDSeparator = "_"
	// NoSuffix ends a derived id when neither bottle date nor batch is known.
	NoSuffix = "None"

	DefaultAgingPotential = 2
)

// RecordKey is the composite store key of a BeverageRecord: the hash key
// (ID) plus the range key (Location).
type RecordKey struct {
	ID       string `json:"id"`
	Location string `json:"location"`
}

// String renders the key for stores that only support flat string keys.
func (k RecordKey) String() string {
	return k.ID + "\x1f" + k.Location
}

// BeverageRecord is one bottle (or stack of bottles) of a beverage at a
// storage location.
type BeverageRecord struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(255)"`
	Location       string    `json:"location" gorm:"primaryKey;type:varchar(100)"`
	Producer       string    `json:"producer" gorm:"type:varchar(255);index:idx_producer_name"`
	Name           string    `json:"name" gorm:"type:varchar(255);index:idx_producer_name"`
	Year           int       `json:"year"`
	Size           string    `json:"size" gorm:"type:varchar(50)"`
	Batch          *int      `json:"batch,omitempty"`
	BottleDate     *string   `json:"bottleDate,omitempty" gorm:"type:varchar(10)"`
	Quantity       int       `json:"quantity"`
	QuantityCold   int       `json:"quantityCold"`
	Style          *string   `json:"style,omitempty"`
	SpecificStyle  *string   `json:"specificStyle,omitempty"`
	ForTrade       bool      `json:"forTrade"`
	TradeValue     float64   `json:"tradeValue"`
	AgingPotential float64   `json:"agingPotential"`
	Note           *string   `json:"note,omitempty"`
	DateAdded      time.Time `json:"dateAdded"`
	LastModified   time.Time `json:"lastModified"`
}

// TableName keeps the table name of the original deployment.
func (BeverageRecord) TableName() string {
	return "cellar"
}

// Clone returns a copy of r that shares no pointers with it.
func (r *BeverageRecord) Clone() BeverageRecord {
	c := *r
	c.Batch = clonePtr(r.Batch)
	c.BottleDate = clonePtr(r.BottleDate)
	c.Style = clonePtr(r.Style)
	c.SpecificStyle = clonePtr(r.SpecificStyle)
	c.Note = clonePtr(r.Note)
	return c
}

func clonePtr[V any](p *V) *V {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Key returns the composite store key of the record.
func (r *BeverageRecord) Key() RecordKey {
	return RecordKey{ID: r.ID, Location: r.Location}
}
