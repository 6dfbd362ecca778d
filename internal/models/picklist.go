package models

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Names of the picklists SuggestPicklists derives from the cellar.
const (
	PicklistLocation      = "location"
	PicklistSize          = "size"
	PicklistStyle         = "style"
	PicklistSpecificStyle = "specificStyle"
)

// PicklistEntry is one allowed value of a categorical field. DependentValues
// constrains a second field (a style lists its specific styles).
type PicklistEntry struct {
	Value           string   `json:"value" yaml:"value" validate:"required"`
	DependentValues []string `json:"dependentValues,omitempty" yaml:"dependentValues,omitempty" validate:"omitempty,dive,required"`
	DisplayOrder    *int     `json:"displayOrder,omitempty" yaml:"displayOrder,omitempty" validate:"omitempty,gte=0"`
}

// Picklist is the ordered list of allowed values for one field.
type Picklist struct {
	ListName     string          `json:"listName" yaml:"listName" gorm:"primaryKey;type:varchar(100)" validate:"required,max=100"`
	Values       []PicklistEntry `json:"values" yaml:"values" gorm:"serializer:json" validate:"dive"`
	LastModified time.Time       `json:"lastModified" yaml:"-"`
}

// Clone returns a copy of p whose entries share no memory with it.
func (p *Picklist) Clone() Picklist {
	c := *p
	if p.Values != nil {
		c.Values = make([]PicklistEntry, len(p.Values))
		for i, e := range p.Values {
			e.DependentValues = slices.Clone(e.DependentValues)
			e.DisplayOrder = clonePtr(e.DisplayOrder)
			c.Values[i] = e
		}
	}
	return c
}

// TableName keeps the table name of the original deployment.
func (Picklist) TableName() string {
	return "cellar_picklists"
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidatePicklist checks a picklist payload. Failures come back as
// FieldErrors naming the offending path, e.g. "values[2].value".
func ValidatePicklist(p *Picklist) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate picklist: %w", err)
	}
	e := verrs[0]
	field := e.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	if e.Tag() == "required" {
		return missingField(field)
	}
	return invalidType(field, fmt.Sprintf("failed on the '%s' rule", e.Tag()))
}

// PicklistEntryOutput is the wire form of a PicklistEntry.
type PicklistEntryOutput struct {
	Value           string   `json:"value"`
	DependentValues []string `json:"dependentValues"`
	DisplayOrder    *int     `json:"displayOrder"`
}

// PicklistOutput is the wire form of a Picklist.
type PicklistOutput struct {
	ListName     string                `json:"listName"`
	Values       []PicklistEntryOutput `json:"values"`
	LastModified any                   `json:"lastModified"`
}

// ProjectPicklist renders a picklist, keeping value order.
func ProjectPicklist(p *Picklist, datesAsEpoch bool) PicklistOutput {
	values := make([]PicklistEntryOutput, 0, len(p.Values))
	for _, v := range p.Values {
		values = append(values, PicklistEntryOutput(v))
	}
	return PicklistOutput{
		ListName:     p.ListName,
		Values:       values,
		LastModified: projectTime(p.LastModified, datesAsEpoch),
	}
}

// ProjectPicklists renders picklists in input order.
func ProjectPicklists(lists []Picklist, datesAsEpoch bool) []PicklistOutput {
	out := make([]PicklistOutput, 0, len(lists))
	for i := range lists {
		out = append(out, ProjectPicklist(&lists[i], datesAsEpoch))
	}
	return out
}

// SuggestPicklists collects the distinct locations, sizes, styles and
// specific styles in use. Specific styles are also attached to their style
// as dependent values. LastModified is the newest record's.
func SuggestPicklists(recs []BeverageRecord) []Picklist {
	lists := []*distinct{
		newDistinct(PicklistLocation),
		newDistinct(PicklistSize),
		newDistinct(PicklistStyle),
		newDistinct(PicklistSpecificStyle),
	}
	location, size, style, specific := lists[0], lists[1], lists[2], lists[3]

	var newest time.Time
	for i := range recs {
		rec := &recs[i]
		if rec.LastModified.After(newest) {
			newest = rec.LastModified
		}
		location.add(rec.Location)
		size.add(rec.Size)
		if rec.SpecificStyle != nil {
			specific.add(*rec.SpecificStyle)
		}
		if rec.Style != nil {
			e := style.add(*rec.Style)
			if rec.SpecificStyle != nil {
				e.addDependent(*rec.SpecificStyle)
			}
		}
	}

	out := make([]Picklist, 0, len(lists))
	for _, d := range lists {
		p := Picklist{ListName: d.name, Values: make([]PicklistEntry, 0, len(d.entries)), LastModified: newest}
		for i, e := range d.entries {
			order := i
			p.Values = append(p.Values, PicklistEntry{
				Value:           e.value,
				DependentValues: e.dependents,
				DisplayOrder:    &order,
			})
		}
		out = append(out, p)
	}
	return out
}

type distinct struct {
	name    string
	index   map[string]int
	entries []*distinctEntry
}

type distinctEntry struct {
	value      string
	dependents []string
	seen       map[string]bool
}

func newDistinct(name string) *distinct {
	return &distinct{name: name, index: make(map[string]int)}
}

func (d *distinct) add(value string) *distinctEntry {
	if i, ok := d.index[value]; ok {
		return d.entries[i]
	}
	d.index[value] = len(d.entries)
	e := &distinctEntry{value: value, seen: make(map[string]bool)}
	d.entries = append(d.entries, e)
	return e
}

func (e *distinctEntry) addDependent(value string) {
	if e.seen[value] {
		return
	}
	e.seen[value] = true
	e.dependents = append(e.dependents, value)
}
