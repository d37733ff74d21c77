// Package property defines the read-only property projection the search core
// operates over. Records are owned by the external store; nothing here
// mutates them.
package property

import (
	"fmt"
	"strings"
)

// Type is a closed property type enum. Unknown inputs map to TypeOther so the
// facet and display tables stay exhaustive.
type Type string

// Property types.
const (
	TypeApartment  Type = "APARTMENT"
	TypeHouse      Type = "HOUSE"
	TypeCondo      Type = "CONDO"
	TypeTownhouse  Type = "TOWNHOUSE"
	TypeStudio     Type = "STUDIO"
	TypeLoft       Type = "LOFT"
	TypePenthouse  Type = "PENTHOUSE"
	TypeVilla      Type = "VILLA"
	TypeCommercial Type = "COMMERCIAL"
	TypeOffice     Type = "OFFICE"
	TypeRetail     Type = "RETAIL"
	TypeWarehouse  Type = "WAREHOUSE"
	TypeLand       Type = "LAND"
	TypeFarm       Type = "FARM"
	TypeOther      Type = "OTHER"
)

// Types lists all property types in display order.
var Types = []Type{
	TypeApartment, TypeHouse, TypeCondo, TypeTownhouse, TypeStudio,
	TypeLoft, TypePenthouse, TypeVilla, TypeCommercial, TypeOffice,
	TypeRetail, TypeWarehouse, TypeLand, TypeFarm, TypeOther,
}

// IsValid reports whether t is a known property type.
func (t Type) IsValid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// ParseType normalizes s into a Type. Unknown values return TypeOther and an
// error so lenient callers can drop the field while strict callers reject.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return TypeOther, fmt.Errorf("unknown property type %q", s)
	}
	return t, nil
}

// Operation is the listing operation a property is offered under.
type Operation string

// Operations.
const (
	OperationRent Operation = "RENT"
	OperationSale Operation = "SALE"
	OperationBoth Operation = "BOTH"
)

// Operations lists all operations in display order.
var Operations = []Operation{OperationRent, OperationSale, OperationBoth}

// IsValid reports whether o is a known operation.
func (o Operation) IsValid() bool {
	return o == OperationRent || o == OperationSale || o == OperationBoth
}

// ParseOperation normalizes s into an Operation.
func ParseOperation(s string) (Operation, error) {
	o := Operation(strings.ToUpper(strings.TrimSpace(s)))
	if !o.IsValid() {
		return "", fmt.Errorf("unknown operation type %q", s)
	}
	return o, nil
}

// Property is the store-owned projection used by search, facets and the quiz.
type Property struct {
	ID          string
	Title       string
	Description string
	Type        Type
	Operation   Operation
	Status      string
	City        string
	State       string
	Country     string
	Latitude    *float64
	Longitude   *float64
	Bedrooms    int
	Bathrooms   int
	Area        float64
	RentPrice   float64
	SalePrice   float64
	Currency    string
	Features    []string
	IsFeatured  bool
	IsVerified  bool
}

// HasCoordinates reports whether both latitude and longitude are present.
// Records without coordinates never match a geo-constrained query.
func (p *Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// PriceFor returns the price field the given operation filters against.
// For OperationBoth (or unset) the caller matches either field instead.
func (p *Property) PriceFor(op Operation) float64 {
	if op == OperationRent {
		return p.RentPrice
	}
	return p.SalePrice
}

// HasFeature reports whether the property carries the named feature tag.
func (p *Property) HasFeature(feature string) bool {
	for _, f := range p.Features {
		if strings.EqualFold(f, feature) {
			return true
		}
	}
	return false
}
