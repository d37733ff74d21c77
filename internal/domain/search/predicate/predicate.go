// Package predicate compiles a Criteria value into the store-evaluable query
// form and the equivalent in-memory predicate. Both views express the same
// conjunction; the facet working set and the geo post-filter rely on them
// agreeing.
package predicate

import (
	"strings"

	"github.com/propfind/searchcore/internal/domain/geo"
	"github.com/propfind/searchcore/internal/domain/search/criteria"
	"github.com/propfind/searchcore/internal/domain/property"
)

// Indexed field names shared by the compiler, the store index schema and the
// record mapping.
const (
	FieldID           = "id"
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldPropertyType = "property_type"
	FieldOperation    = "operation_type"
	FieldStatus       = "status"
	FieldCity         = "city"
	FieldState        = "state"
	FieldCountry      = "country"
	FieldLatitude     = "latitude"
	FieldLongitude    = "longitude"
	FieldBedrooms     = "bedrooms"
	FieldBathrooms    = "bathrooms"
	FieldArea         = "area"
	FieldRentPrice    = "rent_price"
	FieldSalePrice    = "sale_price"
	FieldCurrency     = "currency"
	FieldFeatures     = "features"
	FieldFeatured     = "is_featured"
	FieldVerified     = "is_verified"
)

// TagSet is an exact-match clause: the field's value must be in the set.
// Tag matching is case-insensitive on both the store and in-memory paths.
type TagSet struct {
	field  string
	values []string
}

// Field returns the indexed field name.
func (t TagSet) Field() string { return t.field }

// Values returns the accepted values.
func (t TagSet) Values() []string { return t.values }

// NumRange is an inclusive numeric range clause. Nil bounds are open.
type NumRange struct {
	field string
	min   *float64
	max   *float64
}

// Field returns the indexed field name.
func (r NumRange) Field() string { return r.field }

// Min returns the inclusive lower bound.
func (r NumRange) Min() *float64 { return r.min }

// Max returns the inclusive upper bound.
func (r NumRange) Max() *float64 { return r.max }

// Contains reports whether v satisfies the range.
func (r NumRange) Contains(v float64) bool {
	if r.min != nil && v < *r.min {
		return false
	}
	if r.max != nil && v > *r.max {
		return false
	}
	return true
}

// Predicate is the compiled, side-effect-free form of a Criteria: a
// conjunction of tag, range and text clauses plus an optional geo constraint
// and explicit pagination offsets.
type Predicate struct {
	tags       []TagSet
	ranges     []NumRange
	anyRange   []NumRange // disjunction group: at least one must hold
	text       string
	geoFilter  *criteria.GeoFilter
	box        *geo.BoundingBox
	impossible bool
	skip       int
	take       int
}

// Compile translates criteria into a predicate. Fields absent from the
// criteria impose no constraint; an inverted price or area band marks the
// predicate impossible instead of failing.
func Compile(c criteria.Criteria) Predicate {
	p := Predicate{
		skip:       c.Skip(),
		take:       c.Limit(),
		impossible: c.Impossible(),
	}

	if op := c.Operation(); op == property.OperationRent || op == property.OperationSale {
		// A BOTH listing serves either operation.
		p.tags = append(p.tags, TagSet{
			field:  FieldOperation,
			values: []string{string(op), string(property.OperationBoth)},
		})
	}

	if types := c.PropertyTypes(); len(types) > 0 {
		values := make([]string, len(types))
		for i, t := range types {
			values[i] = string(t)
		}
		p.tags = append(p.tags, TagSet{field: FieldPropertyType, values: values})
	}

	locations := []struct {
		field string
		value string
	}{
		{FieldCity, c.City()},
		{FieldState, c.State()},
		{FieldCountry, c.Country()},
	}
	for _, loc := range locations {
		if loc.value != "" {
			p.tags = append(p.tags, TagSet{field: loc.field, values: []string{loc.value}})
		}
	}

	// Each required feature is its own clause: the record must carry all.
	for _, feature := range c.Features() {
		if feature != "" {
			p.tags = append(p.tags, TagSet{field: FieldFeatures, values: []string{feature}})
		}
	}

	if c.IsFeatured() != nil {
		p.tags = append(p.tags, TagSet{field: FieldFeatured, values: []string{boolTag(*c.IsFeatured())}})
	}
	if c.IsVerified() != nil {
		p.tags = append(p.tags, TagSet{field: FieldVerified, values: []string{boolTag(*c.IsVerified())}})
	}

	p.compilePriceBand(c)

	if c.MinArea() != nil || c.MaxArea() != nil {
		p.ranges = append(p.ranges, NumRange{field: FieldArea, min: c.MinArea(), max: c.MaxArea()})
	}
	if n := c.Bedrooms(); n != nil {
		p.ranges = append(p.ranges, exactRange(FieldBedrooms, float64(*n)))
	}
	if n := c.Bathrooms(); n != nil {
		p.ranges = append(p.ranges, exactRange(FieldBathrooms, float64(*n)))
	}

	p.text = strings.TrimSpace(c.Query())

	if g := c.Geo(); g != nil {
		box := geo.NewBoundingBox(g.Latitude, g.Longitude, g.RadiusKm)
		p.geoFilter = g
		p.box = &box
	}

	return p
}

// compilePriceBand maps the price band onto the operation's price field: RENT
// against rent_price, SALE against sale_price, unset/BOTH against either.
func (p *Predicate) compilePriceBand(c criteria.Criteria) {
	minP, maxP := c.MinPrice(), c.MaxPrice()
	if minP == nil && maxP == nil {
		return
	}

	switch c.Operation() {
	case property.OperationRent:
		p.ranges = append(p.ranges, NumRange{field: FieldRentPrice, min: minP, max: maxP})
	case property.OperationSale:
		p.ranges = append(p.ranges, NumRange{field: FieldSalePrice, min: minP, max: maxP})
	default:
		p.anyRange = []NumRange{
			{field: FieldRentPrice, min: minP, max: maxP},
			{field: FieldSalePrice, min: minP, max: maxP},
		}
	}
}

// Tags returns the exact-match clauses.
func (p Predicate) Tags() []TagSet { return p.tags }

// Ranges returns the numeric range clauses.
func (p Predicate) Ranges() []NumRange { return p.ranges }

// AnyRange returns the disjunctive range group (empty when unused).
func (p Predicate) AnyRange() []NumRange { return p.anyRange }

// Text returns the free-text clause.
func (p Predicate) Text() string { return p.text }

// GeoFilter returns the exact geo-radius constraint.
func (p Predicate) GeoFilter() *criteria.GeoFilter { return p.geoFilter }

// BoundingBox returns the rectangular pre-filter derived from the geo
// constraint. It is an optimization only, never the final decision.
func (p Predicate) BoundingBox() *geo.BoundingBox { return p.box }

// Impossible reports whether the predicate can never match.
func (p Predicate) Impossible() bool { return p.impossible }

// Skip returns the pagination offset.
func (p Predicate) Skip() int { return p.skip }

// Take returns the page size.
func (p Predicate) Take() int { return p.take }

// HasGeo reports whether a geo-radius constraint is present.
func (p Predicate) HasGeo() bool { return p.geoFilter != nil }

// Matches evaluates the predicate against a property in memory, including the
// exact geo-radius test. It agrees with the compiled store query clause for
// clause; the geo post-filter and the facet working set depend on that.
func (p Predicate) Matches(rec *property.Property) bool {
	if p.impossible {
		return false
	}

	for _, tag := range p.tags {
		if !matchTag(rec, tag) {
			return false
		}
	}

	for _, r := range p.ranges {
		v, ok := numericValue(rec, r.field)
		if !ok || !r.Contains(v) {
			return false
		}
	}

	if len(p.anyRange) > 0 {
		any := false
		for _, r := range p.anyRange {
			if v, ok := numericValue(rec, r.field); ok && r.Contains(v) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}

	if p.text != "" && !matchText(rec, p.text) {
		return false
	}

	if g := p.geoFilter; g != nil {
		if !geo.WithinRadius(rec, g.Latitude, g.Longitude, g.RadiusKm) {
			return false
		}
	}

	return true
}

func matchTag(rec *property.Property, tag TagSet) bool {
	if tag.field == FieldFeatures {
		for _, v := range tag.values {
			if rec.HasFeature(v) {
				return true
			}
		}
		return false
	}

	actual := tagValue(rec, tag.field)
	for _, v := range tag.values {
		if strings.EqualFold(actual, v) {
			return true
		}
	}
	return false
}

func tagValue(rec *property.Property, field string) string {
	switch field {
	case FieldPropertyType:
		return string(rec.Type)
	case FieldOperation:
		return string(rec.Operation)
	case FieldStatus:
		return rec.Status
	case FieldCity:
		return rec.City
	case FieldState:
		return rec.State
	case FieldCountry:
		return rec.Country
	case FieldFeatured:
		return boolTag(rec.IsFeatured)
	case FieldVerified:
		return boolTag(rec.IsVerified)
	default:
		return ""
	}
}

func numericValue(rec *property.Property, field string) (float64, bool) {
	switch field {
	case FieldRentPrice:
		return rec.RentPrice, true
	case FieldSalePrice:
		return rec.SalePrice, true
	case FieldArea:
		return rec.Area, true
	case FieldBedrooms:
		return float64(rec.Bedrooms), true
	case FieldBathrooms:
		return float64(rec.Bathrooms), true
	case FieldLatitude:
		if rec.Latitude == nil {
			return 0, false
		}
		return *rec.Latitude, true
	case FieldLongitude:
		if rec.Longitude == nil {
			return 0, false
		}
		return *rec.Longitude, true
	default:
		return 0, false
	}
}

// matchText requires every query token to appear as a substring of the title
// or the description, mirroring the per-token infix wildcards the store query
// is built with.
func matchText(rec *property.Property, query string) bool {
	title := strings.ToLower(rec.Title)
	desc := strings.ToLower(rec.Description)
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if !strings.Contains(title, tok) && !strings.Contains(desc, tok) {
			return false
		}
	}
	return true
}

func exactRange(field string, v float64) NumRange {
	value := v
	return NumRange{field: field, min: &value, max: &value}
}

func boolTag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
