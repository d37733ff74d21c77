// Package criteria defines the canonical, immutable representation of one
// property search request. A Criteria value built from the quiz is
// indistinguishable from one built from query parameters; both feed the same
// predicate compiler.
package criteria

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/propfind/searchcore/internal/domain/geo"
	"github.com/propfind/searchcore/internal/domain/property"
)

// Pagination limits.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxQueryLength bounds the free-text query.
	MaxQueryLength = 512
)

// GeoFilter is a point + radius constraint in kilometers.
type GeoFilter struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// Criteria is a validated, immutable search request. Absent fields impose no
// constraint (open-world: missing never means exclude).
type Criteria struct {
	query         string
	operation     property.Operation // "" = unconstrained
	propertyTypes []property.Type    // empty = unconstrained
	city          string
	state         string
	country       string
	minPrice      *float64
	maxPrice      *float64
	minArea       *float64
	maxArea       *float64
	bedrooms      *int
	bathrooms     *int
	geo           *GeoFilter
	features      []string
	isFeatured    *bool
	isVerified    *bool
	page          int
	limit         int
}

// Builder accumulates optional criteria fields before validation.
type Builder struct {
	c   Criteria
	err error
}

// NewBuilder starts a criteria builder with default pagination.
func NewBuilder() *Builder {
	return &Builder{c: Criteria{page: DefaultPage, limit: DefaultLimit}}
}

// Query sets the free-text query matched against title/description.
func (b *Builder) Query(q string) *Builder {
	b.c.query = q
	return b
}

// Operation constrains the listing operation.
func (b *Builder) Operation(op property.Operation) *Builder {
	if op != "" && !op.IsValid() {
		b.fail(fmt.Errorf("invalid operation %q", op))
		return b
	}
	b.c.operation = op
	return b
}

// PropertyTypes constrains the property type to the given set.
// An empty set behaves as unconstrained, not "exclude all".
func (b *Builder) PropertyTypes(types ...property.Type) *Builder {
	for _, t := range types {
		if !t.IsValid() {
			b.fail(fmt.Errorf("invalid property type %q", t))
			return b
		}
	}
	b.c.propertyTypes = append([]property.Type(nil), types...)
	return b
}

// City constrains the city.
func (b *Builder) City(city string) *Builder {
	b.c.city = city
	return b
}

// State constrains the state/region.
func (b *Builder) State(state string) *Builder {
	b.c.state = state
	return b
}

// Country constrains the country.
func (b *Builder) Country(country string) *Builder {
	b.c.country = country
	return b
}

// PriceRange constrains the price band. Nil bounds are open.
func (b *Builder) PriceRange(minPrice, maxPrice *float64) *Builder {
	b.c.minPrice = copyFloat(minPrice)
	b.c.maxPrice = copyFloat(maxPrice)
	return b
}

// AreaRange constrains the area band. Nil bounds are open.
func (b *Builder) AreaRange(minArea, maxArea *float64) *Builder {
	b.c.minArea = copyFloat(minArea)
	b.c.maxArea = copyFloat(maxArea)
	return b
}

// Bedrooms constrains the exact bedroom count.
func (b *Builder) Bedrooms(n int) *Builder {
	if n < 0 {
		b.fail(fmt.Errorf("bedrooms must be non-negative, got %d", n))
		return b
	}
	b.c.bedrooms = &n
	return b
}

// Bathrooms constrains the exact bathroom count.
func (b *Builder) Bathrooms(n int) *Builder {
	if n < 0 {
		b.fail(fmt.Errorf("bathrooms must be non-negative, got %d", n))
		return b
	}
	b.c.bathrooms = &n
	return b
}

// Geo constrains results to a radius (km) around a point.
func (b *Builder) Geo(lat, lon, radiusKm float64) *Builder {
	if !geo.ValidateCoordinates(lat, lon) {
		b.fail(fmt.Errorf("invalid coordinates (%v, %v)", lat, lon))
		return b
	}
	if radiusKm <= 0 {
		b.fail(fmt.Errorf("radius must be positive, got %v", radiusKm))
		return b
	}
	b.c.geo = &GeoFilter{Latitude: lat, Longitude: lon, RadiusKm: radiusKm}
	return b
}

// Features requires every listed feature tag to be present (conjunction).
// An empty set behaves as unconstrained.
func (b *Builder) Features(features ...string) *Builder {
	b.c.features = append([]string(nil), features...)
	return b
}

// Featured constrains the featured flag.
func (b *Builder) Featured(v bool) *Builder {
	b.c.isFeatured = &v
	return b
}

// Verified constrains the verified flag.
func (b *Builder) Verified(v bool) *Builder {
	b.c.isVerified = &v
	return b
}

// Page sets the 1-based page number. Values below 1 fall back to the default.
func (b *Builder) Page(page int) *Builder {
	if page >= 1 {
		b.c.page = page
	}
	return b
}

// Limit sets the page size, clamped to MaxLimit.
func (b *Builder) Limit(limit int) *Builder {
	switch {
	case limit >= 1 && limit <= MaxLimit:
		b.c.limit = limit
	case limit > MaxLimit:
		b.c.limit = MaxLimit
	}
	return b
}

// Build validates and returns the criteria value.
func (b *Builder) Build() (Criteria, error) {
	if b.err != nil {
		return Criteria{}, b.err
	}
	if len(b.c.query) > MaxQueryLength {
		return Criteria{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	return b.c, nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Query returns the free-text query.
func (c Criteria) Query() string { return c.query }

// Operation returns the operation constraint ("" = unconstrained).
func (c Criteria) Operation() property.Operation { return c.operation }

// PropertyTypes returns the property type set (empty = unconstrained).
func (c Criteria) PropertyTypes() []property.Type { return c.propertyTypes }

// City returns the city constraint.
func (c Criteria) City() string { return c.city }

// State returns the state constraint.
func (c Criteria) State() string { return c.state }

// Country returns the country constraint.
func (c Criteria) Country() string { return c.country }

// MinPrice returns the lower price bound.
func (c Criteria) MinPrice() *float64 { return c.minPrice }

// MaxPrice returns the upper price bound.
func (c Criteria) MaxPrice() *float64 { return c.maxPrice }

// MinArea returns the lower area bound.
func (c Criteria) MinArea() *float64 { return c.minArea }

// MaxArea returns the upper area bound.
func (c Criteria) MaxArea() *float64 { return c.maxArea }

// Bedrooms returns the exact bedroom count to match.
func (c Criteria) Bedrooms() *int { return c.bedrooms }

// Bathrooms returns the exact bathroom count to match.
func (c Criteria) Bathrooms() *int { return c.bathrooms }

// Geo returns the geo-radius constraint.
func (c Criteria) Geo() *GeoFilter { return c.geo }

// Features returns the required feature tags (empty = unconstrained).
func (c Criteria) Features() []string { return c.features }

// IsFeatured returns the featured flag constraint.
func (c Criteria) IsFeatured() *bool { return c.isFeatured }

// IsVerified returns the verified flag constraint.
func (c Criteria) IsVerified() *bool { return c.isVerified }

// Page returns the 1-based page number.
func (c Criteria) Page() int { return c.page }

// Limit returns the page size.
func (c Criteria) Limit() int { return c.limit }

// Skip returns the pagination offset.
func (c Criteria) Skip() int { return (c.page - 1) * c.limit }

// Impossible reports whether the criteria can never match: an inverted price
// or area band compiles to an empty result, never an error, so the UI stays
// non-blocking.
func (c Criteria) Impossible() bool {
	if c.minPrice != nil && c.maxPrice != nil && *c.minPrice > *c.maxPrice {
		return true
	}
	if c.minArea != nil && c.maxArea != nil && *c.minArea > *c.maxArea {
		return true
	}
	return false
}

// WithPage returns a copy with different pagination, keeping all filters.
func (c Criteria) WithPage(page, limit int) Criteria {
	out := c
	if page >= 1 {
		out.page = page
	}
	if limit >= 1 {
		out.limit = limit
		if out.limit > MaxLimit {
			out.limit = MaxLimit
		}
	}
	return out
}

// Fingerprint returns a canonical key over the filter fields, ignoring
// pagination. Two criteria with the same fingerprint select the same working
// set, so derived aggregates keyed by it can be shared across pages.
func (c Criteria) Fingerprint() string {
	types := make([]string, len(c.propertyTypes))
	for i, t := range c.propertyTypes {
		types[i] = strings.ToLower(string(t))
	}
	sort.Strings(types)

	features := make([]string, len(c.features))
	for i, f := range c.features {
		features[i] = strings.ToLower(f)
	}
	sort.Strings(features)

	var sb strings.Builder
	field := func(name, val string) {
		if val == "" {
			return
		}
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(val)
		sb.WriteByte(';')
	}

	field("q", strings.ToLower(c.query))
	field("op", string(c.operation))
	field("types", strings.Join(types, ","))
	field("city", strings.ToLower(c.city))
	field("state", strings.ToLower(c.state))
	field("country", strings.ToLower(c.country))
	field("price", rangeKey(c.minPrice, c.maxPrice))
	field("area", rangeKey(c.minArea, c.maxArea))
	if c.bedrooms != nil {
		field("bed", strconv.Itoa(*c.bedrooms))
	}
	if c.bathrooms != nil {
		field("bath", strconv.Itoa(*c.bathrooms))
	}
	if c.geo != nil {
		field("geo", fmt.Sprintf("%g,%g,%g", c.geo.Latitude, c.geo.Longitude, c.geo.RadiusKm))
	}
	field("features", strings.Join(features, ","))
	if c.isFeatured != nil {
		field("featured", strconv.FormatBool(*c.isFeatured))
	}
	if c.isVerified != nil {
		field("verified", strconv.FormatBool(*c.isVerified))
	}
	return sb.String()
}

func rangeKey(lo, hi *float64) string {
	if lo == nil && hi == nil {
		return ""
	}
	format := func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'g', -1, 64)
	}
	return format(lo) + ".." + format(hi)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
