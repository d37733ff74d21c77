package chi

import (
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/propfind/searchcore/internal/domain/geo"
	"github.com/propfind/searchcore/internal/domain/property"
	"github.com/propfind/searchcore/internal/domain/search/criteria"
	"github.com/propfind/searchcore/internal/domain/search/facet"
	"github.com/propfind/searchcore/internal/metrics"
)

// criteriaFromQuery maps query parameters onto search criteria. Parsing is
// lenient: an unparseable field is dropped, logged, and counted, never fatal.
// A bad filter must not blank the whole result list. defaultLimit (when
// positive) applies to requests that carry no limit parameter.
func criteriaFromQuery(values url.Values, defaultLimit int, logger *zap.Logger) (criteria.Criteria, error) {
	b := criteria.NewBuilder()
	if defaultLimit >= 1 && values.Get("limit") == "" {
		b.Limit(defaultLimit)
	}
	drop := func(field, raw string) {
		logger.Warn("dropping unparseable filter field",
			zap.String("field", field),
			zap.String("value", raw),
		)
		metrics.DroppedCriteriaFieldsTotal.WithLabelValues(field).Inc()
	}

	if q := values.Get("query"); q != "" {
		b.Query(q)
	}

	if raw := values.Get("operationType"); raw != "" {
		if op, err := property.ParseOperation(raw); err == nil {
			b.Operation(op)
		} else {
			drop("operationType", raw)
		}
	}

	if raws := listParam(values, "propertyTypes"); len(raws) > 0 {
		var types []property.Type
		for _, raw := range raws {
			if t, err := property.ParseType(raw); err == nil {
				types = append(types, t)
			} else {
				drop("propertyTypes", raw)
			}
		}
		if len(types) > 0 {
			b.PropertyTypes(types...)
		}
	}

	if city := values.Get("city"); city != "" {
		b.City(city)
	}
	if state := values.Get("state"); state != "" {
		b.State(state)
	}
	if country := values.Get("country"); country != "" {
		b.Country(country)
	}

	minPrice := floatParam(values, "minPrice", drop)
	maxPrice := floatParam(values, "maxPrice", drop)
	if minPrice != nil || maxPrice != nil {
		b.PriceRange(minPrice, maxPrice)
	}

	minArea := floatParam(values, "minArea", drop)
	maxArea := floatParam(values, "maxArea", drop)
	if minArea != nil || maxArea != nil {
		b.AreaRange(minArea, maxArea)
	}

	if n, ok := intParam(values, "bedrooms", drop); ok {
		if n >= 0 {
			b.Bedrooms(n)
		} else {
			drop("bedrooms", values.Get("bedrooms"))
		}
	}
	if n, ok := intParam(values, "bathrooms", drop); ok {
		if n >= 0 {
			b.Bathrooms(n)
		} else {
			drop("bathrooms", values.Get("bathrooms"))
		}
	}

	parseGeo(values, b, drop)

	if features := listParam(values, "features"); len(features) > 0 {
		b.Features(features...)
	}

	if raw := values.Get("isFeatured"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			b.Featured(v)
		} else {
			drop("isFeatured", raw)
		}
	}
	if raw := values.Get("isVerified"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			b.Verified(v)
		} else {
			drop("isVerified", raw)
		}
	}

	if n, ok := intParam(values, "page", drop); ok {
		if n >= 1 {
			b.Page(n)
		} else {
			drop("page", values.Get("page"))
		}
	}
	if n, ok := intParam(values, "limit", drop); ok {
		if n >= 1 {
			b.Limit(n)
		} else {
			drop("limit", values.Get("limit"))
		}
	}

	return b.Build()
}

// parseGeo requires latitude, longitude and radius together: a partial
// triple is dropped as one unit.
func parseGeo(values url.Values, b *criteria.Builder, drop func(field, raw string)) {
	rawLat, rawLng, rawRadius := values.Get("latitude"), values.Get("longitude"), values.Get("radius")
	if rawLat == "" && rawLng == "" && rawRadius == "" {
		return
	}

	lat, errLat := strconv.ParseFloat(rawLat, 64)
	lng, errLng := strconv.ParseFloat(rawLng, 64)
	radius, errRadius := strconv.ParseFloat(rawRadius, 64)
	if errLat != nil || errLng != nil || errRadius != nil ||
		!geo.ValidateCoordinates(lat, lng) || radius <= 0 {
		drop("geo", rawLat+","+rawLng+","+rawRadius)
		return
	}

	b.Geo(lat, lng, radius)
}

// stripDimensionParams removes the query parameters that filter the given
// facet dimension, so the excluded dimension's counts cover all its options.
func stripDimensionParams(values url.Values, dim facet.Dimension) {
	switch dim {
	case facet.DimensionPropertyType:
		values.Del("propertyTypes")
	case facet.DimensionCity:
		values.Del("city")
	case facet.DimensionFeature:
		values.Del("features")
	case facet.DimensionOperation:
		values.Del("operationType")
	case facet.DimensionBudget:
		values.Del("minPrice")
		values.Del("maxPrice")
	}
}

// listParam gathers repeated and comma-separated occurrences of a parameter.
func listParam(values url.Values, name string) []string {
	var out []string
	for _, raw := range values[name] {
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func floatParam(values url.Values, name string, drop func(field, raw string)) *float64 {
	raw := values.Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		drop(name, raw)
		return nil
	}
	return &v
}

func intParam(values url.Values, name string, drop func(field, raw string)) (int, bool) {
	raw := values.Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		drop(name, raw)
		return 0, false
	}
	return v, true
}
