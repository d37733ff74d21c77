package property

import (
	"strconv"
	"strings"

	domprop "github.com/propfind/searchcore/internal/domain/property"
	"github.com/propfind/searchcore/internal/domain/search/predicate"
)

// featureSeparator joins multi-valued features into one TAG hash field.
const featureSeparator = ","

// buildHashFields converts a domain Property into a flat map[string]string for HSET.
func buildHashFields(p *domprop.Property) map[string]string {
	m := map[string]string{
		predicate.FieldID:           p.ID,
		predicate.FieldTitle:        p.Title,
		predicate.FieldDescription:  p.Description,
		predicate.FieldPropertyType: string(p.Type),
		predicate.FieldOperation:    string(p.Operation),
		predicate.FieldStatus:       p.Status,
		predicate.FieldCity:         p.City,
		predicate.FieldState:        p.State,
		predicate.FieldCountry:      p.Country,
		predicate.FieldBedrooms:     strconv.Itoa(p.Bedrooms),
		predicate.FieldBathrooms:    strconv.Itoa(p.Bathrooms),
		predicate.FieldArea:         formatFloat(p.Area),
		predicate.FieldRentPrice:    formatFloat(p.RentPrice),
		predicate.FieldSalePrice:    formatFloat(p.SalePrice),
		predicate.FieldCurrency:     p.Currency,
		predicate.FieldFeatured:     boolField(p.IsFeatured),
		predicate.FieldVerified:     boolField(p.IsVerified),
	}

	if len(p.Features) > 0 {
		m[predicate.FieldFeatures] = strings.Join(p.Features, featureSeparator)
	}
	if p.Latitude != nil {
		m[predicate.FieldLatitude] = formatFloat(*p.Latitude)
	}
	if p.Longitude != nil {
		m[predicate.FieldLongitude] = formatFloat(*p.Longitude)
	}

	return m
}

// propertyFromHash converts a flat hash map back into a domain Property.
// Missing coordinate fields stay nil so geo filtering fails closed.
func propertyFromHash(id string, m map[string]string) domprop.Property {
	p := domprop.Property{
		ID:          id,
		Title:       m[predicate.FieldTitle],
		Description: m[predicate.FieldDescription],
		Type:        domprop.Type(m[predicate.FieldPropertyType]),
		Operation:   domprop.Operation(m[predicate.FieldOperation]),
		Status:      m[predicate.FieldStatus],
		City:        m[predicate.FieldCity],
		State:       m[predicate.FieldState],
		Country:     m[predicate.FieldCountry],
		Currency:    m[predicate.FieldCurrency],
		Bedrooms:    parseInt(m[predicate.FieldBedrooms]),
		Bathrooms:   parseInt(m[predicate.FieldBathrooms]),
		Area:        parseFloat(m[predicate.FieldArea]),
		RentPrice:   parseFloat(m[predicate.FieldRentPrice]),
		SalePrice:   parseFloat(m[predicate.FieldSalePrice]),
		IsFeatured:  m[predicate.FieldFeatured] == "1",
		IsVerified:  m[predicate.FieldVerified] == "1",
	}

	if hashID := m[predicate.FieldID]; hashID != "" {
		p.ID = hashID
	}
	if raw := m[predicate.FieldFeatures]; raw != "" {
		p.Features = strings.Split(raw, featureSeparator)
	}
	if raw, ok := m[predicate.FieldLatitude]; ok && raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			p.Latitude = &v
		}
	}
	if raw, ok := m[predicate.FieldLongitude]; ok && raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			p.Longitude = &v
		}
	}

	return p
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
