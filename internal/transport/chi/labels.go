package chi

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/propfind/searchcore/internal/domain/search/facet"
)

// Facet display labels. Values the table does not know fall back to a
// title-cased form of the raw value, so new store data degrades gracefully
// instead of rendering blank.
var (
	operationLabels = map[string]string{
		"RENT": "For Rent",
		"SALE": "For Sale",
		"BOTH": "Rent or Sale",
	}

	budgetLabels = map[string]string{
		"500-1000":  "€500 – €1,000",
		"1000-2000": "€1,000 – €2,000",
		"2000-3500": "€2,000 – €3,500",
		"3500-5000": "€3,500 – €5,000",
		"5000+":     "€5,000+",
		"50k-100k":  "€50K – €100K",
		"100k-200k": "€100K – €200K",
		"200k-500k": "€200K – €500K",
		"500k-1m":   "€500K – €1M",
		"1m+":       "€1M+",
	}
)

func displayLabel(dim facet.Dimension, value string) string {
	switch dim {
	case facet.DimensionOperation:
		if label, ok := operationLabels[strings.ToUpper(value)]; ok {
			return label
		}
	case facet.DimensionBudget:
		if label, ok := budgetLabels[value]; ok {
			return label
		}
	}
	return titleCase(value)
}

// titleCase renders enum-ish values ("APARTMENT", "pet_friendly") as
// human-readable labels ("Apartment", "Pet Friendly").
func titleCase(value string) string {
	words := strings.FieldsFunc(strings.ToLower(value), func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
