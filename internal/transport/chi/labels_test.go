package chi

import (
	"testing"

	"github.com/propfind/searchcore/internal/domain/search/facet"
)

func TestDisplayLabel(t *testing.T) {
	tests := []struct {
		name  string
		dim   facet.Dimension
		value string
		want  string
	}{
		{"KnownOperation", facet.DimensionOperation, "rent", "For Rent"},
		{"KnownBudgetBucket", facet.DimensionBudget, "500-1000", "€500 – €1,000"},
		{"PropertyType", facet.DimensionPropertyType, "APARTMENT", "Apartment"},
		{"UnderscoreFeature", facet.DimensionFeature, "pet_friendly", "Pet Friendly"},
		{"HyphenatedValue", facet.DimensionCity, "sant-cugat", "Sant Cugat"},
		{"NonASCIIFirstRune", facet.DimensionCity, "évora", "Évora"},
		{"MixedScriptCity", facet.DimensionCity, "águeda velha", "Águeda Velha"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := displayLabel(tt.dim, tt.value); got != tt.want {
				t.Errorf("displayLabel(%q, %q) = %q, want %q", tt.dim, tt.value, got, tt.want)
			}
		})
	}
}
