package facet

import (
	"testing"

	"github.com/propfind/searchcore/internal/domain/property"
)

func rental(city string, propType property.Type, rent float64, features ...string) property.Property {
	return property.Property{
		Type:      propType,
		Operation: property.OperationRent,
		City:      city,
		RentPrice: rent,
		Features:  features,
	}
}

func sale(city string, propType property.Type, price float64) property.Property {
	return property.Property{
		Type:      propType,
		Operation: property.OperationSale,
		City:      city,
		SalePrice: price,
	}
}

func optionCount(opts []Option, value string) int {
	for _, o := range opts {
		if o.Value == value {
			return o.Count
		}
	}
	return 0
}

func TestAggregate_SingleValuedDimensionsSumToWorkingSet(t *testing.T) {
	working := []property.Property{
		rental("Barcelona", property.TypeApartment, 1500),
		rental("Barcelona", property.TypeApartment, 800),
		rental("Madrid", property.TypeHouse, 2500),
		sale("Valencia", property.TypeVilla, 750_000),
	}

	counts := Aggregate(working)
	if counts.SampleSize != 4 {
		t.Errorf("SampleSize = %d, want 4", counts.SampleSize)
	}

	for _, dim := range []Dimension{DimensionPropertyType, DimensionOperation, DimensionBudget} {
		sum := 0
		for _, o := range counts.ByDimension[dim] {
			sum += o.Count
		}
		if sum != len(working) {
			t.Errorf("%s counts sum to %d, want %d", dim, sum, len(working))
		}
	}
}

func TestAggregate_MultiValuedFeatureMayExceedWorkingSet(t *testing.T) {
	working := []property.Property{
		rental("Barcelona", property.TypeApartment, 1500, "pool", "garage"),
		rental("Barcelona", property.TypeApartment, 1200, "pool"),
	}

	counts := Aggregate(working)
	sum := 0
	for _, o := range counts.ByDimension[DimensionFeature] {
		sum += o.Count
	}
	if sum != 3 {
		t.Errorf("feature counts sum to %d, want 3 (multi-valued)", sum)
	}
	if got := optionCount(counts.ByDimension[DimensionFeature], "pool"); got != 2 {
		t.Errorf("pool count = %d, want 2", got)
	}
}

func TestAggregate_NoZeroCountOptions(t *testing.T) {
	working := []property.Property{
		rental("Barcelona", property.TypeApartment, 1500),
	}
	counts := Aggregate(working)
	for dim, opts := range counts.ByDimension {
		for _, o := range opts {
			if o.Count == 0 {
				t.Errorf("%s contains zero-count option %q", dim, o.Value)
			}
		}
	}
}

func TestAggregate_OrderedByCountDescending(t *testing.T) {
	working := []property.Property{
		rental("Barcelona", property.TypeApartment, 1500),
		rental("Barcelona", property.TypeApartment, 1200),
		rental("Madrid", property.TypeHouse, 1800),
	}
	counts := Aggregate(working)

	cities := counts.ByDimension[DimensionCity]
	if len(cities) != 2 || cities[0].Value != "Barcelona" || cities[0].Count != 2 {
		t.Errorf("city options = %+v, want Barcelona first with count 2", cities)
	}
}

func TestAggregate_TiesKeepNaturalOrder(t *testing.T) {
	// One HOUSE and one APARTMENT: counts tie, so the declaration order of
	// property types decides (APARTMENT before HOUSE) even though the house
	// record was seen first.
	working := []property.Property{
		rental("Madrid", property.TypeHouse, 1800),
		rental("Barcelona", property.TypeApartment, 1500),
	}
	counts := Aggregate(working)

	types := counts.ByDimension[DimensionPropertyType]
	if len(types) != 2 {
		t.Fatalf("expected 2 type options, got %d", len(types))
	}
	if types[0].Value != string(property.TypeApartment) {
		t.Errorf("tie order = %q first, want APARTMENT", types[0].Value)
	}
}

func TestAggregate_BudgetBucketsPerOperation(t *testing.T) {
	working := []property.Property{
		rental("Barcelona", property.TypeApartment, 800),     // 500-1000
		rental("Barcelona", property.TypeApartment, 1500),    // 1000-2000
		rental("Barcelona", property.TypeApartment, 7000),    // 5000+
		sale("Madrid", property.TypeHouse, 150_000),          // 100k-200k
		sale("Madrid", property.TypeHouse, 2_000_000),        // 1m+
	}
	counts := Aggregate(working)
	budget := counts.ByDimension[DimensionBudget]

	for _, want := range []string{"500-1000", "1000-2000", "5000+", "100k-200k", "1m+"} {
		if optionCount(budget, want) != 1 {
			t.Errorf("bucket %q count = %d, want 1", want, optionCount(budget, want))
		}
	}
}

func TestAggregate_LowPriceFallsInFirstBucket(t *testing.T) {
	// Prices below the first break point still partition into the lowest
	// bucket, keeping the single-valued sum property.
	working := []property.Property{rental("Barcelona", property.TypeStudio, 300)}
	counts := Aggregate(working)
	if got := optionCount(counts.ByDimension[DimensionBudget], "500-1000"); got != 1 {
		t.Errorf("low rent bucket count = %d, want 1", got)
	}
}

func TestAggregate_CityCountsCaseInsensitive(t *testing.T) {
	working := []property.Property{
		rental("Barcelona", property.TypeApartment, 1500),
		rental("barcelona", property.TypeApartment, 1200),
	}
	counts := Aggregate(working)
	cities := counts.ByDimension[DimensionCity]
	if len(cities) != 1 {
		t.Fatalf("expected one city option, got %+v", cities)
	}
	if cities[0].Count != 2 || cities[0].Value != "Barcelona" {
		t.Errorf("city option = %+v, want Barcelona with count 2 (first-seen casing)", cities[0])
	}
}

func TestAggregate_EmptyWorkingSet(t *testing.T) {
	counts := Aggregate(nil)
	if counts.SampleSize != 0 {
		t.Errorf("SampleSize = %d, want 0", counts.SampleSize)
	}
	for dim, opts := range counts.ByDimension {
		if len(opts) != 0 {
			t.Errorf("%s has options for empty working set: %+v", dim, opts)
		}
	}
}
