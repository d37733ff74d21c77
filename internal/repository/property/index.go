package property

import (
	"github.com/propfind/searchcore/internal/db"
	"github.com/propfind/searchcore/internal/domain/search/predicate"
)

// buildIndex defines the property FT index: TAG fields for exact matching,
// NUMERIC for ranges, TEXT for the free-text query. The id field is SORTABLE
// to keep pagination deterministic.
func buildIndex(name, keyPrefix string) (*db.IndexDefinition, error) {
	return db.NewIndex(name).
		Prefix(keyPrefix).
		SortableTag(predicate.FieldID).
		Text(predicate.FieldTitle).
		Text(predicate.FieldDescription).
		Tag(predicate.FieldPropertyType).
		Tag(predicate.FieldOperation).
		Tag(predicate.FieldStatus).
		Tag(predicate.FieldCity).
		Tag(predicate.FieldState).
		Tag(predicate.FieldCountry).
		TagWithOpts(predicate.FieldFeatures, featureSeparator, false).
		Tag(predicate.FieldFeatured).
		Tag(predicate.FieldVerified).
		Numeric(predicate.FieldRentPrice).
		Numeric(predicate.FieldSalePrice).
		Numeric(predicate.FieldBedrooms).
		Numeric(predicate.FieldBathrooms).
		Numeric(predicate.FieldArea).
		Numeric(predicate.FieldLatitude).
		Numeric(predicate.FieldLongitude).
		Build()
}
