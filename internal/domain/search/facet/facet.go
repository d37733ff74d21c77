// Package facet computes per-option counts over a working set of properties
// so the UI can render "N results" next to each filter option without a
// second round trip per facet.
//
// Counts are computed against the current working set: they answer "if you
// added this option, how many of today's results would remain". When the
// working set is capped below the true result size the counts are approximate
// counts of a sample, not exact global counts; Counts.Sampled marks that.
package facet

import (
	"sort"
	"strings"

	"github.com/propfind/searchcore/internal/domain/property"
)

// Dimension identifies one facetable filter dimension.
type Dimension string

// The five facet dimensions.
const (
	DimensionPropertyType Dimension = "property_type"
	DimensionCity         Dimension = "city"
	DimensionFeature      Dimension = "feature"
	DimensionOperation    Dimension = "operation_type"
	DimensionBudget       Dimension = "budget"
)

// Dimensions lists all facet dimensions.
var Dimensions = []Dimension{
	DimensionPropertyType,
	DimensionCity,
	DimensionFeature,
	DimensionOperation,
	DimensionBudget,
}

// IsValid reports whether d is a known dimension.
func (d Dimension) IsValid() bool {
	for _, known := range Dimensions {
		if d == known {
			return true
		}
	}
	return false
}

// Option is one facet value with its count. Labels and icons are the
// caller's concern, looked up from a static display table.
type Option struct {
	Value string
	Count int
}

// Counts holds per-dimension options ordered by count descending, ties broken
// by the option's natural display order. Zero-count options are dropped.
type Counts struct {
	ByDimension map[Dimension][]Option
	// SampleSize is the working-set size the counts were computed over.
	SampleSize int
	// Sampled is true when the working set was capped below the true result
	// size, making every count approximate.
	Sampled bool
}

// BudgetBucket is one fixed price band. Records are assigned to the first
// bucket whose upper break point exceeds their price; the last bucket is
// open-ended, so the buckets partition the price axis.
type BudgetBucket struct {
	ID  string
	Max float64 // exclusive upper break point; 0 = open-ended
}

// Fixed budget break points, distinct for RENT vs SALE.
var (
	RentBuckets = []BudgetBucket{
		{ID: "500-1000", Max: 1000},
		{ID: "1000-2000", Max: 2000},
		{ID: "2000-3500", Max: 3500},
		{ID: "3500-5000", Max: 5000},
		{ID: "5000+"},
	}
	SaleBuckets = []BudgetBucket{
		{ID: "50k-100k", Max: 100_000},
		{ID: "100k-200k", Max: 200_000},
		{ID: "200k-500k", Max: 500_000},
		{ID: "500k-1m", Max: 1_000_000},
		{ID: "1m+"},
	}
)

// Aggregate computes facet counts for all five dimensions in a single pass.
// PropertyType, operation and budget are single-valued: their counts sum to
// the working-set size. Feature is multi-valued: a record contributes to
// every feature it carries.
func Aggregate(working []property.Property) Counts {
	types := newCounter()
	cities := newCounter()
	features := newCounter()
	operations := newCounter()
	budgets := newCounter()

	for i := range working {
		rec := &working[i]

		types.add(string(rec.Type))
		operations.add(string(rec.Operation))

		if rec.City != "" {
			cities.add(rec.City)
		}

		for _, f := range rec.Features {
			if f != "" {
				features.add(f)
			}
		}

		if bucket, ok := bucketFor(rec); ok {
			budgets.add(bucket)
		}
	}

	return Counts{
		ByDimension: map[Dimension][]Option{
			DimensionPropertyType: types.options(typeOrder),
			DimensionCity:         cities.options(nil),
			DimensionFeature:      features.options(nil),
			DimensionOperation:    operations.options(operationOrder),
			DimensionBudget:       budgets.options(bucketOrder),
		},
		SampleSize: len(working),
	}
}

// bucketFor assigns the record's price to an operation-specific budget
// bucket. SALE listings bucket by sale price, everything else by rent price
// when one is set. Records without a usable price contribute no bucket.
func bucketFor(rec *property.Property) (string, bool) {
	if rec.Operation == property.OperationSale {
		return bucketIn(SaleBuckets, rec.SalePrice)
	}
	if rec.RentPrice > 0 {
		return bucketIn(RentBuckets, rec.RentPrice)
	}
	return bucketIn(SaleBuckets, rec.SalePrice)
}

func bucketIn(buckets []BudgetBucket, price float64) (string, bool) {
	if price <= 0 {
		return "", false
	}
	for _, b := range buckets {
		if b.Max == 0 || price < b.Max {
			return b.ID, true
		}
	}
	return "", false
}

// counter accumulates counts keyed case-insensitively, remembering the
// first-seen display form and insertion order for deterministic ties.
type counter struct {
	counts  map[string]int
	display map[string]string
	order   []string
}

func newCounter() *counter {
	return &counter{
		counts:  make(map[string]int),
		display: make(map[string]string),
	}
}

func (c *counter) add(value string) {
	key := strings.ToLower(value)
	if _, seen := c.counts[key]; !seen {
		c.display[key] = value
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// options emits non-zero options sorted by count descending. naturalOrder
// (when non-nil) fixes the tie order; otherwise first-seen order applies.
// Sorting is stable, so ties keep the natural order rather than falling back
// to label comparison.
func (c *counter) options(naturalOrder func(value string) int) []Option {
	keys := c.order
	if naturalOrder != nil {
		keys = append([]string(nil), c.order...)
		sort.SliceStable(keys, func(i, j int) bool {
			return naturalOrder(c.display[keys[i]]) < naturalOrder(c.display[keys[j]])
		})
	}

	opts := make([]Option, 0, len(keys))
	for _, key := range keys {
		if c.counts[key] == 0 {
			continue
		}
		opts = append(opts, Option{Value: c.display[key], Count: c.counts[key]})
	}

	sort.SliceStable(opts, func(i, j int) bool {
		return opts[i].Count > opts[j].Count
	})
	return opts
}

func typeOrder(value string) int {
	for i, t := range property.Types {
		if strings.EqualFold(string(t), value) {
			return i
		}
	}
	return len(property.Types)
}

func operationOrder(value string) int {
	for i, op := range property.Operations {
		if strings.EqualFold(string(op), value) {
			return i
		}
	}
	return len(property.Operations)
}

func bucketOrder(value string) int {
	for i, b := range RentBuckets {
		if b.ID == value {
			return i
		}
	}
	for i, b := range SaleBuckets {
		if b.ID == value {
			return len(RentBuckets) + i
		}
	}
	return len(RentBuckets) + len(SaleBuckets)
}
