// Package result defines the paged outcome of a property search.
package result

import "github.com/propfind/searchcore/internal/domain/property"

// SearchResult is one page of matching properties plus pagination state.
type SearchResult struct {
	properties []property.Property
	totalCount int
	page       int
	limit      int
}

// New creates a search result page.
func New(properties []property.Property, totalCount, page, limit int) SearchResult {
	return SearchResult{
		properties: properties,
		totalCount: totalCount,
		page:       page,
		limit:      limit,
	}
}

// Empty returns a valid zero-match result for the given pagination.
// An empty result set is a successful response, not an error.
func Empty(page, limit int) SearchResult {
	return SearchResult{page: page, limit: limit}
}

// Properties returns the records on this page, in stable store order.
func (r *SearchResult) Properties() []property.Property { return r.properties }

// TotalCount returns the number of matches across all pages.
func (r *SearchResult) TotalCount() int { return r.totalCount }

// Page returns the 1-based page number.
func (r *SearchResult) Page() int { return r.page }

// Limit returns the page size.
func (r *SearchResult) Limit() int { return r.limit }

// HasMore reports whether pages remain after this one. It is false on the
// last page even when the total is an exact multiple of the limit.
func (r *SearchResult) HasMore() bool {
	return r.page*r.limit < r.totalCount
}
