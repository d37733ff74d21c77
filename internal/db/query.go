package db

import "github.com/propfind/searchcore/internal/domain/search/predicate"

// ListQuery is the input for filtered, paginated listing.
type ListQuery struct {
	IndexName    string
	Predicate    predicate.Predicate
	Offset       int
	Limit        int
	SortBy       string // field name for deterministic ordering, empty means none
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
