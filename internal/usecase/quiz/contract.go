package quiz

import (
	"context"

	"github.com/propfind/searchcore/internal/domain/search/criteria"
	"github.com/propfind/searchcore/internal/domain/search/result"
)

// Searcher runs candidate searches for quiz result pages.
type Searcher interface {
	Search(ctx context.Context, c criteria.Criteria) (result.SearchResult, error)
}
