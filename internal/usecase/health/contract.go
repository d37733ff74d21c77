package health

import "context"

// StorePinger checks property store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker checks that a search index exists.
type IndexChecker interface {
	IndexExists(ctx context.Context, name string) (bool, error)
}
