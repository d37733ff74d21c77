package property

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/propfind/searchcore/internal/db"
	"github.com/propfind/searchcore/internal/domain"
	domprop "github.com/propfind/searchcore/internal/domain/property"
	"github.com/propfind/searchcore/internal/domain/search/predicate"
)

// store is the consumer interface for property persistence (ISP).
//
//nolint:interfacebloat // property repo needs hash + index + search operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
}

// Repo implements the property repositories consumed by the search, facet
// and quiz services.
type Repo struct {
	store        store
	keyPrefix    string
	indexName    string
	queryTimeout time.Duration
}

// New creates a property repository.
func New(s store, keyPrefix, indexName string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, indexName: indexName}
}

// WithQueryTimeout bounds each index query. Zero leaves queries unbounded.
func (r *Repo) WithQueryTimeout(d time.Duration) *Repo {
	r.queryTimeout = d
	return r
}

// EnsureIndex creates the property FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.indexName, r.keyPrefix)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	return nil
}

// Upsert stores a property hash under its key.
func (r *Repo) Upsert(ctx context.Context, p domprop.Property) error {
	if err := r.store.HSet(ctx, r.key(p.ID), buildHashFields(&p)); err != nil {
		return fmt.Errorf("hset property %s: %w", p.ID, err)
	}
	return nil
}

// UpsertBatch stores multiple properties in one pipelined round-trip.
func (r *Repo) UpsertBatch(ctx context.Context, props []domprop.Property) error {
	if len(props) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(props))
	for i := range props {
		items[i] = db.HashSetItem{
			Key:    r.key(props[i].ID),
			Fields: buildHashFields(&props[i]),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset batch: %w", err)
	}
	return nil
}

// Get returns a property by ID.
func (r *Repo) Get(ctx context.Context, id string) (domprop.Property, error) {
	m, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		return domprop.Property{}, fmt.Errorf("hgetall property %s: %w", id, err)
	}
	if len(m) == 0 {
		return domprop.Property{}, domain.ErrPropertyNotFound
	}
	return propertyFromHash(id, m), nil
}

// Delete removes a property.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.key(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrPropertyNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Query runs a filtered, paginated search ordered by id. It returns the
// matching page and the total match count.
func (r *Repo) Query(ctx context.Context, p predicate.Predicate, offset, limit int) (
	[]domprop.Property, int, error,
) {
	if p.Impossible() {
		return nil, 0, nil
	}

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: r.indexName,
		Predicate: p,
		Offset:    offset,
		Limit:     limit,
		SortBy:    predicate.FieldID,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search properties: %w", err)
	}

	return r.parseEntries(result), result.Total, nil
}

func (r *Repo) parseEntries(result *db.SearchResult) []domprop.Property {
	props := make([]domprop.Property, 0, len(result.Entries))
	for _, entry := range result.Entries {
		id := trimPrefix(entry.Key, r.keyPrefix)
		props = append(props, propertyFromHash(id, entry.Fields))
	}
	return props
}

func (r *Repo) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout > 0 {
		return context.WithTimeout(ctx, r.queryTimeout)
	}
	return ctx, func() {}
}

func (r *Repo) key(id string) string {
	return r.keyPrefix + id
}

func trimPrefix(key, prefix string) string {
	if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}
