package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"supplement-catalog-service/internal/domain"
	"supplement-catalog-service/internal/infra/memstore"
)

func seedCatalog(store *memstore.Store) {
	store.SeedEntry(&domain.CatalogEntry{
		ID: "whey-gold", Name: "Whey Gold", Company: "Optimum", Category: "WPI",
		Flavors: []string{"chocolate"}, Price: 30, AverageRating: 4.5, ReviewCount: 10,
	})
	store.SeedEntry(&domain.CatalogEntry{
		ID: "soy-blend", Name: "Soy Blend", Company: "Vega", Category: "Soy",
		Flavors: []string{"matcha"}, Price: 20, AverageRating: 3.5, ReviewCount: 4,
	})
	store.SeedEntry(&domain.CatalogEntry{
		ID: "casein-night", Name: "Night Casein", Company: "Optimum", Category: "Casein",
		Price: 25, AverageRating: 4.0, ReviewCount: 7,
	})
}

func newSearchService(repo domain.CatalogRepository) *SearchService {
	logger := zap.NewNop()

	return NewSearchService(repo, NewProjector(repo, logger), nil, 0, logger)
}

func resultIDs(result *SearchResult) []string {
	out := make([]string, len(result.Entries))
	for i, e := range result.Entries {
		out[i] = e.ID
	}

	return out
}

func TestSearchService_FullCycle(t *testing.T) {
	store := memstore.New()
	seedCatalog(store)
	svc := newSearchService(store)
	ctx := context.Background()

	// Entries were seeded without projections; the first cycle must
	// self-heal them and still answer the query.
	result, err := svc.Search(ctx, domain.Selection{Query: "wh"})
	require.NoError(t, err)
	assert.Equal(t, []string{"whey-gold"}, resultIDs(result))

	entry, err := store.GetEntry(ctx, "whey-gold")
	require.NoError(t, err)
	assert.False(t, entry.ProjectionStale(), "projection should be healed by the query cycle")
}

func TestSearchService_EmptyResultIsNotAnError(t *testing.T) {
	store := memstore.New()
	seedCatalog(store)
	svc := newSearchService(store)

	result, err := svc.Search(context.Background(), domain.Selection{Query: "creatine"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Entries)
}

func TestSearchService_FilterAndSort(t *testing.T) {
	store := memstore.New()
	seedCatalog(store)
	svc := newSearchService(store)
	ctx := context.Background()

	tests := []struct {
		name     string
		sel      domain.Selection
		expected []string
	}{
		{
			name:     "protein filter",
			sel:      domain.Selection{ProteinTypes: []string{"WPI"}},
			expected: []string{"whey-gold"},
		},
		{
			name:     "flavor filter other bucket",
			sel:      domain.Selection{FlavorBuckets: []domain.FlavorBucket{domain.FlavorOther}},
			expected: []string{"soy-blend"},
		},
		{
			name:     "price ascending",
			sel:      domain.Selection{SortKey: domain.SortPriceAsc},
			expected: []string{"soy-blend", "casein-night", "whey-gold"},
		},
		{
			name:     "rating descending",
			sel:      domain.Selection{SortKey: domain.SortRatingDesc},
			expected: []string{"whey-gold", "casein-night", "soy-blend"},
		},
		{
			name:     "reviews descending",
			sel:      domain.Selection{SortKey: domain.SortReviewsDesc},
			expected: []string{"whey-gold", "casein-night", "soy-blend"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Search(ctx, tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resultIDs(result))
		})
	}
}

// failingRepo simulates an unreachable store.
type failingRepo struct {
	domain.CatalogRepository
}

func (f *failingRepo) ListEntries(context.Context) ([]*domain.CatalogEntry, error) {
	return nil, errors.New("connection refused")
}

func TestSearchService_StoreFailureSurfacesCatalogUnavailable(t *testing.T) {
	svc := newSearchService(&failingRepo{})

	result, err := svc.Search(context.Background(), domain.Selection{})
	assert.Nil(t, result, "no partial result on store failure")
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

// hookedRepo runs a callback once, during the first catalog scan.
type hookedRepo struct {
	*memstore.Store
	fired  bool
	onList func()
}

func (h *hookedRepo) ListEntries(ctx context.Context) ([]*domain.CatalogEntry, error) {
	// A plain guard instead of sync.Once: the hook re-enters ListEntries
	// on the same goroutine, and Once.Do is not re-entrant.
	if !h.fired {
		h.fired = true
		h.onList()
	}

	return h.Store.ListEntries(ctx)
}

func TestSearchService_SupersededSearchIsDiscarded(t *testing.T) {
	store := memstore.New()
	seedCatalog(store)

	repo := &hookedRepo{Store: store}
	svc := newSearchService(repo)
	ctx := context.Background()

	var newerResult *SearchResult
	var newerErr error
	repo.onList = func() {
		// The same client issues a newer search while the first is
		// still in flight.
		newerResult, newerErr = svc.Search(ctx, domain.Selection{Query: "soy", ClientID: "client-a"})
	}

	older, err := svc.Search(ctx, domain.Selection{Query: "wh", ClientID: "client-a"})
	assert.Nil(t, older)
	assert.ErrorIs(t, err, domain.ErrSearchSuperseded)

	require.NoError(t, newerErr)
	assert.Equal(t, []string{"soy-blend"}, resultIDs(newerResult))
}

func TestSearchService_IndependentClientsDoNotSupersedeEachOther(t *testing.T) {
	store := memstore.New()
	seedCatalog(store)

	repo := &hookedRepo{Store: store}
	svc := newSearchService(repo)
	ctx := context.Background()

	var otherResult *SearchResult
	var otherErr error
	repo.onList = func() {
		// Another client searches while the first scan is in flight.
		otherResult, otherErr = svc.Search(ctx, domain.Selection{Query: "soy", ClientID: "client-b"})
	}

	first, err := svc.Search(ctx, domain.Selection{Query: "wh", ClientID: "client-a"})
	require.NoError(t, err, "a concurrent search from another client must not cancel this one")
	assert.Equal(t, []string{"whey-gold"}, resultIDs(first))

	require.NoError(t, otherErr)
	assert.Equal(t, []string{"soy-blend"}, resultIDs(otherResult))
}

func TestSearchService_UntrackedSearchesNeverSuperseded(t *testing.T) {
	store := memstore.New()
	seedCatalog(store)

	repo := &hookedRepo{Store: store}
	svc := newSearchService(repo)
	ctx := context.Background()

	var overlapErr error
	repo.onList = func() {
		// Overlapping searches without a client id run independently.
		_, overlapErr = svc.Search(ctx, domain.Selection{Query: "soy"})
	}

	first, err := svc.Search(ctx, domain.Selection{Query: "wh"})
	require.NoError(t, err)
	assert.Equal(t, []string{"whey-gold"}, resultIDs(first))
	require.NoError(t, overlapErr)
}

// mapCache is a minimal in-memory domain.Cache for unit tests.
type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{m: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.m[key], nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value

	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)

	return nil
}

func (c *mapCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = make(map[string][]byte)

	return nil
}

// countingRepo counts catalog scans.
type countingRepo struct {
	*memstore.Store
	lists int
}

func (c *countingRepo) ListEntries(ctx context.Context) ([]*domain.CatalogEntry, error) {
	c.lists++

	return c.Store.ListEntries(ctx)
}

func TestSearchService_CachedResultSkipsStore(t *testing.T) {
	store := memstore.New()
	seedCatalog(store)

	repo := &countingRepo{Store: store}
	logger := zap.NewNop()
	svc := NewSearchService(repo, NewProjector(repo, logger), newMapCache(), time.Minute, logger)
	ctx := context.Background()

	sel := domain.Selection{Query: "wh", SortKey: domain.SortPriceAsc}

	first, err := svc.Search(ctx, sel)
	require.NoError(t, err)
	listsAfterFirst := repo.lists
	require.Greater(t, listsAfterFirst, 0)

	second, err := svc.Search(ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, resultIDs(first), resultIDs(second))
	assert.Equal(t, listsAfterFirst, repo.lists, "cached search must not rescan the store")
}

func TestCacheKey_NormalizesEquivalentSelections(t *testing.T) {
	a := domain.Selection{
		Query:         " Whey ",
		ProteinTypes:  []string{"WPI", "wpc"},
		FlavorBuckets: []domain.FlavorBucket{domain.FlavorVanilla, domain.FlavorChocolate},
	}
	b := domain.Selection{
		Query:         "whey",
		ProteinTypes:  []string{"WPC", "WPI"},
		FlavorBuckets: []domain.FlavorBucket{domain.FlavorChocolate, domain.FlavorVanilla},
	}

	assert.Equal(t, cacheKey(a), cacheKey(b))
	assert.NotEqual(t, cacheKey(a), cacheKey(domain.Selection{Query: "whey", SortKey: domain.SortPriceAsc}))
}
