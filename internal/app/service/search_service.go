package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"supplement-catalog-service/internal/domain"
)

// SearchResult holds a ranked catalog query result.
type SearchResult struct {
	Entries []*domain.CatalogEntry `json:"entries"`
	Total   int                    `json:"total"`
}

// SearchService is the client-facing catalog query engine: it refreshes
// projections, fetches the catalog, filters, sorts, and caches.
type SearchService struct {
	repo      domain.CatalogRepository
	projector *Projector
	cache     domain.Cache // nil disables caching
	cacheTTL  time.Duration
	logger    *zap.Logger

	// generations stamps searches per caller so a completed search
	// superseded by a newer one from the same caller is discarded
	// instead of racing it back. Callers never supersede each other.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewSearchService creates a new SearchService. cache may be nil.
func NewSearchService(
	repo domain.CatalogRepository,
	projector *Projector,
	cache domain.Cache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *SearchService {
	return &SearchService{
		repo:        repo,
		projector:   projector,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
		generations: make(map[string]uint64),
	}
}

// beginSearch bumps the caller's generation and returns the stamp for
// this search. A blank client id disables tracking.
func (s *SearchService) beginSearch(clientID string) uint64 {
	if clientID == "" {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generations[clientID]++

	return s.generations[clientID]
}

// superseded reports whether the caller started a newer search after
// the one stamped gen.
func (s *SearchService) superseded(clientID string, gen uint64) bool {
	if clientID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generations[clientID] != gen
}

// Search runs the full query cycle for the given selection.
//
// A store read failure surfaces as ErrCatalogUnavailable; an empty result
// is returned as a valid result, never as an error. When the same caller
// starts a newer Search before this one completes, ErrSearchSuperseded is
// returned and the stale result discarded. Searches from distinct callers
// never supersede each other.
func (s *SearchService) Search(ctx context.Context, sel domain.Selection) (*SearchResult, error) {
	gen := s.beginSearch(sel.ClientID)

	s.logger.Debug("searching catalog",
		zap.String("query", sel.Query),
		zap.Strings("protein_types", sel.ProteinTypes),
		zap.Int("flavor_buckets", len(sel.FlavorBuckets)),
		zap.String("sort", string(sel.SortKey)),
	)

	if cached := s.cacheLookup(ctx, sel); cached != nil {
		if s.superseded(sel.ClientID, gen) {
			return nil, domain.ErrSearchSuperseded
		}

		return cached, nil
	}

	s.projector.Refresh(ctx)

	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		s.logger.Error("catalog fetch failed", zap.Error(err))

		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	filtered := sel.Filter(entries)
	domain.SortEntries(filtered, sel.SortKey)

	if s.superseded(sel.ClientID, gen) {
		s.logger.Debug("discarding superseded search result",
			zap.String("client_id", sel.ClientID))

		return nil, domain.ErrSearchSuperseded
	}

	result := &SearchResult{Entries: filtered, Total: len(filtered)}
	s.cacheStore(ctx, sel, result)

	s.logger.Debug("search completed", zap.Int("total", result.Total))

	return result, nil
}

// GetEntry retrieves a single catalog entry by its store id.
func (s *SearchService) GetEntry(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *SearchService) cacheLookup(ctx context.Context, sel domain.Selection) *SearchResult {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, cacheKey(sel))
	if err != nil || data == nil {
		return nil
	}

	var result SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("dropping undecodable cached search result", zap.Error(err))

		return nil
	}

	return &result
}

func (s *SearchService) cacheStore(ctx context.Context, sel domain.Selection, result *SearchResult) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("search result not cacheable", zap.Error(err))

		return
	}
	if err := s.cache.Set(ctx, cacheKey(sel), data, s.cacheTTL); err != nil {
		// Cache failures degrade to store reads, never fail the search.
		s.logger.Warn("search result cache write failed", zap.Error(err))
	}
}

// cacheKey builds a deterministic key from the normalized selection so
// equivalent selections share a cache slot.
func cacheKey(sel domain.Selection) string {
	proteins := make([]string, 0, len(sel.ProteinTypes))
	for _, p := range sel.ProteinTypes {
		if p = domain.NormalizeText(p); p != "" {
			proteins = append(proteins, p)
		}
	}
	sort.Strings(proteins)

	buckets := make([]string, 0, len(sel.FlavorBuckets))
	for _, b := range sel.FlavorBuckets {
		buckets = append(buckets, string(b))
	}
	sort.Strings(buckets)

	return fmt.Sprintf("search:q=%s:p=%s:f=%s:s=%s",
		domain.NormalizeText(sel.Query),
		strings.Join(proteins, ","),
		strings.Join(buckets, ","),
		sel.SortKey,
	)
}
