// Package memstore provides an in-memory document store implementing the
// catalog and user repositories. It mirrors the remote store's semantics:
// per-entry optimistic concurrency with bounded transaction retries, review
// sub-collections, and atomic set-membership mutations on user profiles.
// Used by tests and local development.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"supplement-catalog-service/internal/domain"
)

// defaultTxAttempts matches the remote store's optimistic retry budget.
const defaultTxAttempts = 5

type entryState struct {
	entry   domain.CatalogEntry
	reviews []domain.Review
	version uint64
}

// Store is an in-memory CatalogRepository and UserRepository.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entryState
	order   []string // insertion order, stands in for store order
	users   map[string]*domain.UserProfile

	txAttempts int
	reviewSeq  uint64
	now        func() time.Time

	// beforeCommit, when set, runs between a transaction's read and its
	// commit attempt. Tests use it to force version conflicts.
	beforeCommit func()
}

// Option configures a Store.
type Option func(*Store)

// WithTxAttempts overrides the optimistic transaction retry budget.
func WithTxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.txAttempts = n
		}
	}
}

// WithClock overrides the timestamp source for stored reviews.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		entries:    make(map[string]*entryState),
		users:      make(map[string]*domain.UserProfile),
		txAttempts: defaultTxAttempts,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SeedEntry inserts or replaces an entry, resetting its review list.
func (s *Store) SeedEntry(e *domain.CatalogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.entries[e.ID] = &entryState{entry: *e}
}

// SeedProfile inserts or replaces a user profile.
func (s *Store) SeedProfile(p *domain.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *p
	copied.Favorites = append([]string(nil), p.Favorites...)
	s.users[p.UID] = &copied
}

// ListEntries fetches the full catalog in insertion order.
func (s *Store) ListEntries(ctx context.Context) ([]*domain.CatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*domain.CatalogEntry, 0, len(s.order))
	for _, id := range s.order {
		e := s.entries[id].entry
		entries = append(entries, &e)
	}

	return entries, nil
}

// GetEntry retrieves a single entry by id.
func (s *Store) GetEntry(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	e := st.entry

	return &e, nil
}

// UpdateProjection writes corrected lowercase search fields on the entry.
func (s *Store) UpdateProjection(ctx context.Context, id string, p domain.Projection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}
	st.entry.ApplyProjection(p)
	st.version++

	return nil
}

// AddReview appends a review and recomputes the entry's counter pair under
// optimistic concurrency: the read and the compute happen outside the lock,
// and the commit is applied only if no concurrent transaction bumped the
// entry version in between. Conflicts retry up to the attempt budget.
func (s *Store) AddReview(ctx context.Context, entryID string, review *domain.Review) (*domain.Review, error) {
	for attempt := 0; attempt < s.txAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Transaction read.
		s.mu.RLock()
		st, ok := s.entries[entryID]
		if !ok {
			s.mu.RUnlock()

			return nil, fmt.Errorf("entry %s: %w", entryID, domain.ErrNotFound)
		}
		readVersion := st.version
		count := st.entry.ReviewCount
		avg := st.entry.AverageRating
		s.mu.RUnlock()

		nextAvg := domain.NextAverage(count, avg, review.Rating)

		if s.beforeCommit != nil {
			s.beforeCommit()
		}

		// Commit, conditional on the version still matching.
		s.mu.Lock()
		if st.version != readVersion {
			s.mu.Unlock()
			continue
		}

		s.reviewSeq++
		stored := *review
		stored.ID = fmt.Sprintf("review-%d", s.reviewSeq)
		stored.CreatedAt = s.now()

		st.entry.ReviewCount = count + 1
		st.entry.AverageRating = nextAvg
		st.reviews = append(st.reviews, stored)
		st.version++
		s.mu.Unlock()

		return &stored, nil
	}

	return nil, fmt.Errorf("adding review to %s: %w", entryID, domain.ErrConflictExhausted)
}

// ListReviews returns the entry's reviews ordered by creation time ascending.
func (s *Store) ListReviews(ctx context.Context, entryID string) ([]*domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.entries[entryID]
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", entryID, domain.ErrNotFound)
	}

	reviews := make([]*domain.Review, len(st.reviews))
	for i := range st.reviews {
		r := st.reviews[i]
		reviews[i] = &r
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.Before(reviews[j].CreatedAt)
	})

	return reviews, nil
}

// ReconcileReviewStats recounts the sub-collection and repairs the counter
// pair when it has drifted.
func (s *Store) ReconcileReviewStats(ctx context.Context, entryID string) (domain.ReviewStats, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.ReviewStats{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.entries[entryID]
	if !ok {
		return domain.ReviewStats{}, false, fmt.Errorf("entry %s: %w", entryID, domain.ErrNotFound)
	}

	stats := domain.ReviewStats{Count: int64(len(st.reviews))}
	if stats.Count > 0 {
		var sum int
		for _, r := range st.reviews {
			sum += r.Rating
		}
		stats.Average = float64(sum) / float64(stats.Count)
	}

	if st.entry.ReviewCount == stats.Count && !domain.AverageDrifted(st.entry.AverageRating, stats.Average) {
		return stats, false, nil
	}

	st.entry.ReviewCount = stats.Count
	st.entry.AverageRating = stats.Average
	st.version++

	return stats, true, nil
}

// GetProfile retrieves a user profile by uid.
func (s *Store) GetProfile(ctx context.Context, uid string) (*domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.users[uid]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", uid, domain.ErrNotFound)
	}

	copied := *p
	copied.Favorites = append([]string(nil), p.Favorites...)

	return &copied, nil
}

// AddFavorite atomically adds entryID to the profile's favorites set.
// Creates the profile on first use, matching the remote store's merge
// behavior. Idempotent.
func (s *Store) AddFavorite(ctx context.Context, uid, entryID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.users[uid]
	if !ok {
		p = &domain.UserProfile{UID: uid}
		s.users[uid] = p
	}
	if !p.HasFavorite(entryID) {
		p.Favorites = append(p.Favorites, entryID)
	}

	return nil
}

// RemoveFavorite atomically removes entryID from the profile's favorites
// set. Idempotent; removing from a missing profile is a no-op.
func (s *Store) RemoveFavorite(ctx context.Context, uid, entryID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.users[uid]
	if !ok {
		return nil
	}
	kept := p.Favorites[:0]
	for _, id := range p.Favorites {
		if id != entryID {
			kept = append(kept, id)
		}
	}
	p.Favorites = kept

	return nil
}
