package memstore

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplement-catalog-service/internal/domain"
)

func seedEntry(s *Store, id string) {
	s.SeedEntry(&domain.CatalogEntry{ID: id, Name: "Whey Gold", Company: "Optimum", Category: "WPI"})
}

func TestStore_ListEntriesOrder(t *testing.T) {
	s := New()
	seedEntry(s, "b")
	seedEntry(s, "a")
	seedEntry(s, "c")

	entries, err := s.ListEntries(context.Background())
	require.NoError(t, err)

	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.ID
	}
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

func TestStore_GetEntryNotFound(t *testing.T) {
	s := New()

	_, err := s.GetEntry(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_UpdateProjection(t *testing.T) {
	s := New()
	seedEntry(s, "a")

	entry, err := s.GetEntry(context.Background(), "a")
	require.NoError(t, err)
	require.True(t, entry.ProjectionStale())

	err = s.UpdateProjection(context.Background(), "a", entry.DeriveProjection())
	require.NoError(t, err)

	entry, err = s.GetEntry(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, entry.ProjectionStale())
	assert.Equal(t, "whey gold", entry.NameLower)
}

func TestStore_AddReviewSequential(t *testing.T) {
	s := New()
	seedEntry(s, "a")
	ctx := context.Background()

	for _, rating := range []int{5, 3, 4} {
		_, err := s.AddReview(ctx, "a", &domain.Review{AuthorHandle: "u", Text: "solid", Rating: rating})
		require.NoError(t, err)
	}

	entry, err := s.GetEntry(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), entry.ReviewCount)
	assert.InDelta(t, 4.0, entry.AverageRating, 1e-9)

	reviews, err := s.ListReviews(ctx, "a")
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.NotEmpty(t, reviews[0].ID)
	assert.False(t, reviews[0].CreatedAt.IsZero())
}

// Concurrent submitters must never lose a rating: the final counter pair is
// the exact mean of everything committed, whatever the interleaving.
func TestStore_AddReviewConcurrent(t *testing.T) {
	s := New(WithTxAttempts(200))
	seedEntry(s, "a")
	ctx := context.Background()

	ratings := make([]int, 60)
	sum := 0
	for i := range ratings {
		ratings[i] = i%5 + 1
		sum += ratings[i]
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(ratings))
	for _, rating := range ratings {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			_, err := s.AddReview(ctx, "a", &domain.Review{AuthorHandle: "u", Text: "ok", Rating: r})
			errs <- err
		}(rating)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	entry, err := s.GetEntry(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(len(ratings)), entry.ReviewCount)

	want := float64(sum) / float64(len(ratings))
	assert.True(t, math.Abs(entry.AverageRating-want) < 1e-9,
		"average = %v, want %v", entry.AverageRating, want)
}

// A transaction whose read version is invalidated on every attempt must
// surface conflict exhaustion instead of committing a stale write.
func TestStore_AddReviewConflictExhausted(t *testing.T) {
	s := New(WithTxAttempts(3))
	seedEntry(s, "a")
	ctx := context.Background()

	s.beforeCommit = func() {
		// Bump the entry version between the read and the commit.
		s.mu.Lock()
		s.entries["a"].version++
		s.mu.Unlock()
	}

	_, err := s.AddReview(ctx, "a", &domain.Review{AuthorHandle: "u", Text: "ok", Rating: 5})
	assert.ErrorIs(t, err, domain.ErrConflictExhausted)

	s.beforeCommit = nil
	entry, err := s.GetEntry(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), entry.ReviewCount, "failed transaction must not leave partial state")
}

func TestStore_ReconcileReviewStats(t *testing.T) {
	s := New()
	seedEntry(s, "a")
	ctx := context.Background()

	for _, rating := range []int{5, 3, 4} {
		_, err := s.AddReview(ctx, "a", &domain.Review{AuthorHandle: "u", Text: "ok", Rating: rating})
		require.NoError(t, err)
	}

	// In-sync counters: nothing to repair.
	stats, repaired, err := s.ReconcileReviewStats(ctx, "a")
	require.NoError(t, err)
	assert.False(t, repaired)
	assert.Equal(t, int64(3), stats.Count)
	assert.InDelta(t, 4.0, stats.Average, 1e-9)

	// Drift the denormalized pair behind the store's back.
	s.mu.Lock()
	s.entries["a"].entry.ReviewCount = 99
	s.entries["a"].entry.AverageRating = 1.0
	s.mu.Unlock()

	stats, repaired, err = s.ReconcileReviewStats(ctx, "a")
	require.NoError(t, err)
	assert.True(t, repaired)
	assert.Equal(t, int64(3), stats.Count)

	entry, err := s.GetEntry(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), entry.ReviewCount)
	assert.InDelta(t, 4.0, entry.AverageRating, 1e-9)
}

func TestStore_Favorites(t *testing.T) {
	s := New()
	ctx := context.Background()

	// Add creates the profile on first use.
	require.NoError(t, s.AddFavorite(ctx, "user-1", "a"))
	p, err := s.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, p.HasFavorite("a"))

	// Adding again is idempotent.
	require.NoError(t, s.AddFavorite(ctx, "user-1", "a"))
	p, err = s.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, p.Favorites, 1)

	require.NoError(t, s.RemoveFavorite(ctx, "user-1", "a"))
	p, err = s.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, p.HasFavorite("a"))

	// Removing from a missing profile is a no-op.
	require.NoError(t, s.RemoveFavorite(ctx, "nobody", "a"))
}
