package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"supplement-catalog-service/internal/domain"
	"supplement-catalog-service/internal/infra/memstore"
)

func newReviewFixture(opts ...memstore.Option) (*ReviewService, *memstore.Store) {
	store := memstore.New(opts...)
	store.SeedEntry(&domain.CatalogEntry{ID: "whey-gold", Name: "Whey Gold", Company: "Optimum", Category: "WPI", Price: 10})

	return NewReviewService(store, nil, zap.NewNop()), store
}

func TestReviewService_SubmitValidation(t *testing.T) {
	svc, store := newReviewFixture()
	ctx := context.Background()

	tests := []struct {
		name   string
		handle string
		rating int
		text   string
	}{
		{"empty author", "", 4, "great"},
		{"blank text", "user", 4, "   "},
		{"empty text", "user", 4, ""},
		{"rating too low", "user", 0, "great"},
		{"rating too high", "user", 6, "great"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			review, err := svc.Submit(ctx, "whey-gold", tt.handle, tt.rating, tt.text)
			assert.Nil(t, review)
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
		})
	}

	// Rejections happen before any store call: counters untouched.
	entry, err := store.GetEntry(ctx, "whey-gold")
	require.NoError(t, err)
	assert.Equal(t, int64(0), entry.ReviewCount)
}

func TestReviewService_SubmitSequential(t *testing.T) {
	svc, store := newReviewFixture()
	ctx := context.Background()

	for _, rating := range []int{5, 3, 4} {
		review, err := svc.Submit(ctx, "whey-gold", "gymrat", rating, "solid product")
		require.NoError(t, err)
		assert.NotEmpty(t, review.ID)
	}

	entry, err := store.GetEntry(ctx, "whey-gold")
	require.NoError(t, err)
	assert.Equal(t, int64(3), entry.ReviewCount)
	assert.InDelta(t, 4.0, entry.AverageRating, 1e-9)

	reviews, err := svc.List(ctx, "whey-gold")
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	for i := 1; i < len(reviews); i++ {
		assert.False(t, reviews[i].CreatedAt.Before(reviews[i-1].CreatedAt),
			"reviews must be ordered by creation time")
	}
}

// The core correctness property: under concurrent submitters the final
// average is the exact mean of all committed ratings.
func TestReviewService_SubmitConcurrent(t *testing.T) {
	svc, store := newReviewFixture(memstore.WithTxAttempts(200))
	ctx := context.Background()

	ratings := []int{5, 1, 3, 4, 2, 5, 5, 3, 1, 4, 2, 5, 4, 4, 3, 5, 2, 1, 5, 4}
	sum := 0
	for _, r := range ratings {
		sum += r
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(ratings))
	for _, rating := range ratings {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			_, err := svc.Submit(ctx, "whey-gold", "gymrat", r, "review text")
			errs <- err
		}(rating)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	entry, err := store.GetEntry(ctx, "whey-gold")
	require.NoError(t, err)
	assert.Equal(t, int64(len(ratings)), entry.ReviewCount)
	assert.InDelta(t, float64(sum)/float64(len(ratings)), entry.AverageRating, 1e-9)
}

func TestReviewService_SubmitUnknownEntry(t *testing.T) {
	svc, _ := newReviewFixture()

	_, err := svc.Submit(context.Background(), "ghost", "user", 5, "text")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviewService_ReconcileAll(t *testing.T) {
	svc, store := newReviewFixture()
	store.SeedEntry(&domain.CatalogEntry{ID: "soy-blend", Name: "Soy Blend", Company: "Vega", Category: "Soy"})
	ctx := context.Background()

	_, err := svc.Submit(ctx, "whey-gold", "user", 5, "text")
	require.NoError(t, err)

	// Healthy counters: a full audit repairs nothing.
	result, err := svc.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, AuditResult{Scanned: 2, Repaired: 0, Failed: 0}, result)

	// Seed drifted counters on an entry with no reviews.
	store.SeedEntry(&domain.CatalogEntry{
		ID: "soy-blend", Name: "Soy Blend", Company: "Vega", Category: "Soy",
		ReviewCount: 42, AverageRating: 2.5,
	})

	result, err = svc.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Repaired)

	entry, err := store.GetEntry(ctx, "soy-blend")
	require.NoError(t, err)
	assert.Equal(t, int64(0), entry.ReviewCount)
	assert.Equal(t, 0.0, entry.AverageRating)
}

// The running mean rounds once per submission, so after enough reviews
// it can sit a last bit away from a full recount. That is not drift and
// must not trigger a repair.
func TestReviewService_ReconcileToleratesRunningMeanRounding(t *testing.T) {
	svc, _ := newReviewFixture()
	ctx := context.Background()

	for _, rating := range []int{5, 5, 5, 3, 1, 1, 1, 1, 1, 1, 1, 1} {
		_, err := svc.Submit(ctx, "whey-gold", "gymrat", rating, "review text")
		require.NoError(t, err)
	}

	stats, repaired, err := svc.Reconcile(ctx, "whey-gold")
	require.NoError(t, err)
	assert.False(t, repaired, "counters maintained only by submissions must not need repair")
	assert.Equal(t, int64(12), stats.Count)
	assert.InDelta(t, 26.0/12.0, stats.Average, 1e-9)
}

func TestReviewService_StreamWithoutStreamer(t *testing.T) {
	svc, _ := newReviewFixture()

	_, err := svc.Stream(context.Background(), "whey-gold")
	assert.Error(t, err)
}
