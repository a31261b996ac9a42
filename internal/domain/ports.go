package domain

import (
	"context"
	"time"
)

// ReviewStats is the denormalized counter pair maintained on each entry.
type ReviewStats struct {
	Count   int64
	Average float64
}

// CatalogRepository defines the interface for catalog persistence.
// Implementations: internal/infra/firestore, internal/infra/memstore.
type CatalogRepository interface {
	// ListEntries fetches the full catalog collection in store order.
	ListEntries(ctx context.Context) ([]*CatalogEntry, error)

	// GetEntry retrieves a single entry by id.
	// Returns ErrNotFound when the document does not exist.
	GetEntry(ctx context.Context, id string) (*CatalogEntry, error)

	// UpdateProjection writes corrected lowercase search fields on the
	// entry. Only the projection fields are touched.
	UpdateProjection(ctx context.Context, id string, p Projection) error

	// AddReview appends a review to the entry's sub-collection and
	// recomputes the entry's ReviewCount/AverageRating pair, all inside
	// one optimistic transaction. The stored review (with id and
	// server-assigned timestamp) is returned. Conflicting transactions
	// are retried; exhaustion surfaces ErrConflictExhausted.
	AddReview(ctx context.Context, entryID string, review *Review) (*Review, error)

	// ListReviews returns the entry's reviews ordered by creation time
	// ascending.
	ListReviews(ctx context.Context, entryID string) ([]*Review, error)

	// ReconcileReviewStats recounts the review sub-collection and repairs
	// the entry's counter pair transactionally when it has drifted.
	// Returns the authoritative stats and whether a repair was written.
	ReconcileReviewStats(ctx context.Context, entryID string) (ReviewStats, bool, error)
}

// UserRepository defines the interface for user profile persistence.
type UserRepository interface {
	// GetProfile retrieves a user profile by uid.
	// Returns ErrNotFound when no profile document exists.
	GetProfile(ctx context.Context, uid string) (*UserProfile, error)

	// AddFavorite and RemoveFavorite are atomic set-membership mutations
	// on the profile's favorites field. Neither rewrites the document.
	AddFavorite(ctx context.Context, uid, entryID string) error
	RemoveFavorite(ctx context.Context, uid, entryID string) error
}

// ReviewStreamer yields live snapshots of an entry's review list.
// Implementations: internal/infra/firestore.
type ReviewStreamer interface {
	// StreamReviews delivers an immutable snapshot of the full review
	// list on every change, ordered by creation time ascending. The
	// channel is closed when ctx is cancelled or the stream fails;
	// consumers restart the stream to resume.
	StreamReviews(ctx context.Context, entryID string) (<-chan []*Review, error)
}

// IdentityVerifier resolves an opaque bearer token into an authenticated
// principal. Implementations: internal/infra/identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Cache defines the interface for caching operations.
// Implementations: internal/infra/redis.
type Cache interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Clear removes all cached values.
	Clear(ctx context.Context) error
}
