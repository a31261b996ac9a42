// Package firestore implements the catalog and user repositories against
// Google Cloud Firestore: collection scans for the query cycle, field
// updates for the projector, optimistic transactions for the review
// counters, and snapshot streams for live review lists.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"supplement-catalog-service/internal/domain"
)

// maxTxAttempts bounds the optimistic retry loop on conflicting
// transactions before surfacing ErrConflictExhausted.
const maxTxAttempts = 5

// CatalogRepository implements domain.CatalogRepository using Firestore.
type CatalogRepository struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewCatalogRepository creates a new Firestore-backed catalog repository.
func NewCatalogRepository(client *firestore.Client, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		logger: logger,
	}
}

func (r *CatalogRepository) entries() *firestore.CollectionRef {
	return r.client.Collection(entriesCollection)
}

// decodeEntry unpacks an entry snapshot, failing closed on type
// mismatches and on missing required fields alike.
func decodeEntry(snap *firestore.DocumentSnapshot) (*entryDoc, error) {
	var doc entryDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, &domain.DecodeError{Collection: entriesCollection, DocID: snap.Ref.ID, Err: err}
	}
	if err := doc.validate(); err != nil {
		return nil, &domain.DecodeError{Collection: entriesCollection, DocID: snap.Ref.ID, Err: err}
	}

	return &doc, nil
}

func decodeReview(snap *firestore.DocumentSnapshot) (*reviewDoc, error) {
	var doc reviewDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, &domain.DecodeError{Collection: reviewsCollection, DocID: snap.Ref.ID, Err: err}
	}
	if err := doc.validate(); err != nil {
		return nil, &domain.DecodeError{Collection: reviewsCollection, DocID: snap.Ref.ID, Err: err}
	}

	return &doc, nil
}

// ListEntries fetches the full catalog collection. Catalog scale is
// assumed at low thousands, so a full scan per query cycle is acceptable.
func (r *CatalogRepository) ListEntries(ctx context.Context) ([]*domain.CatalogEntry, error) {
	iter := r.entries().Documents(ctx)
	defer iter.Stop()

	var entries []*domain.CatalogEntry
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", entriesCollection, err)
		}

		doc, err := decodeEntry(snap)
		if err != nil {
			return nil, err
		}
		entries = append(entries, doc.toDomain(snap.Ref.ID))
	}

	return entries, nil
}

// GetEntry retrieves a single entry by document id.
func (r *CatalogRepository) GetEntry(ctx context.Context, id string) (*domain.CatalogEntry, error) {
	snap, err := r.entries().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
		}

		return nil, fmt.Errorf("getting entry %s: %w", id, err)
	}

	doc, err := decodeEntry(snap)
	if err != nil {
		return nil, err
	}

	return doc.toDomain(id), nil
}

// UpdateProjection writes the corrected lowercase search fields, touching
// nothing else on the document.
func (r *CatalogRepository) UpdateProjection(ctx context.Context, id string, p domain.Projection) error {
	_, err := r.entries().Doc(id).Update(ctx, []firestore.Update{
		{Path: "nameLower", Value: p.NameLower},
		{Path: "companyLower", Value: p.CompanyLower},
		{Path: "categoryLower", Value: p.CategoryLower},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
		}

		return fmt.Errorf("updating projection on %s: %w", id, err)
	}

	return nil
}

// AddReview inserts the review and folds its rating into the entry's
// counter pair inside a single transaction. Firestore retries conflicting
// transactions automatically; when the attempt budget is exhausted the
// aborted error is mapped to ErrConflictExhausted.
func (r *CatalogRepository) AddReview(ctx context.Context, entryID string, review *domain.Review) (*domain.Review, error) {
	entryRef := r.entries().Doc(entryID)
	reviewRef := entryRef.Collection(reviewsCollection).NewDoc()

	err := r.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(entryRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("entry %s: %w", entryID, domain.ErrNotFound)
			}

			return err
		}

		doc, err := decodeEntry(snap)
		if err != nil {
			return err
		}

		if err := tx.Create(reviewRef, reviewDoc{
			AuthorHandle: review.AuthorHandle,
			Text:         review.Text,
			Rating:       review.Rating,
		}); err != nil {
			return err
		}

		return tx.Update(entryRef, []firestore.Update{
			{Path: "reviewCount", Value: doc.ReviewCount + 1},
			{Path: "averageRating", Value: domain.NextAverage(doc.ReviewCount, doc.AverageRating, review.Rating)},
		})
	}, firestore.MaxAttempts(maxTxAttempts))
	if err != nil {
		if status.Code(err) == codes.Aborted {
			return nil, fmt.Errorf("adding review to %s: %w", entryID, domain.ErrConflictExhausted)
		}

		return nil, fmt.Errorf("adding review to %s: %w", entryID, err)
	}

	// Read the committed review back for the server-assigned timestamp.
	snap, err := reviewRef.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading committed review %s: %w", reviewRef.ID, err)
	}
	doc, err := decodeReview(snap)
	if err != nil {
		return nil, err
	}

	return doc.toDomain(reviewRef.ID), nil
}

// ListReviews returns the entry's reviews ordered by creation time
// ascending, matching the shape delivered by the snapshot stream.
func (r *CatalogRepository) ListReviews(ctx context.Context, entryID string) ([]*domain.Review, error) {
	iter := r.entries().Doc(entryID).
		Collection(reviewsCollection).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	return collectReviews(iter)
}

// ReconcileReviewStats recounts the review sub-collection and repairs the
// entry's counter pair inside one transaction when it has drifted. Audit
// path only; Submit's transactional counters remain the source of truth.
func (r *CatalogRepository) ReconcileReviewStats(ctx context.Context, entryID string) (domain.ReviewStats, bool, error) {
	entryRef := r.entries().Doc(entryID)

	var stats domain.ReviewStats
	var repaired bool

	err := r.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		stats = domain.ReviewStats{}
		repaired = false

		snap, err := tx.Get(entryRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("entry %s: %w", entryID, domain.ErrNotFound)
			}

			return err
		}
		doc, err := decodeEntry(snap)
		if err != nil {
			return err
		}

		iter := tx.Documents(entryRef.Collection(reviewsCollection))
		defer iter.Stop()

		var sum int64
		for {
			reviewSnap, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				return fmt.Errorf("recounting reviews of %s: %w", entryID, err)
			}

			rd, err := decodeReview(reviewSnap)
			if err != nil {
				return err
			}
			stats.Count++
			sum += int64(rd.Rating)
		}
		if stats.Count > 0 {
			stats.Average = float64(sum) / float64(stats.Count)
		}

		if doc.ReviewCount == stats.Count && !domain.AverageDrifted(doc.AverageRating, stats.Average) {
			return nil
		}

		repaired = true

		return tx.Update(entryRef, []firestore.Update{
			{Path: "reviewCount", Value: stats.Count},
			{Path: "averageRating", Value: stats.Average},
		})
	}, firestore.MaxAttempts(maxTxAttempts))
	if err != nil {
		if status.Code(err) == codes.Aborted {
			return domain.ReviewStats{}, false, fmt.Errorf("reconciling %s: %w", entryID, domain.ErrConflictExhausted)
		}

		return domain.ReviewStats{}, false, err
	}

	return stats, repaired, nil
}

// collectReviews drains a review document iterator into domain reviews.
func collectReviews(iter *firestore.DocumentIterator) ([]*domain.Review, error) {
	var reviews []*domain.Review
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", reviewsCollection, err)
		}

		doc, err := decodeReview(snap)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, doc.toDomain(snap.Ref.ID))
	}

	return reviews, nil
}
