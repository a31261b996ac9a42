package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"supplement-catalog-service/internal/domain"
)

// ReviewService handles review submission and counter maintenance.
//
// All mutation of an entry's ReviewCount/AverageRating pair flows through
// Submit's transactional path; Reconcile is an audit/repair tool, not a
// read path.
type ReviewService struct {
	repo     domain.CatalogRepository
	streamer domain.ReviewStreamer // nil when the store has no push API
	logger   *zap.Logger
}

// NewReviewService creates a new ReviewService. streamer may be nil.
func NewReviewService(repo domain.CatalogRepository, streamer domain.ReviewStreamer, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		repo:     repo,
		streamer: streamer,
		logger:   logger,
	}
}

// Submit validates and stores a review, atomically folding its rating into
// the entry's running average.
//
// Validation failures are local and terminal: nothing reaches the store, so
// the caller can keep the draft for correction. Store-side conflicts retry
// inside the repository; exhaustion surfaces ErrConflictExhausted.
func (s *ReviewService) Submit(ctx context.Context, entryID, authorHandle string, rating int, text string) (*domain.Review, error) {
	if strings.TrimSpace(authorHandle) == "" {
		return nil, &domain.ValidationError{Field: "author_handle", Reason: "must not be empty"}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &domain.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if !domain.ValidRating(rating) {
		return nil, &domain.ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}

	review, err := s.repo.AddReview(ctx, entryID, &domain.Review{
		AuthorHandle: authorHandle,
		Text:         text,
		Rating:       rating,
	})
	if err != nil {
		s.logger.Error("review submission failed",
			zap.String("entry_id", entryID),
			zap.Error(err),
		)

		return nil, err
	}

	s.logger.Info("review submitted",
		zap.String("entry_id", entryID),
		zap.String("review_id", review.ID),
		zap.Int("rating", review.Rating),
	)

	return review, nil
}

// List returns an entry's reviews ordered by creation time ascending.
func (s *ReviewService) List(ctx context.Context, entryID string) ([]*domain.Review, error) {
	return s.repo.ListReviews(ctx, entryID)
}

// Stream yields live snapshots of an entry's review list.
func (s *ReviewService) Stream(ctx context.Context, entryID string) (<-chan []*domain.Review, error) {
	if s.streamer == nil {
		return nil, domain.ErrCatalogUnavailable
	}

	return s.streamer.StreamReviews(ctx, entryID)
}

// Reconcile recounts one entry's review sub-collection and repairs its
// counter pair when it has drifted.
func (s *ReviewService) Reconcile(ctx context.Context, entryID string) (domain.ReviewStats, bool, error) {
	stats, repaired, err := s.repo.ReconcileReviewStats(ctx, entryID)
	if err != nil {
		return domain.ReviewStats{}, false, err
	}
	if repaired {
		s.logger.Warn("review counters drifted, repaired",
			zap.String("entry_id", entryID),
			zap.Int64("count", stats.Count),
			zap.Float64("average", stats.Average),
		)
	}

	return stats, repaired, nil
}

// AuditResult summarizes a catalog-wide counter audit.
type AuditResult struct {
	Scanned  int `json:"scanned"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
}

// ReconcileAll audits every entry's counters. Partial failures are allowed;
// the summary reports how many entries could not be checked.
func (s *ReviewService) ReconcileAll(ctx context.Context) (AuditResult, error) {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return AuditResult{}, err
	}

	result := AuditResult{Scanned: len(entries)}
	for _, entry := range entries {
		_, repaired, err := s.Reconcile(ctx, entry.ID)
		if err != nil {
			result.Failed++
			s.logger.Warn("counter audit failed for entry",
				zap.String("entry_id", entry.ID),
				zap.Error(err),
			)
			continue
		}
		if repaired {
			result.Repaired++
		}
	}

	s.logger.Info("counter audit completed",
		zap.Int("scanned", result.Scanned),
		zap.Int("repaired", result.Repaired),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}
