package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"supplement-catalog-service/internal/domain"
)

// ReviewStream implements domain.ReviewStreamer on top of Firestore's
// snapshot listener. Each delivered slice is a complete, immutable
// snapshot of the review list; consumers take the latest and never mutate
// it in place.
type ReviewStream struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewReviewStream creates a new snapshot-backed review streamer.
func NewReviewStream(client *firestore.Client, logger *zap.Logger) *ReviewStream {
	return &ReviewStream{
		client: client,
		logger: logger,
	}
}

// StreamReviews yields the entry's full review list, ordered by creation
// time ascending, on every change. The channel closes when ctx is
// cancelled or the underlying stream fails; the stream is restartable by
// calling StreamReviews again.
func (s *ReviewStream) StreamReviews(ctx context.Context, entryID string) (<-chan []*domain.Review, error) {
	query := s.client.Collection(entriesCollection).
		Doc(entryID).
		Collection(reviewsCollection).
		OrderBy("createdAt", firestore.Asc)

	snapshots := query.Snapshots(ctx)
	out := make(chan []*domain.Review, 1)

	go func() {
		defer close(out)
		defer snapshots.Stop()

		for {
			snap, err := snapshots.Next()
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, iterator.Done) {
					s.logger.Warn("review stream failed",
						zap.String("entry_id", entryID),
						zap.Error(err),
					)
				}

				return
			}

			reviews, err := collectReviews(snap.Documents)
			if err != nil {
				s.logger.Warn("dropping undecodable review snapshot",
					zap.String("entry_id", entryID),
					zap.Error(err),
				)
				continue
			}

			select {
			case out <- reviews:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
