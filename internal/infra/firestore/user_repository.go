package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"supplement-catalog-service/internal/domain"
)

// UserRepository implements domain.UserRepository using Firestore.
type UserRepository struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewUserRepository creates a new Firestore-backed user repository.
func NewUserRepository(client *firestore.Client, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		client: client,
		logger: logger,
	}
}

func (r *UserRepository) users() *firestore.CollectionRef {
	return r.client.Collection(usersCollection)
}

// GetProfile retrieves a user profile by uid.
func (r *UserRepository) GetProfile(ctx context.Context, uid string) (*domain.UserProfile, error) {
	snap, err := r.users().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("profile %s: %w", uid, domain.ErrNotFound)
		}

		return nil, fmt.Errorf("getting profile %s: %w", uid, err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, &domain.DecodeError{Collection: usersCollection, DocID: uid, Err: err}
	}

	return doc.toDomain(uid), nil
}

// AddFavorite adds entryID to the profile's favorites via an atomic array
// union; the set-merge write creates the profile document on first use.
// No read-modify-write of the full document, so concurrent toggles cannot
// clobber each other's membership changes.
func (r *UserRepository) AddFavorite(ctx context.Context, uid, entryID string) error {
	_, err := r.users().Doc(uid).Set(ctx, map[string]interface{}{
		"favorites": firestore.ArrayUnion(entryID),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("adding favorite %s for %s: %w", entryID, uid, err)
	}

	return nil
}

// RemoveFavorite removes entryID from the profile's favorites via an
// atomic array remove. Removing from a missing profile is a no-op.
func (r *UserRepository) RemoveFavorite(ctx context.Context, uid, entryID string) error {
	_, err := r.users().Doc(uid).Update(ctx, []firestore.Update{
		{Path: "favorites", Value: firestore.ArrayRemove(entryID)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}

		return fmt.Errorf("removing favorite %s for %s: %w", entryID, uid, err)
	}

	return nil
}
