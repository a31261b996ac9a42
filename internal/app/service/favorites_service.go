package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"supplement-catalog-service/internal/domain"
)

// FavoritesService handles the favorites set on user profiles.
type FavoritesService struct {
	users   domain.UserRepository
	catalog domain.CatalogRepository
	logger  *zap.Logger
}

// NewFavoritesService creates a new FavoritesService.
func NewFavoritesService(users domain.UserRepository, catalog domain.CatalogRepository, logger *zap.Logger) *FavoritesService {
	return &FavoritesService{
		users:   users,
		catalog: catalog,
		logger:  logger,
	}
}

// Toggle flips entryID's membership in the user's favorites set and
// returns the new state: true when the entry was added, false when it was
// removed. The mutation itself is an atomic set add/remove; concurrent
// toggles on the same id are last-writer-wins at the membership level.
func (s *FavoritesService) Toggle(ctx context.Context, uid, entryID string) (bool, error) {
	profile, err := s.users.GetProfile(ctx, uid)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	if profile != nil && profile.HasFavorite(entryID) {
		if err := s.users.RemoveFavorite(ctx, uid, entryID); err != nil {
			return false, err
		}
		s.logger.Debug("favorite removed", zap.String("uid", uid), zap.String("entry_id", entryID))

		return false, nil
	}

	if err := s.users.AddFavorite(ctx, uid, entryID); err != nil {
		return false, err
	}
	s.logger.Debug("favorite added", zap.String("uid", uid), zap.String("entry_id", entryID))

	return true, nil
}

// List resolves the user's favorite ids to catalog entries. Dangling ids
// (favorites pointing at deleted entries) are skipped, not errors.
func (s *FavoritesService) List(ctx context.Context, uid string) ([]*domain.CatalogEntry, error) {
	profile, err := s.users.GetProfile(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []*domain.CatalogEntry{}, nil
		}

		return nil, err
	}

	entries := make([]*domain.CatalogEntry, 0, len(profile.Favorites))
	for _, id := range profile.Favorites {
		entry, err := s.catalog.GetEntry(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.Debug("skipping dangling favorite",
					zap.String("uid", uid),
					zap.String("entry_id", id),
				)
				continue
			}

			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
