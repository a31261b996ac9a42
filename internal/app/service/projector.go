// Package service provides application use cases.
package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"supplement-catalog-service/internal/domain"
)

// Projector keeps the lowercase search fields on catalog entries in sync
// with their canonical fields.
type Projector struct {
	repo   domain.CatalogRepository
	logger *zap.Logger
}

// NewProjector creates a new Projector.
func NewProjector(repo domain.CatalogRepository, logger *zap.Logger) *Projector {
	return &Projector{
		repo:   repo,
		logger: logger,
	}
}

// Refresh scans the catalog and issues a corrective update for every entry
// whose stored projection no longer matches its canonical fields. Updates
// fan out concurrently and are fire-and-forget: individual failures are
// logged, never surfaced, and stale projections simply persist until the
// next cycle. Returns the number of corrections issued.
func (p *Projector) Refresh(ctx context.Context) int {
	entries, err := p.repo.ListEntries(ctx)
	if err != nil {
		p.logger.Warn("projection refresh scan failed", zap.Error(err))

		return 0
	}

	var wg sync.WaitGroup
	corrected := 0
	for _, entry := range entries {
		if !entry.ProjectionStale() {
			continue
		}
		corrected++

		wg.Add(1)
		go func(id string, proj domain.Projection) {
			defer wg.Done()
			if err := p.repo.UpdateProjection(ctx, id, proj); err != nil {
				p.logger.Warn("projection update failed",
					zap.String("entry_id", id),
					zap.Error(err),
				)
			}
		}(entry.ID, entry.DeriveProjection())
	}
	wg.Wait()

	if corrected > 0 {
		p.logger.Debug("projection refresh completed",
			zap.Int("corrected", corrected),
			zap.Int("scanned", len(entries)),
		)
	}

	return corrected
}
