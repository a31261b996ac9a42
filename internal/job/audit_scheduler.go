// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"supplement-catalog-service/internal/app/service"
	"supplement-catalog-service/pkg/locker"
)

// AuditScheduler runs periodic review-counter reconciliation with distributed
// locking so only one instance audits the catalog at a time. The audit never
// feeds reads; it exists to catch and repair counter drift.
type AuditScheduler struct {
	reviewService *service.ReviewService
	interval      time.Duration
	timeout       time.Duration
	logger        *zap.Logger
	locker        locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// AuditConfig holds audit scheduler configuration.
type AuditConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

// NewAuditScheduler creates a new AuditScheduler with distributed locking support.
func NewAuditScheduler(
	reviewSvc *service.ReviewService,
	cfg AuditConfig,
	logger *zap.Logger,
	locker locker.DistributedLocker,
) *AuditScheduler {
	return &AuditScheduler{
		reviewService: reviewSvc,
		interval:      cfg.Interval,
		timeout:       cfg.Timeout,
		logger:        logger,
		locker:        locker,
	}
}

// Start begins the background audit job.
func (s *AuditScheduler) Start(runOnStartup bool) {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting audit scheduler",
		zap.Duration("interval", s.interval),
		zap.Bool("run_on_startup", runOnStartup),
	)

	s.wg.Add(1)
	go s.run(runOnStartup)
}

// Stop gracefully stops the scheduler.
func (s *AuditScheduler) Stop() {
	s.logger.Info("stopping audit scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("audit scheduler stopped")
}

// run is the main loop of the scheduler.
func (s *AuditScheduler) run(runOnStartup bool) {
	defer s.wg.Done()

	if runOnStartup {
		s.executeAudit()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executeAudit()
		}
	}
}

// executeAudit reconciles review counters across the catalog behind a
// distributed lock.
//
// Locking behavior:
//   - Lock TTL = interval duration (cooldown model, not timeout)
//   - Success: Lock held for full interval to prevent duplicate audits
//   - Failure: Lock released immediately to allow retry by another instance
func (s *AuditScheduler) executeAudit() {
	const lockKey = "audit:scheduler:lock"

	acquired, err := s.locker.Acquire(s.ctx, lockKey, s.interval)
	if err != nil {
		s.logger.Error("failed to acquire distributed lock", zap.Error(err))

		return
	}
	if !acquired {
		s.logger.Debug("another instance is running the audit, skipping execution")

		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	result, err := s.reviewService.ReconcileAll(ctx)
	if err != nil || result.Failed > 0 {
		// Release lock immediately so another instance can retry soon
		if relErr := s.locker.Release(s.ctx, lockKey); relErr != nil {
			s.logger.Error("failed to release lock after audit error", zap.Error(relErr))
		}
		s.logger.Warn("audit completed with errors, lock released for retry",
			zap.Int("scanned", result.Scanned),
			zap.Int("repaired", result.Repaired),
			zap.Int("failed", result.Failed),
			zap.Error(err),
		)

		return
	}

	// Lock expires naturally after the interval (cooldown period)
	s.logger.Info("audit completed, lock held for cooldown",
		zap.Int("scanned", result.Scanned),
		zap.Int("repaired", result.Repaired),
		zap.Duration("cooldown", s.interval),
	)
}
