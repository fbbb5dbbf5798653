package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/cache"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/repositories"
)

const expirySweepLease = "expiry-sweep"

// Leaser grants short exclusive leases; *cache.CacheHelper satisfies it.
type Leaser interface {
	AcquireLease(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, key, token string) error
}

type ExpirySchedulerConfig struct {
	Interval  time.Duration
	BatchSize int
}

func DefaultExpirySchedulerConfig() ExpirySchedulerConfig {
	return ExpirySchedulerConfig{
		Interval:  15 * time.Second,
		BatchSize: 200,
	}
}

// ExpiryScheduler periodically finalizes sessions whose time limit has passed.
// Replicas coordinate through a lease so only one sweeps at a time; Finalize stays
// idempotent if two sweeps ever overlap.
type ExpiryScheduler struct {
	repo     repositories.Repository
	sessions SessionService
	leases   Leaser
	logger   *slog.Logger
	config   ExpirySchedulerConfig
	now      Clock
	token    string
}

func NewExpiryScheduler(repo repositories.Repository, sessions SessionService, leases Leaser, logger *slog.Logger, config ExpirySchedulerConfig) *ExpiryScheduler {
	defaults := DefaultExpirySchedulerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}

	return &ExpiryScheduler{
		repo:     repo,
		sessions: sessions,
		leases:   leases,
		logger:   logger,
		config:   config,
		now:      time.Now,
		token:    uuid.NewString(),
	}
}

// Run sweeps once immediately and then on every interval until ctx is cancelled.
func (e *ExpiryScheduler) Run(ctx context.Context) error {
	e.logger.Info("Expiry scheduler started",
		"interval", e.config.Interval,
		"batch_size", e.config.BatchSize)

	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	for {
		if _, err := e.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			e.logger.Error("Expiry sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			e.logger.Info("Expiry scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepOnce finalizes up to one batch of expired sessions and returns how many it
// finalized. A failing session is logged and skipped.
func (e *ExpiryScheduler) SweepOnce(ctx context.Context) (int, error) {
	if e.leases != nil {
		acquired, err := e.leases.AcquireLease(ctx, expirySweepLease, e.token, e.leaseTTL())
		if err != nil {
			e.logger.Warn("Sweep lease unavailable, sweeping without it", "error", err)
		} else if !acquired {
			e.logger.Debug("Sweep lease held by another replica")
			return 0, nil
		} else {
			defer func() {
				if err := e.leases.ReleaseLease(context.WithoutCancel(ctx), expirySweepLease, e.token); err != nil {
					e.logger.Warn("Failed to release sweep lease", "error", err)
				}
			}()
		}
	}

	expired, err := e.repo.Session().GetExpired(ctx, e.now(), e.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired sessions: %w", err)
	}

	finalized := 0
	for _, session := range expired {
		if ctx.Err() != nil {
			break
		}

		// a started finalize runs to completion even if the sweep is cancelled
		if err := e.sessions.Finalize(context.WithoutCancel(ctx), session.ID); err != nil {
			e.logger.Error("Failed to finalize expired session",
				"session_id", session.ID,
				"error", err)
			continue
		}
		finalized++
	}

	if finalized > 0 {
		e.logger.Info("Expired sessions finalized", "count", finalized)
	}

	return finalized, nil
}

func (e *ExpiryScheduler) leaseTTL() time.Duration {
	return min(e.config.Interval, cache.LeaseCacheConfig.TTL)
}
