package background

import (
	"context"
	"log/slog"
	"time"

	"loginguard/internal/repositories"
)

// CleanupManager periodically removes expired and used password reset keys
// from the database. Pending registrations and rate limit state expire on
// their own in the ephemeral store.
type CleanupManager struct {
	resetKeys *repositories.ResetKeyRepository
	logger    *slog.Logger
	interval  time.Duration
	stopCh    chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(resetKeys *repositories.ResetKeyRepository, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		resetKeys: resetKeys,
		logger:    logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup removes dead reset keys from the database
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.resetKeys.CleanupExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup reset keys", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("reset key cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
