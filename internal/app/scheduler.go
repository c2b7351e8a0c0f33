package app

import (
	"context"
	"time"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
)

// snapshotRefresher is the part of PortfolioService the scheduler drives.
type snapshotRefresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

var _ snapshotRefresher = (interfaces.PortfolioService)(nil)

// startSnapshotScheduler rewrites today's snapshot for every user holding
// positions on a fixed interval, until ctx is cancelled.
func startSnapshotScheduler(ctx context.Context, portfolios snapshotRefresher, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("Snapshot scheduler: started")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Snapshot scheduler: stopped")
			return
		case <-ticker.C:
			refreshSnapshots(ctx, portfolios, logger)
		}
	}
}

func refreshSnapshots(ctx context.Context, portfolios snapshotRefresher, logger *common.Logger) {
	start := time.Now()
	n, err := portfolios.RefreshAll(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Snapshot refresh failed")
		return
	}
	logger.Info().
		Int("users", n).
		Dur("elapsed", time.Since(start)).
		Msg("Snapshot refresh: complete")
}
