package portfolio

import (
	"context"
	"fmt"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
)

// RefreshSnapshot values the portfolio and upserts today's snapshot.
func (s *Service) RefreshSnapshot(ctx context.Context, userID string) (*models.PortfolioSummary, error) {
	user, err := s.storage.UserStore().GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary, err := s.summarize(ctx, user)
	if err != nil {
		return nil, err
	}

	snapshot := &models.DailySnapshot{
		UserID:         userID,
		Date:           common.StartOfDay(summary.AsOf),
		Day:            common.DayKey(summary.AsOf),
		TotalValue:     summary.TotalValue,
		InvestedAmount: user.InvestedAmount,
		AvailableFunds: user.AvailableFunds,
		TotalBalance:   user.TotalBalance,
		Assets:         valuation{Assets: summary.Assets}.snapshotAssets(),
		Performance:    summary.Performance,
		Basis:          summary.Basis,
		UpdatedAt:      summary.AsOf,
	}
	if err := s.storage.HistoryStore().SaveSnapshot(ctx, snapshot); err != nil {
		return summary, fmt.Errorf("failed to save snapshot: %w", err)
	}

	return summary, nil
}

// refreshAfterMutation rewrites the snapshot once a ledger write has
// committed. The mutation stands even if this fails.
func (s *Service) refreshAfterMutation(ctx context.Context, userID, op string) *models.PortfolioSummary {
	summary, err := s.RefreshSnapshot(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("op", op).Msg("Snapshot refresh failed after committed mutation")
	}
	return summary
}

// RefreshHolders rewrites snapshots for every user holding symbol.
func (s *Service) RefreshHolders(ctx context.Context, symbol string) (int, error) {
	positions, err := s.storage.PositionStore().ListBySymbol(ctx, models.NormalizeSymbol(symbol))
	if err != nil {
		return 0, fmt.Errorf("failed to list holders of %s: %w", symbol, err)
	}
	return s.refreshUsers(ctx, positions), nil
}

// RefreshAll rewrites snapshots for every user with open positions.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	positions, err := s.storage.PositionStore().ListAllPositions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list positions: %w", err)
	}
	return s.refreshUsers(ctx, positions), nil
}

func (s *Service) refreshUsers(ctx context.Context, positions []*models.Position) int {
	seen := make(map[string]bool)
	refreshed := 0
	for _, p := range positions {
		if seen[p.UserID] {
			continue
		}
		seen[p.UserID] = true
		if ctx.Err() != nil {
			break
		}
		if _, err := s.RefreshSnapshot(ctx, p.UserID); err != nil {
			s.logger.Error().Err(err).Str("user_id", p.UserID).Msg("Snapshot refresh failed")
			continue
		}
		refreshed++
	}
	return refreshed
}
