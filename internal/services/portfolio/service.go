// Package portfolio runs the valuation pipeline and every user-facing
// portfolio mutation.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/bobmcallan/tradedesk/internal/models"
)

// maxAttempts bounds optimistic retries when the ledger reports a conflict.
const maxAttempts = 3

// Service implements PortfolioService
type Service struct {
	storage interfaces.StorageManager
	quotes  interfaces.QuoteService
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
	newID   func() string
}

// NewService creates a new portfolio service
func NewService(storage interfaces.StorageManager, quotes interfaces.QuoteService, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		quotes:  quotes,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// GetPortfolio values the user's positions and computes performance.
func (s *Service) GetPortfolio(ctx context.Context, userID string) (*models.PortfolioSummary, error) {
	user, err := s.storage.UserStore().GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, user)
}

func (s *Service) summarize(ctx context.Context, user *models.User) (*models.PortfolioSummary, error) {
	positions, err := s.storage.PositionStore().ListPositions(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	var quotes map[string]models.Quote
	if len(positions) > 0 {
		symbols := make([]string, 0, len(positions))
		for _, p := range positions {
			symbols = append(symbols, p.Symbol)
		}
		quotes = s.quotes.GetQuotes(ctx, symbols)
	}

	now := s.now()
	v := valuePositions(positions, quotes, user.InvestedAmount)
	perf, basis := s.computePerformance(ctx, user.UserID, v.TotalValue, user.InvestedAmount, now)

	unread, err := s.storage.AlertStore().CountUnread(ctx, user.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.UserID).Msg("Failed to count unread alerts")
	}

	return &models.PortfolioSummary{
		UserID:       user.UserID,
		Balances:     user.Balances(),
		TotalValue:   v.TotalValue,
		Assets:       v.Assets,
		Performance:  perf,
		Basis:        basis,
		UnreadAlerts: unread,
		AsOf:         now,
	}, nil
}

// GetPerformance returns current value and performance without the asset breakdown.
func (s *Service) GetPerformance(ctx context.Context, userID string) (*models.PerformanceReport, error) {
	summary, err := s.GetPortfolio(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.PerformanceReport{
		TotalValue:     summary.TotalValue,
		InvestedAmount: summary.Balances.InvestedAmount,
		Performance:    summary.Performance,
		Basis:          summary.Basis,
		AsOf:           summary.AsOf,
	}, nil
}

// withRetry re-runs fn while the ledger reports a version conflict. fn must
// re-read state and re-check business rules on every attempt.
func (s *Service) withRetry(ctx context.Context, op, userID string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); !errors.Is(err, common.ErrConflict) {
			return err
		}
		s.logger.Debug().Str("op", op).Str("user_id", userID).Int("attempt", attempt).Msg("Ledger conflict, retrying")
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s: gave up after %d attempts: %w", op, maxAttempts, err)
}

// Compile-time check
var _ interfaces.PortfolioService = (*Service)(nil)
