// Package stock manages the stock catalogue
package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/bobmcallan/tradedesk/internal/models"
)

// HolderRefresher rewrites snapshots for users holding a symbol.
type HolderRefresher interface {
	RefreshHolders(ctx context.Context, symbol string) (int, error)
}

// Service implements StockService
type Service struct {
	storage   interfaces.StorageManager
	refresher HolderRefresher
	logger    *common.Logger
	now       func() time.Time
}

// NewService creates a new stock service. refresher may be nil.
func NewService(storage interfaces.StorageManager, refresher HolderRefresher, logger *common.Logger) *Service {
	return &Service{
		storage:   storage,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// ListStocks returns the catalogue sorted by symbol, optionally filtered by a
// case-insensitive substring of symbol or name.
func (s *Service) ListStocks(ctx context.Context, query string) ([]*models.Stock, error) {
	stocks, err := s.storage.StockStore().ListStocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*models.Stock, 0, len(stocks))
	for _, st := range stocks {
		if q == "" || strings.Contains(strings.ToLower(st.Symbol), q) || strings.Contains(strings.ToLower(st.Name), q) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (s *Service) GetStock(ctx context.Context, symbol string) (*models.Stock, error) {
	return s.storage.StockStore().GetStock(ctx, models.NormalizeSymbol(symbol))
}

// CreateStock adds a catalogue entry; the symbol must be new.
func (s *Service) CreateStock(ctx context.Context, input models.StockInput) (*models.Stock, error) {
	symbol := models.NormalizeSymbol(input.Symbol)
	if symbol == "" {
		return nil, common.NewValidationError("symbol", "is required")
	}

	if _, err := s.storage.StockStore().GetStock(ctx, symbol); err == nil {
		return nil, fmt.Errorf("stock %s: %w", symbol, common.ErrAlreadyExists)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	color := input.Color
	if color == "" {
		color = models.DefaultColor
	}
	now := s.now()
	stock := &models.Stock{
		Symbol:    symbol,
		Name:      strings.TrimSpace(input.Name),
		Exchange:  input.Exchange,
		Sector:    input.Sector,
		Price:     input.Price,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.storage.StockStore().SaveStock(ctx, stock); err != nil {
		return nil, fmt.Errorf("failed to save stock: %w", err)
	}

	s.logger.Info().Str("symbol", symbol).Msg("Stock created")
	return stock, nil
}

// UpdateStock applies the non-nil fields. A price change rewrites snapshots
// for every holder of the symbol.
func (s *Service) UpdateStock(ctx context.Context, symbol string, update models.StockUpdate) (*models.Stock, error) {
	stock, err := s.GetStock(ctx, symbol)
	if err != nil {
		return nil, err
	}

	priceChanged := false
	if update.Name != nil {
		stock.Name = strings.TrimSpace(*update.Name)
	}
	if update.Exchange != nil {
		stock.Exchange = *update.Exchange
	}
	if update.Sector != nil {
		stock.Sector = *update.Sector
	}
	if update.Color != nil {
		stock.Color = *update.Color
	}
	if update.Price != nil && *update.Price != stock.Price {
		stock.Price = *update.Price
		priceChanged = true
	}
	stock.UpdatedAt = s.now()

	if err := s.storage.StockStore().SaveStock(ctx, stock); err != nil {
		return nil, fmt.Errorf("failed to save stock: %w", err)
	}

	if priceChanged && s.refresher != nil {
		n, err := s.refresher.RefreshHolders(ctx, stock.Symbol)
		if err != nil {
			s.logger.Error().Err(err).Str("symbol", stock.Symbol).Msg("Snapshot refresh after price update failed")
		} else {
			s.logger.Info().Str("symbol", stock.Symbol).Int("holders", n).Msg("Snapshots refreshed after price update")
		}
	}

	return stock, nil
}

// DeleteStock removes a catalogue entry that no position holds.
func (s *Service) DeleteStock(ctx context.Context, symbol string) error {
	symbol = models.NormalizeSymbol(symbol)
	if _, err := s.storage.StockStore().GetStock(ctx, symbol); err != nil {
		return err
	}

	holders, err := s.storage.PositionStore().ListBySymbol(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to check holders: %w", err)
	}
	if len(holders) > 0 {
		return common.NewValidationError("symbol", "%s is held by %d user(s)", symbol, len(holders))
	}

	if err := s.storage.StockStore().DeleteStock(ctx, symbol); err != nil {
		return err
	}
	s.logger.Info().Str("symbol", symbol).Msg("Stock deleted")
	return nil
}

// Compile-time check
var _ interfaces.StockService = (*Service)(nil)
