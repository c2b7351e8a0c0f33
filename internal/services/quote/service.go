// Package quote resolves current prices: cache, then provider, then the
// catalogue price.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/bobmcallan/tradedesk/internal/models"
)

// Source labels
const (
	SourceCache     = "cache"
	SourceCatalogue = models.QuoteSourceCatalogue
)

// Service implements interfaces.QuoteService.
type Service struct {
	client interfaces.MarketDataClient
	stocks interfaces.StockStore
	cache  *Cache
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// NewService creates a quote service.
// client may be nil when no provider key is configured; every quote then
// comes from the catalogue.
func NewService(client interfaces.MarketDataClient, stocks interfaces.StockStore, cache *Cache, logger *common.Logger) *Service {
	return &Service{
		client: client,
		stocks: stocks,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// GetQuote returns a quote for symbol. A provider failure falls back to the
// catalogue price marked stale; only an unknown or unpriced symbol errors.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, common.NewValidationError("symbol", "is required")
	}

	if q, ok := s.fromCache(ctx, symbol); ok {
		return q, nil
	}

	if s.client != nil {
		q, err := s.client.GetRealTimeQuote(ctx, symbol)
		if err == nil && q != nil {
			s.markStale(q)
			s.storeCache(ctx, q)
			return q, nil
		}
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Provider quote failed, using catalogue price")
	}

	return s.fromCatalogue(ctx, symbol)
}

// GetQuotes prices every symbol it can. Unpriceable symbols are omitted.
func (s *Service) GetQuotes(ctx context.Context, symbols []string) map[string]models.Quote {
	out := make(map[string]models.Quote, len(symbols))

	var missing []string
	seen := make(map[string]bool, len(symbols))
	for _, raw := range symbols {
		symbol := models.NormalizeSymbol(raw)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		if q, ok := s.fromCache(ctx, symbol); ok {
			out[symbol] = *q
			continue
		}
		missing = append(missing, symbol)
	}

	if len(missing) > 0 && s.client != nil {
		quotes, err := s.client.GetRealTimeQuotes(ctx, missing)
		if err != nil {
			s.logger.Warn().Err(err).Int("symbols", len(missing)).Msg("Provider batch quote failed, using catalogue prices")
		}
		for i := range quotes {
			q := quotes[i]
			s.markStale(&q)
			s.storeCache(ctx, &q)
			out[q.Symbol] = q
		}
	}

	for _, symbol := range missing {
		if _, ok := out[symbol]; ok {
			continue
		}
		q, err := s.fromCatalogue(ctx, symbol)
		if err != nil {
			s.logger.Debug().Err(err).Str("symbol", symbol).Msg("No price available")
			continue
		}
		out[symbol] = *q
	}

	return out
}

// GetIntraday proxies intraday bars. There is no fallback for bars.
func (s *Service) GetIntraday(ctx context.Context, symbol, interval string) ([]models.IntradayBar, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, common.NewValidationError("symbol", "is required")
	}
	if s.client == nil {
		return nil, fmt.Errorf("intraday %s: no market data provider configured: %w", symbol, common.ErrUnavailable)
	}

	bars, err := s.client.GetIntraday(ctx, symbol, interval)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("intraday %s: %v: %w", symbol, err, common.ErrUnavailable)
	}
	return bars, nil
}

func (s *Service) fromCache(ctx context.Context, symbol string) (*models.Quote, bool) {
	if s.cache == nil {
		return nil, false
	}
	q, ok := s.cache.Get(ctx, symbol)
	if !ok {
		return nil, false
	}
	q.Source = SourceCache
	s.markStale(q)
	return q, true
}

func (s *Service) storeCache(ctx context.Context, q *models.Quote) {
	if s.cache != nil {
		s.cache.Set(ctx, q)
	}
}

// fromCatalogue builds a stale quote from the admin-maintained stock price.
func (s *Service) fromCatalogue(ctx context.Context, symbol string) (*models.Quote, error) {
	stock, err := s.stocks.GetStock(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if stock.Price <= 0 {
		return nil, fmt.Errorf("stock %s has no price: %w", symbol, common.ErrUnavailable)
	}
	return &models.Quote{
		Symbol:    symbol,
		Price:     stock.Price,
		Timestamp: stock.UpdatedAt,
		Source:    SourceCatalogue,
		Stale:     true,
	}, nil
}

func (s *Service) markStale(q *models.Quote) {
	if q.Timestamp.IsZero() || s.now().Sub(q.Timestamp) > common.QuoteStaleAfter {
		q.Stale = true
	}
}

// Compile-time check
var _ interfaces.QuoteService = (*Service)(nil)
