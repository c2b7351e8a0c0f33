package interfaces

import (
	"context"

	"github.com/bobmcallan/tradedesk/internal/models"
)

// MarketDataClient fetches quotes from the external provider
type MarketDataClient interface {
	GetRealTimeQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetRealTimeQuotes(ctx context.Context, symbols []string) ([]models.Quote, error)
	GetIntraday(ctx context.Context, symbol, interval string) ([]models.IntradayBar, error)
}
