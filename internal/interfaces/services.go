package interfaces

import (
	"context"

	"github.com/bobmcallan/tradedesk/internal/models"
)

// QuoteService resolves current prices. GetQuotes never fails: symbols it
// cannot price are simply absent from the result.
type QuoteService interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetQuotes(ctx context.Context, symbols []string) map[string]models.Quote
	GetIntraday(ctx context.Context, symbol, interval string) ([]models.IntradayBar, error)
}

// PortfolioService runs the valuation pipeline and every user-facing mutation
type PortfolioService interface {
	GetPortfolio(ctx context.Context, userID string) (*models.PortfolioSummary, error)
	Buy(ctx context.Context, userID string, req models.TradeRequest) (*models.TradeResult, error)
	Sell(ctx context.Context, userID string, req models.TradeRequest) (*models.TradeResult, error)
	AddAsset(ctx context.Context, userID string, req models.TradeRequest) (*models.TradeResult, error)

	GetFunds(ctx context.Context, userID string) (*models.Balances, error)
	Deposit(ctx context.Context, userID string, amount float64) (*models.FundsResult, error)
	Withdraw(ctx context.Context, userID string, amount float64) (*models.FundsResult, error)

	ListActivity(ctx context.Context, userID string, filter models.ActivityFilter) ([]models.ActivityEntry, error)
	GetHistory(ctx context.Context, userID string, days int) ([]*models.DailySnapshot, error)
	RenderHistoryChart(ctx context.Context, userID string, days int) ([]byte, error)
	GetPerformance(ctx context.Context, userID string) (*models.PerformanceReport, error)

	// RefreshSnapshot values the portfolio and upserts today's snapshot.
	RefreshSnapshot(ctx context.Context, userID string) (*models.PortfolioSummary, error)
	// RefreshHolders rewrites snapshots for every user holding symbol.
	RefreshHolders(ctx context.Context, symbol string) (int, error)
	// RefreshAll rewrites snapshots for every user with open positions.
	RefreshAll(ctx context.Context) (int, error)

	ListAlerts(ctx context.Context, userID string, unreadOnly bool) ([]*models.Alert, error)
	MarkAlertRead(ctx context.Context, userID, alertID string) (*models.Alert, error)
	MarkAllAlertsRead(ctx context.Context, userID string) (int, error)
	DeleteAlert(ctx context.Context, userID, alertID string) error
}

// StockService manages the stock catalogue
type StockService interface {
	ListStocks(ctx context.Context, query string) ([]*models.Stock, error)
	GetStock(ctx context.Context, symbol string) (*models.Stock, error)
	CreateStock(ctx context.Context, input models.StockInput) (*models.Stock, error)
	UpdateStock(ctx context.Context, symbol string, update models.StockUpdate) (*models.Stock, error)
	DeleteStock(ctx context.Context, symbol string) error
}

// AdminService backs the admin dashboard
type AdminService interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	Statistics(ctx context.Context) (*models.Statistics, error)
	ListUsers(ctx context.Context) ([]models.UserProfile, error)
	GetUser(ctx context.Context, userID string) (*models.UserDetail, error)
	SetRole(ctx context.Context, userID, role string) (*models.UserProfile, error)
	DeleteUser(ctx context.Context, userID string) (map[string]int, error)
	StockHoldings(ctx context.Context) ([]models.StockHolding, error)
}
