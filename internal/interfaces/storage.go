// Package interfaces defines service and storage contracts for tradedesk
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/tradedesk/internal/models"
)

// StorageManager coordinates all document stores
type StorageManager interface {
	UserStore() UserStore
	StockStore() StockStore
	PositionStore() PositionStore
	TradeStore() TradeStore
	CashStore() CashStore
	HistoryStore() HistoryStore
	AlertStore() AlertStore

	// Ledger applies multi-document financial mutations atomically.
	Ledger() Ledger

	// PurgeUser deletes a user and every document they own.
	// Returns counts of deleted documents per collection.
	PurgeUser(ctx context.Context, userID string) (map[string]int, error)

	Close() error
}

// QueryOptions configures list queries. Results are newest first.
type QueryOptions struct {
	Limit int
	Since time.Time // zero means no lower bound
}

// UserStore persists accounts. Missing users return common.ErrNotFound.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// CreateUser inserts a new user; returns common.ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	// SaveUser writes the profile fields (email, name, role, password hash) and
	// increments Version. Balances are only changed through the Ledger.
	SaveUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// StockStore persists the stock catalogue keyed by symbol.
type StockStore interface {
	GetStock(ctx context.Context, symbol string) (*models.Stock, error)
	SaveStock(ctx context.Context, stock *models.Stock) error
	DeleteStock(ctx context.Context, symbol string) error
	ListStocks(ctx context.Context) ([]*models.Stock, error)
}

// PositionStore reads positions. Writes go through the Ledger.
type PositionStore interface {
	GetPosition(ctx context.Context, userID, symbol string) (*models.Position, error)
	ListPositions(ctx context.Context, userID string) ([]*models.Position, error)
	ListBySymbol(ctx context.Context, symbol string) ([]*models.Position, error)
	ListAllPositions(ctx context.Context) ([]*models.Position, error)
}

// TradeStore reads trade records. Writes go through the Ledger.
type TradeStore interface {
	ListTrades(ctx context.Context, userID string, opts QueryOptions) ([]*models.Trade, error)
	ListAllTrades(ctx context.Context, opts QueryOptions) ([]*models.Trade, error)
	CountTrades(ctx context.Context) (int, error)
}

// CashStore reads cash transactions. Writes go through the Ledger.
type CashStore interface {
	ListCashTransactions(ctx context.Context, userID string, opts QueryOptions) ([]*models.CashTransaction, error)
	ListAllCashTransactions(ctx context.Context, opts QueryOptions) ([]*models.CashTransaction, error)
}

// HistoryStore persists one DailySnapshot per user per day.
type HistoryStore interface {
	// SaveSnapshot upserts the snapshot for (UserID, Day); the last write wins.
	SaveSnapshot(ctx context.Context, snapshot *models.DailySnapshot) error
	GetSnapshot(ctx context.Context, userID, day string) (*models.DailySnapshot, error)
	// FindBefore returns the latest snapshot dated strictly before the given
	// time, or common.ErrNotFound.
	FindBefore(ctx context.Context, userID string, before time.Time) (*models.DailySnapshot, error)
	// ListSnapshots returns snapshots dated on or after from, oldest first.
	ListSnapshots(ctx context.Context, userID string, from time.Time) ([]*models.DailySnapshot, error)
}

// AlertStore persists user alerts. Alerts of other users are reported as not found.
type AlertStore interface {
	ListAlerts(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Alert, error)
	GetAlert(ctx context.Context, userID, alertID string) (*models.Alert, error)
	SaveAlert(ctx context.Context, alert *models.Alert) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	DeleteAlert(ctx context.Context, userID, alertID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

// Ledger applies a LedgerMutation all-or-nothing.
type Ledger interface {
	// Apply returns common.ErrConflict if a version or funds guard fails,
	// in which case nothing is written.
	Apply(ctx context.Context, m *models.LedgerMutation) error
}
