// Package memory provides an in-process StorageManager.
// It backs unit tests and single-node development runs; data is lost on exit.
package memory

import (
	"context"
	"sync"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/bobmcallan/tradedesk/internal/models"
)

// Manager implements interfaces.StorageManager with maps guarded by one mutex.
// A single lock makes every Ledger apply trivially atomic.
type Manager struct {
	mu     sync.RWMutex
	logger *common.Logger

	users     map[string]*models.User
	emails    map[string]string // lower-cased email -> user id
	stocks    map[string]*models.Stock
	positions map[string]*models.Position // userID|symbol
	trades    []*models.Trade
	cash      []*models.CashTransaction
	history   map[string]map[string]*models.DailySnapshot // userID -> day
	alerts    map[string]*models.Alert
}

// NewManager creates an empty in-memory store.
func NewManager(logger *common.Logger) *Manager {
	m := &Manager{
		logger:    logger,
		users:     make(map[string]*models.User),
		emails:    make(map[string]string),
		stocks:    make(map[string]*models.Stock),
		positions: make(map[string]*models.Position),
		history:   make(map[string]map[string]*models.DailySnapshot),
		alerts:    make(map[string]*models.Alert),
	}
	logger.Info().Msg("In-memory storage manager initialized")
	return m
}

func (m *Manager) UserStore() interfaces.UserStore         { return (*userStore)(m) }
func (m *Manager) StockStore() interfaces.StockStore       { return (*stockStore)(m) }
func (m *Manager) PositionStore() interfaces.PositionStore { return (*positionStore)(m) }
func (m *Manager) TradeStore() interfaces.TradeStore       { return (*tradeStore)(m) }
func (m *Manager) CashStore() interfaces.CashStore         { return (*cashStore)(m) }
func (m *Manager) HistoryStore() interfaces.HistoryStore   { return (*historyStore)(m) }
func (m *Manager) AlertStore() interfaces.AlertStore       { return (*alertStore)(m) }
func (m *Manager) Ledger() interfaces.Ledger               { return (*ledger)(m) }

// PurgeUser removes the user and everything they own.
func (m *Manager) PurgeUser(ctx context.Context, userID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	counts := map[string]int{"user": 1}
	delete(m.emails, normalizeEmail(u.Email))
	delete(m.users, userID)

	for k, p := range m.positions {
		if p.UserID == userID {
			delete(m.positions, k)
			counts["position"]++
		}
	}

	trades := m.trades[:0]
	for _, t := range m.trades {
		if t.UserID == userID {
			counts["trade"]++
			continue
		}
		trades = append(trades, t)
	}
	m.trades = trades

	cash := m.cash[:0]
	for _, c := range m.cash {
		if c.UserID == userID {
			counts["cash_transaction"]++
			continue
		}
		cash = append(cash, c)
	}
	m.cash = cash

	counts["history"] = len(m.history[userID])
	delete(m.history, userID)

	for id, a := range m.alerts {
		if a.UserID == userID {
			delete(m.alerts, id)
			counts["alert"]++
		}
	}

	return counts, nil
}

// Close is a no-op for the in-memory store.
func (m *Manager) Close() error {
	return nil
}

func positionKey(userID, symbol string) string {
	return userID + "|" + symbol
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
