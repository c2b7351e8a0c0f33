package surrealdb

import (
	"context"
	"fmt"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/surrealdb/surrealdb.go"
)

// Table names
const (
	tableUser     = "user"
	tableStock    = "stock"
	tablePosition = "position"
	tableTrade    = "trade"
	tableCash     = "cash_transaction"
	tableHistory  = "history"
	tableAlert    = "alert"
)

var schema = []string{
	"DEFINE TABLE IF NOT EXISTS user SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS stock SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS position SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS trade SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS cash_transaction SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS history SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS alert SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS user_email ON TABLE user FIELDS email UNIQUE",
	"DEFINE INDEX IF NOT EXISTS position_user ON TABLE position FIELDS user_id",
	"DEFINE INDEX IF NOT EXISTS position_symbol ON TABLE position FIELDS symbol",
	"DEFINE INDEX IF NOT EXISTS trade_user ON TABLE trade FIELDS user_id, created_at",
	"DEFINE INDEX IF NOT EXISTS cash_user ON TABLE cash_transaction FIELDS user_id, created_at",
	"DEFINE INDEX IF NOT EXISTS history_user_day ON TABLE history FIELDS user_id, day",
	"DEFINE INDEX IF NOT EXISTS alert_user ON TABLE alert FIELDS user_id, read",
}

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	userStore     *UserStore
	stockStore    *StockStore
	positionStore *PositionStore
	tradeStore    *TradeStore
	cashStore     *CashStore
	historyStore  *HistoryStore
	alertStore    *AlertStore
	ledger        *Ledger
}

// NewManager connects, signs in, selects the namespace/database and defines the schema.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Storage.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Storage.Username,
		"pass": config.Storage.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Storage.Namespace, config.Storage.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	m, err := newManagerWithDB(ctx, db, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("address", config.Storage.Address).
		Str("namespace", config.Storage.Namespace).
		Str("database", config.Storage.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

// newManagerWithDB defines the schema on an already-selected database.
func newManagerWithDB(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*Manager, error) {
	// SurrealDB v3 errors on querying non-existent tables
	for _, sql := range schema {
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to apply schema %q: %w", sql, err)
		}
	}

	return &Manager{
		db:            db,
		logger:        logger,
		userStore:     NewUserStore(db, logger),
		stockStore:    NewStockStore(db, logger),
		positionStore: NewPositionStore(db, logger),
		tradeStore:    NewTradeStore(db, logger),
		cashStore:     NewCashStore(db, logger),
		historyStore:  NewHistoryStore(db, logger),
		alertStore:    NewAlertStore(db, logger),
		ledger:        NewLedger(db, logger),
	}, nil
}

func (m *Manager) UserStore() interfaces.UserStore {
	return m.userStore
}

func (m *Manager) StockStore() interfaces.StockStore {
	return m.stockStore
}

func (m *Manager) PositionStore() interfaces.PositionStore {
	return m.positionStore
}

func (m *Manager) TradeStore() interfaces.TradeStore {
	return m.tradeStore
}

func (m *Manager) CashStore() interfaces.CashStore {
	return m.cashStore
}

func (m *Manager) HistoryStore() interfaces.HistoryStore {
	return m.historyStore
}

func (m *Manager) AlertStore() interfaces.AlertStore {
	return m.alertStore
}

func (m *Manager) Ledger() interfaces.Ledger {
	return m.ledger
}

// PurgeUser deletes the user and all owned documents in one transaction.
func (m *Manager) PurgeUser(ctx context.Context, userID string) (map[string]int, error) {
	if _, err := m.userStore.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	owned := []string{tablePosition, tableTrade, tableCash, tableHistory, tableAlert}
	for _, table := range owned {
		n, err := countRows(ctx, m.db, fmt.Sprintf("SELECT count() AS count FROM %s WHERE user_id = $user_id GROUP ALL", table), map[string]any{"user_id": userID})
		if err != nil {
			return nil, fmt.Errorf("failed to count %s for user: %w", table, err)
		}
		counts[table] = n
	}

	sql := "BEGIN TRANSACTION;"
	for _, table := range owned {
		sql += fmt.Sprintf(" DELETE %s WHERE user_id = $user_id;", table)
	}
	sql += " DELETE type::record('user', $user_id); COMMIT TRANSACTION;"

	if err := runTransaction(ctx, m.db, sql, map[string]any{"user_id": userID}); err != nil {
		return nil, fmt.Errorf("failed to purge user %s: %w", userID, err)
	}
	counts[tableUser] = 1

	m.logger.Info().
		Str("user_id", userID).
		Int("positions", counts[tablePosition]).
		Int("trades", counts[tableTrade]).
		Int("history", counts[tableHistory]).
		Msg("User purged")

	return counts, nil
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
