package surrealdb

import (
	"context"
	"fmt"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/bobmcallan/tradedesk/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// TradeStore reads the append-only trade table.
type TradeStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewTradeStore(db *surrealdb.DB, logger *common.Logger) *TradeStore {
	return &TradeStore{db: db, logger: logger}
}

// buildLogQuery assembles a newest-first query over an append-only log table.
func buildLogQuery(table, userID string, opts interfaces.QueryOptions) (string, map[string]any) {
	sql := "SELECT * FROM " + table
	vars := map[string]any{}
	var where []string
	if userID != "" {
		where = append(where, "user_id = $user_id")
		vars["user_id"] = userID
	}
	if !opts.Since.IsZero() {
		where = append(where, "created_at >= $since")
		vars["since"] = opts.Since
	}
	for i, cond := range where {
		if i == 0 {
			sql += " WHERE " + cond
		} else {
			sql += " AND " + cond
		}
	}
	sql += " ORDER BY created_at DESC" + limitClause(opts.Limit)
	return sql, vars
}

func (s *TradeStore) ListTrades(ctx context.Context, userID string, opts interfaces.QueryOptions) ([]*models.Trade, error) {
	sql, vars := buildLogQuery(tableTrade, userID, opts)
	trades, err := queryList[models.Trade](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

func (s *TradeStore) ListAllTrades(ctx context.Context, opts interfaces.QueryOptions) ([]*models.Trade, error) {
	return s.ListTrades(ctx, "", opts)
}

func (s *TradeStore) CountTrades(ctx context.Context) (int, error) {
	n, err := countRows(ctx, s.db, "SELECT count() AS count FROM trade GROUP ALL", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return n, nil
}

// CashStore reads the append-only cash_transaction table.
type CashStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewCashStore(db *surrealdb.DB, logger *common.Logger) *CashStore {
	return &CashStore{db: db, logger: logger}
}

func (s *CashStore) ListCashTransactions(ctx context.Context, userID string, opts interfaces.QueryOptions) ([]*models.CashTransaction, error) {
	sql, vars := buildLogQuery(tableCash, userID, opts)
	txs, err := queryList[models.CashTransaction](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list cash transactions: %w", err)
	}
	return txs, nil
}

func (s *CashStore) ListAllCashTransactions(ctx context.Context, opts interfaces.QueryOptions) ([]*models.CashTransaction, error) {
	return s.ListCashTransactions(ctx, "", opts)
}
