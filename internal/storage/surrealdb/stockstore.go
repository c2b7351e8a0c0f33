package surrealdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// StockStore persists the catalogue in the stock table, keyed by symbol.
type StockStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewStockStore(db *surrealdb.DB, logger *common.Logger) *StockStore {
	return &StockStore{db: db, logger: logger}
}

func (s *StockStore) GetStock(ctx context.Context, symbol string) (*models.Stock, error) {
	stock, err := selectRecord[models.Stock](ctx, s.db, tableStock, symbol)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("stock %s: %w", symbol, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to select stock: %w", err)
	}
	return stock, nil
}

func (s *StockStore) SaveStock(ctx context.Context, stock *models.Stock) error {
	return upsertRecord(ctx, s.db, tableStock, stock.Symbol, stock)
}

func (s *StockStore) DeleteStock(ctx context.Context, symbol string) error {
	if _, err := s.GetStock(ctx, symbol); err != nil {
		return err
	}
	return deleteRecord[models.Stock](ctx, s.db, tableStock, symbol)
}

func (s *StockStore) ListStocks(ctx context.Context) ([]*models.Stock, error) {
	stocks, err := queryList[models.Stock](ctx, s.db, "SELECT * FROM stock ORDER BY symbol ASC", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	return stocks, nil
}
