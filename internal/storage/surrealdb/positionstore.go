package surrealdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// PositionStore reads the position table. Record ids are <user>_<symbol>.
type PositionStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewPositionStore(db *surrealdb.DB, logger *common.Logger) *PositionStore {
	return &PositionStore{db: db, logger: logger}
}

func positionID(userID, symbol string) string {
	return userID + "_" + symbol
}

func (s *PositionStore) GetPosition(ctx context.Context, userID, symbol string) (*models.Position, error) {
	pos, err := selectRecord[models.Position](ctx, s.db, tablePosition, positionID(userID, symbol))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("position %s/%s: %w", userID, symbol, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to select position: %w", err)
	}
	return pos, nil
}

func (s *PositionStore) ListPositions(ctx context.Context, userID string) ([]*models.Position, error) {
	sql := "SELECT * FROM position WHERE user_id = $user_id ORDER BY symbol ASC"
	positions, err := queryList[models.Position](ctx, s.db, sql, map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	return positions, nil
}

func (s *PositionStore) ListBySymbol(ctx context.Context, symbol string) ([]*models.Position, error) {
	sql := "SELECT * FROM position WHERE symbol = $symbol ORDER BY user_id ASC"
	positions, err := queryList[models.Position](ctx, s.db, sql, map[string]any{"symbol": symbol})
	if err != nil {
		return nil, fmt.Errorf("failed to list positions by symbol: %w", err)
	}
	return positions, nil
}

func (s *PositionStore) ListAllPositions(ctx context.Context) ([]*models.Position, error) {
	positions, err := queryList[models.Position](ctx, s.db, "SELECT * FROM position ORDER BY user_id ASC, symbol ASC", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	return positions, nil
}
