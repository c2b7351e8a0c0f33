package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// HistoryStore persists daily snapshots with record id <user>_<YYYY-MM-DD>, so an
// upsert on the same day replaces the earlier snapshot.
// ListSnapshots ranges over the day string, which sorts chronologically;
// FindBefore compares the snapshot date so a time-of-day cutoff is honoured.
type HistoryStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewHistoryStore(db *surrealdb.DB, logger *common.Logger) *HistoryStore {
	return &HistoryStore{db: db, logger: logger}
}

func snapshotID(userID, day string) string {
	return userID + "_" + day
}

func (s *HistoryStore) SaveSnapshot(ctx context.Context, snapshot *models.DailySnapshot) error {
	return upsertRecord(ctx, s.db, tableHistory, snapshotID(snapshot.UserID, snapshot.Day), snapshot)
}

func (s *HistoryStore) GetSnapshot(ctx context.Context, userID, day string) (*models.DailySnapshot, error) {
	snap, err := selectRecord[models.DailySnapshot](ctx, s.db, tableHistory, snapshotID(userID, day))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("snapshot %s/%s: %w", userID, day, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to select snapshot: %w", err)
	}
	return snap, nil
}

func (s *HistoryStore) FindBefore(ctx context.Context, userID string, before time.Time) (*models.DailySnapshot, error) {
	sql := "SELECT * FROM history WHERE user_id = $user_id AND date < $before ORDER BY date DESC LIMIT 1"
	vars := map[string]any{"user_id": userID, "before": before.UTC()}

	snap, err := queryFirst[models.DailySnapshot](ctx, s.db, sql, vars)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("snapshot before %s: %w", before.UTC().Format(time.RFC3339), common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	return snap, nil
}

func (s *HistoryStore) ListSnapshots(ctx context.Context, userID string, from time.Time) ([]*models.DailySnapshot, error) {
	sql := "SELECT * FROM history WHERE user_id = $user_id AND day >= $from ORDER BY day ASC"
	vars := map[string]any{"user_id": userID, "from": common.DayKey(from)}
	if from.IsZero() {
		sql = "SELECT * FROM history WHERE user_id = $user_id ORDER BY day ASC"
	}

	snaps, err := queryList[models.DailySnapshot](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snaps, nil
}
