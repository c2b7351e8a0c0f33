package surrealdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// AlertStore persists alerts keyed by alert id. Every read and write is
// filtered by owner.
type AlertStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewAlertStore(db *surrealdb.DB, logger *common.Logger) *AlertStore {
	return &AlertStore{db: db, logger: logger}
}

func (s *AlertStore) ListAlerts(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Alert, error) {
	sql := "SELECT * FROM alert WHERE user_id = $user_id"
	if unreadOnly {
		sql += " AND read = false"
	}
	sql += " ORDER BY created_at DESC" + limitClause(limit)

	alerts, err := queryList[models.Alert](ctx, s.db, sql, map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

func (s *AlertStore) GetAlert(ctx context.Context, userID, alertID string) (*models.Alert, error) {
	alert, err := selectRecord[models.Alert](ctx, s.db, tableAlert, alertID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to select alert: %w", err)
	}
	if alert == nil || alert.UserID != userID {
		return nil, fmt.Errorf("alert %s: %w", alertID, common.ErrNotFound)
	}
	return alert, nil
}

func (s *AlertStore) SaveAlert(ctx context.Context, alert *models.Alert) error {
	return upsertRecord(ctx, s.db, tableAlert, alert.AlertID, alert)
}

func (s *AlertStore) MarkAllRead(ctx context.Context, userID string) (int, error) {
	sql := "UPDATE alert SET read = true WHERE user_id = $user_id AND read = false RETURN AFTER"
	updated, err := queryList[models.Alert](ctx, s.db, sql, map[string]any{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to mark alerts read: %w", err)
	}
	return len(updated), nil
}

func (s *AlertStore) DeleteAlert(ctx context.Context, userID, alertID string) error {
	if _, err := s.GetAlert(ctx, userID, alertID); err != nil {
		return err
	}
	return deleteRecord[models.Alert](ctx, s.db, tableAlert, alertID)
}

func (s *AlertStore) CountUnread(ctx context.Context, userID string) (int, error) {
	sql := "SELECT count() AS count FROM alert WHERE user_id = $user_id AND read = false GROUP ALL"
	n, err := countRows(ctx, s.db, sql, map[string]any{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return n, nil
}
