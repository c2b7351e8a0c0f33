package portfolio

import (
	"context"
	"fmt"
	"sort"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/bobmcallan/tradedesk/internal/models"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
	defaultHistoryDays   = 30
	maxHistoryDays       = 3650
	alertListLimit       = 100
)

// Activity kinds
const (
	KindTrade = "trade"
	KindCash  = "cash"
)

// ListActivity merges trades and cash transactions, newest first.
// filter.Kind may be a kind ("trade", "cash") or a single entry type such as "buy".
func (s *Service) ListActivity(ctx context.Context, userID string, filter models.ActivityFilter) ([]models.ActivityEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	wantTrades, wantCash, typeFilter := true, true, ""
	switch filter.Kind {
	case "":
	case KindTrade:
		wantCash = false
	case KindCash:
		wantTrades = false
	case string(models.TradeBuy), string(models.TradeSell), string(models.TradeAdd):
		wantCash, typeFilter = false, filter.Kind
	case string(models.CashTxDeposit), string(models.CashTxWithdrawal):
		wantTrades, typeFilter = false, filter.Kind
	default:
		return nil, common.NewValidationError("type", "unknown activity type %q", filter.Kind)
	}

	// Type filtering happens after the fetch, so read the full window.
	opts := interfaces.QueryOptions{Limit: limit}
	if typeFilter != "" {
		opts.Limit = 0
	}

	var entries []models.ActivityEntry
	if wantTrades {
		trades, err := s.storage.TradeStore().ListTrades(ctx, userID, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list trades: %w", err)
		}
		for _, t := range trades {
			entries = append(entries, models.ActivityEntry{
				Kind:      KindTrade,
				ID:        t.TradeID,
				Type:      string(t.Type),
				Symbol:    t.Symbol,
				Quantity:  t.Quantity,
				Price:     t.Price,
				Amount:    t.Total,
				CreatedAt: t.CreatedAt,
			})
		}
	}
	if wantCash {
		txs, err := s.storage.CashStore().ListCashTransactions(ctx, userID, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list cash transactions: %w", err)
		}
		for _, tx := range txs {
			entries = append(entries, models.ActivityEntry{
				Kind:      KindCash,
				ID:        tx.TransactionID,
				Type:      string(tx.Type),
				Amount:    tx.Amount,
				CreatedAt: tx.CreatedAt,
			})
		}
	}

	if typeFilter != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Type == typeFilter {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []models.ActivityEntry{}
	}
	return entries, nil
}

func clampDays(days int) (int, error) {
	switch {
	case days == 0:
		return defaultHistoryDays, nil
	case days < 0:
		return 0, common.NewValidationError("days", "must be positive")
	case days > maxHistoryDays:
		return maxHistoryDays, nil
	default:
		return days, nil
	}
}

// GetHistory returns the last days of snapshots, oldest first.
func (s *Service) GetHistory(ctx context.Context, userID string, days int) ([]*models.DailySnapshot, error) {
	days, err := clampDays(days)
	if err != nil {
		return nil, err
	}
	from := common.StartOfDay(s.now()).AddDate(0, 0, -days)
	snaps, err := s.storage.HistoryStore().ListSnapshots(ctx, userID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snaps, nil
}

// RenderHistoryChart draws total value against invested amount as a PNG.
func (s *Service) RenderHistoryChart(ctx context.Context, userID string, days int) ([]byte, error) {
	snaps, err := s.GetHistory(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	if len(snaps) < 2 {
		return nil, common.NewValidationError("days", "need at least 2 snapshots to chart, found %d", len(snaps))
	}
	return RenderHistoryChart(snaps)
}

// ListAlerts returns the user's alerts, newest first.
func (s *Service) ListAlerts(ctx context.Context, userID string, unreadOnly bool) ([]*models.Alert, error) {
	return s.storage.AlertStore().ListAlerts(ctx, userID, unreadOnly, alertListLimit)
}

// MarkAlertRead flags one alert as read.
func (s *Service) MarkAlertRead(ctx context.Context, userID, alertID string) (*models.Alert, error) {
	alert, err := s.storage.AlertStore().GetAlert(ctx, userID, alertID)
	if err != nil {
		return nil, err
	}
	if alert.Read {
		return alert, nil
	}
	alert.Read = true
	if err := s.storage.AlertStore().SaveAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to save alert: %w", err)
	}
	return alert, nil
}

// MarkAllAlertsRead flags every unread alert as read and returns how many changed.
func (s *Service) MarkAllAlertsRead(ctx context.Context, userID string) (int, error) {
	return s.storage.AlertStore().MarkAllRead(ctx, userID)
}

// DeleteAlert removes one alert.
func (s *Service) DeleteAlert(ctx context.Context, userID, alertID string) error {
	return s.storage.AlertStore().DeleteAlert(ctx, userID, alertID)
}
