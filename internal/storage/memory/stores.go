package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/bobmcallan/tradedesk/internal/models"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func limitSlice[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// --- users ---

type userStore Manager

func (s *userStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, common.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[normalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("user with email %s: %w", email, common.ErrNotFound)
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *userStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(user.Email)
	if _, ok := s.emails[email]; ok {
		return fmt.Errorf("email %s: %w", user.Email, common.ErrAlreadyExists)
	}
	if _, ok := s.users[user.UserID]; ok {
		return fmt.Errorf("user %s: %w", user.UserID, common.ErrAlreadyExists)
	}
	if user.Version == 0 {
		user.Version = 1
	}
	user.Email = email
	cp := *user
	s.users[user.UserID] = &cp
	s.emails[email] = user.UserID
	return nil
}

func (s *userStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.UserID]
	if !ok {
		return fmt.Errorf("user %s: %w", user.UserID, common.ErrNotFound)
	}
	email := normalizeEmail(user.Email)
	if owner, ok := s.emails[email]; ok && owner != user.UserID {
		return fmt.Errorf("email %s: %w", user.Email, common.ErrAlreadyExists)
	}

	// Profile fields only; balances belong to the ledger.
	updated := *existing
	updated.Email = email
	updated.Name = user.Name
	updated.Role = user.Role
	updated.PasswordHash = user.PasswordHash
	updated.ModifiedAt = time.Now()
	updated.Version = existing.Version + 1

	delete(s.emails, normalizeEmail(existing.Email))
	s.users[user.UserID] = &updated
	s.emails[email] = user.UserID

	user.Email = email
	user.ModifiedAt = updated.ModifiedAt
	user.Version = updated.Version
	return nil
}

func (s *userStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- stocks ---

type stockStore Manager

func (s *stockStore) GetStock(ctx context.Context, symbol string) (*models.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stocks[symbol]
	if !ok {
		return nil, fmt.Errorf("stock %s: %w", symbol, common.ErrNotFound)
	}
	cp := *st
	return &cp, nil
}

func (s *stockStore) SaveStock(ctx context.Context, stock *models.Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *stock
	s.stocks[stock.Symbol] = &cp
	return nil
}

func (s *stockStore) DeleteStock(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stocks[symbol]; !ok {
		return fmt.Errorf("stock %s: %w", symbol, common.ErrNotFound)
	}
	delete(s.stocks, symbol)
	return nil
}

func (s *stockStore) ListStocks(ctx context.Context) ([]*models.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Stock, 0, len(s.stocks))
	for _, st := range s.stocks {
		cp := *st
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// --- positions ---

type positionStore Manager

func (s *positionStore) GetPosition(ctx context.Context, userID, symbol string) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[positionKey(userID, symbol)]
	if !ok {
		return nil, fmt.Errorf("position %s/%s: %w", userID, symbol, common.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *positionStore) filter(keep func(*models.Position) bool) []*models.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Position, 0)
	for _, p := range s.positions {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func (s *positionStore) ListPositions(ctx context.Context, userID string) ([]*models.Position, error) {
	return s.filter(func(p *models.Position) bool { return p.UserID == userID }), nil
}

func (s *positionStore) ListBySymbol(ctx context.Context, symbol string) ([]*models.Position, error) {
	return s.filter(func(p *models.Position) bool { return p.Symbol == symbol }), nil
}

func (s *positionStore) ListAllPositions(ctx context.Context) ([]*models.Position, error) {
	return s.filter(func(*models.Position) bool { return true }), nil
}

// --- trades ---

type tradeStore Manager

func (s *tradeStore) list(userID string, opts interfaces.QueryOptions) []*models.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Trade, 0)
	for i := len(s.trades) - 1; i >= 0; i-- {
		t := s.trades[i]
		if userID != "" && t.UserID != userID {
			continue
		}
		if !opts.Since.IsZero() && t.CreatedAt.Before(opts.Since) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return limitSlice(out, opts.Limit)
}

func (s *tradeStore) ListTrades(ctx context.Context, userID string, opts interfaces.QueryOptions) ([]*models.Trade, error) {
	return s.list(userID, opts), nil
}

func (s *tradeStore) ListAllTrades(ctx context.Context, opts interfaces.QueryOptions) ([]*models.Trade, error) {
	return s.list("", opts), nil
}

func (s *tradeStore) CountTrades(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trades), nil
}

// --- cash ---

type cashStore Manager

func (s *cashStore) list(userID string, opts interfaces.QueryOptions) []*models.CashTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.CashTransaction, 0)
	for i := len(s.cash) - 1; i >= 0; i-- {
		c := s.cash[i]
		if userID != "" && c.UserID != userID {
			continue
		}
		if !opts.Since.IsZero() && c.CreatedAt.Before(opts.Since) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return limitSlice(out, opts.Limit)
}

func (s *cashStore) ListCashTransactions(ctx context.Context, userID string, opts interfaces.QueryOptions) ([]*models.CashTransaction, error) {
	return s.list(userID, opts), nil
}

func (s *cashStore) ListAllCashTransactions(ctx context.Context, opts interfaces.QueryOptions) ([]*models.CashTransaction, error) {
	return s.list("", opts), nil
}

// --- history ---

type historyStore Manager

func (s *historyStore) SaveSnapshot(ctx context.Context, snapshot *models.DailySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	days, ok := s.history[snapshot.UserID]
	if !ok {
		days = make(map[string]*models.DailySnapshot)
		s.history[snapshot.UserID] = days
	}
	cp := *snapshot
	cp.Assets = append([]models.AssetValue(nil), snapshot.Assets...)
	days[snapshot.Day] = &cp
	return nil
}

func (s *historyStore) GetSnapshot(ctx context.Context, userID, day string) (*models.DailySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.history[userID][day]
	if !ok {
		return nil, fmt.Errorf("snapshot %s/%s: %w", userID, day, common.ErrNotFound)
	}
	cp := *snap
	return &cp, nil
}

func (s *historyStore) FindBefore(ctx context.Context, userID string, before time.Time) (*models.DailySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.DailySnapshot
	for _, snap := range s.history[userID] {
		if !snap.Date.Before(before) {
			continue
		}
		if best == nil || snap.Date.After(best.Date) {
			best = snap
		}
	}
	if best == nil {
		return nil, fmt.Errorf("snapshot before %s: %w", before.Format(time.DateOnly), common.ErrNotFound)
	}
	cp := *best
	return &cp, nil
}

func (s *historyStore) ListSnapshots(ctx context.Context, userID string, from time.Time) ([]*models.DailySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.DailySnapshot, 0)
	for _, snap := range s.history[userID] {
		if snap.Date.Before(from) {
			continue
		}
		cp := *snap
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// --- alerts ---

type alertStore Manager

func (s *alertStore) ListAlerts(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Alert, 0)
	for _, a := range s.alerts {
		if a.UserID != userID || (unreadOnly && a.Read) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return limitSlice(out, limit), nil
}

func (s *alertStore) GetAlert(ctx context.Context, userID, alertID string) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alerts[alertID]
	if !ok || a.UserID != userID {
		return nil, fmt.Errorf("alert %s: %w", alertID, common.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (s *alertStore) SaveAlert(ctx context.Context, alert *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *alert
	s.alerts[alert.AlertID] = &cp
	return nil
}

func (s *alertStore) MarkAllRead(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.alerts {
		if a.UserID == userID && !a.Read {
			a.Read = true
			n++
		}
	}
	return n, nil
}

func (s *alertStore) DeleteAlert(ctx context.Context, userID, alertID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[alertID]
	if !ok || a.UserID != userID {
		return fmt.Errorf("alert %s: %w", alertID, common.ErrNotFound)
	}
	delete(s.alerts, alertID)
	return nil
}

func (s *alertStore) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.alerts {
		if a.UserID == userID && !a.Read {
			n++
		}
	}
	return n, nil
}
