package memory

import (
	"context"
	"fmt"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
)

type ledger Manager

// Apply checks every guard before writing anything, so a failed guard leaves
// the store untouched.
func (l *ledger) Apply(ctx context.Context, m *models.LedgerMutation) error {
	if m.User == nil {
		return fmt.Errorf("ledger: user is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.users[m.User.UserID]
	if !ok {
		return fmt.Errorf("ledger: user %s: %w", m.User.UserID, common.ErrNotFound)
	}
	if current.Version != m.ExpectedVersion {
		return fmt.Errorf("ledger: user %s at version %d, expected %d: %w",
			m.User.UserID, current.Version, m.ExpectedVersion, common.ErrConflict)
	}
	if current.AvailableFunds < m.MinFundsBefore {
		return fmt.Errorf("ledger: user %s funds below guard: %w", m.User.UserID, common.ErrConflict)
	}

	var posKey string
	if pc := m.Position; pc != nil {
		posKey = positionKey(pc.Position.UserID, pc.Position.Symbol)
		existing, exists := l.positions[posKey]
		switch {
		case pc.ExpectedVersion == 0 && exists:
			return fmt.Errorf("ledger: position %s already exists: %w", posKey, common.ErrConflict)
		case pc.ExpectedVersion > 0 && (!exists || existing.Version != pc.ExpectedVersion):
			return fmt.Errorf("ledger: position %s version mismatch: %w", posKey, common.ErrConflict)
		}
	}

	userCopy := *m.User
	l.users[userCopy.UserID] = &userCopy

	if pc := m.Position; pc != nil {
		if pc.Delete {
			delete(l.positions, posKey)
		} else {
			p := *pc.Position
			l.positions[posKey] = &p
		}
	}
	if m.Trade != nil {
		t := *m.Trade
		l.trades = append(l.trades, &t)
	}
	if m.CashTx != nil {
		c := *m.CashTx
		l.cash = append(l.cash, &c)
	}
	if m.Alert != nil {
		a := *m.Alert
		l.alerts[a.AlertID] = &a
	}
	return nil
}
