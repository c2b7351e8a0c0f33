package surrealdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/bobmcallan/tradedesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fundedUser(t *testing.T, m *Manager, funds float64) *models.User {
	t.Helper()
	user := newTestUser("u1", "ledger@example.com")
	user.AvailableFunds = funds
	user.TotalBalance = funds
	require.NoError(t, m.UserStore().CreateUser(context.Background(), user))
	got, err := m.UserStore().GetUser(context.Background(), "u1")
	require.NoError(t, err)
	return got
}

func buyMutation(current *models.User, posVersion int) *models.LedgerMutation {
	next := *current
	next.AvailableFunds = current.AvailableFunds - 500
	next.InvestedAmount = current.InvestedAmount + 500
	next.Version = current.Version + 1

	now := time.Now()
	return &models.LedgerMutation{
		User:            &next,
		ExpectedVersion: current.Version,
		MinFundsBefore:  500,
		Position: &models.PositionChange{
			Position: &models.Position{
				UserID: current.UserID, Symbol: "AAPL", Quantity: 5, Price: 100, CostBasis: 500,
				Version: posVersion + 1, CreatedAt: now, UpdatedAt: now,
			},
			ExpectedVersion: posVersion,
		},
		Trade: &models.Trade{
			TradeID: "t-" + now.Format("150405.000000000"), UserID: current.UserID, Type: models.TradeBuy,
			Symbol: "AAPL", Quantity: 5, Price: 100, Total: 500, CreatedAt: now,
		},
	}
}

func TestLedgerApplyWritesEverything(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	user := fundedUser(t, m, 1000)

	require.NoError(t, m.Ledger().Apply(ctx, buyMutation(user, 0)))

	got, err := m.UserStore().GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 500.0, got.AvailableFunds)
	assert.Equal(t, user.Version+1, got.Version)

	pos, err := m.PositionStore().GetPosition(ctx, "u1", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 5.0, pos.Quantity)

	trades, err := m.TradeStore().ListTrades(ctx, "u1", interfaces.QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestLedgerGuards(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(mut *models.LedgerMutation)
		want   error
	}{
		{"stale version", func(mut *models.LedgerMutation) { mut.ExpectedVersion = 99 }, common.ErrConflict},
		{"funds guard", func(mut *models.LedgerMutation) { mut.MinFundsBefore = 5000 }, common.ErrConflict},
		{"position exists expected new", nil, common.ErrConflict},
		{"missing user", func(mut *models.LedgerMutation) { mut.User.UserID = "ghost" }, common.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testManager(t)
			ctx := context.Background()
			user := fundedUser(t, m, 1000)

			if tt.mutate == nil {
				require.NoError(t, m.Ledger().Apply(ctx, buyMutation(user, 0)))
				user, _ = m.UserStore().GetUser(ctx, "u1")
				mut := buyMutation(user, 0)
				assert.ErrorIs(t, m.Ledger().Apply(ctx, mut), tt.want)
				return
			}

			mut := buyMutation(user, 0)
			tt.mutate(mut)
			assert.ErrorIs(t, m.Ledger().Apply(ctx, mut), tt.want)

			got, err := m.UserStore().GetUser(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, 1000.0, got.AvailableFunds)
			_, err = m.PositionStore().GetPosition(ctx, "u1", "AAPL")
			assert.ErrorIs(t, err, common.ErrNotFound)
		})
	}
}

func TestLedgerConcurrentApplySingleWinner(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	user := fundedUser(t, m, 1000)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Ledger().Apply(ctx, buyMutation(user, 0)); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}
