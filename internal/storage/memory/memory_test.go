package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/bobmcallan/tradedesk/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(common.NewSilentLogger())
}

func seedUser(t *testing.T, m *Manager, id string, funds float64) *models.User {
	t.Helper()
	u := &models.User{
		UserID:         id,
		Email:          id + "@example.com",
		Role:           models.RoleUser,
		AvailableFunds: funds,
		TotalBalance:   funds,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, m.UserStore().CreateUser(context.Background(), u))
	return u
}

func TestUserStore_EmailUniqueAndCaseInsensitive(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	seedUser(t, m, "alice", 0)

	err := m.UserStore().CreateUser(ctx, &models.User{UserID: "alice2", Email: "ALICE@example.com"})
	assert.True(t, errors.Is(err, common.ErrAlreadyExists))

	got, err := m.UserStore().GetUserByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, 1, got.Version)

	_, err = m.UserStore().GetUser(ctx, "nobody")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestUserStore_SaveUserBumpsVersion(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	u := seedUser(t, m, "bob", 0)

	u.Role = models.RoleAdmin
	require.NoError(t, m.UserStore().SaveUser(ctx, u))

	got, err := m.UserStore().GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.Equal(t, 2, got.Version)
}

func TestUserStore_SaveUserKeepsLedgerBalances(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	seedUser(t, m, "erin", 1000)

	stale, err := m.UserStore().GetUser(ctx, "erin")
	require.NoError(t, err)

	// A deposit commits between the read and the profile write
	next := *stale
	next.AvailableFunds = 1500
	next.TotalBalance = 1500
	next.Version = stale.Version + 1
	require.NoError(t, m.Ledger().Apply(ctx, &models.LedgerMutation{User: &next, ExpectedVersion: stale.Version}))

	stale.Role = models.RoleAdmin
	require.NoError(t, m.UserStore().SaveUser(ctx, stale))

	got, err := m.UserStore().GetUser(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.Equal(t, 1500.0, got.AvailableFunds)
	assert.Equal(t, 1500.0, got.TotalBalance)
	assert.Equal(t, 3, got.Version)
	assert.Equal(t, 3, stale.Version)
}

func TestUserStore_SaveUserRejectsTakenEmail(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	seedUser(t, m, "frank", 0)
	u := seedUser(t, m, "gina", 0)

	u.Email = "FRANK@example.com"
	err := m.UserStore().SaveUser(ctx, u)
	assert.True(t, errors.Is(err, common.ErrAlreadyExists))
}

func TestLedger_AppliesAllDocuments(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	u := seedUser(t, m, "carol", 1000)

	next := *u
	next.AvailableFunds = 800
	next.InvestedAmount = 200
	next.Version = u.Version + 1
	err := m.Ledger().Apply(ctx, &models.LedgerMutation{
		User:            &next,
		ExpectedVersion: u.Version,
		MinFundsBefore:  200,
		Position: &models.PositionChange{
			Position: &models.Position{UserID: "carol", Symbol: "AAPL", Quantity: 2, Price: 100, Version: 1},
		},
		Trade: &models.Trade{TradeID: "t1", UserID: "carol", Type: models.TradeBuy, Symbol: "AAPL", Quantity: 2, Price: 100, Total: 200, CreatedAt: time.Now()},
	})
	require.NoError(t, err)

	got, _ := m.UserStore().GetUser(ctx, "carol")
	assert.Equal(t, 800.0, got.AvailableFunds)
	pos, err := m.PositionStore().GetPosition(ctx, "carol", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2.0, pos.Quantity)
	trades, _ := m.TradeStore().ListTrades(ctx, "carol", interfaces.QueryOptions{})
	assert.Len(t, trades, 1)
}

func TestLedger_GuardsLeaveStoreUntouched(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	u := seedUser(t, m, "dave", 100)

	tests := []struct {
		name string
		mut  func(next *models.User) *models.LedgerMutation
	}{
		{"stale version", func(next *models.User) *models.LedgerMutation {
			return &models.LedgerMutation{User: next, ExpectedVersion: u.Version + 5}
		}},
		{"funds guard", func(next *models.User) *models.LedgerMutation {
			return &models.LedgerMutation{User: next, ExpectedVersion: u.Version, MinFundsBefore: 500}
		}},
		{"position must exist", func(next *models.User) *models.LedgerMutation {
			return &models.LedgerMutation{User: next, ExpectedVersion: u.Version, Position: &models.PositionChange{
				Position: &models.Position{UserID: "dave", Symbol: "MSFT"}, ExpectedVersion: 3, Delete: true,
			}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := *u
			next.AvailableFunds = 0
			next.Version = u.Version + 1
			err := m.Ledger().Apply(ctx, tt.mut(&next))
			assert.True(t, errors.Is(err, common.ErrConflict), "got %v", err)

			got, _ := m.UserStore().GetUser(ctx, "dave")
			assert.Equal(t, 100.0, got.AvailableFunds)
			assert.Equal(t, u.Version, got.Version)
		})
	}
}

func TestLedger_ConcurrentAppliesSerialize(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	u := seedUser(t, m, "erin", 100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := *u
			next.AvailableFunds = 50
			next.Version = u.Version + 1
			if err := m.Ledger().Apply(ctx, &models.LedgerMutation{User: &next, ExpectedVersion: u.Version}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
}

func TestHistoryStore_FindBeforeIsStrict(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	hs := m.HistoryStore()

	for _, day := range []string{"2026-01-01", "2026-01-05", "2026-01-10"} {
		d, _ := time.Parse(time.DateOnly, day)
		require.NoError(t, hs.SaveSnapshot(ctx, &models.DailySnapshot{UserID: "u", Date: d, Day: day}))
	}

	target, _ := time.Parse(time.DateOnly, "2026-01-10")
	got, err := hs.FindBefore(ctx, "u", target)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-05", got.Day)

	first, _ := time.Parse(time.DateOnly, "2026-01-01")
	_, err = hs.FindBefore(ctx, "u", first)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	list, err := hs.ListSnapshots(ctx, "u", first)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2026-01-01", list[0].Day)
}

func TestHistoryStore_SaveIsUpsertPerDay(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	hs := m.HistoryStore()
	d, _ := time.Parse(time.DateOnly, "2026-02-02")

	require.NoError(t, hs.SaveSnapshot(ctx, &models.DailySnapshot{UserID: "u", Date: d, Day: "2026-02-02", TotalValue: 1}))
	require.NoError(t, hs.SaveSnapshot(ctx, &models.DailySnapshot{UserID: "u", Date: d, Day: "2026-02-02", TotalValue: 2}))

	list, _ := hs.ListSnapshots(ctx, "u", time.Time{})
	require.Len(t, list, 1)
	assert.Equal(t, 2.0, list[0].TotalValue)
}

func TestAlertStore_ScopedToOwner(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	as := m.AlertStore()
	require.NoError(t, as.SaveAlert(ctx, &models.Alert{AlertID: "a1", UserID: "u1", CreatedAt: time.Now()}))
	require.NoError(t, as.SaveAlert(ctx, &models.Alert{AlertID: "a2", UserID: "u1", CreatedAt: time.Now().Add(time.Second)}))

	_, err := as.GetAlert(ctx, "u2", "a1")
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.True(t, errors.Is(as.DeleteAlert(ctx, "u2", "a1"), common.ErrNotFound))

	n, _ := as.CountUnread(ctx, "u1")
	assert.Equal(t, 2, n)
	marked, _ := as.MarkAllRead(ctx, "u1")
	assert.Equal(t, 2, marked)
	unread, _ := as.ListAlerts(ctx, "u1", true, 0)
	assert.Empty(t, unread)
}

func TestPurgeUser_RemovesOwnedDocuments(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	u := seedUser(t, m, "frank", 10)
	seedUser(t, m, "grace", 10)

	next := *u
	next.Version = u.Version + 1
	require.NoError(t, m.Ledger().Apply(ctx, &models.LedgerMutation{
		User: &next, ExpectedVersion: u.Version,
		Position: &models.PositionChange{Position: &models.Position{UserID: "frank", Symbol: "X", Quantity: 1, Version: 1}},
		Trade:    &models.Trade{TradeID: "t", UserID: "frank"},
		Alert:    &models.Alert{AlertID: "a", UserID: "frank"},
	}))

	counts, err := m.PurgeUser(ctx, "frank")
	require.NoError(t, err)
	assert.Equal(t, 1, counts["position"])
	assert.Equal(t, 1, counts["trade"])
	assert.Equal(t, 1, counts["alert"])

	_, err = m.UserStore().GetUser(ctx, "frank")
	assert.True(t, errors.Is(err, common.ErrNotFound))
	_, err = m.UserStore().GetUser(ctx, "grace")
	assert.NoError(t, err)
}
