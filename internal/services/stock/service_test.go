package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
	"github.com/bobmcallan/tradedesk/internal/storage/memory"
)

type mockRefresher struct {
	symbols []string
}

func (m *mockRefresher) RefreshHolders(_ context.Context, symbol string) (int, error) {
	m.symbols = append(m.symbols, symbol)
	return 1, nil
}

func newTestService(t *testing.T) (*Service, *memory.Manager, *mockRefresher) {
	t.Helper()
	store := memory.NewManager(common.NewSilentLogger())
	ref := &mockRefresher{}
	return NewService(store, ref, common.NewSilentLogger()), store, ref
}

func TestCreateAndList(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, in := range []models.StockInput{
		{Symbol: "msft", Name: "Microsoft", Price: 410},
		{Symbol: "AAPL", Name: "Apple", Price: 170, Color: "#ff0000"},
	} {
		_, err := svc.CreateStock(ctx, in)
		require.NoError(t, err)
	}

	_, err := svc.CreateStock(ctx, models.StockInput{Symbol: "MSFT", Name: "Dup"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	all, err := svc.ListStocks(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "AAPL", all[0].Symbol)
	assert.Equal(t, models.DefaultColor, all[1].Color)

	found, err := svc.ListStocks(ctx, "micro")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "MSFT", found[0].Symbol)
}

func TestUpdatePriceRefreshesHolders(t *testing.T) {
	svc, _, ref := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateStock(ctx, models.StockInput{Symbol: "AAPL", Name: "Apple", Price: 170})
	require.NoError(t, err)

	name := "Apple Inc"
	_, err = svc.UpdateStock(ctx, "aapl", models.StockUpdate{Name: &name})
	require.NoError(t, err)
	assert.Empty(t, ref.symbols)

	price := 180.0
	updated, err := svc.UpdateStock(ctx, "AAPL", models.StockUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 180.0, updated.Price)
	assert.Equal(t, "Apple Inc", updated.Name)
	assert.Equal(t, []string{"AAPL"}, ref.symbols)

	_, err = svc.UpdateStock(ctx, "NOPE", models.StockUpdate{Price: &price})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteRejectedWhileHeld(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateStock(ctx, models.StockInput{Symbol: "AAPL", Name: "Apple", Price: 170})
	require.NoError(t, err)
	require.NoError(t, store.UserStore().CreateUser(ctx, &models.User{UserID: "u1", Email: "u1@example.com", AvailableFunds: 1000, TotalBalance: 1000}))

	u, err := store.UserStore().GetUser(ctx, "u1")
	require.NoError(t, err)
	next := *u
	next.Version++
	require.NoError(t, store.Ledger().Apply(ctx, &models.LedgerMutation{
		User:            &next,
		ExpectedVersion: u.Version,
		Position: &models.PositionChange{
			Position: &models.Position{UserID: "u1", Symbol: "AAPL", Quantity: 1, Price: 170, Version: 1},
		},
	}))

	err = svc.DeleteStock(ctx, "AAPL")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.CreateStock(ctx, models.StockInput{Symbol: "TSLA", Name: "Tesla"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteStock(ctx, "tsla"))
	_, err = svc.GetStock(ctx, "TSLA")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
