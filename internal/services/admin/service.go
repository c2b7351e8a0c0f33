// Package admin backs the admin dashboard: platform totals, trading
// statistics and user management.
package admin

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/bobmcallan/tradedesk/internal/models"
)

const (
	recentTradeCount = 10
	topHoldingCount  = 10
	statisticsDays   = 30
)

// Service implements AdminService
type Service struct {
	storage interfaces.StorageManager
	quotes  interfaces.QuoteService
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a new admin service
func NewService(storage interfaces.StorageManager, quotes interfaces.QuoteService, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		quotes:  quotes,
		logger:  logger,
		now:     time.Now,
	}
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// Dashboard returns platform-wide counts and cash totals.
func (s *Service) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	users, err := s.storage.UserStore().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	stocks, err := s.storage.StockStore().ListStocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	tradeCount, err := s.storage.TradeStore().CountTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count trades: %w", err)
	}
	cash, err := s.storage.CashStore().ListAllCashTransactions(ctx, interfaces.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list cash transactions: %w", err)
	}
	recent, err := s.storage.TradeStore().ListAllTrades(ctx, interfaces.QueryOptions{Limit: recentTradeCount})
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}

	stats := &models.DashboardStats{
		Users:        len(users),
		Stocks:       len(stocks),
		Trades:       tradeCount,
		RecentTrades: make([]models.Trade, 0, len(recent)),
		GeneratedAt:  s.now(),
	}

	var funds, invested, deposits, withdrawals decimal.Decimal
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			stats.Admins++
		}
		funds = funds.Add(decimal.NewFromFloat(u.AvailableFunds))
		invested = invested.Add(decimal.NewFromFloat(u.InvestedAmount))
	}
	for _, tx := range cash {
		amount := decimal.NewFromFloat(tx.Amount)
		if tx.Type.IsInflow() {
			deposits = deposits.Add(amount)
		} else {
			withdrawals = withdrawals.Add(amount)
		}
	}
	stats.TotalFunds = money(funds)
	stats.TotalInvested = money(invested)
	stats.TotalDeposits = money(deposits)
	stats.TotalWithdrawals = money(withdrawals)

	for _, t := range recent {
		stats.RecentTrades = append(stats.RecentTrades, *t)
	}
	return stats, nil
}

// Statistics breaks trading down by symbol and by day.
// Added assets count towards the buy side.
func (s *Service) Statistics(ctx context.Context) (*models.Statistics, error) {
	now := s.now()
	trades, err := s.storage.TradeStore().ListAllTrades(ctx, interfaces.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	positions, err := s.storage.PositionStore().ListAllPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	return &models.Statistics{
		Symbols:     symbolActivity(trades),
		TopHoldings: s.topHoldings(ctx, positions),
		TradesByDay: tradesByDay(trades, now, statisticsDays),
		GeneratedAt: now,
	}, nil
}

func symbolActivity(trades []*models.Trade) []models.SymbolActivity {
	type volumes struct {
		buy, sell decimal.Decimal
	}
	bySymbol := make(map[string]*models.SymbolActivity)
	vols := make(map[string]*volumes)
	for _, t := range trades {
		a, ok := bySymbol[t.Symbol]
		if !ok {
			a = &models.SymbolActivity{Symbol: t.Symbol}
			bySymbol[t.Symbol] = a
			vols[t.Symbol] = &volumes{}
		}
		v := vols[t.Symbol]
		qty := decimal.NewFromFloat(t.Quantity)
		if t.Type == models.TradeSell {
			a.Sells++
			v.sell = v.sell.Add(qty)
		} else {
			a.Buys++
			v.buy = v.buy.Add(qty)
		}
	}

	out := make([]models.SymbolActivity, 0, len(bySymbol))
	for sym, a := range bySymbol {
		a.BuyVolume, _ = vols[sym].buy.Round(8).Float64()
		a.SellVolume, _ = vols[sym].sell.Round(8).Float64()
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// topHoldings values the aggregate quantity of each symbol at its quote,
// falling back to each position's stored price.
func (s *Service) topHoldings(ctx context.Context, positions []*models.Position) []models.HoldingValue {
	if len(positions) == 0 {
		return []models.HoldingValue{}
	}

	type agg struct {
		qty, value decimal.Decimal
		holders    int
	}
	bySymbol := make(map[string]*agg)
	var symbols []string
	for _, p := range positions {
		if _, ok := bySymbol[p.Symbol]; !ok {
			bySymbol[p.Symbol] = &agg{}
			symbols = append(symbols, p.Symbol)
		}
	}

	var quotes map[string]models.Quote
	if s.quotes != nil {
		quotes = s.quotes.GetQuotes(ctx, symbols)
	}

	for _, p := range positions {
		a := bySymbol[p.Symbol]
		price := p.Price
		if q, ok := quotes[p.Symbol]; ok && q.Price > 0 {
			price = q.Price
		}
		qty := decimal.NewFromFloat(p.Quantity)
		a.qty = a.qty.Add(qty)
		a.value = a.value.Add(qty.Mul(decimal.NewFromFloat(price)))
		a.holders++
	}

	out := make([]models.HoldingValue, 0, len(bySymbol))
	for sym, a := range bySymbol {
		qty, _ := a.qty.Round(8).Float64()
		out = append(out, models.HoldingValue{
			Symbol:   sym,
			Quantity: qty,
			Value:    money(a.value),
			Holders:  a.holders,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Symbol < out[j].Symbol
	})
	if len(out) > topHoldingCount {
		out = out[:topHoldingCount]
	}
	return out
}

// tradesByDay counts trades for each of the last days calendar days,
// oldest first, including days with no trades.
func tradesByDay(trades []*models.Trade, now time.Time, days int) []models.DailyCount {
	start := common.StartOfDay(now).AddDate(0, 0, -(days - 1))
	counts := make(map[string]int)
	for _, t := range trades {
		if t.CreatedAt.Before(start) {
			continue
		}
		counts[common.DayKey(t.CreatedAt)]++
	}

	out := make([]models.DailyCount, 0, days)
	for i := 0; i < days; i++ {
		day := common.DayKey(start.AddDate(0, 0, i))
		out = append(out, models.DailyCount{Day: day, Count: counts[day]})
	}
	return out
}

// ListUsers returns every user's public profile, oldest account first.
func (s *Service) ListUsers(ctx context.Context) ([]models.UserProfile, error) {
	users, err := s.storage.UserStore().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })

	out := make([]models.UserProfile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (*models.UserDetail, error) {
	user, err := s.storage.UserStore().GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	positions, err := s.storage.PositionStore().ListPositions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	detail := &models.UserDetail{
		User:      user.Profile(),
		Positions: make([]models.Position, 0, len(positions)),
	}
	for _, p := range positions {
		detail.Positions = append(detail.Positions, *p)
	}
	return detail, nil
}

// SetRole changes a user's role.
func (s *Service) SetRole(ctx context.Context, userID, role string) (*models.UserProfile, error) {
	if err := models.ValidateRole(role); err != nil {
		return nil, common.NewValidationError("role", "%s", err.Error())
	}

	user, err := s.storage.UserStore().GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != role {
		user.Role = role
		user.ModifiedAt = s.now()
		if err := s.storage.UserStore().SaveUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to save user: %w", err)
		}
		s.logger.Info().Str("user_id", userID).Str("role", role).Msg("User role changed")
	}

	profile := user.Profile()
	return &profile, nil
}

// DeleteUser removes a user and everything they own.
func (s *Service) DeleteUser(ctx context.Context, userID string) (map[string]int, error) {
	if _, err := s.storage.UserStore().GetUser(ctx, userID); err != nil {
		return nil, err
	}
	counts, err := s.storage.PurgeUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete user %s: %w", userID, err)
	}
	s.logger.Warn().Str("user_id", userID).Interface("deleted", counts).Msg("User deleted")
	return counts, nil
}

// StockHoldings lists the catalogue with holder counts and held quantity.
func (s *Service) StockHoldings(ctx context.Context) ([]models.StockHolding, error) {
	stocks, err := s.storage.StockStore().ListStocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	positions, err := s.storage.PositionStore().ListAllPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	holders := make(map[string]int)
	quantity := make(map[string]decimal.Decimal)
	for _, p := range positions {
		holders[p.Symbol]++
		quantity[p.Symbol] = quantity[p.Symbol].Add(decimal.NewFromFloat(p.Quantity))
	}

	out := make([]models.StockHolding, 0, len(stocks))
	for _, st := range stocks {
		qty, _ := quantity[st.Symbol].Round(8).Float64()
		out = append(out, models.StockHolding{
			Stock:         *st,
			Holders:       holders[st.Symbol],
			TotalQuantity: qty,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stock.Symbol < out[j].Stock.Symbol })
	return out, nil
}

// Compile-time check
var _ interfaces.AdminService = (*Service)(nil)
