package models

import "time"

// DashboardStats is the admin overview.
type DashboardStats struct {
	Users            int       `json:"users"`
	Admins           int       `json:"admins"`
	Stocks           int       `json:"stocks"`
	Trades           int       `json:"trades"`
	TotalFunds       float64   `json:"total_funds"`
	TotalInvested    float64   `json:"total_invested"`
	TotalDeposits    float64   `json:"total_deposits"`
	TotalWithdrawals float64   `json:"total_withdrawals"`
	RecentTrades     []Trade   `json:"recent_trades"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// SymbolActivity summarises trading in one symbol.
type SymbolActivity struct {
	Symbol     string  `json:"symbol"`
	Buys       int     `json:"buys"`
	Sells      int     `json:"sells"`
	BuyVolume  float64 `json:"buy_volume"`
	SellVolume float64 `json:"sell_volume"`
}

// HoldingValue is the aggregate held value of a symbol across users.
type HoldingValue struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	Value    float64 `json:"value"`
	Holders  int     `json:"holders"`
}

// DailyCount is a count of events on one day.
type DailyCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Statistics is the admin trading breakdown.
type Statistics struct {
	Symbols     []SymbolActivity `json:"symbols"`
	TopHoldings []HoldingValue   `json:"top_holdings"`
	TradesByDay []DailyCount     `json:"trades_by_day"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// UserDetail is a user with their open positions.
type UserDetail struct {
	User      UserProfile `json:"user"`
	Positions []Position  `json:"positions"`
}
