package models

import "time"

// Position is a user's holding of one symbol. Unique per (UserID, Symbol).
type Position struct {
	UserID    string    `json:"user_id"`
	Symbol    string    `json:"symbol"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`      // last traded price
	CostBasis float64   `json:"cost_basis"` // total cost of the shares still held
	Color     string    `json:"color"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TradeType identifies a trade record.
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
	TradeAdd  TradeType = "add"
)

// Trade is an append-only record of one buy, sell or added asset.
type Trade struct {
	TradeID   string    `json:"trade_id"`
	UserID    string    `json:"user_id"`
	Type      TradeType `json:"type"`
	Symbol    string    `json:"symbol"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// PriceSource records where an asset's effective price came from.
type PriceSource string

const (
	PriceFromQuote     PriceSource = "quote"
	PriceFromCatalogue PriceSource = "catalogue"
	PriceFromStored    PriceSource = "stored"
)

// AssetValuation is a position valued at its effective price.
type AssetValuation struct {
	Symbol      string      `json:"symbol"`
	Quantity    float64     `json:"quantity"`
	Price       float64     `json:"price"`
	Value       float64     `json:"value"`
	CostBasis   float64     `json:"cost_basis"`
	GainLoss    float64     `json:"gain_loss"`
	GainLossPct float64     `json:"gain_loss_pct"`
	Color       string      `json:"color"`
	PriceSource PriceSource `json:"price_source"`
	Stale       bool        `json:"stale"`
}

// Performance holds percentage changes against each reference period.
type Performance struct {
	Daily   float64 `json:"daily"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
	Yearly  float64 `json:"yearly"`
	Overall float64 `json:"overall"`
}

// BasisOverall marks a period figure that fell back to the overall value.
const BasisOverall = "overall"

// PerformanceBasis names the reference used for each period: the day of the
// snapshot compared against, or BasisOverall.
type PerformanceBasis struct {
	Daily   string `json:"daily"`
	Weekly  string `json:"weekly"`
	Monthly string `json:"monthly"`
	Yearly  string `json:"yearly"`
}

// PortfolioSummary is the valued portfolio returned to clients.
type PortfolioSummary struct {
	UserID       string           `json:"user_id"`
	Balances     Balances         `json:"balances"`
	TotalValue   float64          `json:"total_value"`
	Assets       []AssetValuation `json:"assets"`
	Performance  Performance      `json:"performance"`
	Basis        PerformanceBasis `json:"basis"`
	UnreadAlerts int              `json:"unread_alerts"`
	AsOf         time.Time        `json:"as_of"`
}

// TradeResult is returned by buy, sell and add-asset.
type TradeResult struct {
	Trade     Trade             `json:"trade"`
	Balances  Balances          `json:"balances"`
	Position  *Position         `json:"position,omitempty"` // nil when the position was closed
	Portfolio *PortfolioSummary `json:"portfolio,omitempty"`
}

// ActivityEntry is one row of the merged trade and cash history.
type ActivityEntry struct {
	Kind      string    `json:"kind"` // "trade" or "cash"
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Symbol    string    `json:"symbol,omitempty"`
	Quantity  float64   `json:"quantity,omitempty"`
	Price     float64   `json:"price,omitempty"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// TradeRequest is the input to buy, sell and add-asset.
// A zero Price means "use the current quote".
type TradeRequest struct {
	Symbol   string  `json:"symbol" validate:"required,max=20"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
	Price    float64 `json:"price" validate:"gte=0"`
	Color    string  `json:"color" validate:"omitempty,max=32"`
}

// ActivityFilter narrows the merged activity list.
type ActivityFilter struct {
	Kind  string // "", "trade" or "cash"
	Limit int
}
