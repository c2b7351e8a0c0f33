package models

import (
	"strings"
	"time"
)

// DefaultColor is used for positions whose stock has no display color.
const DefaultColor = "#2563eb"

// Stock is a tradable instrument in the catalogue.
// Price is the catalogue price used when no provider quote is available.
type Stock struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Exchange  string    `json:"exchange,omitempty"`
	Sector    string    `json:"sector,omitempty"`
	Price     float64   `json:"price"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeSymbol upper-cases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// StockHolding aggregates how much of a stock users hold.
type StockHolding struct {
	Stock         Stock   `json:"stock"`
	Holders       int     `json:"holders"`
	TotalQuantity float64 `json:"total_quantity"`
}

// StockInput creates a catalogue entry.
type StockInput struct {
	Symbol   string  `json:"symbol" validate:"required,max=20"`
	Name     string  `json:"name" validate:"required,max=128"`
	Exchange string  `json:"exchange" validate:"max=32"`
	Sector   string  `json:"sector" validate:"max=64"`
	Price    float64 `json:"price" validate:"gte=0"`
	Color    string  `json:"color" validate:"omitempty,max=32"`
}

// StockUpdate changes a catalogue entry; nil fields are left unchanged.
type StockUpdate struct {
	Name     *string  `json:"name" validate:"omitempty,min=1,max=128"`
	Exchange *string  `json:"exchange" validate:"omitempty,max=32"`
	Sector   *string  `json:"sector" validate:"omitempty,max=64"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
	Color    *string  `json:"color" validate:"omitempty,max=32"`
}
