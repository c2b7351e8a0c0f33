package models

import "time"

// AssetValue is one asset's contribution to a snapshot.
type AssetValue struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Value    float64 `json:"value"`
	Color    string  `json:"color"`
}

// DailySnapshot is the single valuation record kept per user per calendar day.
// Date is midnight UTC; Day is the same instant formatted YYYY-MM-DD.
type DailySnapshot struct {
	UserID         string           `json:"user_id"`
	Date           time.Time        `json:"date"`
	Day            string           `json:"day"`
	TotalValue     float64          `json:"total_value"`
	InvestedAmount float64          `json:"invested_amount"`
	AvailableFunds float64          `json:"available_funds"`
	TotalBalance   float64          `json:"total_balance"`
	Assets         []AssetValue     `json:"assets"`
	Performance    Performance      `json:"performance"`
	Basis          PerformanceBasis `json:"basis"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// PerformanceReport is returned by the performance endpoint.
type PerformanceReport struct {
	TotalValue     float64          `json:"total_value"`
	InvestedAmount float64          `json:"invested_amount"`
	Performance    Performance      `json:"performance"`
	Basis          PerformanceBasis `json:"basis"`
	AsOf           time.Time        `json:"as_of"`
}
