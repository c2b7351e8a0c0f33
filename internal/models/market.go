package models

import "time"

// Quote is a current price for a symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"` // "eodhd", "cache" or "catalogue"
	Stale         bool      `json:"stale"`
}

// QuoteSourceCatalogue marks a quote built from the admin-maintained stock price.
const QuoteSourceCatalogue = "catalogue"

// IntradayBar is one interval of intraday prices.
type IntradayBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}
