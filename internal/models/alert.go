package models

import "time"

// AlertType groups alerts for display.
type AlertType string

const (
	AlertTrade  AlertType = "trade"
	AlertFunds  AlertType = "funds"
	AlertSystem AlertType = "system"
)

// Alert is a user-scoped notification with a read flag.
type Alert struct {
	AlertID   string    `json:"alert_id"`
	UserID    string    `json:"user_id"`
	Type      AlertType `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Symbol    string    `json:"symbol,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
