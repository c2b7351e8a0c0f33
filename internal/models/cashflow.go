package models

import "time"

// CashTransactionType categorizes the direction of a cash transaction.
type CashTransactionType string

const (
	CashTxDeposit    CashTransactionType = "deposit"
	CashTxWithdrawal CashTransactionType = "withdrawal"
)

// CashTxCompleted is the only status produced by simulated funding.
const CashTxCompleted = "completed"

// IsInflow returns true if the transaction type represents money flowing in.
func (t CashTransactionType) IsInflow() bool {
	return t == CashTxDeposit
}

// CashTransaction is an append-only deposit or withdrawal record.
type CashTransaction struct {
	TransactionID string              `json:"transaction_id"`
	UserID        string              `json:"user_id"`
	Type          CashTransactionType `json:"type"`
	Amount        float64             `json:"amount"`
	Status        string              `json:"status"`
	BalanceAfter  float64             `json:"balance_after"`
	CreatedAt     time.Time           `json:"created_at"`
}

// FundsResult is returned by deposit and withdraw.
type FundsResult struct {
	Transaction CashTransaction   `json:"transaction"`
	Balances    Balances          `json:"balances"`
	Portfolio   *PortfolioSummary `json:"portfolio,omitempty"`
}
