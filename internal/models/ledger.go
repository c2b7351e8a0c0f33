package models

// LedgerMutation is one atomic financial change: the new user document plus
// any position change and log records. Stores apply it all-or-nothing and
// reject it with common.ErrConflict when a version guard fails.
type LedgerMutation struct {
	User            *User // new state; Version must be ExpectedVersion+1
	ExpectedVersion int
	// MinFundsBefore guards the write on the stored available funds, so a
	// debit never applies against a balance lower than the one it was checked on.
	MinFundsBefore float64

	Position *PositionChange
	Trade    *Trade
	CashTx   *CashTransaction
	Alert    *Alert
}

// PositionChange upserts or deletes one position.
// ExpectedVersion 0 means the position must not exist yet.
type PositionChange struct {
	Position        *Position
	ExpectedVersion int
	Delete          bool
}
