package portfolio

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
)

// GetFunds returns the user's balances.
func (s *Service) GetFunds(ctx context.Context, userID string) (*models.Balances, error) {
	user, err := s.storage.UserStore().GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	b := user.Balances()
	return &b, nil
}

// Deposit credits amount to available funds.
func (s *Service) Deposit(ctx context.Context, userID string, amount float64) (*models.FundsResult, error) {
	return s.moveFunds(ctx, userID, models.CashTxDeposit, amount)
}

// Withdraw debits amount from available funds; funds never go negative.
func (s *Service) Withdraw(ctx context.Context, userID string, amount float64) (*models.FundsResult, error) {
	return s.moveFunds(ctx, userID, models.CashTxWithdrawal, amount)
}

func (s *Service) moveFunds(ctx context.Context, userID string, txType models.CashTransactionType, amount float64) (*models.FundsResult, error) {
	value := dec(amount).Round(moneyPlaces)
	if !value.IsPositive() {
		return nil, fmt.Errorf("%s: %w", txType, common.NewValidationError("amount", "must be greater than 0"))
	}

	var result *models.FundsResult
	err := s.withRetry(ctx, string(txType), userID, func() error {
		user, err := s.storage.UserStore().GetUser(ctx, userID)
		if err != nil {
			return err
		}

		funds := dec(user.AvailableFunds)
		minFunds := decimal.Zero
		if txType.IsInflow() {
			funds = funds.Add(value)
		} else {
			if funds.LessThan(value) {
				return fmt.Errorf("withdraw %s: available funds %s: %w",
					value.StringFixed(2), funds.StringFixed(2), common.ErrInsufficientFunds)
			}
			funds = funds.Sub(value)
			minFunds = value
		}
		next := s.nextUser(user, funds, dec(user.InvestedAmount))

		now := s.now()
		tx := models.CashTransaction{
			TransactionID: s.newID(),
			UserID:        userID,
			Type:          txType,
			Amount:        moneyValue(value),
			Status:        models.CashTxCompleted,
			BalanceAfter:  next.AvailableFunds,
			CreatedAt:     now,
		}
		alert := models.Alert{
			AlertID:   s.newID(),
			UserID:    userID,
			Type:      models.AlertFunds,
			Title:     fundsAlertTitle(txType),
			Message:   fmt.Sprintf("%s of %s completed. Available funds: %s", fundsAlertTitle(txType), value.StringFixed(2), funds.StringFixed(2)),
			CreatedAt: now,
		}

		if err := s.storage.Ledger().Apply(ctx, &models.LedgerMutation{
			User:            next,
			ExpectedVersion: user.Version,
			MinFundsBefore:  moneyValue(minFunds),
			CashTx:          &tx,
			Alert:           &alert,
		}); err != nil {
			return err
		}

		result = &models.FundsResult{Transaction: tx, Balances: next.Balances()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("type", string(txType)).
		Float64("amount", result.Transaction.Amount).
		Msg("Funds moved")

	result.Portfolio = s.refreshAfterMutation(ctx, userID, string(txType))
	return result, nil
}

func fundsAlertTitle(t models.CashTransactionType) string {
	if t.IsInflow() {
		return "Deposit"
	}
	return "Withdrawal"
}
