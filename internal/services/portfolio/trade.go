package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
)

// validateTrade normalizes the request and checks the fields every trade needs.
func validateTrade(op string, req *models.TradeRequest) error {
	req.Symbol = models.NormalizeSymbol(req.Symbol)
	var fields []common.FieldError
	if req.Symbol == "" {
		fields = append(fields, common.FieldError{Field: "symbol", Message: "is required"})
	}
	if req.Quantity <= 0 {
		fields = append(fields, common.FieldError{Field: "quantity", Message: "must be greater than 0"})
	} else if qty := dec(req.Quantity).Round(quantityPlaces); qty.IsZero() {
		fields = append(fields, common.FieldError{Field: "quantity", Message: "must be at least 0.00000001"})
	} else {
		req.Quantity = quantityValue(qty)
	}
	if req.Price < 0 {
		fields = append(fields, common.FieldError{Field: "price", Message: "must not be negative"})
	}
	if len(fields) > 0 {
		return fmt.Errorf("%s: %w", op, &common.ValidationError{Fields: fields})
	}
	return nil
}

// resolvePrice uses the requested price when set, else the current quote.
func (s *Service) resolvePrice(ctx context.Context, symbol string, requested float64) (decimal.Decimal, error) {
	if requested > 0 {
		return dec(requested).Round(pricePlaces), nil
	}
	q, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("no price for %s: %w", symbol, err)
	}
	return dec(q.Price).Round(pricePlaces), nil
}

// positionColor picks the request color, then the existing or catalogue color.
func positionColor(requested string, existing *models.Position, stock *models.Stock) string {
	switch {
	case requested != "":
		return requested
	case existing != nil && existing.Color != "":
		return existing.Color
	case stock != nil && stock.Color != "":
		return stock.Color
	default:
		return models.DefaultColor
	}
}

func (s *Service) existingPosition(ctx context.Context, userID, symbol string) (*models.Position, error) {
	pos, err := s.storage.PositionStore().GetPosition(ctx, userID, symbol)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return pos, nil
}

// accumulate adds qty at price to an existing or new position.
func (s *Service) accumulate(existing *models.Position, userID, symbol string, qty, price, cost decimal.Decimal, color string) (*models.PositionChange, *models.Position) {
	now := s.now()
	pos := &models.Position{
		UserID:    userID,
		Symbol:    symbol,
		Quantity:  quantityValue(qty),
		Price:     priceValue(price),
		CostBasis: moneyValue(cost),
		Color:     color,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	expected := 0
	if existing != nil {
		expected = existing.Version
		pos.Quantity = quantityValue(dec(existing.Quantity).Add(qty))
		pos.CostBasis = moneyValue(dec(existing.CostBasis).Add(cost))
		pos.Version = existing.Version + 1
		pos.CreatedAt = existing.CreatedAt
	}
	return &models.PositionChange{Position: pos, ExpectedVersion: expected}, pos
}

// nextUser copies user with new funds and invested amounts and a bumped version.
func (s *Service) nextUser(user *models.User, funds, invested decimal.Decimal) *models.User {
	next := *user
	next.AvailableFunds = moneyValue(funds)
	next.InvestedAmount = moneyValue(invested)
	next.TotalBalance = moneyValue(dec(next.AvailableFunds).Add(dec(next.InvestedAmount)))
	next.Version = user.Version + 1
	next.ModifiedAt = s.now()
	return &next
}

// Buy debits funds for qty × price and adds to the position.
func (s *Service) Buy(ctx context.Context, userID string, req models.TradeRequest) (*models.TradeResult, error) {
	if err := validateTrade("buy", &req); err != nil {
		return nil, err
	}

	stock, err := s.storage.StockStore().GetStock(ctx, req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("buy: %w", err)
	}
	price, err := s.resolvePrice(ctx, req.Symbol, req.Price)
	if err != nil {
		return nil, fmt.Errorf("buy: %w", err)
	}

	qty := dec(req.Quantity)
	cost := qty.Mul(price).Round(moneyPlaces)
	if !cost.IsPositive() {
		return nil, fmt.Errorf("buy: %w", common.NewValidationError("quantity", "order value rounds to zero"))
	}

	var result *models.TradeResult
	err = s.withRetry(ctx, "buy", userID, func() error {
		user, err := s.storage.UserStore().GetUser(ctx, userID)
		if err != nil {
			return err
		}
		funds := dec(user.AvailableFunds)
		if funds.LessThan(cost) {
			return fmt.Errorf("buy %s: cost %s exceeds available funds %s: %w",
				req.Symbol, cost.StringFixed(2), funds.StringFixed(2), common.ErrInsufficientFunds)
		}

		existing, err := s.existingPosition(ctx, userID, req.Symbol)
		if err != nil {
			return err
		}
		change, pos := s.accumulate(existing, userID, req.Symbol, qty, price, cost, positionColor(req.Color, existing, stock))
		next := s.nextUser(user, funds.Sub(cost), dec(user.InvestedAmount).Add(cost))

		trade := models.Trade{
			TradeID:   s.newID(),
			UserID:    userID,
			Type:      models.TradeBuy,
			Symbol:    req.Symbol,
			Quantity:  quantityValue(qty),
			Price:     priceValue(price),
			Total:     moneyValue(cost),
			CreatedAt: s.now(),
		}

		if err := s.storage.Ledger().Apply(ctx, &models.LedgerMutation{
			User:            next,
			ExpectedVersion: user.Version,
			MinFundsBefore:  moneyValue(cost),
			Position:        change,
			Trade:           &trade,
		}); err != nil {
			return err
		}

		result = &models.TradeResult{Trade: trade, Balances: next.Balances(), Position: pos}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("symbol", req.Symbol).
		Float64("quantity", result.Trade.Quantity).
		Float64("total", result.Trade.Total).
		Msg("Buy executed")

	result.Portfolio = s.refreshAfterMutation(ctx, userID, "buy")
	return result, nil
}

// Sell credits qty × price, reduces the position and releases its share of
// cost basis from the invested amount. The position is deleted at zero.
func (s *Service) Sell(ctx context.Context, userID string, req models.TradeRequest) (*models.TradeResult, error) {
	if err := validateTrade("sell", &req); err != nil {
		return nil, err
	}

	qty := dec(req.Quantity)

	// Ownership is a business rule; check it before any quote lookup
	held, err := s.existingPosition(ctx, userID, req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("sell: %w", err)
	}
	if held == nil || dec(held.Quantity).LessThan(qty) {
		return nil, fmt.Errorf("sell %s: %w", req.Symbol, common.ErrInsufficientShares)
	}

	price, err := s.resolvePrice(ctx, req.Symbol, req.Price)
	if err != nil {
		return nil, fmt.Errorf("sell: %w", err)
	}
	proceeds := qty.Mul(price).Round(moneyPlaces)

	var result *models.TradeResult
	err = s.withRetry(ctx, "sell", userID, func() error {
		user, err := s.storage.UserStore().GetUser(ctx, userID)
		if err != nil {
			return err
		}
		pos, err := s.existingPosition(ctx, userID, req.Symbol)
		if err != nil {
			return err
		}
		if pos == nil {
			return fmt.Errorf("sell %s: no position held: %w", req.Symbol, common.ErrInsufficientShares)
		}

		owned := dec(pos.Quantity)
		if owned.LessThan(qty) {
			return fmt.Errorf("sell %s: requested %s, held %s: %w",
				req.Symbol, qty.String(), owned.String(), common.ErrInsufficientShares)
		}

		remaining := owned.Sub(qty).Round(quantityPlaces)
		basis := dec(pos.CostBasis)
		released := basis
		if !remaining.IsZero() {
			released = basis.Mul(qty).Div(owned).Round(moneyPlaces)
		}

		invested := dec(user.InvestedAmount).Sub(released)
		if invested.IsNegative() {
			invested = decimal.Zero
		}
		next := s.nextUser(user, dec(user.AvailableFunds).Add(proceeds), invested)

		change := &models.PositionChange{ExpectedVersion: pos.Version}
		var kept *models.Position
		if remaining.IsZero() {
			change.Position = pos
			change.Delete = true
		} else {
			updated := *pos
			updated.Quantity = quantityValue(remaining)
			updated.Price = priceValue(price)
			updated.CostBasis = moneyValue(basis.Sub(released))
			updated.Version = pos.Version + 1
			updated.UpdatedAt = s.now()
			change.Position = &updated
			kept = &updated
		}

		now := s.now()
		trade := models.Trade{
			TradeID:   s.newID(),
			UserID:    userID,
			Type:      models.TradeSell,
			Symbol:    req.Symbol,
			Quantity:  quantityValue(qty),
			Price:     priceValue(price),
			Total:     moneyValue(proceeds),
			CreatedAt: now,
		}
		alert := models.Alert{
			AlertID: s.newID(),
			UserID:  userID,
			Type:    models.AlertTrade,
			Title:   "Sold " + req.Symbol,
			Message: fmt.Sprintf("Sold %s %s at %s for %s",
				qty.String(), req.Symbol, price.StringFixed(2), proceeds.StringFixed(2)),
			Symbol:    req.Symbol,
			CreatedAt: now,
		}

		if err := s.storage.Ledger().Apply(ctx, &models.LedgerMutation{
			User:            next,
			ExpectedVersion: user.Version,
			Position:        change,
			Trade:           &trade,
			Alert:           &alert,
		}); err != nil {
			return err
		}

		result = &models.TradeResult{Trade: trade, Balances: next.Balances(), Position: kept}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("symbol", req.Symbol).
		Float64("quantity", result.Trade.Quantity).
		Float64("total", result.Trade.Total).
		Bool("closed", result.Position == nil).
		Msg("Sell executed")

	result.Portfolio = s.refreshAfterMutation(ctx, userID, "sell")
	return result, nil
}

// AddAsset records an externally acquired holding. Invested grows by its
// cost; available funds are untouched.
func (s *Service) AddAsset(ctx context.Context, userID string, req models.TradeRequest) (*models.TradeResult, error) {
	if err := validateTrade("add asset", &req); err != nil {
		return nil, err
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("add asset: %w", common.NewValidationError("price", "must be greater than 0"))
	}

	stock, err := s.storage.StockStore().GetStock(ctx, req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("add asset: %w", err)
	}

	qty := dec(req.Quantity)
	price := dec(req.Price).Round(pricePlaces)
	cost := qty.Mul(price).Round(moneyPlaces)

	var result *models.TradeResult
	err = s.withRetry(ctx, "add asset", userID, func() error {
		user, err := s.storage.UserStore().GetUser(ctx, userID)
		if err != nil {
			return err
		}
		existing, err := s.existingPosition(ctx, userID, req.Symbol)
		if err != nil {
			return err
		}
		change, pos := s.accumulate(existing, userID, req.Symbol, qty, price, cost, positionColor(req.Color, existing, stock))
		next := s.nextUser(user, dec(user.AvailableFunds), dec(user.InvestedAmount).Add(cost))

		trade := models.Trade{
			TradeID:   s.newID(),
			UserID:    userID,
			Type:      models.TradeAdd,
			Symbol:    req.Symbol,
			Quantity:  quantityValue(qty),
			Price:     priceValue(price),
			Total:     moneyValue(cost),
			CreatedAt: s.now(),
		}

		if err := s.storage.Ledger().Apply(ctx, &models.LedgerMutation{
			User:            next,
			ExpectedVersion: user.Version,
			Position:        change,
			Trade:           &trade,
		}); err != nil {
			return err
		}

		result = &models.TradeResult{Trade: trade, Balances: next.Balances(), Position: pos}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("symbol", req.Symbol).
		Float64("total", result.Trade.Total).
		Msg("Asset added")

	result.Portfolio = s.refreshAfterMutation(ctx, userID, "add asset")
	return result, nil
}
