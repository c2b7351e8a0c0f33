package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bobmcallan/tradedesk/internal/models"
)

type amountRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

// handlePortfolio handles GET /api/portfolio.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc, ok := requireUser(w, r)
	if !ok {
		return
	}

	summary, err := s.app.PortfolioService.GetPortfolio(r.Context(), uc.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, summary)
}

// routePortfolio dispatches everything under /api/portfolio/.
func (s *Server) routePortfolio(w http.ResponseWriter, r *http.Request) {
	uc, ok := requireUser(w, r)
	if !ok {
		return
	}
	userID := uc.UserID
	path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/portfolio/"), "/")

	switch path {
	case "buy":
		s.handleTrade(w, r, userID, s.app.PortfolioService.Buy)
	case "sell":
		s.handleTrade(w, r, userID, s.app.PortfolioService.Sell)
	case "add-asset":
		s.handleTrade(w, r, userID, s.app.PortfolioService.AddAsset)
	case "transactions":
		s.handleTransactions(w, r, userID)
	case "funds":
		s.handleFunds(w, r, userID)
	case "funds/deposit":
		s.handleFundsMove(w, r, userID, s.app.PortfolioService.Deposit)
	case "funds/withdraw":
		s.handleFundsMove(w, r, userID, s.app.PortfolioService.Withdraw)
	case "history":
		s.handleHistory(w, r, userID)
	case "history/chart":
		s.handleHistoryChart(w, r, userID)
	case "performance":
		s.handlePerformance(w, r, userID)
	case "alerts":
		s.handleAlerts(w, r, userID)
	case "alerts/read-all":
		s.handleAlertsReadAll(w, r, userID)
	default:
		if strings.HasPrefix(path, "alerts/") {
			s.routeAlert(w, r, userID, strings.TrimPrefix(path, "alerts/"))
			return
		}
		WriteErrorWithCode(w, http.StatusNotFound, "Not found", "not_found")
	}
}

type tradeFunc func(ctx context.Context, userID string, req models.TradeRequest) (*models.TradeResult, error)

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request, userID string, fn tradeFunc) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req models.TradeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := fn(r.Context(), userID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, result)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	limit, msg := queryInt(r, "limit", 0)
	if msg != "" {
		WriteErrorWithCode(w, http.StatusBadRequest, msg, "validation_error")
		return
	}

	entries, err := s.app.PortfolioService.ListActivity(r.Context(), userID, models.ActivityFilter{
		Kind:  r.URL.Query().Get("type"),
		Limit: limit,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, entries)
}

func (s *Server) handleFunds(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	balances, err := s.app.PortfolioService.GetFunds(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, balances)
}

type fundsFunc func(ctx context.Context, userID string, amount float64) (*models.FundsResult, error)

func (s *Server) handleFundsMove(w http.ResponseWriter, r *http.Request, userID string, fn fundsFunc) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req amountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := fn(r.Context(), userID, req.Amount)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	days, msg := queryInt(r, "days", 0)
	if msg != "" {
		WriteErrorWithCode(w, http.StatusBadRequest, msg, "validation_error")
		return
	}

	snapshots, err := s.app.PortfolioService.GetHistory(r.Context(), userID, days)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, snapshots)
}

func (s *Server) handleHistoryChart(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	days, msg := queryInt(r, "days", 0)
	if msg != "" {
		WriteErrorWithCode(w, http.StatusBadRequest, msg, "validation_error")
		return
	}

	png, err := s.app.PortfolioService.RenderHistoryChart(r.Context(), userID, days)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	report, err := s.app.PortfolioService.GetPerformance(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, report)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	unread := r.URL.Query().Get("unread") == "true"

	alerts, err := s.app.PortfolioService.ListAlerts(r.Context(), userID, unread)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, alerts)
}

func (s *Server) handleAlertsReadAll(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	n, err := s.app.PortfolioService.MarkAllAlertsRead(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]int{"updated": n})
}

// routeAlert handles POST alerts/{id}/read and DELETE alerts/{id}.
func (s *Server) routeAlert(w http.ResponseWriter, r *http.Request, userID, rest string) {
	if id, ok := strings.CutSuffix(rest, "/read"); ok && id != "" && !strings.Contains(id, "/") {
		if !RequireMethod(w, r, http.MethodPost) {
			return
		}
		alert, err := s.app.PortfolioService.MarkAlertRead(r.Context(), userID, id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, alert)
		return
	}

	if rest == "" || strings.Contains(rest, "/") {
		WriteErrorWithCode(w, http.StatusNotFound, "Not found", "not_found")
		return
	}
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	if err := s.app.PortfolioService.DeleteAlert(r.Context(), userID, rest); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, map[string]string{"deleted": rest})
}
