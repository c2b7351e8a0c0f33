package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/tradedesk/internal/models"
)

// handleStocks handles GET /api/stocks (list, optional ?q=) and POST /api/stocks (admin).
func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodGet {
		stocks, err := s.app.StockService.ListStocks(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, stocks)
		return
	}

	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	var input models.StockInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	stock, err := s.app.StockService.CreateStock(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusCreated, stock)
}

// routeStock dispatches GET/PUT/DELETE for /api/stocks/{symbol}.
func (s *Server) routeStock(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimPrefix(r.URL.Path, "/api/stocks/")
	if symbol == "" || strings.Contains(symbol, "/") {
		WriteErrorWithCode(w, http.StatusNotFound, "stock not found", "not_found")
		return
	}
	if !RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		stock, err := s.app.StockService.GetStock(r.Context(), symbol)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, stock)

	case http.MethodPut:
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		var update models.StockUpdate
		if !decodeAndValidate(w, r, &update) {
			return
		}
		stock, err := s.app.StockService.UpdateStock(r.Context(), symbol, update)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, stock)

	case http.MethodDelete:
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		if err := s.app.StockService.DeleteStock(r.Context(), symbol); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, map[string]string{"deleted": models.NormalizeSymbol(symbol)})
	}
}
