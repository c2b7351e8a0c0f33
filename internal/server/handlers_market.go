package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/tradedesk/internal/models"
)

const maxBatchSymbols = 50

// handleMarketQuote handles GET /api/market/quote/{symbol}.
func (s *Server) handleMarketQuote(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	symbol := PathParam(r, "/api/market/quote/", "")
	if symbol == "" {
		WriteErrorWithCode(w, http.StatusBadRequest, "symbol is required in path", "validation_error")
		return
	}

	q, err := s.app.QuoteService.GetQuote(r.Context(), symbol)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, q)
}

// handleMarketQuotes handles GET /api/market/quotes?symbols=A,B.
// Symbols that cannot be priced are omitted.
func (s *Server) handleMarketQuotes(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var symbols []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		sym := models.NormalizeSymbol(part)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	}
	if len(symbols) == 0 {
		WriteErrorWithCode(w, http.StatusBadRequest, "symbols query parameter is required", "validation_error")
		return
	}
	if len(symbols) > maxBatchSymbols {
		WriteErrorWithCode(w, http.StatusBadRequest, "too many symbols (max 50)", "validation_error")
		return
	}

	quotes := s.app.QuoteService.GetQuotes(r.Context(), symbols)
	out := make([]models.Quote, 0, len(quotes))
	for _, sym := range symbols {
		if q, ok := quotes[sym]; ok {
			out = append(out, q)
		}
	}
	WriteData(w, http.StatusOK, out)
}

// handleMarketIntraday handles GET /api/market/intraday/{symbol}?interval=5m.
func (s *Server) handleMarketIntraday(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	symbol := PathParam(r, "/api/market/intraday/", "")
	if symbol == "" {
		WriteErrorWithCode(w, http.StatusBadRequest, "symbol is required in path", "validation_error")
		return
	}

	bars, err := s.app.QuoteService.GetIntraday(r.Context(), symbol, r.URL.Query().Get("interval"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, bars)
}
