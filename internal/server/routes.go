package server

import "net/http"

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Auth
	mux.HandleFunc("/api/auth/register", s.handleAuthRegister)
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/logout", s.handleAuthLogout)
	mux.HandleFunc("/api/auth/me", s.handleAuthMe)

	// Stock catalogue
	mux.HandleFunc("/api/stocks/", s.routeStock)
	mux.HandleFunc("/api/stocks", s.handleStocks)

	// Portfolio: trades, funds, history, alerts
	mux.HandleFunc("/api/portfolio/", s.routePortfolio)
	mux.HandleFunc("/api/portfolio", s.handlePortfolio)

	// Admin
	mux.HandleFunc("/api/admin/dashboard", s.handleAdminDashboard)
	mux.HandleFunc("/api/admin/statistics", s.handleAdminStatistics)
	mux.HandleFunc("/api/admin/users/", s.routeAdminUser)
	mux.HandleFunc("/api/admin/users", s.handleAdminListUsers)
	mux.HandleFunc("/api/admin/stocks", s.handleAdminStocks)

	// Market data
	mux.HandleFunc("/api/market/quote/", s.handleMarketQuote)
	mux.HandleFunc("/api/market/quotes", s.handleMarketQuotes)
	mux.HandleFunc("/api/market/intraday/", s.handleMarketIntraday)
}
