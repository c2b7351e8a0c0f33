package server

import (
	"net/http"
	"strings"
)

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// handleAdminDashboard handles GET /api/admin/dashboard.
func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	stats, err := s.app.AdminService.Dashboard(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, stats)
}

// handleAdminStatistics handles GET /api/admin/statistics.
func (s *Server) handleAdminStatistics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	stats, err := s.app.AdminService.Statistics(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, stats)
}

// handleAdminListUsers handles GET /api/admin/users.
func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	users, err := s.app.AdminService.ListUsers(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, users)
}

// routeAdminUser dispatches GET/PATCH/DELETE for /api/admin/users/{id}.
func (s *Server) routeAdminUser(w http.ResponseWriter, r *http.Request) {
	uc, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/api/admin/users/")
	if userID == "" || strings.Contains(userID, "/") {
		WriteErrorWithCode(w, http.StatusNotFound, "user not found", "not_found")
		return
	}
	if !RequireMethod(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		detail, err := s.app.AdminService.GetUser(r.Context(), userID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, detail)

	case http.MethodPatch:
		var req roleRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		if userID == uc.UserID && req.Role != "admin" {
			WriteErrorWithCode(w, http.StatusBadRequest, "admins cannot remove their own admin role", "validation_error")
			return
		}
		profile, err := s.app.AdminService.SetRole(r.Context(), userID, req.Role)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, profile)

	case http.MethodDelete:
		if userID == uc.UserID {
			WriteErrorWithCode(w, http.StatusBadRequest, "admins cannot delete their own account", "validation_error")
			return
		}
		counts, err := s.app.AdminService.DeleteUser(r.Context(), userID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteData(w, http.StatusOK, map[string]interface{}{
			"user_id": userID,
			"deleted": counts,
		})
	}
}

// handleAdminStocks handles GET /api/admin/stocks.
func (s *Server) handleAdminStocks(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	holdings, err := s.app.AdminService.StockHoldings(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, holdings)
}
