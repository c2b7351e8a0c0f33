package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// handleAuthRegister handles POST /api/auth/register.
func (s *Server) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	role := models.RoleUser
	if s.app.Config.Auth.IsAdminEmail(req.Email) {
		role = models.RoleAdmin
	}
	now := time.Now()
	user := &models.User{
		UserID:       uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		ModifiedAt:   now,
	}

	if err := s.app.Storage.UserStore().CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			WriteErrorWithCode(w, http.StatusConflict, "email is already registered", "already_exists")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info().Str("user_id", user.UserID).Str("role", role).Msg("User registered")
	WriteData(w, http.StatusCreated, user.Profile())
}

// handleAuthLogin handles POST /api/auth/login and sets the session cookie.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := s.app.Storage.UserStore().GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		s.writeServiceError(w, r, err)
		return
	}
	if user == nil || user.PasswordHash == "" || !checkPassword(user.PasswordHash, req.Password) {
		WriteErrorWithCode(w, http.StatusUnauthorized, "invalid email or password", "unauthorized")
		return
	}

	token, expires, err := signJWT(user, &s.app.Config.Auth, time.Now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.app.Config.Auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   s.app.Config.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	WriteData(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": expires,
		"user":       user.Profile(),
	})
}

// handleAuthLogout handles POST /api/auth/logout by clearing the session cookie.
func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.app.Config.Auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.app.Config.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	WriteData(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// handleAuthMe handles GET /api/auth/me.
func (s *Server) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := s.app.Storage.UserStore().GetUser(r.Context(), uc.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, user.Profile())
}
