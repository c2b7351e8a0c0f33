package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
)

// responseWriter wraps http.ResponseWriter to capture status code and bytes written.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// recoveryMiddleware catches panics and returns 500.
func recoveryMiddleware(logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error().
						Str("panic", fmt.Sprintf("%v", rec)).
						Str("path", r.URL.Path).
						Str("correlation_id", common.CorrelationIDFromContext(r.Context())).
						Msg("Panic recovered in HTTP handler")
					WriteError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware echoes allowed origins. "*" allows any origin; credentials
// are only allowed for an explicitly listed origin.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowAny := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAny = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			case allowAny:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-Correlation-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// correlationIDMiddleware extracts or generates a correlation ID and stores
// it in the response header and the request context.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corrID := r.Header.Get("X-Request-ID")
		if corrID == "" {
			corrID = r.Header.Get("X-Correlation-ID")
		}
		if corrID == "" {
			corrID = uuid.New().String()[:8]
		}
		w.Header().Set("X-Correlation-ID", corrID)
		next.ServeHTTP(w, r.WithContext(common.WithCorrelationID(r.Context(), corrID)))
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			event := logger.Debug()
			if rw.statusCode >= 500 {
				event = logger.Error()
			} else if rw.statusCode >= 400 {
				event = logger.Info()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("query", r.URL.RawQuery).
				Int("status", rw.statusCode).
				Int("bytes", rw.bytesWritten).
				Dur("duration", time.Since(start)).
				Str("correlation_id", w.Header().Get("X-Correlation-ID")).
				Str("user_id", common.ResolveUserID(r.Context())).
				Msg("HTTP request")
		})
	}
}

// sessionMiddleware resolves the caller from an Authorization: Bearer token
// or the session cookie and stores a UserContext in the request context.
// The role is read from the stored user so role changes apply immediately.
// An invalid bearer token is rejected; an invalid cookie is ignored.
func sessionMiddleware(config *common.Config, users interfaces.UserStore) func(http.Handler) http.Handler {
	secret := []byte(config.Auth.JWTSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, bearer := "", false
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tokenString, bearer = strings.TrimPrefix(h, "Bearer "), true
			} else if c, err := r.Cookie(config.Auth.CookieName); err == nil && c.Value != "" {
				tokenString = c.Value
			}
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			uc, reason := resolveSession(r, tokenString, secret, users)
			if uc == nil {
				if bearer {
					w.Header().Set("WWW-Authenticate", "Bearer")
					WriteErrorWithCode(w, http.StatusUnauthorized, reason, "unauthorized")
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			uc.CorrelationID = common.CorrelationIDFromContext(r.Context())

			next.ServeHTTP(w, r.WithContext(common.WithUserContext(r.Context(), uc)))
		})
	}
}

func resolveSession(r *http.Request, tokenString string, secret []byte, users interfaces.UserStore) (*common.UserContext, string) {
	claims, err := validateJWT(tokenString, secret)
	if err != nil {
		return nil, "invalid or expired token"
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, "invalid token claims"
	}
	user, err := users.GetUser(r.Context(), sub)
	if err != nil {
		return nil, "user not found"
	}
	return &common.UserContext{
		UserID: user.UserID,
		Email:  user.Email,
		Role:   user.Role,
	}, ""
}

// applyMiddleware wraps a handler with the middleware stack.
func applyMiddleware(handler http.Handler, logger *common.Logger, config *common.Config, users interfaces.UserStore) http.Handler {
	// Apply in reverse order (last applied = first executed)
	handler = loggingMiddleware(logger)(handler)
	handler = sessionMiddleware(config, users)(handler)
	handler = correlationIDMiddleware(handler)
	handler = corsMiddleware(config.Server.CORSOrigins)(handler)
	handler = recoveryMiddleware(logger)(handler)
	return handler
}

// requireUser returns the caller or writes 401.
func requireUser(w http.ResponseWriter, r *http.Request) (*common.UserContext, bool) {
	uc := common.UserContextFromContext(r.Context())
	if uc == nil || uc.UserID == "" {
		WriteErrorWithCode(w, http.StatusUnauthorized, "Authentication required", "unauthorized")
		return nil, false
	}
	return uc, true
}

// requireAdmin returns the caller when they hold the admin role, writing 401
// or 403 otherwise.
func requireAdmin(w http.ResponseWriter, r *http.Request) (*common.UserContext, bool) {
	uc, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	if !uc.IsAdmin() {
		WriteErrorWithCode(w, http.StatusForbidden, "Admin access required", "forbidden")
		return nil, false
	}
	return uc, true
}
