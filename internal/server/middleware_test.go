package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
)

// echoUser writes the resolved user id, or "anonymous".
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id := common.ResolveUserID(r.Context())
	if id == "" {
		id = "anonymous"
	}
	w.Write([]byte(id))
})

func TestSessionMiddleware_BearerAndCookie(t *testing.T) {
	srv := newTestServer(t)
	token, userID := registerAndLogin(t, srv, "alice@example.com")
	handler := sessionMiddleware(srv.app.Config, srv.app.Storage.UserStore())(echoUser)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, userID, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: srv.app.Config.Auth.CookieName, Value: token})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, userID, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestSessionMiddleware_InvalidTokens(t *testing.T) {
	srv := newTestServer(t)
	handler := sessionMiddleware(srv.app.Config, srv.app.Storage.UserStore())(echoUser)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	// A stale cookie is ignored rather than rejected
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: srv.app.Config.Auth.CookieName, Value: "garbage"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestSessionMiddleware_RejectsExpiredAndForeignTokens(t *testing.T) {
	srv := newTestServer(t)
	_, userID := registerAndLogin(t, srv, "bob@example.com")
	handler := sessionMiddleware(srv.app.Config, srv.app.Storage.UserStore())(echoUser)
	user := &models.User{UserID: userID, Email: "bob@example.com", Role: models.RoleUser}

	expired, _, err := signJWT(user, &srv.app.Config.Auth, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)

	other := srv.app.Config.Auth
	other.JWTSecret = "some-other-secret"
	foreign, _, err := signJWT(user, &other, time.Now())
	require.NoError(t, err)

	for name, token := range map[string]string{"expired": expired, "foreign": foreign} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	var seen string
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = common.CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get("X-Correlation-ID"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Len(t, seen, 8)
	assert.Equal(t, seen, rec.Header().Get("X-Correlation-ID"))
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	listed := corsMiddleware([]string{"https://app.example.com"})(next)
	req := httptest.NewRequest(http.MethodOptions, "/api/portfolio", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	listed.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/portfolio", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	listed.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	wildcard := corsMiddleware([]string{"*"})(next)
	req = httptest.NewRequest(http.MethodGet, "/api/portfolio", nil)
	req.Header.Set("Origin", "https://any.example.com")
	rec = httptest.NewRecorder()
	wildcard.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(common.NewSilentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
