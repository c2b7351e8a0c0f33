package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tradedesk/internal/models"
)

func TestAuth_RegisterLoginMe(t *testing.T) {
	srv := newTestServer(t)
	token, userID := registerAndLogin(t, srv, "Alice@Example.com")

	rec := do(t, srv, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.UserProfile
	decode(t, rec, &me)
	assert.Equal(t, userID, me.UserID)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, models.RoleUser, me.Role)
	assert.Zero(t, me.AvailableFunds)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestAuth_LoginSetsHttpOnlyCookie(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "carol@example.com")

	rec := do(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "carol@example.com",
		"password": "correct-horse",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEmpty(t, cookies[0].Value)

	// The cookie alone authenticates
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	srv.Handler().ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)

	rec = do(t, srv, http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestAuth_RegisterRejections(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "dave@example.com")

	rec := do(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "DAVE@example.com",
		"password": "another-password",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "nope",
		"password": "short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "validation_error", env.Code)
	assert.Len(t, env.Fields, 2)

	rec = do(t, srv, http.MethodGet, "/api/auth/register", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAuth_BadCredentials(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "erin@example.com")

	for _, creds := range []map[string]string{
		{"email": "erin@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "correct-horse"},
	} {
		rec := do(t, srv, http.MethodPost, "/api/auth/login", creds, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "invalid email or password"))
	}

	rec := do(t, srv, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_AdminEmailGetsAdminRole(t *testing.T) {
	srv := newTestServer(t)
	token, _ := registerAndLogin(t, srv, testAdminEmail)

	rec := do(t, srv, http.MethodGet, "/api/auth/me", nil, token)
	var me models.UserProfile
	decode(t, rec, &me)
	assert.Equal(t, models.RoleAdmin, me.Role)
}

func TestPasswordTruncation(t *testing.T) {
	long := strings.Repeat("p", 80)
	hash, err := hashPassword(long)
	require.NoError(t, err)
	assert.True(t, checkPassword(hash, long))
	assert.True(t, checkPassword(hash, long[:72]+"ignored"))
	assert.False(t, checkPassword(hash, long[:71]))
}

func TestSystemEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/version", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var v struct {
		Version string `json:"version"`
	}
	decode(t, rec, &v)
	assert.NotEmpty(t, v.Version)

	rec = do(t, srv, http.MethodPost, "/api/health", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
