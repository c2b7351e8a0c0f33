package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tradedesk/internal/app"
	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
	"github.com/bobmcallan/tradedesk/internal/storage/memory"
)

const testAdminEmail = "admin@example.com"

// newTestServer builds the full handler stack over the memory backend with no
// market-data client, so quotes come from the catalogue.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = "memory"
	cfg.Auth.AdminEmails = []string{testAdminEmail}

	store := memory.NewManager(logger)
	a := app.NewAppWithStorage(cfg, logger, store, nil)
	t.Cleanup(a.Close)
	return NewServer(a)
}

type envelope struct {
	Status string              `json:"status"`
	Data   json.RawMessage     `json:"data"`
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields []common.FieldError `json:"fields"`
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

// do sends a request through the full middleware stack. token may be empty.
func do(t *testing.T, srv *Server, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// registerAndLogin creates an account and returns its session token and id.
func registerAndLogin(t *testing.T, srv *Server, email string) (string, string) {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": "correct-horse",
		"name":     "Test User",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var profile models.UserProfile
	decode(t, rec, &profile)

	rec = do(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": "correct-horse",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	decode(t, rec, &login)
	require.NotEmpty(t, login.Token)
	return login.Token, profile.UserID
}

func seedStock(t *testing.T, srv *Server, symbol string, price float64) {
	t.Helper()
	require.NoError(t, srv.app.Storage.StockStore().SaveStock(context.Background(), &models.Stock{
		Symbol: symbol,
		Name:   symbol + " Inc",
		Price:  price,
	}))
}

func mustDay(t *testing.T, day string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", day)
	require.NoError(t, err)
	return d
}
