package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobmcallan/tradedesk/internal/common"
)

func TestGetRealTimeQuote_ParsesResponse(t *testing.T) {
	ts := int64(1711670340)
	mockResp := map[string]interface{}{
		"code":          "AAPL.US",
		"timestamp":     ts,
		"open":          172.10,
		"high":          173.50,
		"low":           171.80,
		"close":         173.25,
		"volume":        float64(5000000),
		"previousClose": 171.00,
		"change":        2.25,
		"change_p":      1.3158,
	}

	var capturedPath, capturedToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedToken = r.URL.Query().Get("api_token")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResp)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	quote, err := client.GetRealTimeQuote(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("GetRealTimeQuote failed: %v", err)
	}

	if capturedPath != "/real-time/AAPL.US" {
		t.Errorf("expected path /real-time/AAPL.US, got %s", capturedPath)
	}
	if capturedToken != "test-key" {
		t.Errorf("expected api_token test-key, got %s", capturedToken)
	}
	if quote.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %s", quote.Symbol)
	}
	if quote.Price != 173.25 {
		t.Errorf("expected price 173.25, got %.2f", quote.Price)
	}
	if quote.PreviousClose != 171.00 {
		t.Errorf("expected previous close 171.00, got %.2f", quote.PreviousClose)
	}
	if quote.Volume != 5000000 {
		t.Errorf("expected volume 5000000, got %d", quote.Volume)
	}
	if quote.Source != "eodhd" {
		t.Errorf("expected source eodhd, got %s", quote.Source)
	}
	if !quote.Timestamp.Equal(time.Unix(ts, 0)) {
		t.Errorf("expected timestamp %v, got %v", time.Unix(ts, 0), quote.Timestamp)
	}
}

func TestGetRealTimeQuote_StringFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"BHP.AU","timestamp":1711670340,"open":"42.10","high":"43.50","low":"41.80","close":"43.25","volume":"NA","previousClose":"NA","change":"NA","change_p":"NA"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	quote, err := client.GetRealTimeQuote(context.Background(), "BHP.AU")
	if err != nil {
		t.Fatalf("GetRealTimeQuote failed: %v", err)
	}
	if quote.Price != 43.25 {
		t.Errorf("expected price 43.25, got %.2f", quote.Price)
	}
	if quote.Volume != 0 {
		t.Errorf("expected volume 0 for NA, got %d", quote.Volume)
	}
}

func TestGetRealTimeQuote_TickerMismatch(t *testing.T) {
	tests := []struct {
		name     string
		request  string
		returned string
		wantErr  bool
	}{
		{"exact match", "BHP.AU", "BHP.AU", false},
		{"suffix stripped", "ACDC.AU", "ACDC", false},
		{"empty code", "BHP.AU", "", false},
		{"wrong exchange", "ACDC.AU", "ACDC.US", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"code": tt.returned, "timestamp": int64(1711670340), "close": 5.02,
				})
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			_, err := client.GetRealTimeQuote(context.Background(), tt.request)
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestGetRealTimeQuote_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthenticated"))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := client.GetRealTimeQuote(context.Background(), "AAPL")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", apiErr.StatusCode)
	}
	if apiErr.Endpoint != "/real-time/AAPL.US" {
		t.Errorf("expected endpoint /real-time/AAPL.US, got %s", apiErr.Endpoint)
	}
}

func TestGetRealTimeQuotes_Batch(t *testing.T) {
	var capturedPath, capturedS string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedS = r.URL.Query().Get("s")
		w.Write([]byte(`[
			{"code":"AAPL.US","timestamp":1711670340,"close":173.25},
			{"code":"MSFT.US","timestamp":1711670340,"close":"NA"},
			{"code":"TSLA.US","timestamp":1711670340,"close":180.10}
		]`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	quotes, err := client.GetRealTimeQuotes(context.Background(), []string{"AAPL", "MSFT", "TSLA"})
	if err != nil {
		t.Fatalf("GetRealTimeQuotes failed: %v", err)
	}

	if capturedPath != "/real-time/AAPL.US" {
		t.Errorf("expected path /real-time/AAPL.US, got %s", capturedPath)
	}
	if capturedS != "MSFT.US,TSLA.US" {
		t.Errorf("expected s=MSFT.US,TSLA.US, got %s", capturedS)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected 2 priced quotes, got %d", len(quotes))
	}
	if quotes[1].Symbol != "TSLA" || quotes[1].Price != 180.10 {
		t.Errorf("unexpected second quote %+v", quotes[1])
	}
}

func TestGetIntraday(t *testing.T) {
	var capturedInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedInterval = r.URL.Query().Get("interval")
		w.Write([]byte(`[
			{"timestamp":1711670040,"open":1,"high":2,"low":0.5,"close":1.5,"volume":100},
			{"timestamp":1711670340,"open":1.5,"high":2.5,"low":1,"close":2,"volume":200}
		]`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	bars, err := client.GetIntraday(context.Background(), "AAPL", "")
	if err != nil {
		t.Fatalf("GetIntraday failed: %v", err)
	}
	if capturedInterval != "5m" {
		t.Errorf("expected default interval 5m, got %s", capturedInterval)
	}
	if len(bars) != 2 || bars[1].Close != 2 || bars[1].Volume != 200 {
		t.Errorf("unexpected bars %+v", bars)
	}

	if _, err := client.GetIntraday(context.Background(), "AAPL", "2d"); !errors.Is(err, common.ErrValidation) {
		t.Errorf("expected validation error for bad interval, got %v", err)
	}
}
