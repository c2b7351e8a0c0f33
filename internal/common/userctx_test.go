package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestUserContext_RoundTrip(t *testing.T) {
	ctx := context.Background()

	if uc := UserContextFromContext(ctx); uc != nil {
		t.Error("Expected nil UserContext from empty context")
	}
	if id := ResolveUserID(ctx); id != "" {
		t.Errorf("Expected empty user id, got %q", id)
	}

	ctx = WithUserContext(ctx, &UserContext{UserID: "user-123", Role: "admin"})

	got := UserContextFromContext(ctx)
	if got == nil {
		t.Fatal("Expected non-nil UserContext")
	}
	if got.UserID != "user-123" {
		t.Errorf("Expected user-123, got %s", got.UserID)
	}
	if !got.IsAdmin() {
		t.Error("Expected admin role")
	}
	if ResolveUserID(ctx) != "user-123" {
		t.Errorf("ResolveUserID = %q", ResolveUserID(ctx))
	}
}

func TestUserContext_NilIsNotAdmin(t *testing.T) {
	var uc *UserContext
	if uc.IsAdmin() {
		t.Error("nil UserContext must not be admin")
	}
}

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "abc12345")
	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("CorrelationIDFromContext = %q", got)
	}
}

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("buy: %w", NewValidationError("quantity", "must be greater than %d", 0))
	if !errors.Is(err, ErrValidation) {
		t.Error("expected errors.Is(err, ErrValidation)")
	}
	if err.Error() != "buy: quantity: must be greater than 0" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, 3, 14, 23, 59, 0, 0, time.FixedZone("AEST", 10*3600))
	got := StartOfDay(in)
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}
	if DayKey(in) != "2026-03-14" {
		t.Errorf("DayKey = %s", DayKey(in))
	}
}
