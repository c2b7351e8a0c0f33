package common

import (
	"context"
)

// UserContext is the authenticated identity of a request, resolved by the
// session middleware from the cookie or bearer token.
type UserContext struct {
	UserID        string
	Email         string
	Role          string
	CorrelationID string
}

// IsAdmin reports whether the user holds the admin role.
func (uc *UserContext) IsAdmin() bool {
	return uc != nil && uc.Role == "admin"
}

type contextKey int

const (
	userContextKey contextKey = iota
	correlationIDKey
)

// WithUserContext stores a UserContext in the request context.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from context, or nil if absent.
func UserContextFromContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey).(*UserContext)
	return uc
}

// ResolveUserID returns the UserID from context, or "" when the request is anonymous.
func ResolveUserID(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil {
		return uc.UserID
	}
	return ""
}

// WithCorrelationID stores the request correlation ID in context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns the request correlation ID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}
