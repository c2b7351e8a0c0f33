// Package models defines the persisted documents and API read models of tradedesk.
package models

import (
	"fmt"
	"time"
)

// Role constants
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidateRole returns an error unless role is one of the known roles.
func ValidateRole(role string) error {
	switch role {
	case RoleAdmin, RoleUser:
		return nil
	default:
		return fmt.Errorf("invalid role %q: must be %q or %q", role, RoleAdmin, RoleUser)
	}
}

// User is an account with its cash balances.
// TotalBalance is kept equal to AvailableFunds + InvestedAmount by every ledger write.
type User struct {
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	PasswordHash   string    `json:"password_hash"`
	Role           string    `json:"role"`
	TotalBalance   float64   `json:"total_balance"`
	AvailableFunds float64   `json:"available_funds"`
	InvestedAmount float64   `json:"invested_amount"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	ModifiedAt     time.Time `json:"modified_at"`
}

// Balances is the funds view of a user.
type Balances struct {
	TotalBalance   float64 `json:"total_balance"`
	AvailableFunds float64 `json:"available_funds"`
	InvestedAmount float64 `json:"invested_amount"`
}

// Balances returns the user's current balances.
func (u *User) Balances() Balances {
	return Balances{
		TotalBalance:   u.TotalBalance,
		AvailableFunds: u.AvailableFunds,
		InvestedAmount: u.InvestedAmount,
	}
}

// UserProfile is the public view of a user; it never carries the password hash.
type UserProfile struct {
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	TotalBalance   float64   `json:"total_balance"`
	AvailableFunds float64   `json:"available_funds"`
	InvestedAmount float64   `json:"invested_amount"`
	CreatedAt      time.Time `json:"created_at"`
}

// Profile returns the public view of the user.
func (u *User) Profile() UserProfile {
	return UserProfile{
		UserID:         u.UserID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		TotalBalance:   u.TotalBalance,
		AvailableFunds: u.AvailableFunds,
		InvestedAmount: u.InvestedAmount,
		CreatedAt:      u.CreatedAt,
	}
}
