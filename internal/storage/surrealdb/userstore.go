package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// UserStore persists accounts in the user table, keyed by user id.
// Emails are stored lower-cased and kept unique by the user_email index.
type UserStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewUserStore(db *surrealdb.DB, logger *common.Logger) *UserStore {
	return &UserStore{
		db:     db,
		logger: logger,
	}
}

func (s *UserStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := selectRecord[models.User](ctx, s.db, tableUser, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	return user, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	sql := "SELECT * FROM user WHERE email = $email LIMIT 1"
	user, err := queryFirst[models.User](ctx, s.db, sql, map[string]any{"email": normalizeEmail(email)})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user with email %s: %w", email, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	return user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	if user.Version == 0 {
		user.Version = 1
	}

	sql := "CREATE type::record('user', $id) CONTENT $user"
	vars := map[string]any{"id": user.UserID, "user": user}
	if _, err := surrealdb.Query[[]models.User](ctx, s.db, sql, vars); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", user.Email, common.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// SaveUser writes profile changes. It bumps the version so any in-flight
// ledger mutation based on the old document is rejected.
func (s *UserStore) SaveUser(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	user.ModifiedAt = time.Now()

	sql := "UPDATE $rid SET email = $email, name = $name, role = $role, password_hash = $password_hash, modified_at = $now, version = version + 1 RETURN AFTER"
	vars := map[string]any{
		"rid":           surrealmodels.NewRecordID(tableUser, user.UserID),
		"email":         user.Email,
		"name":          user.Name,
		"role":          user.Role,
		"password_hash": user.PasswordHash,
		"now":           user.ModifiedAt,
	}

	results, err := surrealdb.Query[[]models.User](ctx, s.db, sql, vars)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", user.Email, common.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("user %s: %w", user.UserID, common.ErrNotFound)
	}
	user.Version = (*results)[0].Result[0].Version
	return nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := queryList[models.User](ctx, s.db, "SELECT * FROM user ORDER BY created_at ASC", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
