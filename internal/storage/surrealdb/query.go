package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const writeAttempts = 3

// queryList runs a single SELECT and returns its rows.
func queryList[T any](ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) ([]*T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, sql, vars)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0)
	if results != nil && len(*results) > 0 {
		rows := (*results)[0].Result
		for i := range rows {
			out = append(out, &rows[i])
		}
	}
	return out, nil
}

// queryFirst returns the first row of a SELECT, or common.ErrNotFound.
func queryFirst[T any](ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) (*T, error) {
	rows, err := queryList[T](ctx, db, sql, vars)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, common.ErrNotFound
	}
	return rows[0], nil
}

// selectRecord loads one record by id; a missing record returns common.ErrNotFound.
func selectRecord[T any](ctx context.Context, db *surrealdb.DB, table, id string) (*T, error) {
	record, err := surrealdb.Select[T](ctx, db, surrealmodels.NewRecordID(table, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	if record == nil {
		return nil, common.ErrNotFound
	}
	return record, nil
}

// upsertRecord writes content to table:id, retrying transient failures.
func upsertRecord[T any](ctx context.Context, db *surrealdb.DB, table, id string, content *T) error {
	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(table, id), "record": content}

	var lastErr error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		_, err := surrealdb.Query[[]T](ctx, db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("upsert %s:%s after retries: %w", table, id, lastErr)
}

// deleteRecord removes table:id. Deleting a missing record is not an error.
func deleteRecord[T any](ctx context.Context, db *surrealdb.DB, table, id string) error {
	if _, err := surrealdb.Delete[T](ctx, db, surrealmodels.NewRecordID(table, id)); err != nil && !isNotFoundError(err) {
		return fmt.Errorf("delete %s:%s: %w", table, id, err)
	}
	return nil
}

// countRows runs "SELECT count() FROM ... GROUP ALL" style queries.
func countRows(ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) (int, error) {
	type countRow struct {
		Count int `json:"count"`
	}
	row, err := queryFirst[countRow](ctx, db, sql, vars)
	if err != nil {
		if err == common.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return row.Count, nil
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already contains") || strings.Contains(msg, "already exists")
}

func limitClause(limit int) string {
	if limit > 0 {
		return fmt.Sprintf(" LIMIT %d", limit)
	}
	return ""
}
