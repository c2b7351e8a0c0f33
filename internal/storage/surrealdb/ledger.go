package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

const (
	conflictMarker = "ledger conflict"
	missingMarker  = "ledger missing"
)

// Ledger applies financial mutations as a single SurrealDB transaction.
// Guards are evaluated inside the transaction and THROW on failure, which
// cancels every statement in it.
type Ledger struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewLedger(db *surrealdb.DB, logger *common.Logger) *Ledger {
	return &Ledger{db: db, logger: logger}
}

func (l *Ledger) Apply(ctx context.Context, m *models.LedgerMutation) error {
	if m.User == nil {
		return fmt.Errorf("ledger: user is required")
	}

	sql, vars := buildLedgerTransaction(m)
	if err := runTransaction(ctx, l.db, sql, vars); err != nil {
		l.logger.Debug().Str("user_id", m.User.UserID).Err(err).Msg("Ledger mutation rejected")
		return fmt.Errorf("ledger: user %s: %w", m.User.UserID, err)
	}
	return nil
}

// buildLedgerTransaction renders only the statements the mutation needs.
// Optional records are left out of the SQL rather than passed as NULL.
func buildLedgerTransaction(m *models.LedgerMutation) (string, map[string]any) {
	vars := map[string]any{
		"user_id":          m.User.UserID,
		"user":             m.User,
		"expected_version": m.ExpectedVersion,
		"min_funds":        m.MinFundsBefore,
	}

	var b strings.Builder
	b.WriteString("BEGIN TRANSACTION;\n")
	b.WriteString("LET $cur = (SELECT version, available_funds FROM ONLY type::record('user', $user_id));\n")
	fmt.Fprintf(&b, "IF $cur = NONE { THROW \"%s user\" };\n", missingMarker)
	fmt.Fprintf(&b, "IF $cur.version != $expected_version { THROW \"%s: user version\" };\n", conflictMarker)
	fmt.Fprintf(&b, "IF $cur.available_funds < $min_funds { THROW \"%s: funds\" };\n", conflictMarker)

	if pc := m.Position; pc != nil {
		vars["pos_id"] = positionID(pc.Position.UserID, pc.Position.Symbol)
		vars["pos_version"] = pc.ExpectedVersion
		b.WriteString("LET $pos = (SELECT version FROM ONLY type::record('position', $pos_id));\n")
		if pc.ExpectedVersion == 0 {
			fmt.Fprintf(&b, "IF $pos != NONE { THROW \"%s: position exists\" };\n", conflictMarker)
		} else {
			fmt.Fprintf(&b, "IF $pos = NONE OR $pos.version != $pos_version { THROW \"%s: position version\" };\n", conflictMarker)
		}
		if pc.Delete {
			b.WriteString("DELETE type::record('position', $pos_id);\n")
		} else {
			vars["position"] = pc.Position
			b.WriteString("UPSERT type::record('position', $pos_id) CONTENT $position;\n")
		}
	}

	b.WriteString("UPSERT type::record('user', $user_id) CONTENT $user;\n")

	if m.Trade != nil {
		vars["trade_id"] = m.Trade.TradeID
		vars["trade"] = m.Trade
		b.WriteString("CREATE type::record('trade', $trade_id) CONTENT $trade;\n")
	}
	if m.CashTx != nil {
		vars["cash_id"] = m.CashTx.TransactionID
		vars["cash"] = m.CashTx
		b.WriteString("CREATE type::record('cash_transaction', $cash_id) CONTENT $cash;\n")
	}
	if m.Alert != nil {
		vars["alert_id"] = m.Alert.AlertID
		vars["alert"] = m.Alert
		b.WriteString("CREATE type::record('alert', $alert_id) CONTENT $alert;\n")
	}

	b.WriteString("COMMIT TRANSACTION;")
	return b.String(), vars
}

// runTransaction executes a multi-statement transaction and maps THROWn guard
// failures onto common.ErrConflict and common.ErrNotFound.
func runTransaction(ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) error {
	results, err := surrealdb.Query[any](ctx, db, sql, vars)
	if err != nil {
		return classifyTransactionError(err.Error())
	}
	if results == nil {
		return nil
	}

	var failures []string
	for _, r := range *results {
		if r.Status != "OK" {
			failures = append(failures, fmt.Sprint(r.Result))
		}
	}
	if len(failures) > 0 {
		return classifyTransactionError(strings.Join(failures, "; "))
	}
	return nil
}

func classifyTransactionError(msg string) error {
	switch {
	case strings.Contains(msg, conflictMarker):
		return fmt.Errorf("%s: %w", msg, common.ErrConflict)
	case strings.Contains(msg, missingMarker):
		return fmt.Errorf("%s: %w", msg, common.ErrNotFound)
	default:
		return fmt.Errorf("transaction failed: %s", msg)
	}
}
