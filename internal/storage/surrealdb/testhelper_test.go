package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/tradedesk/internal/common"
	tcommon "github.com/bobmcallan/tradedesk/tests/common"
	surreal "github.com/surrealdb/surrealdb.go"
)

// testDB returns a connected *surreal.DB on a database unique to the test.
func testDB(t *testing.T) *surreal.DB {
	t.Helper()

	sc := tcommon.StartSurrealDB(t)
	ctx := context.Background()

	db, err := surreal.New(sc.Address())
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": "root",
		"pass": "root",
	}); err != nil {
		t.Fatalf("sign in to SurrealDB: %v", err)
	}

	// SurrealDB rejects "/" in database names, which subtests produce.
	sanitized := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbName := fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000)
	if err := db.Use(ctx, "tradedesk_test", dbName); err != nil {
		t.Fatalf("select namespace/database: %v", err)
	}

	t.Cleanup(func() {
		db.Close(context.Background())
	})

	return db
}

// testManager applies the schema to a fresh test database.
func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := newManagerWithDB(context.Background(), testDB(t), testLogger())
	if err != nil {
		t.Fatalf("init manager: %v", err)
	}
	return m
}

func testLogger() *common.Logger {
	return common.NewSilentLogger()
}
