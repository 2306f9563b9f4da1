package testutil

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/qolzam/telar/apps/comments/internal/database/postgres"
)

var identifierPattern = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// NewIsolatedSchema creates a fresh schema for the calling test and returns a client
// whose connections resolve unqualified tables inside it. The schema is dropped on cleanup.
func NewIsolatedSchema(t *testing.T, suite *Suite) *postgres.Client {
	t.Helper()

	ctx := context.Background()
	uniqueSuffix := strings.ReplaceAll(uuid.Must(uuid.NewV4()).String(), "-", "")[:16]
	schema := fmt.Sprintf("test_%s_%s", SanitizeTestName(t.Name()), uniqueSuffix)

	admin, err := sqlx.ConnectContext(ctx, "postgres", suite.DSN())
	if err != nil {
		t.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer admin.Close()

	if _, err := admin.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema)); err != nil {
		t.Fatalf("Failed to create schema %s: %v", schema, err)
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", withSearchPath(suite.DSN(), schema))
	if err != nil {
		t.Fatalf("Failed to connect to schema %s: %v", schema, err)
	}
	client := postgres.NewClientFromDB(db)

	t.Cleanup(func() {
		client.Close()

		cleanup, err := sqlx.ConnectContext(context.Background(), "postgres", suite.DSN())
		if err != nil {
			t.Logf("Failed to reconnect for schema cleanup: %v", err)
			return
		}
		defer cleanup.Close()

		if _, err := cleanup.ExecContext(context.Background(), fmt.Sprintf(`DROP SCHEMA IF EXISTS %s CASCADE`, schema)); err != nil {
			t.Logf("Failed to drop schema %s: %v", schema, err)
		}
	})

	return client
}

// withSearchPath appends search_path to either DSN form lib/pq accepts
func withSearchPath(dsn, schema string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		return dsn + separator + "search_path=" + schema
	}
	return dsn + " search_path=" + schema
}

// SanitizeTestName sanitizes a test name for use as a schema identifier
func SanitizeTestName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ToLower(identifierPattern.ReplaceAllString(name, ""))

	// 63-char identifier limit: "test_" + name + "_" + 16-char suffix
	const maxTestNameLength = 41
	if len(name) > maxTestNameLength {
		name = name[:maxTestNameLength]
	}

	return name
}
