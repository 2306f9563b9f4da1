package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// EnvPostgresDSN points integration tests at an existing database instead of a container
const EnvPostgresDSN = "TEST_POSTGRES_DSN"

// Suite holds the PostgreSQL instance shared by every integration test in a test binary.
// Each test gets its own schema through NewIsolatedSchema.
type Suite struct {
	mu       sync.RWMutex
	dsn      string
	setupErr error
}

var (
	globalSuite *Suite
	suiteOnce   sync.Once
)

// Setup returns the shared suite, starting a PostgreSQL container on first use.
// The test is skipped under -short or when no database can be reached.
func Setup(t *testing.T) *Suite {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	suiteOnce.Do(func() {
		globalSuite = &Suite{}
		globalSuite.dsn, globalSuite.setupErr = resolveDSN()
	})

	globalSuite.mu.RLock()
	defer globalSuite.mu.RUnlock()
	if globalSuite.setupErr != nil {
		t.Skipf("PostgreSQL not available: %v", globalSuite.setupErr)
	}

	return globalSuite
}

// DSN returns the connection string of the shared database
func (s *Suite) DSN() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dsn
}

func resolveDSN() (dsn string, err error) {
	if dsn := os.Getenv(EnvPostgresDSN); dsn != "" {
		return dsn, nil
	}

	// Container start panics when no Docker daemon is reachable in some environments
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("start postgres container: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("comments_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return "", fmt.Errorf("start postgres container: %w", err)
	}

	return container.ConnectionString(ctx, "sslmode=disable")
}
