package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgresContainer runs a disposable PostgreSQL server and returns the
// container plus a host-reachable connection string.
func startPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("gantry_test"),
		tcpostgres.WithUsername("gantry"),
		tcpostgres.WithPassword("gantry"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://gantry:gantry@%s:%s/gantry_test?sslmode=disable", host, port.Port())
	return pgContainer, connStr, nil
}
