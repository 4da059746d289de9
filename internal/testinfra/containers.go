// Package testinfra starts throwaway PostGIS servers for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostGISImage     = "postgis/postgis:17-3.5"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "shpload_test"
)

type PostGISContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartPostGIS runs a PostGIS server. The image's init scripts install the
// postgis extension in PostgresDB, which is why readiness waits for the
// second "ready" log line.
func StartPostGIS(ctx context.Context) (*PostGISContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostGISImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgis: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostGISContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}
