package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/shpload/internal/logging"
	"github.com/vvka-141/shpload/pkg/shpload"
)

// GoogleCloudSQLConnector connects through the Cloud SQL Go Connector with IAM authentication.
//
// Callers must Close() the connector after closing the pool to release the dialer.
type GoogleCloudSQLConnector struct {
	config   *shpload.ConnectionConfig
	instance string // project:region:instance
	logger   shpload.Logger
	dialer   *cloudsqlconn.Dialer
}

func NewGoogleCloudSQLConnector(config *shpload.ConnectionConfig, instance string, logger shpload.Logger) *GoogleCloudSQLConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &GoogleCloudSQLConnector{config: config, instance: instance, logger: logger}
}

// Connect implements shpload.Connector.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Cloud SQL dialer: %w", shpload.ErrConnectionFailed, err)
	}

	dsn := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable", c.instance, c.config.Username, c.config.Database)
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, c.instance)
	}
	configurePool(poolConfig, c.logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("%w: %w", shpload.ErrConnectionFailed, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		dialer.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", shpload.ErrConnectionFailed, err)
	}

	c.dialer = dialer
	return pool, nil
}

// Close releases the Cloud SQL dialer.
func (c *GoogleCloudSQLConnector) Close() error {
	if c.dialer != nil {
		c.dialer.Close()
		c.dialer = nil
	}
	return nil
}
