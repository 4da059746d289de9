package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/shpload/internal/logging"
	"github.com/vvka-141/shpload/internal/retry"
	"github.com/vvka-141/shpload/pkg/shpload"
)

// Pool sizing. A load holds one connection; the second serves history writes.
const (
	DefaultMaxConns        = 2
	DefaultMinConns        = 1
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, logger shpload.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("[%s] %s", notice.Severity, notice.Message)
	}
}

func newRetryExecutor(logger shpload.Logger) *retry.Executor {
	strategy := retry.NewExponentialBackoff(shpload.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(shpload.DefaultRetryInitialDelay),
		retry.WithMaxDelay(shpload.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Verbose("connection attempt %d failed, retrying in %v: %v", attempt+1, delay.Round(time.Millisecond), err)
		})
}

// openPool parses connStr, opens a pool and pings it.
func openPool(ctx context.Context, cfg *shpload.ConnectionConfig, connStr string, logger shpload.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	configurePool(poolConfig, logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, cfg.Host, cfg.Port, cfg.Database)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, cfg.Host, cfg.Port, cfg.Database)
	}
	return pool, nil
}

// StandardConnector connects with username/password or client certificates,
// retrying transient failures.
type StandardConnector struct {
	config        *shpload.ConnectionConfig
	logger        shpload.Logger
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a StandardConnector. A nil logger discards notices.
func NewStandardConnector(config *shpload.ConnectionConfig, logger shpload.Logger) *StandardConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &StandardConnector{
		config:        config,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

// Connect implements shpload.Connector.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		var err error
		pool, err = openPool(ctx, c.config, connStr, c.logger)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shpload.ErrConnectionFailed, err)
	}
	return pool, nil
}

// NewConnector creates the Connector matching config.AuthMethod.
func NewConnector(config *shpload.ConnectionConfig, logger shpload.Logger) (shpload.Connector, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	switch config.AuthMethod {
	case shpload.AuthMethodStandard, shpload.AuthMethodCertificate:
		return NewStandardConnector(config, logger), nil
	case shpload.AuthMethodAWSIAM:
		endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)
		provider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
		}
		return NewTokenBasedConnector(config, provider, "AWS IAM", logger), nil
	case shpload.AuthMethodGoogleIAM:
		if config.GoogleInstance == "" {
			return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", shpload.ErrInvalidConfig)
		}
		if config.Username == "" {
			return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", shpload.ErrInvalidConfig)
		}
		return NewGoogleCloudSQLConnector(config, config.GoogleInstance, logger), nil
	case shpload.AuthMethodAzureEntraID:
		provider, err := newAzureTokenProvider(config)
		if err != nil {
			return nil, err
		}
		return NewTokenBasedConnector(config, provider, "Azure", logger), nil
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, shpload.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError adds actionable guidance to raw pgx connection errors.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port
  - Firewall blocking the connection

Original error: %w`, addr, host, port, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable

Original error: %w`, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $PGPASSWORD or the connection string)
  - Wrong username
  - User does not have access to the database

Original error: %w`, database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist

Create it and enable PostGIS first:
  createdb %s
  psql -d %s -c 'CREATE EXTENSION postgis'

Original error: %w`, database, database, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)

Original error: %w`, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)
  - Client certificates missing (check --sslcert, --sslkey)

Original error: %w`, err)

	default:
		return fmt.Errorf("failed to connect to database: %w", err)
	}
}
