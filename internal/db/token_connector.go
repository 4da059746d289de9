package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/shpload/internal/logging"
	"github.com/vvka-141/shpload/internal/retry"
	"github.com/vvka-141/shpload/pkg/shpload"
)

// TokenBasedConnector authenticates with a token from a TokenProvider
// (AWS IAM, Azure Entra ID). A fresh token is fetched on every attempt.
type TokenBasedConnector struct {
	config        *shpload.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	logger        shpload.Logger
	retryExecutor *retry.Executor
}

// NewTokenBasedConnector creates a connector. providerName appears in messages ("AWS IAM", "Azure").
func NewTokenBasedConnector(config *shpload.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger shpload.Logger) *TokenBasedConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

// Connect implements shpload.Connector.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
		}
		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Warn("%s token expires in %v", c.providerName, remaining.Round(time.Second))
		}
		c.logger.Verbose("acquired token from %s", c.tokenProvider)

		withToken := *c.config
		withToken.Password = token

		pool, err = openPool(ctx, c.config, BuildConnectionString(&withToken), c.logger)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shpload.ErrConnectionFailed, err)
	}
	return pool, nil
}
