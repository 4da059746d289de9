package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/shpload/internal/db"
	"github.com/vvka-141/shpload/internal/history"
	"github.com/vvka-141/shpload/internal/store"
	"github.com/vvka-141/shpload/pkg/shpload"
)

// HistoryStore is the subset of history.Recorder used after a run.
type HistoryStore interface {
	Migrate(ctx context.Context) error
	Record(ctx context.Context, result shpload.LoadResult, checksum string) error
	Close() error
}

// DatasetHasher fingerprints a shapefile and its sidecars.
type DatasetHasher interface {
	CalculateDataset(shpPath string) (string, error)
}

// HistoryOpener opens a history store over the run's pool.
type HistoryOpener func(pool *pgxpool.Pool, logger shpload.Logger) (HistoryStore, error)

// OpenHistory is the default HistoryOpener backed by gorm.
func OpenHistory(pool *pgxpool.Pool, logger shpload.Logger) (HistoryStore, error) {
	return history.OpenFromPool(pool, logger)
}

// LoadService runs a batch of load requests against one database.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type LoadService struct {
	connectorFactory func(*shpload.ConnectionConfig) (shpload.Connector, error)
	approver         shpload.Approver
	logger           shpload.Logger
	loader           shpload.BulkLoader
	hasher           DatasetHasher
	openHistory      HistoryOpener
}

// NewLoadService creates a LoadService with all dependencies injected.
//
// Panics on nil dependencies: these are wiring mistakes that should surface at
// startup. Configuration, connection and load failures are returned as errors.
func NewLoadService(
	connectorFactory func(*shpload.ConnectionConfig) (shpload.Connector, error),
	approver shpload.Approver,
	logger shpload.Logger,
	loader shpload.BulkLoader,
	hasher DatasetHasher,
	openHistory HistoryOpener,
) *LoadService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if hasher == nil {
		panic("hasher cannot be nil")
	}
	if openHistory == nil {
		panic("openHistory cannot be nil")
	}

	return &LoadService{
		connectorFactory: connectorFactory,
		approver:         approver,
		logger:           logger,
		loader:           loader,
		hasher:           hasher,
		openHistory:      openHistory,
	}
}

// Run executes every request in config on a single session.
// Results of completed loads are returned together with the first failure.
func (s *LoadService) Run(ctx context.Context, config shpload.RunConfig) ([]shpload.LoadResult, error) {
	connConfig, err := s.validateAndParseConfig(config)
	if err != nil {
		return nil, err
	}

	connector, err := s.connectorFactory(connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	if config.CreateExtension {
		s.logger.Verbose("Ensuring postgis extension exists")
		if err := store.New(pool).EnsurePostGIS(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.approveReplacements(ctx, pool, config.Requests); err != nil {
		return nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire session: %w", shpload.ErrConnectionFailed, err)
	}

	start := time.Now()
	results, loadErr := s.loader.LoadAll(ctx, conn, config.Requests)
	conn.Release()

	if config.RecordHistory && len(results) > 0 {
		s.recordHistory(ctx, pool, results)
	}

	s.logSummary(results, len(config.Requests), time.Since(start))
	return results, loadErr
}

// validateAndParseConfig validates the configuration and resolves connection parameters.
func (s *LoadService) validateAndParseConfig(config shpload.RunConfig) (*shpload.ConnectionConfig, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s.logger.Verbose("Starting load of %d source(s)", len(config.Requests))

	connConfig := config.Connection
	if connConfig == nil {
		parsed, err := db.ParseConnectionString(config.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("failed to parse connection string: %w", err)
		}
		connConfig = parsed
	}

	if connConfig.AppName == "" {
		connConfig.AppName = "shpload"
	}
	return connConfig, nil
}

// approveReplacements asks the approver before any existing table is dropped.
func (s *LoadService) approveReplacements(ctx context.Context, pool *pgxpool.Pool, reqs []shpload.LoadRequest) error {
	existing, err := ExistingReplaceTargets(ctx, store.New(pool), reqs)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}

	s.logger.Verbose("%d table(s) will be replaced. Requesting approval.", len(existing))
	approved, err := s.approver.RequestApproval(ctx, existing)
	if err != nil {
		return fmt.Errorf("approval request failed: %w", err)
	}
	if !approved {
		return shpload.ErrApprovalDenied
	}
	return nil
}

type tableChecker interface {
	TableExists(ctx context.Context, t shpload.TableName) (bool, error)
}

// ExistingReplaceTargets returns the tables of replace requests that already exist.
func ExistingReplaceTargets(ctx context.Context, st tableChecker, reqs []shpload.LoadRequest) ([]shpload.TableName, error) {
	var existing []shpload.TableName
	for _, req := range reqs {
		if !req.Replace {
			continue
		}
		exists, err := st.TableExists(ctx, req.Table)
		if err != nil {
			return nil, err
		}
		if exists {
			existing = append(existing, req.Table)
		}
	}
	return existing, nil
}

// recordHistory stores provenance for completed loads. Failures are logged;
// the tables are already loaded.
func (s *LoadService) recordHistory(ctx context.Context, pool *pgxpool.Pool, results []shpload.LoadResult) {
	h, err := s.openHistory(pool, s.logger)
	if err != nil {
		s.logger.Warn("History not recorded: %v", err)
		return
	}
	defer func() {
		if err := h.Close(); err != nil {
			s.logger.Verbose("Closing history store: %v", err)
		}
	}()

	if err := h.Migrate(ctx); err != nil {
		s.logger.Warn("History not recorded: %v", err)
		return
	}

	for _, r := range results {
		sum, err := s.hasher.CalculateDataset(r.Source)
		if err != nil {
			s.logger.Warn("Checksum of %s failed: %v", r.Source, err)
		}
		if err := h.Record(ctx, r, sum); err != nil {
			s.logger.Warn("History for %s not recorded: %v", r.Table, err)
		}
	}
}

func (s *LoadService) logSummary(results []shpload.LoadResult, requested int, elapsed time.Duration) {
	var rows int64
	for _, r := range results {
		rows += r.Rows
	}
	if len(results) == requested {
		s.logger.Info("✓ Loaded %d table(s), %d row(s) in %s", len(results), rows, elapsed.Round(time.Millisecond))
		return
	}
	s.logger.Error("Loaded %d of %d table(s), %d row(s) before failure", len(results), requested, rows)
}
