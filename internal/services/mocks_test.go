package services

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/shpload/pkg/shpload"
)

type mockConnector struct {
	pool *pgxpool.Pool
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

type mockApprover struct {
	approved bool
	err      error
	called   bool
	tables   []shpload.TableName
}

func (m *mockApprover) RequestApproval(_ context.Context, tables []shpload.TableName) (bool, error) {
	m.called = true
	m.tables = tables
	return m.approved, m.err
}

type mockLoader struct {
	results []shpload.LoadResult
	err     error
	reqs    []shpload.LoadRequest
}

func (m *mockLoader) LoadAll(_ context.Context, _ *pgxpool.Conn, reqs []shpload.LoadRequest) ([]shpload.LoadResult, error) {
	m.reqs = reqs
	return m.results, m.err
}

type mockHasher struct {
	sum string
	err error
}

func (m *mockHasher) CalculateDataset(_ string) (string, error) {
	return m.sum, m.err
}

type mockHistory struct {
	migrateErr error
	recordErr  error
	recorded   []shpload.LoadResult
	checksums  []string
	closed     bool
}

func (m *mockHistory) Migrate(_ context.Context) error { return m.migrateErr }

func (m *mockHistory) Record(_ context.Context, r shpload.LoadResult, sum string) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.recorded = append(m.recorded, r)
	m.checksums = append(m.checksums, sum)
	return nil
}

func (m *mockHistory) Close() error {
	m.closed = true
	return nil
}

type mockTableChecker struct {
	existing map[string]bool
	err      error
}

func (m *mockTableChecker) TableExists(_ context.Context, t shpload.TableName) (bool, error) {
	return m.existing[t.String()], m.err
}

type mockLogger struct {
	mu       sync.Mutex
	warnings []string
	errors   []string
}

func (m *mockLogger) Verbose(_ string, _ ...interface{}) {}
func (m *mockLogger) Info(_ string, _ ...interface{})    {}

func (m *mockLogger) Warn(format string, _ ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings = append(m.warnings, format)
}

func (m *mockLogger) Error(format string, _ ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, format)
}
