package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vvka-141/shpload/pkg/shpload"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Recorder reads and writes history entries.
type Recorder struct {
	db  *gorm.DB
	now func() time.Time
}

// New wraps an open gorm handle.
// Panics if db is nil.
func New(db *gorm.DB) *Recorder {
	if db == nil {
		panic("db cannot be nil")
	}
	return &Recorder{db: db, now: time.Now}
}

// OpenFromPool opens gorm over an existing pgx pool so history shares the
// run's connection settings and credentials.
func OpenFromPool(pool *pgxpool.Pool, logger shpload.Logger) (*Recorder, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 newGormLogger(logger),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return New(db), nil
}

// Migrate creates or updates the history table.
func (r *Recorder) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("migrate %s: %w", TableName, err)
	}
	return nil
}

// Record appends an entry for a completed load.
func (r *Recorder) Record(ctx context.Context, result shpload.LoadResult, checksum string) error {
	entry := newEntry(result, checksum, r.now())
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("record load of %s: %w", result.Table, err)
	}
	return nil
}

// List returns the newest entries first. A non-nil table filters to that table.
func (r *Recorder) List(ctx context.Context, table *shpload.TableName, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	q := r.db.WithContext(ctx).Model(&Entry{})
	if table != nil {
		t := table.WithDefaultSchema("")
		q = q.Where("target_schema = ? AND target_table = ?", t.Schema, t.Name)
	}

	var entries []Entry
	if err := q.Order("loaded_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// Close releases the underlying *sql.DB. The pgx pool it wraps stays open.
func (r *Recorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ shpload.HistoryRecorder = (*Recorder)(nil)
