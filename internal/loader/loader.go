package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/shpload/internal/schema"
	"github.com/vvka-141/shpload/internal/store"
	"github.com/vvka-141/shpload/pkg/shpload"
)

// Loader loads shapefiles into PostGIS. It holds no connection state and is
// safe for concurrent use; concurrent loads of the same table are not.
type Loader struct {
	opts        shpload.Options
	logger      shpload.Logger
	concurrency int
}

// New creates a Loader. Zero-valued options take their defaults.
//
// Panics if logger is nil.
func New(opts shpload.Options, logger shpload.Logger) *Loader {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Loader{
		opts:        opts.WithDefaults(),
		logger:      logger,
		concurrency: shpload.DefaultPreflightConcurrency,
	}
}

// Options returns the effective options.
func (l *Loader) Options() shpload.Options { return l.opts }

// Load runs one load on db. Rows inserted before a failure remain.
func (l *Loader) Load(ctx context.Context, db store.DB, req shpload.LoadRequest) (shpload.LoadResult, error) {
	if err := validate(req); err != nil {
		return shpload.LoadResult{}, err
	}

	l.logger.Verbose("Parsing %s", req.Source)
	plan, err := l.Prepare(req)
	if err != nil {
		return shpload.LoadResult{}, err
	}
	return l.Write(ctx, db, plan)
}

// LoadTx runs one load inside a savepoint on tx. On failure the savepoint is
// rolled back, so the table is left as it was and tx stays usable.
func (l *Loader) LoadTx(ctx context.Context, tx pgx.Tx, req shpload.LoadRequest) (shpload.LoadResult, error) {
	if err := validate(req); err != nil {
		return shpload.LoadResult{}, err
	}
	plan, err := l.Prepare(req)
	if err != nil {
		return shpload.LoadResult{}, err
	}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return shpload.LoadResult{}, annotate(store.Classify("begin", req.Table.String(), err), req)
	}
	result, err := l.Write(ctx, sp, plan)
	if err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			l.logger.Warn("Rollback of %s failed: %v", req.Table, rbErr)
		}
		return shpload.LoadResult{}, err
	}
	if err := sp.Commit(ctx); err != nil {
		return shpload.LoadResult{}, annotate(store.Classify("commit", req.Table.String(), err), req)
	}
	return result, nil
}

// Write applies a prepared plan: existence check, drop or append check,
// create, batched insert, then the optional index and analyze.
func (l *Loader) Write(ctx context.Context, db store.DB, plan *Plan) (shpload.LoadResult, error) {
	start := time.Now()
	req := plan.Request
	tbl := plan.Table
	st := store.New(db)

	result := shpload.LoadResult{
		LoadID: uuid.New(),
		Table:  tbl.Name,
		Source: req.Source,
	}

	exists, err := st.TableExists(ctx, tbl.Name)
	if err != nil {
		return result, annotate(err, req)
	}

	create := true
	switch {
	case exists && req.Replace:
		l.logger.Verbose("Dropping %s", tbl.Name)
		if err := st.DropTable(ctx, tbl.Name); err != nil {
			return result, annotate(err, req)
		}
		result.Replaced = true
	case exists && req.Append:
		cols, err := st.Columns(ctx, tbl.Name)
		if err != nil {
			return result, annotate(err, req)
		}
		if err := tbl.CheckCompatible(cols); err != nil {
			return result, annotate(err, req)
		}
		create = false
		result.Appended = true
	case exists:
		return result, &shpload.LoadError{
			Kind:   shpload.KindPermission,
			Op:     "create",
			Table:  tbl.Name.String(),
			Source: req.Source,
			Err:    fmt.Errorf("%w (use replace or append)", shpload.ErrTableExists),
		}
	}

	if create {
		l.logger.Verbose("Creating %s (%d attribute columns, %s SRID %d)", tbl.Name, len(tbl.Columns), tbl.GeometryType, tbl.SRID)
		if err := st.CreateTable(ctx, tbl); err != nil {
			return result, annotate(err, req)
		}
	}

	insertSQL := store.InsertSQL(tbl, plan.SourceSRID)
	for off := 0; off < len(plan.Rows); off += l.opts.BatchSize {
		end := min(off+l.opts.BatchSize, len(plan.Rows))
		n, err := st.InsertBatch(ctx, insertSQL, tbl.Name.String(), plan.Rows[off:end])
		result.Rows += n
		if err != nil {
			return result, annotate(err, req)
		}
		l.logger.Verbose("Inserted %d/%d rows into %s", result.Rows, len(plan.Rows), tbl.Name)
	}

	if l.opts.SpatialIndex {
		if err := st.CreateSpatialIndex(ctx, tbl); err != nil {
			return result, annotate(err, req)
		}
	}
	if l.opts.Analyze {
		if err := st.Analyze(ctx, tbl.Name); err != nil {
			return result, annotate(err, req)
		}
	}

	result.Duration = time.Since(start)
	l.logger.Info("Loaded %d rows into %s from %s (%s)", result.Rows, tbl.Name, req.Source, result.Duration.Round(time.Millisecond))
	return result, nil
}

// LoadAll checks every source concurrently, then loads them in order on conn.
// A format or schema problem in any source aborts before any table is touched.
// Loading stops at the first failure; results of earlier loads are returned with it.
func (l *Loader) LoadAll(ctx context.Context, conn *pgxpool.Conn, reqs []shpload.LoadRequest) ([]shpload.LoadResult, error) {
	if err := l.Preflight(ctx, reqs); err != nil {
		return nil, err
	}

	results := make([]shpload.LoadResult, 0, len(reqs))
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return results, annotate(store.Classify("load", req.Table.String(), err), req)
		}
		l.logger.Verbose("[%d/%d] %s -> %s", i+1, len(reqs), req.Source, req.Table)
		result, err := l.Load(ctx, conn, req)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Preflight validates and fully parses every request without keeping the rows.
func (l *Loader) Preflight(ctx context.Context, reqs []shpload.LoadRequest) error {
	for _, req := range reqs {
		if err := validate(req); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for _, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := l.Prepare(req)
			return err
		})
	}
	return g.Wait()
}

func validate(req shpload.LoadRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := schema.ValidateTableName(req.Table); err != nil {
		return fmt.Errorf("%s: %w", req.Source, err)
	}
	return nil
}

// annotate fills in the table and source of a LoadError that lacks them.
func annotate(err error, req shpload.LoadRequest) error {
	var le *shpload.LoadError
	if errors.As(err, &le) {
		if le.Table == "" {
			le.Table = req.Table.String()
		}
		if le.Source == "" {
			le.Source = req.Source
		}
	}
	return err
}
