package store

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/jmoiron/sqlx"

	"github.com/ecopia-map/quadtree_tiler/internal/converters"
	"github.com/ecopia-map/quadtree_tiler/internal/tiler"
)

// ids per ResolveNodes query
const resolveBatchSize = 1000

// Source gives access to the quadtree, leaves and geometry tables of a database.
// Work happens on sessions, each one bound to a dedicated connection.
type Source struct {
	db        *sqlx.DB
	dialect   Dialect
	tables    tiler.TableConfig
	columns   tiler.ColumnConfig
	corrector converters.ElevationCorrector
}

// Open connects to the database described by the options
func Open(ctx context.Context, opts *tiler.TilerOptions, corrector converters.ElevationCorrector) (*Source, error) {
	dialect, err := NewDialect(opts.Dialect)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, dialect.DriverName(), opts.Connection)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s database: %w", dialect.Name(), err)
	}
	glog.Infof("connected to %s database", dialect.Name())

	return NewSource(db, dialect, opts.Tables, opts.Columns, corrector), nil
}

func NewSource(db *sqlx.DB, dialect Dialect, tables tiler.TableConfig, columns tiler.ColumnConfig, corrector converters.ElevationCorrector) *Source {
	return &Source{
		db:        db,
		dialect:   dialect,
		tables:    tables,
		columns:   columns,
		corrector: corrector,
	}
}

// Session acquires a connection for the exclusive use of the caller, who must Close it
func (s *Source) Session(ctx context.Context) (*Session, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring database connection: %w", err)
	}
	return &Session{conn: conn, source: s}, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) correctElevation(x, y, z float64) float64 {
	if s.corrector == nil {
		return z
	}
	return s.corrector.CorrectElevation(x, y, z)
}
