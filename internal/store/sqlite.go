package store

import (
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ecopia-map/quadtree_tiler/internal/tiler"
)

type sqliteDialect struct{}

func (d *sqliteDialect) Name() string {
	return tiler.DialectSqlite
}

func (d *sqliteDialect) DriverName() string {
	return "sqlite"
}

func (d *sqliteDialect) LeafExtent(alias string) string {
	return fmt.Sprintf("%[1]s.xmin, %[1]s.xmax, %[1]s.ymin, %[1]s.ymax, %[1]s.zmin, %[1]s.zmax", alias)
}

// the z range is taken from the leaf extents, the geometry blobs cannot be inspected in SQL
func (d *sqliteDialect) RootExtentQuery(tables tiler.TableConfig, geometryColumn string) string {
	return fmt.Sprintf(`
		SELECT q.xmin, q.xmax, q.ymin, q.ymax, l.zmin, l.zmax
		FROM (SELECT MIN(xmin) AS xmin, MAX(xmax) AS xmax, MIN(ymin) AS ymin, MAX(ymax) AS ymax FROM %s WHERE level = 0) q,
		     (SELECT MIN(zmin) AS zmin, MAX(zmax) AS zmax FROM %s) l`,
		quoteIdentifier(tables.Quadtree), quoteIdentifier(tables.Leaves),
	)
}

func (d *sqliteDialect) GeometryExpression(column string) string {
	return quoteIdentifier(column)
}

func (d *sqliteDialect) ArrayExpression(column string) string {
	return quoteIdentifier(column)
}
