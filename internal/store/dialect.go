package store

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ecopia-map/quadtree_tiler/internal/tiler"
)

// Dialect isolates the spatial SQL that differs between PostGIS and the plain SQLite layout,
// where extents are stored in xmin..zmax columns and geometries as WKB blobs.
type Dialect interface {
	Name() string
	DriverName() string
	// six expressions: xmin, xmax, ymin, ymax, zmin, zmax of the extent of a leaf
	LeafExtent(alias string) string
	// query returning xmin, xmax, ymin, ymax of the quadtree roots and zmin, zmax of the geometries
	RootExtentQuery(tables tiler.TableConfig, geometryColumn string) string
	// expression returning the geometry as WKB
	GeometryExpression(column string) string
	// expression returning an array column as a JSON array text
	ArrayExpression(column string) string
}

func NewDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case tiler.DialectPostgis:
		return &postgisDialect{}, nil
	case tiler.DialectSqlite:
		return &sqliteDialect{}, nil
	}
	return nil, fmt.Errorf("%w: unknown dialect %q", tiler.ErrConfiguration, name)
}

// quoteIdentifier quotes every part of a possibly schema qualified name
func quoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}
