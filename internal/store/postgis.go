package store

import (
	"fmt"

	"github.com/ecopia-map/quadtree_tiler/internal/tiler"
)

type postgisDialect struct{}

func (d *postgisDialect) Name() string {
	return tiler.DialectPostgis
}

func (d *postgisDialect) DriverName() string {
	return "postgres"
}

func (d *postgisDialect) LeafExtent(alias string) string {
	return fmt.Sprintf(
		"ST_XMin(%[1]s.geom), ST_XMax(%[1]s.geom), ST_YMin(%[1]s.geom), ST_YMax(%[1]s.geom), ST_ZMin(%[1]s.geom), ST_ZMax(%[1]s.geom)",
		alias,
	)
}

// the quadtree geometries have no height, the z range comes from the geometry table
func (d *postgisDialect) RootExtentQuery(tables tiler.TableConfig, geometryColumn string) string {
	return fmt.Sprintf(`
		SELECT ST_XMin(q.box), ST_XMax(q.box), ST_YMin(q.box), ST_YMax(q.box), ST_ZMin(g.box), ST_ZMax(g.box)
		FROM (SELECT ST_Extent(geom) AS box FROM %s WHERE level = 0) q,
		     (SELECT ST_3DExtent(%s) AS box FROM %s) g`,
		quoteIdentifier(tables.Quadtree), quoteIdentifier(geometryColumn), quoteIdentifier(tables.Geometry),
	)
}

func (d *postgisDialect) GeometryExpression(column string) string {
	return fmt.Sprintf("ST_AsBinary(ST_Force3D(%s))", quoteIdentifier(column))
}

func (d *postgisDialect) ArrayExpression(column string) string {
	return fmt.Sprintf("array_to_json(%s)::text", quoteIdentifier(column))
}
