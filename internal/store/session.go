package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ecopia-map/quadtree_tiler/internal/data"
	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
	"github.com/ecopia-map/quadtree_tiler/internal/quadtree"
	"github.com/ecopia-map/quadtree_tiler/internal/tileset"
	"github.com/ecopia-map/quadtree_tiler/internal/wkb"
)

// Session runs the queries of a single worker on its own connection
type Session struct {
	conn   *sqlx.Conn
	source *Source
}

func (s *Session) Close() error {
	return s.conn.Close()
}

// MaxLevel returns the deepest level of the quadtree table
func (s *Session) MaxLevel(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT MAX(level) FROM %s", quoteIdentifier(s.source.tables.Quadtree))

	var level sql.NullInt64
	if err := s.conn.QueryRowxContext(ctx, query).Scan(&level); err != nil {
		return 0, fmt.Errorf("reading quadtree depth: %w", err)
	}
	if !level.Valid {
		return 0, fmt.Errorf("%w: quadtree table %s is empty", quadtree.ErrUnresolvedNode, s.source.tables.Quadtree)
	}
	return int(level.Int64), nil
}

// Lods returns the distinct values of the lod column, ascending, or [0] when no lod column is configured
func (s *Session) Lods(ctx context.Context) ([]int, error) {
	if !s.source.columns.Lod.Present {
		return []int{0}, nil
	}

	query := fmt.Sprintf(
		"SELECT DISTINCT %[1]s FROM %[2]s WHERE %[1]s IS NOT NULL ORDER BY %[1]s",
		quoteIdentifier(s.source.columns.Lod.Name), quoteIdentifier(s.source.tables.Geometry),
	)
	var lods []int
	if err := s.conn.SelectContext(ctx, &lods, query); err != nil {
		return nil, fmt.Errorf("reading lods: %w", err)
	}
	if len(lods) == 0 {
		return []int{0}, nil
	}
	return lods, nil
}

// BoundingBox returns the extent of the quadtree roots, with the height range of the geometries
func (s *Session) BoundingBox(ctx context.Context) (*geometry.BoundingBox, error) {
	query := s.source.dialect.RootExtentQuery(s.source.tables, s.source.columns.Geometry)

	var v [6]sql.NullFloat64
	if err := s.conn.QueryRowxContext(ctx, query).Scan(&v[0], &v[1], &v[2], &v[3], &v[4], &v[5]); err != nil {
		return nil, fmt.Errorf("reading bounding box: %w", err)
	}
	for _, value := range v {
		if !value.Valid {
			return nil, fmt.Errorf("empty bounding box for tables %s and %s", s.source.tables.Quadtree, s.source.tables.Geometry)
		}
	}

	bbox := geometry.NewBoundingBox(v[0].Float64, v[1].Float64, v[2].Float64, v[3].Float64, v[4].Float64, v[5].Float64)
	center := bbox.Center()
	bbox.Zmin = s.source.correctElevation(center.X, center.Y, bbox.Zmin)
	bbox.Zmax = s.source.correctElevation(center.X, center.Y, bbox.Zmax)
	return bbox, nil
}

// leafChainsQuery walks from each leaf up to the root with one join per quadtree level
func (s *Session) leafChainsQuery(maxLevel int) string {
	qt := quoteIdentifier(s.source.tables.Quadtree)

	columns := []string{"l.id", "l.parent"}
	joins := []string{fmt.Sprintf("LEFT JOIN %s p0 ON p0.id = l.parent", qt)}
	for i := 0; i <= maxLevel; i++ {
		columns = append(columns, fmt.Sprintf("p%d.id", i))
		if i > 0 {
			joins = append(joins, fmt.Sprintf(
				"LEFT JOIN %[1]s p%[2]d ON p%[2]d.id = p%[3]d.parent AND p%[2]d.level = p%[3]d.level - 1", qt, i, i-1,
			))
		}
	}
	columns = append(columns, s.source.dialect.LeafExtent("l"))

	return fmt.Sprintf(
		"SELECT %s FROM %s l %s ORDER BY l.id, p0.level",
		strings.Join(columns, ", "), quoteIdentifier(s.source.tables.Leaves), strings.Join(joins, " "),
	)
}

// LeafAncestorChains streams one record per leaf, ancestors from the immediate parent up to the root.
// The leaves table references the parent by id only, so a parent id found on more than one level
// makes the chain ambiguous and is rejected.
func (s *Session) LeafAncestorChains(ctx context.Context, maxLevel int, fn func(quadtree.AncestorChainRecord) error) error {
	rows, err := s.conn.QueryxContext(ctx, s.leafChainsQuery(maxLevel))
	if err != nil {
		return fmt.Errorf("reading leaves: %w", err)
	}
	defer rows.Close()

	var leafID string
	var parent sql.NullString
	ancestors := make([]sql.NullString, maxLevel+1)
	var extent [6]sql.NullFloat64

	dest := []interface{}{&leafID, &parent}
	for i := range ancestors {
		dest = append(dest, &ancestors[i])
	}
	for i := range extent {
		dest = append(dest, &extent[i])
	}

	previous := ""
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		if previous != "" && leafID == previous {
			return fmt.Errorf("%w: parent %q of leaf %q exists on more than one quadtree level", quadtree.ErrInvalidChain, parent.String, leafID)
		}
		previous = leafID

		record := quadtree.AncestorChainRecord{LeafID: leafID}
		for _, a := range ancestors {
			if !a.Valid {
				break
			}
			record.Ancestors = append(record.Ancestors, a.String)
		}
		if parent.Valid && len(record.Ancestors) == 0 {
			return fmt.Errorf("%w: parent %q of leaf %q", quadtree.ErrUnresolvedNode, parent.String, leafID)
		}

		for _, e := range extent {
			if !e.Valid {
				return fmt.Errorf("%w: leaf %q has no extent", quadtree.ErrInvalidChain, leafID)
			}
		}
		bbox := geometry.NewBoundingBox(extent[0].Float64, extent[1].Float64, extent[2].Float64, extent[3].Float64, extent[4].Float64, extent[5].Float64)
		center := bbox.Center()
		bbox.Zmin = s.source.correctElevation(center.X, center.Y, bbox.Zmin)
		bbox.Zmax = s.source.correctElevation(center.X, center.Y, bbox.Zmax)
		record.Extent = bbox

		if err := fn(record); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ChainReader adapts LeafAncestorChains to the tree builder
func (s *Session) ChainReader(maxLevel int) quadtree.ChainReader {
	return func(ctx context.Context, fn func(quadtree.AncestorChainRecord) error) error {
		return s.LeafAncestorChains(ctx, maxLevel, fn)
	}
}

// ResolveNodes fetches the node records of the given ids at the given level, in batches
func (s *Session) ResolveNodes(ctx context.Context, ids []string, level int) ([]quadtree.NodeRecord, error) {
	records := make([]quadtree.NodeRecord, 0, len(ids))
	for start := 0; start < len(ids); start += resolveBatchSize {
		end := start + resolveBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		query, args, err := sqlx.In(
			fmt.Sprintf("SELECT id, parent, level FROM %s WHERE level = ? AND id IN (?)", quoteIdentifier(s.source.tables.Quadtree)),
			level, ids[start:end],
		)
		if err != nil {
			return nil, err
		}

		batch, err := s.resolveBatch(ctx, s.conn.Rebind(query), args)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	return records, nil
}

func (s *Session) resolveBatch(ctx context.Context, query string, args []interface{}) ([]quadtree.NodeRecord, error) {
	rows, err := s.conn.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("resolving quadtree nodes: %w", err)
	}
	defer rows.Close()

	var records []quadtree.NodeRecord
	for rows.Next() {
		var record quadtree.NodeRecord
		var parent sql.NullString
		if err := rows.Scan(&record.ID, &parent, &record.Level); err != nil {
			return nil, err
		}
		record.ParentID = parent.String
		record.HasParent = parent.Valid
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Session) geometrySubsetQuery() string {
	columns := s.source.columns
	dialect := s.source.dialect

	selected := []string{dialect.GeometryExpression(columns.Geometry)}
	if columns.Color.Present {
		selected = append(selected, dialect.ArrayExpression(columns.Color.Name))
	}
	if columns.Attributes.Present {
		selected = append(selected, dialect.ArrayExpression(columns.Attributes.Name))
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(selected, ", "), quoteIdentifier(s.source.tables.Geometry), quoteIdentifier(columns.TileID),
	)
	if columns.Lod.Present {
		query += fmt.Sprintf(" AND %s = ?", quoteIdentifier(columns.Lod.Name))
	}
	return s.conn.Rebind(query + fmt.Sprintf(" ORDER BY %s", quoteIdentifier(columns.ID)))
}

// GeometrySubset returns the decoded geometries of a leaf tile, restricted to the tile lod when a lod
// column is configured
func (s *Session) GeometrySubset(ctx context.Context, tile *tileset.Tile) ([]*data.GeometryRecord, error) {
	args := []interface{}{tile.ID}
	if s.source.columns.Lod.Present {
		args = append(args, tile.Lod)
	}

	rows, err := s.conn.QueryxContext(ctx, s.geometrySubsetQuery(), args...)
	if err != nil {
		return nil, fmt.Errorf("reading geometries of tile %s: %w", tile.ID, err)
	}
	defer rows.Close()

	var records []*data.GeometryRecord
	for rows.Next() {
		var geom []byte
		var colors, attributes sql.NullString
		dest := []interface{}{&geom}
		if s.source.columns.Color.Present {
			dest = append(dest, &colors)
		}
		if s.source.columns.Attributes.Present {
			dest = append(dest, &attributes)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		record, err := s.toGeometryRecord(geom, colors, attributes)
		if err != nil {
			return nil, fmt.Errorf("tile %s: %w", tile.ID, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Session) toGeometryRecord(geom []byte, colors, attributes sql.NullString) (*data.GeometryRecord, error) {
	g, err := wkb.Decode(geom)
	if err != nil {
		return nil, err
	}
	for _, face := range g.Faces {
		for i := range face {
			face[i].Z = s.source.correctElevation(face[i].X, face[i].Y, face[i].Z)
		}
	}

	colorValues, err := parseArray(colors)
	if err != nil {
		return nil, fmt.Errorf("color column: %w", err)
	}
	attributeValues, err := parseArray(attributes)
	if err != nil {
		return nil, fmt.Errorf("attributes column: %w", err)
	}
	return data.NewGeometryRecord(g.Faces, colorValues, attributeValues), nil
}

// parseArray reads a JSON array into its values as text. Strings are unquoted, other values kept verbatim.
// A value that is not an array is taken as a single element.
func parseArray(value sql.NullString) ([]string, error) {
	text := strings.TrimSpace(value.String)
	if !value.Valid || text == "" {
		return nil, nil
	}
	if !strings.HasPrefix(text, "[") {
		return []string{text}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}
	values := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			values = append(values, s)
			continue
		}
		values = append(values, string(r))
	}
	return values, nil
}
