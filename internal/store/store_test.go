package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/quadtree_tiler/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
	"github.com/ecopia-map/quadtree_tiler/internal/quadtree"
	"github.com/ecopia-map/quadtree_tiler/internal/tiler"
	"github.com/ecopia-map/quadtree_tiler/internal/tileset"
	"github.com/ecopia-map/quadtree_tiler/internal/wkb"
)

const schema = `
CREATE TABLE quadtree (id TEXT, parent TEXT, level INTEGER, xmin REAL, ymin REAL, xmax REAL, ymax REAL);
CREATE TABLE leaves (id TEXT, parent TEXT, xmin REAL, xmax REAL, ymin REAL, ymax REAL, zmin REAL, zmax REAL);
CREATE TABLE buildings (id INTEGER, tile_id TEXT, geom BLOB, color TEXT, attributes TEXT, lod INTEGER);
`

var testTables = tiler.TableConfig{Geometry: "buildings", Quadtree: "quadtree", Leaves: "leaves"}

func testColumns(optional bool) tiler.ColumnConfig {
	c := tiler.ColumnConfig{Geometry: "geom", ID: "id", TileID: "tile_id"}
	if optional {
		c.Color = tiler.NewOptionalColumn("color")
		c.Attributes = tiler.NewOptionalColumn("attributes")
		c.Lod = tiler.NewOptionalColumn("lod")
	}
	return c
}

func square(x, y, z float64) []geometry.Coordinate {
	return []geometry.Coordinate{{X: x, Y: y, Z: z}, {X: x + 1, Y: y, Z: z}, {X: x + 1, Y: y + 1, Z: z}, {X: x, Y: y, Z: z}}
}

func openTestDB(t *testing.T) *sqlx.DB {
	db, err := sqlx.Connect("sqlite", filepath.Join(t.TempDir(), "city.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)

	// root r (level 0) with children r/0 and r/1, r/0 has child r/0/0
	db.MustExec(`INSERT INTO quadtree VALUES ('r', NULL, 0, 0, 0, 100, 100), ('r/0', 'r', 1, 0, 0, 50, 50),
		('r/1', 'r', 1, 50, 0, 100, 50), ('r/0/0', 'r/0', 2, 0, 0, 25, 25)`)
	db.MustExec(`INSERT INTO leaves VALUES ('t1', 'r/0/0', 0, 10, 0, 10, 1, 5), ('t2', 'r/1', 60, 70, 0, 10, 2, 8),
		('t3', 'r', 80, 90, 80, 90, 0, 3)`)

	insert := `INSERT INTO buildings VALUES (?, ?, ?, ?, ?, ?)`
	db.MustExec(insert, 2, "t1", wkb.EncodePolyhedralSurfaceZ([][]geometry.Coordinate{square(1, 1, 1)}), `["#ff0000"]`, `["b", "ignored"]`, 1)
	db.MustExec(insert, 1, "t1", wkb.EncodePolyhedralSurfaceZ([][]geometry.Coordinate{square(2, 2, 2), square(3, 3, 3)}), nil, `[42]`, 1)
	db.MustExec(insert, 3, "t1", wkb.EncodePolyhedralSurfaceZ([][]geometry.Coordinate{square(4, 4, 4)}), nil, nil, 0)
	return db
}

func newTestSession(t *testing.T, db *sqlx.DB, columns tiler.ColumnConfig, offset float64) *Session {
	source := NewSource(db, &sqliteDialect{}, testTables, columns, offset_elevation_corrector.NewOffsetElevationCorrector(offset))
	session, err := source.Session(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestMaxLevelAndLods(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	session := newTestSession(t, db, testColumns(true), 0)
	maxLevel, err := session.MaxLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, maxLevel)

	lods, err := session.Lods(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, lods)

	lods, err = newTestSession(t, db, testColumns(false), 0).Lods(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, lods)
}

func TestMaxLevelEmptyQuadtree(t *testing.T) {
	db := openTestDB(t)
	db.MustExec(`DELETE FROM quadtree`)

	_, err := newTestSession(t, db, testColumns(false), 0).MaxLevel(context.Background())
	assert.ErrorIs(t, err, quadtree.ErrUnresolvedNode)
}

func TestBoundingBox(t *testing.T) {
	db := openTestDB(t)

	bbox, err := newTestSession(t, db, testColumns(false), 10).BoundingBox(context.Background())
	require.NoError(t, err)
	assert.Equal(t, geometry.NewBoundingBox(0, 100, 0, 100, 10, 18), bbox)
}

func TestLeafAncestorChains(t *testing.T) {
	db := openTestDB(t)
	session := newTestSession(t, db, testColumns(false), 0)

	var records []quadtree.AncestorChainRecord
	err := session.LeafAncestorChains(context.Background(), 2, func(r quadtree.AncestorChainRecord) error {
		records = append(records, r)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "t1", records[0].LeafID)
	assert.Equal(t, []string{"r/0/0", "r/0", "r"}, records[0].Ancestors)
	assert.Equal(t, 2, records[0].AncestorLevel(0))
	assert.Equal(t, geometry.NewBoundingBox(0, 10, 0, 10, 1, 5), records[0].Extent)

	assert.Equal(t, []string{"r/1", "r"}, records[1].Ancestors)
	assert.Equal(t, []string{"r"}, records[2].Ancestors)
}

func TestLeafAncestorChainsDanglingParent(t *testing.T) {
	db := openTestDB(t)
	db.MustExec(`INSERT INTO leaves VALUES ('t4', 'nowhere', 0, 1, 0, 1, 0, 1)`)

	err := newTestSession(t, db, testColumns(false), 0).LeafAncestorChains(context.Background(), 2, func(quadtree.AncestorChainRecord) error {
		return nil
	})
	assert.ErrorIs(t, err, quadtree.ErrUnresolvedNode)
}

func TestLeafAncestorChainsAmbiguousParent(t *testing.T) {
	db := openTestDB(t)
	// "x" is both a level 1 and a level 2 node
	db.MustExec(`INSERT INTO quadtree VALUES ('x', 'r', 1, 0, 50, 50, 100), ('x', 'r/0', 2, 25, 0, 50, 25)`)
	db.MustExec(`INSERT INTO leaves VALUES ('t5', 'x', 30, 40, 0, 10, 0, 1)`)

	var leaves []string
	err := newTestSession(t, db, testColumns(false), 0).LeafAncestorChains(context.Background(), 2, func(r quadtree.AncestorChainRecord) error {
		leaves = append(leaves, r.LeafID)
		return nil
	})
	assert.ErrorIs(t, err, quadtree.ErrInvalidChain)
	assert.Contains(t, err.Error(), "t5")
	assert.Equal(t, []string{"t1", "t2", "t3", "t5"}, leaves)
}

func TestLeafAncestorChainsSameIdOnDifferentLevels(t *testing.T) {
	db := openTestDB(t)
	// "r" repeated below r/1, only referenced through the level checked hops
	db.MustExec(`INSERT INTO quadtree VALUES ('r', 'r/1', 2, 50, 0, 75, 25)`)
	db.MustExec(`UPDATE leaves SET parent = 'r/1' WHERE id = 't3'`)

	var records []quadtree.AncestorChainRecord
	err := newTestSession(t, db, testColumns(false), 0).LeafAncestorChains(context.Background(), 2, func(r quadtree.AncestorChainRecord) error {
		records = append(records, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"r/1", "r"}, records[2].Ancestors)
}

func TestResolveNodes(t *testing.T) {
	db := openTestDB(t)
	session := newTestSession(t, db, testColumns(false), 0)
	ctx := context.Background()

	records, err := session.ResolveNodes(ctx, []string{"r/0", "r/1", "missing"}, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, 1, r.Level)
		assert.True(t, r.HasParent)
		assert.Equal(t, "r", r.ParentID)
	}

	records, err = session.ResolveNodes(ctx, []string{"r"}, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].HasParent)

	// wrong level
	records, err = session.ResolveNodes(ctx, []string{"r"}, 1)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestResolveNodesInBatches(t *testing.T) {
	db := openTestDB(t)
	tx := db.MustBegin()
	ids := make([]string, 0, 2500)
	for i := 0; i < 2500; i++ {
		id := fmt.Sprintf("r/0/0/%d", i)
		ids = append(ids, id)
		tx.MustExec(`INSERT INTO quadtree VALUES (?, 'r/0/0', 3, 0, 0, 1, 1)`, id)
	}
	require.NoError(t, tx.Commit())

	records, err := newTestSession(t, db, testColumns(false), 0).ResolveNodes(context.Background(), ids, 3)
	require.NoError(t, err)
	assert.Len(t, records, 2500)
}

func TestGeometrySubset(t *testing.T) {
	db := openTestDB(t)
	session := newTestSession(t, db, testColumns(true), 100)

	tile := tileset.NewTile("t1", nil)
	tile.Lod = 1
	records, err := session.GeometrySubset(context.Background(), tile)
	require.NoError(t, err)

	// ordered by id, lod 0 excluded
	require.Len(t, records, 2)
	assert.Len(t, records[0].Faces, 2)
	assert.Nil(t, records[0].Colors)
	assert.Equal(t, []string{"42"}, records[0].Attributes)
	assert.Equal(t, float64(102), records[0].Faces[0][0].Z)

	assert.Equal(t, []string{"#ff0000"}, records[1].Colors)
	first, ok := records[1].FirstAttribute()
	assert.True(t, ok)
	assert.Equal(t, "b", first)
}

func TestGeometrySubsetWithoutOptionalColumns(t *testing.T) {
	db := openTestDB(t)
	session := newTestSession(t, db, testColumns(false), 0)

	records, err := session.GeometrySubset(context.Background(), tileset.NewTile("t1", nil))
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Nil(t, r.Colors)
		assert.Nil(t, r.Attributes)
	}

	records, err = session.GeometrySubset(context.Background(), tileset.NewTile("unknown", nil))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGeometrySubsetInvalidGeometry(t *testing.T) {
	db := openTestDB(t)
	db.MustExec(`INSERT INTO buildings VALUES (9, 'bad', x'0102', NULL, NULL, 0)`)

	_, err := newTestSession(t, db, testColumns(false), 0).GeometrySubset(context.Background(), tileset.NewTile("bad", nil))
	assert.ErrorIs(t, err, wkb.ErrUnsupportedGeometry)
}

func TestParseArray(t *testing.T) {
	values, err := parseArray(sql.NullString{String: `["a", 1, true, {"k": 2}]`, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "1", "true", `{"k": 2}`}, values)

	values, err = parseArray(sql.NullString{String: "#00ff00", Valid: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"#00ff00"}, values)

	values, err = parseArray(sql.NullString{})
	require.NoError(t, err)
	assert.Nil(t, values)

	_, err = parseArray(sql.NullString{String: "[1,", Valid: true})
	assert.Error(t, err)
}

func TestLeafChainsQuery(t *testing.T) {
	session := &Session{source: NewSource(nil, &postgisDialect{}, testTables, testColumns(false), nil)}
	query := session.leafChainsQuery(2)

	assert.Contains(t, query, `LEFT JOIN "quadtree" p2 ON p2.id = p1.parent AND p2.level = p1.level - 1`)
	assert.Contains(t, query, "ST_ZMax(l.geom)")
	assert.Equal(t, 1, strings.Count(query, "ORDER BY"))
}

func TestNewDialect(t *testing.T) {
	d, err := NewDialect("PostGIS")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.DriverName())

	_, err = NewDialect("oracle")
	assert.ErrorIs(t, err, tiler.ErrConfiguration)

	assert.Equal(t, `"public"."buildings"`, quoteIdentifier("public.buildings"))
}
