package quadtree

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
	"github.com/ecopia-map/quadtree_tiler/internal/tileset"
)

// in memory quadtree keyed by level and id, counting the resolution calls
type fakeResolver struct {
	nodes map[int]map[string]NodeRecord
	calls map[int]int
	asked map[int][]string
}

func newFakeResolver(records ...NodeRecord) *fakeResolver {
	r := &fakeResolver{
		nodes: make(map[int]map[string]NodeRecord),
		calls: make(map[int]int),
		asked: make(map[int][]string),
	}
	for _, record := range records {
		if r.nodes[record.Level] == nil {
			r.nodes[record.Level] = make(map[string]NodeRecord)
		}
		r.nodes[record.Level][record.ID] = record
	}
	return r
}

func (r *fakeResolver) ResolveNodes(ctx context.Context, ids []string, level int) ([]NodeRecord, error) {
	r.calls[level]++
	r.asked[level] = append(r.asked[level], ids...)
	var records []NodeRecord
	for _, id := range ids {
		if record, ok := r.nodes[level][id]; ok {
			records = append(records, record)
		}
	}
	return records, nil
}

func root(id string) NodeRecord {
	return NodeRecord{ID: id, Level: 0}
}

func child(id, parent string, level int) NodeRecord {
	return NodeRecord{ID: id, ParentID: parent, HasParent: true, Level: level}
}

func chain(leafID string, extent float64, ancestors ...string) AncestorChainRecord {
	return AncestorChainRecord{
		LeafID:    leafID,
		Ancestors: ancestors,
		Extent:    geometry.NewBoundingBox(extent, extent+1, extent, extent+1, 0, 1),
	}
}

func reader(records ...AncestorChainRecord) ChainReader {
	return func(ctx context.Context, fn func(AncestorChainRecord) error) error {
		for _, record := range records {
			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	}
}

func options(maxLevel int) BuildOptions {
	return BuildOptions{
		LevelGeometricErrors: tileset.GetLevelGeometricErrors(800, maxLevel),
		LeafGeometricError:   0,
		LeafLod:              3,
	}
}

func collectLeaves(tiles []*tileset.Tile, ids []string) []string {
	for _, t := range tiles {
		if t.HasContent() {
			ids = append(ids, t.ID)
		}
		ids = collectLeaves(t.Children, ids)
	}
	return ids
}

func TestBuildTreeTwoLevels(t *testing.T) {
	resolver := newFakeResolver(
		root("0"),
		child("0/0", "0", 1),
		child("0/1", "0", 1),
		child("0/0/2", "0/0", 2),
	)
	res, err := BuildTree(context.Background(), reader(
		chain("a", 0, "0/0/2", "0/0", "0"),
		chain("b", 1, "0/0/2", "0/0", "0"),
		chain("c", 2, "0/1", "0"),
		chain("d", 3, "0"),
	), resolver, 2, options(2))
	require.NoError(t, err)

	// children of the root: level 1 nodes first linked after the leaves attached to the root
	require.Len(t, res.Tiles, 3)
	assert.Equal(t, "d", res.Tiles[0].ID)

	n00 := res.Tiles[1]
	n01 := res.Tiles[2]
	assert.Equal(t, "", n00.ID)
	assert.Equal(t, float64(400), n00.GeometricError)
	assert.Equal(t, 1, n00.Lod)
	require.Len(t, n00.Children, 1)

	n002 := n00.Children[0]
	assert.Equal(t, float64(200), n002.GeometricError)
	require.Len(t, n002.Children, 2)
	assert.Equal(t, "a", n002.Children[0].ID)
	assert.Equal(t, "b", n002.Children[1].ID)

	require.Len(t, n01.Children, 1)
	assert.Equal(t, "c", n01.Children[0].ID)
	assert.Equal(t, 3, n01.Children[0].Lod)
	assert.Equal(t, float64(0), n01.Children[0].GeometricError)

	assert.Len(t, res.Leaves, 4)
}

func TestBuildTreeResolvesEachNodeOnce(t *testing.T) {
	resolver := newFakeResolver(root("r"), child("x", "r", 1))
	var chains []AncestorChainRecord
	for i := 0; i < 50; i++ {
		chains = append(chains, chain(fmt.Sprintf("leaf-%d", i), float64(i), "x", "r"))
	}

	_, err := BuildTree(context.Background(), reader(chains...), resolver, 1, options(1))
	require.NoError(t, err)

	assert.Equal(t, 1, resolver.calls[0])
	assert.Equal(t, 1, resolver.calls[1])
	assert.Equal(t, []string{"r"}, resolver.asked[0])
	assert.Equal(t, []string{"x"}, resolver.asked[1])
}

func TestBuildTreeEveryLeafExactlyOnce(t *testing.T) {
	records := []NodeRecord{root("r")}
	var chains []AncestorChainRecord
	for i := 0; i < 4; i++ {
		l1 := fmt.Sprintf("r/%d", i)
		records = append(records, child(l1, "r", 1))
		for j := 0; j < 4; j++ {
			l2 := fmt.Sprintf("%s/%d", l1, j)
			records = append(records, child(l2, l1, 2))
			for k := 0; k <= (i+j)%3; k++ {
				chains = append(chains, chain(fmt.Sprintf("%s/%d", l2, k), float64(k), l2, l1, "r"))
			}
		}
		// leaves directly below a level 1 node
		chains = append(chains, chain(l1+"/leaf", 0, l1, "r"))
	}

	res, err := BuildTree(context.Background(), reader(chains...), newFakeResolver(records...), 2, options(2))
	require.NoError(t, err)

	inTree := collectLeaves(res.Tiles, nil)
	var flat []string
	for _, l := range res.Leaves {
		flat = append(flat, l.ID)
	}
	var expected []string
	for _, c := range chains {
		expected = append(expected, c.LeafID)
	}
	sort.Strings(inTree)
	sort.Strings(flat)
	sort.Strings(expected)

	assert.Equal(t, expected, inTree)
	assert.Equal(t, expected, flat)
}

func TestBuildTreeSingleLevel(t *testing.T) {
	res, err := BuildTree(context.Background(), reader(
		chain("a", 0, "root"),
		chain("b", 1, "root"),
	), newFakeResolver(root("root")), 0, options(0))
	require.NoError(t, err)

	require.Len(t, res.Tiles, 2)
	assert.Equal(t, "a", res.Tiles[0].ID)
	assert.Equal(t, "b", res.Tiles[1].ID)
}

func TestBuildTreeSameIdOnDifferentLevels(t *testing.T) {
	resolver := newFakeResolver(root("n"), child("n", "n", 1))
	res, err := BuildTree(context.Background(), reader(chain("a", 0, "n", "n")), resolver, 1, options(1))
	require.NoError(t, err)

	require.Len(t, res.Tiles, 1)
	require.Len(t, res.Tiles[0].Children, 1)
	assert.Equal(t, "a", res.Tiles[0].Children[0].ID)
}

func TestBuildTreeUnresolvedAncestor(t *testing.T) {
	resolver := newFakeResolver(root("r"))
	_, err := BuildTree(context.Background(), reader(chain("a", 0, "missing", "r")), resolver, 1, options(1))
	assert.ErrorIs(t, err, ErrUnresolvedNode)
	assert.True(t, strings.Contains(err.Error(), "missing"))
}

func TestBuildTreeParentMismatch(t *testing.T) {
	// node x claims a parent that no chain references
	resolver := newFakeResolver(root("r"), root("other"), child("x", "other", 1))
	_, err := BuildTree(context.Background(), reader(chain("a", 0, "x", "r")), resolver, 1, options(1))
	assert.ErrorIs(t, err, ErrUnresolvedNode)
}

func TestBuildTreeOrphanNode(t *testing.T) {
	resolver := newFakeResolver(root("r"), NodeRecord{ID: "x", Level: 1})
	_, err := BuildTree(context.Background(), reader(chain("a", 0, "x", "r")), resolver, 1, options(1))
	assert.ErrorIs(t, err, ErrUnresolvedNode)
}

func TestBuildTreeInvalidChains(t *testing.T) {
	resolver := newFakeResolver(root("r"))

	_, err := BuildTree(context.Background(), reader(chain("a", 0, "r"), chain("a", 1, "r")), resolver, 0, options(0))
	assert.ErrorIs(t, err, ErrInvalidChain)

	_, err = BuildTree(context.Background(), reader(chain("a", 0, "x", "r")), resolver, 0, options(0))
	assert.ErrorIs(t, err, ErrInvalidChain)

	_, err = BuildTree(context.Background(), reader(chain("a", 0, "", "r")), resolver, 1, options(1))
	assert.ErrorIs(t, err, ErrInvalidChain)
}

func TestBuildTreeLeafWithoutAncestors(t *testing.T) {
	res, err := BuildTree(context.Background(), reader(chain("lonely", 0)), newFakeResolver(), 0, options(0))
	require.NoError(t, err)
	require.Len(t, res.Tiles, 1)
	assert.Equal(t, "lonely", res.Tiles[0].ID)
}

func TestNewBuilderRejectsMissingErrors(t *testing.T) {
	_, err := NewBuilder(newFakeResolver(), 3, BuildOptions{LevelGeometricErrors: []float64{1, 0}})
	assert.Error(t, err)
}
