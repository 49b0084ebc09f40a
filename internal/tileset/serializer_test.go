package tileset

import (
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
)

func sampleTree() []*Tile {
	a := leaf("12/3/a", 0, 1, 0, 1, 0, 1)
	a.GeometricError = 0
	b := leaf("12/3/b", 1, 2, 0, 1, 0, 1)
	c := leaf("c", 5, 6, 5, 6, 0, 1)
	inner := node(a, b)
	inner.GeometricError = 250
	outer := node(inner, c)
	outer.GeometricError = 500

	tiles := []*Tile{outer}
	CalculateBoundingVolumes(tiles, geometry.Coordinate{})
	return tiles
}

func collectUris(children []Child, uris []string) []string {
	for _, child := range children {
		if child.Content != nil {
			uris = append(uris, child.Content.Uri)
		}
		uris = collectUris(child.Children, uris)
	}
	return uris
}

func TestToTilesetContentUris(t *testing.T) {
	tileset := ToTileset(sampleTree(), TranslationTransform(geometry.Coordinate{X: 1, Y: 2}), make([]float64, 12), 1000, "REPLACE")

	uris := collectUris(tileset.Root.Children, nil)
	sort.Strings(uris)
	assert.Equal(t, []string{"tiles/12-3-a.b3dm", "tiles/12-3-b.b3dm", "tiles/c.b3dm"}, uris)
}

func TestToTilesetRoot(t *testing.T) {
	box := []float64{1, 2, 3, 4, 0, 0, 0, 5, 0, 0, 0, 6}
	transform := TranslationTransform(geometry.Coordinate{X: 10, Y: 20, Z: 0})
	tileset := ToTileset(sampleTree(), transform, box, 1000, "ADD")

	assert.Equal(t, "1.0", tileset.Asset.Version)
	assert.Equal(t, AssetGenerator, tileset.Asset.Generator)
	assert.Equal(t, float64(1000), tileset.GeometricError)
	assert.Equal(t, float64(1000), tileset.Root.GeometricError)
	assert.Equal(t, "ADD", tileset.Root.Refine)
	assert.Equal(t, box, tileset.Root.BoundingVolume.Box)
	assert.Equal(t, []float64{10, 20, 0, 1}, tileset.Root.Transform[12:])

	require.Len(t, tileset.Root.Children, 1)
	outer := tileset.Root.Children[0]
	assert.Nil(t, outer.Content)
	assert.Equal(t, float64(500), outer.GeometricError)
	require.Len(t, outer.Children, 2)
	assert.Equal(t, float64(250), outer.Children[0].GeometricError)
}

func TestToJsonOmitsEmptyFields(t *testing.T) {
	data, err := ToJson(sampleTree(), TranslationTransform(geometry.Coordinate{}), make([]float64, 12), 500, "REPLACE")
	require.NoError(t, err)

	assert.NotContains(t, string(data), "null")
	require.NoError(t, Validate(data))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	root := doc["root"].(map[string]interface{})
	outer := root["children"].([]interface{})[0].(map[string]interface{})
	_, hasContent := outer["content"]
	assert.False(t, hasContent)

	leafC := outer["children"].([]interface{})[1].(map[string]interface{})
	_, hasChildren := leafC["children"]
	assert.False(t, hasChildren)
}

func TestToJsonIsDeterministic(t *testing.T) {
	first, err := ToJson(sampleTree(), nil, make([]float64, 12), 500, "REPLACE")
	require.NoError(t, err)
	second, err := ToJson(sampleTree(), nil, make([]float64, 12), 500, "REPLACE")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.False(t, strings.Contains(string(first), "transform"))
}

func TestCountTiles(t *testing.T) {
	assert.Equal(t, 3, CountTiles(sampleTree(), 0))
}
