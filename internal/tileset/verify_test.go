package tileset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsMissingRoot(t *testing.T) {
	err := Validate([]byte(`{"asset":{"version":"1.0"},"geometricError":10}`))
	assert.Error(t, err)
}

func TestValidateRejectsShortBox(t *testing.T) {
	err := Validate([]byte(`{
		"asset":{"version":"1.0"},
		"geometricError":10,
		"root":{"geometricError":10,"boundingVolume":{"box":[1,2,3]}}
	}`))
	assert.Error(t, err)
}

func boxAt(cx, hx float64) *BoundingVolume {
	return &BoundingVolume{Box: []float64{cx, 0, 0, hx, 0, 0, 0, 1, 0, 0, 0, 1}}
}

func TestPrune(t *testing.T) {
	tileset := &Tileset{
		Root: Root{
			BoundingVolume: *boxAt(5, 100),
			Children: []Child{
				{
					BoundingVolume: boxAt(5, 6),
					Children: []Child{
						{BoundingVolume: boxAt(0, 1), Content: &Content{Uri: "tiles/ok.b3dm"}},
						{BoundingVolume: boxAt(10, 1), Content: &Content{Uri: "tiles/missing.b3dm"}},
						{BoundingVolume: boxAt(2e6, 1), Content: &Content{Uri: "tiles/far.b3dm"}},
					},
				},
				{
					BoundingVolume: boxAt(0, 1),
					Children: []Child{
						{BoundingVolume: boxAt(0, 1), Content: &Content{Uri: "tiles/missing2.b3dm"}},
					},
				},
				{
					BoundingVolume: boxAt(0, 1),
					Children: []Child{
						{
							BoundingVolume: boxAt(0, 1),
							Children: []Child{
								{BoundingVolume: boxAt(0, 1), Content: &Content{Uri: "tiles/missing3.b3dm"}},
							},
						},
					},
				},
			},
		},
	}

	exists := func(uri string) bool {
		return uri == "tiles/ok.b3dm" || uri == "tiles/far.b3dm"
	}
	report := Prune(tileset, exists, DefaultInvalidBoxThreshold)

	assert.Equal(t, []string{"tiles/missing.b3dm", "tiles/missing2.b3dm", "tiles/missing3.b3dm"}, report.MissingContent)
	assert.Equal(t, []string{"tiles/far.b3dm"}, report.InvalidBoundingVolume)
	assert.Equal(t, 1, report.RemainingContent)
	assert.Equal(t, 3, report.EmptyTiles)

	require.Len(t, tileset.Root.Children, 1)
	parent := tileset.Root.Children[0]
	require.Len(t, parent.Children, 1)
	assert.Equal(t, "tiles/ok.b3dm", parent.Children[0].Content.Uri)

	// the parent box shrinks to the remaining child
	assert.Equal(t, boxAt(0, 1).Box, parent.BoundingVolume.Box)
	assert.Equal(t, boxAt(5, 100).Box, tileset.Root.BoundingVolume.Box)
}

func TestPruneRecomputesNestedVolumes(t *testing.T) {
	tileset := &Tileset{
		Root: Root{
			Children: []Child{
				{
					BoundingVolume: boxAt(0, 50),
					Children: []Child{
						{
							BoundingVolume: boxAt(0, 50),
							Children: []Child{
								{BoundingVolume: boxAt(-2, 1), Content: &Content{Uri: "a"}},
								{BoundingVolume: boxAt(3, 2), Content: &Content{Uri: "b"}},
								{BoundingVolume: boxAt(40, 1), Content: &Content{Uri: "gone"}},
							},
						},
					},
				},
			},
		},
	}

	report := Prune(tileset, func(uri string) bool { return uri != "gone" }, DefaultInvalidBoxThreshold)
	assert.Equal(t, 2, report.RemainingContent)

	// x from -3 to 5
	expected := []float64{1, 0, 0, 4, 0, 0, 0, 1, 0, 0, 0, 1}
	assert.Equal(t, expected, tileset.Root.Children[0].Children[0].BoundingVolume.Box)
	assert.Equal(t, expected, tileset.Root.Children[0].BoundingVolume.Box)
}

func TestBoxExtentRotatedAxes(t *testing.T) {
	extent := boxExtent([]float64{1, 2, 3, 1, 0, 0, 0, 0, 2, 0, -3, 0})
	assert.Equal(t, []float64{0, -1, 1, 2, 5, 5}, extent.GetAsArray())
}
