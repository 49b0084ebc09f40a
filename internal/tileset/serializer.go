package tileset

import (
	"encoding/json"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
)

const (
	AssetVersion   = "1.0"
	AssetGenerator = "quadtree_tiler"
)

// ToJson serializes the tile hierarchy in a tileset.json document
func ToJson(tiles []*Tile, transform []float64, box []float64, geometricError float64, refinement string) ([]byte, error) {
	tileset := ToTileset(tiles, transform, box, geometricError, refinement)

	// Outputting a formatted json file
	return json.MarshalIndent(tileset, "", "\t")
}

func ToTileset(tiles []*Tile, transform []float64, box []float64, geometricError float64, refinement string) *Tileset {
	return &Tileset{
		Asset: Asset{
			Version:   AssetVersion,
			Generator: AssetGenerator,
		},
		GeometricError: geometricError,
		Root: Root{
			GeometricError: geometricError,
			Refine:         refinement,
			Transform:      transform,
			BoundingVolume: BoundingVolume{Box: box},
			Children:       getChildren(tiles),
		},
	}
}

// TranslationTransform returns the column major 4x4 matrix translating by the given vector
func TranslationTransform(translation geometry.Coordinate) []float64 {
	return []float64{
		1.0, 0.0, 0.0, 0.0,
		0.0, 1.0, 0.0, 0.0,
		0.0, 0.0, 1.0, 0.0,
		translation.X, translation.Y, translation.Z, 1.0,
	}
}

func getChildren(tiles []*Tile) []Child {
	if len(tiles) == 0 {
		return nil
	}

	children := make([]Child, 0, len(tiles))
	for _, tile := range tiles {
		child := GetChild(tile)
		child.Children = getChildren(tile.Children)
		children = append(children, child)
	}
	return children
}

// GetChild maps a single tile, without its children. Internal nodes never carry content.
func GetChild(tile *Tile) Child {
	child := Child{
		GeometricError: tile.GeometricError,
		BoundingVolume: tile.BoundingVolume,
	}
	if tile.HasContent() {
		child.Content = &Content{Uri: ContentURI(tile.ID)}
	}
	return child
}
