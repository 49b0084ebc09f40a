package tileset

import (
	"strings"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
)

const (
	ContentFolder    = "tiles"
	ContentExtension = ".b3dm"
	TilesetFileName  = "tileset.json"
)

// A node of the output hierarchy. Leaves carry a non empty id and renderable content,
// internal nodes have an empty id and only group their children.
type Tile struct {
	ID             string
	BoundingBox    *geometry.BoundingBox
	BoundingVolume *BoundingVolume
	GeometricError float64
	Lod            int
	Children       []*Tile
}

func NewTile(id string, bbox *geometry.BoundingBox) *Tile {
	return &Tile{
		ID:          id,
		BoundingBox: bbox,
	}
}

func (t *Tile) HasContent() bool {
	return t.ID != ""
}

func (t *Tile) AddChild(child *Tile) {
	t.Children = append(t.Children, child)
}

// SanitizeTileID makes a tile id usable as a file name
func SanitizeTileID(id string) string {
	return strings.ReplaceAll(id, "/", "-")
}

// ContentURI returns the uri of the tile content, relative to the tileset.json
func ContentURI(id string) string {
	return ContentFolder + "/" + SanitizeTileID(id) + ContentExtension
}

// CountTiles returns the number of tiles with content in the given hierarchy
func CountTiles(tiles []*Tile, startValue int) int {
	for _, tile := range tiles {
		if tile.HasContent() {
			startValue++
		}
		if tile.Children != nil {
			startValue = CountTiles(tile.Children, startValue)
		}
	}
	return startValue
}
