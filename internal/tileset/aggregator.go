package tileset

import (
	"math"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
)

// Rotation applied around the X axis to move from the source z-up convention to the content y-up one
const rotationX = math.Pi / 2

// CalculateBoundingVolumes replaces the bounding box of every internal tile with the union of the
// boxes of its leaf descendants, children first, then derives the bounding volume of each tile
// in the tileset local frame.
func CalculateBoundingVolumes(tiles []*Tile, translation geometry.Coordinate) {
	for _, t := range tiles {
		calculateBoundingVolume(t, translation.Negate())
	}
}

func calculateBoundingVolume(t *Tile, offset geometry.Coordinate) {
	if !t.HasContent() {
		bbox := geometry.NewEmptyBoundingBox()
		for _, child := range t.Children {
			calculateBoundingVolume(child, offset)
			if child.BoundingBox != nil {
				bbox.Expand(child.BoundingBox)
			}
		}
		t.BoundingBox = bbox
	}

	if t.BoundingBox == nil || t.BoundingBox.IsEmpty() {
		// no leaf below, keep the sentinel box and skip the volume
		return
	}

	rotated := geometry.TranslateRotateX(t.BoundingBox, offset, rotationX)
	t.BoundingVolume = &BoundingVolume{
		Box: rotated.GetBox(),
	}
}
