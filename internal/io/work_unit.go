package io

import (
	"github.com/ecopia-map/quadtree_tiler/internal/tileset"
)

// Contains the minimal data needed to produce a single leaf tile content file
type WorkUnit struct {
	Tile *tileset.Tile
	// output file name of the content, relative to the output folder
	Name string
}
