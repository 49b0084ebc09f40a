package tileset

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
)

// Bounding volumes with any value above this threshold are considered broken
const DefaultInvalidBoxThreshold = 1e6

// subset of the 3D Tiles 1.0 tileset schema covering what the tiler writes
const tilesetSchemaJson = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["asset", "geometricError", "root"],
	"properties": {
		"asset": {
			"type": "object",
			"required": ["version"],
			"properties": {
				"version": {"type": "string"},
				"generator": {"type": "string"}
			}
		},
		"geometricError": {"type": "number", "minimum": 0},
		"root": {"$ref": "#/definitions/tile"}
	},
	"definitions": {
		"boundingVolume": {
			"type": "object",
			"properties": {
				"box": {"type": "array", "items": {"type": "number"}, "minItems": 12, "maxItems": 12},
				"region": {"type": "array", "items": {"type": "number"}, "minItems": 6, "maxItems": 6}
			},
			"anyOf": [{"required": ["box"]}, {"required": ["region"]}]
		},
		"tile": {
			"type": "object",
			"required": ["geometricError", "boundingVolume"],
			"properties": {
				"geometricError": {"type": "number", "minimum": 0},
				"refine": {"enum": ["ADD", "REPLACE"]},
				"transform": {"type": "array", "items": {"type": "number"}, "minItems": 16, "maxItems": 16},
				"boundingVolume": {"$ref": "#/definitions/boundingVolume"},
				"content": {
					"type": "object",
					"required": ["uri"],
					"properties": {"uri": {"type": "string", "minLength": 1}}
				},
				"children": {"type": "array", "items": {"$ref": "#/definitions/tile"}}
			}
		}
	}
}`

var tilesetSchema = jsonschema.MustCompileString("tileset.schema.json", tilesetSchemaJson)

// Validate checks a tileset.json document against the tileset schema
func Validate(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid tileset json: %w", err)
	}
	return tilesetSchema.Validate(doc)
}

func Parse(data []byte) (*Tileset, error) {
	var tileset Tileset
	if err := json.Unmarshal(data, &tileset); err != nil {
		return nil, fmt.Errorf("invalid tileset json: %w", err)
	}
	return &tileset, nil
}

type PruneReport struct {
	MissingContent        []string
	InvalidBoundingVolume []string
	// internal tiles removed because none of their descendants survived
	EmptyTiles       int
	RemainingContent int
}

// Prune removes the tiles with content whose file does not exist or whose bounding volume
// is broken, then the internal tiles left without children. The box of every remaining internal
// tile is recomputed as the union of its children. The root volume is kept as it is.
func Prune(tileset *Tileset, contentExists func(uri string) bool, threshold float64) *PruneReport {
	report := &PruneReport{}
	tileset.Root.Children = pruneChildren(tileset.Root.Children, contentExists, threshold, report)
	return report
}

func pruneChildren(children []Child, contentExists func(uri string) bool, threshold float64, report *PruneReport) []Child {
	kept := make([]Child, 0, len(children))
	for _, child := range children {
		if child.Content != nil {
			if !contentExists(child.Content.Uri) {
				report.MissingContent = append(report.MissingContent, child.Content.Uri)
				continue
			}
			if isInvalidBoundingVolume(child.BoundingVolume, threshold) {
				report.InvalidBoundingVolume = append(report.InvalidBoundingVolume, child.Content.Uri)
				continue
			}
			report.RemainingContent++
		}

		child.Children = pruneChildren(child.Children, contentExists, threshold, report)
		if child.Content == nil {
			if len(child.Children) == 0 {
				report.EmptyTiles++
				continue
			}
			if bv := unionBoundingVolume(child.Children); bv != nil {
				child.BoundingVolume = bv
			}
		}
		kept = append(kept, child)
	}

	if len(kept) == 0 {
		return nil
	}
	return kept
}

// unionBoundingVolume returns the axis aligned box enclosing the children boxes, nil when a child
// has no box volume
func unionBoundingVolume(children []Child) *BoundingVolume {
	bbox := geometry.NewEmptyBoundingBox()
	for _, child := range children {
		if child.BoundingVolume == nil || len(child.BoundingVolume.Box) != 12 {
			return nil
		}
		bbox.Expand(boxExtent(child.BoundingVolume.Box))
	}
	return &BoundingVolume{Box: bbox.GetBox()}
}

// boxExtent returns the axis aligned extent of a box volume, whose half axes may be rotated
func boxExtent(box []float64) *geometry.BoundingBox {
	var hx, hy, hz float64
	for axis := 3; axis < 12; axis += 3 {
		hx += math.Abs(box[axis])
		hy += math.Abs(box[axis+1])
		hz += math.Abs(box[axis+2])
	}
	return geometry.NewBoundingBox(box[0]-hx, box[0]+hx, box[1]-hy, box[1]+hy, box[2]-hz, box[2]+hz)
}

func isInvalidBoundingVolume(bv *BoundingVolume, threshold float64) bool {
	if bv == nil {
		return true
	}
	for _, v := range bv.Box {
		if v > threshold {
			return true
		}
	}
	return false
}
