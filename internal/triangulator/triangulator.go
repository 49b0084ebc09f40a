package triangulator

import (
	"errors"
	"fmt"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
)

var (
	ErrInvalidGeometry  = errors.New("invalid geometry")
	ErrArgumentMismatch = errors.New("argument mismatch")
)

// Face is the exterior ring of a polygon: three distinct vertices plus the closing vertex
type Face []geometry.Coordinate

// Result of the triangulation of a set of faces
type Result struct {
	Triangles            []*Triangle
	DegeneratedTriangles int
}

// Converts the faces of a single feature into triangles.
// Colors may be empty (no color), contain one color (applied to every triangle) or one color per face.
// Degenerated triangles are dropped and only counted.
func GetTriangles(faces []Face, hexColors []string, batchID int) (*Result, error) {
	if len(hexColors) > 1 && len(hexColors) != len(faces) {
		return nil, fmt.Errorf("%w: expected number of colors: %d, actual: %d", ErrArgumentMismatch, len(faces), len(hexColors))
	}

	result := &Result{
		Triangles: make([]*Triangle, 0, len(faces)),
	}

	for i, face := range faces {
		color := ""
		switch len(hexColors) {
		case 0:
		case 1:
			color = hexColors[0]
		default:
			color = hexColors[i]
		}

		triangle, err := GetTriangle(face, batchID, color)
		if err != nil {
			return nil, err
		}

		if triangle == nil {
			result.DegeneratedTriangles++
			continue
		}
		result.Triangles = append(result.Triangles, triangle)
	}

	return result, nil
}

// Builds the triangle for a single face. Returns nil without error if the triangle is degenerated.
func GetTriangle(face Face, batchID int, hexColor string) (*Triangle, error) {
	if len(face) != 4 {
		return nil, fmt.Errorf("%w: expected number of vertices in triangles: 4, actual: %d", ErrInvalidGeometry, len(face))
	}

	triangle := NewTriangle(face[0], face[1], face[2], batchID)
	triangle.Color = hexColor

	if triangle.IsDegenerated() {
		return nil, nil
	}
	return triangle, nil
}
