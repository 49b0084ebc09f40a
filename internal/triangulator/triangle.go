package triangulator

import (
	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
)

// sine of the smallest angle between two edges of a renderable triangle
const collinearEpsilon = 1e-12

// Triangle is a renderable face tagged with the batch id of the feature it comes from.
// Color is a hex string ("#rrggbb") or empty when the triangle carries no color.
type Triangle struct {
	P0      geometry.Coordinate
	P1      geometry.Coordinate
	P2      geometry.Coordinate
	BatchID int
	Color   string
}

func NewTriangle(p0, p1, p2 geometry.Coordinate, batchID int) *Triangle {
	return &Triangle{
		P0:      p0,
		P1:      p1,
		P2:      p2,
		BatchID: batchID,
	}
}

func (t *Triangle) cross() geometry.Coordinate {
	return t.P1.Sub(t.P0).Cross(t.P2.Sub(t.P0))
}

// IsDegenerated is true for triangles with collinear or coincident vertices. The cross product is
// compared with the edge lengths so that the test does not depend on the coordinate scale.
func (t *Triangle) IsDegenerated() bool {
	e1 := t.P1.Sub(t.P0).Length()
	e2 := t.P2.Sub(t.P0).Length()
	return t.cross().Length() <= collinearEpsilon*e1*e2
}

// Normal returns the unit normal following the vertex winding order
func (t *Triangle) Normal() geometry.Coordinate {
	return t.cross().Normalize()
}
