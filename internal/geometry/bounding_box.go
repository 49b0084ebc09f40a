package geometry

import "math"

// Axis aligned 3D bounding box. An empty box has +Inf minimums and -Inf maximums so that
// expanding it with any other box yields that box.
type BoundingBox struct {
	Xmin float64
	Xmax float64
	Ymin float64
	Ymax float64
	Zmin float64
	Zmax float64
}

// Builds a bounding box from the given min/max values, in the same order used by the store queries
func NewBoundingBox(minX, maxX, minY, maxY, minZ, maxZ float64) *BoundingBox {
	return &BoundingBox{
		Xmin: minX,
		Xmax: maxX,
		Ymin: minY,
		Ymax: maxY,
		Zmin: minZ,
		Zmax: maxZ,
	}
}

func NewEmptyBoundingBox() *BoundingBox {
	return &BoundingBox{
		Xmin: math.Inf(1),
		Xmax: math.Inf(-1),
		Ymin: math.Inf(1),
		Ymax: math.Inf(-1),
		Zmin: math.Inf(1),
		Zmax: math.Inf(-1),
	}
}

// Builds the smallest bounding box containing all the given coordinates
func NewBoundingBoxFromCoordinates(coords ...Coordinate) *BoundingBox {
	bbox := NewEmptyBoundingBox()
	for _, c := range coords {
		bbox.ExpandCoordinate(c)
	}
	return bbox
}

// IsEmpty reports whether the box still holds its initial sentinel values on any axis
func (b *BoundingBox) IsEmpty() bool {
	return b.Xmin > b.Xmax || b.Ymin > b.Ymax || b.Zmin > b.Zmax
}

// Expand grows the box so that it also contains other
func (b *BoundingBox) Expand(other *BoundingBox) {
	b.Xmin = math.Min(b.Xmin, other.Xmin)
	b.Ymin = math.Min(b.Ymin, other.Ymin)
	b.Zmin = math.Min(b.Zmin, other.Zmin)
	b.Xmax = math.Max(b.Xmax, other.Xmax)
	b.Ymax = math.Max(b.Ymax, other.Ymax)
	b.Zmax = math.Max(b.Zmax, other.Zmax)
}

func (b *BoundingBox) ExpandCoordinate(c Coordinate) {
	b.Xmin = math.Min(b.Xmin, c.X)
	b.Ymin = math.Min(b.Ymin, c.Y)
	b.Zmin = math.Min(b.Zmin, c.Z)
	b.Xmax = math.Max(b.Xmax, c.X)
	b.Ymax = math.Max(b.Ymax, c.Y)
	b.Zmax = math.Max(b.Zmax, c.Z)
}

func (b *BoundingBox) Min() Coordinate {
	return Coordinate{X: b.Xmin, Y: b.Ymin, Z: b.Zmin}
}

func (b *BoundingBox) Max() Coordinate {
	return Coordinate{X: b.Xmax, Y: b.Ymax, Z: b.Zmax}
}

func (b *BoundingBox) Center() Coordinate {
	return Coordinate{
		X: (b.Xmin + b.Xmax) / 2,
		Y: (b.Ymin + b.Ymax) / 2,
		Z: (b.Zmin + b.Zmax) / 2,
	}
}

func (b *BoundingBox) ExtentX() float64 {
	return b.Xmax - b.Xmin
}

func (b *BoundingBox) ExtentY() float64 {
	return b.Ymax - b.Ymin
}

func (b *BoundingBox) ExtentZ() float64 {
	return b.Zmax - b.Zmin
}

// Returns the 3D Tiles "box" bounding volume: center followed by the three half-axis vectors
func (b *BoundingBox) GetBox() []float64 {
	center := b.Center()
	return []float64{
		center.X, center.Y, center.Z,
		b.ExtentX() / 2, 0, 0,
		0, b.ExtentY() / 2, 0,
		0, 0, b.ExtentZ() / 2,
	}
}

// Returns the box as [minX, minY, minZ, maxX, maxY, maxZ]
func (b *BoundingBox) GetAsArray() []float64 {
	return []float64{b.Xmin, b.Ymin, b.Zmin, b.Xmax, b.Ymax, b.Zmax}
}

// Translates the box corners and rotates them around the X axis, returning the
// axis aligned box enclosing the rotated corners
func TranslateRotateX(bbox *BoundingBox, translation Coordinate, angle float64) *BoundingBox {
	from := bbox.Min().Add(translation).RotateX(angle)
	to := bbox.Max().Add(translation).RotateX(angle)
	return NewBoundingBoxFromCoordinates(from, to)
}
