package geometry

import "math"

// Coordinate is a 3D point or vector expressed in the source reference system
type Coordinate struct {
	X float64
	Y float64
	Z float64
}

func (c Coordinate) Add(o Coordinate) Coordinate {
	return Coordinate{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

func (c Coordinate) Sub(o Coordinate) Coordinate {
	return Coordinate{X: c.X - o.X, Y: c.Y - o.Y, Z: c.Z - o.Z}
}

func (c Coordinate) Cross(o Coordinate) Coordinate {
	return Coordinate{
		X: c.Y*o.Z - c.Z*o.Y,
		Y: c.Z*o.X - c.X*o.Z,
		Z: c.X*o.Y - c.Y*o.X,
	}
}

func (c Coordinate) Length() float64 {
	return math.Sqrt(c.X*c.X + c.Y*c.Y + c.Z*c.Z)
}

// Normalize returns the unit vector with the same direction, or the zero vector if the length is zero
func (c Coordinate) Normalize() Coordinate {
	l := c.Length()
	if l == 0 {
		return Coordinate{}
	}
	return Coordinate{X: c.X / l, Y: c.Y / l, Z: c.Z / l}
}

func (c Coordinate) Negate() Coordinate {
	return Coordinate{X: -c.X, Y: -c.Y, Z: -c.Z}
}

func (c Coordinate) ToArray() []float64 {
	return []float64{c.X, c.Y, c.Z}
}

// RotateX rotates the coordinate around the X axis by the given angle in radians
func (c Coordinate) RotateX(angle float64) Coordinate {
	cos, sin := math.Cos(angle), math.Sin(angle)
	return Coordinate{
		X: c.X,
		Y: c.Y*cos - c.Z*sin,
		Z: c.Y*sin + c.Z*cos,
	}
}
