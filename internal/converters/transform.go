package converters

import (
	"math"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
)

// EastNorthUpTransform returns the column major 4x4 matrix of the local east-north-up frame at the
// given geodetic position (degrees), with origin at the given earth centered coordinate
func EastNorthUpTransform(lonDeg, latDeg float64, origin geometry.Coordinate) []float64 {
	lon := lonDeg * math.Pi / 180
	lat := latDeg * math.Pi / 180
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)

	return []float64{
		-sinLon, cosLon, 0, 0,
		-sinLat * cosLon, -sinLat * sinLon, cosLat, 0,
		cosLat * cosLon, cosLat * sinLon, sinLat, 0,
		origin.X, origin.Y, origin.Z, 1,
	}
}
