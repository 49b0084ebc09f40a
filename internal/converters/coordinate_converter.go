package converters

import (
	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
)

const (
	WGS84Srid     = 4326
	WGS84ECEFSrid = 4978
	NoSrid        = 0
)

type CoordinateConverter interface {
	ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord geometry.Coordinate) (geometry.Coordinate, error)
	ConvertToWGS84Cartesian(coord geometry.Coordinate, sourceSrid int) (geometry.Coordinate, error)
	// Returns the column major 4x4 matrix placing a local frame, centered on the given coordinate, on the globe
	RootTransform(center geometry.Coordinate, sourceSrid int) ([]float64, error)
	IsSupportedSrid(srid int) bool
	Cleanup()
}

type ElevationCorrector interface {
	CorrectElevation(lon, lat, z float64) float64
}
