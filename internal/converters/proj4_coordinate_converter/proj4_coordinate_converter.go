package proj4_coordinate_converter

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/golang/glog"
	proj "github.com/xeonx/proj4"

	"github.com/ecopia-map/quadtree_tiler/internal/converters"
	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
	"github.com/ecopia-map/quadtree_tiler/internal/tileset"
)

var ErrUnsupportedSrid = errors.New("unsupported srid")

const toRadians = math.Pi / 180

type proj4CoordinateConverter struct {
	epsgDatabase     map[int]epsgProjection
	projectionsCache map[int]*proj.Proj
	// proj handles are not safe for concurrent use
	mu sync.Mutex
}

func NewProj4CoordinateConverter() converters.CoordinateConverter {
	return &proj4CoordinateConverter{
		epsgDatabase:     loadEpsgDatabase(),
		projectionsCache: make(map[int]*proj.Proj),
	}
}

// Converts the given coordinate from the given source Srid to the given target srid. Lat long coordinates
// are expressed in degrees.
func (cc *proj4CoordinateConverter) ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord geometry.Coordinate) (geometry.Coordinate, error) {
	if sourceSrid == targetSrid {
		return coord, nil
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()

	src, srcDef, err := cc.getProjection(sourceSrid)
	if err != nil {
		return coord, err
	}
	dst, dstDef, err := cc.getProjection(targetSrid)
	if err != nil {
		return coord, err
	}

	x, y, z := []float64{coord.X}, []float64{coord.Y}, []float64{coord.Z}
	if srcDef.isLatLong() {
		x[0] *= toRadians
		y[0] *= toRadians
	}
	if err := proj.TransformRaw(src, dst, x, y, z); err != nil {
		return coord, fmt.Errorf("converting %v from %d to %d: %w", coord, sourceSrid, targetSrid, err)
	}
	if dstDef.isLatLong() {
		x[0] /= toRadians
		y[0] /= toRadians
	}

	return geometry.Coordinate{X: x[0], Y: y[0], Z: z[0]}, nil
}

// Converts the input coordinate from the given srid to EPSG:4978 (earth centered cartesian)
func (cc *proj4CoordinateConverter) ConvertToWGS84Cartesian(coord geometry.Coordinate, sourceSrid int) (geometry.Coordinate, error) {
	return cc.ConvertCoordinateSrid(sourceSrid, converters.WGS84ECEFSrid, coord)
}

// RootTransform returns a plain translation for srid 0 and for earth centered coordinates, otherwise
// the east-north-up frame at the center expressed in earth centered coordinates
func (cc *proj4CoordinateConverter) RootTransform(center geometry.Coordinate, sourceSrid int) ([]float64, error) {
	if sourceSrid == converters.NoSrid || sourceSrid == converters.WGS84ECEFSrid {
		return tileset.TranslationTransform(center), nil
	}

	geodetic, err := cc.ConvertCoordinateSrid(sourceSrid, converters.WGS84Srid, center)
	if err != nil {
		return nil, err
	}
	ecef, err := cc.ConvertToWGS84Cartesian(center, sourceSrid)
	if err != nil {
		return nil, err
	}
	glog.Infof("tileset origin: lon %.8f lat %.8f, ecef [%.3f %.3f %.3f]", geodetic.X, geodetic.Y, ecef.X, ecef.Y, ecef.Z)

	return converters.EastNorthUpTransform(geodetic.X, geodetic.Y, ecef), nil
}

// Releases all projection objects from memory
func (cc *proj4CoordinateConverter) Cleanup() {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	for _, p := range cc.projectionsCache {
		p.Close()
	}
	cc.projectionsCache = make(map[int]*proj.Proj)
}

// Returns the projection corresponding to the given EPSG code, storing it in the relevant EpsgDatabase entry for caching
func (cc *proj4CoordinateConverter) getProjection(code int) (*proj.Proj, epsgProjection, error) {
	def, ok := cc.epsgDatabase[code]
	if !ok {
		return nil, def, fmt.Errorf("%w: EPSG:%d", ErrUnsupportedSrid, code)
	}
	if p, ok := cc.projectionsCache[code]; ok {
		return p, def, nil
	}

	p, err := proj.InitPlus(def.Projection)
	if err != nil {
		return nil, def, fmt.Errorf("initializing EPSG:%d: %w", code, err)
	}
	cc.projectionsCache[code] = p
	return p, def, nil
}

// IsSupportedSrid reports whether the srid can be used for the root transform
func (cc *proj4CoordinateConverter) IsSupportedSrid(srid int) bool {
	if srid == converters.NoSrid {
		return true
	}
	_, ok := cc.epsgDatabase[srid]
	return ok
}
