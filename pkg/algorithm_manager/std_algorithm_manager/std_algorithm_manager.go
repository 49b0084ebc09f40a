package std_algorithm_manager

import (
	"github.com/ecopia-map/quadtree_tiler/internal/converters"
	"github.com/ecopia-map/quadtree_tiler/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/quadtree_tiler/internal/converters/proj4_coordinate_converter"
	"github.com/ecopia-map/quadtree_tiler/internal/tiler"
	"github.com/ecopia-map/quadtree_tiler/pkg/algorithm_manager"
)

type StandardAlgorithmManager struct {
	coordinateConverter converters.CoordinateConverter
	elevationCorrector  converters.ElevationCorrector
}

func NewAlgorithmManager(opts *tiler.TilerOptions) algorithm_manager.AlgorithmManager {
	return &StandardAlgorithmManager{
		coordinateConverter: proj4_coordinate_converter.NewProj4CoordinateConverter(),
		elevationCorrector:  offset_elevation_corrector.NewOffsetElevationCorrector(opts.ZOffset),
	}
}

func (m *StandardAlgorithmManager) GetElevationCorrectionAlgorithm() converters.ElevationCorrector {
	return m.elevationCorrector
}

func (m *StandardAlgorithmManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return m.coordinateConverter
}
