package algorithm_manager

import (
	"github.com/ecopia-map/quadtree_tiler/internal/converters"
)

type AlgorithmManager interface {
	GetElevationCorrectionAlgorithm() converters.ElevationCorrector
	GetCoordinateConverterAlgorithm() converters.CoordinateConverter
}
