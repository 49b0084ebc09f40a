package tileset

import "math"

// GetGeometricErrors halves the base error once per level and terminates the list with 0.
// Only the number of levels matters, not their values.
func GetGeometricErrors(geometricError float64, levels []int) []float64 {
	if len(levels) == 0 {
		return []float64{geometricError}
	}

	result := make([]float64, len(levels)+1)
	for i := range levels {
		result[i] = geometricError / math.Pow(2, float64(i))
	}
	result[len(levels)] = 0
	return result
}

// GetLevelGeometricErrors returns the error of every quadtree level from 0 to maxLevel,
// followed by the error of the leaves (0)
func GetLevelGeometricErrors(geometricError float64, maxLevel int) []float64 {
	levels := make([]int, maxLevel+1)
	for i := range levels {
		levels[i] = i
	}
	return GetGeometricErrors(geometricError, levels)
}
