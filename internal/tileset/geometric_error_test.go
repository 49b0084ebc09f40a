package tileset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateGeometricErrorFirstTest(t *testing.T) {
	geometricErrors := GetGeometricErrors(500, []int{0, 1})
	assert.Equal(t, []float64{500, 250, 0}, geometricErrors)
}

func TestCalculateGeometricErrorForOnly1Level(t *testing.T) {
	geometricErrors := GetGeometricErrors(500, []int{0})
	assert.Equal(t, []float64{500, 0}, geometricErrors)
}

func TestCalculateGeometricErrorIgnoresLevelValues(t *testing.T) {
	geometricErrors := GetGeometricErrors(500, []int{2, 7, 30})
	assert.Equal(t, []float64{500, 250, 125, 0}, geometricErrors)
}

func TestCalculateGeometricErrorNoLevels(t *testing.T) {
	assert.Equal(t, []float64{500}, GetGeometricErrors(500, nil))
}

func TestCalculateGeometricErrorHalvesEveryLevel(t *testing.T) {
	for _, base := range []float64{1, 0.3, 500, 12345.678} {
		for n := 1; n < 12; n++ {
			levels := make([]int, n)
			res := GetGeometricErrors(base, levels)

			assert.Len(t, res, n+1)
			assert.Equal(t, base, res[0])
			for i := 1; i < n; i++ {
				assert.Equal(t, res[i-1]/2, res[i])
			}
			assert.Equal(t, float64(0), res[n])
		}
	}
}

func TestGetLevelGeometricErrors(t *testing.T) {
	assert.Equal(t, []float64{400, 200, 100, 0}, GetLevelGeometricErrors(400, 2))
	assert.Equal(t, []float64{400, 0}, GetLevelGeometricErrors(400, 0))
}
