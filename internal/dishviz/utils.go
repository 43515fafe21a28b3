package dishviz

import (
	"math"
)

func isFinite(x float64) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }

func clamp01(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// toByte maps [0,1] to 0..255.
func toByte(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}

func imax(a, b int) int {
	if a > b {
		return a
	}
	return b
}
