// Package geom provides the geometric primitives behind point-cloud
// networks: neighbor search over point sets and quasi-uniform sphere
// sampling for convolution kernel anchors.
package geom

import (
	"fmt"
	"math"
	"math/rand"
)

// FibonacciSphere returns samples quasi-uniform anchor points as a flat
// (x, y, z) slice of length 3*samples. The first anchor is always the
// origin, which later receives the center point itself during aggregation;
// the remaining samples-1 anchors lie on the unit sphere along a golden
// angle spiral.
//
// A nil rng gives the deterministic spiral. With an rng the spiral is
// rotated by a random phase, which decorrelates anchor layouts between
// independently built kernels.
func FibonacciSphere(samples int, rng *rand.Rand) []float32 {
	if samples < 1 {
		panic(fmt.Sprintf("FibonacciSphere: samples must be >= 1, got %d", samples))
	}

	phase := 1.0
	if rng != nil {
		phase = rng.Float64() * float64(samples)
	}

	points := make([]float32, 0, 3*samples)
	points = append(points, 0, 0, 0)

	offset := 2.0 / float64(samples)
	increment := math.Pi * (3.0 - math.Sqrt(5.0))

	for i := 0; i < samples-1; i++ {
		y := float64(i)*offset - 1 + offset/2
		r := math.Sqrt(1 - y*y)
		phi := math.Mod(float64(i)+phase, float64(samples)) * increment

		points = append(points,
			float32(math.Cos(phi)*r),
			float32(y),
			float32(math.Sin(phi)*r),
		)
	}

	return points
}
