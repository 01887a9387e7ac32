// Copyright 2025 The PaiNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package geom provides the geometric primitives behind the PaiNet models:
// k-nearest-neighbor search over point clouds and quasi-uniform sphere
// sampling for convolution kernel anchors.
package geom

import (
	"math/rand"

	"github.com/pai-ml/painet/internal/geom"
	"github.com/pai-ml/painet/tensor"
)

// KNN finds the k nearest neighbors of every point in a
// (batch, channels, numPoints) cloud, returning indices of shape
// (batch, numPoints, k) with the point itself first.
func KNN[B tensor.Backend](x *tensor.Tensor[float32, B], k int) *tensor.Tensor[int64, B] {
	return geom.KNN(x, k)
}

// KNNTree is the k-d tree accelerated variant of KNN for raw 3-D
// coordinates.
func KNNTree[B tensor.Backend](x *tensor.Tensor[float32, B], k int) *tensor.Tensor[int64, B] {
	return geom.KNNTree(x, k)
}

// FibonacciSphere returns samples quasi-uniform anchor points as a flat
// (x, y, z) slice, origin first. A nil rng gives the deterministic spiral.
func FibonacciSphere(samples int, rng *rand.Rand) []float32 {
	return geom.FibonacciSphere(samples, rng)
}
