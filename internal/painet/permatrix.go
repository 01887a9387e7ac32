package painet

import (
	"fmt"

	"github.com/pai-ml/painet/internal/geom"
	"github.com/pai-ml/painet/internal/nn"
	"github.com/pai-ml/painet/internal/tensor"
)

// PaiIndexMatrix soft-assigns every neighborhood onto a fixed set of kernel
// anchors sampled from a Fibonacci sphere. Each neighbor's relative position
// is projected onto the anchor directions, giving a (k, kernelSize)
// assignment matrix per point that downstream PaiConv layers use to
// canonicalize their input ordering.
//
// The anchors and the self-assignment bias are fixed buffers, not trainable
// parameters.
type PaiIndexMatrix[B tensor.Backend] struct {
	k          int
	kernelSize int

	kernels    *tensor.Tensor[float32, B] // (3, kernelSize) anchor directions
	onePadding *tensor.Tensor[float32, B] // (k, kernelSize), [0][0] = 1

	// Adaptive mode replaces the sharpening pipeline with a learned
	// per-neighborhood softmax temperature.
	tempNet *TemperatureNet[B]

	treeSearch bool
	backend    B
}

// IndexOption configures a PaiIndexMatrix.
type IndexOption[B tensor.Backend] func(*PaiIndexMatrix[B])

// WithAdaptiveTemperature swaps the fixed sharpening pipeline for a learned
// softmax temperature bounded below by 1/tempFactor.
func WithAdaptiveTemperature[B tensor.Backend](tempFactor float32) IndexOption[B] {
	return func(m *PaiIndexMatrix[B]) {
		m.tempNet = NewTemperatureNet(tempFactor, m.backend)
	}
}

// WithTreeSearch resolves neighborhoods through a k-d tree instead of the
// dense distance matrix. Only valid for 3-channel coordinate input.
func WithTreeSearch[B tensor.Backend]() IndexOption[B] {
	return func(m *PaiIndexMatrix[B]) {
		m.treeSearch = true
	}
}

// NewPaiIndexMatrix creates the assignment builder for neighborhoods of
// size k over kernelSize anchors.
func NewPaiIndexMatrix[B tensor.Backend](k, kernelSize int, backend B, opts ...IndexOption[B]) *PaiIndexMatrix[B] {
	if k < 1 {
		panic(fmt.Sprintf("NewPaiIndexMatrix: k must be >= 1, got %d", k))
	}
	if kernelSize < 1 {
		panic(fmt.Sprintf("NewPaiIndexMatrix: kernelSize must be >= 1, got %d", kernelSize))
	}

	anchors, err := tensor.FromSlice(geom.FibonacciSphere(kernelSize, nil), tensor.Shape{kernelSize, 3}, backend)
	if err != nil {
		panic(fmt.Sprintf("NewPaiIndexMatrix: %v", err))
	}

	onePadding := tensor.Zeros[float32](tensor.Shape{k, kernelSize}, backend)
	onePadding.Set(1, 0, 0)

	m := &PaiIndexMatrix[B]{
		k:          k,
		kernelSize: kernelSize,
		kernels:    anchors.T(), // (3, kernelSize)
		onePadding: onePadding,
		backend:    backend,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Build computes the flat neighbor index and the per-point assignment
// matrix for a (batch, 3, numPoints) cloud. The permatrix has shape
// (batch*numPoints, k, kernelSize); every column sums to at most one and
// all entries are non-negative.
func (m *PaiIndexMatrix[B]) Build(x *tensor.Tensor[float32, B]) (*tensor.Tensor[int64, B], *tensor.Tensor[float32, B]) {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("PaiIndexMatrix.Build: expected 3D input [batch, channels, points], got shape %v", shape))
	}
	batch, numPoints := shape[0], shape[2]
	groups := batch * numPoints

	var idx *tensor.Tensor[int64, B]
	if m.treeSearch {
		idx = geom.KNNTree(x, m.k)
	} else {
		idx = geom.KNN(x, m.k)
	}
	index := flattenIndex(idx, numPoints)

	spirals := gatherNeighbors(x, index, m.k) // (groups, k, 3)
	relative := spirals.Sub(centerRow(spirals))

	// One GEMM projects every relative offset onto the anchor directions.
	permatrix := relative.Reshape(groups*m.k, 3).
		MatMul(m.kernels).
		Reshape(groups, m.k, m.kernelSize)
	permatrix = permatrix.Add(m.onePadding.Reshape(1, m.k, m.kernelSize))

	if m.tempNet != nil {
		temp := m.tempNet.Forward(relative)
		return index, permatrix.Div(temp).Softmax(1)
	}

	permatrix = clampNonNegative(permatrix)
	return index, sharpen(permatrix)
}

// centerRow extracts row 0 of every (k, channels) stack as a (groups, 1,
// channels) tensor for broadcasting.
func centerRow[B tensor.Backend](spirals *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	zero := tensor.Zeros[int64](tensor.Shape{1}, spirals.Backend())
	return spirals.IndexSelect(1, zero)
}

func clampNonNegative[B tensor.Backend](t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	zeros := tensor.Zeros[float32](t.Shape(), t.Backend())
	return tensor.Where(t.Greater(zeros), t, zeros)
}

// sharpen concentrates each anchor column onto its strongest neighbors:
// normalize the column, square it, renormalize, then drop everything at or
// below 0.1. Squaring boosts dominant entries before the cutoff, so most
// columns keep only one or two contributors.
func sharpen[B tensor.Backend](permatrix *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	p := permatrix.Div(permatrix.SumDim(1, true).AddScalar(1e-6))
	p = p.Mul(p)
	p = p.Div(p.SumDim(1, true).AddScalar(1e-6))

	threshold := tensor.Full[float32](p.Shape(), 0.1, p.Backend())
	zeros := tensor.Zeros[float32](p.Shape(), p.Backend())
	return tensor.Where(p.Greater(threshold), p, zeros)
}

// SetTraining propagates the mode to the temperature head when present.
func (m *PaiIndexMatrix[B]) SetTraining(training bool) {
	if m.tempNet != nil {
		m.tempNet.SetTraining(training)
	}
}

// Parameters returns the trainable parameters, which is empty unless the
// adaptive temperature head is enabled.
func (m *PaiIndexMatrix[B]) Parameters() []*nn.Parameter[B] {
	if m.tempNet != nil {
		return m.tempNet.Parameters()
	}
	return nil
}
