package painet

import (
	"fmt"
	"math"

	"github.com/pai-ml/painet/internal/geom"
	"github.com/pai-ml/painet/internal/nn"
	"github.com/pai-ml/painet/internal/tensor"
)

// PaiIndexMatrixLSA is the learned soft-assignment variant of
// PaiIndexMatrix. Instead of projecting onto fixed anchors it encodes each
// neighborhood's geometry with random Fourier features, scores a bank of
// learned (kernelSize, kernelSize) basis matrices with a sparsemax gate,
// and blends them into one assignment matrix per point.
//
// The blended matrix is square, so this builder requires k == kernelSize.
type PaiIndexMatrixLSA[B tensor.Backend] struct {
	k          int
	kernelSize int

	fourier  *tensor.Tensor[float32, B] // (7k, mappingSize) fixed projection
	mlp      *nn.Linear[B]
	gate     *nn.Sparsemax[B]
	basis    *nn.Parameter[B] // (numBasis, kernelSize, kernelSize)
	numBasis int
	backend  B
}

const lsaMappingSize = 64

// NewPaiIndexMatrixLSA creates the learned assignment builder. The basis
// bank starts as identity matrices, so an untrained network begins with
// plain neighbor ordering.
func NewPaiIndexMatrixLSA[B tensor.Backend](k, kernelSize int, backend B) *PaiIndexMatrixLSA[B] {
	if k != kernelSize {
		panic(fmt.Sprintf("NewPaiIndexMatrixLSA: k must equal kernelSize, got k=%d kernelSize=%d", k, kernelSize))
	}

	const numBasis = 16
	basis := tensor.Zeros[float32](tensor.Shape{numBasis, kernelSize, kernelSize}, backend)
	data := basis.Data()
	for b := 0; b < numBasis; b++ {
		for i := 0; i < kernelSize; i++ {
			data[(b*kernelSize+i)*kernelSize+i] = 1
		}
	}

	return &PaiIndexMatrixLSA[B]{
		k:          k,
		kernelSize: kernelSize,
		fourier:    tensor.Randn[float32](tensor.Shape{7 * k, lsaMappingSize}, backend),
		mlp:        nn.NewLinear(2*lsaMappingSize, numBasis, true, backend),
		gate:       nn.NewSparsemax[B](1),
		basis:      nn.NewParameter("basis", basis),
		numBasis:   numBasis,
		backend:    backend,
	}
}

// Build computes the flat neighbor index and a (batch*numPoints,
// kernelSize, kernelSize) assignment matrix for a (batch, 3, numPoints)
// cloud.
func (m *PaiIndexMatrixLSA[B]) Build(x *tensor.Tensor[float32, B]) (*tensor.Tensor[int64, B], *tensor.Tensor[float32, B]) {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("PaiIndexMatrixLSA.Build: expected 3D input [batch, channels, points], got shape %v", shape))
	}
	batch, numPoints := shape[0], shape[2]
	groups := batch * numPoints

	idx := geom.KNN(x, m.k)
	index := flattenIndex(idx, numPoints)

	spirals := gatherNeighbors(x, index, m.k) // (groups, k, 3)
	center := centerRow(spirals).Expand(groups, m.k, 3)
	relative := spirals.Sub(center)
	dist := relative.Mul(relative).SumDim(2, true).Sqrt()

	// Positional encoding: (center, offset, distance) per neighbor, run
	// through fixed random Fourier features.
	feats := tensor.Cat([]*tensor.Tensor[float32, B]{center, relative, dist}, 2).
		Reshape(groups, 7*m.k).
		MulScalar(2 * math.Pi).
		MatMul(m.fourier)
	feats = tensor.Cat([]*tensor.Tensor[float32, B]{feats.Sin(), feats.Cos()}, 1)

	weights := m.gate.Forward(m.mlp.Forward(feats)) // (groups, numBasis)

	// Blend the basis bank: out[g] = sum_i weights[g][i] * basis[i].
	mm := m.kernelSize * m.kernelSize
	permatrix := weights.
		MatMul(m.basis.Tensor().Reshape(m.numBasis, mm)).
		Reshape(groups, m.kernelSize, m.kernelSize)

	return index, permatrix
}

// SetTraining is a no-op: the builder has no mode-dependent layers.
func (m *PaiIndexMatrixLSA[B]) SetTraining(training bool) {}

// Parameters returns the gate projection and the basis bank.
func (m *PaiIndexMatrixLSA[B]) Parameters() []*nn.Parameter[B] {
	return append(m.mlp.Parameters(), m.basis)
}
