package painet

import (
	"fmt"

	"github.com/pai-ml/painet/internal/nn"
	"github.com/pai-ml/painet/internal/tensor"
)

// Aggregator folds a point's neighborhood features into a new per-point
// feature vector. All aggregators share the index and permatrix produced
// once per cloud by an IndexBuilder, and return pre-activation output of
// shape (batch, outChannels, numPoints).
type Aggregator[B tensor.Backend] interface {
	Forward(feature *tensor.Tensor[float32, B], index *tensor.Tensor[int64, B], permatrix *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	SetTraining(training bool)
	Parameters() []*nn.Parameter[B]
}

// PaiConv canonicalizes each neighborhood through the permatrix and mixes
// the result with a single dense layer over all kernel anchor slots.
type PaiConv[B tensor.Backend] struct {
	k           int
	kernelSize  int
	inChannels  int
	outChannels int
	conv        *nn.Linear[B]
	bn          *nn.BatchNorm1D[B]
}

// NewPaiConv creates a PaiConv mapping inChannels to outChannels over
// neighborhoods of size k and kernelSize anchor slots.
func NewPaiConv[B tensor.Backend](inChannels, outChannels, k, kernelSize int, useBias bool, backend B) *PaiConv[B] {
	return &PaiConv[B]{
		k:           k,
		kernelSize:  kernelSize,
		inChannels:  inChannels,
		outChannels: outChannels,
		conv:        nn.NewLinear(inChannels*kernelSize, outChannels, useBias, backend),
		bn:          nn.NewBatchNorm1D(outChannels, backend),
	}
}

// Forward aggregates (batch, inChannels, numPoints) features into
// (batch, outChannels, numPoints). Callers apply the nonlinearity.
func (c *PaiConv[B]) Forward(feature *tensor.Tensor[float32, B], index *tensor.Tensor[int64, B], permatrix *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := feature.Shape()
	if len(shape) != 3 || shape[1] != c.inChannels {
		panic(fmt.Sprintf("PaiConv.Forward: expected [batch, %d, points] input, got shape %v", c.inChannels, shape))
	}
	batch, numPoints := shape[0], shape[2]
	groups := batch * numPoints

	spirals := gatherNeighbors(feature, index, c.k).Transpose(0, 2, 1) // (groups, c, k)
	canon := spirals.BatchMatMul(permatrix)                           // (groups, c, kernelSize)

	out := c.conv.Forward(canon.Reshape(groups, c.inChannels*c.kernelSize)).
		Reshape(batch, numPoints, c.outChannels).
		Transpose(0, 2, 1)
	return c.bn.Forward(out)
}

// SetTraining propagates the mode to the normalization layer.
func (c *PaiConv[B]) SetTraining(training bool) {
	c.bn.SetTraining(training)
}

// Parameters returns the dense mixer and normalization parameters.
func (c *PaiConv[B]) Parameters() []*nn.Parameter[B] {
	return append(c.conv.Parameters(), c.bn.Parameters()...)
}

// PaiConvDG is the edge-conv flavored aggregator: after canonicalization it
// mixes channels per anchor slot with a 1x1 convolution and max-pools over
// the slots, instead of flattening them into one dense layer.
type PaiConvDG[B tensor.Backend] struct {
	k           int
	kernelSize  int
	inChannels  int
	outChannels int
	conv        *nn.PointConv2D[B]
	bn          *nn.BatchNorm1D[B]
}

// NewPaiConvDG creates a PaiConvDG aggregator.
func NewPaiConvDG[B tensor.Backend](inChannels, outChannels, k, kernelSize int, useBias bool, backend B) *PaiConvDG[B] {
	return &PaiConvDG[B]{
		k:           k,
		kernelSize:  kernelSize,
		inChannels:  inChannels,
		outChannels: outChannels,
		conv:        nn.NewPointConv2D(inChannels, outChannels, useBias, backend),
		bn:          nn.NewBatchNorm1D(outChannels, backend),
	}
}

// Forward aggregates (batch, inChannels, numPoints) features into
// (batch, outChannels, numPoints).
func (c *PaiConvDG[B]) Forward(feature *tensor.Tensor[float32, B], index *tensor.Tensor[int64, B], permatrix *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := feature.Shape()
	if len(shape) != 3 || shape[1] != c.inChannels {
		panic(fmt.Sprintf("PaiConvDG.Forward: expected [batch, %d, points] input, got shape %v", c.inChannels, shape))
	}
	batch, numPoints := shape[0], shape[2]

	spirals := gatherNeighbors(feature, index, c.k).Transpose(0, 2, 1)
	canon := spirals.BatchMatMul(permatrix).
		Reshape(batch, numPoints, c.inChannels, c.kernelSize).
		Transpose(0, 2, 1, 3) // (batch, c, points, kernelSize)

	out := c.conv.Forward(canon).MaxDim(3, false)
	return c.bn.Forward(out)
}

// SetTraining propagates the mode to the normalization layer.
func (c *PaiConvDG[B]) SetTraining(training bool) {
	c.bn.SetTraining(training)
}

// Parameters returns the convolution and normalization parameters.
func (c *PaiConvDG[B]) Parameters() []*nn.Parameter[B] {
	return append(c.conv.Parameters(), c.bn.Parameters()...)
}

// RandLAConv pools neighborhoods with learned attention instead of the
// permatrix, which it ignores. Attention scores come from a 1x1 convolution
// over the gathered stack, normalized across channels.
type RandLAConv[B tensor.Backend] struct {
	k           int
	inChannels  int
	outChannels int
	mlp         *nn.PointConv1D[B]
	conv        *nn.Linear[B]
	bn          *nn.BatchNorm1D[B]
}

// NewRandLAConv creates an attentive pooling aggregator.
func NewRandLAConv[B tensor.Backend](inChannels, outChannels, k int, useBias bool, backend B) *RandLAConv[B] {
	return &RandLAConv[B]{
		k:           k,
		inChannels:  inChannels,
		outChannels: outChannels,
		mlp:         nn.NewPointConv1D(inChannels, inChannels, false, backend),
		conv:        nn.NewLinear(inChannels, outChannels, useBias, backend),
		bn:          nn.NewBatchNorm1D(outChannels, backend),
	}
}

// Forward aggregates (batch, inChannels, numPoints) features into
// (batch, outChannels, numPoints).
func (c *RandLAConv[B]) Forward(feature *tensor.Tensor[float32, B], index *tensor.Tensor[int64, B], _ *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := feature.Shape()
	if len(shape) != 3 || shape[1] != c.inChannels {
		panic(fmt.Sprintf("RandLAConv.Forward: expected [batch, %d, points] input, got shape %v", c.inChannels, shape))
	}
	batch, numPoints := shape[0], shape[2]

	spirals := gatherNeighbors(feature, index, c.k).Transpose(0, 2, 1) // (batch*points, c, k)
	attn := c.mlp.Forward(spirals).Softmax(1)
	pooled := attn.Mul(spirals).SumDim(2, false) // (groups, c)

	out := c.conv.Forward(pooled).
		Reshape(batch, numPoints, c.outChannels).
		Transpose(0, 2, 1)
	return c.bn.Forward(out)
}

// SetTraining propagates the mode to the normalization layer.
func (c *RandLAConv[B]) SetTraining(training bool) {
	c.bn.SetTraining(training)
}

// Parameters returns the attention, projection and normalization
// parameters.
func (c *RandLAConv[B]) Parameters() []*nn.Parameter[B] {
	params := c.mlp.Parameters()
	params = append(params, c.conv.Parameters()...)
	return append(params, c.bn.Parameters()...)
}
