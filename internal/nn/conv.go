package nn

import (
	"fmt"

	"github.com/pai-ml/painet/internal/tensor"
)

// PointConv1D is a 1x1 convolution over a (batch, channels, numPoints)
// tensor: the same channel-mixing transform applied independently at every
// point. This is the shared-MLP primitive of point-wise networks.
type PointConv1D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	weight      *Parameter[B] // [outChannels, inChannels]
	bias        *Parameter[B] // nil when constructed without bias
	backend     B
}

// NewPointConv1D creates a 1x1 convolution over the point dimension.
func NewPointConv1D[B tensor.Backend](inChannels, outChannels int, useBias bool, backend B) *PointConv1D[B] {
	weightShape := tensor.Shape{outChannels, inChannels}
	weight := NewParameter("weight", Xavier(inChannels, outChannels, weightShape, backend))

	var bias *Parameter[B]
	if useBias {
		bias = NewParameter("bias", Zeros[B](tensor.Shape{outChannels}, backend))
	}

	return &PointConv1D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward maps (batch, inChannels, numPoints) to (batch, outChannels, numPoints).
func (c *PointConv1D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("PointConv1D.Forward: expected 3D input [batch, channels, points], got shape %v", shape))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("PointConv1D.Forward: expected %d channels, got %d", c.inChannels, shape[1]))
	}

	batch, n := shape[0], shape[2]

	// Channels-last layout turns the 1x1 convolution into one GEMM.
	flat := input.Transpose(0, 2, 1).Reshape(batch*n, c.inChannels)
	out := flat.MatMul(c.weight.Tensor().T())
	if c.bias != nil {
		out = out.Add(c.bias.Tensor().Reshape(1, c.outChannels))
	}

	return out.Reshape(batch, n, c.outChannels).Transpose(0, 2, 1)
}

// Parameters returns the trainable parameters of this layer.
func (c *PointConv1D[B]) Parameters() []*Parameter[B] {
	if c.bias != nil {
		return []*Parameter[B]{c.weight, c.bias}
	}
	return []*Parameter[B]{c.weight}
}

// PointConv2D is a 1x1 convolution over a (batch, channels, height, width)
// tensor. In this codebase the "image" axes are (numPoints, neighbors) or
// (numPoints, kernelAnchors): channel mixing with spatial structure intact.
type PointConv2D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	weight      *Parameter[B] // [outChannels, inChannels]
	bias        *Parameter[B]
	backend     B
}

// NewPointConv2D creates a 1x1 convolution over two trailing spatial dims.
func NewPointConv2D[B tensor.Backend](inChannels, outChannels int, useBias bool, backend B) *PointConv2D[B] {
	weightShape := tensor.Shape{outChannels, inChannels}
	weight := NewParameter("weight", Xavier(inChannels, outChannels, weightShape, backend))

	var bias *Parameter[B]
	if useBias {
		bias = NewParameter("bias", Zeros[B](tensor.Shape{outChannels}, backend))
	}

	return &PointConv2D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward maps (batch, inChannels, h, w) to (batch, outChannels, h, w).
func (c *PointConv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("PointConv2D.Forward: expected 4D input [batch, channels, h, w], got shape %v", shape))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("PointConv2D.Forward: expected %d channels, got %d", c.inChannels, shape[1]))
	}

	batch, h, w := shape[0], shape[2], shape[3]

	flat := input.Transpose(0, 2, 3, 1).Reshape(batch*h*w, c.inChannels)
	out := flat.MatMul(c.weight.Tensor().T())
	if c.bias != nil {
		out = out.Add(c.bias.Tensor().Reshape(1, c.outChannels))
	}

	return out.Reshape(batch, h, w, c.outChannels).Transpose(0, 3, 1, 2)
}

// Parameters returns the trainable parameters of this layer.
func (c *PointConv2D[B]) Parameters() []*Parameter[B] {
	if c.bias != nil {
		return []*Parameter[B]{c.weight, c.bias}
	}
	return []*Parameter[B]{c.weight}
}
