// Copyright 2025 The PaiNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural network building blocks used by the PaiNet
// models: dense and 1x1 convolution layers, batch normalization, dropout,
// activations and parameter management.
package nn

import (
	"github.com/pai-ml/painet/internal/nn"
	"github.com/pai-ml/painet/tensor"
)

// Module is the interface implemented by every layer.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a named trainable tensor with an optional gradient slot.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter wraps a tensor as a named parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Linear is a fully connected layer: y = x @ W.T + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a Linear layer with Xavier-initialized weights.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, useBias, backend)
}

// PointConv1D is a 1x1 convolution over (batch, channels, points).
type PointConv1D[B tensor.Backend] = nn.PointConv1D[B]

// NewPointConv1D creates a 1x1 convolution over the point dimension.
func NewPointConv1D[B tensor.Backend](inChannels, outChannels int, useBias bool, backend B) *PointConv1D[B] {
	return nn.NewPointConv1D(inChannels, outChannels, useBias, backend)
}

// PointConv2D is a 1x1 convolution over (batch, channels, h, w).
type PointConv2D[B tensor.Backend] = nn.PointConv2D[B]

// NewPointConv2D creates a 1x1 convolution over two trailing spatial dims.
func NewPointConv2D[B tensor.Backend](inChannels, outChannels int, useBias bool, backend B) *PointConv2D[B] {
	return nn.NewPointConv2D(inChannels, outChannels, useBias, backend)
}

// BatchNorm1D normalizes channels of 2D or 3D input by batch statistics.
type BatchNorm1D[B tensor.Backend] = nn.BatchNorm1D[B]

// NewBatchNorm1D creates a BatchNorm1D layer in eval mode.
func NewBatchNorm1D[B tensor.Backend](numFeatures int, backend B) *BatchNorm1D[B] {
	return nn.NewBatchNorm1D(numFeatures, backend)
}

// BatchNorm2D normalizes channels of 4D input by batch statistics.
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a BatchNorm2D layer in eval mode.
func NewBatchNorm2D[B tensor.Backend](numFeatures int, backend B) *BatchNorm2D[B] {
	return nn.NewBatchNorm2D(numFeatures, backend)
}

// Dropout zeroes elements with probability p during training.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a Dropout layer in eval mode.
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	return nn.NewDropout[B](p)
}

// Activation modules.
type (
	ReLU[B tensor.Backend]      = nn.ReLU[B]
	LeakyReLU[B tensor.Backend] = nn.LeakyReLU[B]
	GELU[B tensor.Backend]      = nn.GELU[B]
	Sigmoid[B tensor.Backend]   = nn.Sigmoid[B]
	Tanh[B tensor.Backend]      = nn.Tanh[B]
	Softmax[B tensor.Backend]   = nn.Softmax[B]
	Sparsemax[B tensor.Backend] = nn.Sparsemax[B]
)

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] { return nn.NewReLU[B]() }

// NewLeakyReLU creates a LeakyReLU module with the given negative slope.
func NewLeakyReLU[B tensor.Backend](negSlope float32) *LeakyReLU[B] {
	return nn.NewLeakyReLU[B](negSlope)
}

// NewGELU creates a GELU activation module.
func NewGELU[B tensor.Backend]() *GELU[B] { return nn.NewGELU[B]() }

// NewSigmoid creates a Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] { return nn.NewSigmoid[B]() }

// NewTanh creates a Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] { return nn.NewTanh[B]() }

// NewSoftmax creates a Softmax module over the given dimension.
func NewSoftmax[B tensor.Backend](dim int) *Softmax[B] { return nn.NewSoftmax[B](dim) }

// NewSparsemax creates a Sparsemax module over the given dimension.
func NewSparsemax[B tensor.Backend](dim int) *Sparsemax[B] { return nn.NewSparsemax[B](dim) }

// Xavier returns a Glorot-uniform initialized tensor.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}
