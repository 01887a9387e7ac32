// Copyright 2025 The PaiNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package painet provides the public API for the point-cloud classifiers:
// PaiNet with position-adaptive convolution, plus the DGCNN and PointNet
// baselines.
//
// Example:
//
//	backend := cpu.New()
//	net, err := painet.NewPaiNet(painet.DefaultConfig(), backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logits := net.Forward(cloud) // cloud is (batch, 3, numPoints)
package painet

import (
	"github.com/pai-ml/painet/internal/painet"
	"github.com/pai-ml/painet/tensor"
)

// Config carries the hyperparameters shared by all models.
type Config = painet.Config

// DefaultConfig mirrors the standard ModelNet40 training setup.
func DefaultConfig() Config { return painet.DefaultConfig() }

// IndexBuilder derives a neighborhood index and assignment matrix from a
// point cloud.
type IndexBuilder[B tensor.Backend] = painet.IndexBuilder[B]

// Aggregator folds neighborhood features into per-point features.
type Aggregator[B tensor.Backend] = painet.Aggregator[B]

// AggregatorFactory builds one aggregation layer of the PaiNet backbone.
type AggregatorFactory[B tensor.Backend] = painet.AggregatorFactory[B]

// PaiIndexMatrix is the anchor-projection assignment builder.
type PaiIndexMatrix[B tensor.Backend] = painet.PaiIndexMatrix[B]

// IndexOption configures a PaiIndexMatrix.
type IndexOption[B tensor.Backend] = painet.IndexOption[B]

// NewPaiIndexMatrix creates the assignment builder for neighborhoods of
// size k over kernelSize anchors.
func NewPaiIndexMatrix[B tensor.Backend](k, kernelSize int, backend B, opts ...IndexOption[B]) *PaiIndexMatrix[B] {
	return painet.NewPaiIndexMatrix(k, kernelSize, backend, opts...)
}

// WithAdaptiveTemperature swaps the fixed sharpening pipeline for a
// learned softmax temperature.
func WithAdaptiveTemperature[B tensor.Backend](tempFactor float32) IndexOption[B] {
	return painet.WithAdaptiveTemperature[B](tempFactor)
}

// WithTreeSearch resolves neighborhoods through a k-d tree.
func WithTreeSearch[B tensor.Backend]() IndexOption[B] {
	return painet.WithTreeSearch[B]()
}

// PaiIndexMatrixLSA is the learned soft-assignment builder; it requires
// k == kernelSize.
type PaiIndexMatrixLSA[B tensor.Backend] = painet.PaiIndexMatrixLSA[B]

// NewPaiIndexMatrixLSA creates the learned assignment builder.
func NewPaiIndexMatrixLSA[B tensor.Backend](k, kernelSize int, backend B) *PaiIndexMatrixLSA[B] {
	return painet.NewPaiIndexMatrixLSA(k, kernelSize, backend)
}

// PaiConv is the dense-mixing aggregation layer.
type PaiConv[B tensor.Backend] = painet.PaiConv[B]

// NewPaiConv creates a PaiConv aggregator.
func NewPaiConv[B tensor.Backend](inChannels, outChannels, k, kernelSize int, useBias bool, backend B) *PaiConv[B] {
	return painet.NewPaiConv(inChannels, outChannels, k, kernelSize, useBias, backend)
}

// PaiConvDG is the edge-conv flavored aggregation layer.
type PaiConvDG[B tensor.Backend] = painet.PaiConvDG[B]

// NewPaiConvDG creates a PaiConvDG aggregator.
func NewPaiConvDG[B tensor.Backend](inChannels, outChannels, k, kernelSize int, useBias bool, backend B) *PaiConvDG[B] {
	return painet.NewPaiConvDG(inChannels, outChannels, k, kernelSize, useBias, backend)
}

// RandLAConv is the attentive pooling aggregation layer.
type RandLAConv[B tensor.Backend] = painet.RandLAConv[B]

// NewRandLAConv creates an attentive pooling aggregator.
func NewRandLAConv[B tensor.Backend](inChannels, outChannels, k int, useBias bool, backend B) *RandLAConv[B] {
	return painet.NewRandLAConv(inChannels, outChannels, k, useBias, backend)
}

// TransformNet predicts a rigid alignment rotation for an input cloud.
type TransformNet[B tensor.Backend] = painet.TransformNet[B]

// NewTransformNet creates the alignment head.
func NewTransformNet[B tensor.Backend](backend B) *TransformNet[B] {
	return painet.NewTransformNet(backend)
}

// GraphFeature builds (neighbor - point, point) edge features for dynamic
// graph convolution.
func GraphFeature[B tensor.Backend](x *tensor.Tensor[float32, B], k int, idx *tensor.Tensor[int64, B]) *tensor.Tensor[float32, B] {
	return painet.GraphFeature(x, k, idx)
}

// PaiNet is the position-adaptive classifier.
type PaiNet[B tensor.Backend] = painet.PaiNet[B]

// PaiNetOption configures a PaiNet.
type PaiNetOption[B tensor.Backend] = painet.PaiNetOption[B]

// NewPaiNet builds the classifier described by cfg.
func NewPaiNet[B tensor.Backend](cfg Config, backend B, opts ...PaiNetOption[B]) (*PaiNet[B], error) {
	return painet.NewPaiNet(cfg, backend, opts...)
}

// WithIndexBuilder replaces the default anchor-projection builder.
func WithIndexBuilder[B tensor.Backend](builder IndexBuilder[B]) PaiNetOption[B] {
	return painet.WithIndexBuilder(builder)
}

// WithAggregator replaces the default PaiConv factory for the backbone.
func WithAggregator[B tensor.Backend](factory AggregatorFactory[B]) PaiNetOption[B] {
	return painet.WithAggregator(factory)
}

// WithSpatialTransform prepends a learned rigid alignment of the input.
func WithSpatialTransform[B tensor.Backend]() PaiNetOption[B] {
	return painet.WithSpatialTransform[B]()
}

// DGCNN is the dynamic graph baseline classifier.
type DGCNN[B tensor.Backend] = painet.DGCNN[B]

// NewDGCNN builds the dynamic graph classifier described by cfg.
func NewDGCNN[B tensor.Backend](cfg Config, backend B) (*DGCNN[B], error) {
	return painet.NewDGCNN(cfg, backend)
}

// PointNet is the point-wise MLP baseline classifier.
type PointNet[B tensor.Backend] = painet.PointNet[B]

// NewPointNet builds the point-wise baseline described by cfg.
func NewPointNet[B tensor.Backend](cfg Config, backend B) (*PointNet[B], error) {
	return painet.NewPointNet(cfg, backend)
}
