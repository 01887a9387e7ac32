package nn

import (
	"fmt"

	"github.com/pai-ml/painet/internal/tensor"
)

// BatchNorm1D normalizes each channel by batch statistics.
//
// Accepts (batch, channels) or (batch, channels, numPoints) input. For 3-D
// input the statistics pool over both the batch and the point dimension.
//
// In training mode the forward pass uses the current batch's statistics and
// folds them into the running estimates; in eval mode it uses the running
// estimates only, so repeated eval calls are side-effect free.
type BatchNorm1D[B tensor.Backend] struct {
	numFeatures int
	gamma       *Parameter[B] // learnable scale [numFeatures]
	beta        *Parameter[B] // learnable shift [numFeatures]

	// Running statistics: updated during training, not learned.
	runningMean *tensor.Tensor[float32, B]
	runningVar  *tensor.Tensor[float32, B]

	epsilon  float32
	momentum float32
	training bool
	backend  B
}

// NewBatchNorm1D creates a BatchNorm1D layer with scale 1, shift 0, running
// mean 0 and running variance 1. The layer starts in eval mode.
func NewBatchNorm1D[B tensor.Backend](numFeatures int, backend B) *BatchNorm1D[B] {
	return &BatchNorm1D[B]{
		numFeatures: numFeatures,
		gamma:       NewParameter("gamma", Ones[B](tensor.Shape{numFeatures}, backend)),
		beta:        NewParameter("beta", Zeros[B](tensor.Shape{numFeatures}, backend)),
		runningMean: tensor.Zeros[float32](tensor.Shape{numFeatures}, backend),
		runningVar:  tensor.Ones[float32](tensor.Shape{numFeatures}, backend),
		epsilon:     1e-5,
		momentum:    0.1,
		backend:     backend,
	}
}

// SetTraining switches between batch statistics (true) and running
// statistics (false).
func (bn *BatchNorm1D[B]) SetTraining(training bool) {
	bn.training = training
}

// Forward normalizes the input per channel: gamma * (x - mean)/sqrt(var + eps) + beta.
func (bn *BatchNorm1D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 2 && len(shape) != 3 {
		panic(fmt.Sprintf("BatchNorm1D.Forward: expected 2D or 3D input, got shape %v", shape))
	}
	if shape[1] != bn.numFeatures {
		panic(fmt.Sprintf("BatchNorm1D.Forward: expected %d channels, got %d", bn.numFeatures, shape[1]))
	}

	var mean, variance *tensor.Tensor[float32, B]
	if bn.training {
		mean, variance = bn.batchStats(input)
		bn.updateRunning(mean, variance)
	} else {
		mean = bn.runningMean
		variance = bn.runningVar
	}

	// Reshape per-channel vectors for broadcasting against the input.
	var statShape tensor.Shape
	if len(shape) == 2 {
		statShape = tensor.Shape{1, bn.numFeatures}
	} else {
		statShape = tensor.Shape{1, bn.numFeatures, 1}
	}

	meanB := mean.Reshape(statShape...)
	stdB := variance.AddScalar(bn.epsilon).Sqrt().Reshape(statShape...)
	gammaB := bn.gamma.Tensor().Reshape(statShape...)
	betaB := bn.beta.Tensor().Reshape(statShape...)

	return input.Sub(meanB).Div(stdB).Mul(gammaB).Add(betaB)
}

// batchStats computes the per-channel mean and (biased) variance over the
// batch dimension, and over the point dimension for 3-D input.
func (bn *BatchNorm1D[B]) batchStats(input *tensor.Tensor[float32, B]) (mean, variance *tensor.Tensor[float32, B]) {
	if len(input.Shape()) == 2 {
		mean = input.MeanDim(0, false)
		centered := input.Sub(mean.Reshape(1, bn.numFeatures))
		variance = centered.Mul(centered).MeanDim(0, false)
		return mean, variance
	}

	mean = input.MeanDim(2, false).MeanDim(0, false)
	centered := input.Sub(mean.Reshape(1, bn.numFeatures, 1))
	variance = centered.Mul(centered).MeanDim(2, false).MeanDim(0, false)
	return mean, variance
}

// updateRunning folds batch statistics into the running estimates:
// running = (1 - momentum)*running + momentum*batch.
func (bn *BatchNorm1D[B]) updateRunning(mean, variance *tensor.Tensor[float32, B]) {
	rm := bn.runningMean.Data()
	rv := bn.runningVar.Data()
	m := mean.Data()
	v := variance.Data()
	for i := range rm {
		rm[i] = (1-bn.momentum)*rm[i] + bn.momentum*m[i]
		rv[i] = (1-bn.momentum)*rv[i] + bn.momentum*v[i]
	}
}

// Parameters returns gamma and beta. Running statistics are excluded: they
// are state, not optimizable weights.
func (bn *BatchNorm1D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.gamma, bn.beta}
}

// RunningMean returns the running mean estimate.
func (bn *BatchNorm1D[B]) RunningMean() *tensor.Tensor[float32, B] {
	return bn.runningMean
}

// RunningVar returns the running variance estimate.
func (bn *BatchNorm1D[B]) RunningVar() *tensor.Tensor[float32, B] {
	return bn.runningVar
}

// BatchNorm2D normalizes each channel of a (batch, channels, h, w) tensor,
// pooling statistics over the batch and both trailing dims. Train and eval
// behavior mirror BatchNorm1D.
type BatchNorm2D[B tensor.Backend] struct {
	numFeatures int
	gamma       *Parameter[B]
	beta        *Parameter[B]

	runningMean *tensor.Tensor[float32, B]
	runningVar  *tensor.Tensor[float32, B]

	epsilon  float32
	momentum float32
	training bool
	backend  B
}

// NewBatchNorm2D creates a BatchNorm2D layer in eval mode.
func NewBatchNorm2D[B tensor.Backend](numFeatures int, backend B) *BatchNorm2D[B] {
	return &BatchNorm2D[B]{
		numFeatures: numFeatures,
		gamma:       NewParameter("gamma", Ones[B](tensor.Shape{numFeatures}, backend)),
		beta:        NewParameter("beta", Zeros[B](tensor.Shape{numFeatures}, backend)),
		runningMean: tensor.Zeros[float32](tensor.Shape{numFeatures}, backend),
		runningVar:  tensor.Ones[float32](tensor.Shape{numFeatures}, backend),
		epsilon:     1e-5,
		momentum:    0.1,
		backend:     backend,
	}
}

// SetTraining switches between batch statistics (true) and running
// statistics (false).
func (bn *BatchNorm2D[B]) SetTraining(training bool) {
	bn.training = training
}

// Forward normalizes a (batch, channels, h, w) input per channel.
func (bn *BatchNorm2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("BatchNorm2D.Forward: expected 4D input, got shape %v", shape))
	}
	if shape[1] != bn.numFeatures {
		panic(fmt.Sprintf("BatchNorm2D.Forward: expected %d channels, got %d", bn.numFeatures, shape[1]))
	}

	var mean, variance *tensor.Tensor[float32, B]
	if bn.training {
		mean = input.MeanDim(3, false).MeanDim(2, false).MeanDim(0, false)
		centered := input.Sub(mean.Reshape(1, bn.numFeatures, 1, 1))
		variance = centered.Mul(centered).MeanDim(3, false).MeanDim(2, false).MeanDim(0, false)

		rm := bn.runningMean.Data()
		rv := bn.runningVar.Data()
		m := mean.Data()
		v := variance.Data()
		for i := range rm {
			rm[i] = (1-bn.momentum)*rm[i] + bn.momentum*m[i]
			rv[i] = (1-bn.momentum)*rv[i] + bn.momentum*v[i]
		}
	} else {
		mean = bn.runningMean
		variance = bn.runningVar
	}

	statShape := tensor.Shape{1, bn.numFeatures, 1, 1}
	meanB := mean.Reshape(statShape...)
	stdB := variance.AddScalar(bn.epsilon).Sqrt().Reshape(statShape...)
	gammaB := bn.gamma.Tensor().Reshape(statShape...)
	betaB := bn.beta.Tensor().Reshape(statShape...)

	return input.Sub(meanB).Div(stdB).Mul(gammaB).Add(betaB)
}

// Parameters returns gamma and beta.
func (bn *BatchNorm2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.gamma, bn.beta}
}
