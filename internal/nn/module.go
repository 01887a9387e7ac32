// Package nn implements neural network building blocks for the PaiNet core.
//
// This package provides:
//   - Module interface: base contract for all NN components
//   - Parameter: learnable tensors with a gradient slot for an external optimizer
//   - Layers: Linear, PointConv1D, PointConv2D, BatchNorm1D, Dropout
//   - Activations: ReLU, LeakyReLU, GELU, Sigmoid, Tanh, Softmax, Sparsemax
//   - Initialization: Xavier, Zeros, Ones, Randn
//
// Design follows the module-with-explicit-parameters convention: every layer
// exposes its learnable state through Parameters(), and forward passes never
// mutate shared inputs.
package nn

import (
	"github.com/pai-ml/painet/internal/tensor"
)

// Module is the base interface for single-input neural network components.
//
// Modules with richer forward signatures (e.g. neighborhood aggregators)
// define their own interfaces but still expose Parameters() so an external
// optimizer can reach every learnable tensor.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Modules without trainable
	// parameters return an empty slice.
	Parameters() []*Parameter[B]
}
