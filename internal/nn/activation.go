package nn

import (
	"github.com/pai-ml/painet/internal/tensor"
)

// ReLUBackend is an interface for backends that support ReLU activation.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// LeakyReLUBackend is an interface for backends that support leaky ReLU.
type LeakyReLUBackend interface {
	LeakyReLU(*tensor.RawTensor, float32) *tensor.RawTensor
}

// GELUBackend is an interface for backends that support GELU activation.
type GELUBackend interface {
	GELU(*tensor.RawTensor) *tensor.RawTensor
}

// SigmoidBackend is an interface for backends that support sigmoid activation.
type SigmoidBackend interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is an interface for backends that support tanh activation.
type TanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// SparsemaxBackend is an interface for backends that support the sparsemax
// projection onto the probability simplex.
type SparsemaxBackend interface {
	Sparsemax(*tensor.RawTensor, int) *tensor.RawTensor
}

// ReLU is a Rectified Linear Unit activation module.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if rb, ok := any(backend).(ReLUBackend); ok {
		return tensor.New[float32](rb.ReLU(input.Raw()), backend)
	}
	panic("ReLU: backend must implement ReLU operation")
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

// LeakyReLU is a leaky Rectified Linear Unit activation module, passing
// negative inputs through scaled by NegSlope instead of clamping them to
// zero.
type LeakyReLU[B tensor.Backend] struct {
	NegSlope float32
}

// NewLeakyReLU creates a LeakyReLU module with the given negative slope.
func NewLeakyReLU[B tensor.Backend](negSlope float32) *LeakyReLU[B] {
	return &LeakyReLU[B]{NegSlope: negSlope}
}

// Forward applies f(x) = x for x >= 0 and f(x) = NegSlope * x otherwise.
func (l *LeakyReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if lb, ok := any(backend).(LeakyReLUBackend); ok {
		return tensor.New[float32](lb.LeakyReLU(input.Raw(), l.NegSlope), backend)
	}
	panic("LeakyReLU: backend must implement LeakyReLU operation")
}

// Parameters returns an empty slice (LeakyReLU has no trainable parameters).
func (l *LeakyReLU[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

// GELU is a Gaussian Error Linear Unit activation module (tanh
// approximation).
type GELU[B tensor.Backend] struct{}

// NewGELU creates a new GELU activation module.
func NewGELU[B tensor.Backend]() *GELU[B] {
	return &GELU[B]{}
}

// Forward applies the GELU activation.
func (g *GELU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if gb, ok := any(backend).(GELUBackend); ok {
		return tensor.New[float32](gb.GELU(input.Raw()), backend)
	}
	panic("GELU: backend must implement GELU operation")
}

// Parameters returns an empty slice (GELU has no trainable parameters).
func (g *GELU[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

// Sigmoid is a logistic sigmoid activation module.
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies f(x) = 1 / (1 + exp(-x)).
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if sb, ok := any(backend).(SigmoidBackend); ok {
		return tensor.New[float32](sb.Sigmoid(input.Raw()), backend)
	}
	panic("Sigmoid: backend must implement Sigmoid operation")
}

// Parameters returns an empty slice (Sigmoid has no trainable parameters).
func (s *Sigmoid[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

// Tanh is a hyperbolic tangent activation module.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies f(x) = tanh(x).
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if tb, ok := any(backend).(TanhBackend); ok {
		return tensor.New[float32](tb.Tanh(input.Raw()), backend)
	}
	panic("Tanh: backend must implement Tanh operation")
}

// Parameters returns an empty slice (Tanh has no trainable parameters).
func (t *Tanh[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

// Softmax normalizes along Dim so values are positive and sum to one.
type Softmax[B tensor.Backend] struct {
	Dim int
}

// NewSoftmax creates a Softmax module over the given dimension.
func NewSoftmax[B tensor.Backend](dim int) *Softmax[B] {
	return &Softmax[B]{Dim: dim}
}

// Forward applies softmax along Dim.
func (s *Softmax[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Softmax(s.Dim)
}

// Parameters returns an empty slice (Softmax has no trainable parameters).
func (s *Softmax[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

// Sparsemax projects each slice along Dim onto the probability simplex,
// producing exact zeros for low-scoring entries where softmax would only
// approach zero.
type Sparsemax[B tensor.Backend] struct {
	Dim int
}

// NewSparsemax creates a Sparsemax module over the given dimension.
func NewSparsemax[B tensor.Backend](dim int) *Sparsemax[B] {
	return &Sparsemax[B]{Dim: dim}
}

// Forward applies sparsemax along Dim.
func (s *Sparsemax[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if sb, ok := any(backend).(SparsemaxBackend); ok {
		return tensor.New[float32](sb.Sparsemax(input.Raw(), s.Dim), backend)
	}
	panic("Sparsemax: backend must implement Sparsemax operation")
}

// Parameters returns an empty slice (Sparsemax has no trainable parameters).
func (s *Sparsemax[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}
