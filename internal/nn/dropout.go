package nn

import (
	"fmt"
	"math/rand"

	"github.com/pai-ml/painet/internal/tensor"
)

// Dropout randomly zeroes elements with probability p during training and
// scales the survivors by 1/(1-p) so the expected activation is unchanged.
// In eval mode it is the identity.
type Dropout[B tensor.Backend] struct {
	p        float32
	training bool
	rng      *rand.Rand
}

// NewDropout creates a Dropout layer with drop probability p in [0, 1).
// The layer starts in eval mode.
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("NewDropout: probability must be in [0, 1), got %v", p))
	}
	return &Dropout[B]{
		p:   p,
		rng: rand.New(rand.NewSource(rand.Int63())),
	}
}

// SetTraining enables or disables dropping.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Forward applies inverted dropout in training mode and passes the input
// through unchanged in eval mode.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return input
	}

	out := input.Clone()
	data := out.Data()
	scale := 1 / (1 - d.p)
	for i := range data {
		if d.rng.Float32() < d.p {
			data[i] = 0
		} else {
			data[i] *= scale
		}
	}
	return out
}

// Parameters returns nil: dropout has no learnable state.
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}
