package painet

import (
	"math"

	"github.com/pai-ml/painet/internal/nn"
	"github.com/pai-ml/painet/internal/tensor"
)

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(float64(-x))))
}

// TemperatureNet predicts a per-neighborhood softmax temperature from the
// relative coordinates of its members. The output is squashed into
// (1/tempFactor, 0.1): tight clusters get a sharp assignment, spread-out
// neighborhoods a smooth one.
type TemperatureNet[B tensor.Backend] struct {
	tempFactor float32
	conv       *nn.PointConv1D[B]
	bn         *nn.BatchNorm1D[B]
	act        *nn.LeakyReLU[B]
	linear     *nn.Linear[B]
}

// NewTemperatureNet creates a TemperatureNet with a 64-wide hidden layer.
func NewTemperatureNet[B tensor.Backend](tempFactor float32, backend B) *TemperatureNet[B] {
	return &TemperatureNet[B]{
		tempFactor: tempFactor,
		conv:       nn.NewPointConv1D(3, 64, true, backend),
		bn:         nn.NewBatchNorm1D(64, backend),
		act:        nn.NewLeakyReLU[B](0.2),
		linear:     nn.NewLinear(64, 1, true, backend),
	}
}

// Forward maps relative neighborhoods (groups, k, 3) to temperatures of
// shape (groups, 1, 1) ready to broadcast over an assignment matrix.
func (t *TemperatureNet[B]) Forward(relative *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	groups := relative.Shape()[0]

	h := relative.Transpose(0, 2, 1) // (groups, 3, k)
	h = t.act.Forward(t.bn.Forward(t.conv.Forward(h)))
	h = h.MaxDim(2, false) // (groups, 64)

	logit := t.linear.Forward(h) // (groups, 1)

	out := logit.Clone()
	data := out.Data()
	low := 1 / t.tempFactor
	span := 0.1 - low
	for i, v := range data {
		data[i] = sigmoid(v)*span + low
	}
	return out.Reshape(groups, 1, 1)
}

// SetTraining propagates the mode to the normalization layer.
func (t *TemperatureNet[B]) SetTraining(training bool) {
	t.bn.SetTraining(training)
}

// Parameters returns the trainable parameters of the temperature head.
func (t *TemperatureNet[B]) Parameters() []*nn.Parameter[B] {
	params := t.conv.Parameters()
	params = append(params, t.bn.Parameters()...)
	params = append(params, t.linear.Parameters()...)
	return params
}
