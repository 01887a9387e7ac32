package painet

import (
	"fmt"
	"math"

	"github.com/pai-ml/painet/internal/nn"
	"github.com/pai-ml/painet/internal/tensor"
)

// TransformNet predicts a rigid rotation that aligns an input cloud before
// feature extraction. The final layer regresses two 3-vectors and
// orthonormalizes them with Gram-Schmidt, so the output is always a proper
// rotation matrix. Weights of that layer start at zero with an identity
// bias: an untrained net applies the identity rotation.
type TransformNet[B tensor.Backend] struct {
	conv1 *nn.PointConv2D[B]
	bn1   *nn.BatchNorm2D[B]
	conv2 *nn.PointConv2D[B]
	bn2   *nn.BatchNorm2D[B]
	conv3 *nn.PointConv1D[B]
	bn3   *nn.BatchNorm1D[B]

	linear1 *nn.Linear[B]
	bn4     *nn.BatchNorm1D[B]
	linear2 *nn.Linear[B]
	bn5     *nn.BatchNorm1D[B]
	out     *nn.Linear[B]

	act *nn.LeakyReLU[B]
}

// NewTransformNet creates the alignment head.
func NewTransformNet[B tensor.Backend](backend B) *TransformNet[B] {
	t := &TransformNet[B]{
		conv1:   nn.NewPointConv2D(6, 64, false, backend),
		bn1:     nn.NewBatchNorm2D(64, backend),
		conv2:   nn.NewPointConv2D(64, 128, false, backend),
		bn2:     nn.NewBatchNorm2D(128, backend),
		conv3:   nn.NewPointConv1D(128, 1024, false, backend),
		bn3:     nn.NewBatchNorm1D(1024, backend),
		linear1: nn.NewLinear(1024, 512, false, backend),
		bn4:     nn.NewBatchNorm1D(512, backend),
		linear2: nn.NewLinear(512, 256, false, backend),
		bn5:     nn.NewBatchNorm1D(256, backend),
		out:     nn.NewLinear(256, 6, true, backend),
		act:     nn.NewLeakyReLU[B](0.2),
	}

	// Identity start: zero weights, bias encodes the first two rows of I.
	w := t.out.Weight().Tensor().Data()
	for i := range w {
		w[i] = 0
	}
	copy(t.out.Bias().Tensor().Data(), []float32{1, 0, 0, 0, 1, 0})

	return t
}

// Forward maps edge features (batch, 6, numPoints, k) to rotation matrices
// (batch, 3, 3).
func (t *TransformNet[B]) Forward(edges *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := edges.Shape()
	if len(shape) != 4 || shape[1] != 6 {
		panic(fmt.Sprintf("TransformNet.Forward: expected [batch, 6, points, k] input, got shape %v", shape))
	}
	batch := shape[0]

	h := t.act.Forward(t.bn1.Forward(t.conv1.Forward(edges)))
	h = t.act.Forward(t.bn2.Forward(t.conv2.Forward(h)))
	h3 := h.MaxDim(3, false) // pool over neighbors

	h3 = t.act.Forward(t.bn3.Forward(t.conv3.Forward(h3)))
	g := h3.MaxDim(2, false) // pool over points

	g = t.act.Forward(t.bn4.Forward(t.linear1.Forward(g)))
	g = t.act.Forward(t.bn5.Forward(t.linear2.Forward(g)))

	return rotationFromOrtho6D(t.out.Forward(g), batch)
}

// rotationFromOrtho6D orthonormalizes (batch, 6) pose vectors into
// (batch, 3, 3) rotation matrices whose columns are the derived x, y, z
// axes.
func rotationFromOrtho6D[B tensor.Backend](poses *tensor.Tensor[float32, B], batch int) *tensor.Tensor[float32, B] {
	out := tensor.Zeros[float32](tensor.Shape{batch, 3, 3}, poses.Backend())
	src := poses.Data()
	dst := out.Data()

	for b := 0; b < batch; b++ {
		p := src[b*6 : b*6+6]
		x := normalize3([3]float32{p[0], p[1], p[2]})
		z := normalize3(cross3(x, [3]float32{p[3], p[4], p[5]}))
		y := cross3(z, x)

		m := dst[b*9 : b*9+9]
		for i := 0; i < 3; i++ {
			m[i*3+0] = x[i]
			m[i*3+1] = y[i]
			m[i*3+2] = z[i]
		}
	}
	return out
}

func cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize3(v [3]float32) [3]float32 {
	n := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if n < 1e-8 {
		return [3]float32{1, 0, 0}
	}
	return [3]float32{v[0] / n, v[1] / n, v[2] / n}
}

// SetTraining propagates the mode to all normalization layers.
func (t *TransformNet[B]) SetTraining(training bool) {
	t.bn1.SetTraining(training)
	t.bn2.SetTraining(training)
	t.bn3.SetTraining(training)
	t.bn4.SetTraining(training)
	t.bn5.SetTraining(training)
}

// Parameters returns all trainable parameters of the alignment head.
func (t *TransformNet[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, m := range []interface{ Parameters() []*nn.Parameter[B] }{
		t.conv1, t.bn1, t.conv2, t.bn2, t.conv3, t.bn3,
		t.linear1, t.bn4, t.linear2, t.bn5, t.out,
	} {
		params = append(params, m.Parameters()...)
	}
	return params
}
