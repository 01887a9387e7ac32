package painet

import (
	"fmt"

	"github.com/pai-ml/painet/internal/nn"
	"github.com/pai-ml/painet/internal/tensor"
)

// PointNet is the point-wise MLP baseline: no neighborhoods at all, just
// shared per-point transforms followed by global pooling.
type PointNet[B tensor.Backend] struct {
	cfg Config

	conv1 *nn.PointConv1D[B]
	bn1   *nn.BatchNorm1D[B]
	conv2 *nn.PointConv1D[B]
	bn2   *nn.BatchNorm1D[B]
	conv3 *nn.PointConv1D[B]
	bn3   *nn.BatchNorm1D[B]
	conv4 *nn.PointConv1D[B]
	bn4   *nn.BatchNorm1D[B]
	conv5 *nn.PointConv1D[B]
	bn5   *nn.BatchNorm1D[B]

	linear1 *nn.Linear[B]
	bn6     *nn.BatchNorm1D[B]
	dp1     *nn.Dropout[B]
	linear2 *nn.Linear[B]
	bn7     *nn.BatchNorm1D[B]
	dp2     *nn.Dropout[B]
	linear3 *nn.Linear[B]

	relu  *nn.ReLU[B]
	leaky *nn.LeakyReLU[B]
}

// NewPointNet builds the point-wise baseline described by cfg. The model
// starts in eval mode.
func NewPointNet[B tensor.Backend](cfg Config, backend B) (*PointNet[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &PointNet[B]{
		cfg:     cfg,
		conv1:   nn.NewPointConv1D(3, 64, false, backend),
		bn1:     nn.NewBatchNorm1D(64, backend),
		conv2:   nn.NewPointConv1D(64, 64, false, backend),
		bn2:     nn.NewBatchNorm1D(64, backend),
		conv3:   nn.NewPointConv1D(64, 64, false, backend),
		bn3:     nn.NewBatchNorm1D(64, backend),
		conv4:   nn.NewPointConv1D(64, 128, false, backend),
		bn4:     nn.NewBatchNorm1D(128, backend),
		conv5:   nn.NewPointConv1D(128, cfg.EmbDims, false, backend),
		bn5:     nn.NewBatchNorm1D(cfg.EmbDims, backend),
		linear1: nn.NewLinear(cfg.EmbDims*2, 512, false, backend),
		bn6:     nn.NewBatchNorm1D(512, backend),
		dp1:     nn.NewDropout[B](cfg.Dropout),
		linear2: nn.NewLinear(512, 256, true, backend),
		bn7:     nn.NewBatchNorm1D(256, backend),
		dp2:     nn.NewDropout[B](cfg.Dropout),
		linear3: nn.NewLinear(256, cfg.NumClasses, true, backend),
		relu:    nn.NewReLU[B](),
		leaky:   nn.NewLeakyReLU[B](0.2),
	}, nil
}

// Forward classifies a (batch, 3, numPoints) cloud into
// (batch, numClasses) logits.
func (n *PointNet[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 || shape[1] != 3 {
		panic(fmt.Sprintf("PointNet.Forward: expected [batch, 3, points] input, got shape %v", shape))
	}

	h := n.relu.Forward(n.bn1.Forward(n.conv1.Forward(x)))
	h = n.relu.Forward(n.bn2.Forward(n.conv2.Forward(h)))
	h = n.relu.Forward(n.bn3.Forward(n.conv3.Forward(h)))
	h = n.relu.Forward(n.bn4.Forward(n.conv4.Forward(h)))
	h = n.relu.Forward(n.bn5.Forward(n.conv5.Forward(h)))

	pooled := tensor.Cat([]*tensor.Tensor[float32, B]{
		h.MaxDim(2, false),
		h.MeanDim(2, false),
	}, 1)

	h = n.dp1.Forward(n.leaky.Forward(n.bn6.Forward(n.linear1.Forward(pooled))))
	h = n.dp2.Forward(n.leaky.Forward(n.bn7.Forward(n.linear2.Forward(h))))
	return n.linear3.Forward(h)
}

// Train puts the network into training mode.
func (n *PointNet[B]) Train() { n.setTraining(true) }

// Eval puts the network into inference mode.
func (n *PointNet[B]) Eval() { n.setTraining(false) }

func (n *PointNet[B]) setTraining(training bool) {
	n.bn1.SetTraining(training)
	n.bn2.SetTraining(training)
	n.bn3.SetTraining(training)
	n.bn4.SetTraining(training)
	n.bn5.SetTraining(training)
	n.bn6.SetTraining(training)
	n.bn7.SetTraining(training)
	n.dp1.SetTraining(training)
	n.dp2.SetTraining(training)
}

// Parameters returns every trainable parameter of the network.
func (n *PointNet[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, m := range []interface{ Parameters() []*nn.Parameter[B] }{
		n.conv1, n.bn1, n.conv2, n.bn2, n.conv3, n.bn3, n.conv4, n.bn4,
		n.conv5, n.bn5, n.linear1, n.bn6, n.linear2, n.bn7, n.linear3,
	} {
		params = append(params, m.Parameters()...)
	}
	return params
}
