package painet

import (
	"fmt"

	"github.com/pai-ml/painet/internal/nn"
	"github.com/pai-ml/painet/internal/tensor"
)

// DGCNN is the dynamic graph baseline: every layer rebuilds its k-NN graph
// in the current feature space, convolves edge features and max-pools over
// neighbors.
type DGCNN[B tensor.Backend] struct {
	cfg Config

	conv1 *nn.PointConv2D[B]
	bn1   *nn.BatchNorm2D[B]
	conv2 *nn.PointConv2D[B]
	bn2   *nn.BatchNorm2D[B]
	conv3 *nn.PointConv2D[B]
	bn3   *nn.BatchNorm2D[B]
	conv4 *nn.PointConv2D[B]
	bn4   *nn.BatchNorm2D[B]

	conv5 *nn.PointConv1D[B]
	bn5   *nn.BatchNorm1D[B]

	linear1 *nn.Linear[B]
	bn6     *nn.BatchNorm1D[B]
	dp1     *nn.Dropout[B]
	linear2 *nn.Linear[B]
	bn7     *nn.BatchNorm1D[B]
	dp2     *nn.Dropout[B]
	linear3 *nn.Linear[B]

	act *nn.LeakyReLU[B]
}

// NewDGCNN builds the dynamic graph classifier described by cfg. The model
// starts in eval mode.
func NewDGCNN[B tensor.Backend](cfg Config, backend B) (*DGCNN[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &DGCNN[B]{
		cfg:     cfg,
		conv1:   nn.NewPointConv2D(6, 64, false, backend),
		bn1:     nn.NewBatchNorm2D(64, backend),
		conv2:   nn.NewPointConv2D(128, 64, false, backend),
		bn2:     nn.NewBatchNorm2D(64, backend),
		conv3:   nn.NewPointConv2D(128, 128, false, backend),
		bn3:     nn.NewBatchNorm2D(128, backend),
		conv4:   nn.NewPointConv2D(256, 256, false, backend),
		bn4:     nn.NewBatchNorm2D(256, backend),
		conv5:   nn.NewPointConv1D(512, cfg.EmbDims, false, backend),
		bn5:     nn.NewBatchNorm1D(cfg.EmbDims, backend),
		linear1: nn.NewLinear(cfg.EmbDims*2, 512, false, backend),
		bn6:     nn.NewBatchNorm1D(512, backend),
		dp1:     nn.NewDropout[B](cfg.Dropout),
		linear2: nn.NewLinear(512, 256, true, backend),
		bn7:     nn.NewBatchNorm1D(256, backend),
		dp2:     nn.NewDropout[B](cfg.Dropout),
		linear3: nn.NewLinear(256, cfg.NumClasses, true, backend),
		act:     nn.NewLeakyReLU[B](0.2),
	}, nil
}

// edgeBlock rebuilds the graph on x, convolves edge features and pools over
// neighbors.
func (n *DGCNN[B]) edgeBlock(x *tensor.Tensor[float32, B], conv *nn.PointConv2D[B], bn *nn.BatchNorm2D[B]) *tensor.Tensor[float32, B] {
	edges := GraphFeature(x, n.cfg.K, nil)
	h := n.act.Forward(bn.Forward(conv.Forward(edges)))
	return h.MaxDim(3, false)
}

// Forward classifies a (batch, 3, numPoints) cloud into
// (batch, numClasses) logits.
func (n *DGCNN[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 || shape[1] != 3 {
		panic(fmt.Sprintf("DGCNN.Forward: expected [batch, 3, points] input, got shape %v", shape))
	}

	x1 := n.edgeBlock(x, n.conv1, n.bn1)
	x2 := n.edgeBlock(x1, n.conv2, n.bn2)
	x3 := n.edgeBlock(x2, n.conv3, n.bn3)
	x4 := n.edgeBlock(x3, n.conv4, n.bn4)

	h := tensor.Cat([]*tensor.Tensor[float32, B]{x1, x2, x3, x4}, 1)
	h = n.act.Forward(n.bn5.Forward(n.conv5.Forward(h)))

	pooled := tensor.Cat([]*tensor.Tensor[float32, B]{
		h.MaxDim(2, false),
		h.MeanDim(2, false),
	}, 1)

	h = n.dp1.Forward(n.act.Forward(n.bn6.Forward(n.linear1.Forward(pooled))))
	h = n.dp2.Forward(n.act.Forward(n.bn7.Forward(n.linear2.Forward(h))))
	return n.linear3.Forward(h)
}

// Train puts the network into training mode.
func (n *DGCNN[B]) Train() { n.setTraining(true) }

// Eval puts the network into inference mode.
func (n *DGCNN[B]) Eval() { n.setTraining(false) }

func (n *DGCNN[B]) setTraining(training bool) {
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
func (n *DGCNN[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, m := range []interface{ Parameters() []*nn.Parameter[B] }{
		n.conv1, n.bn1, n.conv2, n.bn2, n.conv3, n.bn3, n.conv4, n.bn4,
		n.conv5, n.bn5, n.linear1, n.bn6, n.linear2, n.bn7, n.linear3,
	} {
		params = append(params, m.Parameters()...)
	}
	return params
}
