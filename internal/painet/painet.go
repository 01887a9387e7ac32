package painet

import (
	"fmt"

	"github.com/pai-ml/painet/internal/nn"
	"github.com/pai-ml/painet/internal/tensor"
)

// AggregatorFactory builds one aggregation layer. PaiNet calls it four
// times with growing channel widths, so swapping the factory swaps the
// aggregation style of the whole backbone.
type AggregatorFactory[B tensor.Backend] func(inChannels, outChannels, k, kernelSize int, useBias bool, backend B) Aggregator[B]

// PaiNet is the position-adaptive classifier: one shared neighborhood
// index and permatrix feed four aggregation layers whose outputs are
// concatenated, embedded, globally pooled and classified.
type PaiNet[B tensor.Backend] struct {
	cfg     Config
	builder IndexBuilder[B]

	transform *TransformNet[B] // nil unless spatial alignment is enabled

	conv1, conv2, conv3, conv4 Aggregator[B]

	conv5 *nn.PointConv1D[B]
	bn5   *nn.BatchNorm1D[B]

	linear1 *nn.Linear[B]
	bn6     *nn.BatchNorm1D[B]
	dp1     *nn.Dropout[B]
	linear2 *nn.Linear[B]
	bn7     *nn.BatchNorm1D[B]
	dp2     *nn.Dropout[B]
	linear3 *nn.Linear[B]

	act     *nn.GELU[B]
	backend B
}

// PaiNetOption configures a PaiNet before its layers are built.
type PaiNetOption[B tensor.Backend] func(*paiNetSettings[B])

type paiNetSettings[B tensor.Backend] struct {
	builder   IndexBuilder[B]
	factory   AggregatorFactory[B]
	transform bool
}

// WithIndexBuilder replaces the default anchor-projection builder, e.g.
// with the learned soft-assignment variant.
func WithIndexBuilder[B tensor.Backend](builder IndexBuilder[B]) PaiNetOption[B] {
	return func(s *paiNetSettings[B]) {
		s.builder = builder
	}
}

// WithAggregator replaces the default PaiConv factory for all four
// backbone layers.
func WithAggregator[B tensor.Backend](factory AggregatorFactory[B]) PaiNetOption[B] {
	return func(s *paiNetSettings[B]) {
		s.factory = factory
	}
}

// WithSpatialTransform prepends a learned rigid alignment of the input
// cloud.
func WithSpatialTransform[B tensor.Backend]() PaiNetOption[B] {
	return func(s *paiNetSettings[B]) {
		s.transform = true
	}
}

// NewPaiNet builds the classifier described by cfg. The model starts in
// eval mode; call Train before fitting.
func NewPaiNet[B tensor.Backend](cfg Config, backend B, opts ...PaiNetOption[B]) (*PaiNet[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	settings := paiNetSettings[B]{}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.builder == nil {
		settings.builder = NewPaiIndexMatrix(cfg.K, cfg.KernelSize, backend)
	}
	if settings.factory == nil {
		settings.factory = func(in, out, k, kernelSize int, useBias bool, b B) Aggregator[B] {
			return NewPaiConv(in, out, k, kernelSize, useBias, b)
		}
	}

	net := &PaiNet[B]{
		cfg:     cfg,
		builder: settings.builder,
		conv1:   settings.factory(3, 64, cfg.K, cfg.KernelSize, true, backend),
		conv2:   settings.factory(64, 64, cfg.K, cfg.KernelSize, true, backend),
		conv3:   settings.factory(64, 128, cfg.K, cfg.KernelSize, true, backend),
		conv4:   settings.factory(128, 256, cfg.K, cfg.KernelSize, true, backend),
		conv5:   nn.NewPointConv1D(512, cfg.EmbDims, false, backend),
		bn5:     nn.NewBatchNorm1D(cfg.EmbDims, backend),
		linear1: nn.NewLinear(cfg.EmbDims*2, 512, false, backend),
		bn6:     nn.NewBatchNorm1D(512, backend),
		dp1:     nn.NewDropout[B](cfg.Dropout),
		linear2: nn.NewLinear(512, 256, true, backend),
		bn7:     nn.NewBatchNorm1D(256, backend),
		dp2:     nn.NewDropout[B](cfg.Dropout),
		linear3: nn.NewLinear(256, cfg.NumClasses, true, backend),
		act:     nn.NewGELU[B](),
		backend: backend,
	}
	if settings.transform {
		net.transform = NewTransformNet(backend)
	}
	return net, nil
}

// Forward classifies a (batch, 3, numPoints) cloud into
// (batch, numClasses) logits.
func (n *PaiNet[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 || shape[1] != 3 {
		panic(fmt.Sprintf("PaiNet.Forward: expected [batch, 3, points] input, got shape %v", shape))
	}
	batch := shape[0]

	if n.transform != nil {
		rot := n.transform.Forward(GraphFeature(x, n.cfg.K, nil))
		x = x.Transpose(0, 2, 1).BatchMatMul(rot).Transpose(0, 2, 1)
	}

	index, permatrix := n.builder.Build(x)

	x1 := n.act.Forward(n.conv1.Forward(x, index, permatrix))
	x2 := n.act.Forward(n.conv2.Forward(x1, index, permatrix))
	x3 := n.act.Forward(n.conv3.Forward(x2, index, permatrix))
	x4 := n.act.Forward(n.conv4.Forward(x3, index, permatrix))

	h := tensor.Cat([]*tensor.Tensor[float32, B]{x1, x2, x3, x4}, 1)
	h = n.act.Forward(n.bn5.Forward(n.conv5.Forward(h)))

	pooled := tensor.Cat([]*tensor.Tensor[float32, B]{
		h.MaxDim(2, false),
		h.MeanDim(2, false),
	}, 1)

	h = n.dp1.Forward(n.act.Forward(n.bn6.Forward(n.linear1.Forward(pooled))))
	h = n.dp2.Forward(n.act.Forward(n.bn7.Forward(n.linear2.Forward(h))))
	logits := n.linear3.Forward(h)

	if got := logits.Shape(); got[0] != batch || got[1] != n.cfg.NumClasses {
		panic(fmt.Sprintf("PaiNet.Forward: internal shape error, got %v", got))
	}
	return logits
}

// Train puts the network into training mode.
func (n *PaiNet[B]) Train() { n.setTraining(true) }

// Eval puts the network into inference mode.
func (n *PaiNet[B]) Eval() { n.setTraining(false) }

func (n *PaiNet[B]) setTraining(training bool) {
	n.builder.SetTraining(training)
	if n.transform != nil {
		n.transform.SetTraining(training)
	}
	for _, agg := range []Aggregator[B]{n.conv1, n.conv2, n.conv3, n.conv4} {
		agg.SetTraining(training)
	}
	n.bn5.SetTraining(training)
	n.bn6.SetTraining(training)
	n.bn7.SetTraining(training)
	n.dp1.SetTraining(training)
	n.dp2.SetTraining(training)
}

// Parameters returns every trainable parameter of the network.
func (n *PaiNet[B]) Parameters() []*nn.Parameter[B] {
	params := n.builder.Parameters()
	if n.transform != nil {
		params = append(params, n.transform.Parameters()...)
	}
	for _, agg := range []Aggregator[B]{n.conv1, n.conv2, n.conv3, n.conv4} {
		params = append(params, agg.Parameters()...)
	}
	for _, m := range []interface{ Parameters() []*nn.Parameter[B] }{
		n.conv5, n.bn5, n.linear1, n.bn6, n.linear2, n.bn7, n.linear3,
	} {
		params = append(params, m.Parameters()...)
	}
	return params
}
