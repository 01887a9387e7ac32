package painet

import (
	"fmt"

	"github.com/pai-ml/painet/internal/geom"
	"github.com/pai-ml/painet/internal/tensor"
)

// GraphFeature builds edge features for dynamic graph convolution: for each
// of a point's k neighbors it emits (neighbor - point, point), doubling the
// channel count. Input (batch, channels, numPoints) becomes
// (batch, 2*channels, numPoints, k).
//
// When idx is nil the graph is built from the input itself with KNN, which
// is what lets DGCNN rewire its graph in feature space at every layer.
func GraphFeature[B tensor.Backend](x *tensor.Tensor[float32, B], k int, idx *tensor.Tensor[int64, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("GraphFeature: expected 3D input [batch, channels, points], got shape %v", shape))
	}
	batch, channels, numPoints := shape[0], shape[1], shape[2]

	if idx == nil {
		idx = geom.KNN(x, k)
	}
	index := flattenIndex(idx, numPoints)

	table := x.Transpose(0, 2, 1).Reshape(batch*numPoints, channels)
	neighbors := table.IndexSelect(0, index).Reshape(batch, numPoints, k, channels)
	center := table.Reshape(batch, numPoints, 1, channels).Expand(batch, numPoints, k, channels)

	edges := tensor.Cat([]*tensor.Tensor[float32, B]{neighbors.Sub(center), center}, 3)
	return edges.Transpose(0, 3, 1, 2)
}
