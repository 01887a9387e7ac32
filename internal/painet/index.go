package painet

import (
	"github.com/pai-ml/painet/internal/nn"
	"github.com/pai-ml/painet/internal/tensor"
)

// IndexBuilder derives a neighborhood index and a soft-assignment matrix
// from raw coordinates. The index is a flat int64 tensor of length
// batch*numPoints*k addressing rows of the (batch*numPoints, channels)
// feature table; the permatrix is (batch*numPoints, k, kernelSize) or
// (batch*numPoints, kernelSize, kernelSize) depending on the builder.
//
// Both outputs depend only on coordinates, so they are computed once per
// cloud and shared by every aggregation layer in the network.
type IndexBuilder[B tensor.Backend] interface {
	Build(x *tensor.Tensor[float32, B]) (index *tensor.Tensor[int64, B], permatrix *tensor.Tensor[float32, B])
	SetTraining(training bool)
	Parameters() []*nn.Parameter[B]
}

// flattenIndex converts per-cloud neighbor indices (batch, numPoints, k)
// into flat row offsets into the stacked (batch*numPoints, channels) table:
// entry (b, i, j) becomes idx + b*numPoints.
func flattenIndex[B tensor.Backend](idx *tensor.Tensor[int64, B], numPoints int) *tensor.Tensor[int64, B] {
	shape := idx.Shape()
	batch, k := shape[0], shape[2]

	flat := idx.Clone().Reshape(batch * numPoints * k)
	data := flat.Data()
	perBatch := numPoints * k
	for b := 0; b < batch; b++ {
		base := int64(b * numPoints)
		row := data[b*perBatch : (b+1)*perBatch]
		for i := range row {
			row[i] += base
		}
	}
	return flat
}

// gatherNeighbors turns (batch, channels, numPoints) features and a flat
// neighbor index into per-point neighborhood stacks of shape
// (batch*numPoints, k, channels). Row 0 of every stack is the point itself.
func gatherNeighbors[B tensor.Backend](x *tensor.Tensor[float32, B], index *tensor.Tensor[int64, B], k int) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	batch, channels, numPoints := shape[0], shape[1], shape[2]

	table := x.Transpose(0, 2, 1).Reshape(batch*numPoints, channels)
	return table.IndexSelect(0, index).Reshape(batch*numPoints, k, channels)
}
