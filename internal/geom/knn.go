package geom

import (
	"fmt"

	"github.com/pai-ml/painet/internal/tensor"
)

// KNN finds the k nearest neighbors of every point against its own cloud.
//
// The input is (batch, channels, numPoints); neighbors are ranked by squared
// euclidean distance in that channel space, so the same routine serves both
// coordinate-space and feature-space graphs. The result is an int64 tensor
// of shape (batch, numPoints, k) whose first column is always the point
// itself.
//
// The whole batch is resolved with three tensor ops: the squared distance
// matrix comes from the expansion 2*x_i.x_j - |x_i|^2 - |x_j|^2 (negated so
// that nearest means largest), then a single top-k pass per row.
func KNN[B tensor.Backend](x *tensor.Tensor[float32, B], k int) *tensor.Tensor[int64, B] {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("KNN: expected 3D input [batch, channels, points], got shape %v", shape))
	}
	batch, numPoints := shape[0], shape[2]
	if k < 1 || k > numPoints {
		panic(fmt.Sprintf("KNN: k must be in [1, %d], got %d", numPoints, k))
	}

	// inner[b][i][j] = x_i . x_j
	inner := x.Transpose(0, 2, 1).BatchMatMul(x)

	// xx[b][i] = |x_i|^2, broadcast as both a row and a column.
	xx := x.Mul(x).SumDim(1, false)
	xxCol := xx.Reshape(batch, numPoints, 1)
	xxRow := xx.Reshape(batch, 1, numPoints)

	negDist := inner.MulScalar(2).Sub(xxCol).Sub(xxRow)

	_, idx := negDist.TopK(k, 2, true)
	forceSelfFirst(idx, batch, numPoints, k)
	return idx
}

// forceSelfFirst rewrites each neighbor row so the point's own index sits at
// position 0. Duplicate points tie at distance zero and top-k breaks ties by
// index, so the self entry can land anywhere in the row or, with more than k
// duplicates, fall out of it entirely.
func forceSelfFirst[B tensor.Backend](idx *tensor.Tensor[int64, B], batch, numPoints, k int) {
	data := idx.Data()
	for b := 0; b < batch; b++ {
		for i := 0; i < numPoints; i++ {
			row := data[(b*numPoints+i)*k : (b*numPoints+i+1)*k]
			self := int64(i)
			if row[0] == self {
				continue
			}
			pos := -1
			for j := 1; j < k; j++ {
				if row[j] == self {
					pos = j
					break
				}
			}
			if pos < 0 {
				// Self was crowded out; evict the farthest neighbor.
				pos = k - 1
				row[pos] = self
			}
			copy(row[1:pos+1], row[:pos])
			row[0] = self
		}
	}
}
