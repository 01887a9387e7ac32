package geom

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/pai-ml/painet/internal/parallel"
	"github.com/pai-ml/painet/internal/tensor"
)

// treePoint is a 3-D coordinate tagged with its position in the cloud.
type treePoint struct {
	x, y, z float64
	id      int64
}

func (p treePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(treePoint)
	switch d {
	case 0:
		return p.x - q.x
	case 1:
		return p.y - q.y
	default:
		return p.z - q.z
	}
}

func (p treePoint) Dims() int { return 3 }

func (p treePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(treePoint)
	dx, dy, dz := p.x-q.x, p.y-q.y, p.z-q.z
	return dx*dx + dy*dy + dz*dz
}

// treePoints satisfies kdtree.Interface for tree construction.
type treePoints []treePoint

func (p treePoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p treePoints) Len() int                              { return len(p) }
func (p treePoints) Pivot(d kdtree.Dim) int                { return plane{points: p, dim: d}.Pivot() }
func (p treePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane pivots treePoints on a single dimension.
type plane struct {
	points treePoints
	dim    kdtree.Dim
}

func (p plane) Len() int { return len(p.points) }
func (p plane) Less(i, j int) bool {
	switch p.dim {
	case 0:
		return p.points[i].x < p.points[j].x
	case 1:
		return p.points[i].y < p.points[j].y
	default:
		return p.points[i].z < p.points[j].z
	}
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

// KNNTree is the accelerated variant of KNN for raw 3-D coordinates. It
// builds a k-d tree per cloud and answers every point's query against it,
// trading the O(n^2) distance matrix for O(n log n) searches on large
// clouds. The contract is identical to KNN: output (batch, numPoints, k)
// with the point itself at position 0 and remaining neighbors ordered
// nearest first.
func KNNTree[B tensor.Backend](x *tensor.Tensor[float32, B], k int) *tensor.Tensor[int64, B] {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("KNNTree: expected 3D input [batch, 3, points], got shape %v", shape))
	}
	if shape[1] != 3 {
		panic(fmt.Sprintf("KNNTree: expected 3 coordinate channels, got %d", shape[1]))
	}
	batch, numPoints := shape[0], shape[2]
	if k < 1 || k > numPoints {
		panic(fmt.Sprintf("KNNTree: k must be in [1, %d], got %d", numPoints, k))
	}

	idx := tensor.Zeros[int64](tensor.Shape{batch, numPoints, k}, x.Backend())
	out := idx.Data()
	data := x.Data()

	parallel.For(batch, func(b int) {
		cloud := make(treePoints, numPoints)
		base := b * 3 * numPoints
		for i := 0; i < numPoints; i++ {
			cloud[i] = treePoint{
				x:  float64(data[base+i]),
				y:  float64(data[base+numPoints+i]),
				z:  float64(data[base+2*numPoints+i]),
				id: int64(i),
			}
		}

		// New clobbers the slice order, so queries go through a copy.
		queries := make(treePoints, numPoints)
		copy(queries, cloud)
		tree := kdtree.New(cloud, false)

		for i := 0; i < numPoints; i++ {
			keeper := kdtree.NewNKeeper(k)
			tree.NearestSet(keeper, queries[i])

			found := make([]treePoint, 0, k)
			dists := make([]float64, 0, k)
			for _, cd := range keeper.Heap {
				if cd.Comparable == nil {
					continue
				}
				found = append(found, cd.Comparable.(treePoint))
				dists = append(dists, cd.Dist)
			}
			order := make([]int, len(found))
			for j := range order {
				order[j] = j
			}
			sort.Slice(order, func(a, c int) bool {
				if dists[order[a]] != dists[order[c]] {
					return dists[order[a]] < dists[order[c]]
				}
				return found[order[a]].id < found[order[c]].id
			})

			row := out[(b*numPoints+i)*k : (b*numPoints+i+1)*k]
			for j, o := range order {
				row[j] = found[o].id
			}
		}
	}, parallel.DefaultConfig())

	forceSelfFirst(idx, batch, numPoints, k)
	return idx
}
