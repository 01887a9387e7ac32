package cpu

import (
	"fmt"

	"github.com/pai-ml/painet/internal/parallel"
	"github.com/pai-ml/painet/internal/tensor"
)

// IndexSelect gathers slices of x along dim using a 1-D int64 index tensor,
// like torch.index_select. For dim=0 on a 2-D tensor this is the row lookup
// used to collect neighbor features from a flattened point buffer.
//
// Out-of-range indices panic: a bad neighbor index is a caller bug, not a
// recoverable condition.
func (cpu *CPUBackend) IndexSelect(x *tensor.RawTensor, dim int, index *tensor.RawTensor) *tensor.RawTensor {
	if index.DType() != tensor.Int64 {
		panic(fmt.Sprintf("indexselect: index tensor must have dtype int64, got %s", index.DType()))
	}
	if len(index.Shape()) != 1 {
		panic(fmt.Sprintf("indexselect: index tensor must be 1D, got shape %v", index.Shape()))
	}

	shape := x.Shape()
	dim = normalizeDim("indexselect", dim, len(shape))

	idx := index.AsInt64()
	outShape := shape.Clone()
	outShape[dim] = len(idx)

	result, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("indexselect: %v", err))
	}

	outer, axis, inner := axisSpans(shape, dim)
	for _, id := range idx {
		if id < 0 || id >= int64(axis) {
			panic(fmt.Sprintf("indexselect: index %d out of range for dimension of size %d", id, axis))
		}
	}

	switch x.DType() {
	case tensor.Float32:
		indexSelectTyped(result.AsFloat32(), x.AsFloat32(), idx, outer, axis, inner, cpu.par)
	case tensor.Int64:
		indexSelectTyped(result.AsInt64(), x.AsInt64(), idx, outer, axis, inner, cpu.par)
	default:
		panic(fmt.Sprintf("indexselect: unsupported dtype %s", x.DType()))
	}

	return result
}

func indexSelectTyped[T any](dst, src []T, idx []int64, outer, axis, inner int, par parallel.Config) {
	n := len(idx)
	parallel.For(outer*n, func(k int) {
		o := k / n
		j := k % n
		srcBase := (o*axis + int(idx[j])) * inner
		dstBase := (o*n + j) * inner
		copy(dst[dstBase:dstBase+inner], src[srcBase:srcBase+inner])
	}, par)
}

// TopK returns the k largest (or smallest) elements along dim, with their
// indices along that dimension.
//
// Selection is by repeated scan, so ties resolve to the lower index first;
// equal inputs therefore produce identical index tensors on every call.
// Panics if k exceeds the size of the selected dimension.
func (cpu *CPUBackend) TopK(x *tensor.RawTensor, k, dim int, largest bool) (*tensor.RawTensor, *tensor.RawTensor) {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("topk: unsupported dtype %s (only float32 supported)", x.DType()))
	}
	shape := x.Shape()
	dim = normalizeDim("topk", dim, len(shape))
	if k <= 0 || k > shape[dim] {
		panic(fmt.Sprintf("topk: k=%d out of range for dimension of size %d", k, shape[dim]))
	}

	outShape := shape.Clone()
	outShape[dim] = k

	values, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("topk: %v", err))
	}
	indices, err := tensor.NewRaw(outShape, tensor.Int64, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("topk: %v", err))
	}

	src := x.AsFloat32()
	vals := values.AsFloat32()
	idxs := indices.AsInt64()
	outer, axis, inner := axisSpans(shape, dim)

	parallel.For(outer*inner, func(oi int) {
		o := oi / inner
		in := oi % inner
		srcBase := o*axis*inner + in
		dstBase := o*k*inner + in

		taken := make([]bool, axis)
		for slot := 0; slot < k; slot++ {
			best := -1
			var bestVal float32
			for j := 0; j < axis; j++ {
				if taken[j] {
					continue
				}
				v := src[srcBase+j*inner]
				if best < 0 || (largest && v > bestVal) || (!largest && v < bestVal) {
					best = j
					bestVal = v
				}
			}
			taken[best] = true
			vals[dstBase+slot*inner] = bestVal
			idxs[dstBase+slot*inner] = int64(best)
		}
	}, cpu.par)

	return values, indices
}
