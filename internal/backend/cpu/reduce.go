package cpu

import (
	"fmt"
	"math"

	"github.com/pai-ml/painet/internal/tensor"
)

// reducedShape computes the output shape for a reduction along dim.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = tensor.Shape{1}
	}
	return out
}

// SumDim sums tensor elements along the specified dimension.
//
// Parameters:
//   - dim: dimension to reduce (supports negative indexing: -1 = last dim)
//   - keepDim: if true, keep the reduced dimension with size 1
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("sumdim", x, dim, keepDim,
		func(acc, v float32) float32 { return acc + v }, 0)
}

// MeanDim computes the mean of tensor elements along the specified dimension.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	d := normalizeDim("meandim", dim, len(shape))
	result := cpu.SumDim(x, dim, keepDim)

	divisor := float32(shape[d])
	data := result.AsFloat32()
	for i := range data {
		data[i] /= divisor
	}
	return result
}

// MaxDim takes the maximum of tensor elements along the specified dimension.
func (cpu *CPUBackend) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("maxdim", x, dim, keepDim,
		func(acc, v float32) float32 {
			if v > acc {
				return v
			}
			return acc
		}, float32(math.Inf(-1)))
}

func (cpu *CPUBackend) reduceDim(name string, x *tensor.RawTensor, dim int, keepDim bool,
	combine func(acc, v float32) float32, init float32,
) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32 supported)", name, x.DType()))
	}
	shape := x.Shape()
	dim = normalizeDim(name, dim, len(shape))

	result, err := tensor.NewRaw(reducedShape(shape, dim, keepDim), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	outer, axis, inner := axisSpans(shape, dim)

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			acc := init
			base := o*axis*inner + in
			for j := 0; j < axis; j++ {
				acc = combine(acc, src[base+j*inner])
			}
			dst[o*inner+in] = acc
		}
	}

	return result
}
