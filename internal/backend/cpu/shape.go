package cpu

import (
	"fmt"

	"github.com/pai-ml/painet/internal/tensor"
)

// Reshape returns a view of the tensor under a new shape.
// The element count must be preserved; the buffer is shared, not copied.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}
	return t.WithShape(newShape)
}

// Transpose permutes the tensor's dimensions into a new contiguous tensor.
// If axes is empty, all dimensions are reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid axes %v for %dD tensor", axes, ndim))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(outShape, t.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	// Source strides, permuted into output dimension order.
	srcStrides := shape.ComputeStrides()
	permStrides := make([]int, ndim)
	for i, ax := range axes {
		permStrides[i] = srcStrides[ax]
	}
	outStrides := outShape.ComputeStrides()

	switch t.DType() {
	case tensor.Float32:
		permuteCopy(result.AsFloat32(), t.AsFloat32(), outStrides, permStrides)
	case tensor.Int64:
		permuteCopy(result.AsInt64(), t.AsInt64(), outStrides, permStrides)
	case tensor.Bool:
		permuteCopy(result.AsBool(), t.AsBool(), outStrides, permStrides)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}

	return result
}

// permuteCopy copies src into dst where dst is contiguous row-major and each
// dst index maps to a src offset through the permuted strides.
func permuteCopy[T any](dst, src []T, outStrides, permStrides []int) {
	for i := range dst {
		offset := 0
		rem := i
		for d := 0; d < len(outStrides); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			offset += coord * permStrides[d]
		}
		dst[i] = src[offset]
	}
}

// Expand materializes a broadcast of x to the given shape.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	outShape, _, err := tensor.BroadcastShapes(x.Shape(), shape)
	if err != nil || !outShape.Equal(shape) {
		panic(fmt.Sprintf("expand: cannot expand %v to %v", x.Shape(), shape))
	}

	result, errNew := tensor.NewRaw(shape, x.DType(), cpu.device)
	if errNew != nil {
		panic(fmt.Sprintf("expand: %v", errNew))
	}

	inStrides := broadcastStrides(x.Shape(), shape)
	outStrides := shape.ComputeStrides()

	switch x.DType() {
	case tensor.Float32:
		permuteCopy(result.AsFloat32(), x.AsFloat32(), outStrides, inStrides)
	case tensor.Int64:
		permuteCopy(result.AsInt64(), x.AsInt64(), outStrides, inStrides)
	case tensor.Bool:
		permuteCopy(result.AsBool(), x.AsBool(), outStrides, inStrides)
	default:
		panic(fmt.Sprintf("expand: unsupported dtype %s", x.DType()))
	}

	return result
}
