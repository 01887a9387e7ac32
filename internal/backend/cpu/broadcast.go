package cpu

import (
	"github.com/pai-ml/painet/internal/tensor"
)

// broadcastStrides returns the effective strides of inShape when broadcast
// to outShape: dimensions of size 1 (or missing leading dimensions) get
// stride 0 so the same element is reused across that axis.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	inStrides := inShape.ComputeStrides()
	out := make([]int, len(outShape))

	offset := len(outShape) - len(inShape)
	for i := range outShape {
		j := i - offset
		if j < 0 || inShape[j] == 1 {
			out[i] = 0
		} else {
			out[i] = inStrides[j]
		}
	}
	return out
}

// broadcastOffset maps a flat output index to the flat input index under
// the given broadcast strides.
func broadcastOffset(outIdx int, outStrides, inStrides []int) int {
	offset := 0
	rem := outIdx
	for d := 0; d < len(outStrides); d++ {
		coord := rem / outStrides[d]
		rem %= outStrides[d]
		offset += coord * inStrides[d]
	}
	return offset
}

// broadcastBinary evaluates op element-wise over broadcast inputs.
func broadcastBinary[T any](out, a, b []T, outShape, aShape, bShape tensor.Shape, op func(x, y T) T) {
	// Fast path: identical shapes need no index translation.
	if aShape.Equal(bShape) {
		for i := range out {
			out[i] = op(a[i], b[i])
		}
		return
	}

	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	outStrides := outShape.ComputeStrides()
	for i := range out {
		out[i] = op(a[broadcastOffset(i, outStrides, aStrides)], b[broadcastOffset(i, outStrides, bStrides)])
	}
}
