package cpu

import (
	"fmt"

	"github.com/pai-ml/painet/internal/tensor"
)

// Cat concatenates tensors along the specified dimension.
// All inputs must share dtype and shape except along dim.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: empty tensor list")
	}

	first := tensors[0]
	ndim := len(first.Shape())
	dim = normalizeDim("cat", dim, ndim)

	catSize := 0
	for i, t := range tensors {
		if t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: dtype mismatch at input %d: %s vs %s", i, t.DType(), first.DType()))
		}
		shape := t.Shape()
		if len(shape) != ndim {
			panic(fmt.Sprintf("cat: rank mismatch at input %d: %dD vs %dD", i, len(shape), ndim))
		}
		for d := 0; d < ndim; d++ {
			if d != dim && shape[d] != first.Shape()[d] {
				panic(fmt.Sprintf("cat: shape mismatch at input %d dimension %d: %d vs %d",
					i, d, shape[d], first.Shape()[d]))
			}
		}
		catSize += shape[dim]
	}

	outShape := first.Shape().Clone()
	outShape[dim] = catSize

	result, err := tensor.NewRaw(outShape, first.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cat: %v", err))
	}

	// Copy per outer slice: for each input, its dim*inner block lands at a
	// running offset inside the output's catSize*inner block.
	outer, _, inner := axisSpans(outShape, dim)
	elemSize := first.DType().Size()
	outRow := catSize * inner * elemSize
	dst := result.Data()

	offset := 0
	for _, t := range tensors {
		blockLen := t.Shape()[dim] * inner * elemSize
		src := t.Data()
		for o := 0; o < outer; o++ {
			copy(dst[o*outRow+offset:o*outRow+offset+blockLen], src[o*blockLen:(o+1)*blockLen])
		}
		offset += blockLen
	}

	return result
}
