package cpu

import (
	"fmt"

	"github.com/pai-ml/painet/internal/parallel"
	"github.com/pai-ml/painet/internal/tensor"
)

// BatchMatMul performs batched matrix multiplication.
// The last two dimensions are treated as matrix dimensions; all leading
// dimensions are batch dimensions and must match.
//
// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
//
// Batches are dispatched across cores; each batch runs one SGEMM.
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()
	ndim := len(aShape)

	if ndim < 3 {
		panic(fmt.Sprintf("batchmatmul: inputs must be at least 3D, got %dD", ndim))
	}
	if len(bShape) != ndim {
		panic(fmt.Sprintf("batchmatmul: dimension mismatch, got %dD and %dD", ndim, len(bShape)))
	}
	for i := 0; i < ndim-2; i++ {
		if aShape[i] != bShape[i] {
			panic(fmt.Sprintf("batchmatmul: batch dimension mismatch at dim %d: %d vs %d", i, aShape[i], bShape[i]))
		}
	}

	m := aShape[ndim-2]
	k1 := aShape[ndim-1]
	k2 := bShape[ndim-2]
	n := bShape[ndim-1]

	if k1 != k2 {
		panic(fmt.Sprintf("batchmatmul: inner dimension mismatch: %d vs %d", k1, k2))
	}
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("batchmatmul: unsupported dtypes %s @ %s", a.DType(), b.DType()))
	}

	batchSize := 1
	for i := 0; i < ndim-2; i++ {
		batchSize *= aShape[i]
	}

	outShape := make(tensor.Shape, ndim)
	copy(outShape, aShape[:ndim-2])
	outShape[ndim-2] = m
	outShape[ndim-1] = n

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("batchmatmul: failed to create result tensor: %v", err))
	}

	av := a.AsFloat32()
	bv := b.AsFloat32()
	cv := result.AsFloat32()
	sizeA := m * k1
	sizeB := k1 * n
	sizeC := m * n

	parallel.For(batchSize, func(batch int) {
		sgemm(cv[batch*sizeC:(batch+1)*sizeC],
			av[batch*sizeA:(batch+1)*sizeA],
			bv[batch*sizeB:(batch+1)*sizeB],
			m, k1, n)
	}, cpu.par)

	return result
}
