package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/pai-ml/painet/internal/tensor"
)

// MatMul performs 2-D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// The float32 kernel is gonum's SGEMM.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]

	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("matmul: unsupported dtypes %s @ %s", a.DType(), b.DType()))
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n}, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}

	sgemm(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n)

	return result
}

// sgemm computes C = A @ B for row-major float32 buffers via gonum BLAS.
func sgemm(c, a, b []float32, m, k, n int) {
	aMat := blas32.General{Rows: m, Cols: k, Stride: k, Data: a}
	bMat := blas32.General{Rows: k, Cols: n, Stride: n, Data: b}
	cMat := blas32.General{Rows: m, Cols: n, Stride: n, Data: c}
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, aMat, bMat, 0, cMat)
}
