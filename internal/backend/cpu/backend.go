// Package cpu implements the tensor.Backend interface in pure Go,
// delegating the dense matrix kernels to gonum's float32 BLAS.
package cpu

import (
	"fmt"

	"github.com/pai-ml/painet/internal/parallel"
	"github.com/pai-ml/painet/internal/tensor"
)

// CPUBackend computes tensor operations on the host CPU.
// Batch-level loops are parallelized across cores according to par.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend with default parallelism.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "cpu"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// number covers the dtypes element-wise arithmetic is defined for.
type number interface {
	~float32 | ~int64
}

// Add performs element-wise addition with broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y int64) int64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y int64) int64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y int64) int64 { return x * y })
}

// Div performs element-wise division with broadcasting.
// Division by zero follows IEEE semantics for float32 (Inf/NaN).
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y int64) int64 { return x / y })
}

// binaryOp dispatches an element-wise binary operation by dtype.
func (cpu *CPUBackend) binaryOp(name string, a, b *tensor.RawTensor,
	f32 func(x, y float32) float32, i64 func(x, y int64) int64,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType()))
	}

	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch a.DType() {
	case tensor.Float32:
		broadcastBinary(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outShape, a.Shape(), b.Shape(), f32)
	case tensor.Int64:
		broadcastBinary(result.AsInt64(), a.AsInt64(), b.AsInt64(), outShape, a.Shape(), b.Shape(), i64)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

// Greater compares element-wise with broadcasting: out[i] = a[i] > b[i].
func (cpu *CPUBackend) Greater(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("greater: unsupported dtypes %s vs %s", a.DType(), b.DType()))
	}

	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("greater: %v", err))
	}

	result, err := tensor.NewRaw(outShape, tensor.Bool, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("greater: %v", err))
	}

	out := result.AsBool()
	av := a.AsFloat32()
	bv := b.AsFloat32()
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	outStrides := outShape.ComputeStrides()
	for i := range out {
		out[i] = av[broadcastOffset(i, outStrides, aStrides)] > bv[broadcastOffset(i, outStrides, bStrides)]
	}

	return result
}

// Where selects x where condition is true, y otherwise, with broadcasting.
func (cpu *CPUBackend) Where(condition, x, y *tensor.RawTensor) *tensor.RawTensor {
	if condition.DType() != tensor.Bool {
		panic(fmt.Sprintf("where: condition must be bool, got %s", condition.DType()))
	}
	if x.DType() != y.DType() {
		panic(fmt.Sprintf("where: dtype mismatch: %s vs %s", x.DType(), y.DType()))
	}

	outShape, _, err := tensor.BroadcastShapes(condition.Shape(), x.Shape())
	if err != nil {
		panic(fmt.Sprintf("where: %v", err))
	}
	outShape, _, err = tensor.BroadcastShapes(outShape, y.Shape())
	if err != nil {
		panic(fmt.Sprintf("where: %v", err))
	}

	result, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("where: %v", err))
	}

	cond := condition.AsBool()
	condStrides := broadcastStrides(condition.Shape(), outShape)
	outStrides := outShape.ComputeStrides()

	switch x.DType() {
	case tensor.Float32:
		whereTyped(result.AsFloat32(), cond, x.AsFloat32(), y.AsFloat32(),
			condStrides, broadcastStrides(x.Shape(), outShape), broadcastStrides(y.Shape(), outShape), outStrides)
	case tensor.Int64:
		whereTyped(result.AsInt64(), cond, x.AsInt64(), y.AsInt64(),
			condStrides, broadcastStrides(x.Shape(), outShape), broadcastStrides(y.Shape(), outShape), outStrides)
	default:
		panic(fmt.Sprintf("where: unsupported dtype %s", x.DType()))
	}

	return result
}

func whereTyped[T number](out []T, cond []bool, x, y []T, condStrides, xStrides, yStrides, outStrides []int) {
	for i := range out {
		if cond[broadcastOffset(i, outStrides, condStrides)] {
			out[i] = x[broadcastOffset(i, outStrides, xStrides)]
		} else {
			out[i] = y[broadcastOffset(i, outStrides, yStrides)]
		}
	}
}
