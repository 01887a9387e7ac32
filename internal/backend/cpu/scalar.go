package cpu

import (
	"fmt"

	"github.com/pai-ml/painet/internal/tensor"
)

// Scalar operations: element-wise operations between a tensor and a scalar.

// MulScalar multiplies each element of the tensor by a scalar value.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("mulScalar", x, scalar,
		func(v, s float32) float32 { return v * s },
		func(v, s int64) int64 { return v * s })
}

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("addScalar", x, scalar,
		func(v, s float32) float32 { return v + s },
		func(v, s int64) int64 { return v + s })
}

// DivScalar divides each element of the tensor by a scalar value.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("divScalar", x, scalar,
		func(v, s float32) float32 { return v / s },
		func(v, s int64) int64 { return v / s })
}

func (cpu *CPUBackend) scalarOp(name string, x *tensor.RawTensor, scalar any,
	f32 func(v, s float32) float32, i64 func(v, s int64) int64,
) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		s, ok := scalar.(float32)
		if !ok {
			panic(fmt.Sprintf("%s: scalar type %T does not match tensor dtype float32", name, scalar))
		}
		src := x.AsFloat32()
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = f32(v, s)
		}
	case tensor.Int64:
		s, ok := scalar.(int64)
		if !ok {
			panic(fmt.Sprintf("%s: scalar type %T does not match tensor dtype int64", name, scalar))
		}
		src := x.AsInt64()
		dst := result.AsInt64()
		for i, v := range src {
			dst[i] = i64(v, s)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}
