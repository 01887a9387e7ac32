package cpu

import (
	"fmt"
	"math"

	"github.com/pai-ml/painet/internal/tensor"
)

// Exp computes element-wise exponential: exp(x).
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("exp", x, func(v float32) float32 {
		return float32(math.Exp(float64(v)))
	})
}

// Sqrt computes element-wise square root.
// Negative inputs produce NaN, following IEEE semantics.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("sqrt", x, func(v float32) float32 {
		return float32(math.Sqrt(float64(v)))
	})
}

// Cos computes element-wise cosine.
func (cpu *CPUBackend) Cos(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("cos", x, func(v float32) float32 {
		return float32(math.Cos(float64(v)))
	})
}

// Sin computes element-wise sine.
func (cpu *CPUBackend) Sin(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("sin", x, func(v float32) float32 {
		return float32(math.Sin(float64(v)))
	})
}

// unaryFloat applies f element-wise to a float32 tensor.
func (cpu *CPUBackend) unaryFloat(name string, x *tensor.RawTensor, f func(v float32) float32) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32 supported)", name, x.DType()))
	}

	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	for i, v := range src {
		dst[i] = f(v)
	}

	return result
}
