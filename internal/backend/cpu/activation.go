package cpu

import (
	"fmt"
	"math"
	"sort"

	"github.com/pai-ml/painet/internal/tensor"
)

// axisSpans decomposes a shape around dim into (outer, axis, inner) extents
// for strided iteration along one dimension.
func axisSpans(shape tensor.Shape, dim int) (outer, axis, inner int) {
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	axis = shape[dim]
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, axis, inner
}

func normalizeDim(name string, dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("%s: dimension %d out of range for %dD tensor", name, dim, ndim))
	}
	return dim
}

// Softmax applies a numerically stable softmax along the given dimension.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("softmax: unsupported dtype %s (only float32 supported)", x.DType()))
	}
	dim = normalizeDim("softmax", dim, len(x.Shape()))

	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("softmax: %v", err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	outer, axis, inner := axisSpans(x.Shape(), dim)

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*axis*inner + in

			maxVal := float32(math.Inf(-1))
			for j := 0; j < axis; j++ {
				if v := src[base+j*inner]; v > maxVal {
					maxVal = v
				}
			}

			var sum float32
			for j := 0; j < axis; j++ {
				e := float32(math.Exp(float64(src[base+j*inner] - maxVal)))
				dst[base+j*inner] = e
				sum += e
			}

			for j := 0; j < axis; j++ {
				dst[base+j*inner] /= sum
			}
		}
	}

	return result
}

// ReLU applies max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("relu", x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// LeakyReLU applies x for x > 0 and negSlope*x otherwise.
func (cpu *CPUBackend) LeakyReLU(x *tensor.RawTensor, negSlope float32) *tensor.RawTensor {
	return cpu.unaryFloat("leakyrelu", x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return negSlope * v
	})
}

// GELU applies the tanh approximation of the Gaussian error linear unit:
// 0.5 * x * (1 + tanh(sqrt(2/pi) * (x + 0.044715*x^3))).
func (cpu *CPUBackend) GELU(x *tensor.RawTensor) *tensor.RawTensor {
	sqrt2OverPi := float32(math.Sqrt(2.0 / math.Pi))
	return cpu.unaryFloat("gelu", x, func(v float32) float32 {
		inner := sqrt2OverPi * (v + 0.044715*v*v*v)
		return 0.5 * v * (1.0 + float32(math.Tanh(float64(inner))))
	})
}

// Sigmoid applies 1 / (1 + exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("sigmoid", x, func(v float32) float32 {
		return float32(1.0 / (1.0 + math.Exp(float64(-v))))
	})
}

// Tanh applies the hyperbolic tangent element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("tanh", x, func(v float32) float32 {
		return float32(math.Tanh(float64(v)))
	})
}

// Sparsemax projects each slice along dim onto the probability simplex
// (Martins & Astudillo, 2016). Unlike softmax the result can contain exact
// zeros, which is what makes it useful as a sparse routing activation.
func (cpu *CPUBackend) Sparsemax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("sparsemax: unsupported dtype %s (only float32 supported)", x.DType()))
	}
	dim = normalizeDim("sparsemax", dim, len(x.Shape()))

	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("sparsemax: %v", err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	outer, axis, inner := axisSpans(x.Shape(), dim)

	sorted := make([]float64, axis)
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*axis*inner + in

			for j := 0; j < axis; j++ {
				sorted[j] = float64(src[base+j*inner])
			}
			sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

			// Threshold tau comes from the largest support k with
			// 1 + k*z_(k) > cumsum_(k).
			var cumsum, tau float64
			for j := 0; j < axis; j++ {
				cumsum += sorted[j]
				if 1+float64(j+1)*sorted[j] > cumsum {
					tau = (cumsum - 1) / float64(j+1)
				}
			}

			for j := 0; j < axis; j++ {
				v := float64(src[base+j*inner]) - tau
				if v > 0 {
					dst[base+j*inner] = float32(v)
				} else {
					dst[base+j*inner] = 0
				}
			}
		}
	}

	return result
}
