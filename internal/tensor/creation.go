package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros[float32](Shape{2, 3}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
// Only works with numeric types.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		d := any(data).([]float32)
		for i := range d {
			d[i] = 1
		}
	case int64:
		d := any(data).([]int64)
		for i := range d {
			d[i] = 1
		}
	default:
		panic("Ones only supports numeric types")
	}
	return t
}

// Full creates a tensor filled with the given value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with random values from the standard normal
// distribution N(0, 1). Only works with float types.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)

	var dummy T
	switch any(dummy).(type) {
	case float32:
		data := any(t.Data()).([]float32)
		// Box-Muller transform
		for i := 0; i < len(data); i += 2 {
			u1 := rand.Float64() //nolint:gosec // G404: math/rand intentionally, not security-critical
			u2 := rand.Float64() //nolint:gosec // G404: math/rand intentionally, not security-critical
			z0 := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
			z1 := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)
			data[i] = float32(z0)
			if i+1 < len(data) {
				data[i+1] = float32(z1)
			}
		}
	default:
		panic("Randn only supports float32")
	}
	return t
}

// Rand creates a tensor with random values uniformly distributed in [0, 1).
// Only works with float types.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)

	var dummy T
	switch any(dummy).(type) {
	case float32:
		data := any(t.Data()).([]float32)
		for i := range data {
			data[i] = rand.Float32() //nolint:gosec // G404: math/rand intentionally, not security-critical
		}
	default:
		panic("Rand only supports float32")
	}
	return t
}

// Arange creates a 1-D tensor with values [start, start+1, ..., end-1].
//
// Example:
//
//	idx := tensor.Arange[int64](0, 8, backend) // Shape: [8]
func Arange[T DType, B Backend](start, end int, b B) *Tensor[T, B] {
	if end <= start {
		panic("Arange: end must be greater than start")
	}
	t := Zeros[T, B](Shape{end - start}, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		d := any(data).([]float32)
		for i := range d {
			d[i] = float32(start + i)
		}
	case int64:
		d := any(data).([]int64)
		for i := range d {
			d[i] = int64(start + i)
		}
	default:
		panic("Arange only supports numeric types")
	}
	return t
}

// Eye creates a 2-D identity matrix of size n×n.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		d := any(data).([]float32)
		for i := 0; i < n; i++ {
			d[i*n+i] = 1
		}
	case int64:
		d := any(data).([]int64)
		for i := 0; i < n; i++ {
			d[i*n+i] = 1
		}
	default:
		panic("Eye only supports numeric types")
	}
	return t
}
