package tensor

// Cat concatenates tensors along the specified dimension.
// All tensors must have the same shape except along dim.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{2, 3}, backend)
//	b := tensor.Zeros[float32](Shape{2, 5}, backend)
//	c := tensor.Cat([]*Tensor[float32, B]{a, b}, 1) // Shape: [2, 8]
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("cat: empty tensor list")
	}
	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.raw
	}
	b := tensors[0].backend
	return New[T, B](b.Cat(raws, dim), b)
}

// Where selects elements from x where condition is true, from y otherwise.
// Shapes are broadcast to a common shape.
func Where[T DType, B Backend](condition *Tensor[bool, B], x, y *Tensor[T, B]) *Tensor[T, B] {
	b := x.backend
	return New[T, B](b.Where(condition.raw, x.raw, y.raw), b)
}
