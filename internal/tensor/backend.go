package tensor

// Backend defines the interface that compute backends must implement.
// Backends handle the actual computation for tensor operations; the
// operation set is scoped to what the point-cloud model family needs.
//
// Implementations:
//   - CPU: pure Go with gonum BLAS for the matrix kernels
type Backend interface {
	// Element-wise binary operations (NumPy-style broadcasting)
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// BatchMatMul performs batched matrix multiplication for 3D/4D tensors.
	// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor
	DivScalar(x *RawTensor, scalar any) *RawTensor

	// Math operations (element-wise)
	Exp(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Cos(x *RawTensor) *RawTensor
	Sin(x *RawTensor) *RawTensor

	// Activation functions
	Softmax(x *RawTensor, dim int) *RawTensor

	// Comparison operations (element-wise, return bool tensor)
	Greater(a, b *RawTensor) *RawTensor

	// Reduction operations
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MaxDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Manipulation operations
	Cat(tensors []*RawTensor, dim int) *RawTensor

	// Indexing operations
	IndexSelect(x *RawTensor, dim int, index *RawTensor) *RawTensor
	TopK(x *RawTensor, k, dim int, largest bool) (values, indices *RawTensor)
	Where(condition, x, y *RawTensor) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
