package nn

import (
	"math"
	"testing"

	"github.com/pai-ml/painet/internal/backend/cpu"
	"github.com/pai-ml/painet/internal/tensor"
)

func mustTensor(t *testing.T, data []float32, shape tensor.Shape) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	tt, err := tensor.FromSlice(data, shape, cpu.New())
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return tt
}

func almostEqual(a, b, tol float32) bool {
	return float32(math.Abs(float64(a-b))) <= tol
}

// TestLinear_Forward tests y = x @ W.T + b with hand-set weights.
func TestLinear_Forward(t *testing.T) {
	backend := cpu.New()
	linear := NewLinear(3, 2, true, backend)

	w := linear.Weight().Tensor().Data()
	copy(w, []float32{1, 2, 3, 4, 5, 6}) // rows are output features
	b := linear.Bias().Tensor().Data()
	copy(b, []float32{0.5, -0.5})

	input := mustTensor(t, []float32{1, 1, 1}, tensor.Shape{1, 3})
	output := linear.Forward(input)

	expected := []float32{6.5, 14.5}
	for i, exp := range expected {
		if got := output.Data()[i]; !almostEqual(got, exp, 1e-5) {
			t.Errorf("output[%d] = %f, want %f", i, got, exp)
		}
	}
}

// TestLinear_NoBias tests that a bias-free layer exposes one parameter.
func TestLinear_NoBias(t *testing.T) {
	linear := NewLinear(4, 2, false, cpu.New())

	if linear.Bias() != nil {
		t.Error("expected nil bias")
	}
	if n := len(linear.Parameters()); n != 1 {
		t.Errorf("expected 1 parameter, got %d", n)
	}
}

// TestLinear_ShapeMismatch tests that a wrong feature count panics.
func TestLinear_ShapeMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for mismatched input features")
		}
	}()

	linear := NewLinear(3, 2, true, cpu.New())
	input := mustTensor(t, []float32{1, 1}, tensor.Shape{1, 2})
	linear.Forward(input)
}

// TestPointConv1D_Forward tests channel mixing applied independently at
// each point.
func TestPointConv1D_Forward(t *testing.T) {
	conv := NewPointConv1D(2, 2, false, cpu.New())
	copy(conv.weight.Tensor().Data(), []float32{
		1, 0, // out0 = in0
		1, 1, // out1 = in0 + in1
	})

	// batch=1, channels=2, points=2: channel 0 is [1 2], channel 1 is [3 4].
	input := mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 2, 2})
	output := conv.Forward(input)

	if !output.Shape().Equal(tensor.Shape{1, 2, 2}) {
		t.Fatalf("output shape = %v, want [1 2 2]", output.Shape())
	}
	expected := []float32{1, 2, 4, 6}
	for i, exp := range expected {
		if got := output.Data()[i]; !almostEqual(got, exp, 1e-5) {
			t.Errorf("output[%d] = %f, want %f", i, got, exp)
		}
	}
}

// TestPointConv2D_Forward tests the same mixing over two trailing dims.
func TestPointConv2D_Forward(t *testing.T) {
	conv := NewPointConv2D(2, 2, false, cpu.New())
	copy(conv.weight.Tensor().Data(), []float32{
		1, 0,
		1, 1,
	})

	input := mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 2, 1, 2})
	output := conv.Forward(input)

	if !output.Shape().Equal(tensor.Shape{1, 2, 1, 2}) {
		t.Fatalf("output shape = %v, want [1 2 1 2]", output.Shape())
	}
	expected := []float32{1, 2, 4, 6}
	for i, exp := range expected {
		if got := output.Data()[i]; !almostEqual(got, exp, 1e-5) {
			t.Errorf("output[%d] = %f, want %f", i, got, exp)
		}
	}
}

// TestBatchNorm1D_Training tests that training mode normalizes the batch
// and updates the running statistics.
func TestBatchNorm1D_Training(t *testing.T) {
	bn := NewBatchNorm1D(1, cpu.New())
	bn.SetTraining(true)

	input := mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{4, 1})
	output := bn.Forward(input)

	var sum, sumSq float32
	for _, v := range output.Data() {
		sum += v
		sumSq += v * v
	}
	mean := sum / 4
	variance := sumSq/4 - mean*mean
	if !almostEqual(mean, 0, 1e-4) {
		t.Errorf("output mean = %f, want 0", mean)
	}
	if !almostEqual(variance, 1, 1e-3) {
		t.Errorf("output variance = %f, want 1", variance)
	}

	// One momentum=0.1 step from mean 0 / var 1 toward the batch stats.
	if got := bn.RunningMean().Data()[0]; !almostEqual(got, 0.25, 1e-5) {
		t.Errorf("running mean = %f, want 0.25", got)
	}
	if got := bn.RunningVar().Data()[0]; !almostEqual(got, 1.025, 1e-5) {
		t.Errorf("running var = %f, want 1.025", got)
	}
}

// TestBatchNorm1D_EvalIdentity tests that eval mode with fresh running
// statistics leaves the input essentially untouched and is side-effect free.
func TestBatchNorm1D_EvalIdentity(t *testing.T) {
	bn := NewBatchNorm1D(2, cpu.New())

	input := mustTensor(t, []float32{1, -2, 3, -4}, tensor.Shape{2, 2})
	first := bn.Forward(input)
	second := bn.Forward(input)

	for i, want := range input.Data() {
		if !almostEqual(first.Data()[i], want, 1e-3) {
			t.Errorf("output[%d] = %f, want %f", i, first.Data()[i], want)
		}
		if first.Data()[i] != second.Data()[i] {
			t.Errorf("eval forward not repeatable at %d", i)
		}
	}
}

// TestBatchNorm1D_3D tests normalization over batch and point dims.
func TestBatchNorm1D_3D(t *testing.T) {
	bn := NewBatchNorm1D(3, cpu.New())
	bn.SetTraining(true)

	input := tensor.Randn[float32](tensor.Shape{2, 3, 5}, cpu.New())
	output := bn.Forward(input)

	if !output.Shape().Equal(tensor.Shape{2, 3, 5}) {
		t.Fatalf("output shape = %v, want [2 3 5]", output.Shape())
	}

	// Per-channel mean over batch and points must be zero.
	for c := 0; c < 3; c++ {
		var sum float32
		for b := 0; b < 2; b++ {
			for n := 0; n < 5; n++ {
				sum += output.At(b, c, n)
			}
		}
		if !almostEqual(sum/10, 0, 1e-4) {
			t.Errorf("channel %d mean = %f, want 0", c, sum/10)
		}
	}
}

// TestDropout_Eval tests that eval mode is the identity.
func TestDropout_Eval(t *testing.T) {
	drop := NewDropout[*cpu.CPUBackend](0.5)

	input := mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{4})
	output := drop.Forward(input)

	for i, want := range input.Data() {
		if output.Data()[i] != want {
			t.Errorf("output[%d] = %f, want %f", i, output.Data()[i], want)
		}
	}
}

// TestDropout_Training tests inverted scaling: survivors are multiplied by
// 1/(1-p), dropped elements are exactly zero.
func TestDropout_Training(t *testing.T) {
	drop := NewDropout[*cpu.CPUBackend](0.5)
	drop.SetTraining(true)

	data := make([]float32, 1000)
	for i := range data {
		data[i] = 1
	}
	input := mustTensor(t, data, tensor.Shape{1000})
	output := drop.Forward(input)

	var zeros int
	for i, v := range output.Data() {
		switch v {
		case 0:
			zeros++
		case 2:
			// survivor, scaled by 1/(1-0.5)
		default:
			t.Fatalf("output[%d] = %f, want 0 or 2", i, v)
		}
	}
	if zeros == 0 || zeros == 1000 {
		t.Errorf("zeros = %d, expected a proper mix at p=0.5", zeros)
	}
	// Input must be left intact.
	if input.Data()[0] != 1 {
		t.Error("dropout mutated its input")
	}
}

// TestReLU_Forward tests ReLU activation.
func TestReLU_Forward(t *testing.T) {
	relu := NewReLU[*cpu.CPUBackend]()

	input := mustTensor(t, []float32{-1, 0, 2}, tensor.Shape{3})
	output := relu.Forward(input)

	expected := []float32{0, 0, 2}
	for i, exp := range expected {
		if output.Data()[i] != exp {
			t.Errorf("output[%d] = %f, want %f", i, output.Data()[i], exp)
		}
	}
	if len(relu.Parameters()) != 0 {
		t.Error("ReLU should have no parameters")
	}
}

// TestLeakyReLU_Forward tests the negative-slope branch.
func TestLeakyReLU_Forward(t *testing.T) {
	leaky := NewLeakyReLU[*cpu.CPUBackend](0.2)

	input := mustTensor(t, []float32{-1, 0, 2}, tensor.Shape{3})
	output := leaky.Forward(input)

	expected := []float32{-0.2, 0, 2}
	for i, exp := range expected {
		if !almostEqual(output.Data()[i], exp, 1e-6) {
			t.Errorf("output[%d] = %f, want %f", i, output.Data()[i], exp)
		}
	}
}

// TestGELU_Forward tests the tanh approximation at known points.
func TestGELU_Forward(t *testing.T) {
	gelu := NewGELU[*cpu.CPUBackend]()

	input := mustTensor(t, []float32{0, 3, -3}, tensor.Shape{3})
	output := gelu.Forward(input)

	expected := []float32{0, 2.9964, -0.0036}
	for i, exp := range expected {
		if !almostEqual(output.Data()[i], exp, 1e-2) {
			t.Errorf("output[%d] = %f, want about %f", i, output.Data()[i], exp)
		}
	}
}

// TestSigmoid_Forward tests the sigmoid midpoint and saturation.
func TestSigmoid_Forward(t *testing.T) {
	sigmoid := NewSigmoid[*cpu.CPUBackend]()

	input := mustTensor(t, []float32{0, 10, -10}, tensor.Shape{3})
	output := sigmoid.Forward(input)

	if !almostEqual(output.Data()[0], 0.5, 1e-6) {
		t.Errorf("sigmoid(0) = %f, want 0.5", output.Data()[0])
	}
	if output.Data()[1] < 0.999 {
		t.Errorf("sigmoid(10) = %f, want near 1", output.Data()[1])
	}
	if output.Data()[2] > 0.001 {
		t.Errorf("sigmoid(-10) = %f, want near 0", output.Data()[2])
	}
}

// TestTanh_Forward tests tanh at known points.
func TestTanh_Forward(t *testing.T) {
	tanh := NewTanh[*cpu.CPUBackend]()

	input := mustTensor(t, []float32{0, 1}, tensor.Shape{2})
	output := tanh.Forward(input)

	if output.Data()[0] != 0 {
		t.Errorf("tanh(0) = %f, want 0", output.Data()[0])
	}
	if !almostEqual(output.Data()[1], 0.76159, 1e-4) {
		t.Errorf("tanh(1) = %f, want 0.76159", output.Data()[1])
	}
}

// TestSoftmax_Forward tests that rows sum to one.
func TestSoftmax_Forward(t *testing.T) {
	softmax := NewSoftmax[*cpu.CPUBackend](1)

	input := mustTensor(t, []float32{1, 2, 3, 5, 5, 5}, tensor.Shape{2, 3})
	output := softmax.Forward(input)

	for row := 0; row < 2; row++ {
		var sum float32
		for col := 0; col < 3; col++ {
			sum += output.At(row, col)
		}
		if !almostEqual(sum, 1, 1e-5) {
			t.Errorf("row %d sum = %f, want 1", row, sum)
		}
	}
	// Uniform logits give uniform probabilities.
	for col := 0; col < 3; col++ {
		if !almostEqual(output.At(1, col), 1.0/3, 1e-5) {
			t.Errorf("uniform row value = %f, want 1/3", output.At(1, col))
		}
	}
}

// TestSparsemax_Forward tests exact zeros and the simplex constraint.
func TestSparsemax_Forward(t *testing.T) {
	sparsemax := NewSparsemax[*cpu.CPUBackend](1)

	input := mustTensor(t, []float32{3, 1, 0.1, 0.5, 0.6, -5}, tensor.Shape{2, 3})
	output := sparsemax.Forward(input)

	// [3 1 0.1] is dominated by its first entry: support size 1.
	expectedRow0 := []float32{1, 0, 0}
	for col, exp := range expectedRow0 {
		if !almostEqual(output.At(0, col), exp, 1e-5) {
			t.Errorf("row 0 col %d = %f, want %f", col, output.At(0, col), exp)
		}
	}

	// [0.5 0.6 -5] splits mass between the two close entries.
	expectedRow1 := []float32{0.45, 0.55, 0}
	for col, exp := range expectedRow1 {
		if !almostEqual(output.At(1, col), exp, 1e-5) {
			t.Errorf("row 1 col %d = %f, want %f", col, output.At(1, col), exp)
		}
	}
}
