package painet

import (
	"math"
	"testing"

	"github.com/pai-ml/painet/internal/backend/cpu"
	"github.com/pai-ml/painet/internal/tensor"
)

func checkFinite(t *testing.T, name string, data []float32) {
	t.Helper()
	for i, v := range data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("%s: non-finite value %f at %d", name, v, i)
		}
	}
}

// TestPaiConv_Shape tests the aggregation contract (b, in, n) -> (b, out, n).
func TestPaiConv_Shape(t *testing.T) {
	const (
		batch     = 2
		numPoints = 24
		k         = 6
		m         = 8
	)
	backend := cpu.New()
	x := randomCloud(t, batch, numPoints, 10)

	builder := NewPaiIndexMatrix(k, m, backend)
	index, permatrix := builder.Build(x)

	conv := NewPaiConv(3, 16, k, m, true, backend)
	out := conv.Forward(x, index, permatrix)

	if !out.Shape().Equal(tensor.Shape{batch, 16, numPoints}) {
		t.Fatalf("output shape = %v, want [%d 16 %d]", out.Shape(), batch, numPoints)
	}
	checkFinite(t, "PaiConv", out.Data())
}

// TestPaiConv_AcceptsLSAMatrix tests PaiConv against the square learned
// assignment when k equals kernelSize.
func TestPaiConv_AcceptsLSAMatrix(t *testing.T) {
	const (
		batch     = 1
		numPoints = 16
		k         = 8
	)
	backend := cpu.New()
	x := randomCloud(t, batch, numPoints, 11)

	builder := NewPaiIndexMatrixLSA(k, k, backend)
	index, permatrix := builder.Build(x)

	conv := NewPaiConv(3, 8, k, k, true, backend)
	out := conv.Forward(x, index, permatrix)

	if !out.Shape().Equal(tensor.Shape{batch, 8, numPoints}) {
		t.Fatalf("output shape = %v", out.Shape())
	}
	checkFinite(t, "PaiConv+LSA", out.Data())
}

// TestPaiConvDG_Shape tests the edge-conv aggregator contract.
func TestPaiConvDG_Shape(t *testing.T) {
	const (
		batch     = 2
		numPoints = 16
		k         = 6
		m         = 8
	)
	backend := cpu.New()
	x := randomCloud(t, batch, numPoints, 12)

	builder := NewPaiIndexMatrix(k, m, backend)
	index, permatrix := builder.Build(x)

	conv := NewPaiConvDG(3, 12, k, m, true, backend)
	out := conv.Forward(x, index, permatrix)

	if !out.Shape().Equal(tensor.Shape{batch, 12, numPoints}) {
		t.Fatalf("output shape = %v, want [%d 12 %d]", out.Shape(), batch, numPoints)
	}
	checkFinite(t, "PaiConvDG", out.Data())
}

// TestRandLAConv_Shape tests the attentive pooling aggregator, which
// ignores the permatrix entirely.
func TestRandLAConv_Shape(t *testing.T) {
	const (
		batch     = 2
		numPoints = 16
		k         = 6
	)
	backend := cpu.New()
	x := randomCloud(t, batch, numPoints, 13)

	builder := NewPaiIndexMatrix(k, 8, backend)
	index, _ := builder.Build(x)

	conv := NewRandLAConv(3, 10, k, true, backend)
	out := conv.Forward(x, index, nil)

	if !out.Shape().Equal(tensor.Shape{batch, 10, numPoints}) {
		t.Fatalf("output shape = %v, want [%d 10 %d]", out.Shape(), batch, numPoints)
	}
	checkFinite(t, "RandLAConv", out.Data())
}

// TestGraphFeature_Edges tests the (neighbor - point, point) edge layout on
// a hand-checkable cloud.
func TestGraphFeature_Edges(t *testing.T) {
	backend := cpu.New()
	// Two 1-D-ish points embedded in 3-D: p0 = (0,0,0), p1 = (1,0,0).
	x, err := tensor.FromSlice([]float32{0, 1, 0, 0, 0, 0}, tensor.Shape{1, 3, 2}, backend)
	if err != nil {
		t.Fatal(err)
	}

	out := GraphFeature(x, 2, nil)
	if !out.Shape().Equal(tensor.Shape{1, 6, 2, 2}) {
		t.Fatalf("output shape = %v, want [1 6 2 2]", out.Shape())
	}

	// Point 0, neighbor slot 1 is p1: difference channel 0 = 1, center = 0.
	if got := out.At(0, 0, 0, 1); got != 1 {
		t.Errorf("edge diff = %f, want 1", got)
	}
	if got := out.At(0, 3, 0, 1); got != 0 {
		t.Errorf("edge center = %f, want 0", got)
	}
	// Point 1, neighbor slot 1 is p0: difference -1, center 1.
	if got := out.At(0, 0, 1, 1); got != -1 {
		t.Errorf("edge diff = %f, want -1", got)
	}
	if got := out.At(0, 3, 1, 1); got != 1 {
		t.Errorf("edge center = %f, want 1", got)
	}
	// Self slots carry zero difference.
	if got := out.At(0, 0, 0, 0); got != 0 {
		t.Errorf("self diff = %f, want 0", got)
	}
}

// TestTransformNet_IdentityStart tests that an untrained alignment head
// emits exact identity rotations.
func TestTransformNet_IdentityStart(t *testing.T) {
	backend := cpu.New()
	net := NewTransformNet(backend)

	x := randomCloud(t, 2, 16, 14)
	rot := net.Forward(GraphFeature(x, 4, nil))

	if !rot.Shape().Equal(tensor.Shape{2, 3, 3}) {
		t.Fatalf("rotation shape = %v, want [2 3 3]", rot.Shape())
	}
	for b := 0; b < 2; b++ {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				want := float32(0)
				if i == j {
					want = 1
				}
				if got := rot.At(b, i, j); got != want {
					t.Errorf("rot[%d][%d][%d] = %f, want %f", b, i, j, got, want)
				}
			}
		}
	}
}

// TestFlattenIndex tests the per-batch row offsetting.
func TestFlattenIndex(t *testing.T) {
	backend := cpu.New()
	idx, err := tensor.FromSlice([]int64{
		0, 1, 1, 0, // batch 0
		1, 0, 0, 1, // batch 1
	}, tensor.Shape{2, 2, 2}, backend)
	if err != nil {
		t.Fatal(err)
	}

	flat := flattenIndex(idx, 2)
	expected := []int64{0, 1, 1, 0, 3, 2, 2, 3}
	for i, want := range expected {
		if got := flat.Data()[i]; got != want {
			t.Errorf("flat[%d] = %d, want %d", i, got, want)
		}
	}
}
