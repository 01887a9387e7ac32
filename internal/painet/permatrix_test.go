package painet

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pai-ml/painet/internal/backend/cpu"
	"github.com/pai-ml/painet/internal/tensor"
)

func randomCloud(t *testing.T, batch, numPoints int, seed int64) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]float32, batch*3*numPoints)
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	x, err := tensor.FromSlice(data, tensor.Shape{batch, 3, numPoints}, cpu.New())
	if err != nil {
		t.Fatal(err)
	}
	return x
}

// TestPaiIndexMatrix_Shapes tests index and permatrix dimensions.
func TestPaiIndexMatrix_Shapes(t *testing.T) {
	const (
		batch     = 2
		numPoints = 32
		k         = 8
		m         = 16
	)
	builder := NewPaiIndexMatrix(k, m, cpu.New())
	index, permatrix := builder.Build(randomCloud(t, batch, numPoints, 1))

	if !index.Shape().Equal(tensor.Shape{batch * numPoints * k}) {
		t.Errorf("index shape = %v, want [%d]", index.Shape(), batch*numPoints*k)
	}
	if !permatrix.Shape().Equal(tensor.Shape{batch * numPoints, k, m}) {
		t.Errorf("permatrix shape = %v, want [%d %d %d]", permatrix.Shape(), batch*numPoints, k, m)
	}
}

// TestPaiIndexMatrix_Bounds tests that every assignment weight is either
// zero or above the sharpening cutoff, and that no column carries more than
// unit mass.
func TestPaiIndexMatrix_Bounds(t *testing.T) {
	const (
		numPoints = 48
		k         = 10
		m         = 16
	)
	builder := NewPaiIndexMatrix(k, m, cpu.New())
	_, permatrix := builder.Build(randomCloud(t, 1, numPoints, 2))

	for _, v := range permatrix.Data() {
		if v != 0 && v <= 0.1 {
			t.Fatalf("entry %f below cutoff but not zeroed", v)
		}
		if v < 0 || v > 1+1e-5 {
			t.Fatalf("entry %f outside [0, 1]", v)
		}
	}

	for g := 0; g < numPoints; g++ {
		for col := 0; col < m; col++ {
			var sum float32
			for row := 0; row < k; row++ {
				sum += permatrix.At(g, row, col)
			}
			if sum > 1+1e-4 {
				t.Fatalf("group %d column %d mass = %f, want <= 1", g, col, sum)
			}
		}
	}
}

// TestPaiIndexMatrix_SelfAnchor tests the degenerate neighborhood: with all
// points coincident every projection is zero and the self-assignment bias
// alone survives, pinning the center point to anchor 0.
func TestPaiIndexMatrix_SelfAnchor(t *testing.T) {
	const (
		numPoints = 8
		k         = 4
		m         = 6
	)
	data := make([]float32, 3*numPoints) // all points at the origin
	x, err := tensor.FromSlice(data, tensor.Shape{1, 3, numPoints}, cpu.New())
	if err != nil {
		t.Fatal(err)
	}

	builder := NewPaiIndexMatrix(k, m, cpu.New())
	_, permatrix := builder.Build(x)

	for g := 0; g < numPoints; g++ {
		if got := permatrix.At(g, 0, 0); math.Abs(float64(got-1)) > 1e-5 {
			t.Errorf("group %d: self weight = %f, want 1", g, got)
		}
		for row := 0; row < k; row++ {
			for col := 0; col < m; col++ {
				if row == 0 && col == 0 {
					continue
				}
				if got := permatrix.At(g, row, col); got != 0 {
					t.Errorf("group %d entry (%d,%d) = %f, want 0", g, row, col, got)
				}
			}
		}
	}
}

// TestPaiIndexMatrix_Deterministic tests that repeated builds agree.
func TestPaiIndexMatrix_Deterministic(t *testing.T) {
	builder := NewPaiIndexMatrix(6, 8, cpu.New())
	x := randomCloud(t, 1, 24, 3)

	idx1, p1 := builder.Build(x)
	idx2, p2 := builder.Build(x)

	for i, v := range idx1.Data() {
		if idx2.Data()[i] != v {
			t.Fatalf("index differs at %d", i)
		}
	}
	for i, v := range p1.Data() {
		if p2.Data()[i] != v {
			t.Fatalf("permatrix differs at %d", i)
		}
	}
}

// TestPaiIndexMatrix_AdaptiveTemperature tests that the learned temperature
// path yields proper per-column distributions.
func TestPaiIndexMatrix_AdaptiveTemperature(t *testing.T) {
	const (
		numPoints = 16
		k         = 6
		m         = 8
	)
	builder := NewPaiIndexMatrix(k, m, cpu.New(), WithAdaptiveTemperature[*cpu.CPUBackend](100))
	_, permatrix := builder.Build(randomCloud(t, 1, numPoints, 4))

	for g := 0; g < numPoints; g++ {
		for col := 0; col < m; col++ {
			var sum float32
			for row := 0; row < k; row++ {
				v := permatrix.At(g, row, col)
				if v < 0 || v > 1 {
					t.Fatalf("softmax weight %f outside [0, 1]", v)
				}
				sum += v
			}
			if math.Abs(float64(sum-1)) > 1e-4 {
				t.Fatalf("group %d column %d sum = %f, want 1", g, col, sum)
			}
		}
	}
}

// TestPaiIndexMatrix_TreeSearch tests that the k-d tree path produces the
// same flat index as the dense path on well-separated points.
func TestPaiIndexMatrix_TreeSearch(t *testing.T) {
	x := randomCloud(t, 2, 24, 5)

	dense := NewPaiIndexMatrix(5, 8, cpu.New())
	treed := NewPaiIndexMatrix(5, 8, cpu.New(), WithTreeSearch[*cpu.CPUBackend]())

	idxDense, _ := dense.Build(x)
	idxTree, _ := treed.Build(x)

	mismatches := 0
	for i, v := range idxDense.Data() {
		if idxTree.Data()[i] != v {
			mismatches++
		}
	}
	// Near-equidistant neighbors may legitimately order differently between
	// float32 and float64 distance evaluation.
	if mismatches > len(idxDense.Data())/50 {
		t.Errorf("tree and dense paths disagree on %d of %d entries", mismatches, len(idxDense.Data()))
	}
}

// TestPaiIndexMatrixLSA_IdentityStart tests that the untrained basis bank
// blends to the identity: sparsemax gate weights sum to one and every basis
// matrix starts as I.
func TestPaiIndexMatrixLSA_IdentityStart(t *testing.T) {
	const (
		numPoints = 16
		k         = 8
	)
	builder := NewPaiIndexMatrixLSA(k, k, cpu.New())
	index, permatrix := builder.Build(randomCloud(t, 1, numPoints, 6))

	if !index.Shape().Equal(tensor.Shape{numPoints * k}) {
		t.Fatalf("index shape = %v", index.Shape())
	}
	if !permatrix.Shape().Equal(tensor.Shape{numPoints, k, k}) {
		t.Fatalf("permatrix shape = %v, want [%d %d %d]", permatrix.Shape(), numPoints, k, k)
	}

	for g := 0; g < numPoints; g++ {
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				want := float32(0)
				if i == j {
					want = 1
				}
				if got := permatrix.At(g, i, j); math.Abs(float64(got-want)) > 1e-4 {
					t.Fatalf("group %d entry (%d,%d) = %f, want %f", g, i, j, got, want)
				}
			}
		}
	}
}

// TestPaiIndexMatrixLSA_RequiresSquare tests the k == kernelSize guard.
func TestPaiIndexMatrixLSA_RequiresSquare(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for k != kernelSize")
		}
	}()
	NewPaiIndexMatrixLSA(8, 16, cpu.New())
}
