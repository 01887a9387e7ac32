package geom

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/pai-ml/painet/internal/backend/cpu"
	"github.com/pai-ml/painet/internal/tensor"
)

// TestFibonacciSphere_Layout tests origin-first layout and unit-norm shell
// points.
func TestFibonacciSphere_Layout(t *testing.T) {
	const samples = 16
	points := FibonacciSphere(samples, nil)

	if len(points) != 3*samples {
		t.Fatalf("len = %d, want %d", len(points), 3*samples)
	}
	if points[0] != 0 || points[1] != 0 || points[2] != 0 {
		t.Errorf("first anchor = (%f, %f, %f), want origin", points[0], points[1], points[2])
	}
	for i := 1; i < samples; i++ {
		x, y, z := points[3*i], points[3*i+1], points[3*i+2]
		norm := math.Sqrt(float64(x*x + y*y + z*z))
		if math.Abs(norm-1) > 1e-5 {
			t.Errorf("anchor %d norm = %f, want 1", i, norm)
		}
	}
}

// TestFibonacciSphere_Deterministic tests that the nil-rng spiral is stable
// and a seeded rng rotates it.
func TestFibonacciSphere_Deterministic(t *testing.T) {
	a := FibonacciSphere(8, nil)
	b := FibonacciSphere(8, nil)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("deterministic spiral differs at %d: %f vs %f", i, a[i], b[i])
		}
	}

	c := FibonacciSphere(8, rand.New(rand.NewSource(7)))
	same := true
	for i := 3; i < len(a); i++ {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("randomized spiral should differ from the deterministic one")
	}
}

// TestKNN_Line tests neighbor ranking on a 1-D line where the answer is
// obvious.
func TestKNN_Line(t *testing.T) {
	backend := cpu.New()
	// Points at x = 0, 1, 2, 10.
	x, err := tensor.FromSlice([]float32{0, 1, 2, 10}, tensor.Shape{1, 1, 4}, backend)
	if err != nil {
		t.Fatal(err)
	}

	idx := KNN(x, 2)
	if !idx.Shape().Equal(tensor.Shape{1, 4, 2}) {
		t.Fatalf("idx shape = %v, want [1 4 2]", idx.Shape())
	}

	expected := [][]int64{
		{0, 1}, // nearest to 0 is 1
		{1, 0}, // 0 and 2 tie, lower index wins
		{2, 1},
		{3, 2},
	}
	for i, row := range expected {
		for j, want := range row {
			if got := idx.At(0, i, j); got != want {
				t.Errorf("idx[0][%d][%d] = %d, want %d", i, j, got, want)
			}
		}
	}
}

// TestKNN_SelfFirst tests that duplicate coordinates cannot displace the
// point itself from position 0.
func TestKNN_SelfFirst(t *testing.T) {
	backend := cpu.New()
	// Three coincident points and one far away.
	x, err := tensor.FromSlice([]float32{0, 0, 0, 9}, tensor.Shape{1, 1, 4}, backend)
	if err != nil {
		t.Fatal(err)
	}

	idx := KNN(x, 2)
	for i := 0; i < 4; i++ {
		if got := idx.At(0, i, 0); got != int64(i) {
			t.Errorf("point %d: first neighbor = %d, want self", i, got)
		}
	}
}

// TestKNN_KTooLarge tests the k > numPoints guard.
func TestKNN_KTooLarge(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for k > numPoints")
		}
	}()

	x, _ := tensor.FromSlice([]float32{0, 1, 2}, tensor.Shape{1, 1, 3}, cpu.New())
	KNN(x, 4)
}

// TestKNNTree_MatchesBruteForce tests the k-d tree path against an exact
// float64 reference on the same coordinates.
func TestKNNTree_MatchesBruteForce(t *testing.T) {
	const (
		batch     = 2
		numPoints = 24
		k         = 5
	)
	rng := rand.New(rand.NewSource(42))
	data := make([]float32, batch*3*numPoints)
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}

	x, err := tensor.FromSlice(data, tensor.Shape{batch, 3, numPoints}, cpu.New())
	if err != nil {
		t.Fatal(err)
	}
	idx := KNNTree(x, k)

	for b := 0; b < batch; b++ {
		base := b * 3 * numPoints
		coord := func(i int) (float64, float64, float64) {
			return float64(data[base+i]),
				float64(data[base+numPoints+i]),
				float64(data[base+2*numPoints+i])
		}
		for i := 0; i < numPoints; i++ {
			xi, yi, zi := coord(i)
			order := make([]int, numPoints)
			dist := make([]float64, numPoints)
			for j := 0; j < numPoints; j++ {
				xj, yj, zj := coord(j)
				dx, dy, dz := xi-xj, yi-yj, zi-zj
				order[j] = j
				dist[j] = dx*dx + dy*dy + dz*dz
			}
			sort.Slice(order, func(a, c int) bool {
				if dist[order[a]] != dist[order[c]] {
					return dist[order[a]] < dist[order[c]]
				}
				return order[a] < order[c]
			})

			for j := 0; j < k; j++ {
				if got := idx.At(b, i, j); got != int64(order[j]) {
					t.Errorf("batch %d point %d slot %d: got %d, want %d",
						b, i, j, got, order[j])
				}
			}
		}
	}
}

// TestKNNTree_SelfFirst tests the self-at-zero contract on the tree path.
func TestKNNTree_SelfFirst(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := make([]float32, 3*10)
	for i := range data {
		data[i] = float32(rng.Float64())
	}
	x, err := tensor.FromSlice(data, tensor.Shape{1, 3, 10}, cpu.New())
	if err != nil {
		t.Fatal(err)
	}

	idx := KNNTree(x, 4)
	for i := 0; i < 10; i++ {
		if got := idx.At(0, i, 0); got != int64(i) {
			t.Errorf("point %d: first neighbor = %d, want self", i, got)
		}
	}
}
