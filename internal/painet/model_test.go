package painet

import (
	"testing"

	"github.com/pai-ml/painet/internal/backend/cpu"
	"github.com/pai-ml/painet/internal/tensor"
)

func testConfig() Config {
	return Config{
		K:          8,
		KernelSize: 16,
		EmbDims:    64,
		Dropout:    0.5,
		TempFactor: 100,
		NumClasses: 10,
	}
}

// TestPaiNet_Forward tests end-to-end classification shapes and finiteness.
func TestPaiNet_Forward(t *testing.T) {
	net, err := NewPaiNet(testConfig(), cpu.New())
	if err != nil {
		t.Fatal(err)
	}

	x := randomCloud(t, 2, 48, 20)
	logits := net.Forward(x)

	if !logits.Shape().Equal(tensor.Shape{2, 10}) {
		t.Fatalf("logits shape = %v, want [2 10]", logits.Shape())
	}
	checkFinite(t, "PaiNet", logits.Data())
}

// TestPaiNet_EvalIdempotent tests that inference is deterministic and
// mutation free: the same input gives bit-identical logits on repeated
// calls.
func TestPaiNet_EvalIdempotent(t *testing.T) {
	net, err := NewPaiNet(testConfig(), cpu.New())
	if err != nil {
		t.Fatal(err)
	}
	net.Eval()

	x := randomCloud(t, 2, 32, 21)
	first := net.Forward(x)
	second := net.Forward(x)

	for i, v := range first.Data() {
		if second.Data()[i] != v {
			t.Fatalf("logits differ at %d: %f vs %f", i, v, second.Data()[i])
		}
	}
}

// TestPaiNet_TrainMode tests that the training path runs and keeps the
// output finite despite dropout and batch statistics.
func TestPaiNet_TrainMode(t *testing.T) {
	net, err := NewPaiNet(testConfig(), cpu.New())
	if err != nil {
		t.Fatal(err)
	}
	net.Train()

	logits := net.Forward(randomCloud(t, 4, 32, 22))
	if !logits.Shape().Equal(tensor.Shape{4, 10}) {
		t.Fatalf("logits shape = %v, want [4 10]", logits.Shape())
	}
	checkFinite(t, "PaiNet train", logits.Data())
}

// TestPaiNet_WithOptions tests the LSA builder, the edge-conv aggregator
// and the spatial transform wired together.
func TestPaiNet_WithOptions(t *testing.T) {
	cfg := testConfig()
	cfg.KernelSize = cfg.K // LSA requires a square assignment
	backend := cpu.New()

	net, err := NewPaiNet(cfg, backend,
		WithIndexBuilder[*cpu.CPUBackend](NewPaiIndexMatrixLSA(cfg.K, cfg.KernelSize, backend)),
		WithAggregator(func(in, out, k, kernelSize int, useBias bool, b *cpu.CPUBackend) Aggregator[*cpu.CPUBackend] {
			return NewPaiConvDG(in, out, k, kernelSize, useBias, b)
		}),
		WithSpatialTransform[*cpu.CPUBackend](),
	)
	if err != nil {
		t.Fatal(err)
	}

	logits := net.Forward(randomCloud(t, 2, 24, 23))
	if !logits.Shape().Equal(tensor.Shape{2, 10}) {
		t.Fatalf("logits shape = %v, want [2 10]", logits.Shape())
	}
	checkFinite(t, "PaiNet options", logits.Data())
}

// TestPaiNet_Parameters tests that every layer contributes parameters.
func TestPaiNet_Parameters(t *testing.T) {
	net, err := NewPaiNet(testConfig(), cpu.New())
	if err != nil {
		t.Fatal(err)
	}

	params := net.Parameters()
	// 4 aggregators (linear w+b, bn gamma+beta) + conv5 + bn5 + 3 linears
	// (one bias-free) + bn6 + bn7.
	want := 4*4 + 1 + 2 + 1 + 2 + 2 + 2 + 2
	if len(params) != want {
		t.Errorf("parameter count = %d, want %d", len(params), want)
	}
	for _, p := range params {
		if p.Tensor() == nil {
			t.Fatalf("parameter %q has no tensor", p.Name())
		}
	}
}

// TestPaiNet_RejectsBadConfig tests construction-time validation.
func TestPaiNet_RejectsBadConfig(t *testing.T) {
	bad := []Config{
		{K: 0, KernelSize: 16, EmbDims: 64, Dropout: 0.5, TempFactor: 100, NumClasses: 10},
		{K: 8, KernelSize: 0, EmbDims: 64, Dropout: 0.5, TempFactor: 100, NumClasses: 10},
		{K: 8, KernelSize: 16, EmbDims: 64, Dropout: 1, TempFactor: 100, NumClasses: 10},
		{K: 8, KernelSize: 16, EmbDims: 64, Dropout: 0.5, TempFactor: 0, NumClasses: 10},
		{K: 8, KernelSize: 16, EmbDims: 64, Dropout: 0.5, TempFactor: 100, NumClasses: 0},
	}
	for i, cfg := range bad {
		if _, err := NewPaiNet(cfg, cpu.New()); err == nil {
			t.Errorf("config %d: expected error", i)
		}
	}
}

// TestDGCNN_Forward tests the dynamic graph baseline end to end.
func TestDGCNN_Forward(t *testing.T) {
	net, err := NewDGCNN(testConfig(), cpu.New())
	if err != nil {
		t.Fatal(err)
	}

	logits := net.Forward(randomCloud(t, 2, 32, 24))
	if !logits.Shape().Equal(tensor.Shape{2, 10}) {
		t.Fatalf("logits shape = %v, want [2 10]", logits.Shape())
	}
	checkFinite(t, "DGCNN", logits.Data())
}

// TestDGCNN_EvalIdempotent tests repeatable inference.
func TestDGCNN_EvalIdempotent(t *testing.T) {
	net, err := NewDGCNN(testConfig(), cpu.New())
	if err != nil {
		t.Fatal(err)
	}
	net.Eval()

	x := randomCloud(t, 1, 24, 25)
	first := net.Forward(x)
	second := net.Forward(x)
	for i, v := range first.Data() {
		if second.Data()[i] != v {
			t.Fatalf("logits differ at %d", i)
		}
	}
}

// TestPointNet_Forward tests the point-wise baseline end to end.
func TestPointNet_Forward(t *testing.T) {
	net, err := NewPointNet(testConfig(), cpu.New())
	if err != nil {
		t.Fatal(err)
	}

	logits := net.Forward(randomCloud(t, 2, 32, 26))
	if !logits.Shape().Equal(tensor.Shape{2, 10}) {
		t.Fatalf("logits shape = %v, want [2 10]", logits.Shape())
	}
	checkFinite(t, "PointNet", logits.Data())
}

// TestModels_RejectWrongChannels tests the 3-channel input contract.
func TestModels_RejectWrongChannels(t *testing.T) {
	net, err := NewPaiNet(testConfig(), cpu.New())
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for non-coordinate input")
		}
	}()
	bad := tensor.Zeros[float32](tensor.Shape{1, 4, 16}, cpu.New())
	net.Forward(bad)
}
