package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pai-ml/painet/internal/backend/cpu"
	"github.com/pai-ml/painet/internal/nn"
	"github.com/pai-ml/painet/internal/tensor"
)

func sampleParams(t *testing.T) []*nn.Parameter[*cpu.CPUBackend] {
	t.Helper()
	backend := cpu.New()
	w, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	if err != nil {
		t.Fatal(err)
	}
	b, err := tensor.FromSlice([]float32{-1, 0.5}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatal(err)
	}
	return []*nn.Parameter[*cpu.CPUBackend]{
		nn.NewParameter("weight", w),
		nn.NewParameter("bias", b),
	}
}

// TestSaveLoad_RoundTrip tests exact restoration of saved values.
func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ckpt")

	src := sampleParams(t)
	if err := Save(path, src); err != nil {
		t.Fatal(err)
	}

	dst := sampleParams(t)
	for _, p := range dst {
		clear(p.Tensor().Data())
	}
	if err := Load(path, dst); err != nil {
		t.Fatal(err)
	}

	for i, p := range dst {
		want := src[i].Tensor().Data()
		got := p.Tensor().Data()
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("param %d value %d = %f, want %f", i, j, got[j], want[j])
			}
		}
	}
}

// TestLoad_Corrupted tests checksum detection on a flipped byte.
func TestLoad_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ckpt")
	if err := Save(path, sampleParams(t)); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	raw[len(raw)/2] ^= 0xff
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Load(path, sampleParams(t)); err != ErrChecksumMismatch {
		t.Errorf("err = %v, want ErrChecksumMismatch", err)
	}
}

// TestLoad_ArchitectureMismatch tests shape and count validation.
func TestLoad_ArchitectureMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ckpt")
	if err := Save(path, sampleParams(t)); err != nil {
		t.Fatal(err)
	}

	short := sampleParams(t)[:1]
	if err := Load(path, short); err == nil {
		t.Error("expected error for parameter count mismatch")
	}

	backend := cpu.New()
	wrong := sampleParams(t)
	wrong[0] = nn.NewParameter("weight", tensor.Zeros[float32](tensor.Shape{3, 2}, backend))
	if err := Load(path, wrong); err == nil {
		t.Error("expected error for shape mismatch")
	}
}

// TestLoad_NotACheckpoint tests magic validation.
func TestLoad_NotACheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk")
	if err := os.WriteFile(path, make([]byte, 64), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Load(path, sampleParams(t)); err != ErrBadMagic {
		t.Errorf("err = %v, want ErrBadMagic", err)
	}
}
