// Package checkpoint persists model parameters to disk.
//
// The format is a small binary container: magic, version, parameter count,
// then per parameter a name, shape and raw float32 payload, followed by a
// SHA-256 checksum over everything before it. Parameters are restored by
// position, so the loading model must be constructed with the same
// architecture that was saved.
package checkpoint

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pai-ml/painet/internal/nn"
	"github.com/pai-ml/painet/internal/tensor"
)

const (
	magic   = "PAICKPT1"
	version = uint32(1)
)

var (
	// ErrBadMagic means the file is not a checkpoint.
	ErrBadMagic = errors.New("checkpoint: bad magic")
	// ErrChecksumMismatch means the payload was corrupted.
	ErrChecksumMismatch = errors.New("checkpoint: checksum mismatch")
	// ErrArchitectureMismatch means the stored parameters do not line up
	// with the model being restored.
	ErrArchitectureMismatch = errors.New("checkpoint: architecture mismatch")
)

// Save writes the parameters to path. The tensors are written in slice
// order; pair Save with Load on an identically constructed model.
func Save[B tensor.Backend](path string, params []*nn.Parameter[B]) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	w := bufio.NewWriter(io.MultiWriter(f, h))

	if _, err := w.WriteString(magic); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := writeUint32(w, version); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(len(params))); err != nil {
		return err
	}

	for _, p := range params {
		if err := writeParameter(w, p); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if _, err := f.Write(h.Sum(nil)); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// Load restores parameters saved by Save into params, which must have the
// same order, names and shapes.
func Load[B tensor.Backend](path string, params []*nn.Parameter[B]) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if len(raw) < len(magic)+sha256.Size {
		return ErrBadMagic
	}

	body := raw[:len(raw)-sha256.Size]
	stored := raw[len(raw)-sha256.Size:]
	if string(body[:len(magic)]) != magic {
		return ErrBadMagic
	}
	if sum := sha256.Sum256(body); !bytes.Equal(sum[:], stored) {
		return ErrChecksumMismatch
	}

	r := bytes.NewReader(body[len(magic):])

	ver, err := readUint32(r)
	if err != nil {
		return err
	}
	if ver != version {
		return fmt.Errorf("checkpoint: unsupported version %d", ver)
	}

	count, err := readUint32(r)
	if err != nil {
		return err
	}
	if int(count) != len(params) {
		return fmt.Errorf("%w: file has %d parameters, model has %d",
			ErrArchitectureMismatch, count, len(params))
	}

	for i, p := range params {
		if err := readParameter(r, i, p); err != nil {
			return err
		}
	}
	return nil
}

func writeParameter[B tensor.Backend](w io.Writer, p *nn.Parameter[B]) error {
	name := p.Name()
	if err := writeUint32(w, uint32(len(name))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, name); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}

	shape := p.Tensor().Shape()
	if err := writeUint32(w, uint32(len(shape))); err != nil {
		return err
	}
	for _, dim := range shape {
		if err := writeUint32(w, uint32(dim)); err != nil {
			return err
		}
	}

	return binary.Write(w, binary.LittleEndian, p.Tensor().Data())
}

func readParameter[B tensor.Backend](r io.Reader, pos int, p *nn.Parameter[B]) error {
	nameLen, err := readUint32(r)
	if err != nil {
		return err
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if string(name) != p.Name() {
		return fmt.Errorf("%w: parameter %d is %q in file, %q in model",
			ErrArchitectureMismatch, pos, name, p.Name())
	}

	rank, err := readUint32(r)
	if err != nil {
		return err
	}
	shape := make(tensor.Shape, rank)
	for i := range shape {
		dim, err := readUint32(r)
		if err != nil {
			return err
		}
		shape[i] = int(dim)
	}
	if !shape.Equal(p.Tensor().Shape()) {
		return fmt.Errorf("%w: parameter %q has shape %v in file, %v in model",
			ErrArchitectureMismatch, p.Name(), shape, p.Tensor().Shape())
	}

	if err := binary.Read(r, binary.LittleEndian, p.Tensor().Data()); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

func writeUint32(w io.Writer, v uint32) error {
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

func readUint32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("checkpoint: %w", err)
	}
	return v, nil
}
