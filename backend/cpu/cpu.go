// Copyright 2025 The PaiNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/pai-ml/painet/internal/backend/cpu"
	"github.com/pai-ml/painet/tensor"
)

// Backend is the CPU backend implementation.
//
// It provides pure Go implementations of all tensor operations, with BLAS
// kernels for the matrix multiplication hot paths and a worker pool for
// batch-parallel ops.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/pai-ml/painet/backend/cpu"
//	    "github.com/pai-ml/painet/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}
