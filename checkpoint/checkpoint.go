// Copyright 2025 The PaiNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint persists model parameters to disk and restores them
// into identically constructed models.
package checkpoint

import (
	"github.com/pai-ml/painet/internal/checkpoint"
	"github.com/pai-ml/painet/nn"
	"github.com/pai-ml/painet/tensor"
)

// Sentinel errors returned by Load.
var (
	ErrBadMagic             = checkpoint.ErrBadMagic
	ErrChecksumMismatch     = checkpoint.ErrChecksumMismatch
	ErrArchitectureMismatch = checkpoint.ErrArchitectureMismatch
)

// Save writes the parameters to path in slice order.
func Save[B tensor.Backend](path string, params []*nn.Parameter[B]) error {
	return checkpoint.Save(path, params)
}

// Load restores parameters saved by Save into params, which must have the
// same order, names and shapes.
func Load[B tensor.Backend](path string, params []*nn.Parameter[B]) error {
	return checkpoint.Load(path, params)
}
