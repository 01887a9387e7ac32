// Package painet implements point-cloud classification networks built on
// position-adaptive convolution: neighborhoods are soft-assigned to a fixed
// set of kernel anchor points, so one weight matrix serves every local point
// layout. The package also provides DGCNN and PointNet baselines sharing the
// same tensor stack.
package painet

import "fmt"

// Config carries the hyperparameters shared by the networks in this
// package.
type Config struct {
	// K is the neighborhood size for graph construction.
	K int
	// KernelSize is the number of kernel anchor points per neighborhood.
	KernelSize int
	// EmbDims is the width of the global embedding before pooling.
	EmbDims int
	// Dropout is the drop probability in the classifier head.
	Dropout float32
	// TempFactor bounds the learned assignment temperature from below at
	// 1/TempFactor.
	TempFactor float32
	// NumClasses is the classifier output width.
	NumClasses int
}

// DefaultConfig mirrors the standard ModelNet40 training setup.
func DefaultConfig() Config {
	return Config{
		K:          20,
		KernelSize: 16,
		EmbDims:    1024,
		Dropout:    0.5,
		TempFactor: 100,
		NumClasses: 40,
	}
}

// Validate reports the first invalid hyperparameter.
func (c Config) Validate() error {
	if c.K < 1 {
		return fmt.Errorf("config: K must be >= 1, got %d", c.K)
	}
	if c.KernelSize < 1 {
		return fmt.Errorf("config: KernelSize must be >= 1, got %d", c.KernelSize)
	}
	if c.EmbDims < 1 {
		return fmt.Errorf("config: EmbDims must be >= 1, got %d", c.EmbDims)
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return fmt.Errorf("config: Dropout must be in [0, 1), got %v", c.Dropout)
	}
	if c.TempFactor <= 0 {
		return fmt.Errorf("config: TempFactor must be positive, got %v", c.TempFactor)
	}
	if c.NumClasses < 1 {
		return fmt.Errorf("config: NumClasses must be >= 1, got %d", c.NumClasses)
	}
	return nil
}
