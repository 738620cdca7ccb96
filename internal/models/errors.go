package models

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrInvalidConfig is matched by every *ConfigError.
	ErrInvalidConfig = errors.New("invalid architecture configuration")

	// ErrShape is matched by every *ShapeError.
	ErrShape = errors.New("shape inference failed")
)

// ConfigError reports an architecture specification that cannot be built.
// It is returned before any layer is allocated.
type ConfigError struct {
	Field  string // Offending field, e.g. "channels" or "residual.kernel_sizes[1]"
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ShapeError reports a failure raised by a layer primitive while the feature
// extractor was probed with a dummy input, typically a spatial size that
// dropped to zero or a kernel larger than its input.
type ShapeError struct {
	Stage int    // Index of the failing stage in the pipeline
	Desc  string // Description of the failing stage
	Err   error  // Failure raised by the primitive
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%v at stage %d (%s): %v", ErrShape, e.Stage, e.Desc, e.Err)
}

// Unwrap returns the underlying primitive failure.
func (e *ShapeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrShape.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}
