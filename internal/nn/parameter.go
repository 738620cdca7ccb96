package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters typically represent weights and biases of layers. Gradients are
// not tracked: this package only runs forward passes.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
type Parameter[B tensor.Backend] struct {
	name   string                     // Parameter name (e.g., "weight", "bias")
	tensor *tensor.Tensor[float32, B] // The parameter tensor
}

// NewParameter creates a new parameter.
//
// The parameter tensor should be initialized before creating the Parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Load copies raw into the parameter after checking shape and dtype.
func (p *Parameter[B]) Load(raw *tensor.RawTensor) error {
	return loadInto(p.name, p.tensor, raw)
}

// loadInto copies raw into dst, validating shape and dtype.
func loadInto[B tensor.Backend](name string, dst *tensor.Tensor[float32, B], raw *tensor.RawTensor) error {
	if raw == nil {
		return fmt.Errorf("missing %s in state dict", name)
	}
	if !raw.Shape().Equal(dst.Shape()) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, dst.Shape(), raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %v", name, raw.DType())
	}
	copy(dst.Data(), raw.AsFloat32())
	return nil
}
