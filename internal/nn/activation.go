package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
//
// Example:
//
//	relu := nn.NewReLU[Backend]()
//	output := relu.Forward(input)  // All negative values become 0
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	return tensor.New[float32, B](backend.ReLU(input.Raw()), backend)
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// String returns a string representation of the module.
func (r *ReLU[B]) String() string {
	return "ReLU()"
}

// LeakyReLU applies f(x) = x for x > 0 and negative_slope*x otherwise.
type LeakyReLU[B tensor.Backend] struct {
	negativeSlope float64
}

// NewLeakyReLU creates a new LeakyReLU activation module.
func NewLeakyReLU[B tensor.Backend](negativeSlope float64) *LeakyReLU[B] {
	return &LeakyReLU[B]{negativeSlope: negativeSlope}
}

// Forward applies the leaky rectifier.
func (l *LeakyReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	return tensor.New[float32, B](backend.LeakyReLU(input.Raw(), l.negativeSlope), backend)
}

// Parameters returns nil.
func (l *LeakyReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// NegativeSlope returns the slope applied to non-positive inputs.
func (l *LeakyReLU[B]) NegativeSlope() float64 {
	return l.negativeSlope
}

// String returns a string representation of the module.
func (l *LeakyReLU[B]) String() string {
	return fmt.Sprintf("LeakyReLU(negative_slope=%g)", l.negativeSlope)
}

// Identity returns its input unchanged.
type Identity[B tensor.Backend] struct{}

// NewIdentity creates a new Identity module.
func NewIdentity[B tensor.Backend]() *Identity[B] {
	return &Identity[B]{}
}

// Forward returns input.
func (i *Identity[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input
}

// Parameters returns nil.
func (i *Identity[B]) Parameters() []*Parameter[B] {
	return nil
}

// String returns a string representation of the module.
func (i *Identity[B]) String() string {
	return "Identity()"
}
