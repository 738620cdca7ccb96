package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/rng"
	"github.com/born-ml/convnet/internal/tensor"
)

// Dropout2D zeroes whole channels of a [N, C, H, W] input with probability p
// and scales the survivors by 1/(1-p).
//
// In inference mode, or when p is 0, Forward returns its input unchanged and
// draws nothing from the random generator. New layers start in training mode.
type Dropout2D[B tensor.Backend] struct {
	p        float64
	training bool
}

// NewDropout2D creates a channel dropout layer. Panics unless 0 <= p < 1.
func NewDropout2D[B tensor.Backend](p float64) *Dropout2D[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("dropout2d: probability %g must be in [0, 1)", p))
	}
	return &Dropout2D[B]{p: p, training: true}
}

// Forward applies the channel mask.
func (d *Dropout2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("dropout2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if !d.training || d.p == 0 {
		return input
	}

	mask := tensor.Zeros[float32](tensor.Shape{shape[0], shape[1], 1, 1}, input.Backend())
	scale := float32(1 / (1 - d.p))
	data := mask.Data()
	for i := range data {
		if rng.Float64() >= d.p {
			data[i] = scale
		}
	}
	return input.Mul(mask)
}

// Parameters returns nil.
func (d *Dropout2D[B]) Parameters() []*Parameter[B] {
	return nil
}

// P returns the drop probability.
func (d *Dropout2D[B]) P() float64 {
	return d.p
}

// SetTraining enables or disables dropout.
func (d *Dropout2D[B]) SetTraining(training bool) {
	d.training = training
}

// Training reports whether dropout is active.
func (d *Dropout2D[B]) Training() bool {
	return d.training
}

// String returns a string representation of the layer.
func (d *Dropout2D[B]) String() string {
	return fmt.Sprintf("Dropout2D(p=%g)", d.p)
}
