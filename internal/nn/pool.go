package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// MaxPool2D is a 2D max pooling layer.
//
// Max pooling reduces spatial dimensions by taking the maximum value
// in each window. It has no learnable parameters.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height + 2*padding - kernelSize) / stride + 1
//	out_width = (width + 2*padding - kernelSize) / stride + 1
//
// Example:
//
//	pool := nn.NewMaxPool2D(2, 2, 0, backend)
//	output := pool.Forward(input) // [32, 64, 28, 28] -> [32, 64, 14, 14]
type MaxPool2D[B tensor.Backend] struct {
	pool2d[B]
}

// NewMaxPool2D creates a new 2D max pooling layer.
//
// Parameters:
//   - kernelSize: Size of pooling window (square)
//   - stride: Stride for pooling (typically same as kernelSize for non-overlapping)
//   - padding: Implicit padding on each side; at most kernelSize/2
//   - backend: Backend for computation
func NewMaxPool2D[B tensor.Backend](kernelSize, stride, padding int, backend B) *MaxPool2D[B] {
	return &MaxPool2D[B]{newPool2D("maxpool2d", kernelSize, stride, padding, backend)}
}

// Forward applies max pooling.
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	m.check(input)
	out := m.backend.MaxPool2D(input.Raw(), m.kernelSize, m.stride, m.padding)
	return tensor.New[float32, B](out, m.backend)
}

// String returns a string representation of the layer.
func (m *MaxPool2D[B]) String() string {
	return fmt.Sprintf("MaxPool2D(kernel_size=%d, stride=%d, padding=%d)", m.kernelSize, m.stride, m.padding)
}

// AvgPool2D is a 2D average pooling layer.
//
// Padded cells count as zeros in every window's average.
type AvgPool2D[B tensor.Backend] struct {
	pool2d[B]
}

// NewAvgPool2D creates a new 2D average pooling layer.
func NewAvgPool2D[B tensor.Backend](kernelSize, stride, padding int, backend B) *AvgPool2D[B] {
	return &AvgPool2D[B]{newPool2D("avgpool2d", kernelSize, stride, padding, backend)}
}

// Forward applies average pooling.
func (a *AvgPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	a.check(input)
	out := a.backend.AvgPool2D(input.Raw(), a.kernelSize, a.stride, a.padding)
	return tensor.New[float32, B](out, a.backend)
}

// String returns a string representation of the layer.
func (a *AvgPool2D[B]) String() string {
	return fmt.Sprintf("AvgPool2D(kernel_size=%d, stride=%d, padding=%d)", a.kernelSize, a.stride, a.padding)
}

// pool2d holds the window geometry shared by the pooling layers.
type pool2d[B tensor.Backend] struct {
	name       string
	kernelSize int
	stride     int
	padding    int
	backend    B
}

func newPool2D[B tensor.Backend](name string, kernelSize, stride, padding int, backend B) pool2d[B] {
	if kernelSize <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel size %d", name, kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("%s: invalid stride %d", name, stride))
	}
	if padding < 0 || 2*padding > kernelSize {
		panic(fmt.Sprintf("%s: padding %d must be in [0, %d]", name, padding, kernelSize/2))
	}
	return pool2d[B]{
		name:       name,
		kernelSize: kernelSize,
		stride:     stride,
		padding:    padding,
		backend:    backend,
	}
}

func (p *pool2d[B]) check(input *tensor.Tensor[float32, B]) {
	if shape := input.Shape(); len(shape) != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,C,H,W], got %dD", p.name, len(shape)))
	}
}

// Parameters returns nil (pooling has no trainable parameters).
func (p *pool2d[B]) Parameters() []*Parameter[B] {
	return nil
}

// KernelSize returns the pooling window size.
func (p *pool2d[B]) KernelSize() int {
	return p.kernelSize
}

// Stride returns the pooling stride.
func (p *pool2d[B]) Stride() int {
	return p.stride
}

// Padding returns the implicit padding.
func (p *pool2d[B]) Padding() int {
	return p.padding
}

// ComputeOutputSize computes output spatial dimensions for given input size.
func (p *pool2d[B]) ComputeOutputSize(inputH, inputW int) [2]int {
	outH := (inputH+2*p.padding-p.kernelSize)/p.stride + 1
	outW := (inputW+2*p.padding-p.kernelSize)/p.stride + 1
	return [2]int{outH, outW}
}
