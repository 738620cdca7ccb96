// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D(1, 32, 3, 3, 1, 1, true, backend)  // in_channels=1, out_channels=32, kernel=3x3, stride=1, padding=1, useBias=true
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// MaxPool2D represents a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a new 2D max pooling layer.
//
// Example:
//
//	backend := cpu.New()
//	pool := nn.NewMaxPool2D(2, 2, 0, backend)  // 2x2 window, stride 2, no padding
func NewMaxPool2D[B tensor.Backend](kernelSize, stride, padding int, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(kernelSize, stride, padding, backend)
}

// AvgPool2D represents a 2D average pooling layer.
type AvgPool2D[B tensor.Backend] = nn.AvgPool2D[B]

// NewAvgPool2D creates a new 2D average pooling layer.
func NewAvgPool2D[B tensor.Backend](kernelSize, stride, padding int, backend B) *AvgPool2D[B] {
	return nn.NewAvgPool2D(kernelSize, stride, padding, backend)
}

// BatchNorm2D represents per-channel batch normalization of [N, C, H, W] inputs.
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a batch normalization layer in training mode.
//
// Example:
//
//	bn := nn.NewBatchNorm2D(32, backend)
//	bn.SetTraining(false) // use running statistics
func NewBatchNorm2D[B tensor.Backend](numFeatures int, backend B) *BatchNorm2D[B] {
	return nn.NewBatchNorm2D(numFeatures, backend)
}

// Dropout2D represents channel dropout.
type Dropout2D[B tensor.Backend] = nn.Dropout2D[B]

// NewDropout2D creates a channel dropout layer in training mode.
// Panics unless 0 <= p < 1.
func NewDropout2D[B tensor.Backend](p float64) *Dropout2D[B] {
	return nn.NewDropout2D[B](p)
}

// Activations

// ReLU represents the Rectified Linear Unit activation function.
//
// ReLU(x) = max(0, x)
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// LeakyReLU represents the leaky Rectified Linear Unit.
//
// LeakyReLU(x) = x if x > 0, else negativeSlope * x
type LeakyReLU[B tensor.Backend] = nn.LeakyReLU[B]

// NewLeakyReLU creates a new leaky ReLU activation layer.
//
// Example:
//
//	act := nn.NewLeakyReLU[B](0.01)
func NewLeakyReLU[B tensor.Backend](negativeSlope float64) *LeakyReLU[B] {
	return nn.NewLeakyReLU[B](negativeSlope)
}

// Identity returns its input unchanged.
type Identity[B tensor.Backend] = nn.Identity[B]

// NewIdentity creates a new identity module.
func NewIdentity[B tensor.Backend]() *Identity[B] {
	return nn.NewIdentity[B]()
}

// Containers

// Sequential is a container that chains modules together.
//
// Modules are executed in order, with each module's output
// becoming the next module's input.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a new Sequential container.
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewSequential[B](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// NewMLP builds a fully connected stack: for each output dimension a Linear
// layer followed by its nonlinearity. A nil entry in nonlins means none.
//
// Example:
//
//	head, err := nn.NewMLP(512, []int{100, 10},
//	    []nn.Module[B]{nn.NewReLU[B](), nil}, backend)
func NewMLP[B tensor.Backend](inDim int, dims []int, nonlins []Module[B], backend B) (*Sequential[B], error) {
	return nn.NewMLP(inDim, dims, nonlins, backend)
}

// Initialization

// Xavier initializes weights using Xavier/Glorot uniform initialization.
//
// Example:
//
//	weights := nn.Xavier(784, 128, tensor.Shape{128, 784}, backend)
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// Zeros creates a tensor filled with zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones creates a tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}
