// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/convnet/internal/tensor"

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations and never
// modify their inputs.
//
// Implementations:
//   - backend/cpu: Pure Go, with GEMM from gonum's BLAS
//
// Example:
//
//	import (
//	    "github.com/born-ml/convnet/backend/cpu"
//	    "github.com/born-ml/convnet/tensor"
//	)
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y) // Uses backend.Add under the hood
type Backend interface {
	// Element-wise binary operations with broadcasting.
	Add(a, b *RawTensor) *RawTensor // Element-wise addition.
	Mul(a, b *RawTensor) *RawTensor // Element-wise multiplication.

	// Matrix operations.
	MatMul(a, b *RawTensor) *RawTensor // Matrix multiplication.

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor // Reshape tensor.
	Transpose(t *RawTensor, axes ...int) *RawTensor  // Transpose dimensions.

	// Convolutional operations.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor        // 2D convolution.
	MaxPool2D(input *RawTensor, kernelSize, stride, padding int) *RawTensor // 2D max pooling.
	AvgPool2D(input *RawTensor, kernelSize, stride, padding int) *RawTensor // 2D average pooling.

	// Activation functions.
	ReLU(x *RawTensor) *RawTensor                             // max(0, x).
	LeakyReLU(x *RawTensor, negativeSlope float64) *RawTensor // x or slope*x.

	// Normalization.
	BatchNorm2D(x, mean, variance, gamma, beta *RawTensor, eps float64) *RawTensor // Per-channel affine normalization.
	ChannelStats(x *RawTensor) (mean, variance *RawTensor)                          // Per-channel batch statistics.

	// Metadata.
	Name() string   // Backend name (e.g., "CPU").
	Device() Device // Device type.
}

// Compile-time check that internal Backend implements public Backend.
var _ Backend = tensor.Backend(nil)
