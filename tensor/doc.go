// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the type-safe tensors the convnet classifiers
// operate on.
//
// # Overview
//
// Tensors are generic over their element type and their compute backend:
//   - Tensor[T, B]: float32 or float64 data computed by backend B
//   - RawTensor: untyped byte buffer with shape and strides
//   - Backend: the operations a compute backend must provide
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/convnet/backend/cpu"
//	    "github.com/born-ml/convnet/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{3, 4}, backend)
//	    z := x.MatMul(y) // [2, 4]
//	}
//
// # Immutability
//
// Every operation returns a new tensor and leaves its operands unchanged, so
// one tensor may feed several consumers (both paths of a residual block, for
// example).
package tensor
