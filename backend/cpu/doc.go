// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Im2col convolutions with GEMM from gonum's BLAS
//   - Max and average pooling with zero padding
//   - ReLU, leaky ReLU and per-channel batch normalization
//   - Float32 and Float64 support
//   - NumPy-compatible broadcasting for element-wise operations
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/convnet/backend/cpu"
//	    "github.com/born-ml/convnet/models"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    clf, err := models.NewCNN(spec, backend)
//	    ...
//	}
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation
// allocates its result and does not share mutable state.
package cpu
