// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layer primitives the convnet classifiers are
// assembled from.
//
// # Overview
//
//   - Module: Forward plus Parameters, implemented by every layer
//   - Layers: Conv2D, Linear, MaxPool2D, AvgPool2D, BatchNorm2D, Dropout2D
//   - Activations: ReLU, LeakyReLU, Identity
//   - Containers: Sequential, and NewMLP for fully connected stacks
//   - Persistence: StateDict naming plus SaveState and LoadState
//
// # Basic Usage
//
//	type B = *cpu.Backend
//	backend := cpu.New()
//
//	features := nn.NewSequential[B](
//	    nn.NewConv2D(3, 16, 3, 3, 1, 1, true, backend),
//	    nn.NewBatchNorm2D(16, backend),
//	    nn.NewLeakyReLU[B](0.01),
//	    nn.NewMaxPool2D(2, 2, 0, backend),
//	)
//	nn.SetTraining[B](features, false)
//
// # Training and Inference
//
// BatchNorm2D and Dropout2D start in training mode. Containers forward
// SetTraining to their children. There is no automatic differentiation: the
// modules compute forward passes only.
package nn
