// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential[B](
//	    nn.NewConv2D(1, 8, 3, 3, 1, 1, true, backend),
//	    nn.NewReLU[B](),
//	    nn.NewMaxPool2D(2, 2, 0, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] = nn.Module[B]

// Trainable is implemented by modules whose forward pass differs between
// training and inference.
type Trainable = nn.Trainable

// Stateful is implemented by modules with tensors worth persisting.
type Stateful = nn.Stateful

// SetTraining switches m between training and inference mode.
func SetTraining[B tensor.Backend](m Module[B], training bool) {
	nn.SetTraining(m, training)
}

// IsTraining reports whether m is in training mode.
func IsTraining[B tensor.Backend](m Module[B]) bool {
	return nn.IsTraining(m)
}

// NumParameters returns the total number of scalar parameters of m.
func NumParameters[B tensor.Backend](m Module[B]) int {
	return nn.NumParameters(m)
}

// SaveState writes m's state dictionary to a SafeTensors file.
//
// Example:
//
//	err := nn.SaveState("features.safetensors", features, map[string]string{"arch": "vgg-ish"})
func SaveState(path string, m Stateful, metadata map[string]string) error {
	return nn.SaveState(path, m, metadata)
}

// LoadState reads a SafeTensors file into m and returns its metadata.
// The file must hold exactly the entries of m.StateDict().
func LoadState(path string, m Stateful) (map[string]string, error) {
	return nn.LoadState(path, m)
}
