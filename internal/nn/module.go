// Package nn implements the neural network layer primitives used by the
// convnet classifiers.
//
// This package provides building blocks for constructing networks:
//   - Module interface: Base interface for all NN components
//   - Parameter: Named weight tensors
//   - Layers: Conv2D, Linear, MaxPool2D, AvgPool2D, BatchNorm2D, Dropout2D
//   - Activations: ReLU, LeakyReLU, Identity
//   - Sequential: Container for stacking layers
//   - NewMLP: Fully connected stack builder
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
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
//	model := nn.NewSequential[Backend](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[Backend](),
//	    nn.NewLinear(128, 10, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// Forward panics with an "<op>: <reason>" message when the input
	// shape is incompatible with the module.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	//
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*Parameter[B]
}

// Trainable is implemented by modules whose forward pass differs between
// training and inference (dropout, batch normalization) and by containers
// that hold such modules.
type Trainable interface {
	SetTraining(training bool)
	Training() bool
}

// Stateful is implemented by modules that carry tensors worth persisting:
// parameters and non-trainable buffers such as batch-norm running statistics.
type Stateful interface {
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// SetTraining switches m (and everything inside it) between training and
// inference mode. Modules that do not implement Trainable are unaffected.
func SetTraining[B tensor.Backend](m Module[B], training bool) {
	if t, ok := m.(Trainable); ok {
		t.SetTraining(training)
	}
}

// IsTraining reports whether m is in training mode. Modules without a mode
// report false.
func IsTraining[B tensor.Backend](m Module[B]) bool {
	if t, ok := m.(Trainable); ok {
		return t.Training()
	}
	return false
}

// NumParameters returns the total number of scalar parameters of m.
func NumParameters[B tensor.Backend](m Module[B]) int {
	n := 0
	for _, p := range m.Parameters() {
		n += p.Tensor().NumElements()
	}
	return n
}
