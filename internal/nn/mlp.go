package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// NewMLP builds a fully connected stack: for each output dimension a Linear
// layer followed by its nonlinearity. A nil entry in nonlins means no
// nonlinearity after that layer.
//
// Example (two hidden layers with ReLU, raw logits at the end):
//
//	relu := func() nn.Module[B] { return nn.NewReLU[B]() }
//	head, err := nn.NewMLP(512, []int{100, 50, 10},
//	    []nn.Module[B]{relu(), relu(), nil}, backend)
//
// Returns an error when dims is empty, the lengths differ or a dimension is
// not positive.
func NewMLP[B tensor.Backend](inDim int, dims []int, nonlins []Module[B], backend B) (*Sequential[B], error) {
	if inDim <= 0 {
		return nil, fmt.Errorf("mlp: input dimension must be positive, got %d", inDim)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("mlp: at least one layer dimension is required")
	}
	if len(dims) != len(nonlins) {
		return nil, fmt.Errorf("mlp: %d dims but %d nonlinearities", len(dims), len(nonlins))
	}
	for i, d := range dims {
		if d <= 0 {
			return nil, fmt.Errorf("mlp: dimension %d must be positive, got %d", i, d)
		}
	}

	seq := NewSequential[B]()
	prev := inDim
	for i, d := range dims {
		seq.Add(NewLinear(prev, d, backend))
		if nonlins[i] != nil {
			seq.Add(nonlins[i])
		}
		prev = d
	}
	return seq, nil
}
