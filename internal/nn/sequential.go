package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/convnet/internal/tensor"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input, creating a
// sequential pipeline of transformations.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[Backend](),
//	    nn.NewLinear(128, 10, backend),
//	)
//
//	output := model.Forward(input)
//
// This is equivalent to:
//
//	h1 := linear1.Forward(input)
//	h2 := relu.Forward(h1)
//	output := linear2.Forward(h2)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{
		modules: modules,
	}
}

// Forward applies all modules in sequence.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input
	for _, module := range s.modules {
		output = module.Forward(output)
	}
	return output
}

// Parameters returns all trainable parameters from all modules, in order.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// Add appends a module to the sequence.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// Modules returns the contained modules.
func (s *Sequential[B]) Modules() []Module[B] {
	return s.modules
}

// SetTraining propagates the mode to every child.
func (s *Sequential[B]) SetTraining(training bool) {
	for _, module := range s.modules {
		SetTraining(module, training)
	}
}

// Training reports whether any child is in training mode.
func (s *Sequential[B]) Training() bool {
	for _, module := range s.modules {
		if IsTraining(module) {
			return true
		}
	}
	return false
}

// StateDict returns a map of parameter names to raw tensors.
//
// Entries are prefixed with their module index (e.g., "0.weight", "0.bias",
// "2.weight") to avoid name collisions.
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, module := range s.modules {
		MergeStateDict(stateDict, fmt.Sprintf("%d", i), module)
	}
	return stateDict
}

// LoadStateDict loads parameters from a state dictionary.
//
// Entries must be prefixed with their module index (e.g., "0.weight").
func (s *Sequential[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, module := range s.modules {
		if err := LoadChildStateDict(stateDict, fmt.Sprintf("%d", i), module); err != nil {
			return fmt.Errorf("failed to load module %d: %w", i, err)
		}
	}
	return nil
}

// String lists the children one per line.
func (s *Sequential[B]) String() string {
	var sb strings.Builder
	sb.WriteString("Sequential(\n")
	for i, module := range s.modules {
		fmt.Fprintf(&sb, "  (%d): %s\n", i, indent(describe(module)))
	}
	sb.WriteString(")")
	return sb.String()
}

// MergeStateDict copies child's state into dst under "prefix.".
// Children that are not Stateful contribute nothing.
func MergeStateDict(dst map[string]*tensor.RawTensor, prefix string, child any) {
	st, ok := child.(Stateful)
	if !ok {
		return
	}
	for name, raw := range st.StateDict() {
		dst[prefix+"."+name] = raw
	}
}

// LoadChildStateDict loads the "prefix."-scoped entries of stateDict into child.
func LoadChildStateDict(stateDict map[string]*tensor.RawTensor, prefix string, child any) error {
	st, ok := child.(Stateful)
	if !ok {
		return nil
	}
	prefix += "."
	scoped := make(map[string]*tensor.RawTensor)
	for key, raw := range stateDict {
		if name, found := strings.CutPrefix(key, prefix); found {
			scoped[name] = raw
		}
	}
	return st.LoadStateDict(scoped)
}

func describe(m any) string {
	if s, ok := m.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", m)
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n  ")
}
