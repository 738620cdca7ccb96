package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// ResidualBlockSpec configures a residual block.
type ResidualBlockSpec struct {
	InChannels  int
	Channels    []int // output channels of each main-path conv
	KernelSizes []int // one odd kernel per conv
	BatchNorm   bool
	Dropout     float64 // channel dropout probability, 0 disables
	Activation  Activation
}

// Validate checks s without allocating layers.
func (s ResidualBlockSpec) Validate() error {
	if s.InChannels <= 0 {
		return configErrorf("residual.in_channels", "must be positive, got %d", s.InChannels)
	}
	if len(s.Channels) == 0 {
		return configErrorf("residual.channels", "must not be empty")
	}
	if len(s.KernelSizes) != len(s.Channels) {
		return configErrorf("residual.kernel_sizes", "got %d kernel sizes for %d channels",
			len(s.KernelSizes), len(s.Channels))
	}
	if err := positiveAll("residual.channels", s.Channels); err != nil {
		return err
	}
	for i, k := range s.KernelSizes {
		if k <= 0 || k%2 == 0 {
			return configErrorf(fmt.Sprintf("residual.kernel_sizes[%d]", i), "must be a positive odd number, got %d", k)
		}
	}
	if s.Dropout < 0 || s.Dropout >= 1 {
		return configErrorf("residual.dropout", "must be in [0, 1), got %g", s.Dropout)
	}
	return s.Activation.validate("residual.activation")
}

// BottleneckBlockSpec configures a bottleneck residual block: a 1x1 conv
// into the inner width, the inner convs, and a 1x1 conv back to
// InOutChannels. The shortcut is therefore always the identity.
type BottleneckBlockSpec struct {
	InOutChannels    int
	InnerChannels    []int
	InnerKernelSizes []int
	BatchNorm        bool
	Dropout          float64
	Activation       Activation
}

// Validate checks s without allocating layers.
func (s BottleneckBlockSpec) Validate() error {
	if len(s.InnerChannels) == 0 {
		return configErrorf("bottleneck.inner_channels", "must not be empty")
	}
	if len(s.InnerKernelSizes) != len(s.InnerChannels) {
		return configErrorf("bottleneck.inner_kernel_sizes", "got %d kernel sizes for %d channels",
			len(s.InnerKernelSizes), len(s.InnerChannels))
	}
	return s.Expand().Validate()
}

// Expand returns the equivalent residual block spec.
func (s BottleneckBlockSpec) Expand() ResidualBlockSpec {
	channels := make([]int, 0, len(s.InnerChannels)+2)
	kernels := make([]int, 0, len(s.InnerKernelSizes)+2)
	if len(s.InnerChannels) > 0 {
		channels = append(channels, s.InnerChannels[0])
	}
	channels = append(channels, s.InnerChannels...)
	channels = append(channels, s.InOutChannels)
	kernels = append(kernels, 1)
	kernels = append(kernels, s.InnerKernelSizes...)
	kernels = append(kernels, 1)

	return ResidualBlockSpec{
		InChannels:  s.InOutChannels,
		Channels:    channels,
		KernelSizes: kernels,
		BatchNorm:   s.BatchNorm,
		Dropout:     s.Dropout,
		Activation:  s.Activation,
	}
}

// ResidualBlock computes ReLU(main(x) + shortcut(x)).
//
// Every main-path conv keeps the spatial size (stride 1, padding k/2). After
// each conv except the last come dropout, batch normalization and the
// activation, each only when configured. The shortcut is the identity when
// the channel count is unchanged and a bias-free 1x1 conv otherwise.
type ResidualBlock[B tensor.Backend] struct {
	spec     ResidualBlockSpec
	main     *nn.Sequential[B]
	shortcut nn.Module[B]
	relu     *nn.ReLU[B]
}

// NewResidualBlock validates spec and builds the block.
//
// Example:
//
//	block, err := models.NewResidualBlock(models.ResidualBlockSpec{
//	    InChannels:  32,
//	    Channels:    []int{64, 64},
//	    KernelSizes: []int{3, 3},
//	    BatchNorm:   true,
//	}, backend)
func NewResidualBlock[B tensor.Backend](spec ResidualBlockSpec, backend B) (*ResidualBlock[B], error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec.Channels = slices.Clone(spec.Channels)
	spec.KernelSizes = slices.Clone(spec.KernelSizes)

	main := nn.NewSequential[B]()
	last := len(spec.Channels) - 1
	in := spec.InChannels
	for i, out := range spec.Channels {
		k := spec.KernelSizes[i]
		main.Add(nn.NewConv2D(in, out, k, k, 1, k/2, true, backend))
		if i < last {
			if spec.Dropout > 0 {
				main.Add(nn.NewDropout2D[B](spec.Dropout))
			}
			if spec.BatchNorm {
				main.Add(nn.NewBatchNorm2D(out, backend))
			}
			main.Add(newActivation[B](spec.Activation))
		}
		in = out
	}

	var shortcut nn.Module[B] = nn.NewIdentity[B]()
	if spec.InChannels != spec.Channels[last] {
		shortcut = nn.NewConv2D(spec.InChannels, spec.Channels[last], 1, 1, 1, 0, false, backend)
	}

	return &ResidualBlock[B]{
		spec:     spec,
		main:     main,
		shortcut: shortcut,
		relu:     nn.NewReLU[B](),
	}, nil
}

// NewBottleneckBlock validates spec and builds the expanded residual block.
func NewBottleneckBlock[B tensor.Backend](spec BottleneckBlockSpec, backend B) (*ResidualBlock[B], error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return NewResidualBlock(spec.Expand(), backend)
}

// Forward computes ReLU(main(x) + shortcut(x)).
func (r *ResidualBlock[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return r.relu.Forward(r.main.Forward(input).Add(r.shortcut.Forward(input)))
}

// Parameters returns the main-path parameters followed by the shortcut's.
func (r *ResidualBlock[B]) Parameters() []*nn.Parameter[B] {
	params := r.main.Parameters()
	return append(params, r.shortcut.Parameters()...)
}

// Main returns the main path.
func (r *ResidualBlock[B]) Main() *nn.Sequential[B] {
	return r.main
}

// Shortcut returns the shortcut module (Identity or a 1x1 Conv2D).
func (r *ResidualBlock[B]) Shortcut() nn.Module[B] {
	return r.shortcut
}

// HasIdentityShortcut reports whether input and output channels match.
func (r *ResidualBlock[B]) HasIdentityShortcut() bool {
	_, ok := r.shortcut.(*nn.Identity[B])
	return ok
}

// InChannels returns the expected input channel count.
func (r *ResidualBlock[B]) InChannels() int {
	return r.spec.InChannels
}

// OutChannels returns the output channel count.
func (r *ResidualBlock[B]) OutChannels() int {
	return r.spec.Channels[len(r.spec.Channels)-1]
}

// SetTraining propagates the mode to the main path.
func (r *ResidualBlock[B]) SetTraining(training bool) {
	r.main.SetTraining(training)
}

// Training reports whether the main path is in training mode.
func (r *ResidualBlock[B]) Training() bool {
	return r.main.Training()
}

// StateDict returns "main.<i>.<name>" and "shortcut.<name>" entries.
func (r *ResidualBlock[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	nn.MergeStateDict(stateDict, "main", r.main)
	nn.MergeStateDict(stateDict, "shortcut", r.shortcut)
	return stateDict
}

// LoadStateDict loads entries produced by StateDict.
func (r *ResidualBlock[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := nn.LoadChildStateDict(stateDict, "main", r.main); err != nil {
		return fmt.Errorf("residual main path: %w", err)
	}
	if err := nn.LoadChildStateDict(stateDict, "shortcut", r.shortcut); err != nil {
		return fmt.Errorf("residual shortcut: %w", err)
	}
	return nil
}

// String describes both paths.
func (r *ResidualBlock[B]) String() string {
	var sb strings.Builder
	sb.WriteString("ResidualBlock(\n")
	fmt.Fprintf(&sb, "  (main): %s\n", strings.ReplaceAll(r.main.String(), "\n", "\n  "))
	fmt.Fprintf(&sb, "  (shortcut): %v\n", r.shortcut)
	sb.WriteString(")")
	return sb.String()
}
