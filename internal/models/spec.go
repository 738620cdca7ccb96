package models

import (
	"fmt"
	"slices"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// ActivationKind names a supported activation function.
type ActivationKind string

// Supported activations.
const (
	ActivationReLU      ActivationKind = "relu"
	ActivationLeakyReLU ActivationKind = "lrelu"
)

// PoolingKind names a supported pooling operation.
type PoolingKind string

// Supported pooling operations.
const (
	PoolingMax PoolingKind = "max"
	PoolingAvg PoolingKind = "avg"
)

// DefaultNegativeSlope is the leaky ReLU slope used when none is given.
const DefaultNegativeSlope = 0.01

// ConvParams are the convolution settings shared by every plain conv stage.
type ConvParams struct {
	KernelSize int `yaml:"kernel_size"`
	Stride     int `yaml:"stride"`  // 0 means 1
	Padding    int `yaml:"padding"` // zero padding on each side
}

// Validate checks the normalized conv settings.
func (c ConvParams) Validate() error {
	if c.Stride == 0 {
		c.Stride = 1
	}
	if c.KernelSize <= 0 {
		return configErrorf("conv.kernel_size", "must be positive, got %d", c.KernelSize)
	}
	if c.Stride <= 0 {
		return configErrorf("conv.stride", "must be positive, got %d", c.Stride)
	}
	if c.Padding < 0 {
		return configErrorf("conv.padding", "must not be negative, got %d", c.Padding)
	}
	return nil
}

// Activation selects an activation function and its parameters.
type Activation struct {
	Kind          ActivationKind `yaml:"kind"`           // empty means relu
	NegativeSlope float64        `yaml:"negative_slope"` // lrelu only; 0 means DefaultNegativeSlope
}

// Pooling selects a pooling operation and its parameters.
type Pooling struct {
	Kind       PoolingKind `yaml:"kind"` // empty means max
	KernelSize int         `yaml:"kernel_size"`
	Stride     int         `yaml:"stride"`  // 0 means KernelSize
	Padding    int         `yaml:"padding"` // at most KernelSize/2
}

// ArchitectureSpec describes a convolutional classifier:
//
//	[(CONV -> ACT)*P -> POOL]*(N/P) -> (FC -> ACT)*M -> FC
//
// Residual stage builders reinterpret each group of P convolutions as one
// residual block; see ResidualStages.
type ArchitectureSpec struct {
	InSize     [3]int // channels, height, width
	OutClasses int
	Channels   []int // output channels of each conv, length N >= 1
	PoolEvery  int   // P >= 1
	HiddenDims []int // classifier hidden widths, length M >= 1
	Conv       ConvParams
	Activation Activation
	Pooling    Pooling
}

// Clone returns a deep copy of s. Builders work on clones so callers may
// reuse and modify their spec values freely.
func (s ArchitectureSpec) Clone() ArchitectureSpec {
	s.Channels = slices.Clone(s.Channels)
	s.HiddenDims = slices.Clone(s.HiddenDims)
	return s
}

// Normalized returns a copy of s with zero-valued optional fields replaced by
// their defaults.
func (s ArchitectureSpec) Normalized() ArchitectureSpec {
	s = s.Clone()
	if s.Conv.Stride == 0 {
		s.Conv.Stride = 1
	}
	s.Activation = s.Activation.normalized()
	s.Pooling = s.Pooling.normalized()
	return s
}

// Validate checks s without building anything. Conv is not checked here:
// only plain conv stages read it (see ConvParams.Validate).
func (s ArchitectureSpec) Validate() error {
	s = s.Normalized()

	for i, d := range s.InSize {
		if d <= 0 {
			return configErrorf(fmt.Sprintf("in_size[%d]", i), "must be positive, got %d", d)
		}
	}
	if s.OutClasses <= 0 {
		return configErrorf("out_classes", "must be positive, got %d", s.OutClasses)
	}
	if len(s.Channels) == 0 {
		return configErrorf("channels", "must not be empty")
	}
	if err := positiveAll("channels", s.Channels); err != nil {
		return err
	}
	if s.PoolEvery <= 0 {
		return configErrorf("pool_every", "must be positive, got %d", s.PoolEvery)
	}
	if len(s.HiddenDims) == 0 {
		return configErrorf("hidden_dims", "must not be empty")
	}
	if err := positiveAll("hidden_dims", s.HiddenDims); err != nil {
		return err
	}
	if err := s.Activation.validate("activation"); err != nil {
		return err
	}
	return s.Pooling.validate("pooling")
}

func positiveAll(field string, values []int) error {
	for i, v := range values {
		if v <= 0 {
			return configErrorf(fmt.Sprintf("%s[%d]", field, i), "must be positive, got %d", v)
		}
	}
	return nil
}

func (a Activation) normalized() Activation {
	if a.Kind == "" {
		a.Kind = ActivationReLU
	}
	if a.Kind == ActivationLeakyReLU && a.NegativeSlope == 0 {
		a.NegativeSlope = DefaultNegativeSlope
	}
	return a
}

func (a Activation) validate(field string) error {
	switch a.normalized().Kind {
	case ActivationReLU, ActivationLeakyReLU:
		return nil
	default:
		return configErrorf(field+".kind", "unsupported activation %q (want relu or lrelu)", a.Kind)
	}
}

// String returns a short description such as "lrelu(0.01)".
func (a Activation) String() string {
	a = a.normalized()
	if a.Kind == ActivationLeakyReLU {
		return fmt.Sprintf("lrelu(%g)", a.NegativeSlope)
	}
	return string(a.Kind)
}

func (p Pooling) normalized() Pooling {
	if p.Kind == "" {
		p.Kind = PoolingMax
	}
	if p.Stride == 0 {
		p.Stride = p.KernelSize
	}
	return p
}

func (p Pooling) validate(field string) error {
	p = p.normalized()
	switch p.Kind {
	case PoolingMax, PoolingAvg:
	default:
		return configErrorf(field+".kind", "unsupported pooling %q (want max or avg)", p.Kind)
	}
	if p.KernelSize <= 0 {
		return configErrorf(field+".kernel_size", "must be positive, got %d", p.KernelSize)
	}
	if p.Stride <= 0 {
		return configErrorf(field+".stride", "must be positive, got %d", p.Stride)
	}
	if p.Padding < 0 || 2*p.Padding > p.KernelSize {
		return configErrorf(field+".padding", "must be in [0, %d], got %d", p.KernelSize/2, p.Padding)
	}
	return nil
}

// String returns a short description such as "max(2)".
func (p Pooling) String() string {
	p = p.normalized()
	return fmt.Sprintf("%s(%d)", p.Kind, p.KernelSize)
}

// newActivation instantiates a validated activation.
func newActivation[B tensor.Backend](a Activation) nn.Module[B] {
	a = a.normalized()
	if a.Kind == ActivationLeakyReLU {
		return nn.NewLeakyReLU[B](a.NegativeSlope)
	}
	return nn.NewReLU[B]()
}

// newPooling instantiates a validated pooling layer.
func newPooling[B tensor.Backend](p Pooling, backend B) nn.Module[B] {
	p = p.normalized()
	if p.Kind == PoolingAvg {
		return nn.NewAvgPool2D(p.KernelSize, p.Stride, p.Padding, backend)
	}
	return nn.NewMaxPool2D(p.KernelSize, p.Stride, p.Padding, backend)
}
