package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec() ArchitectureSpec {
	return ArchitectureSpec{
		InSize:     [3]int{3, 32, 32},
		OutClasses: 5,
		Channels:   []int{16, 32},
		PoolEvery:  2,
		HiddenDims: []int{10},
		Conv:       ConvParams{KernelSize: 3, Stride: 1, Padding: 1},
		Pooling:    Pooling{KernelSize: 2},
	}
}

func TestArchitectureSpec_Normalized(t *testing.T) {
	spec := validSpec()
	spec.Conv.Stride = 0
	spec.Activation = Activation{Kind: ActivationLeakyReLU}

	n := spec.Normalized()
	assert.Equal(t, 1, n.Conv.Stride)
	assert.Equal(t, DefaultNegativeSlope, n.Activation.NegativeSlope)
	assert.Equal(t, PoolingMax, n.Pooling.Kind)
	assert.Equal(t, 2, n.Pooling.Stride)

	n.Channels[0] = 99
	assert.Equal(t, 16, spec.Channels[0])

	assert.Equal(t, ActivationReLU, ArchitectureSpec{}.Normalized().Activation.Kind)
}

func TestArchitectureSpec_Validate(t *testing.T) {
	require.NoError(t, validSpec().Validate())

	tests := []struct {
		name   string
		mutate func(*ArchitectureSpec)
		field  string
	}{
		{"zero input height", func(s *ArchitectureSpec) { s.InSize[1] = 0 }, "in_size[1]"},
		{"no classes", func(s *ArchitectureSpec) { s.OutClasses = 0 }, "out_classes"},
		{"empty channels", func(s *ArchitectureSpec) { s.Channels = nil }, "channels"},
		{"negative channel", func(s *ArchitectureSpec) { s.Channels[1] = -1 }, "channels[1]"},
		{"zero pool every", func(s *ArchitectureSpec) { s.PoolEvery = 0 }, "pool_every"},
		{"empty hidden dims", func(s *ArchitectureSpec) { s.HiddenDims = []int{} }, "hidden_dims"},
		{"unsupported activation", func(s *ArchitectureSpec) { s.Activation.Kind = "tanh" }, "activation.kind"},
		{"unsupported pooling", func(s *ArchitectureSpec) { s.Pooling.Kind = "min" }, "pooling.kind"},
		{"zero pool kernel", func(s *ArchitectureSpec) { s.Pooling.KernelSize = 0 }, "pooling.kernel_size"},
		{"pool padding too large", func(s *ArchitectureSpec) { s.Pooling.Padding = 2 }, "pooling.padding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(&spec)

			err := spec.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestConvParams_Validate(t *testing.T) {
	require.NoError(t, ConvParams{KernelSize: 3}.Validate())

	tests := []struct {
		name  string
		conv  ConvParams
		field string
	}{
		{"zero kernel", ConvParams{}, "conv.kernel_size"},
		{"negative stride", ConvParams{KernelSize: 3, Stride: -1}, "conv.stride"},
		{"negative padding", ConvParams{KernelSize: 3, Padding: -1}, "conv.padding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cerr *ConfigError
			require.True(t, errors.As(tt.conv.Validate(), &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestArchitectureSpec_ValidateIgnoresConv(t *testing.T) {
	spec := validSpec()
	spec.Conv = ConvParams{}
	assert.NoError(t, spec.Validate())
}

func TestActivationAndPooling_String(t *testing.T) {
	assert.Equal(t, "relu", Activation{}.String())
	assert.Equal(t, "lrelu(0.01)", Activation{Kind: ActivationLeakyReLU}.String())
	assert.Equal(t, "lrelu(0.2)", Activation{Kind: ActivationLeakyReLU, NegativeSlope: 0.2}.String())
	assert.Equal(t, "avg(3)", Pooling{Kind: PoolingAvg, KernelSize: 3}.String())
}

func TestDims_Tracking(t *testing.T) {
	d := Dims{Height: 32, Width: 28}

	// No +1 term: a same-padded 3x3 conv shrinks the tracked size by one.
	assert.Equal(t, Dims{Height: 31, Width: 27}, d.afterConv(ConvParams{KernelSize: 3, Stride: 1, Padding: 1}))
	assert.Equal(t, Dims{Height: 13, Width: 11}, d.afterConv(ConvParams{KernelSize: 5, Stride: 2}))
	assert.Equal(t, Dims{Height: 10, Width: 9}, d.afterPool(3))
	assert.Equal(t, "32x28", d.String())

	assert.Equal(t, -1, floorDiv(-1, 2))
	assert.Equal(t, 2, floorDiv(5, 2))
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Field: "channels", Reason: "must not be empty"}
	assert.Equal(t, "invalid architecture configuration: channels: must not be empty", err.Error())
	assert.False(t, errors.Is(err, ErrShape))
}

func TestShapeError_Unwrap(t *testing.T) {
	cause := errors.New("maxpool2d: kernel size 2 too large for input 1x1")
	err := &ShapeError{Stage: 5, Desc: "pool max(2) s2 p0", Err: cause}

	assert.ErrorIs(t, err, ErrShape)
	assert.ErrorIs(t, err, cause)
	assert.False(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "at stage 5 (pool max(2) s2 p0)")
}
