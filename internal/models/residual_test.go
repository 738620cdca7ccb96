package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/backend/cpu"
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

type Backend = *cpu.CPUBackend

func moduleTypes(s *nn.Sequential[Backend]) []string {
	types := make([]string, 0, s.Len())
	for _, m := range s.Modules() {
		types = append(types, fmt.Sprintf("%T", m))
	}
	return types
}

func paramShapes(params []*nn.Parameter[Backend]) []tensor.Shape {
	shapes := make([]tensor.Shape, 0, len(params))
	for _, p := range params {
		shapes = append(shapes, p.Tensor().Shape())
	}
	return shapes
}

func TestResidualBlock_PreservesSpatialSize(t *testing.T) {
	backend := cpu.New()
	block, err := NewResidualBlock(ResidualBlockSpec{
		InChannels:  3,
		Channels:    []int{8, 4, 16},
		KernelSizes: []int{3, 5, 1},
		BatchNorm:   true,
		Dropout:     0.2,
	}, backend)
	require.NoError(t, err)

	for _, training := range []bool{true, false} {
		block.SetTraining(training)
		out := block.Forward(tensor.Ones[float32](tensor.Shape{2, 3, 9, 7}, backend))
		assert.Equal(t, tensor.Shape{2, 16, 9, 7}, out.Shape())
	}
	assert.Equal(t, 3, block.InChannels())
	assert.Equal(t, 16, block.OutChannels())
}

func TestResidualBlock_MainPathOrder(t *testing.T) {
	block, err := NewResidualBlock(ResidualBlockSpec{
		InChannels:  3,
		Channels:    []int{8, 16},
		KernelSizes: []int{3, 3},
		BatchNorm:   true,
		Dropout:     0.5,
		Activation:  Activation{Kind: ActivationLeakyReLU},
	}, cpu.New())
	require.NoError(t, err)

	main := block.Main()
	require.Equal(t, 5, main.Len())
	assert.IsType(t, &nn.Conv2D[Backend]{}, main.Module(0))
	assert.IsType(t, &nn.Dropout2D[Backend]{}, main.Module(1))
	assert.IsType(t, &nn.BatchNorm2D[Backend]{}, main.Module(2))
	assert.IsType(t, &nn.LeakyReLU[Backend]{}, main.Module(3))
	assert.IsType(t, &nn.Conv2D[Backend]{}, main.Module(4))

	plain, err := NewResidualBlock(ResidualBlockSpec{
		InChannels:  3,
		Channels:    []int{8, 16},
		KernelSizes: []int{3, 3},
	}, cpu.New())
	require.NoError(t, err)
	assert.Equal(t, 3, plain.Main().Len(), "conv, activation, conv")
}

func TestResidualBlock_SameSizePadding(t *testing.T) {
	block, err := NewResidualBlock(ResidualBlockSpec{
		InChannels:  2,
		Channels:    []int{4, 4},
		KernelSizes: []int{5, 1},
	}, cpu.New())
	require.NoError(t, err)

	first := block.Main().Module(0).(*nn.Conv2D[Backend])
	assert.Equal(t, 2, first.Padding())
	assert.Equal(t, 1, first.Stride())
	assert.NotNil(t, first.Bias())

	last := block.Main().Module(2).(*nn.Conv2D[Backend])
	assert.Equal(t, 0, last.Padding())
}

func TestResidualBlock_Shortcut(t *testing.T) {
	backend := cpu.New()

	identity, err := NewResidualBlock(ResidualBlockSpec{
		InChannels: 8, Channels: []int{4, 8}, KernelSizes: []int{3, 3},
	}, backend)
	require.NoError(t, err)
	assert.True(t, identity.HasIdentityShortcut())
	assert.Empty(t, identity.Shortcut().Parameters())

	projected, err := NewResidualBlock(ResidualBlockSpec{
		InChannels: 8, Channels: []int{4, 6}, KernelSizes: []int{3, 3},
	}, backend)
	require.NoError(t, err)
	assert.False(t, projected.HasIdentityShortcut())

	conv, ok := projected.Shortcut().(*nn.Conv2D[Backend])
	require.True(t, ok)
	assert.Equal(t, [2]int{1, 1}, conv.KernelSize())
	assert.Equal(t, 8, conv.InChannels())
	assert.Equal(t, 6, conv.OutChannels())
	assert.Nil(t, conv.Bias())
	assert.Len(t, projected.Shortcut().Parameters(), 1)
}

func TestResidualBlock_SkipConnection(t *testing.T) {
	backend := cpu.New()
	block, err := NewResidualBlock(ResidualBlockSpec{
		InChannels: 1, Channels: []int{2, 1}, KernelSizes: []int{3, 3},
	}, backend)
	require.NoError(t, err)

	// With a silent main path the block reduces to ReLU(x).
	for _, p := range block.Parameters() {
		clear(p.Tensor().Data())
	}

	x, err := tensor.FromSlice([]float32{-1, 2, -3, 4}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 2, 0, 4}, block.Forward(x).Data())
}

func TestResidualBlock_InvalidSpec(t *testing.T) {
	backend := cpu.New()
	tests := []struct {
		name string
		spec ResidualBlockSpec
	}{
		{"no channels", ResidualBlockSpec{InChannels: 3}},
		{"length mismatch", ResidualBlockSpec{InChannels: 3, Channels: []int{4, 4}, KernelSizes: []int{3}}},
		{"even kernel", ResidualBlockSpec{InChannels: 3, Channels: []int{4}, KernelSizes: []int{2}}},
		{"zero channels", ResidualBlockSpec{InChannels: 3, Channels: []int{0}, KernelSizes: []int{3}}},
		{"dropout one", ResidualBlockSpec{InChannels: 3, Channels: []int{4}, KernelSizes: []int{3}, Dropout: 1}},
		{"bad activation", ResidualBlockSpec{InChannels: 3, Channels: []int{4}, KernelSizes: []int{3},
			Activation: Activation{Kind: "gelu"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := NewResidualBlock(tt.spec, backend)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Nil(t, block)
		})
	}
}

func TestBottleneckBlockSpec_Expand(t *testing.T) {
	spec := BottleneckBlockSpec{
		InOutChannels:    16,
		InnerChannels:    []int{4, 8},
		InnerKernelSizes: []int{3, 5},
		BatchNorm:        true,
	}

	expanded := spec.Expand()
	assert.Equal(t, 16, expanded.InChannels)
	assert.Equal(t, []int{4, 4, 8, 16}, expanded.Channels)
	assert.Equal(t, []int{1, 3, 5, 1}, expanded.KernelSizes)
	assert.True(t, expanded.BatchNorm)
}

func TestBottleneckBlock_MatchesExpandedTopology(t *testing.T) {
	backend := cpu.New()
	bottleneck, err := NewBottleneckBlock(BottleneckBlockSpec{
		InOutChannels:    16,
		InnerChannels:    []int{4, 8},
		InnerKernelSizes: []int{3, 5},
	}, backend)
	require.NoError(t, err)

	residual, err := NewResidualBlock(ResidualBlockSpec{
		InChannels:  16,
		Channels:    []int{4, 4, 8, 16},
		KernelSizes: []int{1, 3, 5, 1},
	}, backend)
	require.NoError(t, err)

	assert.Equal(t, residual.String(), bottleneck.String())
	assert.Equal(t, moduleTypes(residual.Main()), moduleTypes(bottleneck.Main()))
	assert.Equal(t, paramShapes(residual.Parameters()), paramShapes(bottleneck.Parameters()))
	assert.True(t, bottleneck.HasIdentityShortcut())
}

func TestBottleneckBlock_InvalidSpec(t *testing.T) {
	backend := cpu.New()

	_, err := NewBottleneckBlock(BottleneckBlockSpec{InOutChannels: 8}, backend)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewBottleneckBlock(BottleneckBlockSpec{
		InOutChannels: 8, InnerChannels: []int{4, 4}, InnerKernelSizes: []int{3},
	}, backend)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestResidualBlock_StateDict(t *testing.T) {
	block, err := NewResidualBlock(ResidualBlockSpec{
		InChannels: 3, Channels: []int{4, 8}, KernelSizes: []int{3, 3}, BatchNorm: true,
	}, cpu.New())
	require.NoError(t, err)

	sd := block.StateDict()
	for _, key := range []string{
		"main.0.weight", "main.0.bias",
		"main.1.weight", "main.1.bias", "main.1.running_mean", "main.1.running_var",
		"main.3.weight", "main.3.bias",
		"shortcut.weight",
	} {
		assert.Contains(t, sd, key)
	}
	assert.Len(t, sd, 9)

	other, err := NewResidualBlock(ResidualBlockSpec{
		InChannels: 3, Channels: []int{4, 8}, KernelSizes: []int{3, 3}, BatchNorm: true,
	}, cpu.New())
	require.NoError(t, err)
	require.NoError(t, other.LoadStateDict(sd))
	assert.Equal(t, sd["shortcut.weight"].AsFloat32(), other.StateDict()["shortcut.weight"].AsFloat32())
}
