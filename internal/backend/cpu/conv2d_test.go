package cpu

import (
	"testing"

	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

// TestConv2D_BasicForward tests basic Conv2D forward pass.
func TestConv2D_BasicForward(t *testing.T) {
	backend := New()

	// 1 2 3
	// 4 5 6
	// 7 8 9
	input := raw32(t, tensor.Shape{1, 1, 3, 3}, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	// Diagonal kernel:
	// 1 0
	// 0 1
	kernel := raw32(t, tensor.Shape{1, 1, 2, 2}, 1, 0, 0, 1)

	output := backend.Conv2D(input, kernel, 1, 0)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape [1 1 2 2], got %v", output.Shape())
	}
	assertClose32(t, []float32{6, 8, 12, 14}, output.AsFloat32())
}

// TestConv2D_WithPadding tests Conv2D with zero padding.
func TestConv2D_WithPadding(t *testing.T) {
	backend := New()

	input := raw32(t, tensor.Shape{1, 1, 3, 3}, 1, 1, 1, 1, 1, 1, 1, 1, 1)
	kernel := raw32(t, tensor.Shape{1, 1, 3, 3}, 1, 1, 1, 1, 1, 1, 1, 1, 1)

	output := backend.Conv2D(input, kernel, 1, 1)

	if !output.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("Expected shape [1 1 3 3], got %v", output.Shape())
	}
	// Each output counts the in-bounds cells of its 3x3 window.
	assertClose32(t, []float32{4, 6, 4, 6, 9, 6, 4, 6, 4}, output.AsFloat32())
}

// TestConv2D_MultiChannelBatch checks channel summation and per-sample independence.
func TestConv2D_MultiChannelBatch(t *testing.T) {
	backend := New()

	// Two samples, two input channels of 2x2.
	input := raw32(t, tensor.Shape{2, 2, 2, 2},
		1, 1, 1, 1, 2, 2, 2, 2,
		0, 0, 0, 0, 1, 0, 0, 1)
	// Two output channels: one sums channel 0, the other sums channel 1 scaled by 10.
	kernel := raw32(t, tensor.Shape{2, 2, 1, 1}, 1, 0, 0, 10)

	output := backend.Conv2D(input, kernel, 1, 0)

	if !output.Shape().Equal(tensor.Shape{2, 2, 2, 2}) {
		t.Fatalf("Expected shape [2 2 2 2], got %v", output.Shape())
	}
	assertClose32(t, []float32{
		1, 1, 1, 1, 20, 20, 20, 20,
		0, 0, 0, 0, 10, 0, 0, 10,
	}, output.AsFloat32())
}

// TestConv2D_Stride tests Conv2D with stride 2.
func TestConv2D_Stride(t *testing.T) {
	backend := New()

	input := raw32(t, tensor.Shape{1, 1, 4, 4},
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16)
	kernel := raw32(t, tensor.Shape{1, 1, 2, 2}, 1, 1, 1, 1)

	output := backend.Conv2D(input, kernel, 2, 0)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape [1 1 2 2], got %v", output.Shape())
	}
	assertClose32(t, []float32{14, 22, 46, 54}, output.AsFloat32())
}

func TestConv2D_ChannelMismatchPanics(t *testing.T) {
	backend := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for channel mismatch")
		}
	}()
	backend.Conv2D(raw32(t, tensor.Shape{1, 3, 4, 4}), raw32(t, tensor.Shape{1, 2, 3, 3}), 1, 0)
}

func TestConv2D_KernelTooLargePanics(t *testing.T) {
	backend := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for oversized kernel")
		}
	}()
	backend.Conv2D(raw32(t, tensor.Shape{1, 1, 2, 2}), raw32(t, tensor.Shape{1, 1, 3, 3}), 1, 0)
}

// TestConv2D_ParallelMatchesSequential checks that splitting the batch
// across workers gives the same result as a single goroutine.
func TestConv2D_ParallelMatchesSequential(t *testing.T) {
	const n, c, h, w = 6, 2, 5, 5
	inData := make([]float32, n*c*h*w)
	for i := range inData {
		inData[i] = float32(i%7) - 3
	}
	kData := make([]float32, 3*c*3*3)
	for i := range kData {
		kData[i] = float32(i%5) * 0.25
	}
	input := raw32(t, tensor.Shape{n, c, h, w}, inData...)
	kernel := raw32(t, tensor.Shape{3, c, 3, 3}, kData...)

	seq := NewWithConfig(parallel.Sequential()).Conv2D(input, kernel, 1, 1)
	par := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}).Conv2D(input, kernel, 1, 1)

	if !par.Shape().Equal(seq.Shape()) {
		t.Fatalf("shape mismatch: %v vs %v", par.Shape(), seq.Shape())
	}
	assertClose32(t, seq.AsFloat32(), par.AsFloat32())
}
