package cpu

import (
	"testing"

	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

func grid4x4(t *testing.T) *tensor.RawTensor {
	t.Helper()
	return raw32(t, tensor.Shape{1, 1, 4, 4},
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16)
}

func TestMaxPool2D_Basic(t *testing.T) {
	backend := New()

	output := backend.MaxPool2D(grid4x4(t), 2, 2, 0)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape [1 1 2 2], got %v", output.Shape())
	}
	assertClose32(t, []float32{6, 8, 14, 16}, output.AsFloat32())
}

func TestMaxPool2D_PaddingNeverWins(t *testing.T) {
	backend := New()
	input := raw32(t, tensor.Shape{1, 1, 2, 2}, -1, -2, -3, -4)

	output := backend.MaxPool2D(input, 2, 2, 1)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape [1 1 2 2], got %v", output.Shape())
	}
	assertClose32(t, []float32{-1, -2, -3, -4}, output.AsFloat32())
}

func TestMaxPool2D_FloorsOddInput(t *testing.T) {
	backend := New()
	input := raw32(t, tensor.Shape{1, 1, 5, 5})

	output := backend.MaxPool2D(input, 2, 2, 0)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape [1 1 2 2], got %v", output.Shape())
	}
}

func TestAvgPool2D_Basic(t *testing.T) {
	backend := New()

	output := backend.AvgPool2D(grid4x4(t), 2, 2, 0)

	assertClose32(t, []float32{3.5, 5.5, 11.5, 13.5}, output.AsFloat32())
}

func TestAvgPool2D_CountsPadding(t *testing.T) {
	backend := New()
	input := raw32(t, tensor.Shape{1, 1, 2, 2}, 4, 4, 4, 4)

	output := backend.AvgPool2D(input, 2, 2, 1)

	// Each window holds one real cell and three padded zeros.
	assertClose32(t, []float32{1, 1, 1, 1}, output.AsFloat32())
}

func TestPool2D_InvalidArgsPanic(t *testing.T) {
	backend := New()
	cases := map[string]func(){
		"kernel":  func() { backend.MaxPool2D(grid4x4(t), 0, 1, 0) },
		"stride":  func() { backend.MaxPool2D(grid4x4(t), 2, 0, 0) },
		"padding": func() { backend.AvgPool2D(grid4x4(t), 2, 2, 2) },
		"size":    func() { backend.MaxPool2D(grid4x4(t), 5, 1, 0) },
		"rank":    func() { backend.MaxPool2D(raw32(t, tensor.Shape{4, 4}), 2, 2, 0) },
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			fn()
		})
	}
}

func TestPool2D_ParallelMatchesSequential(t *testing.T) {
	const n, c, h, w = 4, 8, 6, 6
	data := make([]float32, n*c*h*w)
	for i := range data {
		data[i] = float32((i*13)%17) - 8
	}
	input := raw32(t, tensor.Shape{n, c, h, w}, data...)

	seq := NewWithConfig(parallel.Sequential())
	par := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1})

	assertClose32(t, seq.MaxPool2D(input, 2, 2, 0).AsFloat32(), par.MaxPool2D(input, 2, 2, 0).AsFloat32())
	assertClose32(t, seq.AvgPool2D(input, 3, 1, 1).AsFloat32(), par.AvgPool2D(input, 3, 1, 1).AsFloat32())
}
