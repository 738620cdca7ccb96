package cpu

import (
	"math"
	"testing"

	"github.com/born-ml/convnet/internal/tensor"
)

func raw32(t *testing.T, shape tensor.Shape, values ...float32) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw(%v): %v", shape, err)
	}
	copy(r.AsFloat32(), values)
	return r
}

func assertClose32(t *testing.T, want, got []float32) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("length mismatch: want %d, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(float64(want[i]-got[i])) > 1e-5 {
			t.Errorf("[%d]: want %v, got %v", i, want[i], got[i])
		}
	}
}

func TestAdd_SameShape(t *testing.T) {
	backend := New()
	a := raw32(t, tensor.Shape{2, 2}, 1, 2, 3, 4)
	b := raw32(t, tensor.Shape{2, 2}, 10, 20, 30, 40)

	out := backend.Add(a, b)
	assertClose32(t, []float32{11, 22, 33, 44}, out.AsFloat32())
	// Inputs must be left untouched.
	assertClose32(t, []float32{1, 2, 3, 4}, a.AsFloat32())
}

func TestAdd_ChannelBroadcast(t *testing.T) {
	backend := New()
	x := raw32(t, tensor.Shape{1, 2, 2, 2}, 0, 0, 0, 0, 1, 1, 1, 1)
	bias := raw32(t, tensor.Shape{1, 2, 1, 1}, 5, -1)

	out := backend.Add(x, bias)
	if !out.Shape().Equal(tensor.Shape{1, 2, 2, 2}) {
		t.Fatalf("unexpected shape %v", out.Shape())
	}
	assertClose32(t, []float32{5, 5, 5, 5, 0, 0, 0, 0}, out.AsFloat32())
}

func TestMul_RowBroadcast(t *testing.T) {
	backend := New()
	x := raw32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
	row := raw32(t, tensor.Shape{3}, 2, 0, 1)

	out := backend.Mul(x, row)
	assertClose32(t, []float32{2, 0, 3, 8, 0, 6}, out.AsFloat32())
}

func TestAdd_IncompatiblePanics(t *testing.T) {
	backend := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for incompatible shapes")
		}
	}()
	backend.Add(raw32(t, tensor.Shape{2, 3}), raw32(t, tensor.Shape{2, 4}))
}

func TestMatMul(t *testing.T) {
	backend := New()
	a := raw32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
	b := raw32(t, tensor.Shape{3, 2}, 7, 8, 9, 10, 11, 12)

	out := backend.MatMul(a, b)
	if !out.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("unexpected shape %v", out.Shape())
	}
	assertClose32(t, []float32{58, 64, 139, 154}, out.AsFloat32())
}

func TestMatMul_Float64(t *testing.T) {
	backend := New()
	a, _ := tensor.NewRaw(tensor.Shape{1, 2}, tensor.Float64, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{2, 1}, tensor.Float64, tensor.CPU)
	copy(a.AsFloat64(), []float64{3, 4})
	copy(b.AsFloat64(), []float64{5, 6})

	out := backend.MatMul(a, b)
	if got := out.AsFloat64()[0]; got != 39 {
		t.Errorf("expected 39, got %v", got)
	}
}

func TestTranspose(t *testing.T) {
	backend := New()
	x := raw32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)

	out := backend.Transpose(x)
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("unexpected shape %v", out.Shape())
	}
	assertClose32(t, []float32{1, 4, 2, 5, 3, 6}, out.AsFloat32())
}

func TestReshape_Copies(t *testing.T) {
	backend := New()
	x := raw32(t, tensor.Shape{2, 2}, 1, 2, 3, 4)

	out := backend.Reshape(x, tensor.Shape{4})
	out.AsFloat32()[0] = 99
	if x.AsFloat32()[0] != 1 {
		t.Error("reshape must not alias its input")
	}
}

func TestReLUAndLeakyReLU(t *testing.T) {
	backend := New()
	x := raw32(t, tensor.Shape{4}, -2, -0.5, 0, 3)

	assertClose32(t, []float32{0, 0, 0, 3}, backend.ReLU(x).AsFloat32())
	assertClose32(t, []float32{-0.02, -0.005, 0, 3}, backend.LeakyReLU(x, 0.01).AsFloat32())
}

func TestBatchNorm2D(t *testing.T) {
	backend := New()
	x := raw32(t, tensor.Shape{2, 1, 1, 2}, 1, 3, 5, 7)

	mean, variance := backend.ChannelStats(x)
	assertClose32(t, []float32{4}, mean.AsFloat32())
	assertClose32(t, []float32{5}, variance.AsFloat32())

	gamma := raw32(t, tensor.Shape{1}, 2)
	beta := raw32(t, tensor.Shape{1}, 1)
	out := backend.BatchNorm2D(x, mean, variance, gamma, beta, 0)

	s := float32(2 / math.Sqrt(5))
	assertClose32(t, []float32{1 - 3*s, 1 - s, 1 + s, 1 + 3*s}, out.AsFloat32())
}
