package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend implements only what the tensor-level tests exercise.
type stubBackend struct{}

var _ Backend = stubBackend{}

func (stubBackend) Name() string   { return "stub" }
func (stubBackend) Device() Device { return CPU }

func (stubBackend) Add(a, b *RawTensor) *RawTensor {
	return stubElementWise(a, b, func(x, y float64) float64 { return x + y })
}

func (stubBackend) Mul(a, b *RawTensor) *RawTensor {
	return stubElementWise(a, b, func(x, y float64) float64 { return x * y })
}

func (stubBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	out, err := t.Clone().WithShape(newShape)
	if err != nil {
		panic(err)
	}
	return out
}

func (stubBackend) MatMul(_, _ *RawTensor) *RawTensor               { panic("not implemented") }
func (stubBackend) Transpose(_ *RawTensor, _ ...int) *RawTensor     { panic("not implemented") }
func (stubBackend) Conv2D(_, _ *RawTensor, _, _ int) *RawTensor     { panic("not implemented") }
func (stubBackend) MaxPool2D(_ *RawTensor, _, _, _ int) *RawTensor  { panic("not implemented") }
func (stubBackend) AvgPool2D(_ *RawTensor, _, _, _ int) *RawTensor  { panic("not implemented") }
func (stubBackend) ReLU(_ *RawTensor) *RawTensor                    { panic("not implemented") }
func (stubBackend) LeakyReLU(_ *RawTensor, _ float64) *RawTensor    { panic("not implemented") }
func (stubBackend) ChannelStats(_ *RawTensor) (_, _ *RawTensor)     { panic("not implemented") }
func (stubBackend) BatchNorm2D(_, _, _, _, _ *RawTensor, _ float64) *RawTensor {
	panic("not implemented")
}

// stubElementWise handles float32 operands with trailing-dimension broadcasting.
func stubElementWise(a, b *RawTensor, op func(x, y float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}
	out, err := NewRaw(outShape, a.DType(), CPU)
	if err != nil {
		panic(err)
	}
	ad, bd, od := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
	for i := range od {
		od[i] = float32(op(float64(ad[i%len(ad)]), float64(bd[i%len(bd)])))
	}
	return out
}

func TestShape_NumElements(t *testing.T) {
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
}

func TestShape_Validate(t *testing.T) {
	require.NoError(t, Shape{1, 2}.Validate())
	assert.Error(t, Shape{1, 0}.Validate())
	assert.Error(t, Shape{-1, 2}.Validate())
}

func TestShape_ComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Empty(t, Shape{}.ComputeStrides())
}

func TestShape_Resolve(t *testing.T) {
	got, err := Shape{4, -1}.Resolve(32)
	require.NoError(t, err)
	assert.Equal(t, Shape{4, 8}, got)

	got, err = Shape{2, 3}.Resolve(6)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, got)

	_, err = Shape{-1, -1}.Resolve(6)
	assert.Error(t, err)

	_, err = Shape{4, -1}.Resolve(10)
	assert.Error(t, err)

	_, err = Shape{0, -1}.Resolve(10)
	assert.Error(t, err)
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Shape
		want      Shape
		broadcast bool
		wantErr   bool
	}{
		{"same", Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false, false},
		{"column", Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"rank", Shape{5}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"channel", Shape{1, 4, 1, 1}, Shape{2, 4, 3, 3}, Shape{2, 4, 3, 3}, true, false},
		{"mismatch", Shape{3, 4}, Shape{3, 5}, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, broadcast, err := BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.broadcast, broadcast)
		})
	}
}

func TestDataType(t *testing.T) {
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Float64.Size())
	assert.Equal(t, "float32", Float32.String())
	assert.Equal(t, "float64", Float64.String())
	assert.Equal(t, Float32, inferDataType(float32(0)))
	assert.Equal(t, Float64, inferDataType(float64(0)))
}

func TestRawTensor_CloneIsDeep(t *testing.T) {
	raw, err := NewRaw(Shape{2, 2}, Float32, CPU)
	require.NoError(t, err)
	raw.AsFloat32()[0] = 1

	clone := raw.Clone()
	clone.AsFloat32()[0] = 7

	assert.Equal(t, float32(1), raw.AsFloat32()[0])
	assert.Equal(t, float32(7), clone.AsFloat32()[0])
}

func TestRawTensor_WithShape(t *testing.T) {
	raw, err := NewRaw(Shape{2, 6}, Float64, CPU)
	require.NoError(t, err)

	view, err := raw.WithShape(Shape{3, 4})
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 4}, view.Shape())
	assert.Equal(t, []int{4, 1}, view.Strides())

	_, err = raw.WithShape(Shape{5})
	assert.Error(t, err)
}

func TestRawTensor_AsWrongType(t *testing.T) {
	raw, err := NewRaw(Shape{2}, Float64, CPU)
	require.NoError(t, err)
	assert.Panics(t, func() { raw.AsFloat32() })
}

func TestFromSlice(t *testing.T) {
	b := stubBackend{}
	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, b)
	require.NoError(t, err)

	assert.Equal(t, Shape{2, 3}, x.Shape())
	assert.Equal(t, float32(6), x.At(1, 2))
	assert.Equal(t, Float32, x.DType())

	x.Set(10, 0, 1)
	assert.Equal(t, float32(10), x.Data()[1])

	_, err = FromSlice([]float32{1, 2}, Shape{3}, b)
	assert.Error(t, err)
}

func TestTensor_AtOutOfBounds(t *testing.T) {
	x := Zeros[float32](Shape{2, 2}, stubBackend{})
	assert.Panics(t, func() { x.At(2, 0) })
	assert.Panics(t, func() { x.At(0) })
}

func TestCreation(t *testing.T) {
	b := stubBackend{}
	for _, v := range Zeros[float32](Shape{3}, b).Data() {
		assert.Zero(t, v)
	}
	for _, v := range Ones[float64](Shape{2, 2}, b).Data() {
		assert.InDelta(t, 1.0, v, 0)
	}
	for _, v := range Full[float32](Shape{4}, 2.5, b).Data() {
		assert.Equal(t, float32(2.5), v)
	}
}

func TestTensor_ReshapeAndFlatten(t *testing.T) {
	b := stubBackend{}
	x := Zeros[float32](Shape{2, 3, 4}, b)

	assert.Equal(t, Shape{2, 12}, x.Reshape(2, -1).Shape())
	assert.Equal(t, Shape{2, 12}, x.Flatten().Shape())
	assert.Equal(t, Shape{24}, x.Reshape(-1).Shape())
	assert.Panics(t, func() { x.Reshape(5, -1) })
}

func TestTensor_AddMul(t *testing.T) {
	b := stubBackend{}
	x, err := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, b)
	require.NoError(t, err)
	y, err := FromSlice([]float32{10, 20}, Shape{2}, b)
	require.NoError(t, err)

	assert.Equal(t, []float32{11, 22, 13, 24}, x.Add(y).Data())
	assert.Equal(t, []float32{10, 40, 30, 80}, x.Mul(y).Data())
	// Inputs are untouched.
	assert.Equal(t, []float32{1, 2, 3, 4}, x.Data())
}

func TestTensor_CloneIndependent(t *testing.T) {
	x := Ones[float32](Shape{2}, stubBackend{})
	c := x.Clone()
	c.Set(5, 0)
	assert.Equal(t, float32(1), x.At(0))
	assert.Contains(t, x.String(), "float32")
}
