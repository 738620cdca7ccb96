// Package cpu implements the CPU backend with BLAS-backed matrix kernels.
package cpu

import (
	"fmt"

	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

// float is the set of element types the CPU kernels operate on.
type float interface {
	~float32 | ~float64
}

// CPUBackend implements tensor operations on CPU.
//
// Every operation allocates its result; inputs are never written to.
// Convolution and pooling split the batch across goroutines; results do not
// depend on the number of workers.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

var _ tensor.Backend = (*CPUBackend)(nil)

// New creates a new CPU backend using one worker per CPU.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, addOp[float32], addOp[float64])
}

// Mul performs element-wise multiplication with NumPy-style broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, mulOp[float32], mulOp[float64])
}

func addOp[T float](x, y T) T { return x + y }
func mulOp[T float](x, y T) T { return x * y }

func (cpu *CPUBackend) binary(
	name string,
	a, b *tensor.RawTensor,
	op32 func(x, y float32) float32,
	op64 func(x, y float64) float64,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch a.DType() {
	case tensor.Float32:
		elementWise(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outShape, a.Shape(), b.Shape(), needsBroadcast, op32)
	case tensor.Float64:
		elementWise(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outShape, a.Shape(), b.Shape(), needsBroadcast, op64)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

func elementWise[T float](dst, a, b []T, outShape, aShape, bShape tensor.Shape, needsBroadcast bool, op func(x, y T) T) {
	if !needsBroadcast {
		for i := range dst {
			dst[i] = op(a[i], b[i])
		}
		return
	}

	aStrides := broadcastStrides(aShape, len(outShape))
	bStrides := broadcastStrides(bShape, len(outShape))
	index := make([]int, len(outShape))

	for i := range dst {
		aIdx, bIdx := 0, 0
		for d, v := range index {
			aIdx += v * aStrides[d]
			bIdx += v * bStrides[d]
		}
		dst[i] = op(a[aIdx], b[bIdx])

		// Advance the row-major counter.
		for d := len(index) - 1; d >= 0; d-- {
			index[d]++
			if index[d] < outShape[d] {
				break
			}
			index[d] = 0
		}
	}
}

// broadcastStrides returns strides of shape aligned to rank dims, with zero
// stride on every broadcast (missing or size-1) dimension.
func broadcastStrides(shape tensor.Shape, rank int) []int {
	strides := make([]int, rank)
	own := shape.ComputeStrides()
	offset := rank - len(shape)
	for i, dim := range shape {
		if dim != 1 {
			strides[offset+i] = own[i]
		}
	}
	return strides
}

// Reshape returns a copy of t with a new shape of the same element count.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result, err := t.Clone().WithShape(newShape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return result
}

// Transpose permutes the dimensions of t. With no axes it reverses them.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	seen := make([]bool, ndim)
	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid axes %v", axes))
		}
		seen[ax] = true
		newShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(newShape, t.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		permute(result.AsFloat32(), t.AsFloat32(), newShape, t.Strides(), axes)
	case tensor.Float64:
		permute(result.AsFloat64(), t.AsFloat64(), newShape, t.Strides(), axes)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}
	return result
}

func permute[T float](dst, src []T, outShape tensor.Shape, srcStrides, axes []int) {
	strides := make([]int, len(axes))
	for i, ax := range axes {
		strides[i] = srcStrides[ax]
	}

	index := make([]int, len(outShape))
	for i := range dst {
		srcIdx := 0
		for d, v := range index {
			srcIdx += v * strides[d]
		}
		dst[i] = src[srcIdx]

		for d := len(index) - 1; d >= 0; d-- {
			index[d]++
			if index[d] < outShape[d] {
				break
			}
			index[d] = 0
		}
	}
}
