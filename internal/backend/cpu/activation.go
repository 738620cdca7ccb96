package cpu

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.LeakyReLU(x, 0)
}

// LeakyReLU applies x for x > 0 and negativeSlope*x otherwise.
func (cpu *CPUBackend) LeakyReLU(x *tensor.RawTensor, negativeSlope float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("leaky_relu: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		leakyReLU(result.AsFloat32(), x.AsFloat32(), float32(negativeSlope))
	case tensor.Float64:
		leakyReLU(result.AsFloat64(), x.AsFloat64(), negativeSlope)
	default:
		panic(fmt.Sprintf("leaky_relu: unsupported dtype %s", x.DType()))
	}

	return result
}

func leakyReLU[T float32 | float64](dst, src []T, slope T) {
	for i, v := range src {
		switch {
		case v > 0:
			dst[i] = v
		case slope == 0:
			dst[i] = 0
		default:
			dst[i] = slope * v
		}
	}
}
