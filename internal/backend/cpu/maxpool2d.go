package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

// MaxPool2D performs 2D max pooling.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height + 2*padding - kernelSize) / stride + 1
//	out_width = (width + 2*padding - kernelSize) / stride + 1
//
// Padded cells behave as -Inf and never win.
//
// Example (2x2 pool, stride=2):
//
//	Input: [[1,2,3,4],    Output: [[6,8],
//	        [5,6,7,8],             [14,16]]
//	        [9,10,11,12],
//	        [13,14,15,16]]
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride, padding int) *tensor.RawTensor {
	return cpu.pool2d("maxpool2d", input, kernelSize, stride, padding, false)
}

// AvgPool2D performs 2D average pooling.
//
// The divisor is always kernelSize*kernelSize: padded cells contribute zeros
// and are counted.
func (cpu *CPUBackend) AvgPool2D(input *tensor.RawTensor, kernelSize, stride, padding int) *tensor.RawTensor {
	return cpu.pool2d("avgpool2d", input, kernelSize, stride, padding, true)
}

func (cpu *CPUBackend) pool2d(name string, input *tensor.RawTensor, kernelSize, stride, padding int, average bool) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,C,H,W], got %dD", name, len(inputShape)))
	}

	N, C, H, W := inputShape[0], inputShape[1], inputShape[2], inputShape[3]

	if kernelSize <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel size %d", name, kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("%s: invalid stride %d", name, stride))
	}
	if padding < 0 || 2*padding > kernelSize {
		panic(fmt.Sprintf("%s: padding %d must be in [0, %d]", name, padding, kernelSize/2))
	}
	if kernelSize > H+2*padding || kernelSize > W+2*padding {
		panic(fmt.Sprintf("%s: kernel size %d too large for input %dx%d", name, kernelSize, H, W))
	}

	HOut := (H+2*padding-kernelSize)/stride + 1
	WOut := (W+2*padding-kernelSize)/stride + 1

	output, err := tensor.NewRaw(tensor.Shape{N, C, HOut, WOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create output tensor: %v", name, err))
	}

	w := poolWindow{
		H: H, W: W, HOut: HOut, WOut: WOut,
		kernel: kernelSize, stride: stride, padding: padding,
	}

	switch input.DType() {
	case tensor.Float32:
		pool(output.AsFloat32(), input.AsFloat32(), N*C, w, average, cpu.parallel)
	case tensor.Float64:
		pool(output.AsFloat64(), input.AsFloat64(), N*C, w, average, cpu.parallel)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, input.DType()))
	}

	return output
}

type poolWindow struct {
	H, W, HOut, WOut        int
	kernel, stride, padding int
}

func pool[T float32 | float64](out, in []T, planes int, w poolWindow, average bool, cfg parallel.Config) {
	area := T(w.kernel * w.kernel)
	parallel.For(planes, func(p int) {
		src := in[p*w.H*w.W : (p+1)*w.H*w.W]
		dst := out[p*w.HOut*w.WOut : (p+1)*w.HOut*w.WOut]

		for oh := 0; oh < w.HOut; oh++ {
			for ow := 0; ow < w.WOut; ow++ {
				hStart := oh*w.stride - w.padding
				wStart := ow*w.stride - w.padding

				best := T(math.Inf(-1))
				var sum T
				for kh := 0; kh < w.kernel; kh++ {
					h := hStart + kh
					if h < 0 || h >= w.H {
						continue
					}
					for kw := 0; kw < w.kernel; kw++ {
						x := wStart + kw
						if x < 0 || x >= w.W {
							continue
						}
						v := src[h*w.W+x]
						sum += v
						if v > best {
							best = v
						}
					}
				}

				if average {
					dst[oh*w.WOut+ow] = sum / area
				} else {
					dst[oh*w.WOut+ow] = best
				}
			}
		}
	}, cfg.WithMinChunk(8))
}
