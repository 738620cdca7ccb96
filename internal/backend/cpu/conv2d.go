package cpu

import (
	"fmt"

	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape: [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// For each sample the input patches are unfolded into a column matrix
// [H_out*W_out, C_in*K_h*K_w] and multiplied against the kernel viewed as
// [C_out, C_in*K_h*K_w] with a single GEMM call, which writes straight into
// the sample's [C_out, H_out*W_out] output slab.
//
// Reference: "High Performance Convolutional Neural Networks for Document Processing"
// (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}
	if input.DType() != kernel.DType() {
		panic(fmt.Sprintf("conv2d: dtype mismatch %s vs %s", input.DType(), kernel.DType()))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d or padding %d", stride, padding))
	}

	N, CIn, H, W := inputShape[0], inputShape[1], inputShape[2], inputShape[3]
	COut, CInK, KH, KW := kernelShape[0], kernelShape[1], kernelShape[2], kernelShape[3]

	if CIn != CInK {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", CIn, CInK))
	}

	HOut := (H+2*padding-KH)/stride + 1
	WOut := (W+2*padding-KW)/stride + 1
	if H+2*padding < KH || W+2*padding < KW || HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("conv2d: kernel %dx%d does not fit input %dx%d with padding %d", KH, KW, H, W, padding))
	}

	output, err := tensor.NewRaw(tensor.Shape{N, COut, HOut, WOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: failed to create output tensor: %v", err))
	}

	g := convGeometry{
		C: CIn, H: H, W: W,
		KH: KH, KW: KW,
		HOut: HOut, WOut: WOut,
		stride: stride, padding: padding,
	}

	switch input.DType() {
	case tensor.Float32:
		conv2d(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), N, COut, g, cpu.parallel)
	case tensor.Float64:
		conv2d(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), N, COut, g, cpu.parallel)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

type convGeometry struct {
	C, H, W         int
	KH, KW          int
	HOut, WOut      int
	stride, padding int
}

// conv2d convolves samples in chunks; each chunk owns one column buffer.
func conv2d[T float32 | float64](out, in, kernel []T, N, COut int, g convGeometry, cfg parallel.Config) {
	colWidth := g.C * g.KH * g.KW
	positions := g.HOut * g.WOut

	inSize := g.C * g.H * g.W
	outSize := COut * positions

	parallel.ForChunks(N, func(start, end int) {
		colBuf := make([]T, positions*colWidth)
		for n := start; n < end; n++ {
			im2col(colBuf, in[n*inSize:(n+1)*inSize], g)
			gemm(true, COut, positions, colWidth, kernel, colBuf, out[n*outSize:(n+1)*outSize])
		}
	}, cfg.WithMinChunk(1))
}

// im2col unfolds one [C, H, W] sample into colBuf [H_out*W_out, C*K_h*K_w].
// Positions that fall into the padding read as zero.
func im2col[T float32 | float64](colBuf, in []T, g convGeometry) {
	idx := 0
	for outH := 0; outH < g.HOut; outH++ {
		for outW := 0; outW < g.WOut; outW++ {
			hStart := outH*g.stride - g.padding
			wStart := outW*g.stride - g.padding

			for c := 0; c < g.C; c++ {
				plane := in[c*g.H*g.W : (c+1)*g.H*g.W]
				for kh := 0; kh < g.KH; kh++ {
					h := hStart + kh
					for kw := 0; kw < g.KW; kw++ {
						w := wStart + kw
						if h >= 0 && h < g.H && w >= 0 && w < g.W {
							colBuf[idx] = plane[h*g.W+w]
						} else {
							colBuf[idx] = 0
						}
						idx++
					}
				}
			}
		}
	}
}
