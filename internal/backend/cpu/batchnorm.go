package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/convnet/internal/tensor"
)

// BatchNorm2D normalizes x [N, C, H, W] per channel:
//
//	y = gamma[c] * (x - mean[c]) / sqrt(variance[c] + eps) + beta[c]
//
// mean, variance, gamma and beta are all shaped [C].
func (cpu *CPUBackend) BatchNorm2D(x, mean, variance, gamma, beta *tensor.RawTensor, eps float64) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("batchnorm2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	C := shape[1]
	for name, p := range map[string]*tensor.RawTensor{"mean": mean, "variance": variance, "gamma": gamma, "beta": beta} {
		if !p.Shape().Equal(tensor.Shape{C}) {
			panic(fmt.Sprintf("batchnorm2d: %s must have shape [%d], got %v", name, C, p.Shape()))
		}
		if p.DType() != x.DType() {
			panic(fmt.Sprintf("batchnorm2d: %s dtype %s != input dtype %s", name, p.DType(), x.DType()))
		}
	}

	result, err := tensor.NewRaw(shape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("batchnorm2d: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		batchNorm(result.AsFloat32(), x.AsFloat32(), mean.AsFloat32(), variance.AsFloat32(),
			gamma.AsFloat32(), beta.AsFloat32(), shape, eps)
	case tensor.Float64:
		batchNorm(result.AsFloat64(), x.AsFloat64(), mean.AsFloat64(), variance.AsFloat64(),
			gamma.AsFloat64(), beta.AsFloat64(), shape, eps)
	default:
		panic(fmt.Sprintf("batchnorm2d: unsupported dtype %s", x.DType()))
	}

	return result
}

func batchNorm[T float32 | float64](dst, src, mean, variance, gamma, beta []T, shape tensor.Shape, eps float64) {
	N, C := shape[0], shape[1]
	plane := shape[2] * shape[3]

	for c := 0; c < C; c++ {
		scale := gamma[c] / T(math.Sqrt(float64(variance[c])+eps))
		shift := beta[c] - mean[c]*scale
		for n := 0; n < N; n++ {
			off := (n*C + c) * plane
			for i := off; i < off+plane; i++ {
				dst[i] = src[i]*scale + shift
			}
		}
	}
}

// ChannelStats returns the per-channel mean and biased variance of x [N, C, H, W].
func (cpu *CPUBackend) ChannelStats(x *tensor.RawTensor) (mean, variance *tensor.RawTensor) {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("channel_stats: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}

	var err error
	if mean, err = tensor.NewRaw(tensor.Shape{shape[1]}, x.DType(), cpu.device); err != nil {
		panic(fmt.Sprintf("channel_stats: %v", err))
	}
	if variance, err = tensor.NewRaw(tensor.Shape{shape[1]}, x.DType(), cpu.device); err != nil {
		panic(fmt.Sprintf("channel_stats: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		channelStats(mean.AsFloat32(), variance.AsFloat32(), x.AsFloat32(), shape)
	case tensor.Float64:
		channelStats(mean.AsFloat64(), variance.AsFloat64(), x.AsFloat64(), shape)
	default:
		panic(fmt.Sprintf("channel_stats: unsupported dtype %s", x.DType()))
	}

	return mean, variance
}

func channelStats[T float32 | float64](mean, variance, src []T, shape tensor.Shape) {
	N, C := shape[0], shape[1]
	plane := shape[2] * shape[3]
	count := float64(N * plane)

	for c := 0; c < C; c++ {
		var sum float64
		for n := 0; n < N; n++ {
			off := (n*C + c) * plane
			for _, v := range src[off : off+plane] {
				sum += float64(v)
			}
		}
		mu := sum / count

		var sq float64
		for n := 0; n < N; n++ {
			off := (n*C + c) * plane
			for _, v := range src[off : off+plane] {
				d := float64(v) - mu
				sq += d * d
			}
		}

		mean[c] = T(mu)
		variance[c] = T(sq / count)
	}
}
