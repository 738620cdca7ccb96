package tensor

// Backend defines the interface that all compute backends must implement.
//
// Backends are responsible for executing tensor operations on specific
// hardware. All operations return new tensors and never modify their inputs,
// so a value may safely feed more than one consumer (for example both paths
// of a residual block).
type Backend interface {
	// Element-wise operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MatMul multiplies two 2D matrices: (M, K) @ (K, N) → (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Conv2D performs 2D convolution.
	// input: [N, C_in, H, W], kernel: [C_out, C_in, KH, KW]
	// Returns [N, C_out, H_out, W_out] with H_out = (H + 2*padding - KH) / stride + 1.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// MaxPool2D performs 2D max pooling. Padded cells never win.
	// input: [N, C, H, W] → [N, C, H_out, W_out]
	MaxPool2D(input *RawTensor, kernelSize, stride, padding int) *RawTensor

	// AvgPool2D performs 2D average pooling. Padded cells count as zeros
	// in the divisor.
	AvgPool2D(input *RawTensor, kernelSize, stride, padding int) *RawTensor

	// Activations.
	ReLU(x *RawTensor) *RawTensor
	LeakyReLU(x *RawTensor, negativeSlope float64) *RawTensor

	// BatchNorm2D normalizes [N, C, H, W] per channel with the given
	// statistics and affine parameters (all of shape [C]).
	BatchNorm2D(x, mean, variance, gamma, beta *RawTensor, eps float64) *RawTensor

	// ChannelStats returns the per-channel mean and biased variance of
	// [N, C, H, W], both shaped [C].
	ChannelStats(x *RawTensor) (mean, variance *RawTensor)

	// Metadata.
	Name() string
	Device() Device
}
