package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// Default batch normalization hyperparameters.
const (
	DefaultBatchNormEps      = 1e-5
	DefaultBatchNormMomentum = 0.1
)

// BatchNorm2D normalizes each channel of a [N, C, H, W] input.
//
//	y = gamma * (x - mean) / sqrt(var + eps) + beta
//
// In training mode the statistics come from the current batch and the
// running estimates are updated with momentum:
//
//	running = (1 - momentum) * running + momentum * batch
//
// where the variance update uses the unbiased batch variance. In inference
// mode the running estimates are used and nothing is updated.
//
// New layers start in training mode.
type BatchNorm2D[B tensor.Backend] struct {
	numFeatures int
	eps         float64
	momentum    float64
	training    bool

	gamma *Parameter[B] // [C], "weight"
	beta  *Parameter[B] // [C], "bias"

	runningMean *tensor.Tensor[float32, B] // [C]
	runningVar  *tensor.Tensor[float32, B] // [C]

	backend B
}

// NewBatchNorm2D creates a batch normalization layer over numFeatures channels
// with gamma=1, beta=0, running mean 0 and running variance 1.
func NewBatchNorm2D[B tensor.Backend](numFeatures int, backend B) *BatchNorm2D[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("batchnorm2d: invalid num_features %d", numFeatures))
	}
	shape := tensor.Shape{numFeatures}
	return &BatchNorm2D[B]{
		numFeatures: numFeatures,
		eps:         DefaultBatchNormEps,
		momentum:    DefaultBatchNormMomentum,
		training:    true,
		gamma:       NewParameter("weight", Ones(shape, backend)),
		beta:        NewParameter("bias", Zeros(shape, backend)),
		runningMean: Zeros(shape, backend),
		runningVar:  Ones(shape, backend),
		backend:     backend,
	}
}

// Forward normalizes input.
func (bn *BatchNorm2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("batchnorm2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if shape[1] != bn.numFeatures {
		panic(fmt.Sprintf("batchnorm2d: input channels %d != expected %d", shape[1], bn.numFeatures))
	}

	mean, variance := bn.runningMean.Raw(), bn.runningVar.Raw()
	if bn.training {
		mean, variance = bn.backend.ChannelStats(input.Raw())
		bn.updateRunning(mean, variance, shape[0]*shape[2]*shape[3])
	}

	out := bn.backend.BatchNorm2D(input.Raw(), mean, variance,
		bn.gamma.Tensor().Raw(), bn.beta.Tensor().Raw(), bn.eps)
	return tensor.New[float32, B](out, bn.backend)
}

func (bn *BatchNorm2D[B]) updateRunning(mean, variance *tensor.RawTensor, count int) {
	correction := float32(1)
	if count > 1 {
		correction = float32(count) / float32(count-1)
	}
	m := float32(bn.momentum)

	rm, rv := bn.runningMean.Data(), bn.runningVar.Data()
	bm, bv := mean.AsFloat32(), variance.AsFloat32()
	for c := range rm {
		rm[c] = (1-m)*rm[c] + m*bm[c]
		rv[c] = (1-m)*rv[c] + m*bv[c]*correction
	}
}

// Parameters returns [weight, bias].
func (bn *BatchNorm2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.gamma, bn.beta}
}

// SetTraining switches between batch and running statistics.
func (bn *BatchNorm2D[B]) SetTraining(training bool) {
	bn.training = training
}

// Training reports whether batch statistics are in use.
func (bn *BatchNorm2D[B]) Training() bool {
	return bn.training
}

// RunningMean returns the running mean buffer.
func (bn *BatchNorm2D[B]) RunningMean() *tensor.Tensor[float32, B] {
	return bn.runningMean
}

// RunningVar returns the running variance buffer.
func (bn *BatchNorm2D[B]) RunningVar() *tensor.Tensor[float32, B] {
	return bn.runningVar
}

// StateDict returns parameters and running statistics.
func (bn *BatchNorm2D[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := paramStateDict(bn.Parameters())
	stateDict["running_mean"] = bn.runningMean.Raw()
	stateDict["running_var"] = bn.runningVar.Raw()
	return stateDict
}

// LoadStateDict loads parameters and running statistics.
func (bn *BatchNorm2D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadParamStateDict(bn.Parameters(), stateDict); err != nil {
		return err
	}
	if err := loadInto("running_mean", bn.runningMean, stateDict["running_mean"]); err != nil {
		return err
	}
	return loadInto("running_var", bn.runningVar, stateDict["running_var"])
}

// String returns a string representation of the layer.
func (bn *BatchNorm2D[B]) String() string {
	return fmt.Sprintf("BatchNorm2D(%d, eps=%g, momentum=%g)", bn.numFeatures, bn.eps, bn.momentum)
}
