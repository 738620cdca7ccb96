package models

import (
	"fmt"
	"slices"

	"github.com/born-ml/convnet/internal/tensor"
)

// StageBuilder turns an architecture spec into the stage plans of a feature
// extractor. Implementations must not retain or modify spec's slices.
//
// PlanStages also returns the tracked spatial size after the last stage.
type StageBuilder interface {
	Name() string
	PlanStages(spec ArchitectureSpec) ([]StagePlan, Dims, error)
}

// BuildStages plans the feature extractor for spec with builder and
// instantiates every stage. Nothing is allocated when spec or the plan is
// invalid.
func BuildStages[B tensor.Backend](spec ArchitectureSpec, builder StageBuilder, backend B) (*Pipeline[B], Dims, error) {
	if err := spec.Validate(); err != nil {
		return nil, Dims{}, err
	}
	plans, dims, err := builder.PlanStages(spec.Normalized())
	if err != nil {
		return nil, Dims{}, err
	}

	stages := make([]Stage[B], 0, len(plans))
	for _, plan := range plans {
		module, err := buildStage(plan, backend)
		if err != nil {
			return nil, Dims{}, err
		}
		stages = append(stages, Stage[B]{Plan: plan, Module: module})
	}
	return &Pipeline[B]{stages: stages}, dims, nil
}

// PlainStages builds the plain CNN extractor:
//
//	[(CONV -> ACT)*P -> POOL]*(N/P) -> (CONV -> ACT)*(N mod P)
//
// Every conv uses spec.Conv with a bias. Each (CONV -> ACT) pair and each
// pool is one stage.
type PlainStages struct{}

// Name returns "cnn".
func (PlainStages) Name() string {
	return "cnn"
}

// String returns the builder name.
func (p PlainStages) String() string {
	return p.Name()
}

// PlanStages implements StageBuilder.
func (PlainStages) PlanStages(spec ArchitectureSpec) ([]StagePlan, Dims, error) {
	if err := spec.Validate(); err != nil {
		return nil, Dims{}, err
	}
	if err := spec.Conv.Validate(); err != nil {
		return nil, Dims{}, err
	}
	spec = spec.Normalized()

	dims := Dims{Height: spec.InSize[1], Width: spec.InSize[2]}
	plans := make([]StagePlan, 0, len(spec.Channels)+len(spec.Channels)/spec.PoolEvery)
	in := spec.InSize[0]
	for i, out := range spec.Channels {
		plans = append(plans, StagePlan{
			Kind:        StageConv,
			InChannels:  in,
			OutChannels: out,
			Conv:        spec.Conv,
			Activation:  spec.Activation,
		})
		dims = dims.afterConv(spec.Conv)
		if (i+1)%spec.PoolEvery == 0 {
			plans = append(plans, StagePlan{
				Kind:        StagePool,
				InChannels:  out,
				OutChannels: out,
				Pooling:     spec.Pooling,
			})
			dims = dims.afterPool(spec.Pooling.KernelSize)
		}
		in = out
	}
	return plans, dims, nil
}

// ResidualStages builds the ResNet extractor. Each group of PoolEvery convs
// becomes one residual block with 3x3 kernels followed by a pool; leftover
// convs form a final block without a pool. spec.Conv is not used.
//
// When Bottleneck is set, a group whose input and output channels match and
// that has at least three convs is built as a bottleneck block over the
// group's channels excluding the first two and the last.
type ResidualStages struct {
	BatchNorm  bool
	Dropout    float64
	Bottleneck bool
}

// Name returns "resnet".
func (ResidualStages) Name() string {
	return "resnet"
}

// String describes the builder and its settings.
func (r ResidualStages) String() string {
	return r.describe(r.Name())
}

func (r ResidualStages) describe(name string) string {
	return fmt.Sprintf("%s(batchnorm=%v, dropout=%g, bottleneck=%v)", name, r.BatchNorm, r.Dropout, r.Bottleneck)
}

// PlanStages implements StageBuilder.
func (r ResidualStages) PlanStages(spec ArchitectureSpec) ([]StagePlan, Dims, error) {
	if err := spec.Validate(); err != nil {
		return nil, Dims{}, err
	}
	if r.Dropout < 0 || r.Dropout >= 1 {
		return nil, Dims{}, configErrorf("residual.dropout", "must be in [0, 1), got %g", r.Dropout)
	}
	spec = spec.Normalized()

	all := append([]int{spec.InSize[0]}, spec.Channels...)
	n, p := len(spec.Channels), spec.PoolEvery
	groups := n / p

	dims := Dims{Height: spec.InSize[1], Width: spec.InSize[2]}
	plans := make([]StagePlan, 0, 2*groups+1)
	for g := range groups {
		w := all[g*p : (g+1)*p+1]
		plans = append(plans, r.blockPlan(w, spec.Activation), StagePlan{
			Kind:        StagePool,
			InChannels:  w[len(w)-1],
			OutChannels: w[len(w)-1],
			Pooling:     spec.Pooling,
		})
		dims = dims.afterPool(spec.Pooling.KernelSize)
	}
	if rem := n % p; rem > 0 {
		plans = append(plans, r.blockPlan(all[n-rem:n+1], spec.Activation))
	}

	for _, plan := range plans {
		if plan.Kind != StageResidual {
			continue
		}
		if err := plan.Block.Validate(); err != nil {
			return nil, Dims{}, err
		}
	}
	return plans, dims, nil
}

// blockPlan plans one residual block over the channel window w, where w[0]
// is the block input and w[1:] are the conv outputs.
func (r ResidualStages) blockPlan(w []int, act Activation) StagePlan {
	first, last := w[0], w[len(w)-1]
	plan := StagePlan{
		Kind:        StageResidual,
		InChannels:  first,
		OutChannels: last,
		Activation:  act,
	}

	if r.Bottleneck && first == last && len(w)-1 >= 3 {
		inner := slices.Clone(w[2 : len(w)-1])
		bottleneck := BottleneckBlockSpec{
			InOutChannels:    first,
			InnerChannels:    inner,
			InnerKernelSizes: kernelsOf(3, len(inner)),
			BatchNorm:        r.BatchNorm,
			Dropout:          r.Dropout,
			Activation:       act,
		}
		plan.Bottleneck = &bottleneck
		plan.Block = bottleneck.Expand()
		return plan
	}

	plan.Block = ResidualBlockSpec{
		InChannels:  first,
		Channels:    slices.Clone(w[1:]),
		KernelSizes: kernelsOf(3, len(w)-1),
		BatchNorm:   r.BatchNorm,
		Dropout:     r.Dropout,
		Activation:  act,
	}
	return plan
}

func kernelsOf(k, n int) []int {
	kernels := make([]int, n)
	for i := range kernels {
		kernels[i] = k
	}
	return kernels
}

// customStages is the residual extractor with batch normalization and
// channel dropout enabled.
type customStages struct {
	ResidualStages
}

// Name returns "custom".
func (customStages) Name() string {
	return "custom"
}

// String describes the builder and its settings.
func (c customStages) String() string {
	return c.describe(c.Name())
}

// CustomStages returns the "custom" preset: residual blocks with batch
// normalization and 0.1 channel dropout.
func CustomStages() StageBuilder {
	return CustomStagesWith(ResidualStages{BatchNorm: true, Dropout: 0.1})
}

// CustomStagesWith returns the "custom" builder with explicit residual
// settings.
func CustomStagesWith(r ResidualStages) StageBuilder {
	return customStages{r}
}

// CustomArchitecture returns a spec with the "custom" preset defaults:
// leaky ReLU with slope 0.01, 2x2 max pooling and 3x3 same-padded convs.
func CustomArchitecture(inSize [3]int, outClasses int, channels []int, poolEvery int, hiddenDims []int) ArchitectureSpec {
	return ArchitectureSpec{
		InSize:     inSize,
		OutClasses: outClasses,
		Channels:   slices.Clone(channels),
		PoolEvery:  poolEvery,
		HiddenDims: slices.Clone(hiddenDims),
		Conv:       ConvParams{KernelSize: 3, Stride: 1, Padding: 1},
		Activation: Activation{Kind: ActivationLeakyReLU, NegativeSlope: DefaultNegativeSlope},
		Pooling:    Pooling{Kind: PoolingMax, KernelSize: 2},
	}
}

// BuilderByName returns the stage builder registered under name
// ("cnn", "resnet" or "custom"). The resnet builder has no batch
// normalization, dropout or bottlenecks.
func BuilderByName(name string) (StageBuilder, error) {
	switch name {
	case "cnn":
		return PlainStages{}, nil
	case "resnet":
		return ResidualStages{}, nil
	case "custom":
		return CustomStages(), nil
	default:
		return nil, configErrorf("model", "unknown model %q (want cnn, resnet or custom)", name)
	}
}
