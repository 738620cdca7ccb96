package models

import (
	"fmt"
	"strings"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// StageKind identifies what a pipeline stage computes.
type StageKind string

// Stage kinds.
const (
	StageConv     StageKind = "conv"     // Conv2D followed by its activation
	StagePool     StageKind = "pool"     // MaxPool2D or AvgPool2D
	StageResidual StageKind = "residual" // ResidualBlock, plain or bottleneck
)

// StagePlan is the declarative description of one stage. Plans are produced
// by a StageBuilder and instantiated by BuildStages.
type StagePlan struct {
	Kind        StageKind
	InChannels  int
	OutChannels int

	Conv       ConvParams // StageConv
	Activation Activation // StageConv, StageResidual
	Pooling    Pooling    // StagePool

	// Block is the residual block for StageResidual. When Bottleneck is set
	// the block is built with NewBottleneckBlock and Block holds its
	// expansion.
	Block      ResidualBlockSpec
	Bottleneck *BottleneckBlockSpec
}

// String returns a one-line description, e.g. "conv 3->32 k3 s1 p1 relu".
func (p StagePlan) String() string {
	switch p.Kind {
	case StageConv:
		return fmt.Sprintf("conv %d->%d k%d s%d p%d %s",
			p.InChannels, p.OutChannels, p.Conv.KernelSize, p.Conv.Stride, p.Conv.Padding, p.Activation)
	case StagePool:
		return fmt.Sprintf("pool %s s%d p%d", p.Pooling, p.Pooling.normalized().Stride, p.Pooling.Padding)
	case StageResidual:
		form := "residual"
		if p.Bottleneck != nil {
			form = "bottleneck"
		}
		return fmt.Sprintf("%s %d->%v k%v", form, p.InChannels, p.Block.Channels, p.Block.KernelSizes)
	default:
		return string(p.Kind)
	}
}

// buildStage instantiates the layers described by plan.
func buildStage[B tensor.Backend](plan StagePlan, backend B) (nn.Module[B], error) {
	switch plan.Kind {
	case StageConv:
		k := plan.Conv.KernelSize
		return nn.NewSequential[B](
			nn.NewConv2D(plan.InChannels, plan.OutChannels, k, k, plan.Conv.Stride, plan.Conv.Padding, true, backend),
			newActivation[B](plan.Activation),
		), nil
	case StagePool:
		return newPooling(plan.Pooling, backend), nil
	case StageResidual:
		if plan.Bottleneck != nil {
			return NewBottleneckBlock(*plan.Bottleneck, backend)
		}
		return NewResidualBlock(plan.Block, backend)
	default:
		return nil, configErrorf("stage.kind", "unsupported stage kind %q", plan.Kind)
	}
}

// Stage is one built element of a feature extractor.
type Stage[B tensor.Backend] struct {
	Plan   StagePlan
	Module nn.Module[B]
}

// Pipeline is a feature extractor: stages applied in order.
//
// It behaves like nn.Sequential but keeps each stage's plan, which Summary
// and error reporting use to describe the network.
type Pipeline[B tensor.Backend] struct {
	stages []Stage[B]
}

// Forward applies every stage in order.
func (p *Pipeline[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := input
	for _, s := range p.stages {
		x = s.Module.Forward(x)
	}
	return x
}

// Parameters returns all stage parameters in order.
func (p *Pipeline[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, s := range p.stages {
		params = append(params, s.Module.Parameters()...)
	}
	return params
}

// Len returns the number of stages.
func (p *Pipeline[B]) Len() int {
	return len(p.stages)
}

// Stage returns the stage at index.
func (p *Pipeline[B]) Stage(index int) Stage[B] {
	return p.stages[index]
}

// Stages returns all stages. The slice must not be modified.
func (p *Pipeline[B]) Stages() []Stage[B] {
	return p.stages
}

// SetTraining propagates the mode to every stage.
func (p *Pipeline[B]) SetTraining(training bool) {
	for _, s := range p.stages {
		nn.SetTraining(s.Module, training)
	}
}

// Training reports whether any stage is in training mode.
func (p *Pipeline[B]) Training() bool {
	for _, s := range p.stages {
		if nn.IsTraining(s.Module) {
			return true
		}
	}
	return false
}

// StateDict returns stage entries prefixed with their index.
func (p *Pipeline[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, s := range p.stages {
		nn.MergeStateDict(stateDict, fmt.Sprintf("%d", i), s.Module)
	}
	return stateDict
}

// LoadStateDict loads entries produced by StateDict.
func (p *Pipeline[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, s := range p.stages {
		if err := nn.LoadChildStateDict(stateDict, fmt.Sprintf("%d", i), s.Module); err != nil {
			return fmt.Errorf("failed to load stage %d (%s): %w", i, s.Plan, err)
		}
	}
	return nil
}

// String lists the stages one per line.
func (p *Pipeline[B]) String() string {
	var sb strings.Builder
	sb.WriteString("Pipeline(\n")
	for i, s := range p.stages {
		desc := fmt.Sprintf("%v", s.Module)
		fmt.Fprintf(&sb, "  (%d): %s\n", i, strings.ReplaceAll(desc, "\n", "\n  "))
	}
	sb.WriteString(")")
	return sb.String()
}
