// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package models

import (
	"github.com/born-ml/convnet/internal/models"
	"github.com/born-ml/convnet/internal/tensor"
)

// Architecture types

// ArchitectureSpec describes a convolutional classifier.
type ArchitectureSpec = models.ArchitectureSpec

// ConvParams are the convolution settings shared by every plain conv stage.
type ConvParams = models.ConvParams

// Activation selects an activation function and its parameters.
type Activation = models.Activation

// ActivationKind names a supported activation function.
type ActivationKind = models.ActivationKind

// Supported activations.
const (
	ActivationReLU      ActivationKind = models.ActivationReLU
	ActivationLeakyReLU ActivationKind = models.ActivationLeakyReLU
)

// DefaultNegativeSlope is the leaky ReLU slope used when none is given.
const DefaultNegativeSlope = models.DefaultNegativeSlope

// Pooling selects a pooling operation and its parameters.
type Pooling = models.Pooling

// PoolingKind names a supported pooling operation.
type PoolingKind = models.PoolingKind

// Supported pooling operations.
const (
	PoolingMax PoolingKind = models.PoolingMax
	PoolingAvg PoolingKind = models.PoolingAvg
)

// ResidualBlockSpec configures a residual block.
type ResidualBlockSpec = models.ResidualBlockSpec

// BottleneckBlockSpec configures a bottleneck residual block.
type BottleneckBlockSpec = models.BottleneckBlockSpec

// Dims is the spatial size tracked while stages are planned.
type Dims = models.Dims

// Stage construction

// StageBuilder turns an architecture spec into the stage plans of a feature extractor.
type StageBuilder = models.StageBuilder

// StagePlan is the declarative description of one stage.
type StagePlan = models.StagePlan

// StageKind identifies what a pipeline stage computes.
type StageKind = models.StageKind

// Stage kinds.
const (
	StageConv     StageKind = models.StageConv
	StagePool     StageKind = models.StagePool
	StageResidual StageKind = models.StageResidual
)

// PlainStages builds the plain CNN extractor.
type PlainStages = models.PlainStages

// ResidualStages builds the ResNet extractor.
type ResidualStages = models.ResidualStages

// CustomStages returns the "custom" preset: residual blocks with batch
// normalization and 0.1 channel dropout.
func CustomStages() StageBuilder {
	return models.CustomStages()
}

// CustomStagesWith returns the "custom" builder with explicit residual settings.
func CustomStagesWith(r ResidualStages) StageBuilder {
	return models.CustomStagesWith(r)
}

// CustomArchitecture returns a spec with the "custom" preset defaults.
func CustomArchitecture(inSize [3]int, outClasses int, channels []int, poolEvery int, hiddenDims []int) ArchitectureSpec {
	return models.CustomArchitecture(inSize, outClasses, channels, poolEvery, hiddenDims)
}

// BuilderByName returns the stage builder for "cnn", "resnet" or "custom".
func BuilderByName(name string) (StageBuilder, error) {
	return models.BuilderByName(name)
}

// Stage is one built element of a feature extractor.
type Stage[B tensor.Backend] = models.Stage[B]

// Pipeline is a feature extractor: stages applied in order.
type Pipeline[B tensor.Backend] = models.Pipeline[B]

// BuildStages plans and instantiates the feature extractor for spec.
func BuildStages[B tensor.Backend](spec ArchitectureSpec, builder StageBuilder, backend B) (*Pipeline[B], Dims, error) {
	return models.BuildStages(spec, builder, backend)
}

// ProbeFeatures returns the flattened feature count p produces for one input.
func ProbeFeatures[B tensor.Backend](p *Pipeline[B], inSize [3]int, backend B) (int, error) {
	return models.ProbeFeatures(p, inSize, backend)
}

// Blocks

// ResidualBlock computes ReLU(main(x) + shortcut(x)).
type ResidualBlock[B tensor.Backend] = models.ResidualBlock[B]

// NewResidualBlock validates spec and builds the block.
func NewResidualBlock[B tensor.Backend](spec ResidualBlockSpec, backend B) (*ResidualBlock[B], error) {
	return models.NewResidualBlock(spec, backend)
}

// NewBottleneckBlock validates spec and builds the expanded residual block.
func NewBottleneckBlock[B tensor.Backend](spec BottleneckBlockSpec, backend B) (*ResidualBlock[B], error) {
	return models.NewBottleneckBlock(spec, backend)
}

// Classifiers

// Classifier is a convolutional image classifier returning raw class scores.
type Classifier[B tensor.Backend] = models.Classifier[B]

// NewClassifier builds a classifier with the given stage builder.
//
// Example:
//
//	clf, err := models.NewClassifier(spec, models.CustomStages(), cpu.New())
func NewClassifier[B tensor.Backend](spec ArchitectureSpec, builder StageBuilder, backend B) (*Classifier[B], error) {
	return models.NewClassifier(spec, builder, backend)
}

// NewCNN builds a plain convolutional classifier.
func NewCNN[B tensor.Backend](spec ArchitectureSpec, backend B) (*Classifier[B], error) {
	return models.NewCNN(spec, backend)
}

// NewResNet builds a residual classifier.
func NewResNet[B tensor.Backend](spec ArchitectureSpec, stages ResidualStages, backend B) (*Classifier[B], error) {
	return models.NewResNet(spec, stages, backend)
}

// SaveWeights writes c's parameters and batch-norm buffers to a SafeTensors file.
func SaveWeights[B tensor.Backend](path string, c *Classifier[B]) error {
	return models.SaveWeights(path, c)
}

// LoadWeights reads a file written by SaveWeights into c.
func LoadWeights[B tensor.Backend](path string, c *Classifier[B]) error {
	return models.LoadWeights(path, c)
}

// Errors

// Sentinel errors matched with errors.Is.
var (
	ErrInvalidConfig = models.ErrInvalidConfig
	ErrShape         = models.ErrShape
)

// ConfigError reports an architecture specification that cannot be built.
type ConfigError = models.ConfigError

// ShapeError reports a stage that failed while probing the feature extractor.
type ShapeError = models.ShapeError
