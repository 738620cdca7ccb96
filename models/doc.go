// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package models builds configurable convolutional image classifiers.
//
// # Overview
//
// A classifier is described declaratively by an ArchitectureSpec:
//
//	[(CONV -> ACT)*P -> POOL]*(N/P) -> (FC -> ACT)*M -> FC
//
// and assembled by a StageBuilder that decides how the feature extractor is
// laid out:
//   - PlainStages: conv + activation stages with a pool after every P convs
//   - ResidualStages: one residual block per group of P convs, optionally
//     with batch normalization, channel dropout and bottleneck blocks
//   - CustomStages: residual blocks with batch normalization and 0.1 dropout
//
// The flattened feature count fed to the classifier head is measured by
// running a zero tensor through the extractor (ProbeFeatures). The probe
// never changes the global random state or the training mode.
//
// # Basic Usage
//
//	backend := cpu.New()
//	spec := models.ArchitectureSpec{
//	    InSize:     [3]int{3, 32, 32},
//	    OutClasses: 10,
//	    Channels:   []int{32, 32, 64, 64},
//	    PoolEvery:  2,
//	    HiddenDims: []int{100},
//	    Conv:       models.ConvParams{KernelSize: 3, Padding: 1},
//	    Pooling:    models.Pooling{Kind: models.PoolingMax, KernelSize: 2},
//	}
//	clf, err := models.NewClassifier(spec, models.ResidualStages{BatchNorm: true}, backend)
//	if err != nil {
//	    return err
//	}
//	logits := clf.Forward(images) // [batch, 10]
//
// # Errors
//
// Invalid specifications return errors matching ErrInvalidConfig before any
// layer is allocated. Specifications whose spatial size collapses return
// errors matching ErrShape from the probe.
package models
