package models

import (
	"fmt"

	"github.com/born-ml/convnet/internal/rng"
	"github.com/born-ml/convnet/internal/tensor"
)

// ProbeFeatures returns the number of features the extractor produces for
// one input of size inSize (channels, height, width).
//
// A zero tensor of shape (1, C, H, W) is run through p in inference mode.
// The training mode of p and the global random generator are both restored
// afterwards, also when a stage fails. A failing stage is reported as a
// *ShapeError.
func ProbeFeatures[B tensor.Backend](p *Pipeline[B], inSize [3]int, backend B) (int, error) {
	shapes, err := probeShapes(p, inSize, backend)
	if err != nil {
		return 0, err
	}
	if len(shapes) == 0 {
		return inSize[0] * inSize[1] * inSize[2], nil
	}
	return shapes[len(shapes)-1].NumElements(), nil
}

// probeShapes runs a dummy batch of one through p and records the output
// shape of every stage.
func probeShapes[B tensor.Backend](p *Pipeline[B], inSize [3]int, backend B) (shapes []tensor.Shape, err error) {
	defer rng.Guard()()

	training := p.Training()
	p.SetTraining(false)
	defer p.SetTraining(training)

	stage := -1
	defer func() {
		if r := recover(); r != nil {
			desc := "input"
			if stage >= 0 {
				desc = p.stages[stage].Plan.String()
			}
			shapes = nil
			err = &ShapeError{Stage: stage, Desc: desc, Err: fmt.Errorf("%v", r)}
		}
	}()

	x := tensor.Zeros[float32](tensor.Shape{1, inSize[0], inSize[1], inSize[2]}, backend)
	shapes = make([]tensor.Shape, 0, len(p.stages))
	for i, s := range p.stages {
		stage = i
		x = s.Module.Forward(x)
		shapes = append(shapes, x.Shape().Clone())
	}
	return shapes, nil
}
