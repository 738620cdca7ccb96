package models

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// Classifier is a convolutional image classifier: a feature extractor
// followed by a fully connected head that returns raw class scores.
//
// Architecture:
//
//	Input [B, C, H, W]
//	  ↓
//	Pipeline (stages from a StageBuilder)
//	  ↓
//	Flatten [B, F]
//	  ↓
//	(Linear -> ACT)*M -> Linear
//	  ↓
//	Logits [B, OutClasses]
//
// New classifiers are in inference mode; call SetTraining(true) to enable
// dropout and batch statistics.
type Classifier[B tensor.Backend] struct {
	spec        ArchitectureSpec
	builder     string
	features    *Pipeline[B]
	head        *nn.Sequential[B]
	dims        Dims
	numFeatures int
	backend     B
}

// NewClassifier validates spec, builds the feature extractor with builder,
// probes it for the flattened feature count and builds the head.
//
// Example:
//
//	spec := models.ArchitectureSpec{
//	    InSize:     [3]int{3, 32, 32},
//	    OutClasses: 10,
//	    Channels:   []int{32, 32, 64, 64},
//	    PoolEvery:  2,
//	    HiddenDims: []int{100},
//	    Conv:       models.ConvParams{KernelSize: 3, Padding: 1},
//	    Pooling:    models.Pooling{Kind: models.PoolingMax, KernelSize: 2},
//	}
//	clf, err := models.NewClassifier(spec, models.ResidualStages{BatchNorm: true}, cpu.New())
func NewClassifier[B tensor.Backend](spec ArchitectureSpec, builder StageBuilder, backend B) (*Classifier[B], error) {
	if builder == nil {
		return nil, configErrorf("builder", "must not be nil")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec = spec.Normalized()

	features, dims, err := BuildStages(spec, builder, backend)
	if err != nil {
		return nil, err
	}
	numFeatures, err := ProbeFeatures(features, spec.InSize, backend)
	if err != nil {
		return nil, err
	}

	dimsOut := append(append([]int(nil), spec.HiddenDims...), spec.OutClasses)
	nonlins := make([]nn.Module[B], len(dimsOut))
	for i := range spec.HiddenDims {
		nonlins[i] = newActivation[B](spec.Activation)
	}
	head, err := nn.NewMLP(numFeatures, dimsOut, nonlins, backend)
	if err != nil {
		return nil, configErrorf("hidden_dims", "%v", err)
	}

	c := &Classifier[B]{
		spec:        spec,
		builder:     builder.Name(),
		features:    features,
		head:        head,
		dims:        dims,
		numFeatures: numFeatures,
		backend:     backend,
	}
	c.SetTraining(false)
	return c, nil
}

// NewCNN builds a plain convolutional classifier.
func NewCNN[B tensor.Backend](spec ArchitectureSpec, backend B) (*Classifier[B], error) {
	return NewClassifier(spec, PlainStages{}, backend)
}

// NewResNet builds a residual classifier.
func NewResNet[B tensor.Backend](spec ArchitectureSpec, stages ResidualStages, backend B) (*Classifier[B], error) {
	return NewClassifier(spec, stages, backend)
}

// Forward computes class scores for a [batch, C, H, W] input.
// Returns [batch, OutClasses].
func (c *Classifier[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	want := c.spec.InSize
	if len(shape) != 4 || shape[1] != want[0] || shape[2] != want[1] || shape[3] != want[2] {
		panic(fmt.Sprintf("classifier: expected input [N,%d,%d,%d], got %v", want[0], want[1], want[2], shape))
	}
	features := c.features.Forward(input)
	return c.head.Forward(features.Flatten())
}

// Parameters returns extractor parameters followed by head parameters.
func (c *Classifier[B]) Parameters() []*nn.Parameter[B] {
	params := c.features.Parameters()
	return append(params, c.head.Parameters()...)
}

// NumParameters returns the total number of scalar parameters.
func (c *Classifier[B]) NumParameters() int {
	return nn.NumParameters[B](c)
}

// NumFeatures returns the flattened feature count fed to the head.
func (c *Classifier[B]) NumFeatures() int {
	return c.numFeatures
}

// TrackedDims returns the spatial size tracked while planning the stages.
func (c *Classifier[B]) TrackedDims() Dims {
	return c.dims
}

// Spec returns a copy of the normalized architecture spec.
func (c *Classifier[B]) Spec() ArchitectureSpec {
	return c.spec.Clone()
}

// BuilderName returns the name of the stage builder used.
func (c *Classifier[B]) BuilderName() string {
	return c.builder
}

// Backend returns the compute backend the classifier was built with.
func (c *Classifier[B]) Backend() B {
	return c.backend
}

// Features returns the feature extractor.
func (c *Classifier[B]) Features() *Pipeline[B] {
	return c.features
}

// Head returns the fully connected head.
func (c *Classifier[B]) Head() *nn.Sequential[B] {
	return c.head
}

// SetTraining switches dropout and batch normalization between training and
// inference behavior.
func (c *Classifier[B]) SetTraining(training bool) {
	c.features.SetTraining(training)
	c.head.SetTraining(training)
}

// Training reports whether any layer is in training mode.
func (c *Classifier[B]) Training() bool {
	return c.features.Training() || c.head.Training()
}

// StateDict returns every parameter and batch-norm buffer, named by path:
// "features.<stage>..." and "head.<layer>...".
func (c *Classifier[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	nn.MergeStateDict(stateDict, "features", c.features)
	nn.MergeStateDict(stateDict, "head", c.head)
	return stateDict
}

// LoadStateDict loads entries produced by StateDict.
func (c *Classifier[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := nn.LoadChildStateDict(stateDict, "features", c.features); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	if err := nn.LoadChildStateDict(stateDict, "head", c.head); err != nil {
		return fmt.Errorf("head: %w", err)
	}
	return nil
}

// Summary writes a per-stage table of output shapes and parameter counts for
// a batch of one.
func (c *Classifier[B]) Summary(w io.Writer) error {
	shapes, err := probeShapes(c.features, c.spec.InSize, c.backend)
	if err != nil {
		return err
	}

	in := c.spec.InSize
	fmt.Fprintf(w, "Model: %s (%s backend)\n", c.builder, c.backend.Name())
	fmt.Fprintf(w, "Input: [1 %d %d %d]\n", in[0], in[1], in[2])

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Layer\tDescription\tOutput\tParams")
	for i, s := range c.features.Stages() {
		fmt.Fprintf(tw, "features.%d\t%s\t%v\t%d\n", i, s.Plan, shapes[i], nn.NumParameters(s.Module))
	}
	fmt.Fprintf(tw, "flatten\t\t[1 %d]\t0\n", c.numFeatures)
	width := c.numFeatures
	for i, m := range c.head.Modules() {
		if l, ok := m.(*nn.Linear[B]); ok {
			width = l.OutFeatures()
		}
		fmt.Fprintf(tw, "head.%d\t%v\t[1 %d]\t%d\n", i, m, width, nn.NumParameters(m))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	_, err = fmt.Fprintf(w, "Total parameters: %d\n", c.NumParameters())
	return err
}

// String returns the layer tree.
func (c *Classifier[B]) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Classifier[%s](\n", c.builder)
	fmt.Fprintf(&sb, "  (features): %s\n", strings.ReplaceAll(c.features.String(), "\n", "\n  "))
	fmt.Fprintf(&sb, "  (head): %s\n", strings.ReplaceAll(c.head.String(), "\n", "\n  "))
	sb.WriteString(")")
	return sb.String()
}
