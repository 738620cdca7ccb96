package models

import (
	"fmt"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/serialization"
	"github.com/born-ml/convnet/internal/tensor"
)

// Metadata keys written by SaveWeights.
const (
	MetaFormat  = "format"
	MetaBuilder = "builder"
	MetaInSize  = "in_size"
	MetaClasses = "out_classes"

	formatName = "convnet"
)

// SaveWeights writes c's parameters and batch-norm buffers to a SafeTensors
// file, together with metadata identifying the architecture.
func SaveWeights[B tensor.Backend](path string, c *Classifier[B]) error {
	in := c.spec.InSize
	metadata := map[string]string{
		MetaFormat:  formatName,
		MetaBuilder: c.builder,
		MetaInSize:  fmt.Sprintf("%d,%d,%d", in[0], in[1], in[2]),
		MetaClasses: fmt.Sprintf("%d", c.spec.OutClasses),
	}
	return nn.SaveState(path, c, metadata)
}

// LoadWeights reads a file written by SaveWeights into c.
//
// The file's recorded builder must match c's and it must hold exactly the
// tensors of c.StateDict() with matching shapes. c is left untouched when
// either check fails.
func LoadWeights[B tensor.Backend](path string, c *Classifier[B]) error {
	st, err := serialization.ReadSafeTensors(path)
	if err != nil {
		return fmt.Errorf("failed to load weights: %w", err)
	}
	if got, ok := st.Metadata[MetaBuilder]; ok && got != c.builder {
		return fmt.Errorf("failed to load weights: saved from %q model, loading into %q", got, c.builder)
	}
	if err := nn.CheckStateKeys(c.StateDict(), st.Tensors); err != nil {
		return fmt.Errorf("failed to load weights: %w", err)
	}
	if err := c.LoadStateDict(st.Tensors); err != nil {
		return fmt.Errorf("failed to load weights: %w", err)
	}
	return nil
}
