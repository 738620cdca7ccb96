// Package config loads classifier architectures from YAML files.
//
// Example file:
//
//	model: resnet          # cnn | resnet | custom
//	in_size: [3, 32, 32]
//	out_classes: 10
//	channels: [32, 32, 64, 64]
//	pool_every: 2
//	hidden_dims: [100]
//	conv: {kernel_size: 3, stride: 1, padding: 1}
//	activation: {kind: lrelu, negative_slope: 0.01}
//	pooling: {kind: max, kernel_size: 2}
//	residual: {batchnorm: true, dropout: 0.1, bottleneck: false}
//	seed: 42
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/convnet/internal/models"
)

// Model names accepted in the "model" field.
const (
	ModelCNN    = "cnn"
	ModelResNet = "resnet"
	ModelCustom = "custom"
)

// Residual holds the residual stage settings. Nil fields take the model's
// defaults: off for resnet, batch norm and 0.1 dropout for custom.
type Residual struct {
	BatchNorm  *bool    `yaml:"batchnorm,omitempty"`
	Dropout    *float64 `yaml:"dropout,omitempty"`
	Bottleneck bool     `yaml:"bottleneck,omitempty"`
}

func (r Residual) isZero() bool {
	return r.BatchNorm == nil && r.Dropout == nil && !r.Bottleneck
}

// Config is a classifier architecture as stored on disk.
type Config struct {
	Model      string            `yaml:"model"`
	InSize     []int             `yaml:"in_size,flow"`
	OutClasses int               `yaml:"out_classes"`
	Channels   []int             `yaml:"channels,flow"`
	PoolEvery  int               `yaml:"pool_every"`
	HiddenDims []int             `yaml:"hidden_dims,flow"`
	Conv       models.ConvParams `yaml:"conv"`
	Activation models.Activation `yaml:"activation"`
	Pooling    models.Pooling    `yaml:"pooling"`
	Residual   Residual          `yaml:"residual,omitempty"`
	Seed       *uint64           `yaml:"seed,omitempty"` // weight initialization seed
}

// Load reads and validates a YAML architecture file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates YAML from data.
func Parse(data []byte) (*Config, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads one YAML document from r. Unknown fields are errors.
// Missing optional fields take their defaults.
func Decode(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Config
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty config")
		}
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// applyDefaults fills fields the model implies when they are left out.
func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = ModelCNN
	}
	if c.Model != ModelCustom {
		return
	}

	preset := models.CustomArchitecture([3]int{}, 0, nil, 0, nil)
	if c.Conv == (models.ConvParams{}) {
		c.Conv = preset.Conv
	}
	if c.Activation.Kind == "" {
		c.Activation = preset.Activation
	}
	if c.Pooling.KernelSize == 0 {
		if c.Pooling.Kind == "" {
			c.Pooling.Kind = preset.Pooling.Kind
		}
		c.Pooling.KernelSize = preset.Pooling.KernelSize
	}
}

// Validate checks the model name, the architecture and the stage settings
// by planning the feature extractor. No layers are allocated.
func (c *Config) Validate() error {
	builder, err := c.StageBuilder()
	if err != nil {
		return err
	}
	spec, err := c.Architecture()
	if err != nil {
		return err
	}
	_, _, err = builder.PlanStages(spec)
	return err
}

// Architecture converts c to an architecture spec.
func (c *Config) Architecture() (models.ArchitectureSpec, error) {
	if len(c.InSize) != 3 {
		return models.ArchitectureSpec{}, &models.ConfigError{
			Field:  "in_size",
			Reason: fmt.Sprintf("want [channels, height, width], got %d values", len(c.InSize)),
		}
	}
	spec := models.ArchitectureSpec{
		InSize:     [3]int{c.InSize[0], c.InSize[1], c.InSize[2]},
		OutClasses: c.OutClasses,
		Channels:   append([]int(nil), c.Channels...),
		PoolEvery:  c.PoolEvery,
		HiddenDims: append([]int(nil), c.HiddenDims...),
		Conv:       c.Conv,
		Activation: c.Activation,
		Pooling:    c.Pooling,
	}
	return spec, nil
}

// StageBuilder returns the stage builder selected by the model name.
func (c *Config) StageBuilder() (models.StageBuilder, error) {
	switch c.Model {
	case ModelCNN:
		if !c.Residual.isZero() {
			return nil, &models.ConfigError{Field: "residual", Reason: "only valid for resnet and custom models"}
		}
		return models.PlainStages{}, nil
	case ModelResNet:
		return c.residualStages(models.ResidualStages{}), nil
	case ModelCustom:
		return models.CustomStagesWith(c.residualStages(models.ResidualStages{BatchNorm: true, Dropout: 0.1})), nil
	default:
		return models.BuilderByName(c.Model)
	}
}

func (c *Config) residualStages(base models.ResidualStages) models.ResidualStages {
	if c.Residual.BatchNorm != nil {
		base.BatchNorm = *c.Residual.BatchNorm
	}
	if c.Residual.Dropout != nil {
		base.Dropout = *c.Residual.Dropout
	}
	base.Bottleneck = c.Residual.Bottleneck
	return base
}

// Save writes c as YAML. The file is written under a temporary name and
// renamed, so readers never see a partial file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to save config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// String lists the settings one per line.
func (c *Config) String() string {
	str := []string{"== Config =="}
	add := func(key string, value any) {
		str = append(str, fmt.Sprintf("%-12s: %v", key, value))
	}
	add("model", c.Model)
	add("in_size", c.InSize)
	add("out_classes", c.OutClasses)
	add("channels", c.Channels)
	add("pool_every", c.PoolEvery)
	add("hidden_dims", c.HiddenDims)
	add("conv", fmt.Sprintf("k%d s%d p%d", c.Conv.KernelSize, c.Conv.Stride, c.Conv.Padding))
	add("activation", c.Activation)
	add("pooling", c.Pooling)
	if b, err := c.StageBuilder(); err == nil {
		add("stages", b)
	}
	if c.Seed != nil {
		add("seed", *c.Seed)
	}
	return strings.Join(str, "\n")
}
