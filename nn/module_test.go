// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"path/filepath"
	"testing"

	"github.com/born-ml/convnet/internal/backend/cpu"
	"github.com/born-ml/convnet/internal/tensor"
	"github.com/born-ml/convnet/nn"
)

type B = *cpu.CPUBackend

// TestModuleInterface verifies that concrete types implement Module interface.
func TestModuleInterface(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name   string
		module nn.Module[B]
		input  tensor.Shape
		want   tensor.Shape
	}{
		{
			name:   "Linear",
			module: nn.NewLinear(10, 5, backend),
			input:  tensor.Shape{2, 10},
			want:   tensor.Shape{2, 5},
		},
		{
			name: "Sequential",
			module: nn.NewSequential[B](
				nn.NewConv2D(3, 4, 3, 3, 1, 1, true, backend),
				nn.NewBatchNorm2D(4, backend),
				nn.NewLeakyReLU[B](0.1),
				nn.NewDropout2D[B](0.5),
				nn.NewAvgPool2D(2, 2, 0, backend),
				nn.NewIdentity[B](),
			),
			input: tensor.Shape{2, 3, 8, 8},
			want:  tensor.Shape{2, 4, 4, 4},
		},
		{
			name:   "MaxPool2D",
			module: nn.NewMaxPool2D(3, 1, 1, backend),
			input:  tensor.Shape{1, 2, 5, 5},
			want:   tensor.Shape{1, 2, 5, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nn.SetTraining(tt.module, false)
			out := tt.module.Forward(tensor.Ones[float32](tt.input, backend))
			if !out.Shape().Equal(tt.want) {
				t.Errorf("Forward shape = %v, want %v", out.Shape(), tt.want)
			}
			if nn.IsTraining(tt.module) {
				t.Error("module still in training mode")
			}
		})
	}
}

// TestNewMLP verifies the head layout.
func TestNewMLP(t *testing.T) {
	backend := cpu.New()
	head, err := nn.NewMLP(8, []int{4, 2}, []nn.Module[B]{nn.NewReLU[B](), nil}, backend)
	if err != nil {
		t.Fatalf("NewMLP failed: %v", err)
	}
	if head.Len() != 3 {
		t.Errorf("Len() = %d, want 3", head.Len())
	}
	if got, want := nn.NumParameters[B](head), 8*4+4+4*2+2; got != want {
		t.Errorf("NumParameters = %d, want %d", got, want)
	}

	if _, err := nn.NewMLP[B](8, nil, nil, backend); err == nil {
		t.Error("NewMLP with no dims should fail")
	}
}

// TestSaveLoadState verifies persistence through the public API.
func TestSaveLoadState(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "linear.safetensors")

	src := nn.NewLinear(3, 2, backend)
	if err := nn.SaveState(path, src, map[string]string{"k": "v"}); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	dst := nn.NewLinear(3, 2, backend)
	meta, err := nn.LoadState(path, dst)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if meta["k"] != "v" {
		t.Errorf("metadata = %v, want k=v", meta)
	}

	want := src.Weight().Tensor().Data()
	got := dst.Weight().Tensor().Data()
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("weight[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
