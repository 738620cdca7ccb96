package nn

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/convnet/internal/serialization"
	"github.com/born-ml/convnet/internal/tensor"
)

// SaveState writes m's state dictionary to a SafeTensors file.
//
// Example:
//
//	err := nn.SaveState("model.safetensors", model, map[string]string{"arch": "resnet"})
func SaveState(path string, m Stateful, metadata map[string]string) error {
	if err := serialization.WriteSafeTensors(path, m.StateDict(), metadata); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// LoadState reads a SafeTensors file into m and returns the file metadata.
//
// The file must contain exactly the entries of m.StateDict(): missing and
// unexpected names are both errors, so weights never load into a model of a
// different architecture.
func LoadState(path string, m Stateful) (map[string]string, error) {
	st, err := serialization.ReadSafeTensors(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	if err := CheckStateKeys(m.StateDict(), st.Tensors); err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	if err := m.LoadStateDict(st.Tensors); err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return st.Metadata, nil
}

// CheckStateKeys reports names present in only one of want and got.
func CheckStateKeys(want, got map[string]*tensor.RawTensor) error {
	var missing, unexpected []string
	for name := range want {
		if _, ok := got[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range got {
		if _, ok := want[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	if len(missing) == 0 && len(unexpected) == 0 {
		return nil
	}

	sort.Strings(missing)
	sort.Strings(unexpected)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing keys: "+strings.Join(missing, ", "))
	}
	if len(unexpected) > 0 {
		parts = append(parts, "unexpected keys: "+strings.Join(unexpected, ", "))
	}
	return fmt.Errorf("state dict mismatch: %s", strings.Join(parts, "; "))
}
