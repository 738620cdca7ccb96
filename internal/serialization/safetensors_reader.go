package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/convnet/internal/tensor"
)

// SafeTensors is a fully loaded SafeTensors file.
type SafeTensors struct {
	Tensors  map[string]*tensor.RawTensor
	Metadata map[string]string
}

// ReadSafeTensors reads every tensor of a SafeTensors file into memory.
func ReadSafeTensors(path string) (*SafeTensors, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close() // Read-only; close errors carry no information
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return decodeSafeTensors(file, info.Size())
}

func decodeSafeTensors(r io.Reader, fileSize int64) (*SafeTensors, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize || int64(headerSize) > fileSize-8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	out := &SafeTensors{Tensors: make(map[string]*tensor.RawTensor, len(fields))}
	metas := make([]TensorMeta, 0, len(fields))

	for name, msg := range fields {
		if name == "__metadata__" {
			if err := json.Unmarshal(msg, &out.Metadata); err != nil {
				return nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
			continue
		}
		if err := ValidateTensorName(name); err != nil {
			return nil, err
		}

		var h SafeTensorHeader
		if err := json.Unmarshal(msg, &h); err != nil {
			return nil, fmt.Errorf("failed to parse tensor %s: %w", name, err)
		}
		shape := make([]int, len(h.Shape))
		for i, d := range h.Shape {
			shape[i] = int(d)
		}
		metas = append(metas, TensorMeta{
			Name:   name,
			DType:  h.DType,
			Shape:  shape,
			Offset: h.DataOffsets[0],
			Size:   h.DataOffsets[1] - h.DataOffsets[0],
		})
	}

	dataSize := fileSize - 8 - int64(headerSize)
	if err := ValidateTensorOffsets(metas, dataSize); err != nil {
		return nil, err
	}

	data := make([]byte, dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	for _, m := range metas {
		raw, err := decodeTensor(m, data)
		if err != nil {
			return nil, err
		}
		out.Tensors[m.Name] = raw
	}

	return out, nil
}

func decodeTensor(m TensorMeta, data []byte) (*tensor.RawTensor, error) {
	dtype, err := dtypeFromSafeTensors(m.DType)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", m.Name, err)
	}

	raw, err := tensor.NewRaw(tensor.Shape(m.Shape), dtype, tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", m.Name, err)
	}
	if int64(raw.ByteSize()) != m.Size {
		return nil, &ValidationError{
			Type:    "size_mismatch",
			Tensor:  m.Name,
			Details: fmt.Sprintf("shape %v needs %d bytes, header says %d", m.Shape, raw.ByteSize(), m.Size),
			Err:     ErrOutOfBounds,
		}
	}

	copy(raw.Data(), data[m.Offset:m.Offset+m.Size])
	return raw, nil
}
