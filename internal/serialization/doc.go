// Package serialization stores state dictionaries in the SafeTensors format.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON object, tensor name -> {dtype, shape, data_offsets}]
//	  [Tensor data: raw little-endian bytes, names in sorted order]
//
// Example usage:
//
//	// Save
//	if err := serialization.WriteSafeTensors("model.safetensors", model.StateDict(), nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load
//	st, err := serialization.ReadSafeTensors("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := model.LoadStateDict(st.Tensors); err != nil {
//	    log.Fatal(err)
//	}
package serialization
