package models

import "fmt"

// Dims is the spatial size tracked while stages are planned.
//
// Convs are tracked as floor((dim-k+2p)/stride) with no +1, so the value may
// disagree with the real output size. The head is sized from the probe
// (see ProbeFeatures), never from Dims.
type Dims struct {
	Height int
	Width  int
}

// String returns "HxW".
func (d Dims) String() string {
	return fmt.Sprintf("%dx%d", d.Height, d.Width)
}

// afterConv applies floor((dim - k + 2*pad) / stride) to both axes.
func (d Dims) afterConv(p ConvParams) Dims {
	f := func(dim int) int {
		return floorDiv(dim-p.KernelSize+2*p.Padding, p.Stride)
	}
	return Dims{Height: f(d.Height), Width: f(d.Width)}
}

// afterPool divides both axes by the pooling kernel.
func (d Dims) afterPool(kernel int) Dims {
	return Dims{Height: floorDiv(d.Height, kernel), Width: floorDiv(d.Width, kernel)}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
