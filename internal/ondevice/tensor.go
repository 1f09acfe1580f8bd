package ondevice

import "fmt"

// Tensor is the raw output of an inference pipeline.
// Rank 1 is a pooled sentence vector; rank 2 and 3 carry one row per token.
type Tensor struct {
	Data  []float32
	Shape []int
}

// Flatten reduces a tensor to a single vector. Token rows are mean-pooled.
func Flatten(t Tensor) ([]float32, error) {
	if len(t.Data) == 0 {
		return nil, fmt.Errorf("empty tensor")
	}
	if len(t.Shape) <= 1 {
		return t.Data, nil
	}

	dim := t.Shape[len(t.Shape)-1]
	if dim <= 0 || len(t.Data)%dim != 0 {
		return nil, fmt.Errorf("tensor shape %v does not match %d values", t.Shape, len(t.Data))
	}
	rows := len(t.Data) / dim
	if rows == 1 {
		return t.Data, nil
	}

	out := make([]float32, dim)
	for r := 0; r < rows; r++ {
		row := t.Data[r*dim : (r+1)*dim]
		for i, v := range row {
			out[i] += v
		}
	}
	for i := range out {
		out[i] /= float32(rows)
	}
	return out, nil
}
