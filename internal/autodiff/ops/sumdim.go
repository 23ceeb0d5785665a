package ops

import "github.com/spikeml/ember/internal/tensor"

// SumDimOp represents a sum reduction along one dimension.
//
// Backward: each input element contributed with weight 1, so the output
// gradient broadcasts straight back to the input shape. When the forward
// pass dropped the reduced dimension, the gradient is first reshaped to the
// keep-dim form so broadcasting lines up.
type SumDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{
		input:   input,
		output:  output,
		dim:     dim,
		keepDim: keepDim,
	}
}

// Backward broadcasts the gradient back over the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := outputGrad
	if !op.keepDim {
		grad = backend.Reshape(grad, keepDimShape(op.input.Shape(), op.dim))
	}
	return []*tensor.RawTensor{expandTo(grad, op.input.Shape(), backend)}
}

// Inputs returns the input tensor [x].
func (op *SumDimOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the reduced tensor.
func (op *SumDimOp) Output() *tensor.RawTensor {
	return op.output
}

// keepDimShape is the input shape with the reduced dimension collapsed to 1.
func keepDimShape(input tensor.Shape, dim int) tensor.Shape {
	out := input.Clone()
	out[dim] = 1
	return out
}
